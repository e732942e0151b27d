package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // development, staging, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error
	LogFile    string `envconfig:"LOG_FILE"`                      // Rotated JSON log; empty logs to stdout only
	TimeZone   string `envconfig:"APP_TIMEZONE" default:"Africa/Algiers"`
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	Auth       AuthConfig
	Sync       SyncConfig
	Redis      RedisConfig
	Assistant  AssistantConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"30s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host         string `envconfig:"POSTGRES_HOST" required:"true"`
	Port         string `envconfig:"POSTGRES_PORT" default:"5432"`
	User         string `envconfig:"POSTGRES_USER" required:"true"`
	Password     string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName       string `envconfig:"POSTGRES_DBNAME" required:"true"`
	SSLMode      string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns int    `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns int    `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"5"`
	EnsureSchema bool   `envconfig:"POSTGRES_ENSURE_SCHEMA" default:"true"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// AuthConfig holds token signing and client cookie settings.
type AuthConfig struct {
	JWTSecret    string        `envconfig:"AUTH_JWT_SECRET" required:"true"`
	TokenTTL     time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"168h"`
	CookieSecret string        `envconfig:"AUTH_COOKIE_SECRET" required:"true"`
	CookieSecure bool          `envconfig:"AUTH_COOKIE_SECURE" default:"false"`
}

// SyncConfig holds catalog refresh and client lifecycle settings.
type SyncConfig struct {
	Schedule       string        `envconfig:"SYNC_SCHEDULE" default:"@every 5m"`
	Timeout        time.Duration `envconfig:"SYNC_TIMEOUT" default:"30s"`
	ProfileTimeout time.Duration `envconfig:"SYNC_PROFILE_TIMEOUT" default:"3s"`
	ClientIdleTTL  time.Duration `envconfig:"SYNC_CLIENT_IDLE_TTL" default:"2h"`
	EvictSchedule  string        `envconfig:"SYNC_EVICT_SCHEDULE" default:"@every 10m"`
	PruneSchedule  string        `envconfig:"SYNC_PRUNE_SCHEDULE" default:"@hourly"`
	// BootRefreshAfter is the snapshot age at which a new visitor triggers a refresh.
	BootRefreshAfter time.Duration `envconfig:"SYNC_BOOT_REFRESH_AFTER" default:"30s"`
}

// RedisConfig enables the catalog warm-start cache when Addr is set.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	Key      string        `envconfig:"REDIS_SNAPSHOT_KEY" default:"storefront:catalog:snapshot"`
	TTL      time.Duration `envconfig:"REDIS_SNAPSHOT_TTL" default:"24h"`
}

// AssistantConfig configures the OpenAI-compatible chat endpoint. An empty key disables it.
type AssistantConfig struct {
	BaseURL     string  `envconfig:"ASSISTANT_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	APIKey      string  `envconfig:"ASSISTANT_API_KEY"`
	Model       string  `envconfig:"ASSISTANT_MODEL" default:"gemini-3-flash-preview"`
	Temperature float64 `envconfig:"ASSISTANT_TEMPERATURE" default:"0.7"`
	StoreName   string  `envconfig:"ASSISTANT_STORE_NAME" default:"ShopHub"`
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads an optional .env file, then the environment. It reports whether a .env
// file was found so the caller can log it once logging is up.
func Load(envFiles ...string) (*Config, bool, error) {
	dotenv := godotenv.Load(envFiles...) == nil

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, dotenv, fmt.Errorf("failed to process configuration: %w", err)
	}
	switch cfg.AppEnv {
	case "development", "staging", "production":
	default:
		return nil, dotenv, fmt.Errorf("invalid APP_ENV: %s", cfg.AppEnv)
	}
	return &cfg, dotenv, nil
}
