package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setRequired(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "shop")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DBNAME", "storefront")
	t.Setenv("AUTH_JWT_SECRET", "jwt")
	t.Setenv("AUTH_COOKIE_SECRET", "cookie")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, dotenv, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.False(t, dotenv)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.HttpServer.Port)
	assert.Equal(t, "@every 5m", cfg.Sync.Schedule)
	assert.Equal(t, 3*time.Second, cfg.Sync.ProfileTimeout)
	assert.Equal(t, 30*time.Second, cfg.Sync.BootRefreshAfter)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, "host=db port=5432 user=shop password=secret dbname=storefront sslmode=disable", cfg.Postgres.DSN())
}

func TestLoad_DotEnvFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ASSISTANT_MODEL=gemini-test\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ASSISTANT_MODEL") })

	cfg, dotenv, err := Load(path)

	require.NoError(t, err)
	assert.True(t, dotenv)
	assert.Equal(t, "gemini-test", cfg.Assistant.Model)
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err, "Required variables are missing")

	setRequired(t)
	t.Setenv("APP_ENV", "qa")
	_, _, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "invalid APP_ENV")
}

func TestNewLogger(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })
	logFile := filepath.Join(t.TempDir(), "storefront.log")

	logger, err := NewLogger(&Config{AppEnv: "production", LogLevel: "warn", LogFile: logFile})
	require.NoError(t, err)
	logger.Warn("written")
	logger.Info("filtered")
	_ = logger.Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written"`)
	assert.NotContains(t, string(data), "filtered")

	_, err = NewLogger(&Config{AppEnv: "development", LogLevel: "loud"})
	assert.Error(t, err)
}
