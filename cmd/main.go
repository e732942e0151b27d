package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"storefront-service/internal/admin"
	"storefront-service/internal/api"
	"storefront-service/internal/assistant"
	"storefront-service/internal/auth"
	"storefront-service/internal/catalog"
	"storefront-service/internal/config"
	"storefront-service/internal/discount"
	"storefront-service/internal/inventory"
	"storefront-service/internal/session"
	"storefront-service/internal/store"
	"storefront-service/internal/storefront"
)

const defaultAppName = "StorefrontService"

func main() {
	// --- Configuration Loading ---
	cfg, dotenv, err := config.Load()
	if err != nil {
		// No logger yet; zap's example logger writes JSON to stdout.
		zap.NewExample().Fatal("error loading configuration", zap.Error(err))
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		zap.NewExample().Fatal("error building logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("service", defaultAppName))
	if !dotenv {
		logger.Info(".env file not found, relying on system environment")
	}
	logger.Info("configuration loaded", zap.String("log_level", cfg.LogLevel))

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Warn("unknown time zone, scheduling in UTC", zap.String("tz", cfg.TimeZone), zap.Error(err))
		loc = time.UTC
	}

	// --- Database Connection ---
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		logger.Fatal("failed to initialize database connection", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()
	if err := db.PingContext(startupCtx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	dbStore := store.NewPostgresStore(db, logger.Named("store"))
	if cfg.Postgres.EnsureSchema {
		if err := dbStore.EnsureSchema(startupCtx); err != nil {
			logger.Fatal("failed to ensure schema", zap.Error(err))
		}
	}
	logger.Info("database connection established",
		zap.String("host", cfg.Postgres.Host), zap.String("db", cfg.Postgres.DBName))

	// --- Catalog ---
	syncOpts := []catalog.Option{catalog.WithLogger(logger.Named("catalog"))}
	if cfg.Redis.Addr != "" {
		rdb := catalog.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		syncOpts = append(syncOpts, catalog.WithCache(catalog.NewRedisSnapshotCache(rdb, cfg.Redis.Key, cfg.Redis.TTL)))
		logger.Info("catalog snapshot cache enabled", zap.String("redis", cfg.Redis.Addr))
	}
	synchronizer := catalog.NewSynchronizer(dbStore, syncOpts...)
	health := api.NewHealthReporter(synchronizer, logger.Named("health"))
	synchronizer.WarmStart(startupCtx)
	if _, err := synchronizer.Refresh(startupCtx, "startup"); err != nil {
		logger.Warn("initial catalog sync incomplete", zap.Error(err))
	}

	// --- Services ---
	authService := auth.NewService(dbStore, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger.Named("auth"))
	registry := storefront.NewRegistry(storefront.Services{
		Store:     dbStore,
		Auth:      authService,
		Resolver:  session.NewResolver(dbStore, authService, cfg.Sync.ProfileTimeout, logger.Named("session")),
		Catalog:   synchronizer,
		Discounts: discount.NewValidator(dbStore, discount.WithLogger(logger.Named("discount"))),
		Logger:    logger.Named("storefront"),

		BootRefreshAfter: cfg.Sync.BootRefreshAfter,
	}, storefront.NewCookieStore(cfg.Auth.CookieSecret, cfg.Auth.CookieSecure), cfg.Sync.ClientIdleTTL)

	httpAPIHandler := api.NewHTTPHandler(api.Dependencies{
		Clients: registry,
		Catalog: synchronizer,
		Admin:   admin.NewService(dbStore, synchronizer, admin.WithLogger(logger.Named("admin"))),
		Orders:  inventory.NewReconciler(dbStore, synchronizer, logger.Named("inventory")),
		Assistant: assistant.NewShopper(assistant.Config{
			BaseURL:     cfg.Assistant.BaseURL,
			APIKey:      cfg.Assistant.APIKey,
			Model:       cfg.Assistant.Model,
			Temperature: cfg.Assistant.Temperature,
			StoreName:   cfg.Assistant.StoreName,
		}, logger.Named("assistant")),
		Logger: logger.Named("http"),
	})

	// --- Scheduled Jobs ---
	scheduler := cron.New(cron.WithLocation(loc))
	mustSchedule(logger, "catalog sync", func() (cron.EntryID, error) {
		return synchronizer.Schedule(scheduler, cfg.Sync.Schedule, cfg.Sync.Timeout)
	})
	mustSchedule(logger, "client eviction", func() (cron.EntryID, error) {
		return registry.Schedule(scheduler, cfg.Sync.EvictSchedule)
	})
	mustSchedule(logger, "revoked token pruning", func() (cron.EntryID, error) {
		return scheduler.AddFunc(cfg.Sync.PruneSchedule, func() {
			if n := authService.PruneRevoked(); n > 0 {
				logger.Debug("expired revocations pruned", zap.Int("pruned", n))
			}
		})
	})
	scheduler.Start()

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, logger, dbStore, synchronizer)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe error", zap.Error(err))
		}
		logger.Info("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := api.NewGRPCServer(health, logger)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		logger.Fatal("failed to listen for gRPC", zap.String("port", cfg.GrpcServer.Port), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("port", cfg.GrpcServer.Port))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatal("gRPC server Serve error", zap.Error(err))
		}
		logger.Info("gRPC server has stopped")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, grpcServer, health, scheduler, dbStore, shutdownComplete)

	<-shutdownComplete // Block until graceful shutdown is complete
	logger.Info("service shutdown sequence finished")
}

func mustSchedule(logger *zap.Logger, job string, add func() (cron.EntryID, error)) {
	if _, err := add(); err != nil {
		logger.Fatal("invalid cron schedule", zap.String("job", job), zap.Error(err))
	}
	logger.Info("job scheduled", zap.String("job", job))
}

func setupBaseMiddleware(router *chi.Mux, logger *zap.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(api.RequestLogger(logger.Named("http")))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second)) // Default timeout for requests
	logger.Info("base HTTP middleware registered")
}

func registerHealthCheck(router *chi.Mux, logger *zap.Logger, dbStore *store.PostgresStore, feed api.SnapshotFeed) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbStatus := "healthy"
		if err := dbStore.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
			logger.Warn("health check DB ping failed", zap.Error(err))
		}
		snap := feed.Snapshot()
		catalogStatus := "healthy"
		if !api.Serving(snap) {
			catalogStatus = "unhealthy"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, but payload indicates detailed status
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
			"catalog":     catalogStatus,
			"stale":       snap.Stale,
			"fetchedAt":   snap.FetchedAt,
		})
	})
	logger.Info("HTTP health check registered", zap.String("path", healthPath))
}

func waitForShutdown(
	logger *zap.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	health *api.HealthReporter,
	scheduler *cron.Cron,
	dbStore *store.PostgresStore,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Info("received signal, starting graceful shutdown", zap.String("signal", receivedSignal.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Probes see NOT_SERVING while connections drain.
	health.Shutdown()

	// Running jobs finish before the store closes.
	cronDone := scheduler.Stop()

	logger.Info("attempting to gracefully shut down gRPC server")
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Info("attempting to gracefully shut down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		logger.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		logger.Warn("gRPC server graceful shutdown timed out, forcing stop", zap.Error(shutdownCtx.Err()))
		grpcServer.Stop()
	}

	select {
	case <-cronDone.Done():
	case <-shutdownCtx.Done():
		logger.Warn("scheduled jobs still running at shutdown", zap.Error(shutdownCtx.Err()))
	}

	if err := dbStore.Close(); err != nil {
		logger.Warn("error closing database connection", zap.Error(err))
	}

	logger.Info("graceful shutdown sequence completed")
}
