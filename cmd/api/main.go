// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the vehicles HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to MongoDB.
//  4. Connect to Redis when a replay guard is configured.
//  5. Apply index migrations (idempotent).
//  6. Load the RSA key pair.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/vehicles/internal/api"
	"github.com/taibuivan/vehicles/internal/identity"
	"github.com/taibuivan/vehicles/internal/platform/config"
	"github.com/taibuivan/vehicles/internal/platform/constants"
	"github.com/taibuivan/vehicles/internal/platform/docstore"
	"github.com/taibuivan/vehicles/internal/platform/middleware"
	"github.com/taibuivan/vehicles/internal/platform/migration"
	redisstore "github.com/taibuivan/vehicles/internal/platform/redis"
	"github.com/taibuivan/vehicles/internal/platform/sec"
	"github.com/taibuivan/vehicles/internal/vehicle"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
		if cfg.IsProduction() {
			log.Warn("debug_logging_in_production")
		}
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Duration("session_window", cfg.SessionWindow),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. MongoDB ────────────────────────────────────────────────────────
	client, err := docstore.NewClient(startupCtx, cfg.Mongo, log)
	must(log, err, "connect to mongo")
	defer func() {
		log.Info("disconnecting mongo client")
		if cerr := client.Disconnect(context.Background()); cerr != nil {
			log.Error("mongo disconnect error", slog.Any("error", cerr))
		}
	}()

	store := docstore.NewStore(docstore.NewMongoDialer(client))

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var checkCache func(ctx context.Context) error
	guardConfig := middleware.SessionGuardConfig{Window: cfg.SessionWindow}

	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()

		checkCache = func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		}
		if cfg.ReplayGuard {
			guardConfig.Replay = redisstore.NewReplayGuard(rdb)
			log.Info("session_replay_guard_enabled")
		}
	}

	// ── 5. Migrations ─────────────────────────────────────────────────────
	if cfg.MigrateOnStart {
		must(log, migration.RunAll(migration.Targets(cfg.Mongo, cfg.MigrationPath), log), "run migrations")
	}

	// ── 6. Key Pair ───────────────────────────────────────────────────────
	keys, err := sec.LoadKeyPair(cfg.RSAPrivateKeyPath, cfg.RSAPublicKeyPath)
	must(log, err, "load rsa key pair")

	// ── 7. Health handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return docstore.Ping(ctx, client)
		},
		CheckCache: checkCache,
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := identity.NewMongoUserRepository(store, cfg.Mongo.IdentityDatabase)
	identityService := identity.NewService(userRepository, keys, cfg.PasswordPepper)

	recordRepository := vehicle.NewMongoRecordRepository(store, cfg.Mongo.VehiclesDatabase)
	vehicleService := vehicle.NewService(identityService, recordRepository)

	limiter := middleware.NewRateLimiter(constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst)

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	go limiter.Cleanup(limiterCtx, constants.RateLimitCleanupInterval, constants.RateLimitClientTTL)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log, api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		Identity:     identity.NewHandler(identityService),
		Vehicle:      vehicle.NewHandler(vehicleService),
		SessionGuard: middleware.Authorize(keys, identityService, guardConfig),
		RateLimiter:  limiter,
	})

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
