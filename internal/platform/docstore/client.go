// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/taibuivan/vehicles/internal/platform/config"
	"github.com/taibuivan/vehicles/internal/platform/constants"
)

// Opinionated pool settings for the vehicles workload.
const (
	// minPoolSize keeps a warm set of connections to avoid cold-start latency.
	minPoolSize = 2
	// maxConnIdleTime closes connections that have been idle too long.
	maxConnIdleTime = 10 * time.Minute
	// connectTimeout is the maximum time allowed to establish a new connection.
	connectTimeout = 5 * time.Second
	// serverSelectionTimeout bounds how long an operation waits for a usable server.
	serverSelectionTimeout = 5 * time.Second
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second
)

// NewClient creates and validates a pooled MongoDB client.
//
// # Parameters
//   - ctx: Context for the initial connection attempt.
//   - cfg: Address, credentials and pool bound.
//   - logger: Structured logger for pool-level events.
func NewClient(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI()).
		SetAuth(options.Credential{
			AuthSource: cfg.AuthDatabase,
			Username:   cfg.User,
			Password:   cfg.Password,
		}).
		SetAppName(constants.AppName).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(min(minPoolSize, cfg.MaxPoolSize)).
		SetMaxConnIdleTime(maxConnIdleTime).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("docstore: failed to create client: %w", err)
	}

	// Validate that we can actually reach the server with these credentials.
	if err := Ping(ctx, client); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	logger.Info("mongo client connected",
		slog.String("addr", cfg.Address()),
		slog.String("auth_database", cfg.AuthDatabase),
		slog.Uint64("max_pool_size", cfg.MaxPoolSize),
	)

	return client, nil
}

// Ping verifies that the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("docstore: ping failed: %w", err)
	}

	return nil
}
