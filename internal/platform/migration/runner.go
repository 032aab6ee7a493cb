// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration provides a thin wrapper around golang-migrate for
// running document store index migrations.
//
// # Architecture
//
// This package belongs to the Infrastructure layer. Each logical database
// (identity, vehicles) owns a migration directory and its own version
// bookkeeping collection, and is migrated before traffic is served.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	// mongodb driver registers the "mongodb" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	// file source reads .json command files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/taibuivan/vehicles/internal/platform/config"
)

// Target is one database and the directory holding its migrations.
type Target struct {
	Database    string
	SourceURL   string
	DatabaseURL string
}

// Targets lists the databases to migrate, in order. Migrations for a database
// live in a sub-directory of root named after it.
func Targets(mongo config.MongoConfig, root string) []Target {
	databases := []string{mongo.IdentityDatabase, mongo.VehiclesDatabase}

	targets := make([]Target, 0, len(databases))
	for _, database := range databases {
		targets = append(targets, Target{
			Database:    database,
			SourceURL:   "file://" + filepath.ToSlash(filepath.Join(root, database)),
			DatabaseURL: mongo.DatabaseURI(database),
		})
	}
	return targets
}

// RunAll applies pending UP migrations to every target. It stops at the first failure.
func RunAll(targets []Target, logger *slog.Logger) error {
	for _, target := range targets {
		if err := RunUp(target, logger.With(slog.String("database", target.Database))); err != nil {
			return fmt.Errorf("migration: %s: %w", target.Database, err)
		}
	}
	return nil
}

// RunUp applies all pending UP migrations for one target.
func RunUp(target Target, logger *slog.Logger) error {
	migrator, err := migrate.New(target.SourceURL, target.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer func() {
		sourceError, dbError := migrator.Close()
		if sourceError != nil {
			logger.Error("migration_source_close_failed", slog.Any("error", sourceError))
		}
		if dbError != nil {
			logger.Error("migration_db_close_failed", slog.Any("error", dbError))
		}
	}()

	migrator.Log = &migrateLogger{logger: logger}

	currentVersion, isDirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: failed to get current version: %w", err)
	}

	if isDirty {
		return fmt.Errorf("migration: database is in a dirty state at version %d (manual intervention required)", currentVersion)
	}

	logger.Info("migration_started", slog.Int("current_version", int(currentVersion)))

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migration_already_up_to_date")
			return nil
		}
		return fmt.Errorf("migration: up failed: %w", err)
	}

	newVersion, _, _ := migrator.Version()
	logger.Info("migration_successful",
		slog.Int("from_version", int(currentVersion)),
		slog.Int("to_version", int(newVersion)),
	)

	return nil
}

// migrateLogger adapts golang-migrate's logger interface to slog.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

// Printf implements migrate.Logger.
func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Verbose implements migrate.Logger.
func (l *migrateLogger) Verbose() bool {
	return l.verbose
}
