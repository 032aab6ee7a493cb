// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (document store, Redis, keys) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the vehicles API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Document store (MongoDB)
	Mongo MongoConfig `envPrefix:"MONGO_"`

	// Index migrations
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`
	MigrationPath  string `env:"MIGRATION_PATH"   envDefault:"./data/migrations"`

	// Key pair protecting the session query parameter
	RSAPrivateKeyPath string `env:"RSA_PRIVATE_KEY_PATH" envDefault:"./credentials/platform/rsa_private_key.pem"`
	RSAPublicKeyPath  string `env:"RSA_PUBLIC_KEY_PATH"`

	// PasswordPepper keys the stored password digest.
	PasswordPepper string `env:"PASSWORD_PEPPER,required"`

	// SessionWindow is the tolerance around "now" for a presented timestamp.
	SessionWindow time.Duration `env:"SESSION_WINDOW" envDefault:"5s"`

	// Key-Value Cache (Redis), optional
	RedisURL    string `env:"REDIS_URL"`
	ReplayGuard bool   `env:"REPLAY_GUARD" envDefault:"false"`

	// Cross-Origin Resource Sharing
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`
}

// MongoConfig groups the document store connection settings.
type MongoConfig struct {
	Host             string `env:"HOST"              envDefault:"localhost"`
	Port             int    `env:"PORT"              envDefault:"27017"`
	User             string `env:"USER,required"`
	Password         string `env:"PASSWORD,required"`
	AuthDatabase     string `env:"AUTH_DATABASE"     envDefault:"admin"`
	IdentityDatabase string `env:"IDENTITY_DATABASE" envDefault:"identity"`
	VehiclesDatabase string `env:"VEHICLES_DATABASE" envDefault:"vehicles"`
	MaxPoolSize      uint64 `env:"MAX_POOL_SIZE"     envDefault:"25"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses configuration from an explicit environment map instead of
// the process environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(options env.Options) (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.ParseWithOptions(cfg, options); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionWindow <= 0 {
		return errors.New("SESSION_WINDOW must be positive")
	}
	if c.ReplayGuard && c.RedisURL == "" {
		return errors.New("REPLAY_GUARD requires REDIS_URL")
	}
	if c.Mongo.MaxPoolSize == 0 {
		return errors.New("MONGO_MAX_POOL_SIZE must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the trimmed, non-empty CORS origins.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0, len(c.ExtraOrigins))
	for _, origin := range c.ExtraOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// # Document Store Addressing

// Address returns the host:port pair of the document store.
func (m MongoConfig) Address() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
}

// URI returns a mongodb:// connection string without credentials. Credentials
// are attached separately through the driver's options.
func (m MongoConfig) URI() string {
	return (&url.URL{Scheme: "mongodb", Host: m.Address(), Path: "/"}).String()
}

// DatabaseURI returns a credentialed connection string scoped to one database,
// in the shape expected by the migration driver.
func (m MongoConfig) DatabaseURI(database string) string {
	u := &url.URL{
		Scheme:   "mongodb",
		User:     url.UserPassword(m.User, m.Password),
		Host:     m.Address(),
		Path:     "/" + database,
		RawQuery: url.Values{"authSource": []string{m.AuthDatabase}}.Encode(),
	}
	return u.String()
}
