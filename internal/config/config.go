// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig; load failures wrap ErrLoadConfig.
package config

import (
	"time"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the entity store backend: memory or postgres.
	Store string `koanf:"store"`

	// DatabaseDSN is the PostgreSQL connection string (store=postgres).
	DatabaseDSN string `koanf:"database_dsn"`

	// StoreTimeoutMS bounds every individual entity store call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// MaxRandomCount caps getRandomRobots count.
	MaxRandomCount int `koanf:"max_random_count"`

	// MaxPopularLimit caps getPopularComparisons limit.
	MaxPopularLimit int `koanf:"max_popular_limit"`

	// IdempotencySize bounds the trackInteraction idempotency window.
	IdempotencySize int `koanf:"idempotency_size"`

	// FixturesFile optionally seeds the store with robots and news on start.
	FixturesFile string `koanf:"fixtures_file"`

	// MigrateOnStart applies pending PostgreSQL migrations before serving.
	MigrateOnStart bool `koanf:"migrate_on_start"`

	// CORSAllowOrigin is sent as Access-Control-Allow-Origin.
	CORSAllowOrigin string `koanf:"cors_allow_origin"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		Store:           StoreMemory,
		StoreTimeoutMS:  3000,
		MaxRandomCount:  50,
		MaxPopularLimit: 100,
		IdempotencySize: 100_000,
		CORSAllowOrigin: "*",
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}
