// Package config defines the top-level configuration for the oddsradar
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ODDSRADAR_* environment
// variables.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	Cache      CacheConfig      `toml:"cache"`
	Broadcast  BroadcastConfig  `toml:"broadcast"`
	LogLevel   string           `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow int      `toml:"rate_limit_window_seconds"`
}

// PolymarketConfig holds the Polymarket Gamma API endpoint.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
}

// KalshiConfig holds the Kalshi trade API endpoint.
type KalshiConfig struct {
	BaseURL string `toml:"base_url"`
}

// PostgresConfig holds PostgreSQL connection parameters. An empty DSN
// with an empty Host disables the persistent stores (watchlists,
// notifications, history).
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// Enabled reports whether a Postgres connection is configured at all.
func (c PostgresConfig) Enabled() bool {
	return strings.TrimSpace(c.DSN) != "" || c.Host != ""
}

// RedisConfig holds Redis connection parameters. An empty Addr disables
// rate limiting and the live update bus.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
}

// Enabled reports whether a Redis connection is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// CacheTier configures one in-memory cache instance.
type CacheTier struct {
	Capacity   int `toml:"capacity"`
	TTLSeconds int `toml:"ttl_seconds"`
}

// CacheConfig configures the three cache namespaces.
type CacheConfig struct {
	Listings CacheTier `toml:"listings"`
	Views    CacheTier `toml:"views"`
	History  CacheTier `toml:"history"`
}

// BroadcastConfig configures the WebSocket feed.
type BroadcastConfig struct {
	SnapshotIntervalSeconds int `toml:"snapshot_interval_seconds"`
}

// Defaults returns the built-in configuration. It is a working setup for
// local use with no Postgres and no Redis.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       120,
			RateLimitWindow: 60,
		},
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
		},
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
		},
		Postgres: PostgresConfig{
			Port:          5432,
			SSLMode:       "require",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			PoolSize: 10,
		},
		Cache: CacheConfig{
			Listings: CacheTier{Capacity: 5000, TTLSeconds: 60},
			Views:    CacheTier{Capacity: 100, TTLSeconds: 30},
			History:  CacheTier{Capacity: 1000, TTLSeconds: 300},
		},
		Broadcast: BroadcastConfig{
			SnapshotIntervalSeconds: 30,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}
	if c.Server.RateLimitWindow <= 0 {
		errs = append(errs, "server: rate_limit_window_seconds must be > 0")
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}

	if c.Postgres.Enabled() && strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled() && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	for name, tier := range map[string]CacheTier{
		"listings": c.Cache.Listings,
		"views":    c.Cache.Views,
		"history":  c.Cache.History,
	} {
		if tier.Capacity < 1 {
			errs = append(errs, fmt.Sprintf("cache.%s: capacity must be >= 1", name))
		}
		if tier.TTLSeconds < 1 {
			errs = append(errs, fmt.Sprintf("cache.%s: ttl_seconds must be >= 1", name))
		}
	}

	if c.Broadcast.SnapshotIntervalSeconds < 1 {
		errs = append(errs, "broadcast: snapshot_interval_seconds must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
