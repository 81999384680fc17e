package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ODDSRADAR_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. An empty path skips the
// file and uses defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ODDSRADAR_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "ODDSRADAR_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ODDSRADAR_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "ODDSRADAR_SERVER_RATE_LIMIT")
	setInt(&cfg.Server.RateLimitWindow, "ODDSRADAR_SERVER_RATE_LIMIT_WINDOW_SECONDS")

	// ── Upstreams ──
	setStr(&cfg.Polymarket.GammaHost, "ODDSRADAR_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Kalshi.BaseURL, "ODDSRADAR_KALSHI_BASE_URL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ODDSRADAR_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "ODDSRADAR_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ODDSRADAR_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ODDSRADAR_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ODDSRADAR_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ODDSRADAR_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ODDSRADAR_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ODDSRADAR_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ODDSRADAR_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ODDSRADAR_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ODDSRADAR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ODDSRADAR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ODDSRADAR_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ODDSRADAR_REDIS_POOL_SIZE")

	// ── Cache ──
	setInt(&cfg.Cache.Listings.Capacity, "ODDSRADAR_CACHE_LISTINGS_CAPACITY")
	setInt(&cfg.Cache.Listings.TTLSeconds, "ODDSRADAR_CACHE_LISTINGS_TTL_SECONDS")
	setInt(&cfg.Cache.Views.Capacity, "ODDSRADAR_CACHE_VIEWS_CAPACITY")
	setInt(&cfg.Cache.Views.TTLSeconds, "ODDSRADAR_CACHE_VIEWS_TTL_SECONDS")
	setInt(&cfg.Cache.History.Capacity, "ODDSRADAR_CACHE_HISTORY_CAPACITY")
	setInt(&cfg.Cache.History.TTLSeconds, "ODDSRADAR_CACHE_HISTORY_TTL_SECONDS")

	// ── Broadcast ──
	setInt(&cfg.Broadcast.SnapshotIntervalSeconds, "ODDSRADAR_BROADCAST_SNAPSHOT_INTERVAL_SECONDS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "ODDSRADAR_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
