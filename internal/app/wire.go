package app

import (
	"context"
	"fmt"
	"time"

	"github.com/oddsradar/oddsradar/internal/aggregator"
	"github.com/oddsradar/oddsradar/internal/cache/memory"
	"github.com/oddsradar/oddsradar/internal/cache/redis"
	"github.com/oddsradar/oddsradar/internal/config"
	"github.com/oddsradar/oddsradar/internal/domain"
	"github.com/oddsradar/oddsradar/internal/platform/kalshi"
	"github.com/oddsradar/oddsradar/internal/platform/polymarket"
	"github.com/oddsradar/oddsradar/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the API server
// needs. It is constructed by Wire and torn down by the returned cleanup
// function. Store, limiter, and bus fields are nil when their backing
// service is not configured.
type Dependencies struct {
	// Sources, in merge order.
	Polymarket *polymarket.Source
	Kalshi     *kalshi.Source
	Sources    []domain.MarketSource

	Caches aggregator.Caches

	// Postgres-backed stores, nil without a configured database.
	WatchlistStore    domain.WatchlistStore
	NotificationStore domain.NotificationStore
	HistoryStore      domain.HistoryStore

	// Redis-backed, nil without a configured Redis.
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Upstream sources ---
	deps.Polymarket = polymarket.NewSource(polymarket.NewGammaClient(cfg.Polymarket.GammaHost))
	deps.Kalshi = kalshi.NewSource(kalshi.NewClient(cfg.Kalshi.BaseURL))
	deps.Sources = []domain.MarketSource{deps.Polymarket, deps.Kalshi}

	// --- In-memory caches ---
	deps.Caches = aggregator.Caches{
		Markets: memory.New[string, domain.Market](
			cfg.Cache.Listings.Capacity,
			time.Duration(cfg.Cache.Listings.TTLSeconds)*time.Second,
		),
		Views: memory.New[string, any](
			cfg.Cache.Views.Capacity,
			time.Duration(cfg.Cache.Views.TTLSeconds)*time.Second,
		),
		History: memory.New[string, []domain.HistoryPoint](
			cfg.Cache.History.Capacity,
			time.Duration(cfg.Cache.History.TTLSeconds)*time.Second,
		),
	}

	// --- PostgreSQL (optional) ---
	if cfg.Postgres.Enabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.WatchlistStore = postgres.NewWatchlistStore(pool)
		deps.NotificationStore = postgres.NewNotificationStore(pool)
		deps.HistoryStore = postgres.NewHistoryStore(pool)
	}

	// --- Redis (optional) ---
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	return deps, cleanup, nil
}
