// Package app provides the top-level application lifecycle for the
// oddsradar service. It wires together the upstream sources, caches,
// optional stores, the aggregator, and the HTTP + WebSocket server.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oddsradar/oddsradar/internal/aggregator"
	"github.com/oddsradar/oddsradar/internal/config"
	"github.com/oddsradar/oddsradar/internal/domain"
	"github.com/oddsradar/oddsradar/internal/server"
	"github.com/oddsradar/oddsradar/internal/server/handler"
	"github.com/oddsradar/oddsradar/internal/server/ws"
	"github.com/oddsradar/oddsradar/internal/traders"
)

// marketUpdatesChannel is the pub/sub channel the ingestion side
// publishes market updates on.
const marketUpdatesChannel = "market_updates"

// shutdownTimeout bounds how long in-flight requests may run after a
// shutdown signal.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions that are called in reverse order on
// shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the API
// server and the live update bridge, and blocks until the context is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	agg := aggregator.New(deps.Sources, deps.Caches, deps.HistoryStore, a.logger)

	hub := ws.NewHub(
		agg,
		time.Duration(a.cfg.Broadcast.SnapshotIntervalSeconds)*time.Second,
		a.logger,
	)

	handlers := server.Handlers{
		Health:     handler.NewHealthHandler(a.logger),
		Markets:    handler.NewMarketHandler(agg, a.logger),
		Polymarket: handler.NewPlatformHandler(deps.Polymarket, a.logger),
		Kalshi:     handler.NewPlatformHandler(deps.Kalshi, a.logger),
		Traders:    handler.NewTraderHandler(traders.NewDirectory(), a.logger),
	}
	if deps.WatchlistStore != nil && deps.NotificationStore != nil {
		handlers.User = handler.NewUserHandler(deps.WatchlistStore, deps.NotificationStore, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		RateLimiter:     deps.RateLimiter,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: time.Duration(a.cfg.Server.RateLimitWindow) * time.Second,
	}, handlers, hub, a.logger)

	if deps.SignalBus != nil {
		go a.runUpdateBridge(ctx, deps.SignalBus, hub, deps.HistoryStore)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// marketUpdate is the payload shape published on the update channel.
type marketUpdate struct {
	MarketID     string  `json:"market_id"`
	PriceYes     float64 `json:"price_yes"`
	PriceNo      float64 `json:"price_no"`
	Probability  float64 `json:"probability"`
	OpenInterest float64 `json:"open_interest"`
	Volume24h    float64 `json:"volume_24h"`
}

// runUpdateBridge subscribes to the market update channel and fans each
// update out to WebSocket clients, recording a history point when a
// history store is wired. Malformed payloads are logged and skipped.
func (a *App) runUpdateBridge(ctx context.Context, bus domain.SignalBus, hub *ws.Hub, history domain.HistoryStore) {
	msgs, err := bus.Subscribe(ctx, marketUpdatesChannel)
	if err != nil {
		a.logger.Error("update bridge subscribe failed", slog.String("error", err.Error()))
		return
	}
	a.logger.Info("update bridge started", slog.String("channel", marketUpdatesChannel))

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-msgs:
			if !ok {
				a.logger.Warn("update bridge channel closed")
				return
			}

			var upd marketUpdate
			if err := json.Unmarshal(payload, &upd); err != nil || upd.MarketID == "" {
				a.logger.Warn("update bridge dropped malformed payload")
				continue
			}

			hub.BroadcastMarketUpdate(upd.MarketID, upd)

			if history != nil {
				point := domain.HistoryPoint{
					Timestamp:    time.Now().UTC(),
					PriceYes:     upd.PriceYes,
					PriceNo:      upd.PriceNo,
					Probability:  upd.Probability,
					OpenInterest: upd.OpenInterest,
					Volume:       upd.Volume24h,
				}
				if err := history.Insert(ctx, upd.MarketID, point); err != nil {
					a.logger.Warn("update bridge history insert failed",
						slog.String("market_id", upd.MarketID),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}
}

// Close tears down all resources in reverse registration order. It is
// safe to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
