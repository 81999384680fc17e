// Package server assembles the HTTP API: route registration, the
// middleware chain, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oddsradar/oddsradar/internal/domain"
	"github.com/oddsradar/oddsradar/internal/server/handler"
	"github.com/oddsradar/oddsradar/internal/server/middleware"
	"github.com/oddsradar/oddsradar/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string

	// RateLimiter is optional; when nil, no rate limiting is applied.
	RateLimiter     domain.RateLimiter
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// User may be nil when no persistent store is configured; its routes are
// then not registered.
type Handlers struct {
	Health     *handler.HealthHandler
	Markets    *handler.MarketHandler
	Polymarket *handler.PlatformHandler
	Kalshi     *handler.PlatformHandler
	Traders    *handler.TraderHandler
	User       *handler.UserHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (CORS, logging, rate limiting) and attaches the
// WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	mux.HandleFunc("GET /{$}", handlers.Health.ServiceInfo)
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Cross-platform market endpoints. Literal segments win over the
	// {id} wildcard, so the derived-view routes must be registered on
	// their exact paths.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/trending", handlers.Markets.Trending)
	mux.HandleFunc("GET /api/markets/top-oi", handlers.Markets.TopOpenInterest)
	mux.HandleFunc("GET /api/markets/top-volume", handlers.Markets.TopVolume)
	mux.HandleFunc("GET /api/markets/categories", handlers.Markets.Categories)
	mux.HandleFunc("GET /api/markets/category/{category}", handlers.Markets.ByCategory)
	mux.HandleFunc("GET /api/markets/stats", handlers.Markets.Stats)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("GET /api/markets/{id}/history", handlers.Markets.History)

	// Single-platform passthrough endpoints.
	mux.HandleFunc("GET /api/polymarket/markets", handlers.Polymarket.ListMarkets)
	mux.HandleFunc("GET /api/polymarket/markets/{id}", handlers.Polymarket.GetMarket)
	mux.HandleFunc("GET /api/kalshi/markets", handlers.Kalshi.ListMarkets)
	mux.HandleFunc("GET /api/kalshi/markets/{id}", handlers.Kalshi.GetMarket)
	mux.HandleFunc("GET /api/kalshi/markets/{id}/history", handlers.Kalshi.History)

	// Smart trader endpoints.
	mux.HandleFunc("GET /api/smart-traders", handlers.Traders.ListTraders)
	mux.HandleFunc("GET /api/smart-traders/market/{market_id}/holders", handlers.Traders.MarketHolders)
	mux.HandleFunc("GET /api/smart-traders/stats/summary", handlers.Traders.StatsSummary)
	mux.HandleFunc("GET /api/smart-traders/{id}", handlers.Traders.GetTrader)
	mux.HandleFunc("GET /api/smart-traders/{id}/positions", handlers.Traders.GetPositions)

	// Watchlist and notification endpoints, only when a store is wired.
	if handlers.User != nil {
		mux.HandleFunc("GET /api/users/{user_id}/watchlist", handlers.User.GetWatchlist)
		mux.HandleFunc("POST /api/users/{user_id}/watchlist", handlers.User.PutWatchlist)
		mux.HandleFunc("POST /api/users/{user_id}/watchlist/add", handlers.User.AddToWatchlist)
		mux.HandleFunc("DELETE /api/users/{user_id}/watchlist/{market_id}", handlers.User.RemoveFromWatchlist)
		mux.HandleFunc("GET /api/users/{user_id}/notifications", handlers.User.ListNotifications)
		mux.HandleFunc("POST /api/users/{user_id}/notifications", handlers.User.CreateNotification)
		mux.HandleFunc("PATCH /api/users/{user_id}/notifications/{id}", handlers.User.ToggleNotification)
		mux.HandleFunc("DELETE /api/users/{user_id}/notifications/{id}", handlers.User.DeleteNotification)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws/markets", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	if cfg.RateLimiter != nil {
		h = middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit, cfg.RateLimitWindow)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
