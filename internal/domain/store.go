package domain

import (
	"context"
	"time"
)

// Watchlist is a user's ordered list of followed market IDs.
type Watchlist struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	MarketIDs []string  `json:"market_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationType classifies what a notification rule watches for.
type NotificationType string

const (
	NotificationOISpike           NotificationType = "oi_spike"
	NotificationVolumeSpike       NotificationType = "volume_spike"
	NotificationProbabilityChange NotificationType = "probability_change"
	NotificationPriceAlert        NotificationType = "price_alert"
)

// Notification is a user-configured alert rule on a market.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	MarketID  string           `json:"market_id"`
	Type      NotificationType `json:"type"`
	Threshold float64          `json:"threshold"`
	IsActive  bool             `json:"is_active"`
	CreatedAt time.Time        `json:"created_at"`
}

// WatchlistStore persists per-user watchlists. Get returns ErrNotFound
// when the user has no watchlist yet.
type WatchlistStore interface {
	Get(ctx context.Context, userID string) (Watchlist, error)
	Put(ctx context.Context, userID string, marketIDs []string) (Watchlist, error)
	AddMarket(ctx context.Context, userID, marketID string) (Watchlist, error)
	RemoveMarket(ctx context.Context, userID, marketID string) (Watchlist, error)
}

// NotificationStore persists notification rules.
type NotificationStore interface {
	List(ctx context.Context, userID string, activeOnly bool) ([]Notification, error)
	Create(ctx context.Context, n Notification) (Notification, error)
	SetActive(ctx context.Context, id string, active bool) (Notification, error)
	Delete(ctx context.Context, id string) error
}

// HistoryStore persists market price history rows written by the
// ingestion side.
type HistoryStore interface {
	Insert(ctx context.Context, marketID string, p HistoryPoint) error
	List(ctx context.Context, marketID string, limit int) ([]HistoryPoint, error)
}
