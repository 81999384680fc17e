package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// WatchlistStore implements domain.WatchlistStore using PostgreSQL.
type WatchlistStore struct {
	pool *pgxpool.Pool
}

// NewWatchlistStore creates a WatchlistStore backed by the given pool.
func NewWatchlistStore(pool *pgxpool.Pool) *WatchlistStore {
	return &WatchlistStore{pool: pool}
}

const watchlistSelectCols = `id, user_id, market_ids, created_at, updated_at`

func scanWatchlist(row pgx.Row) (domain.Watchlist, error) {
	var wl domain.Watchlist
	err := row.Scan(&wl.ID, &wl.UserID, &wl.MarketIDs, &wl.CreatedAt, &wl.UpdatedAt)
	if err != nil {
		return domain.Watchlist{}, err
	}
	if wl.MarketIDs == nil {
		wl.MarketIDs = []string{}
	}
	return wl, nil
}

// Get returns the watchlist for a user, or ErrNotFound when none exists.
func (s *WatchlistStore) Get(ctx context.Context, userID string) (domain.Watchlist, error) {
	const query = `SELECT ` + watchlistSelectCols + ` FROM watchlists WHERE user_id = $1`

	wl, err := scanWatchlist(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Watchlist{}, fmt.Errorf("postgres: watchlist for %s: %w", userID, domain.ErrNotFound)
		}
		return domain.Watchlist{}, fmt.Errorf("postgres: get watchlist: %w", err)
	}
	return wl, nil
}

// Put replaces a user's watchlist, creating it on first write.
func (s *WatchlistStore) Put(ctx context.Context, userID string, marketIDs []string) (domain.Watchlist, error) {
	const query = `
		INSERT INTO watchlists (id, user_id, market_ids, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
			SET market_ids = EXCLUDED.market_ids, updated_at = NOW()
		RETURNING ` + watchlistSelectCols

	if marketIDs == nil {
		marketIDs = []string{}
	}

	wl, err := scanWatchlist(s.pool.QueryRow(ctx, query, uuid.NewString(), userID, marketIDs))
	if err != nil {
		return domain.Watchlist{}, fmt.Errorf("postgres: put watchlist: %w", err)
	}
	return wl, nil
}

// AddMarket appends one market to a user's watchlist, creating the
// watchlist when absent. Re-adding a present market is a no-op.
func (s *WatchlistStore) AddMarket(ctx context.Context, userID, marketID string) (domain.Watchlist, error) {
	const query = `
		INSERT INTO watchlists (id, user_id, market_ids, created_at, updated_at)
		VALUES ($1, $2, ARRAY[$3], NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
			SET market_ids = CASE
					WHEN $3 = ANY (watchlists.market_ids) THEN watchlists.market_ids
					ELSE array_append(watchlists.market_ids, $3)
				END,
				updated_at = NOW()
		RETURNING ` + watchlistSelectCols

	wl, err := scanWatchlist(s.pool.QueryRow(ctx, query, uuid.NewString(), userID, marketID))
	if err != nil {
		return domain.Watchlist{}, fmt.Errorf("postgres: add to watchlist: %w", err)
	}
	return wl, nil
}

// RemoveMarket removes one market from a user's watchlist. A missing
// watchlist reports ErrNotFound; removing an absent market is a no-op.
func (s *WatchlistStore) RemoveMarket(ctx context.Context, userID, marketID string) (domain.Watchlist, error) {
	const query = `
		UPDATE watchlists
		SET market_ids = array_remove(market_ids, $2), updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + watchlistSelectCols

	wl, err := scanWatchlist(s.pool.QueryRow(ctx, query, userID, marketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Watchlist{}, fmt.Errorf("postgres: watchlist for %s: %w", userID, domain.ErrNotFound)
		}
		return domain.Watchlist{}, fmt.Errorf("postgres: remove from watchlist: %w", err)
	}
	return wl, nil
}

var _ domain.WatchlistStore = (*WatchlistStore)(nil)
