package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// HistoryStore implements domain.HistoryStore using PostgreSQL. It
// accumulates the price points flowing over the live update bus so the
// service can serve history series even for platforms whose API exposes
// none.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a HistoryStore backed by the given pool.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// Insert appends one history point for a market.
func (s *HistoryStore) Insert(ctx context.Context, marketID string, p domain.HistoryPoint) error {
	const query = `
		INSERT INTO market_history (market_id, ts, price_yes, price_no, probability, open_interest, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		marketID, p.Timestamp, p.PriceYes, p.PriceNo, p.Probability, p.OpenInterest, p.Volume,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert history point: %w", err)
	}
	return nil
}

// List returns up to limit history points for a market, oldest first.
func (s *HistoryStore) List(ctx context.Context, marketID string, limit int) ([]domain.HistoryPoint, error) {
	const query = `
		SELECT ts, price_yes, price_no, probability, open_interest, volume
		FROM (
			SELECT ts, price_yes, price_no, probability, open_interest, volume
			FROM market_history
			WHERE market_id = $1
			ORDER BY ts DESC
			LIMIT $2
		) recent
		ORDER BY ts ASC`

	rows, err := s.pool.Query(ctx, query, marketID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryPoint
	for rows.Next() {
		var p domain.HistoryPoint
		if err := rows.Scan(&p.Timestamp, &p.PriceYes, &p.PriceNo, &p.Probability, &p.OpenInterest, &p.Volume); err != nil {
			return nil, fmt.Errorf("postgres: scan history point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ domain.HistoryStore = (*HistoryStore)(nil)
