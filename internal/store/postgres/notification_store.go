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

// NotificationStore implements domain.NotificationStore using PostgreSQL.
type NotificationStore struct {
	pool *pgxpool.Pool
}

// NewNotificationStore creates a NotificationStore backed by the given pool.
func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

const notificationSelectCols = `id, user_id, market_id, type, threshold, is_active, created_at`

func scanNotification(row pgx.Row) (domain.Notification, error) {
	var n domain.Notification
	var typ string
	err := row.Scan(&n.ID, &n.UserID, &n.MarketID, &typ, &n.Threshold, &n.IsActive, &n.CreatedAt)
	if err != nil {
		return domain.Notification{}, err
	}
	n.Type = domain.NotificationType(typ)
	return n, nil
}

// List returns a user's notification rules, newest first.
func (s *NotificationStore) List(ctx context.Context, userID string, activeOnly bool) ([]domain.Notification, error) {
	query := `SELECT ` + notificationSelectCols + ` FROM notifications WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Create inserts a notification rule and returns it with its assigned ID.
func (s *NotificationStore) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	const query = `
		INSERT INTO notifications (id, user_id, market_id, type, threshold, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING ` + notificationSelectCols

	created, err := scanNotification(s.pool.QueryRow(ctx, query,
		uuid.NewString(), n.UserID, n.MarketID, string(n.Type), n.Threshold, n.IsActive,
	))
	if err != nil {
		return domain.Notification{}, fmt.Errorf("postgres: create notification: %w", err)
	}
	return created, nil
}

// SetActive flips a rule's active flag.
func (s *NotificationStore) SetActive(ctx context.Context, id string, active bool) (domain.Notification, error) {
	const query = `
		UPDATE notifications SET is_active = $2
		WHERE id = $1
		RETURNING ` + notificationSelectCols

	n, err := scanNotification(s.pool.QueryRow(ctx, query, id, active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Notification{}, fmt.Errorf("postgres: notification %s: %w", id, domain.ErrNotFound)
		}
		return domain.Notification{}, fmt.Errorf("postgres: set notification active: %w", err)
	}
	return n, nil
}

// Delete removes a notification rule.
func (s *NotificationStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: notification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

var _ domain.NotificationStore = (*NotificationStore)(nil)
