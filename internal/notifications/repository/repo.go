package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sowdesk/sowdesk-backend/internal/notifications/domain"
)

// NotificationRepository provides persistence for notifications.
type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	const q = `
INSERT INTO notifications (id, user_id, type, deal_id, message)
VALUES ($1, $2, $3, nullif($4,''), $5)
RETURNING created_at;
`
	err := r.db.QueryRow(ctx, q, n.ID, n.UserID, n.Type, n.DealID, n.Message).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	const q = `
SELECT id, user_id, type, coalesce(deal_id,''), message, read, created_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := r.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Notification, 0, 16)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.DealID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	const q = `SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT read;`

	var n int
	if err := r.db.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

// MarkRead marks one notification read. Scoped to the user so one user
// cannot mutate another's records.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	const q = `
UPDATE notifications
SET read = true
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, type, coalesce(deal_id,''), message, read, created_at;
`
	var n domain.Notification
	err := r.db.QueryRow(ctx, q, id, userID).Scan(
		&n.ID, &n.UserID, &n.Type, &n.DealID, &n.Message, &n.Read, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return &n, nil
}

// MarkAllRead marks every unread notification for the user and returns how
// many changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	const q = `UPDATE notifications SET read = true WHERE user_id = $1 AND NOT read;`

	tag, err := r.db.Exec(ctx, q, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
