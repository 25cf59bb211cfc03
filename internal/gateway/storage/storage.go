package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/TechmatesTeam/koroh-sub002/internal/gateway/domain"
	"github.com/TechmatesTeam/koroh-sub002/shared/postgresql"
)

// Storage handles notification persistence for the gateway
type Storage struct {
	db *sqlx.DB
}

// NewStorage creates a Storage backed by the given PostgreSQL client
func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// SaveNotification inserts a notification row
func (s *Storage) SaveNotification(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (
			id, scope, event_type, payload, is_read, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		n.ID,
		n.Scope,
		n.EventType,
		n.Payload,
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}

// NotificationFilter narrows and pages a notification listing
type NotificationFilter struct {
	Scope      string
	EventType  string
	UnreadOnly bool
	PageSize   int
	Cursor     *NotificationCursor
}

// NotificationCursor marks the position after the last returned row
type NotificationCursor struct {
	CreatedAt time.Time
	ID        string
}

// ListNotifications returns up to PageSize+1 notifications newest first;
// the extra row tells the caller whether more pages exist
func (s *Storage) ListNotifications(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error) {
	query := `
		SELECT id, scope, event_type, payload, is_read, created_at
		FROM notifications
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.Scope != "" {
		query += fmt.Sprintf(" AND scope = $%d", argIdx)
		args = append(args, filter.Scope)
		argIdx++
	}

	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, filter.EventType)
		argIdx++
	}

	if filter.UnreadOnly {
		query += " AND is_read = false"
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var notifications []domain.Notification
	if err := s.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead marks a single notification as read
func (s *Storage) MarkRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET is_read = true WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotificationNotFound
	}

	return nil
}

// MarkAllRead marks every unread notification in the scope as read and
// returns how many rows changed
func (s *Storage) MarkAllRead(ctx context.Context, scope string) (int64, error) {
	query := `UPDATE notifications SET is_read = true WHERE scope = $1 AND is_read = false`

	result, err := s.db.ExecContext(ctx, query, scope)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check update result: %w", err)
	}

	return rows, nil
}

// GetNotificationByID returns a single notification
func (s *Storage) GetNotificationByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `
		SELECT id, scope, event_type, payload, is_read, created_at
		FROM notifications
		WHERE id = $1
	`

	var n domain.Notification
	if err := s.db.GetContext(ctx, &n, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return &n, nil
}
