package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-cell-api/internal/models"
)

// NotificationRepository persists the append-only per-account message log.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create appends a notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, account_id, kind, title, message, payload, read, created_at)
        VALUES (:id, :account_id, :kind, :title, :message, :payload, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByAccount returns every notification for an account, newest first.
func (r *NotificationRepository) ListByAccount(ctx context.Context, accountID string) ([]models.Notification, error) {
	const query = `SELECT id, account_id, kind, title, message, payload, read, created_at
        FROM notifications WHERE account_id = $1 ORDER BY created_at DESC`
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, accountID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags a notification as read. Unknown ids are a no-op.
func (r *NotificationRepository) MarkRead(ctx context.Context, accountID, id string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1 AND account_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, accountID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// DeleteOne removes a single notification. Deleting a missing id succeeds.
func (r *NotificationRepository) DeleteOne(ctx context.Context, accountID, id string) error {
	const query = `DELETE FROM notifications WHERE id = $1 AND account_id = $2`
	if _, err := r.db.ExecContext(ctx, query, id, accountID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// DeleteAll clears an account's inbox.
func (r *NotificationRepository) DeleteAll(ctx context.Context, accountID string) error {
	const query = `DELETE FROM notifications WHERE account_id = $1`
	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}
