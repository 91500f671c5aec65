package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-cell-api/internal/models"
	appErrors "github.com/noah-isme/placement-cell-api/pkg/errors"
)

type notificationStore interface {
	ListByAccount(ctx context.Context, accountID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, accountID, id string) error
	DeleteOne(ctx context.Context, accountID, id string) error
	DeleteAll(ctx context.Context, accountID string) error
}

// NotificationService exposes the per-account inbox. All operations are
// scoped to the calling account; deletes and mark-read are idempotent.
type NotificationService struct {
	store  notificationStore
	logger *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(store notificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, logger: logger}
}

// List returns the account's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, accountID string) ([]models.Notification, error) {
	notifications, err := s.store.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flags one notification as read. An id outside the account's inbox
// is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, accountID, id string) error {
	if err := s.store.MarkRead(ctx, accountID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// Delete removes one notification from the account's inbox.
func (s *NotificationService) Delete(ctx context.Context, accountID, id string) error {
	if err := s.store.DeleteOne(ctx, accountID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}

// Clear empties the account's inbox.
func (s *NotificationService) Clear(ctx context.Context, accountID string) error {
	if err := s.store.DeleteAll(ctx, accountID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear notifications")
	}
	return nil
}
