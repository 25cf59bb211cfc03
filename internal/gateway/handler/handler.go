package handler

import (
	"context"
	"log/slog"

	"github.com/TechmatesTeam/koroh-sub002/internal/gateway"
	"github.com/TechmatesTeam/koroh-sub002/internal/gateway/domain"
	"github.com/TechmatesTeam/koroh-sub002/internal/gateway/storage"
)

// NotificationStore is the persistence surface the handlers need
type NotificationStore interface {
	ListNotifications(ctx context.Context, filter storage.NotificationFilter) ([]domain.Notification, error)
	GetNotificationByID(ctx context.Context, id string) (*domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, scope string) (int64, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger           *slog.Logger
	Store            NotificationStore
	Hub              *gateway.Hub
	SubscriberBuffer int
}

// NotificationHandler serves the notification history REST endpoints
type NotificationHandler struct {
	logger *slog.Logger
	store  NotificationStore
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(deps *Dependencies) *NotificationHandler {
	return &NotificationHandler{
		logger: deps.Logger,
		store:  deps.Store,
	}
}
