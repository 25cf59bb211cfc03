package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TechmatesTeam/koroh-sub002/internal/gateway/domain"
	"github.com/TechmatesTeam/koroh-sub002/internal/gateway/dto"
	"github.com/TechmatesTeam/koroh-sub002/internal/gateway/storage"
)

// ListNotifications handles GET /api/v1/notifications
// Lists notification history with optional filtering and cursor pagination
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	var req dto.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeNotificationCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.NotificationFilter{
		Scope:      req.Scope,
		EventType:  req.EventType,
		UnreadOnly: req.UnreadOnly,
		PageSize:   req.PageSize,
		Cursor:     cursor,
	}

	notifications, err := h.store.ListNotifications(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list notifications", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list notifications",
		})
		return
	}

	hasMore := len(notifications) > req.PageSize
	if hasMore {
		notifications = notifications[:req.PageSize]
	}

	response := make([]dto.NotificationDTO, len(notifications))
	for i, n := range notifications {
		response[i] = dto.NotificationDTO{
			ID:        n.ID,
			Scope:     n.Scope,
			EventType: n.EventType,
			Payload:   n.Payload,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}

	var nextCursor string
	if hasMore {
		last := notifications[len(notifications)-1]
		nextCursor = EncodeNotificationCursor(&storage.NotificationCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	c.JSON(http.StatusOK, dto.ListNotificationsResponse{
		Notifications: response,
		NextCursor:    nextCursor,
	})
}

// GetNotification handles GET /api/v1/notifications/:id
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	id := c.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		h.logger.Error("Invalid notification id", slog.String("id", id), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "id must be a valid UUID",
		})
		return
	}

	n, err := h.store.GetNotificationByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Notification not found",
			})
			return
		}
		h.logger.Error("Failed to get notification", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get notification",
		})
		return
	}

	c.JSON(http.StatusOK, dto.NotificationDTO{
		ID:        n.ID,
		Scope:     n.Scope,
		EventType: n.EventType,
		Payload:   n.Payload,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	})
}

// MarkRead handles PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		h.logger.Error("Invalid notification id", slog.String("id", id), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "id must be a valid UUID",
		})
		return
	}

	if err := h.store.MarkRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Notification not found",
			})
			return
		}
		h.logger.Error("Failed to mark notification read", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to mark notification read",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      id,
		"is_read": true,
	})
}

// MarkAllRead handles PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	scope := c.Query("scope")
	if scope == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "scope is required",
		})
		return
	}

	updated, err := h.store.MarkAllRead(c.Request.Context(), scope)
	if err != nil {
		h.logger.Error("Failed to mark notifications read", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to mark notifications read",
		})
		return
	}

	c.JSON(http.StatusOK, dto.MarkAllReadResponse{Updated: updated})
}
