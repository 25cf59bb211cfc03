package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TechmatesTeam/koroh-sub002/internal/gateway/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "koroh-realtime-service",
		})
	})

	// Push channel, one per scope
	streamHandler := handler.NewStreamHandler(deps)
	r.GET("/ws/:scope", streamHandler.Serve)

	// Notification history
	notificationHandler := handler.NewNotificationHandler(deps)

	v1 := r.Group("/api/v1")
	{
		notifications := v1.Group("/notifications")
		{
			// GET /api/v1/notifications - list with filtering and pagination
			notifications.GET("", notificationHandler.ListNotifications)

			// GET /api/v1/notifications/:id - fetch one by id
			notifications.GET("/:id", notificationHandler.GetNotification)

			// PUT /api/v1/notifications/:id/read - mark one as read
			notifications.PUT("/:id/read", notificationHandler.MarkRead)

			// PUT /api/v1/notifications/read-all - mark a scope as read
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
		}
	}

	return r
}
