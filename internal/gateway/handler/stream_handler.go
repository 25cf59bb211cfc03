package handler

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"

	"github.com/TechmatesTeam/koroh-sub002/internal/event"
	"github.com/TechmatesTeam/koroh-sub002/internal/gateway"
)

// StreamHandler serves the websocket push channel, one connection per
// client per scope
type StreamHandler struct {
	logger     *slog.Logger
	hub        *gateway.Hub
	bufferSize int
}

// NewStreamHandler creates a new StreamHandler instance
func NewStreamHandler(deps *Dependencies) *StreamHandler {
	return &StreamHandler{
		logger:     deps.Logger,
		hub:        deps.Hub,
		bufferSize: deps.SubscriberBuffer,
	}
}

// Serve handles GET /ws/:scope
func (h *StreamHandler) Serve(c *gin.Context) {
	scope := c.Param("scope")

	ws := websocket.Handler(func(conn *websocket.Conn) {
		h.serveConn(scope, conn)
	})
	ws.ServeHTTP(c.Writer, c.Request)
}

// serveConn runs one push channel: the first client frame subscribes, then
// the server streams matching updates until either side closes
func (h *StreamHandler) serveConn(scope string, conn *websocket.Conn) {
	var req event.SubscribeRequest
	if err := websocket.JSON.Receive(conn, &req); err != nil {
		h.logger.Debug("Invalid subscribe frame",
			slog.String("scope", scope),
			slog.String("error", err.Error()),
		)
		return
	}

	sub := h.hub.Subscribe(scope, req.Types, h.bufferSize)
	defer h.hub.Unsubscribe(sub)

	h.logger.Info("Push channel opened",
		slog.String("scope", scope),
		slog.String("remote", conn.Request().RemoteAddr),
		slog.Int("types", len(req.Types)),
	)

	// Drain the connection so a client close is noticed
	go func() {
		io.Copy(io.Discard, conn)
		h.hub.Unsubscribe(sub)
	}()

	for {
		select {
		case <-sub.Done():
			h.logger.Info("Push channel closed",
				slog.String("scope", scope),
				slog.String("remote", conn.Request().RemoteAddr),
			)
			return

		case evt := <-sub.Events():
			frame, err := json.Marshal(evt)
			if err != nil {
				h.logger.Error("Failed to encode update frame",
					slog.String("event_id", evt.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			if err := websocket.Message.Send(conn, string(frame)); err != nil {
				h.logger.Debug("Push channel write failed",
					slog.String("scope", scope),
					slog.String("error", err.Error()),
				)
				return
			}
		}
	}
}
