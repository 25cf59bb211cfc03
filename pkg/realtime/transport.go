package realtime

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/TechmatesTeam/koroh-sub002/internal/event"
)

// Transport opens the push channel for a scope. Implementations own any
// retry or backoff policy; the Manager only observes success or failure.
type Transport interface {
	Dial(ctx context.Context, scope string) (Channel, error)
}

// Channel is a live push channel delivering raw event frames
type Channel interface {
	// Read blocks until the next frame arrives or the channel fails
	Read() ([]byte, error)
	Close() error
}

// WebSocketTransport dials the realtime gateway's websocket endpoint
type WebSocketTransport struct {
	// BaseURL is the gateway base, e.g. "ws://localhost:8080"
	BaseURL string
	// Origin is sent during the websocket handshake
	Origin string
	// Types restricts the subscription; empty means all update types
	Types []event.Type
}

// Dial opens the websocket for the scope and sends the subscribe frame
func (t *WebSocketTransport) Dial(ctx context.Context, scope string) (Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	origin := t.Origin
	if origin == "" {
		origin = "http://localhost/"
	}

	url := fmt.Sprintf("%s/ws/%s", strings.TrimSuffix(t.BaseURL, "/"), scope)
	config, err := websocket.NewConfig(url, origin)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket config: %w", err)
	}

	conn, err := websocket.DialConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to dial push channel: %w", err)
	}

	if err := websocket.JSON.Send(conn, event.SubscribeRequest{Types: t.Types}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send subscribe frame: %w", err)
	}

	return &wsChannel{conn: conn}, nil
}

type wsChannel struct {
	conn *websocket.Conn
}

func (c *wsChannel) Read() ([]byte, error) {
	var frame []byte
	if err := websocket.Message.Receive(c.conn, &frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func (c *wsChannel) Close() error {
	return c.conn.Close()
}
