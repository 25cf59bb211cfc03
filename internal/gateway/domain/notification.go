package domain

import "time"

// Notification is a persisted update, kept so clients can page through
// history after the realtime moment has passed
type Notification struct {
	ID        string    `db:"id"`
	Scope     string    `db:"scope"`
	EventType string    `db:"event_type"`
	Payload   string    `db:"payload"` // JSON string
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}
