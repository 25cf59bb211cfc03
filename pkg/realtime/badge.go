package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/TechmatesTeam/koroh-sub002/internal/event"
)

// Badge mirrors the pending update count and connection health for display.
// It is purely reactive: the count comes from buffer change notifications
// and the status from manager state transitions; the badge owns neither.
type Badge struct {
	buffer *Buffer

	mu     sync.Mutex
	count  int
	status string
}

// NewBadge wires a badge to the manager's state and the buffer's count
func NewBadge(manager *Manager, buffer *Buffer) *Badge {
	b := &Badge{
		buffer: buffer,
		count:  buffer.Len(),
		status: statusFor(manager.State()),
	}

	buffer.OnChange(func(n int) {
		b.mu.Lock()
		b.count = n
		b.mu.Unlock()
	})

	manager.OnStateChange(func(s ConnState) {
		b.mu.Lock()
		b.status = statusFor(s)
		b.mu.Unlock()
	})

	return b
}

// Count returns the mirrored pending update count
func (b *Badge) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Status returns the display label for the connection: "offline",
// "connecting", or "live"
func (b *Badge) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Open is the user clicking the badge: the pending batch is flushed and
// returned for rendering
func (b *Badge) Open() []event.UpdateEvent {
	return b.buffer.Flush()
}

// DismissAll discards the pending batch without rendering it
func (b *Badge) DismissAll() {
	b.buffer.Dismiss()
}

func statusFor(s ConnState) string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "live"
	default:
		return "offline"
	}
}

// Banner surfaces the most recent auto-flushed batch with apply and dismiss
// actions. The buffer delivers into the banner after the configured delay;
// nothing is applied without the user confirming.
type Banner struct {
	mu    sync.Mutex
	batch []event.UpdateEvent
}

// NewBanner arms the buffer's auto-flush to deliver into the banner
func NewBanner(buffer *Buffer, delay time.Duration) *Banner {
	b := &Banner{}
	buffer.AutoFlush(delay, b.Show)
	return b
}

// Show replaces the displayed batch
func (b *Banner) Show(events []event.UpdateEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batch = events
}

// Headline returns the banner text, or "" when nothing is pending
func (b *Banner) Headline() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch n := len(b.batch); n {
	case 0:
		return ""
	case 1:
		return "1 new update"
	default:
		return fmt.Sprintf("%d new updates", n)
	}
}

// Apply is the user accepting the batch: it is returned for handling and
// the banner clears
func (b *Banner) Apply() []event.UpdateEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	batch := b.batch
	b.batch = nil
	return batch
}

// Dismiss discards the displayed batch
func (b *Banner) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batch = nil
}

// Bind subscribes the buffer to the given event types on the manager and
// returns the subscriptions for later teardown via Off
func Bind(manager *Manager, buffer *Buffer, types ...event.Type) []*Subscription {
	subs := make([]*Subscription, 0, len(types))
	for _, t := range types {
		subs = append(subs, manager.On(t, buffer.Push))
	}
	return subs
}
