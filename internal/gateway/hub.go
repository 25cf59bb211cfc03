package gateway

import (
	"log/slog"
	"sync"

	"github.com/TechmatesTeam/koroh-sub002/internal/event"
)

// Hub fans inbound updates out to the websocket clients of each scope.
// One subscriber per connected client; a subscriber whose channel is full
// misses that event rather than stalling delivery to everyone else.
type Hub struct {
	logger *slog.Logger

	mu     sync.RWMutex
	scopes map[string]map[*Subscriber]struct{}
}

// Subscriber is one client's view of a scope's update stream
type Subscriber struct {
	scope  string
	types  map[event.Type]struct{} // empty means all types
	events chan event.UpdateEvent

	done     chan struct{}
	doneOnce sync.Once
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		scopes: make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscribe registers a client for the scope, restricted to the given event
// types (none means all). bufferSize bounds how far the client may lag.
func (h *Hub) Subscribe(scope string, types []event.Type, bufferSize int) *Subscriber {
	if bufferSize <= 0 {
		bufferSize = 16
	}

	sub := &Subscriber{
		scope:  scope,
		types:  make(map[event.Type]struct{}, len(types)),
		events: make(chan event.UpdateEvent, bufferSize),
		done:   make(chan struct{}),
	}
	for _, t := range types {
		sub.types[t] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.scopes[scope]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.scopes[scope] = subs
	}
	subs[sub] = struct{}{}

	h.logger.Debug("Subscriber registered",
		slog.String("scope", scope),
		slog.Int("types", len(types)),
		slog.Int("scope_subscribers", len(subs)),
	)

	return sub
}

// Unsubscribe removes a client and signals its Done channel. Safe to call
// multiple times.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if subs, ok := h.scopes[sub.scope]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.scopes, sub.scope)
		}
	}
	h.mu.Unlock()

	sub.doneOnce.Do(func() { close(sub.done) })
}

// Publish delivers the event to every subscriber of its scope that wants
// the event's type. Returns the number of subscribers reached.
func (h *Hub) Publish(evt event.UpdateEvent) int {
	h.mu.RLock()
	targets := make([]*Subscriber, 0, len(h.scopes[evt.Scope]))
	for sub := range h.scopes[evt.Scope] {
		if sub.wants(evt.Type) {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		select {
		case sub.events <- evt:
			delivered++
		default:
			h.logger.Warn("Dropping update for slow subscriber",
				slog.String("scope", evt.Scope),
				slog.String("event_type", string(evt.Type)),
			)
		}
	}

	return delivered
}

// SubscriberCount returns the number of clients subscribed to the scope
func (h *Hub) SubscriberCount(scope string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.scopes[scope])
}

// Events is the stream of updates for this subscriber
func (s *Subscriber) Events() <-chan event.UpdateEvent {
	return s.events
}

// Done is closed when the subscriber is removed from the hub
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) wants(t event.Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}
