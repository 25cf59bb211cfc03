package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/TechmatesTeam/koroh-sub002/internal/event"
)

// Handler is a callback invoked for every inbound event of a subscribed type
type Handler func(evt event.UpdateEvent)

// Subscription is the handle returned by On, used to deregister via Off
type Subscription struct {
	eventType event.Type
	handler   Handler
	removed   bool
}

// Manager owns at most one live push channel for its scope, surfaces the
// channel's state, and dispatches inbound events to registered handlers.
// Handlers for a type run in registration order on the read loop goroutine.
// The Manager never reconnects on its own; transport failures surface only
// as a transition to StateDisconnected.
type Manager struct {
	scope     string
	transport Transport
	logger    *slog.Logger

	mu       sync.Mutex
	state    ConnState
	channel  Channel
	gen      uint64
	handlers map[event.Type][]*Subscription
	stateFns []func(ConnState)
}

// NewManager creates a manager for the scope. The handler registry is owned
// by the manager instance; there is no process-wide dispatcher.
func NewManager(scope string, transport Transport, logger *slog.Logger) *Manager {
	return &Manager{
		scope:     scope,
		transport: transport,
		logger:    logger.With(slog.String("scope", scope)),
		state:     StateDisconnected,
		handlers:  make(map[event.Type][]*Subscription),
	}
}

// Scope returns the logical scope this manager serves
func (m *Manager) Scope() string {
	return m.scope
}

// State returns the current connection state
func (m *Manager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStateChange registers an observer invoked after every state transition
func (m *Manager) OnStateChange(fn func(ConnState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateFns = append(m.stateFns, fn)
}

// Connect opens the push channel for the scope. It is idempotent: while the
// manager is connecting or connected the call is a no-op. The dial runs in
// the background; callers observe completion via OnStateChange, not a
// blocking return.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.state = StateConnecting
	gen := m.gen
	fns := slices.Clone(m.stateFns)
	m.mu.Unlock()

	notifyState(fns, StateConnecting)

	go m.dial(ctx, gen)
}

func (m *Manager) dial(ctx context.Context, gen uint64) {
	ch, err := m.transport.Dial(ctx, m.scope)

	m.mu.Lock()
	if gen != m.gen {
		// Disconnect was called while dialing; this attempt is stale
		m.mu.Unlock()
		if err == nil {
			ch.Close()
		}
		return
	}

	if err != nil {
		m.state = StateDisconnected
		fns := slices.Clone(m.stateFns)
		m.mu.Unlock()

		m.logger.Debug("push channel dial failed", slog.Any("error", err))
		notifyState(fns, StateDisconnected)
		return
	}

	m.channel = ch
	m.state = StateConnected
	fns := slices.Clone(m.stateFns)
	m.mu.Unlock()

	notifyState(fns, StateConnected)

	go m.readLoop(ch, gen)
}

func (m *Manager) readLoop(ch Channel, gen uint64) {
	for {
		frame, err := ch.Read()
		if err != nil {
			m.mu.Lock()
			if gen != m.gen {
				m.mu.Unlock()
				return
			}
			m.gen++
			m.channel = nil
			m.state = StateDisconnected
			fns := slices.Clone(m.stateFns)
			m.mu.Unlock()

			m.logger.Debug("push channel closed", slog.Any("error", err))
			notifyState(fns, StateDisconnected)
			return
		}

		events, err := decodeFrame(m.scope, frame)
		if err != nil {
			// Malformed or unknown frames are dropped, never escalated
			m.logger.Debug("dropping malformed update frame", slog.Any("error", err))
			continue
		}

		for _, evt := range events {
			m.dispatch(evt)
		}
	}
}

// On registers a handler for the event type and returns its subscription
// handle. Handlers may be registered before or after Connect.
func (m *Manager) On(eventType event.Type, handler Handler) *Subscription {
	sub := &Subscription{eventType: eventType, handler: handler}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[eventType] = append(m.handlers[eventType], sub)
	return sub
}

// Off deregisters a subscription. The handler receives zero further
// invocations, including for events already being dispatched when Off was
// called on the dispatching goroutine.
func (m *Manager) Off(sub *Subscription) {
	if sub == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sub.removed = true

	subs := m.handlers[sub.eventType]
	for i, s := range subs {
		if s == sub {
			m.handlers[sub.eventType] = slices.Delete(subs, i, i+1)
			break
		}
	}
}

// Disconnect releases the channel, transitions to StateDisconnected, and
// clears the handler registry. Safe to call any number of times.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	ch := m.channel
	m.channel = nil

	for _, subs := range m.handlers {
		for _, sub := range subs {
			sub.removed = true
		}
	}
	m.handlers = make(map[event.Type][]*Subscription)

	changed := m.state != StateDisconnected
	m.state = StateDisconnected
	fns := slices.Clone(m.stateFns)
	m.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
	if changed {
		notifyState(fns, StateDisconnected)
	}
}

// dispatch invokes every live handler registered for the event's type.
// Liveness is re-checked per handler so an Off issued mid-dispatch holds.
func (m *Manager) dispatch(evt event.UpdateEvent) {
	m.mu.Lock()
	subs := slices.Clone(m.handlers[evt.Type])
	m.mu.Unlock()

	for _, sub := range subs {
		m.mu.Lock()
		removed := sub.removed
		m.mu.Unlock()
		if removed {
			continue
		}
		m.invoke(sub, evt)
	}
}

// invoke isolates handler panics so one faulty subscriber cannot block
// others from receiving the same event
func (m *Manager) invoke(sub *Subscription, evt event.UpdateEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("update handler panicked",
				slog.String("event_type", string(evt.Type)),
				slog.Any("panic", r),
			)
		}
	}()
	sub.handler(evt)
}

// decodeFrame accepts either a single UpdateEvent frame (the gateway's
// normal output) or a raw backend envelope, fanning the latter out
func decodeFrame(scope string, frame []byte) ([]event.UpdateEvent, error) {
	var evt event.UpdateEvent
	if err := json.Unmarshal(frame, &evt); err == nil && evt.ID != "" && evt.Type.Valid() {
		if evt.Scope == "" {
			evt.Scope = scope
		}
		return []event.UpdateEvent{evt}, nil
	}
	return event.ParseInbound(scope, frame)
}

func notifyState(fns []func(ConnState), state ConnState) {
	for _, fn := range fns {
		fn(state)
	}
}
