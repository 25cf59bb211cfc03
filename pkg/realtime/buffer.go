package realtime

import (
	"slices"
	"sync"
	"time"

	"github.com/TechmatesTeam/koroh-sub002/internal/event"
)

// FlushFunc receives a drained batch of buffered events
type FlushFunc func(events []event.UpdateEvent)

// Buffer accumulates inbound events into a pending queue for batched
// presentation. Contents leave the buffer only through Flush (delivered)
// or Dismiss (discarded); there is no peek. An optional auto-flush timer
// drains the queue a fixed delay after the first event of each batch.
type Buffer struct {
	mu sync.Mutex
	// deliverMu serializes timed delivery against Close so a drained batch
	// is never handed to a component that finished tearing down
	deliverMu sync.Mutex
	events    []event.UpdateEvent
	batch     uint64
	timer     *time.Timer
	autoDelay time.Duration
	deliver   FlushFunc
	firstFn   func()
	changeFns []func(n int)
	closed    bool
}

// NewBuffer creates an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{}
}

// OnBecomeNonEmpty registers a hook fired each time the queue transitions
// from empty to non-empty
func (b *Buffer) OnBecomeNonEmpty(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.firstFn = fn
}

// OnChange registers an observer of the pending count. Adapters mirror the
// count from here instead of owning it.
func (b *Buffer) OnChange(fn func(n int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changeFns = append(b.changeFns, fn)
}

// AutoFlush arms a timed drain: deliver receives the batch delay after the
// first event of that batch arrives. A manual Flush or Dismiss before the
// timer fires cancels it, so a batch is never delivered twice.
func (b *Buffer) AutoFlush(delay time.Duration, deliver FlushFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.autoDelay = delay
	b.deliver = deliver
}

// Push appends an event to the pending queue
func (b *Buffer) Push(evt event.UpdateEvent) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}

	wasEmpty := len(b.events) == 0
	b.events = append(b.events, evt)
	n := len(b.events)

	if wasEmpty && b.deliver != nil {
		batch := b.batch
		b.timer = time.AfterFunc(b.autoDelay, func() {
			b.fireAutoFlush(batch)
		})
	}

	var firstFn func()
	if wasEmpty {
		firstFn = b.firstFn
	}
	changeFns := slices.Clone(b.changeFns)
	b.mu.Unlock()

	if firstFn != nil {
		firstFn()
	}
	notifyChange(changeFns, n)
}

// fireAutoFlush drains the queue when the armed timer fires, unless the
// batch was already consumed. It holds deliverMu across the deliver call;
// Close takes the same guard, so once Close returns no delivery is in
// flight and none can start.
func (b *Buffer) fireAutoFlush(batch uint64) {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	b.mu.Lock()
	if b.closed || batch != b.batch || len(b.events) == 0 {
		b.mu.Unlock()
		return
	}
	events := b.drainLocked()
	deliver := b.deliver
	changeFns := slices.Clone(b.changeFns)
	b.mu.Unlock()

	if deliver != nil {
		deliver(events)
	}
	notifyChange(changeFns, 0)
}

// Flush atomically drains the queue and returns the events in arrival order.
// Returns nil when the queue is empty.
func (b *Buffer) Flush() []event.UpdateEvent {
	b.mu.Lock()
	if len(b.events) == 0 {
		b.mu.Unlock()
		return nil
	}
	events := b.drainLocked()
	changeFns := slices.Clone(b.changeFns)
	b.mu.Unlock()

	notifyChange(changeFns, 0)
	return events
}

// Dismiss empties the queue without delivering its contents
func (b *Buffer) Dismiss() {
	b.mu.Lock()
	if len(b.events) == 0 {
		b.mu.Unlock()
		return
	}
	b.drainLocked()
	changeFns := slices.Clone(b.changeFns)
	b.mu.Unlock()

	notifyChange(changeFns, 0)
}

// Len returns the number of pending events
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Close cancels any pending auto-flush timer and detaches all observers so
// no callback fires into a torn-down component. It blocks until an
// in-flight timed delivery completes. Further pushes are dropped.
func (b *Buffer) Close() {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.events = nil
	b.deliver = nil
	b.firstFn = nil
	b.changeFns = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// drainLocked empties the queue, invalidates the current batch, and stops
// a pending timer. Callers must hold b.mu.
func (b *Buffer) drainLocked() []event.UpdateEvent {
	events := b.events
	b.events = nil
	b.batch++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return events
}

func notifyChange(fns []func(int), n int) {
	for _, fn := range fns {
		fn(n)
	}
}
