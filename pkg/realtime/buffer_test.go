package realtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechmatesTeam/koroh-sub002/internal/event"
)

func makeEvent(t *testing.T, id string) event.UpdateEvent {
	t.Helper()
	evt, err := event.New("dashboard", event.TypeJobRecommendation, event.JobRecommendationData{JobID: id})
	require.NoError(t, err)
	evt.ID = id
	return evt
}

func TestBufferFlushReturnsInArrivalOrder(t *testing.T) {
	b := NewBuffer()

	for i := 0; i < 5; i++ {
		b.Push(makeEvent(t, fmt.Sprintf("evt-%d", i)))
	}
	assert.Equal(t, 5, b.Len())

	events := b.Flush()
	require.Len(t, events, 5)
	for i, evt := range events {
		assert.Equal(t, fmt.Sprintf("evt-%d", i), evt.ID)
	}

	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Flush())
}

func TestBufferDismissDiscards(t *testing.T) {
	b := NewBuffer()

	b.Push(makeEvent(t, "evt-1"))
	b.Push(makeEvent(t, "evt-2"))
	b.Dismiss()

	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Flush())
}

func TestBufferBecomeNonEmptyEdge(t *testing.T) {
	b := NewBuffer()

	fired := 0
	b.OnBecomeNonEmpty(func() { fired++ })

	b.Push(makeEvent(t, "evt-1"))
	b.Push(makeEvent(t, "evt-2"))
	b.Push(makeEvent(t, "evt-3"))
	assert.Equal(t, 1, fired)

	b.Flush()
	b.Push(makeEvent(t, "evt-4"))
	assert.Equal(t, 2, fired)
}

func TestBufferOnChange(t *testing.T) {
	b := NewBuffer()

	var counts []int
	b.OnChange(func(n int) { counts = append(counts, n) })

	b.Push(makeEvent(t, "evt-1"))
	b.Push(makeEvent(t, "evt-2"))
	b.Flush()
	b.Push(makeEvent(t, "evt-3"))
	b.Dismiss()

	assert.Equal(t, []int{1, 2, 0, 1, 0}, counts)
}

func TestBufferAutoFlushDelivers(t *testing.T) {
	b := NewBuffer()

	var mu sync.Mutex
	var delivered [][]event.UpdateEvent
	b.AutoFlush(30*time.Millisecond, func(events []event.UpdateEvent) {
		mu.Lock()
		delivered = append(delivered, events)
		mu.Unlock()
	})

	b.Push(makeEvent(t, "evt-1"))
	b.Push(makeEvent(t, "evt-2"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 1
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	require.Len(t, delivered[0], 2)
	assert.Equal(t, "evt-1", delivered[0][0].ID)
	assert.Equal(t, "evt-2", delivered[0][1].ID)
	mu.Unlock()

	assert.Equal(t, 0, b.Len())

	// The timer re-arms per batch
	b.Push(makeEvent(t, "evt-3"))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBufferManualFlushCancelsAutoFlush(t *testing.T) {
	b := NewBuffer()

	var mu sync.Mutex
	autoDeliveries := 0
	b.AutoFlush(50*time.Millisecond, func(events []event.UpdateEvent) {
		mu.Lock()
		autoDeliveries++
		mu.Unlock()
	})

	b.Push(makeEvent(t, "evt-1"))
	b.Push(makeEvent(t, "evt-2"))

	events := b.Flush()
	require.Len(t, events, 2)

	// Wait well past the auto-flush deadline: the batch must not be
	// delivered a second time
	time.Sleep(120 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, autoDeliveries)
}

func TestBufferDismissCancelsAutoFlush(t *testing.T) {
	b := NewBuffer()

	var mu sync.Mutex
	autoDeliveries := 0
	b.AutoFlush(50*time.Millisecond, func(events []event.UpdateEvent) {
		mu.Lock()
		autoDeliveries++
		mu.Unlock()
	})

	b.Push(makeEvent(t, "evt-1"))
	b.Dismiss()

	time.Sleep(120 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, autoDeliveries)
}

func TestBufferCloseCancelsTimerAndObservers(t *testing.T) {
	b := NewBuffer()

	var mu sync.Mutex
	autoDeliveries := 0
	changes := 0
	b.AutoFlush(50*time.Millisecond, func(events []event.UpdateEvent) {
		mu.Lock()
		autoDeliveries++
		mu.Unlock()
	})
	b.OnChange(func(n int) {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	b.Push(makeEvent(t, "evt-1"))
	b.Close()

	// Pushes into a closed buffer are dropped and no callback fires into
	// the torn-down component
	b.Push(makeEvent(t, "evt-2"))
	time.Sleep(120 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, autoDeliveries)
	assert.Equal(t, 1, changes)
	assert.Equal(t, 0, b.Len())
}

func TestBufferCloseWaitsForTimedDelivery(t *testing.T) {
	b := NewBuffer()

	started := make(chan struct{})
	release := make(chan struct{})
	b.AutoFlush(5*time.Millisecond, func(events []event.UpdateEvent) {
		close(started)
		<-release
	})

	b.Push(makeEvent(t, "evt-1"))

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-flush never fired")
	}

	closed := make(chan struct{})
	go func() {
		b.Close()
		close(closed)
	}()

	// Close must not complete while the timed delivery is still running
	select {
	case <-closed:
		t.Fatal("Close returned while a timed delivery was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after delivery finished")
	}
}
