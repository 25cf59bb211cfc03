package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeMirrorsBufferAndState(t *testing.T) {
	transport := &fakeTransport{}
	m := NewManager("dashboard", transport, testLogger())
	defer m.Disconnect()

	buffer := NewBuffer()
	badge := NewBadge(m, buffer)

	assert.Equal(t, "offline", badge.Status())
	assert.Equal(t, 0, badge.Count())

	m.Connect(context.Background())
	waitForState(t, m, StateConnected)
	require.Eventually(t, func() bool {
		return badge.Status() == "live"
	}, 2*time.Second, 5*time.Millisecond)

	buffer.Push(makeEvent(t, "evt-1"))
	buffer.Push(makeEvent(t, "evt-2"))
	assert.Equal(t, 2, badge.Count())

	events := badge.Open()
	assert.Len(t, events, 2)
	assert.Equal(t, 0, badge.Count())

	buffer.Push(makeEvent(t, "evt-3"))
	badge.DismissAll()
	assert.Equal(t, 0, badge.Count())
	assert.Nil(t, buffer.Flush())
}

func TestBadgeStatusConnecting(t *testing.T) {
	transport := &fakeTransport{hold: make(chan struct{})}
	m := NewManager("dashboard", transport, testLogger())
	defer m.Disconnect()

	badge := NewBadge(m, NewBuffer())

	m.Connect(context.Background())
	assert.Equal(t, "connecting", badge.Status())

	close(transport.hold)
	require.Eventually(t, func() bool {
		return badge.Status() == "live"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBannerAutoFlushAndApply(t *testing.T) {
	buffer := NewBuffer()
	banner := NewBanner(buffer, 20*time.Millisecond)

	assert.Empty(t, banner.Headline())

	buffer.Push(makeEvent(t, "evt-1"))
	buffer.Push(makeEvent(t, "evt-2"))

	require.Eventually(t, func() bool {
		return banner.Headline() == "2 new updates"
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, buffer.Len())

	events := banner.Apply()
	require.Len(t, events, 2)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Empty(t, banner.Headline())
}

func TestBannerDismiss(t *testing.T) {
	buffer := NewBuffer()
	banner := NewBanner(buffer, 20*time.Millisecond)

	buffer.Push(makeEvent(t, "evt-1"))
	require.Eventually(t, func() bool {
		return banner.Headline() == "1 new update"
	}, 2*time.Second, 5*time.Millisecond)

	banner.Dismiss()
	assert.Empty(t, banner.Headline())
	assert.Nil(t, banner.Apply())
}
