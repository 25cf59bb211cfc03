package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechmatesTeam/koroh-sub002/internal/event"
	"github.com/TechmatesTeam/koroh-sub002/internal/gateway/domain"
)

// fakeStore records saved notifications and can be made to fail
type fakeStore struct {
	saved   []*domain.Notification
	saveErr error
}

func (s *fakeStore) SaveNotification(ctx context.Context, n *domain.Notification) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, n)
	return nil
}

func newTestConsumer(store NotificationStore, hub *Hub) *Consumer {
	return NewConsumer(&ConsumerConfig{
		Logger:       testLogger(),
		Hub:          hub,
		Store:        store,
		ConsumerTag:  "test-consumer",
		DefaultScope: "dashboard",
	})
}

func TestConsumerProcessFansOutAndPersists(t *testing.T) {
	store := &fakeStore{}
	hub := NewHub(testLogger())
	c := newTestConsumer(store, hub)

	sub := hub.Subscribe("dashboard", nil, 8)
	defer hub.Unsubscribe(sub)

	body := []byte(`{
		"type": "job_recommendation_update",
		"recommendations": [
			{"job_id": "job-1", "title": "Go Engineer", "company": "Acme", "location": "Berlin", "match_score": 0.91},
			{"job_id": "job-2", "title": "SRE", "company": "Globex", "location": "Remote", "match_score": 0.74}
		]
	}`)

	err := c.process(context.Background(), "updates.dashboard", body)
	require.NoError(t, err)

	require.Len(t, store.saved, 2)
	assert.Equal(t, "dashboard", store.saved[0].Scope)
	assert.Equal(t, string(event.TypeJobRecommendation), store.saved[0].EventType)
	assert.False(t, store.saved[0].IsRead)

	first := <-sub.Events()
	second := <-sub.Events()
	rec1, err := event.Decode[event.JobRecommendationData](first)
	require.NoError(t, err)
	rec2, err := event.Decode[event.JobRecommendationData](second)
	require.NoError(t, err)
	assert.Equal(t, "job-1", rec1.JobID)
	assert.Equal(t, "job-2", rec2.JobID)
}

func TestConsumerProcessMalformedMessage(t *testing.T) {
	store := &fakeStore{}
	c := newTestConsumer(store, NewHub(testLogger()))

	err := c.process(context.Background(), "updates.dashboard", []byte(`{"type": "mystery_event"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedUpdate)
	assert.False(t, c.shouldRequeue(err))
	assert.Empty(t, store.saved)
}

func TestConsumerProcessStorageFailureIsRetryable(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("connection refused")}
	c := newTestConsumer(store, NewHub(testLogger()))

	err := c.process(context.Background(), "updates.dashboard", []byte(`{"type": "dashboard_refresh"}`))
	require.Error(t, err)

	var retryable *domain.RetryableError
	assert.ErrorAs(t, err, &retryable)
	assert.True(t, c.shouldRequeue(err))
}

func TestConsumerScopeFromRoutingKey(t *testing.T) {
	c := newTestConsumer(&fakeStore{}, NewHub(testLogger()))

	tests := []struct {
		name       string
		routingKey string
		want       string
	}{
		{name: "scoped key", routingKey: "updates.dashboard", want: "dashboard"},
		{name: "nested key uses last segment", routingKey: "koroh.updates.jobs", want: "jobs"},
		{name: "bare key falls back to default", routingKey: "updates", want: "dashboard"},
		{name: "trailing dot falls back to default", routingKey: "updates.", want: "dashboard"},
		{name: "empty key falls back to default", routingKey: "", want: "dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.scopeFromRoutingKey(tt.routingKey))
		})
	}
}
