package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechmatesTeam/koroh-sub002/internal/event"
	"github.com/TechmatesTeam/koroh-sub002/internal/gateway"
	"github.com/TechmatesTeam/koroh-sub002/pkg/realtime"
)

func setupStreamServer(t *testing.T) (*httptest.Server, *gateway.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := gateway.NewHub(testLogger())
	h := NewStreamHandler(&Dependencies{
		Logger:           testLogger(),
		Hub:              hub,
		SubscriberBuffer: 8,
	})

	r := gin.New()
	r.GET("/ws/:scope", h.Serve)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func wsBaseURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStreamDeliversToRealtimeClient(t *testing.T) {
	srv, hub := setupStreamServer(t)

	transport := &realtime.WebSocketTransport{BaseURL: wsBaseURL(srv)}
	m := realtime.NewManager("dashboard", transport, testLogger())
	defer m.Disconnect()

	received := make(chan event.UpdateEvent, 4)
	m.On(event.TypeJobRecommendation, func(evt event.UpdateEvent) {
		received <- evt
	})

	m.Connect(context.Background())
	require.Eventually(t, func() bool {
		return m.State() == realtime.StateConnected
	}, 2*time.Second, 5*time.Millisecond)

	// Wait until the subscribe frame has registered the client
	require.Eventually(t, func() bool {
		return hub.SubscriberCount("dashboard") == 1
	}, 2*time.Second, 5*time.Millisecond)

	evt, err := event.New("dashboard", event.TypeJobRecommendation, event.JobRecommendationData{
		JobID:      "job-1",
		Title:      "Go Engineer",
		MatchScore: 0.88,
	})
	require.NoError(t, err)
	hub.Publish(evt)

	select {
	case got := <-received:
		assert.Equal(t, evt.ID, got.ID)
		data, err := event.Decode[event.JobRecommendationData](got)
		require.NoError(t, err)
		assert.Equal(t, "job-1", data.JobID)
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the client")
	}
}

func TestStreamSubscribeTypeFilter(t *testing.T) {
	srv, hub := setupStreamServer(t)

	transport := &realtime.WebSocketTransport{
		BaseURL: wsBaseURL(srv),
		Types:   []event.Type{event.TypeProfileUpdate},
	}
	m := realtime.NewManager("dashboard", transport, testLogger())
	defer m.Disconnect()

	received := make(chan event.UpdateEvent, 4)
	m.On(event.TypeProfileUpdate, func(evt event.UpdateEvent) { received <- evt })
	m.On(event.TypeJobRecommendation, func(evt event.UpdateEvent) { received <- evt })

	m.Connect(context.Background())
	require.Eventually(t, func() bool {
		return hub.SubscriberCount("dashboard") == 1
	}, 2*time.Second, 5*time.Millisecond)

	jobEvt, err := event.New("dashboard", event.TypeJobRecommendation, event.JobRecommendationData{JobID: "job-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, hub.Publish(jobEvt))

	profileEvt, err := event.New("dashboard", event.TypeProfileUpdate, event.ProfileUpdateData{UserID: "u1", Field: "headline"})
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Publish(profileEvt))

	got := <-received
	assert.Equal(t, event.TypeProfileUpdate, got.Type)
}

func TestStreamClientDisconnectRemovesSubscriber(t *testing.T) {
	srv, hub := setupStreamServer(t)

	transport := &realtime.WebSocketTransport{BaseURL: wsBaseURL(srv)}
	m := realtime.NewManager("dashboard", transport, testLogger())

	m.Connect(context.Background())
	require.Eventually(t, func() bool {
		return hub.SubscriberCount("dashboard") == 1
	}, 2*time.Second, 5*time.Millisecond)

	m.Disconnect()
	require.Eventually(t, func() bool {
		return hub.SubscriberCount("dashboard") == 0
	}, 2*time.Second, 5*time.Millisecond)
}
