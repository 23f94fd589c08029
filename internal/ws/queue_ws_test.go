package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitline/internal/log"
	"waitline/internal/notify"
)

func setupHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(log.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/api/queues/:queue_id/ws", hub.QueueHandler)
	r.GET("/api/users/:user_id/ws", hub.UserHandler)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg WSMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestNotifyWithoutSubscribers(t *testing.T) {
	hub, _ := setupHub(t)
	err := hub.Notify(context.Background(), "nobody", notify.Message{Kind: notify.KindPositionThreshold})
	assert.ErrorIs(t, err, ErrNoSubscribers)
}

func TestNotifyReachesUserConnection(t *testing.T) {
	hub, srv := setupHub(t)
	conn := dial(t, srv, "/api/users/u1/ws")
	require.Eventually(t, func() bool { return hub.Subscribers(UserChannel("u1")) == 1 }, time.Second, 10*time.Millisecond)

	msg := notify.ThresholdMessage("q1", "e1", "u1", 5, time.Now())
	require.NoError(t, hub.Notify(context.Background(), "u1", msg))

	got := readMessage(t, conn)
	assert.Equal(t, notify.KindPositionThreshold, got.EventType)
	assert.Equal(t, "q1", got.QueueID)
	data, ok := got.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "e1", data["entry_id"])
	assert.EqualValues(t, 5, data["position"])
}

func TestQueueEventsOnlyReachThatQueue(t *testing.T) {
	hub, srv := setupHub(t)
	watcher := dial(t, srv, "/api/queues/q1/ws")
	other := dial(t, srv, "/api/queues/q2/ws")
	require.Eventually(t, func() bool {
		return hub.Subscribers(QueueChannel("q1")) == 1 && hub.Subscribers(QueueChannel("q2")) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.BroadcastQueueEvent(context.Background(), "q1", EventUserJoined, map[string]interface{}{"user_id": "u1", "position": 1}))

	got := readMessage(t, watcher)
	assert.Equal(t, EventUserJoined, got.EventType)
	assert.Equal(t, "q1", got.QueueID)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "q2 watcher must not receive q1 events")
}

func TestClosedConnectionUnregisters(t *testing.T) {
	hub, srv := setupHub(t)
	conn := dial(t, srv, "/api/users/u2/ws")
	require.Eventually(t, func() bool { return hub.Subscribers(UserChannel("u2")) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers(UserChannel("u2")) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastAfterHubStopped(t *testing.T) {
	hub := NewHub(log.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	for i := 0; i < 10; i++ {
		err := hub.BroadcastQueueEvent(context.Background(), "q1", "queue_updated", nil)
		require.ErrorIs(t, err, ErrNoSubscribers)
	}
	err := hub.BroadcastMessage(context.Background(), BroadcastMessage{Channel: QueueChannel("q1")})
	assert.ErrorIs(t, err, ErrNoSubscribers)
}
