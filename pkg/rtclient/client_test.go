package rtclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvek/teamboard-backend/internal/core/domain"
)

func TestReconnectDelay_BackoffSequence(t *testing.T) {
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second, // capped, 16s would exceed the ceiling
	}
	for attempt, expected := range want {
		assert.Equal(t, expected, ReconnectDelay(attempt), "attempt %d", attempt)
	}

	// Stays at the ceiling no matter how high the attempt count gets.
	assert.Equal(t, 10*time.Second, ReconnectDelay(10))
	assert.Equal(t, 10*time.Second, ReconnectDelay(63))
}

// testServer upgrades incoming connections and records every frame the
// client sends.
type testServer struct {
	*httptest.Server

	mu       sync.Mutex
	conns    []*websocket.Conn
	received []domain.Event
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{}
	upgrader := websocket.Upgrader{}

	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.mu.Lock()
		ts.conns = append(ts.conns, conn)
		ts.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var event domain.Event
			if err := json.Unmarshal(data, &event); err != nil {
				continue
			}
			ts.mu.Lock()
			ts.received = append(ts.received, event)
			ts.mu.Unlock()
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func (ts *testServer) receivedTypes() []domain.EventType {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	types := make([]domain.EventType, 0, len(ts.received))
	for _, e := range ts.received {
		types = append(types, e.Type)
	}
	return types
}

func (ts *testServer) push(t *testing.T, event domain.Event) {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.conns)
	require.NoError(t, ts.conns[len(ts.conns)-1].WriteJSON(event))
}

func TestController_ConnectSubscribes(t *testing.T) {
	server := newTestServer(t)

	ctrl := NewController(Options{
		URL:         server.wsURL(),
		Token:       "test-token",
		WorkspaceID: "ws-1",
	})
	t.Cleanup(func() { _ = ctrl.Close() })

	require.NoError(t, ctrl.Connect())
	assert.True(t, ctrl.IsConnected())
	assert.Equal(t, 0, ctrl.Attempts())

	// join-workspace first, then the activity stream subscribe.
	require.Eventually(t, func() bool {
		return len(server.receivedTypes()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	types := server.receivedTypes()
	assert.Equal(t, domain.EventJoinWorkspace, types[0])
	assert.Equal(t, domain.EventType(subscribeActivityStream), types[1])
}

func TestController_DeliversServerEvents(t *testing.T) {
	server := newTestServer(t)

	var mu sync.Mutex
	var got []domain.Event

	ctrl := NewController(Options{
		URL:         server.wsURL(),
		Token:       "test-token",
		WorkspaceID: "ws-1",
		OnEvent: func(event domain.Event) {
			mu.Lock()
			got = append(got, event)
			mu.Unlock()
		},
	})
	t.Cleanup(func() { _ = ctrl.Close() })

	require.NoError(t, ctrl.Connect())

	server.push(t, domain.NewEvent(domain.EventTaskUpdated, map[string]string{"taskId": "t-1"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, domain.EventTaskUpdated, got[0].Type)
}

func TestController_GivesUpAfterMaxAttempts(t *testing.T) {
	downCalled := make(chan struct{}, 8)

	ctrl := NewController(Options{
		// Nothing listens here; every dial fails immediately.
		URL:         "ws://127.0.0.1:1",
		Token:       "test-token",
		WorkspaceID: "ws-1",
		Dialer:      &websocket.Dialer{HandshakeTimeout: 100 * time.Millisecond},
		OnDown:      func() { downCalled <- struct{}{} },
	})
	t.Cleanup(func() { _ = ctrl.Close() })

	// Drive the failure path directly instead of waiting out the real
	// backoff timers.
	for i := 0; i < maxReconnectAttempts; i++ {
		require.Error(t, ctrl.Connect())
	}
	assert.Equal(t, maxReconnectAttempts, ctrl.Attempts())
	select {
	case <-downCalled:
		t.Fatal("OnDown fired before the attempt budget was spent")
	default:
	}

	// The failure after the fifth scheduled attempt gives up for good.
	require.Error(t, ctrl.Connect())
	select {
	case <-downCalled:
	case <-time.After(time.Second):
		t.Fatal("OnDown was not called after exhausting reconnect attempts")
	}
}

func TestController_SuccessfulConnectResetsAttempts(t *testing.T) {
	server := newTestServer(t)

	ctrl := NewController(Options{
		URL:         "ws://127.0.0.1:1",
		Token:       "test-token",
		WorkspaceID: "ws-1",
		Dialer:      &websocket.Dialer{HandshakeTimeout: 100 * time.Millisecond},
	})
	t.Cleanup(func() { _ = ctrl.Close() })

	require.Error(t, ctrl.Connect())
	require.Equal(t, 1, ctrl.Attempts())

	ctrl.opts.URL = server.wsURL()
	require.NoError(t, ctrl.Connect())
	assert.Equal(t, 0, ctrl.Attempts())
}

func TestController_CloseLeavesNothingBehind(t *testing.T) {
	server := newTestServer(t)

	ctrl := NewController(Options{
		URL:         server.wsURL(),
		Token:       "test-token",
		WorkspaceID: "ws-1",
	})

	require.NoError(t, ctrl.Connect())
	require.NoError(t, ctrl.Close())

	assert.False(t, ctrl.IsConnected())

	// Closed is terminal: no reconnects, no new connections.
	assert.ErrorIs(t, ctrl.Connect(), ErrControllerClosed)
	assert.NoError(t, ctrl.Close())
}

func TestController_CloseCancelsPendingReconnect(t *testing.T) {
	ctrl := NewController(Options{
		URL:         "ws://127.0.0.1:1",
		Token:       "test-token",
		WorkspaceID: "ws-1",
		Dialer:      &websocket.Dialer{HandshakeTimeout: 100 * time.Millisecond},
	})

	require.Error(t, ctrl.Connect())
	require.NoError(t, ctrl.Close())

	// The armed backoff timer must not resurrect the controller.
	time.Sleep(1100 * time.Millisecond)
	assert.False(t, ctrl.IsConnected())
}
