package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialDownstream(t *testing.T, httpURL, eventID string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "?event_id=" + eventID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastReachesCompetitionPoolOnly(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cm.Start(ctx)

	handler := NewWebSocketHandler(cm)
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleCompetitionConnection))
	defer srv.Close()

	watcher := dialDownstream(t, srv.URL, "c1")
	bystander := dialDownstream(t, srv.URL, "c2")

	require.Eventually(t, func() bool {
		stats := cm.Stats()
		return stats["total_connections"] == 2
	}, time.Second, 5*time.Millisecond)

	cm.Broadcast("c1", "scoreboard", map[string]string{"hello": "world"})

	watcher.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := watcher.ReadMessage()
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	require.Equal(t, "scoreboard", env.Kind)
	require.Equal(t, "c1", env.CompetitionID)
	require.Equal(t, map[string]interface{}{"hello": "world"}, env.Payload)

	// The other competition's pool must stay silent.
	bystander.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = bystander.ReadMessage()
	require.Error(t, err)
}

func TestDisconnectUnregistersConnection(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cm.Start(ctx)

	handler := NewWebSocketHandler(cm)
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleCompetitionConnection))
	defer srv.Close()

	conn := dialDownstream(t, srv.URL, "c1")

	require.Eventually(t, func() bool {
		return cm.Stats()["total_connections"] == 1
	}, time.Second, 5*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return cm.Stats()["total_connections"] == 0
	}, time.Second, 5*time.Millisecond)
}

func TestBroadcastDuringDisconnectsDoesNotPanic(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cm.Start(ctx)

	handler := NewWebSocketHandler(cm)
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleCompetitionConnection))
	defer srv.Close()

	// Clients churn while broadcasts flow; a disconnect that closes a Send
	// channel mid-broadcast used to panic the fanout loop.
	conns := make([]*websocket.Conn, 0, 16)
	for i := 0; i < 16; i++ {
		conns = append(conns, dialDownstream(t, srv.URL, "c1"))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, conn := range conns {
			conn.Close()
			time.Sleep(time.Millisecond)
		}
	}()

	for i := 0; i < 500; i++ {
		cm.Broadcast("c1", "scoreboard", map[string]int{"seq": i})
	}
	<-done

	require.Eventually(t, func() bool {
		return cm.Stats()["total_connections"] == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestMissingEventIDRejected(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	handler := NewWebSocketHandler(cm)
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleCompetitionConnection))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.Equal(t, 400, resp.StatusCode)
}
