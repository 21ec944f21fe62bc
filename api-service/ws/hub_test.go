package ws

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gestao-backend/shared/config"
	"gestao-backend/shared/logger"
)

func init() {
	logger.SetForTesting(zap.NewNop())
}

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	config.LoadConfig()
	hub := NewHub(config.GetConfig())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseUint(r.URL.Query().Get("user_id"), 10, 64)
		if err != nil {
			http.Error(w, "bad user_id", http.StatusBadRequest)
			return
		}
		hub.Serve(w, r, uint(userID))
	}))
	t.Cleanup(server.Close)

	return hub, server
}

func dial(t *testing.T, server *httptest.Server, userID uint) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?user_id=" + strconv.FormatUint(uint64(userID), 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Every new connection is greeted first.
	var greeting Event
	require.NoError(t, conn.ReadJSON(&greeting))
	require.Equal(t, "connected", greeting.Type)

	return conn
}

func TestHubDeliversToConnectedUser(t *testing.T) {
	hub, server := newHubServer(t)
	conn := dial(t, server, 7)

	// Registration races the first send; give the hub loop a moment.
	time.Sleep(50 * time.Millisecond)
	hub.SendToUser(7, &Event{Type: "new_message", Timestamp: time.Now().UTC(), Data: "oi"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "new_message", event.Type)
	assert.Equal(t, "oi", event.Data)
}

func TestHubDropsEventsForAbsentUser(t *testing.T) {
	hub, _ := newHubServer(t)

	// Nothing to assert beyond "does not panic or block".
	hub.SendToUser(999, &Event{Type: "new_message", Timestamp: time.Now().UTC()})
}

func TestHubAnswersPing(t *testing.T) {
	_, server := newHubServer(t)
	conn := dial(t, server, 7)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "pong", event.Type)
}

func TestHubReplacesOlderConnection(t *testing.T) {
	hub, server := newHubServer(t)

	older := dial(t, server, 7)
	newer := dial(t, server, 7)

	time.Sleep(50 * time.Millisecond)
	hub.SendToUser(7, &Event{Type: "new_message", Timestamp: time.Now().UTC()})

	newer.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	require.NoError(t, newer.ReadJSON(&event))
	assert.Equal(t, "new_message", event.Type)

	// The replaced connection was closed by the hub.
	older.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := older.ReadMessage()
	assert.Error(t, err)
}
