// Package ws pushes real-time events to connected dashboard clients.
// One connection per user; a newer connection replaces the older one.
package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gestao-backend/shared/config"
	"gestao-backend/shared/logger"
)

// Event is the wire format for everything the hub pushes.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

type clientConn struct {
	userID uint
	conn   *websocket.Conn
}

// Hub tracks connected clients and delivers per-user events.
type Hub struct {
	clients    map[uint]*websocket.Conn
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	register   chan *clientConn
	unregister chan *clientConn
}

// NewHub builds the hub and starts its event loop.
func NewHub(cfg *config.Config) *Hub {
	h := &Hub{
		clients: make(map[uint]*websocket.Conn),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin header.
				return origin == "" || origin == cfg.FrontendURL
			},
		},
		register:   make(chan *clientConn, 100),
		unregister: make(chan *clientConn, 100),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *clientConn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if existing, ok := h.clients[client.userID]; ok {
		existing.Close()
	}
	h.clients[client.userID] = client.conn
	logger.Get().Info("websocket client connected",
		zap.Uint("user_id", client.userID),
		zap.Int("total", len(h.clients)),
	)
}

func (h *Hub) removeClient(client *clientConn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conn, ok := h.clients[client.userID]; ok && conn == client.conn {
		delete(h.clients, client.userID)
		conn.Close()
		logger.Get().Info("websocket client disconnected",
			zap.Uint("user_id", client.userID),
			zap.Int("total", len(h.clients)),
		)
	}
}

// SendToUser delivers an event to one user if connected. Undelivered
// events are dropped; the dashboard refetches on reconnect.
func (h *Hub) SendToUser(userID uint, event *Event) {
	h.mutex.RLock()
	conn, ok := h.clients[userID]
	h.mutex.RUnlock()

	if !ok {
		return
	}

	if err := conn.WriteJSON(event); err != nil {
		logger.Get().Warn("websocket write failed",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		h.unregister <- &clientConn{userID: userID, conn: conn}
	}
}

// Serve upgrades the request and keeps the connection open until the
// client goes away. userID must already be authenticated by the caller.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &clientConn{userID: userID, conn: conn}
	h.register <- client
	defer func() {
		h.unregister <- client
	}()

	conn.WriteJSON(&Event{Type: "connected", Timestamp: time.Now().UTC()})

	for {
		// Clients only ever send pings; anything unreadable ends the
		// connection.
		var incoming map[string]interface{}
		if err := conn.ReadJSON(&incoming); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Get().Warn("websocket read failed",
					zap.Uint("user_id", userID),
					zap.Error(err),
				)
			}
			return nil
		}
		if t, ok := incoming["type"].(string); ok && t == "ping" {
			conn.WriteJSON(&Event{Type: "pong", Timestamp: time.Now().UTC()})
		}
	}
}
