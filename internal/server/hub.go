// internal/server/hub.go
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Hermanowicz/hermanowicz.co/internal/logging"
)

// upgrader is used to upgrade HTTP connections to WebSocket connections.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local preview server; any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// writeWait bounds a single write so a stalled subscriber cannot hold the hub.
var writeWait = 2 * time.Second

// Event is pushed to subscribers after a snapshot is published.
type Event struct {
	Type    string `json:"type"`
	BuildID string `json:"build_id"`
	Posts   int    `json:"posts"`
	Skipped int    `json:"skipped"`
}

// Hub maintains the set of subscribed clients and broadcasts events to them.
type Hub struct {
	clients map[*websocket.Conn]bool
	logger  logging.Logger

	// Mutex to protect concurrent access to clients map.
	mu sync.Mutex
}

func newHub(logger logging.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	h.logger.Debug("subscriber connected", "remote", conn.RemoteAddr().String())
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
		h.logger.Debug("subscriber disconnected", "remote", conn.RemoteAddr().String())
	}
}

func (h *Hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends ev to every client, dropping clients that fail.
func (h *Hub) Broadcast(ev Event) {
	message, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode event failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Warn("write to subscriber failed", "error", err)
			client.Close()
			delete(h.clients, client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeWait))
		_ = client.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		client.Close()
		delete(h.clients, client)
	}
}

// serveWs upgrades the request and holds the connection until the peer leaves.
func serveWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	hub.register(conn)

	// Clients never send; reading only detects the close.
	defer hub.unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
