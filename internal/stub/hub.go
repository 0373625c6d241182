package stub

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/cosci-dev/cosci/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans lifecycle messages out to every connected channel client.
type Hub struct {
	logger *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		conns:  make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	total := len(h.conns)
	h.mu.Unlock()
	h.logger.Info("channel client connected", zap.Int("total", total))
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	total := len(h.conns)
	h.mu.Unlock()
	_ = conn.Close()
	h.logger.Info("channel client disconnected", zap.Int("total", total))
}

// Broadcast sends one message to every connected client. Clients that fail
// a write are dropped.
func (h *Hub) Broadcast(msg domain.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Warn("dropping channel client after write failure", zap.Error(err))
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

// CloseAll disconnects every client, used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "service stopping"))
		_ = conn.Close()
		delete(h.conns, conn)
	}
}

// ServeChannel upgrades an HTTP request to a channel connection and holds
// it until the client goes away. Inbound frames are discarded.
func (h *Hub) ServeChannel(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("channel upgrade failed", zap.Error(err))
		return
	}
	h.register(conn)
	defer h.unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
