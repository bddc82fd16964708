// File: internal/realtime/hub.go
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"campus_lostfound_backend/internal/config"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 32
)

// Event is the frame sent to clients.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks live WebSocket connections per user and fans events out to them.
// A user may have several connections (tabs, devices).
type Hub struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

type client struct {
	hub    *Hub
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// NewHub creates a hub whose upgrader accepts the configured CORS origins.
func NewHub(cfg *config.Config, logger *zap.Logger) *Hub {
	allowed := make(map[string]struct{}, len(cfg.CORSAllowedOrigins))
	allowAll := len(cfg.CORSAllowedOrigins) == 0
	for _, o := range cfg.CORSAllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return &Hub{
		clients: make(map[uuid.UUID]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		logger: logger.Named("RealtimeHub"),
	}
}

// Push sends an event to every connection of userID. It never blocks and never fails:
// users without connections are skipped and slow connections drop the frame.
// Frames are sent under the read lock; send channels are only closed under the write lock.
func (h *Hub) Push(userID uuid.UUID, event string, payload interface{}) {
	if h == nil || h.ConnectionCount(userID) == 0 {
		return
	}

	frame, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		h.logger.Warn("Failed to encode realtime event", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- frame:
		default:
			h.logger.Debug("Realtime send buffer full, dropping frame",
				zap.String("user_id", userID.String()), zap.String("event", event))
		}
	}
}

// ConnectionCount returns the number of live connections for userID.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Serve upgrades the request and attaches the connection to userID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{hub: h, userID: userID, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register(c)

	go c.writePump()
	go c.readPump()
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	count := 0
	for _, set := range h.clients {
		for c := range set {
			c.close()
			count++
		}
	}
	h.clients = make(map[uuid.UUID]map[*client]struct{})
	h.mu.Unlock()

	h.logger.Info("Realtime hub closed", zap.Int("connections", count))
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("Realtime client connected", zap.String("user_id", c.userID.String()), zap.Int("connections", len(set)))
}

// unregister detaches c and closes its send channel.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	c.close()
}

// close must be called with the hub's write lock held.
func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// readPump only services control frames; clients do not send application messages.
func (c *client) readPump() {
	defer c.hub.unregister(c)
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
