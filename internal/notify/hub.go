// Package notify pushes ledger events to a user's websocket clients.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/apt777/finance-app/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type message struct {
	userID string
	data   []byte
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks websocket connections per user and fans out published
// payloads to them.
type Hub struct {
	logger     *logging.Logger
	upgrader   websocket.Upgrader
	clients    map[string]map[*client]bool
	broadcast  chan message
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu     sync.RWMutex
	counts map[string]int
}

// NewHub creates a Hub. Call Run to start delivering messages.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger: logger.Named("notify"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:    make(map[string]map[*client]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		counts:     make(map[string]int),
	}
}

// Run delivers messages until ctx is canceled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*client]bool)
			h.mu.Lock()
			h.counts = make(map[string]int)
			h.mu.Unlock()
			return

		case c := <-h.register:
			set := h.clients[c.userID]
			if set == nil {
				set = make(map[*client]bool)
				h.clients[c.userID] = set
			}
			set[c] = true
			h.setCount(c.userID, len(set))
			h.logger.Debug("websocket client connected", zap.String("user_id", c.userID), zap.Int("clients", len(set)))

		case c := <-h.unregister:
			h.remove(c)

		case m := <-h.broadcast:
			for c := range h.clients[m.userID] {
				select {
				case c.send <- m.data:
				default:
					h.logger.Warn("websocket client too slow, dropping", zap.String("user_id", c.userID))
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	set := h.clients[c.userID]
	if !set[c] {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	h.setCount(c.userID, len(set))
	h.logger.Debug("websocket client disconnected", zap.String("user_id", c.userID), zap.Int("clients", len(set)))
}

func (h *Hub) setCount(userID string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n == 0 {
		delete(h.counts, userID)
		return
	}
	h.counts[userID] = n
}

// Clients returns the number of connected clients of a user.
func (h *Hub) Clients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[userID]
}

// Publish sends payload as JSON to every client of userID. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) Publish(userID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshaling websocket payload", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message{userID: userID, data: data}:
	default:
		h.logger.Warn("websocket queue full, dropping message", zap.String("user_id", userID))
	}
}

// ServeWS upgrades the request and attaches the connection to userID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards client messages and unregisters the client when the
// connection fails.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()
	c.conn.SetReadLimit(512)
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

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
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
