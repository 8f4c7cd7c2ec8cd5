package sink

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/oswinhale/steading/internal/metrics"
)

// clientBuffer bounds the per-client queue; a client that falls this far
// behind is dropped rather than allowed to stall the run.
const clientBuffer = 32

// ObserverHub streams snapshots to websocket clients. Broadcasting never
// blocks the simulation: every client has its own buffered queue and its
// own writer goroutine.
type ObserverHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewObserverHub creates an empty hub.
func NewObserverHub() *ObserverHub {
	return &ObserverHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Observation is read-only; any origin may watch.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the connection and registers the observer.
func (h *ObserverHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("observer upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Info("observer connected", "remote", r.RemoteAddr, "observers", n)

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *ObserverHub) writeLoop(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.Close()
}

// readLoop discards inbound frames and detects disconnects.
func (h *ObserverHub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *ObserverHub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// WriteSnapshot broadcasts the snapshot. Clients whose queues are full are
// dropped on the spot.
func (h *ObserverHub) WriteSnapshot(s metrics.Snapshot) error {
	msg, err := json.Marshal(s)
	if err != nil {
		return err
	}

	h.mu.Lock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		slog.Warn("dropping slow observer")
		h.drop(c)
	}
	return nil
}

// Close disconnects every observer.
func (h *ObserverHub) Close() error {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	return nil
}

// Observers reports the connected client count.
func (h *ObserverHub) Observers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
