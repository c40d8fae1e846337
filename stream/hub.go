package stream

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/wake/telemetry"
)

const writeWait = 2 * time.Second

// client is one connected viewer. Frames are queued on send and written by
// the client's own goroutine; a full queue drops the frame.
type client struct {
	conn    *websocket.Conn
	send    chan []byte
	dropped atomic.Int64 // Written by Broadcast, read on disconnect
}

// Hub fans frames out to every connected client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	queue   int
}

// NewHub creates a hub buffering queue frames per client.
func NewHub(queue int) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		queue:   max(1, queue),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	telemetry.StreamClients.Set(float64(n))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	telemetry.StreamClients.Set(float64(n))
}

// Broadcast queues frame for every client without blocking. frame must not
// be modified afterwards.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
			telemetry.StreamFrames.WithLabelValues("sent").Inc()
		default:
			c.dropped.Add(1)
			telemetry.StreamFrames.WithLabelValues("dropped").Inc()
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	telemetry.StreamClients.Set(0)
}

// writePump drains c.send onto the connection until the queue closes or a
// write fails.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			slog.Debug("stream write failed", "remote", c.conn.RemoteAddr().String(), "error", err)
			h.remove(c)
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// readPump discards client messages and removes the client once the
// connection closes.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
