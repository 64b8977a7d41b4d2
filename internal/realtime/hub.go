// Package realtime keeps the registry of connected push clients and fans
// feed events out to them over websockets.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// sendBuffer is how many undelivered events a client may hold before new
// ones are dropped for it.
const sendBuffer = 64

// Client is one registered push connection.
type Client struct {
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient() *Client {
	return &Client{send: make(chan []byte, sendBuffer), done: make(chan struct{})}
}

// Messages yields encoded events queued for this client.
func (c *Client) Messages() <-chan []byte { return c.send }

// Done is closed once the client has been unregistered.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub is the process-wide set of connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds a new client and returns it.
func (h *Hub) Register() *Client {
	c := newClient()
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

// Unregister removes c. It is safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.stop()
}

// Len reports the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues ev for every client registered at the time of the call.
// It never blocks: a client whose buffer is full misses the event.
func (h *Hub) Broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encode event", "type", ev.Type, "err", err)
		return
	}

	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.send <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		slog.Warn("event dropped for slow clients", "type", ev.Type, "clients", dropped)
	}
}

// Close unregisters every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.stop()
	}
}
