package websocket

import (
	"context"
	"sync"

	"fastpai-be/internal/pkg/logger"
	"fastpai-be/internal/pkg/metrics"
)

// Hub supervises live connections. It only keeps bookkeeping (count, shutdown);
// each client runs its own turns and never touches another client's session.
type Hub struct {
	// Registered clients keyed by session ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed once Run returns.
	done chan struct{}

	// Lock for safe map access
	mu sync.RWMutex

	metrics *metrics.Metrics
	logger  logger.ILogger
}

func NewHub(m *metrics.Metrics, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
		metrics:    m,
		logger:     log,
	}
}

// Run serves register/unregister until ctx is cancelled, then stops every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Session.ID] = client
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.ActiveSessions.Set(float64(n))
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.Session.ID, "sessions": n})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.Session.ID]; ok {
				delete(h.clients, client.Session.ID)
				client.stop()
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.ActiveSessions.Set(float64(n))
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"session_id": client.Session.ID, "sessions": n})

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				client.stop()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.metrics.ActiveSessions.Set(0)
			h.logger.Info("Hub", "Hub stopped, all clients closed", nil)
			return
		}
	}
}

// Register returns false when the hub is no longer running.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.stop()
	}
}

// Count is the number of live sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
