package ws

import (
	"sync"

	"talkio_backend/internal/metrics"
)

// Registry maps an authenticated user to their live connection. It never
// touches the network, callers push after the lookup has returned.
type Registry struct {
	mu      sync.RWMutex
	clients map[uint]*Client
	metrics *metrics.Metrics
}

func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		clients: make(map[uint]*Client),
		metrics: m,
	}
}

// Register inserts or replaces the entry for userID and returns the
// connection it replaced, if any. The replaced connection is not closed.
func (r *Registry) Register(userID uint, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, existed := r.clients[userID]
	r.clients[userID] = c
	if !existed {
		r.metrics.ConnectionOpened()
	}
	if previous == c {
		return nil
	}
	return previous
}

// Unregister removes the entry only while it still points at c, so a stale
// connection closing late cannot evict its replacement.
func (r *Registry) Unregister(userID uint, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.clients[userID]
	if !ok || current != c {
		return false
	}
	delete(r.clients, userID)
	r.metrics.ConnectionClosed()
	return true
}

func (r *Registry) Lookup(userID uint) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// IsOnline is true while the user has a registered connection that is still
// open.
func (r *Registry) IsOnline(userID uint) bool {
	c, ok := r.Lookup(userID)
	return ok && c.IsAlive()
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Snapshot copies the registered connections.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}
