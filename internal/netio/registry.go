package netio

import (
	"net"
	"sync"
)

// Registry is the client table keyed by IP address only, matching
// Main.cpp's habit of keying clients by address with no port: the
// server assumes one logical client per address.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

func (r *Registry) key(addr net.IP) string { return addr.String() }

// Get looks up the client at addr.
func (r *Registry) Get(addr net.IP) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[r.key(addr)]
	return c, ok
}

// Put registers c under its address, replacing any prior client there.
func (r *Registry) Put(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[r.key(c.addr)] = c
}

// Remove deletes the client at addr, if any, without closing its
// sockets (the caller does that).
func (r *Registry) Remove(addr net.IP) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, r.key(addr))
}

// All returns a snapshot of every registered client.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}
