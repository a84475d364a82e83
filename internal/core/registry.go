package core

import "sync"

// Registry maps live connections to their identity and current room.
// It owns no side effects beyond its own state; resolving an unknown
// connection yields "none", never an error.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*binding
}

type binding struct {
	client *Client
	room   string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*binding)}
}

// Register records a live connection with no room bound yet.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ConnID] = &binding{client: c}
}

// Resolve returns the client and current room for a connection.
// ok is false for unknown connections.
func (r *Registry) Resolve(connID string) (c *Client, room string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[connID]
	if !ok {
		return nil, "", false
	}
	return b.client, b.room, true
}

// SetRoom binds a connection to a room. Returns false if the connection
// is no longer registered.
func (r *Registry) SetRoom(connID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[connID]
	if !ok {
		return false
	}
	b.room = room
	return true
}

// Unregister removes a connection and returns the room it held.
// A second call for the same connection reports ok false, so disconnect
// cleanup runs exactly once.
func (r *Registry) Unregister(connID string) (room string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	delete(r.conns, connID)
	return b.room, true
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
