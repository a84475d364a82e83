package core

import "sync"

// Room groups clients subscribed to the same channel and tracks the
// room's ephemeral typing set. Membership mutations are serialized by
// the hub; the room's own lock covers broadcasts and typing state so
// unrelated rooms never contend.
type Room struct {
	Name string

	mu      sync.Mutex
	clients map[*Client]struct{}
	typing  map[int64]string // user_id -> display name
}

// NewRoom constructs a room with no clients.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[*Client]struct{}),
		typing:  make(map[int64]string),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Broadcast sends an event to all clients in the room except the given
// one. Pass nil to include everyone. Delivery is a non-blocking channel
// send per client; no I/O happens under the lock.
func (r *Room) Broadcast(event *Event, except *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for client := range r.clients {
		if client == except {
			continue
		}
		client.send(event)
	}
}

// StartTyping records a user as composing. Returns true only on the
// 0->1 transition for that user.
func (r *Room) StartTyping(userID int64, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.typing[userID]; exists {
		return false
	}
	r.typing[userID] = name
	return true
}

// StopTyping clears a user's typing entry. Returns the recorded display
// name and true only on the 1->0 transition.
func (r *Room) StopTyping(userID int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, exists := r.typing[userID]
	if !exists {
		return "", false
	}
	delete(r.typing, userID)
	return name, true
}

// TypingUsers returns a snapshot of the current typing set.
func (r *Room) TypingUsers() map[int64]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[int64]string, len(r.typing))
	for id, name := range r.typing {
		snapshot[id] = name
	}
	return snapshot
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients) == 0
}
