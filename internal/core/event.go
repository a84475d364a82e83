package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventStatus announces a join or leave transition to a room.
	EventStatus EventKind = iota
	// EventNewMessage carries a persisted chat message to room members.
	EventNewMessage
	// EventHistory delivers message history to a client upon joining a room.
	EventHistory
	// EventTyping announces a typing-state edge for a room member.
	EventTyping
	// EventError notifies the triggering client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	Status   string    // for EventStatus
	Message  Message   // for EventNewMessage
	Messages []Message // for EventHistory
	Typing   *Typing   // for EventTyping
	Error    *CoreError
}

// Typing holds data specific to typing-state events.
type Typing struct {
	UserID   int64
	UserName string
	IsTyping bool
}
