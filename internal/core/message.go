package core

import "time"

// MaxContentLen is the maximum accepted message length in characters.
// Longer messages are rejected, never truncated.
const MaxContentLen = 500

// DefaultHistoryLimit bounds the history window delivered on join.
const DefaultHistoryLimit = 50

// serverNow returns the authoritative timestamp for persisted messages.
// Client-supplied timestamps are never trusted.
func serverNow() time.Time {
	return time.Now().UTC()
}

// Message is the domain model for a chat message.
type Message struct {
	ID        int64
	Room      string
	UserID    int64
	UserName  string
	AvatarURL string
	Content   string
	CreatedAt time.Time
}
