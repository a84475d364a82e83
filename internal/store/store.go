package store

import (
	"context"
	"time"
)

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	AvatarURL    string
	IsGuest      bool
	SessionID    string // For guest user session tracking
	CreatedAt    time.Time
}

// Message represents a persisted chat message.
//
// Rooms are not stored entities; a message references its room by name.
// Display name and avatar are denormalized onto the row so history reads
// need no join against users.
type Message struct {
	ID        int64
	RoomName  string
	UserID    int64
	UserName  string
	AvatarURL string
	Content   string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new registered user with hashed password.
	CreateUser(ctx context.Context, username, displayName, passwordHash string) (*User, error)

	// CreateGuestUser creates a temporary guest user with session ID.
	CreateGuestUser(ctx context.Context, sessionID string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a registered user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateUserProfile updates display name and avatar for a user.
	UpdateUserProfile(ctx context.Context, id int64, displayName, avatarURL string) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertMessage persists a message and fills in its ID.
	// CreatedAt must be set by the caller (server time, UTC).
	InsertMessage(ctx context.Context, msg *Message) error

	// ListRecent returns the most recent limit messages of a room in
	// ascending chronological order. An unknown room yields an empty slice.
	ListRecent(ctx context.Context, roomName string, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
