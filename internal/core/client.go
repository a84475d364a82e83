package core

// Client is one live connection as seen by the core layer. The identity
// fields come from the transport's authentication step and never change
// for the lifetime of the connection.
type Client struct {
	ConnID    string
	UserID    int64
	Name      string
	AvatarURL string
	Events    chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(connID string, userID int64, name, avatarURL string) *Client {
	return &Client{
		ConnID:    connID,
		UserID:    userID,
		Name:      name,
		AvatarURL: avatarURL,
		Events:    make(chan *Event, 16),
	}
}

// send delivers an event without blocking. Slow consumers drop events;
// room and typing state are re-derivable from the next event.
func (c *Client) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}
