package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pavelsokov/talkroom-server/internal/store"
	"github.com/rs/zerolog"
)

// Hub coordinates room membership, message fan-out and typing state.
//
// Every inbound event of a connection is handled on that connection's
// read-loop goroutine, which serializes all mutations touching a single
// connection. The hub lock guards only the room index; membership changes
// take it briefly, while broadcasts, sends and typing updates work against
// the per-room lock so unrelated rooms never block each other. No store
// call runs under either lock.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	registry     *Registry
	messages     store.MessageStore
	historyLimit int
	log          *zerolog.Logger
}

// NewHub creates a new chat hub instance. messages may be nil in tests
// that exercise membership and typing only.
func NewHub(messages store.MessageStore, historyLimit int, logger *zerolog.Logger) *Hub {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		rooms:        make(map[string]*Room),
		registry:     NewRegistry(),
		messages:     messages,
		historyLimit: historyLimit,
		log:          logger,
	}
}

// Registry exposes the connection registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Connect registers a live connection with the hub.
func (h *Hub) Connect(c *Client) {
	h.registry.Register(c)
	h.log.Debug().Str("conn_id", c.ConnID).Int64("user_id", c.UserID).Msg("connection registered")
}

// Disconnect runs the cleanup cascade for a closed connection: implicit
// room leave, typing removal and a single "left" broadcast. Safe to call
// more than once; only the first call observes the bound room.
func (h *Hub) Disconnect(c *Client) {
	room, ok := h.registry.Unregister(c.ConnID)
	if !ok {
		return
	}
	if room != "" {
		h.leaveRoom(c, room)
	}
	h.log.Debug().Str("conn_id", c.ConnID).Str("room", room).Msg("connection unregistered")
}

// Join binds the connection to a room, leaving any previously held room
// first. Joining the room already held is a no-op. Blank room names are
// dropped silently, matching the fire-and-forget contract of the
// real-time boundary.
func (h *Hub) Join(ctx context.Context, c *Client, roomName string) {
	roomName = strings.TrimSpace(roomName)
	if roomName == "" {
		h.log.Debug().Str("conn_id", c.ConnID).Msg("join with blank room dropped")
		return
	}

	_, current, ok := h.registry.Resolve(c.ConnID)
	if !ok {
		return
	}
	if current == roomName {
		return
	}
	if current != "" {
		h.leaveRoom(c, current)
	}

	h.mu.Lock()
	room, exists := h.rooms[roomName]
	if !exists {
		room = NewRoom(roomName)
		h.rooms[roomName] = room
	}
	room.AddClient(c)
	h.mu.Unlock()

	if !h.registry.SetRoom(c.ConnID, roomName) {
		// Disconnect cleanup already ran for this connection.
		h.mu.Lock()
		room.RemoveClient(c)
		if room.Empty() {
			delete(h.rooms, roomName)
		}
		h.mu.Unlock()
		return
	}

	room.Broadcast(&Event{
		Kind:   EventStatus,
		Room:   roomName,
		Status: fmt.Sprintf("%s joined the room %s.", c.Name, roomName),
	}, c)

	h.log.Info().Str("conn_id", c.ConnID).Str("user", c.Name).Str("room", roomName).Msg("joined room")

	h.sendHistory(ctx, c, roomName)
}

// SendMessage validates, persists and fans out a chat message. The
// broadcast includes the sender and happens only after the insert
// committed. A successful send clears the sender's typing entry.
func (h *Hub) SendMessage(ctx context.Context, c *Client, content string) {
	_, roomName, ok := h.registry.Resolve(c.ConnID)
	if !ok {
		// Dead connection racing its own cleanup; nothing may observe it.
		return
	}
	if roomName == "" {
		h.sendError(c, coreError(ErrCodeNotInRoom, "join a room before sending messages"))
		return
	}

	content = strings.TrimSpace(content)
	if content == "" {
		h.sendError(c, coreError(ErrCodeMessageEmpty, "message is empty"))
		return
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		h.sendError(c, coreError(ErrCodeMessageTooLong,
			fmt.Sprintf("message exceeds %d characters", MaxContentLen)))
		return
	}

	record := &store.Message{
		RoomName:  roomName,
		UserID:    c.UserID,
		UserName:  c.Name,
		AvatarURL: c.AvatarURL,
		Content:   content,
		CreatedAt: serverNow(),
	}
	if err := h.messages.InsertMessage(ctx, record); err != nil {
		h.log.Error().Err(err).Str("room", roomName).Int64("user_id", c.UserID).Msg("persist message")
		h.sendError(c, coreError(ErrCodeStorage, "message could not be saved"))
		return
	}

	room := h.room(roomName)
	if room == nil {
		return
	}

	room.Broadcast(&Event{
		Kind:    EventNewMessage,
		Room:    roomName,
		Message: fromStored(record),
	}, nil)

	// A delivered message implies the author stopped composing.
	if _, was := room.StopTyping(c.UserID); was {
		room.Broadcast(typingEvent(roomName, c, false), c)
	}
}

// StartTyping marks the sender as composing in its current room and
// broadcasts the 0->1 edge to the other members.
func (h *Hub) StartTyping(c *Client) {
	room := h.resolveRoom(c)
	if room == nil {
		return
	}
	if room.StartTyping(c.UserID, c.Name) {
		room.Broadcast(typingEvent(room.Name, c, true), c)
	}
}

// StopTyping clears the sender's typing entry and broadcasts the 1->0 edge.
func (h *Hub) StopTyping(c *Client) {
	room := h.resolveRoom(c)
	if room == nil {
		return
	}
	if _, was := room.StopTyping(c.UserID); was {
		room.Broadcast(typingEvent(room.Name, c, false), c)
	}
}

// leaveRoom removes the client from a room, clears its typing entry and
// announces the departure. The "left" broadcast goes out after removal,
// so the leaver never receives it.
func (h *Hub) leaveRoom(c *Client, roomName string) {
	h.mu.Lock()
	room := h.rooms[roomName]
	if room == nil {
		h.mu.Unlock()
		return
	}
	removed := room.RemoveClient(c)
	if room.Empty() {
		delete(h.rooms, roomName)
	}
	h.mu.Unlock()

	if !removed {
		return
	}

	if _, was := room.StopTyping(c.UserID); was {
		room.Broadcast(typingEvent(roomName, c, false), c)
	}

	room.Broadcast(&Event{
		Kind:   EventStatus,
		Room:   roomName,
		Status: fmt.Sprintf("%s left the room %s.", c.Name, roomName),
	}, c)

	h.log.Info().Str("conn_id", c.ConnID).Str("user", c.Name).Str("room", roomName).Msg("left room")
}

// sendHistory unicasts the bounded recent history to a freshly joined
// connection. Membership stays bound even if the read fails.
func (h *Hub) sendHistory(ctx context.Context, c *Client, roomName string) {
	records, err := h.messages.ListRecent(ctx, roomName, h.historyLimit)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomName).Msg("load history")
		h.sendError(c, coreError(ErrCodeStorage, "history could not be loaded"))
		return
	}

	messages := make([]Message, 0, len(records))
	for _, rec := range records {
		messages = append(messages, fromStored(rec))
	}
	c.send(&Event{
		Kind:     EventHistory,
		Room:     roomName,
		Messages: messages,
	})
}

// room looks up an active room by name.
func (h *Hub) room(name string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[name]
}

// resolveRoom yields the sender's current room, or nil when the
// connection is unknown or unbound.
func (h *Hub) resolveRoom(c *Client) *Room {
	_, roomName, ok := h.registry.Resolve(c.ConnID)
	if !ok || roomName == "" {
		return nil
	}
	return h.room(roomName)
}

func (h *Hub) sendError(c *Client, err *CoreError) {
	c.send(&Event{Kind: EventError, Error: err})
}

func typingEvent(room string, c *Client, isTyping bool) *Event {
	return &Event{
		Kind: EventTyping,
		Room: room,
		Typing: &Typing{
			UserID:   c.UserID,
			UserName: c.Name,
			IsTyping: isTyping,
		},
	}
}

func fromStored(rec *store.Message) Message {
	return Message{
		ID:        rec.ID,
		Room:      rec.RoomName,
		UserID:    rec.UserID,
		UserName:  rec.UserName,
		AvatarURL: rec.AvatarURL,
		Content:   rec.Content,
		CreatedAt: rec.CreatedAt,
	}
}
