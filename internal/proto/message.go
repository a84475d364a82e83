package proto

import "encoding/json"

// Inbound is the envelope for events coming from the client. Type names
// the event; Data carries its payload, if any.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoin        = "join"
	InboundTypeSendMessage = "send_message"
	InboundTypeStartTyping = "start_typing"
	InboundTypeStopTyping  = "stop_typing"

	OutboundTypeStatus     = "status_message"
	OutboundTypeHistory    = "message_history"
	OutboundTypeNewMessage = "new_message"
	OutboundTypeTyping     = "typing_status"
	OutboundTypeError      = "error_message"
)

// JoinData requests to join a specific room.
type JoinData struct {
	Room string `json:"room"`
}

// SendMessageData is a chat message from the client. Timestamps are
// server-assigned; the client sends content only.
type SendMessageData struct {
	Content string `json:"content"`
}

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// StatusData announces a presence transition to room members.
type StatusData struct {
	Msg string `json:"msg"`
}

// MessageData is one chat message on the wire, used both for live
// broadcasts and history entries. Timestamp is RFC3339 UTC.
type MessageData struct {
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	UserPic   string `json:"user_pic,omitempty"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// HistoryData delivers the bounded recent history to a joining
// connection, oldest first.
type HistoryData struct {
	History  []MessageData `json:"history"`
	UserName string        `json:"user_name"`
}

// TypingStatusData announces a typing-state edge for a room member.
type TypingStatusData struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

// ErrorData is a sender-only error notification.
type ErrorData struct {
	Msg string `json:"msg"`
}
