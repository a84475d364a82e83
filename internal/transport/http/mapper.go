package http

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pavelsokov/talkroom-server/internal/core"
	"github.com/pavelsokov/talkroom-server/internal/proto"
)

// dispatch routes one inbound event to the hub. Malformed or unknown
// frames are dropped, never fatal to the connection: the real-time
// boundary answers bad input with silence or a sender-only error, and
// the hub decides which.
func (h *WSHandler) dispatch(ctx context.Context, client *core.Client, inbound proto.Inbound) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ConnID).Msg("malformed join dropped")
			return
		}
		h.hub.Join(ctx, client, join.Room)
	case proto.InboundTypeSendMessage:
		var msg proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ConnID).Msg("malformed send_message dropped")
			return
		}
		h.hub.SendMessage(ctx, client, msg.Content)
	case proto.InboundTypeStartTyping:
		h.hub.StartTyping(client)
	case proto.InboundTypeStopTyping:
		h.hub.StopTyping(client)
	default:
		h.log.Debug().Str("conn_id", client.ConnID).Str("type", inbound.Type).Msg("unknown event dropped")
	}
}

func outboundFromEvent(client *core.Client, event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventStatus:
		return proto.Outbound{
			Type: proto.OutboundTypeStatus,
			Data: proto.StatusData{Msg: event.Status},
		}
	case core.EventNewMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeNewMessage,
			Data: messageData(event.Message),
		}
	case core.EventHistory:
		history := make([]proto.MessageData, 0, len(event.Messages))
		for _, msg := range event.Messages {
			history = append(history, messageData(msg))
		}
		return proto.Outbound{
			Type: proto.OutboundTypeHistory,
			Data: proto.HistoryData{
				History:  history,
				UserName: client.Name,
			},
		}
	case core.EventTyping:
		return proto.Outbound{
			Type: proto.OutboundTypeTyping,
			Data: proto.TypingStatusData{
				UserID:   event.Typing.UserID,
				UserName: event.Typing.UserName,
				IsTyping: event.Typing.IsTyping,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Data: proto.ErrorData{Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeError,
			Data: proto.ErrorData{Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Data: proto.ErrorData{Msg: "unknown event"}}
	}
}

func messageData(msg core.Message) proto.MessageData {
	return proto.MessageData{
		UserID:    msg.UserID,
		UserName:  msg.UserName,
		UserPic:   msg.AvatarURL,
		Content:   msg.Content,
		Timestamp: msg.CreatedAt.UTC().Format(time.RFC3339),
	}
}
