package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/pavelsokov/talkroom-server/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	env := startTestServer(t)

	resp, err := env.ts.Client().Get(env.ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketRefusesMissingToken(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, _, err := websocket.Dial(ctx, env.wsURL(""), nil); err == nil {
		t.Fatalf("expected unauthenticated dial to fail")
	}
}

func TestWebSocketJoinHistoryAndEcho(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, env.wsURL(env.guestToken(t)))
	connB := dialWS(t, ctx, env.wsURL(env.guestToken(t)))

	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "general"})

	// The joining connection gets history, not its own join status.
	var history proto.HistoryData
	if err := json.Unmarshal(readUntil(t, ctx, connA, proto.OutboundTypeHistory), &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.History) != 0 {
		t.Fatalf("expected empty history for fresh room, got %d", len(history.History))
	}

	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "general"})

	// A sees B's arrival.
	var status proto.StatusData
	if err := json.Unmarshal(readUntil(t, ctx, connA, proto.OutboundTypeStatus), &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if !strings.Contains(status.Msg, "joined the room general") {
		t.Fatalf("unexpected status: %q", status.Msg)
	}

	readUntil(t, ctx, connB, proto.OutboundTypeHistory)

	sendInbound(t, ctx, connB, proto.InboundTypeSendMessage, proto.SendMessageData{Content: "hi there"})

	// Both members receive the persisted copy, including the sender.
	for _, conn := range []*websocket.Conn{connA, connB} {
		var msg proto.MessageData
		if err := json.Unmarshal(readUntil(t, ctx, conn, proto.OutboundTypeNewMessage), &msg); err != nil {
			t.Fatalf("unmarshal new_message: %v", err)
		}
		if msg.Content != "hi there" || msg.UserID == 0 {
			t.Fatalf("unexpected message payload: %+v", msg)
		}
		if _, err := time.Parse(time.RFC3339, msg.Timestamp); err != nil {
			t.Fatalf("expected RFC3339 timestamp, got %q", msg.Timestamp)
		}
	}
}

func TestWebSocketRejectsOversizedMessage(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, env.wsURL(env.guestToken(t)))
	sendInbound(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "general"})
	readUntil(t, ctx, conn, proto.OutboundTypeHistory)

	sendInbound(t, ctx, conn, proto.InboundTypeSendMessage,
		proto.SendMessageData{Content: strings.Repeat("x", 501)})

	var errData proto.ErrorData
	if err := json.Unmarshal(readUntil(t, ctx, conn, proto.OutboundTypeError), &errData); err != nil {
		t.Fatalf("unmarshal error_message: %v", err)
	}
	if !strings.Contains(errData.Msg, "500") {
		t.Fatalf("unexpected error payload: %q", errData.Msg)
	}
}

func TestWebSocketTypingStatusExcludesSender(t *testing.T) {
	env := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, env.wsURL(env.guestToken(t)))
	connB := dialWS(t, ctx, env.wsURL(env.guestToken(t)))

	sendInbound(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "general"})
	readUntil(t, ctx, connA, proto.OutboundTypeHistory)
	sendInbound(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "general"})
	readUntil(t, ctx, connB, proto.OutboundTypeHistory)

	sendInbound(t, ctx, connB, proto.InboundTypeStartTyping, nil)
	sendInbound(t, ctx, connB, proto.InboundTypeStartTyping, nil)

	var typing proto.TypingStatusData
	if err := json.Unmarshal(readUntil(t, ctx, connA, proto.OutboundTypeTyping), &typing); err != nil {
		t.Fatalf("unmarshal typing_status: %v", err)
	}
	if !typing.IsTyping || typing.UserName == "" {
		t.Fatalf("unexpected typing payload: %+v", typing)
	}

	sendInbound(t, ctx, connB, proto.InboundTypeStopTyping, nil)

	if err := json.Unmarshal(readUntil(t, ctx, connA, proto.OutboundTypeTyping), &typing); err != nil {
		t.Fatalf("unmarshal typing_status: %v", err)
	}
	if typing.IsTyping {
		t.Fatalf("expected stop-typing edge, got %+v", typing)
	}
}
