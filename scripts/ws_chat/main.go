package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/pavelsokov/talkroom-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT token (from /api/login or /api/guest)")
	room := flag.String("room", "general", "room to join")
	flag.Parse()

	if *token == "" {
		return errors.New("missing -token; obtain one via /api/guest")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr+"?token="+*token, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, err := json.Marshal(proto.JoinData{Room: *room})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin, Data: joinPayload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s, room %s\n", *addr, *room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch outbound.Type {
		case proto.OutboundTypeNewMessage:
			var evt proto.MessageData
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal new_message: %v", err)
				continue
			}
			fmt.Printf("[%s] %s: %s\n", evt.Timestamp, evt.UserName, evt.Content)
		case proto.OutboundTypeStatus:
			var evt proto.StatusData
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal status_message: %v", err)
				continue
			}
			fmt.Printf("* %s\n", evt.Msg)
		case proto.OutboundTypeHistory:
			var evt proto.HistoryData
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal message_history: %v", err)
				continue
			}
			for _, msg := range evt.History {
				fmt.Printf("[%s] %s: %s\n", msg.Timestamp, msg.UserName, msg.Content)
			}
		case proto.OutboundTypeTyping:
			var evt proto.TypingStatusData
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal typing_status: %v", err)
				continue
			}
			if evt.IsTyping {
				fmt.Printf("* %s is typing...\n", evt.UserName)
			}
		case proto.OutboundTypeError:
			var evt proto.ErrorData
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				log.Printf("unmarshal error_message: %v", err)
				continue
			}
			fmt.Printf("! %s\n", evt.Msg)
		default:
			fmt.Printf("type=%s data=%s\n", outbound.Type, outbound.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			payload, err := json.Marshal(proto.SendMessageData{Content: text})
			if err != nil {
				log.Printf("marshal send_message: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
