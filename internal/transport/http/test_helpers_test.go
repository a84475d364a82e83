package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/pavelsokov/talkroom-server/internal/auth"
	"github.com/pavelsokov/talkroom-server/internal/config"
	"github.com/pavelsokov/talkroom-server/internal/core"
	"github.com/pavelsokov/talkroom-server/internal/proto"
	"github.com/pavelsokov/talkroom-server/internal/store/sqlite"
)

type testEnv struct {
	ts   *httptest.Server
	auth *auth.Service
}

func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	logger := zerolog.Nop()
	hub := core.NewHub(st, core.DefaultHistoryLimit, &logger)

	server := NewServer(hub, authService, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, auth: authService}
}

func (e *testEnv) wsURL(token string) string {
	url := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func (e *testEnv) guestToken(t *testing.T) string {
	t.Helper()

	token, _, err := e.auth.CreateGuestUser(context.Background())
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	return token
}

func dialWS(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, eventType string, data any) {
	t.Helper()

	var payload json.RawMessage
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s payload: %v", eventType, err)
		}
		payload = raw
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: eventType, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", eventType, err)
	}
}

// readUntil reads outbound frames until one of the wanted type arrives,
// failing the test on anything the deadline catches first.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, wantType string) json.RawMessage {
	t.Helper()

	for {
		var outbound struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			t.Fatalf("read while waiting for %s: %v", wantType, err)
		}
		if outbound.Type == wantType {
			return outbound.Data
		}
	}
}
