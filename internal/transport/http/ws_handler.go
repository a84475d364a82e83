package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pavelsokov/talkroom-server/internal/auth"
	"github.com/pavelsokov/talkroom-server/internal/core"
	"github.com/pavelsokov/talkroom-server/internal/proto"
	"github.com/pavelsokov/talkroom-server/internal/store"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
// The handshake resolves the caller's identity; everything past it works
// with the bound (user_id, display_name) and never consults session state.
type WSHandler struct {
	hub   *core.Hub
	auth  *auth.Service
	users store.UserStore
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, users store.UserStore, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, auth: authService, users: users, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	claims, err := h.resolveIdentity(r)
	if err != nil {
		h.log.Debug().Err(err).Msg("unauthenticated ws connect refused")
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := h.buildClient(ctx, claims)
	h.hub.Connect(client)
	defer h.hub.Disconnect(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// resolveIdentity validates the JWT carried in the Authorization header
// or the token query parameter (browsers cannot set ws headers).
func (h *WSHandler) resolveIdentity(r *stdhttp.Request) (*auth.Claims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			token = after
		}
	}
	if token == "" {
		return nil, errors.New("missing token")
	}
	return h.auth.ValidateToken(token)
}

// buildClient binds the resolved identity to a fresh connection. The
// avatar comes from the user row when available; the claims carry enough
// to proceed if the lookup fails.
func (h *WSHandler) buildClient(ctx context.Context, claims *auth.Claims) *core.Client {
	name := claims.DisplayName
	if name == "" {
		name = claims.Username
	}
	avatar := ""
	if user, err := h.users.GetUserByID(ctx, claims.UserID); err == nil {
		if user.DisplayName != "" {
			name = user.DisplayName
		}
		avatar = user.AvatarURL
	} else {
		h.log.Warn().Err(err).Int64("user_id", claims.UserID).Msg("load user profile for ws connect")
	}
	return core.NewClient(uuid.NewString(), claims.UserID, name, avatar)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}
		h.dispatch(ctx, client, inbound)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(client, event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ConnID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
