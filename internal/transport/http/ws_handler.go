package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatwave/chatwave-server/internal/admission"
	"github.com/chatwave/chatwave-server/internal/auth"
	"github.com/chatwave/chatwave-server/internal/fanout"
	"github.com/chatwave/chatwave-server/internal/presence"
	"github.com/chatwave/chatwave-server/internal/proto"
	"github.com/chatwave/chatwave-server/internal/utils"
)

// eventBuffer bounds the per-connection outbound queue. A slow consumer
// that fills it gets events dropped, never blocks the dispatcher.
const eventBuffer = 64

// wsClient is one websocket connection registered for event delivery.
type wsClient struct {
	id     string
	userID string
	events chan proto.Outbound
}

func newWSClient(userID string) *wsClient {
	return &wsClient{
		id:     utils.NewID(),
		userID: userID,
		events: make(chan proto.Outbound, eventBuffer),
	}
}

// Send enqueues an event without blocking. Returns false when the
// connection's buffer is full and the event was dropped.
func (c *wsClient) Send(event string, payload any) bool {
	select {
	case c.events <- proto.Outbound{Event: event, Data: payload}:
		return true
	default:
		return false
	}
}

// WSHandler upgrades HTTP connections into the push channel.
type WSHandler struct {
	registry   *presence.Registry
	dispatcher *fanout.Dispatcher
	auth       *auth.Service
	admission  *admission.Controller
	log        *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(registry *presence.Registry, dispatcher *fanout.Dispatcher, authService *auth.Service, ctrl *admission.Controller, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		registry:   registry,
		dispatcher: dispatcher,
		auth:       authService,
		admission:  ctrl,
		log:        logger,
	}
}

// Handle authenticates the handshake via the token query parameter, then
// serves the connection until either side closes.
// GET /ws?token=<jwt>
func (h *WSHandler) Handle(c *gin.Context) {
	if res := h.admission.Check(admission.ClassConnect, c.ClientIP()); !res.Allowed {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
		return
	}

	claims, err := h.auth.ValidateToken(c.Query("token"))
	if err != nil {
		h.log.Debug().Err(err).Msg("ws handshake with invalid token")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := newWSClient(claims.UserID)
	h.registry.Register(client.userID, client)
	h.broadcastPresence()
	defer func() {
		h.registry.Unregister(client)
		h.broadcastPresence()
	}()

	h.log.Info().Str("user_id", client.userID).Str("client_id", client.id).Msg("ws connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn)
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
			h.log.Warn().Err(err).Str("user_id", client.userID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// broadcastPresence pushes the full online-user snapshot to every
// connection. Always the whole list, never a delta.
func (h *WSHandler) broadcastPresence() {
	h.dispatcher.Broadcast(proto.EventOnlineUsers, h.registry.OnlineUserIDs())
}

// readLoop drains inbound frames. Mutations travel over the REST API; the
// socket is push-only, so anything the client writes is discarded.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *wsClient) error {
	for {
		select {
		case event := <-client.events:
			if err := wsjson.Write(ctx, conn, event); err != nil {
				h.log.Error().Err(err).Str("client_id", client.id).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
