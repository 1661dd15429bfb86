package gateway

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ywet290-beep/solid-octo-parakeet/internal/domain"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/constants"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/errors"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/logger"
	"github.com/ywet290-beep/solid-octo-parakeet/pkg/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  constants.ReadBufferSize,
	WriteBufferSize: constants.WriteBufferSize,
	CheckOrigin:     checkOrigin,
}

// checkOrigin allows non-browser clients (no Origin header) and browser
// clients from the configured origin list.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := map[string]bool{
		"http://localhost:3000": true,
		"http://localhost:8080": true,
		"http://127.0.0.1:3000": true,
		"http://127.0.0.1:8080": true,
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			allowed[strings.TrimSpace(o)] = true
		}
	}
	return allowed[origin]
}

// Client is the WebSocket-backed Session. Writes go through a buffered
// channel drained by writePump; Send never blocks the broadcaster.
type Client struct {
	id       string
	identity domain.Identity
	conn     *websocket.Conn
	gateway  *Gateway

	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, identity domain.Identity, g *Gateway) *Client {
	return &Client{
		id:       uuid.New().String(),
		identity: identity,
		conn:     conn,
		gateway:  g,
		send:     make(chan []byte, constants.ClientSendBuffer),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Identity() domain.Identity {
	return c.identity
}

// Send queues a frame for delivery. Returns an error when the queue is
// full or the client is closing; the hub treats that as a slow consumer.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.InternalError("client closed")
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.InternalError("send queue full")
	}
}

// Close stops the writer and the connection exactly once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	return c.conn.Close()
}

// ServeWS authenticates the request and upgrades it to a gateway
// session. The credential comes from the token query parameter or a
// Bearer header.
func ServeWS(g *Gateway, verifier IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := c.Query("token")
		if credential == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				credential = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		identity, err := verifier.Verify(c.Request.Context(), credential)
		if err != nil {
			metrics.GatewayConnectionsTotal.WithLabelValues("rejected").Inc()
			appErr := errors.GetAppError(err)
			c.JSON(appErr.StatusCode, gin.H{"error": appErr.Message})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			metrics.GatewayConnectionsTotal.WithLabelValues("upgrade_failed").Inc()
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newClient(conn, identity, g)
		g.Admit(client)

		go client.writePump()
		go client.readPump()
	}
}

// readPump reads commands until the connection drops, then runs the
// disconnect cascade.
func (c *Client) readPump() {
	defer func() {
		c.gateway.Disconnect(c.id)
		c.Close()
	}()

	c.conn.SetReadLimit(constants.MaxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(constants.WebSocketPongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error",
					zap.String("session_id", c.id),
					zap.Error(err),
				)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError("", errors.InvalidPayloadError("envelope"))
			continue
		}
		c.dispatch(env)
	}
}

// writePump drains the send queue and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(constants.WebSocketPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one command. Handler errors go back to this client as
// an error event; other sessions never see them.
func (c *Client) dispatch(env Envelope) {
	metrics.GatewayCommandsTotal.WithLabelValues(env.Event).Inc()

	var err error
	switch env.Event {
	case CmdJoinRoom:
		var p JoinRoomPayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.JoinRoom(c, p)
		}
	case CmdLeaveRoom:
		var p LeaveRoomPayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.LeaveRoom(c, p)
		}
	case CmdTyping:
		var p TypingPayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.SetTyping(c, p)
		}
	case CmdSendMessage:
		var p SendMessagePayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.SendMessage(c, p)
		}
	case CmdEditMessage:
		var p EditMessagePayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.EditMessage(c, p)
		}
	case CmdDeleteMessage:
		var p DeleteMessagePayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.DeleteMessage(c, p)
		}
	case CmdAddReaction:
		var p AddReactionPayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.AddReaction(c, p)
		}
	case CmdCallUser:
		var p CallUserPayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.CallUser(c, p)
		}
	case CmdAnswerCall:
		var p AnswerCallPayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.AnswerCall(c, p)
		}
	case CmdIceCandidate:
		var p IceCandidatePayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.RelayIceCandidate(c, p)
		}
	case CmdEndCall:
		var p EndCallPayload
		if err = unmarshalPayload(env, &p); err == nil {
			err = c.gateway.EndCall(c, p)
		}
	default:
		err = errors.UnknownCommandError(env.Event)
	}

	if err != nil {
		c.sendError(env.Event, err)
	}
}

func unmarshalPayload(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return errors.InvalidPayloadError(env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return errors.InvalidPayloadError(env.Event)
	}
	return nil
}

func (c *Client) sendError(event string, err error) {
	appErr := errors.GetAppError(err)
	metrics.GatewayCommandErrorsTotal.WithLabelValues(event, string(appErr.Code)).Inc()

	logger.Debug("command rejected",
		zap.String("session_id", c.id),
		zap.String("event", event),
		zap.String("code", string(appErr.Code)),
	)

	c.gateway.Hub().SendTo(c, EventError, ErrorPayload{
		Event:   event,
		Message: appErr.Message,
	})
}
