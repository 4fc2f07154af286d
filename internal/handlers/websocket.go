package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"tictactoe-server/internal/audit"
	"tictactoe-server/internal/connection"
	"tictactoe-server/internal/models"
	"tictactoe-server/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
	eventTimeout   = 10 * time.Second
)

var (
	errClientClosed     = errors.New("client closed")
	errSendBufferFull   = errors.New("send buffer full")
	errUnknownEvent     = errors.New("unknown event")
	errMalformedMessage = errors.New("malformed message")
)

// GameEvents is the set of operations a client can trigger.
type GameEvents interface {
	Connect(ctx context.Context, token string, sender connection.Sender) (*connection.Connection, error)
	Disconnect(sessionID string)
	Search(ctx context.Context, sessionID string) error
	Move(ctx context.Context, sessionID string, gameID, x, y int) error
	Chat(sessionID string, gameID int, text string) error
}

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type WebSocketHandler struct {
	events   GameEvents
	upgrader websocket.Upgrader
	audit    *audit.Logger
	log      zerolog.Logger
}

func NewWebSocketHandler(events GameEvents, auditLog *audit.Logger, log zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		events: events,
		audit:  auditLog,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins; identity comes from the token
			},
		},
		log: log.With().Str("component", "websocket").Logger(),
	}
}

// Client is one WebSocket connection. Outbound frames go through a buffered
// channel drained by writePump; inbound frames are handled in order by
// readPump.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	log  zerolog.Logger
}

func newClient(conn *websocket.Conn, log zerolog.Logger) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
		log:  log,
	}
}

// Emit queues an event for delivery. A client that cannot keep up is closed.
func (c *Client) Emit(event string, payload any) error {
	data, err := json.Marshal(outboundEnvelope{Event: event, Data: payload})
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.log.Warn().Str("event", event).Msg("send buffer full, closing client")
		c.Close()
		return errSendBufferFull
	}
}

// Close stops the client after flushing queued frames. Safe to call more than
// once.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				c.Close()
				return
			}

		case <-c.done:
			c.flush()
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (c *Client) flush() {
	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// HandleWebSocket upgrades the request, resolves the caller's identity and
// starts the client pumps. Browsers cannot set headers on a WebSocket
// handshake, so the token may also come from the "token" query parameter.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(conn, h.log)
	go client.writePump()

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	registered, err := h.events.Connect(ctx, token, client)
	if err != nil {
		h.log.Info().Err(err).Str("remote", r.RemoteAddr).Msg("rejected websocket client")
		if errors.Is(err, services.ErrIdentity) {
			h.audit.LogEvent(r, audit.EventIdentityRejected, "", err.Error())
		}
		client.Emit(models.EventError, models.ErrorMessage{Error: services.ClientMessage(err)})
		client.Close()
		return
	}

	go h.readPump(client, registered.SessionID)
}

func (h *WebSocketHandler) readPump(c *Client, sessionID string) {
	defer func() {
		h.events.Disconnect(sessionID)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket read error")
			}
			return
		}
		h.dispatch(c, sessionID, data)
	}
}

func (h *WebSocketHandler) dispatch(c *Client, sessionID string, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.reply(c, errMalformedMessage)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	var err error
	switch env.Event {
	case models.EventSearch:
		err = h.events.Search(ctx, sessionID)

	case models.EventGameMove:
		var move models.MakeMove
		if uerr := json.Unmarshal(env.Data, &move); uerr != nil {
			err = errMalformedMessage
			break
		}
		err = h.events.Move(ctx, sessionID, move.GameID, move.X, move.Y)

	case models.EventGameMessage:
		var msg models.InGameMessage
		if uerr := json.Unmarshal(env.Data, &msg); uerr != nil {
			err = errMalformedMessage
			break
		}
		err = h.events.Chat(sessionID, msg.GameID, msg.Message)

	default:
		err = errUnknownEvent
	}

	if err != nil {
		if errors.Is(err, services.ErrPersistence) {
			c.log.Error().Err(err).Str("session_id", sessionID).Str("event", env.Event).Msg("event failed")
		} else {
			c.log.Debug().Err(err).Str("session_id", sessionID).Str("event", env.Event).Msg("event rejected")
		}
		h.reply(c, err)
	}
}

func (h *WebSocketHandler) reply(c *Client, err error) {
	message := services.ClientMessage(err)
	if errors.Is(err, errUnknownEvent) || errors.Is(err, errMalformedMessage) {
		message = err.Error()
	}
	c.Emit(models.EventError, models.ErrorMessage{Error: message})
}
