package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/corvek/teamboard-backend/internal/core/domain"
	apperrors "github.com/corvek/teamboard-backend/internal/core/errors"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound buffer per connection. A member whose buffer is full
	// simply misses events (best-effort delivery).
	sendBufferSize = 256
)

// WebSocket close codes used during the handshake.
const (
	CloseAuthRequired   = 4001
	CloseInvalidSession = 4003
	CloseSetupFailure   = 4500
)

// Client pumps frames between one websocket and the dispatcher. It is
// the Sender behind the connection's registry record: Send queues onto
// a buffered channel drained by WritePump, so a slow recipient can
// never stall a broadcast.
type Client struct {
	conn       *websocket.Conn
	send       chan domain.Event
	done       chan struct{}
	closeOnce  sync.Once
	dispatcher *Dispatcher
	logger     *slog.Logger

	// Connection is the registry record backed by this socket.
	Connection *Connection
}

// NewClient wraps an upgraded websocket for an authenticated session and
// builds its registry record.
func NewClient(conn *websocket.Conn, session *domain.Session, dispatcher *Dispatcher, logger *slog.Logger) *Client {
	c := &Client{
		conn:       conn,
		send:       make(chan domain.Event, sendBufferSize),
		done:       make(chan struct{}),
		dispatcher: dispatcher,
	}
	c.Connection = NewConnection(session.UserID, session.Email, c)
	c.logger = logger.With(
		"connection_id", c.Connection.ID,
		"user_id", session.UserID.String(),
	)
	return c
}

// Send queues an event for delivery. Never blocks: a full buffer or a
// closed connection reports an error and the event is dropped for this
// recipient.
func (c *Client) Send(event domain.Event) error {
	select {
	case <-c.done:
		return apperrors.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- event:
		return nil
	case <-c.done:
		return apperrors.ErrConnectionClosed
	default:
		return apperrors.ErrSendBufferFull
	}
}

// Close tears the socket down exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// ReadPump pumps inbound frames to the dispatcher. Runs in its own
// goroutine; returning means the transport is gone, which triggers the
// disconnect cleanup (offline broadcasts + unregister).
func (c *Client) ReadPump() {
	defer func() {
		c.dispatcher.HandleDisconnect(c.Connection)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		c.dispatcher.HandleMessage(c.Connection, message)
	}
}

// WritePump drains the send buffer onto the socket and keeps the
// connection alive with periodic pings. Runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case event := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}
			if err := c.writeJSON(event); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
				c.logger.Debug("failed to send close message", "error", err)
			}
			return
		}
	}
}

// writeJSON writes one event as a text frame.
func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// CloseWithCode writes a close control frame with the given application
// close code and shuts the socket. Used for handshake rejections, where
// the code is the only signal the browser client gets.
func CloseWithCode(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.Close()
}
