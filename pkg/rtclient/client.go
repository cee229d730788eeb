// Package rtclient is a Go client for the realtime collaboration
// endpoint. It owns one logical connection per subscription target,
// re-establishes it on drop with capped exponential backoff, and
// re-subscribes on every successful connect.
package rtclient

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/corvek/teamboard-backend/internal/core/domain"
)

const (
	// maxReconnectAttempts bounds consecutive failed connects before the
	// controller gives up. Recovers from transient blips without
	// hammering a server that is down for an extended period.
	maxReconnectAttempts = 5

	baseReconnectDelay = time.Second
	maxReconnectDelay  = 10 * time.Second

	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// ErrControllerClosed is returned by Connect after Close.
var ErrControllerClosed = errors.New("rtclient: controller closed")

// subscribeActivityStream asks the server to include this connection in
// the workspace activity feed. Sent after join-workspace on every
// (re)connect.
const subscribeActivityStream = "workspace-activity-stream"

// Options configures a Controller.
type Options struct {
	// URL is the websocket endpoint, e.g. wss://host/api/v1/ws.
	URL string

	// Token is the bearer token appended as the token query parameter.
	Token string

	// WorkspaceID is joined automatically on every successful connect.
	WorkspaceID string

	// OnEvent receives every decoded server event. Called from the read
	// goroutine; implementations must not block.
	OnEvent func(domain.Event)

	// OnDown is called once when the controller exhausts its reconnect
	// attempts. Optional.
	OnDown func()

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	Logger *slog.Logger
}

// Controller maintains one websocket connection to the realtime
// endpoint, transparently reconnecting on drop.
type Controller struct {
	opts   Options
	dialer *websocket.Dialer
	logger *slog.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	timer    *time.Timer
	attempts int
	closed   bool
}

// NewController creates a controller. Connect must be called to open
// the connection.
func NewController(opts Options) *Controller {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		opts:   opts,
		dialer: dialer,
		logger: logger.With("component", "rtclient"),
	}
}

// Connect opens the socket, sends the join and subscribe events, and
// starts the read loop. A successful connect resets the reconnect
// attempt counter.
func (c *Controller) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	c.mu.Unlock()

	conn, resp, err := c.dialer.Dial(c.socketURL(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.logger.Warn("connect failed", "error", err)
		c.scheduleReconnect()
		return err
	}

	if err := c.subscribe(conn); err != nil {
		_ = conn.Close()
		c.logger.Warn("subscribe failed", "error", err)
		c.scheduleReconnect()
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrControllerClosed
	}
	c.conn = conn
	c.attempts = 0
	c.mu.Unlock()

	c.logger.Info("connected", "workspace_id", c.opts.WorkspaceID)
	go c.readLoop(conn)
	return nil
}

// Close tears the controller down: any pending reconnect timer is
// cancelled and the socket closed. No timers or sockets survive a Close.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// socketURL appends the auth token to the configured endpoint.
func (c *Controller) socketURL() string {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return c.opts.URL
	}
	q := u.Query()
	q.Set("token", c.opts.Token)
	u.RawQuery = q.Encode()
	return u.String()
}

// subscribe sends join-workspace followed by the activity stream
// subscribe event.
func (c *Controller) subscribe(conn *websocket.Conn) error {
	join := domain.NewEvent(domain.EventJoinWorkspace, domain.JoinWorkspacePayload{
		WorkspaceID: c.opts.WorkspaceID,
	})
	if err := c.writeEvent(conn, join); err != nil {
		return err
	}

	stream := domain.Event{
		Type:      domain.EventType(subscribeActivityStream),
		Payload:   domain.JoinWorkspacePayload{WorkspaceID: c.opts.WorkspaceID},
		Timestamp: time.Now().UnixMilli(),
	}
	return c.writeEvent(conn, stream)
}

func (c *Controller) writeEvent(conn *websocket.Conn, event domain.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(event)
}

// readLoop decodes server events until the socket drops, then hands off
// to the reconnect scheduler.
func (c *Controller) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stillCurrent := c.conn == conn
			if stillCurrent {
				c.conn = nil
			}
			closed := c.closed
			c.mu.Unlock()

			if closed || !stillCurrent {
				return
			}

			c.logger.Warn("connection dropped", "error", err)
			c.scheduleReconnect()
			return
		}

		var event domain.Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.logger.Warn("discarding malformed server frame", "error", err)
			continue
		}
		if c.opts.OnEvent != nil {
			c.opts.OnEvent(event)
		}
	}
}

// scheduleReconnect arms a timer for the next attempt, or gives up
// after the attempt cap is reached.
func (c *Controller) scheduleReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.attempts >= maxReconnectAttempts {
		c.mu.Unlock()
		c.logger.Error("giving up after repeated reconnect failures",
			"attempts", maxReconnectAttempts,
		)
		if c.opts.OnDown != nil {
			c.opts.OnDown()
		}
		return
	}

	delay := ReconnectDelay(c.attempts)
	c.attempts++
	c.timer = time.AfterFunc(delay, func() {
		_ = c.Connect()
	})
	c.mu.Unlock()

	c.logger.Info("reconnect scheduled", "delay", delay)
}

// ReconnectDelay returns the backoff before retry number attempt
// (zero-based): 1s, 2s, 4s, 8s, then capped at 10s.
func ReconnectDelay(attempt int) time.Duration {
	delay := baseReconnectDelay << attempt
	if delay > maxReconnectDelay || delay <= 0 {
		return maxReconnectDelay
	}
	return delay
}

// Attempts reports the current consecutive failure count.
func (c *Controller) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// IsConnected reports whether a live socket is currently held.
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}
