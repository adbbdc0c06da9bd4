package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-room-client/internal/dto"
)

// EventChannel is a persistent bidirectional event stream scoped to one
// room. Exactly one consumer drains Events and States.
type EventChannel interface {
	Open(ctx context.Context) error
	Send(ev dto.Event) error
	Events() <-chan dto.Event
	States() <-chan StateChange
	Close() error
}

// ChannelOptions tunes the websocket connection. Zero values fall back to
// the defaults below.
type ChannelOptions struct {
	PingInterval         time.Duration
	WriteTimeout         time.Duration
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int
	EventBuffer          int
}

const (
	defaultPingInterval       = 30 * time.Second
	defaultWriteTimeout       = 10 * time.Second
	defaultReconnectBaseDelay = 500 * time.Millisecond
	defaultReconnectMaxDelay  = 15 * time.Second
	defaultMaxReconnects      = 5
	defaultEventBuffer        = 32
)

func (o ChannelOptions) withDefaults() ChannelOptions {
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	if o.ReconnectBaseDelay <= 0 {
		o.ReconnectBaseDelay = defaultReconnectBaseDelay
	}
	if o.ReconnectMaxDelay <= 0 {
		o.ReconnectMaxDelay = defaultReconnectMaxDelay
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = defaultMaxReconnects
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = defaultEventBuffer
	}
	return o
}

// Channel maintains exactly one live websocket connection per room per
// session. Inbound frames are decoded into dto.Event values and delivered
// on Events in server order; connection lifecycle transitions are
// delivered on States. On failure the channel redials with exponential
// backoff up to MaxReconnectAttempts, then parks in StateFailed.
type Channel struct {
	url    string
	opts   ChannelOptions
	dialer *websocket.Dialer

	events chan dto.Event
	states chan StateChange
	done   chan struct{}

	closeOnce sync.Once
	opened    bool

	mu       sync.Mutex
	conn     *websocket.Conn
	isClosed bool
}

// NewChannel builds a channel against baseURL. http(s) schemes are
// rewritten to ws(s). The room id and local identity are carried as
// connection metadata; they are the three options the server side
// recognizes to identify a subscriber.
func NewChannel(baseURL, roomID string, user User, opts ChannelOptions) (*Channel, error) {
	endpoint, err := channelURL(baseURL)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("roomId", roomID)
	q.Set("userId", user.ID)
	q.Set("username", user.Name)

	opts = opts.withDefaults()
	return &Channel{
		url:    endpoint + "?" + q.Encode(),
		opts:   opts,
		dialer: websocket.DefaultDialer,
		events: make(chan dto.Event, opts.EventBuffer),
		states: make(chan StateChange, 16),
		done:   make(chan struct{}),
	}, nil
}

// Open starts the connection supervisor. Dial results and every later
// transition are reported through States; Open itself only fails when the
// channel was already opened or closed.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return newError(ErrorCodeDisconnected, "channel already closed", nil)
	}
	if c.opened {
		return newError(ErrorCodeValidation, "channel already opened", nil)
	}
	c.opened = true

	go c.supervise(ctx)
	return nil
}

func (c *Channel) Events() <-chan dto.Event {
	return c.events
}

func (c *Channel) States() <-chan StateChange {
	return c.states
}

// Send transmits a client-originated event. A failure here means delivery
// is uncertain, not certainly lost: the frame may have reached the server
// before the error surfaced.
func (c *Channel) Send(ev dto.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed || c.conn == nil {
		return newError(ErrorCodeSendUncertain, "channel not connected", nil)
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err := c.conn.WriteJSON(ev); err != nil {
		return newError(ErrorCodeSendUncertain, "channel write failed", err)
	}
	return nil
}

// Close releases the connection and stops event delivery. Safe to call on
// every exit path and any number of times.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		c.isClosed = true
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
	})
	return nil
}

// supervise owns the dial/redial loop. States flow
// Connecting -> Connected -> Disconnected -> Reconnecting -> Connecting
// until the retry budget runs out, which parks the channel in Failed.
func (c *Channel) supervise(ctx context.Context) {
	attempts := 0
	for {
		c.pushState(StateConnecting, nil)

		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if c.stopped(ctx) {
				return
			}
			attempts++
			if attempts > c.opts.MaxReconnectAttempts {
				c.pushState(StateFailed, newError(ErrorCodeConnectionFailed, "reconnect attempts exhausted", err))
				return
			}
			c.pushState(StateReconnecting, newError(ErrorCodeConnectionFailed, "channel dial failed", err))
			incReconnects()
			if !c.sleep(ctx, backoffDelay(attempts, c.opts.ReconnectBaseDelay, c.opts.ReconnectMaxDelay)) {
				return
			}
			continue
		}

		attempts = 0
		c.mu.Lock()
		if c.isClosed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()
		c.pushState(StateConnected, nil)

		connDone := make(chan struct{})
		go c.keepAlive(conn, connDone)
		readErr := c.readPump(ctx, conn)
		close(connDone)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()

		if c.stopped(ctx) {
			return
		}
		c.pushState(StateDisconnected, newError(ErrorCodeDisconnected, "channel connection lost", readErr))

		attempts++
		if attempts > c.opts.MaxReconnectAttempts {
			c.pushState(StateFailed, newError(ErrorCodeConnectionFailed, "reconnect attempts exhausted", readErr))
			return
		}
		c.pushState(StateReconnecting, nil)
		incReconnects()
		if !c.sleep(ctx, backoffDelay(attempts, c.opts.ReconnectBaseDelay, c.opts.ReconnectMaxDelay)) {
			return
		}
	}
}

// readPump decodes inbound frames until the connection dies. Unknown
// event types are ignored, not fatal.
func (c *Channel) readPump(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(512 * 1024)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if closeErr, ok := err.(*websocket.CloseError); ok {
				if closeErr.Code == websocket.CloseNormalClosure ||
					closeErr.Code == websocket.CloseGoingAway ||
					closeErr.Code == websocket.CloseNoStatusReceived {
					return nil
				}
			}
			return err
		}

		var ev dto.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			log.Printf("channel: dropping undecodable frame: %v", err)
			continue
		}
		if ev.Type == "" {
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Channel) keepAlive(conn *websocket.Conn, connDone chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-connDone:
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.isClosed || c.conn != conn {
				c.mu.Unlock()
				return
			}
			conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.mu.Unlock()

			if err != nil {
				log.Printf("channel: ping failed: %v", err)
				return
			}
		}
	}
}

func (c *Channel) pushState(s ConnectionState, err error) {
	select {
	case c.states <- StateChange{State: s, Err: err}:
	case <-c.done:
	}
}

func (c *Channel) stopped(ctx context.Context) bool {
	select {
	case <-c.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (c *Channel) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// backoffDelay doubles per attempt from base, capped at max.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

var _ EventChannel = (*Channel)(nil)

func channelURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("channel: parse base url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("channel: unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}
