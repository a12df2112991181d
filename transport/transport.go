// Package transport carries the duplex named-action channel between a
// client and the authoritative server over a websocket. Outbound sends are
// fire-and-forget; inbound broadcasts are delivered to a handler on a
// single goroutine, preserving per-connection ordering.
package transport

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kselvad/scoregrid/logger"
	"github.com/kselvad/scoregrid/types"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
)

// Handler receives one inbound broadcast.
type Handler func(action string, payload json.RawMessage)

// Conn is the client side of the duplex channel. It reconnects
// automatically with exponential backoff; after a reconnect the server
// reissues app/ready and the full bulk loads, so no replay buffer is kept.
type Conn struct {
	cfg     Config
	logger  logger.Logger
	handler Handler

	mu sync.Mutex
	ws *websocket.Conn

	sendCh chan types.Envelope
	done   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup
}

// Dial connects to the server and starts the read and write pumps. The
// initial connection failure is returned synchronously; later drops are
// healed in the background.
func Dial(cfg Config, handler Handler) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}

	c := &Conn{
		cfg:     cfg,
		logger:  cfg.Logger.WithComponent("transport"),
		handler: handler,
		sendCh:  make(chan types.Envelope, cfg.SendQueueSize),
		done:    make(chan struct{}),
	}

	if err := c.dialOnce(); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Perform sends one named action with a payload. It never blocks on the
// network: the envelope is queued and written by the write pump. A full
// queue or a closed connection returns an error; the protocol recovers by
// re-synchronizing after reconnect.
func (c *Conn) Perform(action string, payload any) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", action, err)
	}
	select {
	case c.sendCh <- types.Envelope{Action: action, Payload: raw}:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts the connection down and waits for the pumps to exit.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrConnClosed
	}
	close(c.done)

	c.mu.Lock()
	if c.ws != nil {
		c.ws.Close()
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Conn) dialOnce() error {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	ws, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()
	return nil
}

func (c *Conn) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws
}

// readPump reads broadcasts and dispatches them in order. On a broken
// connection it reconnects with exponential backoff and keeps reading.
func (c *Conn) readPump() {
	defer c.wg.Done()

	for {
		ws := c.current()
		var env types.Envelope
		if err := ws.ReadJSON(&env); err != nil {
			if c.closed.Load() {
				return
			}
			c.logger.Warnw("connection lost", "error", err)
			if !c.reconnect() {
				return
			}
			continue
		}
		c.handler(env.Action, env.Payload)
	}
}

// reconnect re-dials until it succeeds or the connection is closed.
func (c *Conn) reconnect() bool {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.ReconnectMinWait
	b.MaxInterval = c.cfg.ReconnectMaxWait
	b.MaxElapsedTime = 0 // retry until closed

	for {
		wait := b.NextBackOff()
		c.logger.Infow("reconnecting", "wait", wait)
		select {
		case <-time.After(wait):
		case <-c.done:
			return false
		}
		if err := c.dialOnce(); err != nil {
			c.logger.Warnw("reconnect failed", "error", err)
			continue
		}
		c.logger.Infow("reconnected", "url", c.cfg.URL)
		return true
	}
}

// writePump drains the send queue onto the current socket. A failed write
// is dropped: the authoritative state is restored wholesale on reconnect.
func (c *Conn) writePump() {
	defer c.wg.Done()

	for {
		select {
		case env := <-c.sendCh:
			ws := c.current()
			ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := ws.WriteJSON(env); err != nil {
				c.logger.Warnw("dropped outbound action", "action", env.Action, "error", err)
			}
		case <-c.done:
			return
		}
	}
}
