package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"pairpad/internal/collab"
	"pairpad/internal/ratelimit"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	messagesPerSecond = 100
	messageBurst      = 200
)

var (
	ErrBackpressure = errors.New("send buffer full")
	errConnClosed   = errors.New("connection closed")
)

// Client wraps one websocket connection. Its buffered send channel is the
// per-recipient FIFO queue the broadcast dispatcher enqueues into; the
// write pump is the only goroutine touching the socket for writes.
type Client struct {
	conn        *websocket.Conn
	send        chan []byte
	roomID      string
	session     *collab.Session
	rateLimiter *ratelimit.Limiter

	mu     sync.RWMutex
	closed bool
}

func newClient(conn *websocket.Conn, roomID string) *Client {
	return &Client{
		conn:        conn,
		send:        make(chan []byte, 512),
		roomID:      roomID,
		rateLimiter: ratelimit.NewLimiter(messagesPerSecond, messageBurst),
	}
}

// Send enqueues a frame without blocking. It satisfies collab.Conn; an
// error tells the registry this connection is dead.
func (c *Client) Send(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.conn.Close()
}

func (c *Client) readPump(h *Handler) {
	defer func() {
		c.Close()
		h.disconnect(c)
	}()

	c.conn.SetReadLimit(h.readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	rateLimitWarnings := 0

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Str("module", "ws").Str("room", c.roomID).Err(err).Msg("read error")
			}
			break
		}

		if !c.rateLimiter.Allow() {
			rateLimitWarnings++
			if rateLimitWarnings%100 == 1 {
				log.Warn().Str("module", "ws").Str("room", c.roomID).Str("user", c.session.UserID).Int("warnings", rateLimitWarnings).Msg("rate limit exceeded")
			}
			if rateLimitWarnings > 1000 {
				log.Warn().Str("module", "ws").Str("user", c.session.UserID).Msg("disconnecting client for excessive rate limit violations")
				return
			}
			continue
		}

		h.route(c, message)
	}
}

func (c *Client) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
