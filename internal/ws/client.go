package ws

import (
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	sendQueueDepth = 16
)

// Client wraps a websocket connection with a buffered outbound queue. A
// dedicated write pump owns the connection for writes, so the hub never
// blocks on a slow peer; a stalled TCP window surfaces as a full queue or a
// missed write deadline, not a wedged broadcast loop.
type Client struct {
	conn  *websocket.Conn
	log   *slog.Logger
	queue chan []byte
	done  chan struct{}
	once  sync.Once
}

// NewClient constructs a client wrapper and starts its write pump.
func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	c := &Client{
		conn:  conn,
		log:   logger,
		queue: make(chan []byte, sendQueueDepth),
		done:  make(chan struct{}),
	}
	go c.writePump()
	return c
}

// Send queues payload for delivery without blocking. A false return means
// the client is closed or cannot keep up; the caller should drop it.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.queue <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.queue:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Warn("websocket send failed", "error", err)
				c.Close()
				return
			}
		}
	}
}

// Close terminates the connection and stops the write pump. Safe to call
// more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
