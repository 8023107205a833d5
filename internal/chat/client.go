package chat

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait   = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod = (pongWait * 9) / 10 // Must be less than pongWait.
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	addr           string
	maxMessageSize int64

	mu     sync.Mutex
	send   chan []byte // Buffered channel of outbound frames.
	closed bool
}

// NewClient builds a client with an outbound queue of bufferSize frames.
// conn may be nil when the client is driven directly through the hub.
func NewClient(hub *Hub, conn *websocket.Conn, addr string, bufferSize int, maxMessageSize int64) *Client {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Client{
		hub:            hub,
		conn:           conn,
		addr:           addr,
		maxMessageSize: maxMessageSize,
		send:           make(chan []byte, bufferSize),
	}
}

func (c *Client) Addr() string { return c.addr }

// Outbox exposes the outbound queue. It is closed when the client is dropped.
func (c *Client) Outbox() <-chan []byte { return c.send }

// Open reports whether frames can still be queued for this client.
func (c *Client) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// trySend queues a frame without blocking. It returns false when the client is
// closed or its queue is full.
func (c *Client) trySend(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// shutdown marks the client closed and closes its queue so the write pump exits.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump pumps frames from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		// If the connection dies, tell the hub to unregister.
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	if c.maxMessageSize > 0 {
		c.conn.SetReadLimit(c.maxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if !c.hub.Submit(c, frame) {
			return
		}
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.hub.log.Warn("Frame exceeded maximum size", "addr", c.addr, "limit", c.maxMessageSize)
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		c.hub.log.Warn("Unexpected websocket close", "addr", c.addr, "error", err)
	default:
		c.hub.log.Debug("Websocket read ended", "addr", c.addr, "error", err)
	}
}

// WritePump pumps frames from the hub to the websocket connection, one frame per message.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the queue.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !isExpectedCloseError(err) {
					c.hub.log.Warn("Websocket write failed", "addr", c.addr, "error", err)
				}
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, websocket.ErrCloseSent) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe")
}
