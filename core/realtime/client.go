package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second
	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second
	// send pings to peer with this period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 1 << 16

	// per-connection outbound queue; a full queue means a slow or stale
	// subscriber and the event is dropped (best-effort push)
	sendQueueSize = 256
)

var (
	errSendQueueFull    = errors.New("send queue full")
	errConnectionClosed = errors.New("connection closed")
)

// Client is a live transport-level session. Its user id is empty until the
// connection authenticates. All outbound delivery goes through a single
// buffered queue drained by one writer goroutine, so a subscriber observes
// events from any single producer in publish order.
type Client struct {
	id   string
	sock *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	userID   string
	username string
	closed   bool

	closeOnce sync.Once
}

func newClient(sock *websocket.Conn) *Client {
	return &Client{
		id:   uuid.New().String(),
		sock: sock,
		send: make(chan []byte, sendQueueSize),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

func (c *Client) setUser(userID, username string) {
	c.mu.Lock()
	c.userID = userID
	c.username = username
	c.mu.Unlock()
}

// Enqueue marshals the event and queues it for delivery. It never blocks:
// when the queue is full the event is dropped and an error returned so the
// caller can log it. Enqueueing on a torn-down connection fails with an
// error instead of panicking; producers holding a stale *Client snapshot
// race with teardown.
func (c *Client) Enqueue(event string, payload interface{}) error {
	data, err := marshalEvent(event, payload)
	if err != nil {
		return errors.Wrap(err, "marshalling event")
	}

	// the read lock excludes shutdown's close of the queue, never other
	// senders; the send below must stay non-blocking
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errConnectionClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendQueueFull
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		if c.sock != nil {
			_ = c.sock.Close()
		}
	})
}

// readPump pumps events from the websocket to the hub's handler table.
// It runs on the connection's single event-processing goroutine.
func (c *Client) readPump(hub *Hub) {
	defer hub.dropClient(c)

	c.sock.SetReadLimit(maxMessageSize)
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			return
		}
		hub.handleEvent(c, data)
	}
}

// writePump drains the send queue to the websocket; the single writer
// preserves enqueue order per subscriber.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if c.sock != nil {
			_ = c.sock.Close()
		}
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
