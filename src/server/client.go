package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	maxMessageSize = 64 * 1024
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client is one websocket connection. The rooms set is owned by the hub and
// only mutated under the hub mutex. The send channel is never closed: shutdown
// is signalled through done so a reply racing an eviction cannot panic the
// process.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan interface{}

	done     chan struct{}
	stopOnce sync.Once

	rooms    map[string]struct{}
	lastSeen atomic.Int64
}

// -----------------------------------------------------------------------------

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send:  make(chan interface{}, hub.Config.SendBufferSize),
		done:  make(chan struct{}),
		rooms: make(map[string]struct{}),
	}
	c.lastSeen.Store(time.Now().Unix())
	return c
}

// -----------------------------------------------------------------------------

// Deliver enqueues a message without blocking. Returns false when the client
// is shut down or the send buffer is full so the hub can evict the slow
// consumer. Safe to call after eviction.
func (c *Client) Deliver(message interface{}) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------

// shutdown tells the write pump to close the connection. Idempotent.
func (c *Client) shutdown() {
	c.stopOnce.Do(func() { close(c.done) })
}

// -----------------------------------------------------------------------------

// LastSeen returns the unix time of the last inbound activity
func (c *Client) LastSeen() int64 {
	return c.lastSeen.Load()
}

// -----------------------------------------------------------------------------

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().Unix())
}

// -----------------------------------------------------------------------------

// CloseConn closes the underlying connection. Nil-safe so hub logic stays
// testable without a real socket.
func (c *Client) CloseConn() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	staleWait := time.Duration(c.hub.Config.StaleSeconds) * time.Second

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(staleWait))
	c.conn.SetPongHandler(func(string) error {
		c.touch()
		c.conn.SetReadDeadline(time.Now().Add(staleWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error on %s: %v", c.ID, err)
			}
			break
		}

		c.touch()
		c.conn.SetReadDeadline(time.Now().Add(staleWait))

		if c.hub.handler != nil {
			c.hub.handler.HandleClientMessage(c, message)
		}
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	pingPeriod := time.Duration(c.hub.Config.HeartbeatSeconds) * time.Second

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			// Hub evicted the client
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Write error on %s: %v", c.ID, err)
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
