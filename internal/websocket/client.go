package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// pingPeriod must stay below pongWait
	pingPeriod = pongWait * 9 / 10

	// Commands are tiny JSON objects
	maxCommandSize = 1024
	sendBuffer     = 64
)

// Actions a client may send
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// Command is an inbound client message, e.g. {"action":"subscribe","eventId":"..."}
type Command struct {
	Action  string `json:"action"`
	EventID string `json:"eventId"`
}

// Client is one socket of a user. It starts on the user's overview and narrows
// to budget events with subscribe commands.
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	hub    *Hub
	logger zerolog.Logger

	mu     sync.RWMutex
	send   chan []byte
	closed bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, userID string, hub *Hub) *Client {
	id := uuid.NewString()
	return &Client{
		id:     id,
		userID: userID,
		conn:   conn,
		hub:    hub,
		logger: log.With().Str("client_id", id).Str("user_id", userID).Logger(),
		send:   make(chan []byte, sendBuffer),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string { return c.id }

// UserID returns the ID of the user owning the connection
func (c *Client) UserID() string { return c.userID }

// Send queues a message without blocking
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump and closes the connection. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	return c.conn.Close()
}

// Handle applies one command and answers it on the client's own socket
func (c *Client) Handle(cmd Command) {
	var (
		reply Event
		err   error
	)
	switch cmd.Action {
	case ActionSubscribe:
		if err = c.hub.Subscribe(c, cmd.EventID); err == nil {
			reply = Subscribed(cmd.EventID)
		}
	case ActionUnsubscribe:
		if err = c.hub.Unsubscribe(c, cmd.EventID); err == nil {
			reply = Unsubscribed(cmd.EventID)
		}
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		c.logger.Debug().Err(err).Str("action", cmd.Action).Str("event_id", cmd.EventID).Msg("WebSocket command rejected")
		reply = SubscriptionRejected(cmd.EventID, err)
	}

	data, err := reply.ToJSON()
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to serialize reply")
		return
	}
	if err := c.Send(data); err != nil {
		c.logger.Debug().Err(err).Msg("Reply not queued")
	}
}

// ReadPump reads commands until the connection fails, then unregisters the client.
// Run it in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxCommandSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("WebSocket unexpected close")
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.Handle(Command{Action: "invalid"})
			continue
		}
		c.Handle(cmd)
	}
}

// WritePump writes queued events and keeps the connection alive with pings.
// Run it in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn().Err(err).Msg("WebSocket write error")
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
