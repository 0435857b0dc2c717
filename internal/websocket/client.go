package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

var pongFrame = []byte(`{"type":"pong"}`)

// inbound is the only client message shape the server understands.
type inbound struct {
	Type string `json:"type"`
}

// Client represents a single WebSocket connection.
type Client struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx, cancel)
	c.readPump(ctx)
}

// readPump answers application level pings and ignores everything else.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "ping" {
		return
	}
	c.hub.deliver(c, pongFrame)
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic protocol pings to detect stale connections. A failed
// write or ping drops the client from the hub and cancels ctx, which ends the
// read pump.
func (c *Client) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				c.hub.logger.Debug("websocket write failed", "error", err)
				c.drop(cancel)
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				c.hub.logger.Debug("websocket ping failed", "error", err)
				c.drop(cancel)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) drop(cancel context.CancelFunc) {
	c.hub.Unregister(c)
	cancel()
}
