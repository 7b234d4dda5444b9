package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ai-shadow/shadow-backend/internal/logger"
)

type InboundMessage struct {
	Action  string `json:"action,omitempty"`  // "subscribe" | "unsubscribe" | "ping"
	Channel string `json:"channel,omitempty"`
}

const (
	OutboundChanBuffer = 256

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one websocket connection. A user may hold several.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Conn     *websocket.Conn
	Hub      *Hub
	Log      *logger.Logger
	cancelFn context.CancelFunc
	Outbound chan Message
	once     sync.Once
}

// NewClient builds a client already subscribed to its owner's channel. cancel
// stops the sibling pump when either loop exits.
func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID, cancel context.CancelFunc, log *logger.Logger) *Client {
	c := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Conn:     conn,
		Hub:      hub,
		Log:      log,
		cancelFn: cancel,
		Outbound: make(chan Message, OutboundChanBuffer),
	}
	hub.Subscribe(c, []string{UserChannel(userID)})
	return c
}

func (c *Client) ReadLoop(ctx context.Context)  { c.readLoop(ctx) }
func (c *Client) WriteLoop(ctx context.Context) { c.writeLoop(ctx) }

func (c *Client) readLoop(ctx context.Context) {
	defer c.close()

	c.Conn.SetReadLimit(1 << 16)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			c.Log.Debug("websocket read error, closing client", "error", err)
			return
		}
		var inbound InboundMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			c.Log.Debug("failed to unmarshal inbound message", "error", err)
			continue
		}
		c.handleInbound(inbound)
	}
}

func (c *Client) handleInbound(inbound InboundMessage) {
	switch inbound.Action {
	case "subscribe":
		if !c.Hub.CanSubscribe(c, inbound.Channel) {
			c.Log.Warn("client tried to join a foreign channel", "client", c.ID, "channel", inbound.Channel)
			return
		}
		c.Hub.Subscribe(c, []string{inbound.Channel})
	case "unsubscribe":
		if inbound.Channel != "" {
			c.Hub.UnsubscribeFromChannel(c, inbound.Channel)
		}
	case "ping":
		select {
		case c.Outbound <- Message{Channel: UserChannel(c.UserID), Event: "pong", SentAt: time.Now().UTC()}:
		default:
		}
	default:
		c.Log.Debug("inbound WS message unhandled", "client", c.ID, "action", inbound.Action)
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return

		case msg := <-c.Outbound:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(msg); err != nil {
				c.Log.Warn("failed writing JSON", "client", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Log.Debug("ping error, shutting down", "client", c.ID, "error", err)
				return
			}
		}
	}
}

// close is safe to call from both pumps. Outbound is never closed so a
// concurrent broadcast cannot panic; it is garbage once unsubscribed.
func (c *Client) close() {
	c.once.Do(func() {
		c.Log.Debug("closing client connection", "client", c.ID)
		c.Hub.Unsubscribe(c)
		if c.cancelFn != nil {
			c.cancelFn()
		}
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	})
}
