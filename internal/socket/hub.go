package socket

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ai-shadow/shadow-backend/internal/logger"
)

const userChannelPrefix = "user:"

// Message is the envelope pushed to websocket clients and across Redis.
type Message struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	SentAt  time.Time   `json:"sent_at"`
}

// UserChannel is the private channel every session of userID joins.
func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}

type Hub struct {
	log      *logger.Logger
	mu       sync.RWMutex
	channels map[string]map[uuid.UUID]*Client

	redisPubSub *RedisPubSub
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:      log.With("component", "Hub"),
		channels: make(map[string]map[uuid.UUID]*Client),
	}
}

func (h *Hub) SetRedisPubSub(rp *RedisPubSub) {
	h.redisPubSub = rp
}

// CanSubscribe reports whether client may join channel. User channels are
// private to their owner.
func (h *Hub) CanSubscribe(client *Client, channel string) bool {
	if !strings.HasPrefix(channel, userChannelPrefix) {
		return false
	}
	return channel == UserChannel(client.UserID)
}

func (h *Hub) Subscribe(client *Client, channels []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range channels {
		if h.channels[ch] == nil {
			h.channels[ch] = make(map[uuid.UUID]*Client)
		}
		h.channels[ch][client.ID] = client
	}
	h.log.Debug("Client subscribed", "client", client.ID, "channels", channels)
}

func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch, clientsMap := range h.channels {
		if _, ok := clientsMap[client.ID]; ok {
			delete(clientsMap, client.ID)
			if len(clientsMap) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	h.log.Debug("Client unsubscribed from all channels", "client", client.ID)
}

func (h *Hub) UnsubscribeFromChannel(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clientsMap, ok := h.channels[channel]; ok {
		delete(clientsMap, client.ID)
		if len(clientsMap) == 0 {
			delete(h.channels, channel)
		}
	}
}

func (h *Hub) subscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) localBroadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clientsMap, ok := h.channels[msg.Channel]
	if !ok {
		return
	}
	for _, client := range clientsMap {
		select {
		case client.Outbound <- msg:
		default:
			h.log.Warn("Dropping message to client; outbound buffer full", "client", client.ID, "channel", msg.Channel)
		}
	}
}

// BroadcastGlobal delivers locally and, when Redis is wired, to every other node.
func (h *Hub) BroadcastGlobal(ctx context.Context, msg Message) {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	if h.redisPubSub == nil {
		h.localBroadcast(msg)
		return
	}
	// The subscriber loop delivers our own publish back to this node.
	if err := h.redisPubSub.Publish(ctx, msg); err != nil {
		h.log.Warn("Failed to publish to Redis, delivering locally only", "error", err)
		h.localBroadcast(msg)
	}
}

// PublishUserEvent pushes a chat lifecycle event to every live session of userID.
func (h *Hub) PublishUserEvent(ctx context.Context, userID uuid.UUID, event string, payload interface{}) {
	h.BroadcastGlobal(ctx, Message{Channel: UserChannel(userID), Event: event, Payload: payload})
}
