package socket

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-shadow/shadow-backend/internal/logger"
)

func TestPublishUserEventReachesEverySession(t *testing.T) {
	hub := NewHub(logger.NewNop())
	alice, bob := uuid.New(), uuid.New()
	tab1 := NewClient(nil, hub, alice, nil, logger.NewNop())
	tab2 := NewClient(nil, hub, alice, nil, logger.NewNop())
	other := NewClient(nil, hub, bob, nil, logger.NewNop())

	hub.PublishUserEvent(context.Background(), alice, "chat.updated", map[string]string{"id": "c1"})

	for _, c := range []*Client{tab1, tab2} {
		require.Len(t, c.Outbound, 1)
		msg := <-c.Outbound
		assert.Equal(t, UserChannel(alice), msg.Channel)
		assert.Equal(t, "chat.updated", msg.Event)
		assert.False(t, msg.SentAt.IsZero())
	}
	assert.Empty(t, other.Outbound)
}

func TestCanSubscribeOnlyOwnChannel(t *testing.T) {
	hub := NewHub(logger.NewNop())
	me := uuid.New()
	c := NewClient(nil, hub, me, nil, logger.NewNop())

	assert.True(t, hub.CanSubscribe(c, UserChannel(me)))
	assert.False(t, hub.CanSubscribe(c, UserChannel(uuid.New())))
	assert.False(t, hub.CanSubscribe(c, "global"))

	c.handleInbound(InboundMessage{Action: "subscribe", Channel: UserChannel(uuid.New())})
	assert.Equal(t, 1, len(hub.channels))
}

func TestCloseUnsubscribesOnce(t *testing.T) {
	hub := NewHub(logger.NewNop())
	me := uuid.New()
	cancelled := 0
	c := NewClient(nil, hub, me, func() { cancelled++ }, logger.NewNop())
	assert.Equal(t, 1, hub.subscriberCount(UserChannel(me)))

	c.close()
	c.close()

	assert.Equal(t, 0, hub.subscriberCount(UserChannel(me)))
	assert.Equal(t, 1, cancelled)
	// Broadcasting after close must not panic.
	hub.PublishUserEvent(context.Background(), me, "chat.deleted", nil)
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(logger.NewNop())
	me := uuid.New()
	c := NewClient(nil, hub, me, nil, logger.NewNop())
	for i := 0; i < OutboundChanBuffer+10; i++ {
		hub.PublishUserEvent(context.Background(), me, "chat.updated", i)
	}
	assert.Len(t, c.Outbound, OutboundChanBuffer)
}

func TestPubSubRoundTrip(t *testing.T) {
	raw, err := encodePubSubMessage(Message{Channel: "user:x", Event: "chat.created", Payload: map[string]interface{}{"id": "1"}})
	require.NoError(t, err)
	msg, err := decodePubSubMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "user:x", msg.Channel)
	assert.Equal(t, "chat.created", msg.Event)

	_, err = decodePubSubMessage("{not json")
	assert.Error(t, err)
}
