package services

import (
	"context"

	"github.com/google/uuid"
)

const (
	ChatEventCreated = "chat.created"
	ChatEventUpdated = "chat.updated"
	ChatEventDeleted = "chat.deleted"
)

// EventPublisher fans chat lifecycle events out to the owner's live sessions.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, userID uuid.UUID, event string, payload interface{})
}
