package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

func (r MessageRole) Valid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	default:
		return false
	}
}

// Message is immutable once written. Seq is assigned per chat and is strictly
// increasing, so it orders messages even when two share a creation timestamp.
type Message struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_messages_chat_seq,priority:1" json:"chat_id"`
	Seq       int64       `gorm:"not null;uniqueIndex:idx_messages_chat_seq,priority:2" json:"seq"`
	Role      MessageRole `gorm:"type:varchar(16);not null;check:chk_messages_role,role IN ('user','assistant','system')" json:"role"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Tokens    int64       `gorm:"not null;default:0" json:"tokens"`
	CreatedAt time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if !m.Role.Valid() {
		return fmt.Errorf("invalid message role %q", m.Role)
	}
	return nil
}
