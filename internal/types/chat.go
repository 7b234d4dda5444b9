package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ChatMode string

const (
	ChatModeGeneral    ChatMode = "general"
	ChatModeWriting    ChatMode = "writing"
	ChatModeTutor      ChatMode = "tutor"
	ChatModeCode       ChatMode = "code"
	ChatModeTranslator ChatMode = "translator"
	ChatModeAdvisor    ChatMode = "advisor"
)

var AllChatModes = []ChatMode{
	ChatModeGeneral,
	ChatModeWriting,
	ChatModeTutor,
	ChatModeCode,
	ChatModeTranslator,
	ChatModeAdvisor,
}

func (m ChatMode) Valid() bool {
	for _, known := range AllChatModes {
		if m == known {
			return true
		}
	}
	return false
}

// ParseChatMode maps a raw tag to a known mode. Unknown or empty tags become general.
func ParseChatMode(raw string) ChatMode {
	m := ChatMode(strings.ToLower(strings.TrimSpace(raw)))
	if m.Valid() {
		return m
	}
	return ChatModeGeneral
}

type Chat struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title      string     `gorm:"type:varchar(255);not null;column:title" json:"title"`
	Mode       ChatMode   `gorm:"type:varchar(32);not null;default:general;column:mode" json:"mode"`
	Model      string     `gorm:"type:varchar(100);not null;column:model" json:"model"`
	IsPinned   bool       `gorm:"not null;default:false;column:is_pinned" json:"is_pinned"`
	IsArchived bool       `gorm:"not null;default:false;index;column:is_archived" json:"is_archived"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;autoUpdateTime;index" json:"updated_at"`

	Messages []*Message `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChatID;references:ID" json:"messages,omitempty"`
}

func (Chat) TableName() string {
	return "chats"
}

// ChatSummary is a list row: the chat plus its message count and the first user message.
type ChatSummary struct {
	Chat
	MessageCount int64  `json:"message_count"`
	FirstMessage string `json:"first_message"`
}
