package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"not null;column:name" json:"name"`
	Email           string          `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password        string          `gorm:"not null;column:password_hash" json:"-"`
	AvatarURL       string          `gorm:"column:avatar_url" json:"avatar_url"`
	AvatarBucketKey string          `gorm:"column:avatar_bucket_key" json:"-"`
	Preferences     datatypes.JSON  `gorm:"column:preferences" json:"preferences"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Stats           *UserStats        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"stats,omitempty"`
	Chats           []*Chat           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	PromptTemplates []*PromptTemplate `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserStats is the denormalised per-user usage aggregate. It is created with
// the user and only ever mutated alongside chat and message writes.
type UserStats struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	TotalChats    int64     `gorm:"not null;default:0;column:total_chats" json:"total_chats"`
	TotalMessages int64     `gorm:"not null;default:0;column:total_messages" json:"total_messages"`
	TotalTokens   int64     `gorm:"not null;default:0;column:total_tokens" json:"total_tokens"`
	FavoriteMode  ChatMode  `gorm:"type:varchar(32);not null;default:general;column:favorite_mode" json:"favorite_mode"`
	LastActive    time.Time `gorm:"not null;column:last_active" json:"last_active"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
