package types

import (
	"time"

	"github.com/google/uuid"
)

// PromptTemplate is reusable prompt text. A nil UserID marks a built-in public template.
type PromptTemplate struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Prompt      string     `gorm:"type:text;not null" json:"prompt"`
	Category    string     `gorm:"type:varchar(50);not null;default:general;index" json:"category"`
	IsPublic    bool       `gorm:"not null;default:false;index" json:"is_public"`
	UsageCount  int64      `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (PromptTemplate) TableName() string {
	return "prompt_templates"
}
