package repos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

type ChatRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error)
	GetOwned(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*types.Chat, error)
	GetOwnedWithMessages(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*types.Chat, error)
	ListSummaries(ctx context.Context, tx *gorm.DB, userID uuid.UUID, archived bool, limit, offset int) ([]*types.ChatSummary, error)
	Search(ctx context.Context, tx *gorm.DB, userID uuid.UUID, query string, limit int) ([]*types.Chat, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID, fields map[string]interface{}) error
	Touch(ctx context.Context, tx *gorm.DB, chatID uuid.UUID, at time.Time) error
	DeleteOwned(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (int64, error)
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
	return &chatRepo{
		db:  db,
		log: baseLog.With("repo", "ChatRepo"),
	}
}

func (cr *chatRepo) Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error) {
	if tx == nil {
		tx = cr.db
	}
	if chat.ID == uuid.Nil {
		chat.ID = uuid.New()
	}
	if err := tx.WithContext(ctx).Create(chat).Error; err != nil {
		cr.log.Error("failed to create chat", "error", err)
		return nil, err
	}
	return chat, nil
}

// GetOwned returns gorm.ErrRecordNotFound both when the chat is missing and
// when it belongs to someone else.
func (cr *chatRepo) GetOwned(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*types.Chat, error) {
	if tx == nil {
		tx = cr.db
	}
	var c types.Chat
	if err := tx.WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (cr *chatRepo) GetOwnedWithMessages(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*types.Chat, error) {
	if tx == nil {
		tx = cr.db
	}
	var c types.Chat
	if err := tx.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.seq ASC")
		}).
		Where("id = ? AND user_id = ?", chatID, userID).
		First(&c).Error; err != nil {
		return nil, err
	}
	if c.Messages == nil {
		c.Messages = []*types.Message{}
	}
	return &c, nil
}

type chatSummaryRow struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Title        string
	Mode         types.ChatMode
	Model        string
	IsPinned     bool
	IsArchived   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int64
	FirstMessage string
}

func (cr *chatRepo) ListSummaries(ctx context.Context, tx *gorm.DB, userID uuid.UUID, archived bool, limit, offset int) ([]*types.ChatSummary, error) {
	if tx == nil {
		tx = cr.db
	}
	var rows []chatSummaryRow
	if err := tx.WithContext(ctx).
		Model(&types.Chat{}).
		Select(`chats.id, chats.user_id, chats.title, chats.mode, chats.model, chats.is_pinned, chats.is_archived,
			chats.created_at, chats.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.chat_id = chats.id) AS message_count,
			COALESCE((SELECT m.content FROM messages m WHERE m.chat_id = chats.id AND m.role = 'user' ORDER BY m.seq ASC LIMIT 1), '') AS first_message`).
		Where("chats.user_id = ? AND chats.is_archived = ?", userID, archived).
		Order("chats.updated_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error; err != nil {
		cr.log.Error("failed to list chat summaries", "error", err)
		return nil, err
	}
	out := make([]*types.ChatSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, &types.ChatSummary{
			Chat: types.Chat{
				ID:         r.ID,
				UserID:     r.UserID,
				Title:      r.Title,
				Mode:       r.Mode,
				Model:      r.Model,
				IsPinned:   r.IsPinned,
				IsArchived: r.IsArchived,
				CreatedAt:  r.CreatedAt,
				UpdatedAt:  r.UpdatedAt,
			},
			MessageCount: r.MessageCount,
			FirstMessage: r.FirstMessage,
		})
	}
	return out, nil
}

// Search matches the query case-insensitively against chat titles and the
// content of any message in the chat. Each chat appears at most once.
func (cr *chatRepo) Search(ctx context.Context, tx *gorm.DB, userID uuid.UUID, query string, limit int) ([]*types.Chat, error) {
	if tx == nil {
		tx = cr.db
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	var chats []*types.Chat
	if err := tx.WithContext(ctx).
		Where("chats.user_id = ?", userID).
		Where(`LOWER(chats.title) LIKE ? ESCAPE '\' OR EXISTS (
			SELECT 1 FROM messages m WHERE m.chat_id = chats.id AND LOWER(m.content) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("chats.updated_at DESC").
		Limit(limit).
		Find(&chats).Error; err != nil {
		cr.log.Error("failed to search chats", "error", err)
		return nil, err
	}
	return chats, nil
}

// UpdateFields applies a partial update and bumps updated_at. It returns
// gorm.ErrRecordNotFound when no owned chat matched.
func (cr *chatRepo) UpdateFields(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID, fields map[string]interface{}) error {
	if tx == nil {
		tx = cr.db
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}
	res := tx.WithContext(ctx).
		Model(&types.Chat{}).
		Where("id = ? AND user_id = ?", chatID, userID).
		Updates(fields)
	if res.Error != nil {
		cr.log.Error("failed to update chat", "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (cr *chatRepo) Touch(ctx context.Context, tx *gorm.DB, chatID uuid.UUID, at time.Time) error {
	if tx == nil {
		tx = cr.db
	}
	if err := tx.WithContext(ctx).
		Model(&types.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", at).Error; err != nil {
		cr.log.Error("failed to touch chat", "error", err)
		return err
	}
	return nil
}

// DeleteOwned removes the chat; messages go with it through the foreign key cascade.
func (cr *chatRepo) DeleteOwned(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (int64, error) {
	if tx == nil {
		tx = cr.db
	}
	res := tx.WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		Delete(&types.Chat{})
	if res.Error != nil {
		cr.log.Error("failed to delete chat", "error", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
