package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

type MessageRepo interface {
	Append(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error)
	ListByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*types.Message, error)
	Recent(ctx context.Context, tx *gorm.DB, chatID uuid.UUID, n int) ([]*types.Message, error)
	CountByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{
		db:  db,
		log: baseLog.With("repo", "MessageRepo"),
	}
}

// Append assigns the next sequence number in the chat and inserts the message.
// Two concurrent appends to one chat collide on the (chat_id, seq) unique index
// instead of silently interleaving.
func (mr *messageRepo) Append(ctx context.Context, tx *gorm.DB, msg *types.Message) (*types.Message, error) {
	if tx == nil {
		tx = mr.db
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	var maxSeq int64
	if err := tx.WithContext(ctx).
		Model(&types.Message{}).
		Where("chat_id = ?", msg.ChatID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		mr.log.Error("failed to read max message seq", "error", err)
		return nil, err
	}
	msg.Seq = maxSeq + 1
	if err := tx.WithContext(ctx).Create(msg).Error; err != nil {
		mr.log.Error("failed to append message", "error", err)
		return nil, err
	}
	return msg, nil
}

func (mr *messageRepo) ListByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*types.Message, error) {
	if tx == nil {
		tx = mr.db
	}
	msgs := []*types.Message{}
	if err := tx.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("seq ASC").
		Find(&msgs).Error; err != nil {
		mr.log.Error("failed to list messages by chat", "error", err)
		return nil, err
	}
	return msgs, nil
}

// Recent returns the last n messages of the chat, oldest first.
func (mr *messageRepo) Recent(ctx context.Context, tx *gorm.DB, chatID uuid.UUID, n int) ([]*types.Message, error) {
	if tx == nil {
		tx = mr.db
	}
	var msgs []*types.Message
	if err := tx.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("seq DESC").
		Limit(n).
		Find(&msgs).Error; err != nil {
		mr.log.Error("failed to load recent messages", "error", err)
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (mr *messageRepo) CountByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) (int64, error) {
	if tx == nil {
		tx = mr.db
	}
	var n int64
	if err := tx.WithContext(ctx).
		Model(&types.Message{}).
		Where("chat_id = ?", chatID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
