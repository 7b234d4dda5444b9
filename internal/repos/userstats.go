package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

type UserStatsRepo interface {
	Create(ctx context.Context, tx *gorm.DB, stats *types.UserStats) (*types.UserStats, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserStats, error)
	AdjustChatCount(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int64) error
	RecordExchange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, messages, tokens int64, mode types.ChatMode, at time.Time) error
	TouchLastActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, at time.Time) error
}

type userStatsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserStatsRepo(db *gorm.DB, baseLog *logger.Logger) UserStatsRepo {
	return &userStatsRepo{
		db:  db,
		log: baseLog.With("repo", "UserStatsRepo"),
	}
}

func (usr *userStatsRepo) Create(ctx context.Context, tx *gorm.DB, stats *types.UserStats) (*types.UserStats, error) {
	if tx == nil {
		tx = usr.db
	}
	if stats.FavoriteMode == "" {
		stats.FavoriteMode = types.ChatModeGeneral
	}
	if stats.LastActive.IsZero() {
		stats.LastActive = time.Now()
	}
	if err := tx.WithContext(ctx).Create(stats).Error; err != nil {
		usr.log.Error("failed to create user stats", "error", err)
		return nil, err
	}
	return stats, nil
}

func (usr *userStatsRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserStats, error) {
	if tx == nil {
		tx = usr.db
	}
	var s types.UserStats
	if err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// AdjustChatCount adds delta to total_chats and never lets it drop below zero.
func (usr *userStatsRepo) AdjustChatCount(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int64) error {
	if tx == nil {
		tx = usr.db
	}
	if err := tx.WithContext(ctx).
		Model(&types.UserStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_chats": gorm.Expr("CASE WHEN total_chats + ? < 0 THEN 0 ELSE total_chats + ? END", delta, delta),
			"updated_at":  time.Now(),
		}).Error; err != nil {
		usr.log.Error("failed to adjust chat count", "error", err)
		return err
	}
	return nil
}

// RecordExchange accrues one completed send: message and token totals, the
// last used mode and the activity timestamp.
func (usr *userStatsRepo) RecordExchange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, messages, tokens int64, mode types.ChatMode, at time.Time) error {
	if tx == nil {
		tx = usr.db
	}
	if err := tx.WithContext(ctx).
		Model(&types.UserStats{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_messages": gorm.Expr("total_messages + ?", messages),
			"total_tokens":   gorm.Expr("total_tokens + ?", tokens),
			"favorite_mode":  mode,
			"last_active":    at,
			"updated_at":     at,
		}).Error; err != nil {
		usr.log.Error("failed to record exchange in user stats", "error", err)
		return err
	}
	return nil
}

func (usr *userStatsRepo) TouchLastActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, at time.Time) error {
	if tx == nil {
		tx = usr.db
	}
	if err := tx.WithContext(ctx).
		Model(&types.UserStats{}).
		Where("user_id = ?", userID).
		Update("last_active", at).Error; err != nil {
		usr.log.Error("failed to touch last_active", "error", err)
		return err
	}
	return nil
}
