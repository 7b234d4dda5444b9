package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

type PromptTemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tmpl *types.PromptTemplate) (*types.PromptTemplate, error)
	GetVisible(ctx context.Context, tx *gorm.DB, templateID, userID uuid.UUID) (*types.PromptTemplate, error)
	GetOwned(ctx context.Context, tx *gorm.DB, templateID, userID uuid.UUID) (*types.PromptTemplate, error)
	ListVisible(ctx context.Context, tx *gorm.DB, userID uuid.UUID, category string) ([]*types.PromptTemplate, error)
	ListBuiltIn(ctx context.Context, tx *gorm.DB) ([]*types.PromptTemplate, error)
	UpdateOwned(ctx context.Context, tx *gorm.DB, templateID, userID uuid.UUID, fields map[string]interface{}) error
	UpdateByID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID, fields map[string]interface{}) error
	DeleteOwned(ctx context.Context, tx *gorm.DB, templateID, userID uuid.UUID) (int64, error)
	IncrementUsage(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (int64, error)
}

type promptTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromptTemplateRepo(db *gorm.DB, baseLog *logger.Logger) PromptTemplateRepo {
	return &promptTemplateRepo{
		db:  db,
		log: baseLog.With("repo", "PromptTemplateRepo"),
	}
}

func (ptr *promptTemplateRepo) Create(ctx context.Context, tx *gorm.DB, tmpl *types.PromptTemplate) (*types.PromptTemplate, error) {
	if tx == nil {
		tx = ptr.db
	}
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	if tmpl.Category == "" {
		tmpl.Category = "general"
	}
	if err := tx.WithContext(ctx).Create(tmpl).Error; err != nil {
		ptr.log.Error("failed to create prompt template", "error", err)
		return nil, err
	}
	return tmpl, nil
}

// GetVisible finds a template the user owns or that is public.
func (ptr *promptTemplateRepo) GetVisible(ctx context.Context, tx *gorm.DB, templateID, userID uuid.UUID) (*types.PromptTemplate, error) {
	if tx == nil {
		tx = ptr.db
	}
	var t types.PromptTemplate
	if err := tx.WithContext(ctx).
		Where("id = ? AND (user_id = ? OR is_public = ?)", templateID, userID, true).
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (ptr *promptTemplateRepo) GetOwned(ctx context.Context, tx *gorm.DB, templateID, userID uuid.UUID) (*types.PromptTemplate, error) {
	if tx == nil {
		tx = ptr.db
	}
	var t types.PromptTemplate
	if err := tx.WithContext(ctx).
		Where("id = ? AND user_id = ?", templateID, userID).
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (ptr *promptTemplateRepo) ListVisible(ctx context.Context, tx *gorm.DB, userID uuid.UUID, category string) ([]*types.PromptTemplate, error) {
	if tx == nil {
		tx = ptr.db
	}
	q := tx.WithContext(ctx).
		Where("(user_id = ? OR is_public = ?)", userID, true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	out := []*types.PromptTemplate{}
	if err := q.
		Order("usage_count DESC").
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		ptr.log.Error("failed to list prompt templates", "error", err)
		return nil, err
	}
	return out, nil
}

// ListBuiltIn returns the public templates that have no owner.
func (ptr *promptTemplateRepo) ListBuiltIn(ctx context.Context, tx *gorm.DB) ([]*types.PromptTemplate, error) {
	if tx == nil {
		tx = ptr.db
	}
	var out []*types.PromptTemplate
	if err := tx.WithContext(ctx).
		Where("user_id IS NULL AND is_public = ?", true).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (ptr *promptTemplateRepo) UpdateOwned(ctx context.Context, tx *gorm.DB, templateID, userID uuid.UUID, fields map[string]interface{}) error {
	if tx == nil {
		tx = ptr.db
	}
	fields["updated_at"] = time.Now()
	res := tx.WithContext(ctx).
		Model(&types.PromptTemplate{}).
		Where("id = ? AND user_id = ?", templateID, userID).
		Updates(fields)
	if res.Error != nil {
		ptr.log.Error("failed to update prompt template", "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (ptr *promptTemplateRepo) UpdateByID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID, fields map[string]interface{}) error {
	if tx == nil {
		tx = ptr.db
	}
	fields["updated_at"] = time.Now()
	if err := tx.WithContext(ctx).
		Model(&types.PromptTemplate{}).
		Where("id = ?", templateID).
		Updates(fields).Error; err != nil {
		ptr.log.Error("failed to update prompt template by id", "error", err)
		return err
	}
	return nil
}

func (ptr *promptTemplateRepo) DeleteOwned(ctx context.Context, tx *gorm.DB, templateID, userID uuid.UUID) (int64, error) {
	if tx == nil {
		tx = ptr.db
	}
	res := tx.WithContext(ctx).
		Where("id = ? AND user_id = ?", templateID, userID).
		Delete(&types.PromptTemplate{})
	if res.Error != nil {
		ptr.log.Error("failed to delete prompt template", "error", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// IncrementUsage bumps usage_count in a single statement and returns the new value.
func (ptr *promptTemplateRepo) IncrementUsage(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (int64, error) {
	if tx == nil {
		tx = ptr.db
	}
	res := tx.WithContext(ctx).
		Model(&types.PromptTemplate{}).
		Where("id = ?", templateID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if res.Error != nil {
		ptr.log.Error("failed to increment template usage", "error", res.Error)
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var count int64
	if err := tx.WithContext(ctx).
		Model(&types.PromptTemplate{}).
		Where("id = ?", templateID).
		Select("usage_count").
		Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
