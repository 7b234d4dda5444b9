package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/normalization"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

var errTemplateNotFound = errordata.NotFound("Template not found")

type CreateTemplateInput struct {
	Title       string
	Description string
	Prompt      string
	Category    string
	IsPublic    bool
}

type UpdateTemplateInput struct {
	Title       *string
	Description *string
	Prompt      *string
	Category    *string
	IsPublic    *bool
}

type PromptTemplateService interface {
	List(ctx context.Context, userID uuid.UUID, category string) ([]*types.PromptTemplate, error)
	Get(ctx context.Context, userID, templateID uuid.UUID) (*types.PromptTemplate, error)
	Create(ctx context.Context, userID uuid.UUID, in CreateTemplateInput) (*types.PromptTemplate, error)
	Update(ctx context.Context, userID, templateID uuid.UUID, in UpdateTemplateInput) (*types.PromptTemplate, error)
	Delete(ctx context.Context, userID, templateID uuid.UUID) error
	Use(ctx context.Context, userID, templateID uuid.UUID) (int64, error)
}

type promptTemplateService struct {
	db                 *gorm.DB
	log                *logger.Logger
	promptTemplateRepo repos.PromptTemplateRepo
}

func NewPromptTemplateService(db *gorm.DB, log *logger.Logger, promptTemplateRepo repos.PromptTemplateRepo) PromptTemplateService {
	return &promptTemplateService{
		db:                 db,
		log:                log.With("service", "PromptTemplateService"),
		promptTemplateRepo: promptTemplateRepo,
	}
}

func (pts *promptTemplateService) List(ctx context.Context, userID uuid.UUID, category string) ([]*types.PromptTemplate, error) {
	out, err := pts.promptTemplateRepo.ListVisible(ctx, nil, userID, normalization.TrimText(category))
	if err != nil {
		return nil, errordata.Internal("Error fetching templates", err)
	}
	return out, nil
}

func (pts *promptTemplateService) Get(ctx context.Context, userID, templateID uuid.UUID) (*types.PromptTemplate, error) {
	t, err := pts.promptTemplateRepo.GetVisible(ctx, nil, templateID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errTemplateNotFound
	}
	if err != nil {
		return nil, errordata.Internal("Error fetching template", err)
	}
	return t, nil
}

func (pts *promptTemplateService) Create(ctx context.Context, userID uuid.UUID, in CreateTemplateInput) (*types.PromptTemplate, error) {
	title := normalization.TrimText(in.Title)
	prompt := normalization.TrimText(in.Prompt)
	if title == "" || prompt == "" {
		return nil, errordata.Validation("Title and prompt are required")
	}
	category := normalization.ParseInputString(in.Category)
	if category == "" {
		category = "general"
	}
	owner := userID
	t, err := pts.promptTemplateRepo.Create(ctx, nil, &types.PromptTemplate{
		UserID:      &owner,
		Title:       title,
		Description: normalization.TrimText(in.Description),
		Prompt:      prompt,
		Category:    category,
		IsPublic:    in.IsPublic,
	})
	if err != nil {
		pts.log.Warn("Failed to create prompt template, Cannot proceed. Returning error.", "error", err)
		return nil, errordata.Internal("Error creating template", err)
	}
	return t, nil
}

func (pts *promptTemplateService) Update(ctx context.Context, userID, templateID uuid.UUID, in UpdateTemplateInput) (*types.PromptTemplate, error) {
	fields := map[string]interface{}{}
	if in.Title != nil {
		title := normalization.TrimText(*in.Title)
		if title == "" {
			return nil, errordata.Validation("Title cannot be empty")
		}
		fields["title"] = title
	}
	if in.Prompt != nil {
		prompt := normalization.TrimText(*in.Prompt)
		if prompt == "" {
			return nil, errordata.Validation("Prompt cannot be empty")
		}
		fields["prompt"] = prompt
	}
	if in.Description != nil {
		fields["description"] = normalization.TrimText(*in.Description)
	}
	if in.Category != nil {
		category := normalization.ParseInputString(*in.Category)
		if category == "" {
			category = "general"
		}
		fields["category"] = category
	}
	if in.IsPublic != nil {
		fields["is_public"] = *in.IsPublic
	}
	if len(fields) == 0 {
		return nil, errordata.Validation("No fields to update")
	}

	var updated *types.PromptTemplate
	err := pts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if uErr := pts.promptTemplateRepo.UpdateOwned(ctx, tx, templateID, userID, fields); uErr != nil {
			if errors.Is(uErr, gorm.ErrRecordNotFound) {
				return errTemplateNotFound
			}
			return errordata.Internal("Error updating template", uErr)
		}
		t, gErr := pts.promptTemplateRepo.GetOwned(ctx, tx, templateID, userID)
		if gErr != nil {
			return errordata.Internal("Error updating template", gErr)
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (pts *promptTemplateService) Delete(ctx context.Context, userID, templateID uuid.UUID) error {
	n, err := pts.promptTemplateRepo.DeleteOwned(ctx, nil, templateID, userID)
	if err != nil {
		return errordata.Internal("Error deleting template", err)
	}
	if n == 0 {
		return errTemplateNotFound
	}
	return nil
}

// Use records one use of a template the caller can see and returns the new count.
func (pts *promptTemplateService) Use(ctx context.Context, userID, templateID uuid.UUID) (int64, error) {
	var count int64
	err := pts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, gErr := pts.promptTemplateRepo.GetVisible(ctx, tx, templateID, userID); gErr != nil {
			if errors.Is(gErr, gorm.ErrRecordNotFound) {
				return errTemplateNotFound
			}
			return errordata.Internal("Error updating template usage", gErr)
		}
		c, iErr := pts.promptTemplateRepo.IncrementUsage(ctx, tx, templateID)
		if iErr != nil {
			return errordata.Internal("Error updating template usage", iErr)
		}
		count = c
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
