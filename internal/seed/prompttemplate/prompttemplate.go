package prompttemplate

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

//go:embed default_templates.json
var defaultTemplatesJSON []byte

type seedTemplate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	Category    string `json:"category"`
}

// LoadSeedFile reads the built-in template list from path, or the embedded
// defaults when path is empty.
func LoadSeedFile(path string) ([]*types.PromptTemplate, error) {
	data := defaultTemplatesJSON
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed reading prompt template seed file: %w", err)
		}
		data = raw
	}
	var entries []seedTemplate
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed unmarshaling prompt templates: %w", err)
	}
	seen := make(map[string]bool, len(entries))
	out := make([]*types.PromptTemplate, 0, len(entries))
	for _, e := range entries {
		title := strings.TrimSpace(e.Title)
		if title == "" || strings.TrimSpace(e.Prompt) == "" {
			return nil, fmt.Errorf("prompt template seed entry needs a title and a prompt")
		}
		if seen[title] {
			return nil, fmt.Errorf("duplicate prompt template title %q in seed file", title)
		}
		seen[title] = true
		category := strings.ToLower(strings.TrimSpace(e.Category))
		if category == "" {
			category = "general"
		}
		out = append(out, &types.PromptTemplate{
			Title:       title,
			Description: e.Description,
			Prompt:      e.Prompt,
			Category:    category,
			IsPublic:    true,
		})
	}
	return out, nil
}

// SyncBuiltInTemplates makes the owner-less public templates match the seed
// list by title. Usage counts of surviving templates are kept.
func SyncBuiltInTemplates(ctx context.Context, db *gorm.DB, promptTemplateRepo repos.PromptTemplateRepo, seedPathJSON string) error {
	fileTemplates, err := LoadSeedFile(seedPathJSON)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := promptTemplateRepo.ListBuiltIn(ctx, tx)
		if err != nil {
			return fmt.Errorf("failed fetching existing prompt templates: %w", err)
		}
		fileMap := make(map[string]*types.PromptTemplate, len(fileTemplates))
		for _, ft := range fileTemplates {
			fileMap[ft.Title] = ft
		}
		existingMap := make(map[string]*types.PromptTemplate, len(existing))
		for _, et := range existing {
			existingMap[et.Title] = et
		}

		var toDelete []uuid.UUID
		for _, et := range existing {
			if _, ok := fileMap[et.Title]; !ok {
				toDelete = append(toDelete, et.ID)
			}
		}
		if len(toDelete) > 0 {
			if err := tx.Where("id IN ? AND user_id IS NULL", toDelete).Delete(&types.PromptTemplate{}).Error; err != nil {
				return fmt.Errorf("failed deleting stale prompt templates: %w", err)
			}
		}

		for _, ft := range fileTemplates {
			et, ok := existingMap[ft.Title]
			if !ok {
				if _, err := promptTemplateRepo.Create(ctx, tx, ft); err != nil {
					return fmt.Errorf("failed creating prompt template %q: %w", ft.Title, err)
				}
				continue
			}
			if et.Description == ft.Description && et.Prompt == ft.Prompt && et.Category == ft.Category {
				continue
			}
			if err := promptTemplateRepo.UpdateByID(ctx, tx, et.ID, map[string]interface{}{
				"description": ft.Description,
				"prompt":      ft.Prompt,
				"category":    ft.Category,
			}); err != nil {
				return fmt.Errorf("failed updating prompt template %q: %w", ft.Title, err)
			}
		}
		return nil
	})
}
