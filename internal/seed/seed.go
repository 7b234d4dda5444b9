package seed

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/seed/prompttemplate"
)

// SeedAll loads reference data. promptTemplateSeedPath may be empty to use
// the built-in defaults.
func SeedAll(
	ctx context.Context,
	db *gorm.DB,
	log *logger.Logger,
	promptTemplateRepo repos.PromptTemplateRepo,
	promptTemplateSeedPath string,
) error {
	log.Info("Running SeedAll... seeding prompt templates")
	if err := prompttemplate.SyncBuiltInTemplates(ctx, db, promptTemplateRepo, promptTemplateSeedPath); err != nil {
		return fmt.Errorf("failed to sync prompt templates: %w", err)
	}
	log.Info("SeedAll complete")
	return nil
}
