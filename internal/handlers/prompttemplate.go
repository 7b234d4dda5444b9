package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/requestdata"
	"github.com/ai-shadow/shadow-backend/internal/services"
)

var errTemplateNotFound = errordata.NotFound("Template not found")

type PromptTemplateHandler struct {
	promptTemplateService services.PromptTemplateService
}

func NewPromptTemplateHandler(promptTemplateService services.PromptTemplateService) *PromptTemplateHandler {
	return &PromptTemplateHandler{promptTemplateService: promptTemplateService}
}

func (ph *PromptTemplateHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	templates, err := ph.promptTemplateService.List(ctx, requestdata.UserID(ctx), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"templates": templates, "count": len(templates)})
}

func (ph *PromptTemplateHandler) Get(c *gin.Context) {
	templateID, ok := uuidParam(c, "templateId", errTemplateNotFound)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	t, err := ph.promptTemplateService.Get(ctx, requestdata.UserID(ctx), templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"template": t})
}

func (ph *PromptTemplateHandler) Create(c *gin.Context) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Prompt      string `json:"prompt"`
		Category    string `json:"category"`
		IsPublic    bool   `json:"is_public"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}
	ctx := c.Request.Context()
	t, err := ph.promptTemplateService.Create(ctx, requestdata.UserID(ctx), services.CreateTemplateInput{
		Title:       req.Title,
		Description: req.Description,
		Prompt:      req.Prompt,
		Category:    req.Category,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"message": "Prompt template created successfully", "template": t})
}

func (ph *PromptTemplateHandler) Update(c *gin.Context) {
	templateID, ok := uuidParam(c, "templateId", errTemplateNotFound)
	if !ok {
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Prompt      *string `json:"prompt"`
		Category    *string `json:"category"`
		IsPublic    *bool   `json:"is_public"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c)
		return
	}
	ctx := c.Request.Context()
	t, err := ph.promptTemplateService.Update(ctx, requestdata.UserID(ctx), templateID, services.UpdateTemplateInput{
		Title:       req.Title,
		Description: req.Description,
		Prompt:      req.Prompt,
		Category:    req.Category,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Template updated successfully", "template": t})
}

func (ph *PromptTemplateHandler) Delete(c *gin.Context) {
	templateID, ok := uuidParam(c, "templateId", errTemplateNotFound)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := ph.promptTemplateService.Delete(ctx, requestdata.UserID(ctx), templateID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

func (ph *PromptTemplateHandler) Use(c *gin.Context) {
	templateID, ok := uuidParam(c, "templateId", errTemplateNotFound)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	count, err := ph.promptTemplateService.Use(ctx, requestdata.UserID(ctx), templateID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Usage count updated", "usage_count": count})
}
