package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	apiName    = "AI Shadow Backend API"
	apiVersion = "2.0.0"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (hh *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	err := hh.ping(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (hh *HealthHandler) ping(ctx context.Context) error {
	sqlDB, err := hh.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (hh *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":          apiName,
		"version":       apiVersion,
		"status":        "running",
		"documentation": "/api/health",
		"endpoints": gin.H{
			"auth":      "/api/auth",
			"ai":        "/api/ai",
			"prompts":   "/api/prompts",
			"websocket": "/api/ws",
		},
	})
}
