package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ai-shadow/shadow-backend/internal/handlers"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/middleware"
)

const maxBodyBytes = 10 << 20

type RouterConfig struct {
	Log                   *logger.Logger
	CORSOrigins           []string
	RateLimiter           *middleware.IPRateLimiter
	AuthMiddleware        *middleware.AuthMiddleware
	AuthHandler           *handlers.AuthHandler
	ChatHandler           *handlers.ChatHandler
	PromptTemplateHandler *handlers.PromptTemplateHandler
	HealthHandler         *handlers.HealthHandler
	WsHandler             gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestContext(cfg.Log),
		middleware.Recovery(cfg.Log),
	)

	//-----------------------------------------
	// Cors Setup
	//-----------------------------------------
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.SecureHeaders(), middleware.BodyLimit(maxBodyBytes))

	//-----------------------------------------
	// Health Routes
	//-----------------------------------------
	router.GET("/", cfg.HealthHandler.Root)
	router.GET("/api/health", cfg.HealthHandler.Health)

	api := router.Group("/api")
	if cfg.RateLimiter != nil {
		api.Use(cfg.RateLimiter.Middleware())
	}

	//-----------------------------------------
	// Public Routes
	//-----------------------------------------
	auth := api.Group("/auth")
	auth.POST("/register", cfg.AuthHandler.Register)
	auth.POST("/login", cfg.AuthHandler.Login)

	//------------------------------------------
	// Protected Routes
	//------------------------------------------
	requireAuth := cfg.AuthMiddleware.RequireAuth()

	auth.GET("/profile", requireAuth, cfg.AuthHandler.GetProfile)
	auth.PUT("/profile", requireAuth, cfg.AuthHandler.UpdateProfile)

	ai := api.Group("/ai", requireAuth)
	ai.POST("/chat", cfg.ChatHandler.SendMessage)
	ai.GET("/chats", cfg.ChatHandler.ListChats)
	ai.GET("/chats/search", cfg.ChatHandler.SearchChats)
	ai.GET("/chats/:chatId", cfg.ChatHandler.GetChat)
	ai.PUT("/chats/:chatId", cfg.ChatHandler.UpdateChat)
	ai.DELETE("/chats/:chatId", cfg.ChatHandler.DeleteChat)

	prompts := api.Group("/prompts", requireAuth)
	prompts.GET("", cfg.PromptTemplateHandler.List)
	prompts.POST("", cfg.PromptTemplateHandler.Create)
	prompts.GET("/:templateId", cfg.PromptTemplateHandler.Get)
	prompts.PUT("/:templateId", cfg.PromptTemplateHandler.Update)
	prompts.DELETE("/:templateId", cfg.PromptTemplateHandler.Delete)
	prompts.POST("/:templateId/use", cfg.PromptTemplateHandler.Use)

	if cfg.WsHandler != nil {
		api.GET("/ws", requireAuth, cfg.WsHandler)
	}

	router.NoRoute(handlers.NoRoute)
	return router
}
