package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ai-shadow/shadow-backend/internal/config"
	"github.com/ai-shadow/shadow-backend/internal/db"
	"github.com/ai-shadow/shadow-backend/internal/handlers"
	"github.com/ai-shadow/shadow-backend/internal/locks"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/middleware"
	"github.com/ai-shadow/shadow-backend/internal/repos"
	"github.com/ai-shadow/shadow-backend/internal/seed"
	"github.com/ai-shadow/shadow-backend/internal/server"
	"github.com/ai-shadow/shadow-backend/internal/services"
	"github.com/ai-shadow/shadow-backend/internal/socket"
)

const (
	shutdownTimeout = 10 * time.Second
	chatLockTTL     = 3 * time.Minute
)

func runSetupDB(ctx context.Context, v *viper.Viper) error {
	cfg, log, err := bootstrap(v)
	if err != nil {
		return err
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer postgresService.Close()
	if err := postgresService.AutoMigrateAll(ctx); err != nil {
		return err
	}
	promptTemplateRepo := repos.NewPromptTemplateRepo(postgresService.DB(), log)
	if err := seed.SeedAll(ctx, postgresService.DB(), log, promptTemplateRepo, cfg.SeedPromptTemplateJSONPath); err != nil {
		return err
	}
	log.Info("Database setup complete")
	return nil
}

func runServe(parent context.Context, v *viper.Viper) error {
	cfg, log, err := bootstrap(v)
	if err != nil {
		return err
	}
	defer log.Sync()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres Setup
	log.Info("Setting Up Postgres from Main now...")
	postgresService, err := db.NewPostgresService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer postgresService.Close()
	if err := postgresService.AutoMigrateAll(ctx); err != nil {
		return err
	}
	thePG := postgresService.DB()

	// Repositories Setup
	userRepo := repos.NewUserRepo(thePG, log)
	userStatsRepo := repos.NewUserStatsRepo(thePG, log)
	chatRepo := repos.NewChatRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)
	promptTemplateRepo := repos.NewPromptTemplateRepo(thePG, log)

	g, gctx := errgroup.WithContext(ctx)

	// Websocket Hub, Redis PubSub and Chat Locks
	wsHub := socket.NewHub(log)
	var chatLocker locks.ChatLocker = locks.NewLocalLocker()
	if redisClient := connectRedis(ctx, cfg, log); redisClient != nil {
		defer redisClient.Close()
		chatLocker = locks.NewRedisLocker(redisClient, log, chatLockTTL)
		redisPubSub := socket.NewRedisPubSub(log, redisClient, socket.DefaultBroadcastChannel)
		if err := redisPubSub.StartSubscriber(gctx, wsHub); err != nil {
			log.Warn("Failed to subscribe to Redis pub/sub, events stay local", "error", err)
		} else {
			wsHub.SetRedisPubSub(redisPubSub)
			defer redisPubSub.Stop()
			log.Info("Redis pubsub is active")
		}
	}

	// Services Setup
	gateway, closeGateway, err := newCompletionGateway(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeGateway()

	var avatarService services.AvatarService
	if cfg.GCSBucket != "" {
		bucketService, err := services.NewBucketService(ctx, log, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			log.Warn("Could not init BucketService, avatars disabled", "error", err)
		} else {
			defer bucketService.Close()
			avatarService, err = services.NewAvatarService(log, userRepo, bucketService)
			if err != nil {
				return fmt.Errorf("failed to init avatar service: %w", err)
			}
		}
	}
	var emailService services.EmailService
	if cfg.SendgridAPIKey != "" {
		emailService, err = services.NewEmailService(log, cfg.SendgridAPIKey, cfg.SendgridFromEmail)
		if err != nil {
			log.Warn("Could not init EmailService, welcome emails disabled", "error", err)
			emailService = nil
		}
	}

	authService := services.NewAuthService(thePG, log, userRepo, userStatsRepo, avatarService, emailService, cfg.JWTSecret, cfg.TokenTTL)
	profileService := services.NewProfileService(thePG, log, userRepo)
	chatService := services.NewChatService(thePG, log, chatRepo, messageRepo, userStatsRepo, gateway, chatLocker, wsHub,
		services.ChatServiceConfig{DefaultModel: cfg.AIDefaultModel})
	promptTemplateService := services.NewPromptTemplateService(thePG, log, promptTemplateRepo)

	// Router Setup
	var rateLimiter *middleware.IPRateLimiter
	if cfg.RateLimitEnabled {
		rateLimiter = middleware.NewIPRateLimiter(cfg.RateLimitPerWindow, cfg.RateLimitWindow)
	}
	router := server.NewRouter(server.RouterConfig{
		Log:                   log,
		CORSOrigins:           cfg.CORSOrigin,
		RateLimiter:           rateLimiter,
		AuthMiddleware:        middleware.NewAuthMiddleware(log, authService),
		AuthHandler:           handlers.NewAuthHandler(authService, profileService),
		ChatHandler:           handlers.NewChatHandler(chatService),
		PromptTemplateHandler: handlers.NewPromptTemplateHandler(promptTemplateService),
		HealthHandler:         handlers.NewHealthHandler(thePG),
		WsHandler:             handlers.WsHandler(gctx, wsHub, handlers.NewUpgrader(cfg.CORSOrigin), log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// connectRedis returns nil when Redis is not configured or not reachable, in
// which case locks and events stay in process.
func connectRedis(ctx context.Context, cfg *config.Config, log *logger.Logger) redis.UniversalClient {
	if cfg.RedisAddress == "" {
		log.Info("REDIS_ADDRESS not set, using in-process locks and events")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, using in-process locks and events", "addr", cfg.RedisAddress, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

func newCompletionGateway(ctx context.Context, cfg *config.Config, log *logger.Logger) (services.CompletionGateway, func(), error) {
	switch cfg.AIProvider {
	case "gemini":
		gm, err := services.NewGeminiGateway(ctx, log, cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init gemini gateway: %w", err)
		}
		return gm, func() { _ = gm.Close() }, nil
	default:
		og, err := services.NewOpenAIGateway(log, cfg.AIAPIURL, cfg.AIAPIKey, cfg.AITimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init completion gateway: %w", err)
		}
		return og, func() {}, nil
	}
}
