package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/chemdisk/members/internal/api/http"
	"github.com/chemdisk/members/internal/api/http/handlers"
	"github.com/chemdisk/members/internal/auth"
	"github.com/chemdisk/members/internal/chat"
	"github.com/chemdisk/members/internal/config"
	"github.com/chemdisk/members/internal/content"
	"github.com/chemdisk/members/internal/events"
	"github.com/chemdisk/members/internal/identity"
	"github.com/chemdisk/members/internal/observability"
	"github.com/chemdisk/members/internal/persistence"
	"github.com/chemdisk/members/internal/ratelimit"
	"github.com/chemdisk/members/internal/service"
	"github.com/chemdisk/members/internal/session"
	"github.com/chemdisk/members/internal/worker"
)

// bodyLimit leaves room for a base64 encoded 8 MiB chat attachment.
const bodyLimit = 12 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		registry session.Registry
		limiter  ratelimit.Limiter
	)
	if redis.Enabled() {
		registry = session.NewRedisRegistry(redis.Client)
		limiter = ratelimit.NewRedisLimiter(redis.Client, "ratelimit", time.Minute)
	} else {
		registry = session.NewMemoryRegistry()
		limiter = ratelimit.NewMemoryLimiter(time.Minute)
	}

	dispatcher := events.NewInMemoryDispatcher(func(event events.Event, err error) {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	})
	notificationService := service.NewNotificationService(dispatcher, logger, metrics, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	identityClient := identity.NewClient(cfg.Identity.URL, &http.Client{Timeout: 10 * time.Second})
	if !identityClient.Configured() && cfg.Identity.JWTSecret == "" {
		logger.Warn("neither IDENTITY_URL nor IDENTITY_JWT_SECRET set; authenticated routes will fail")
	}
	tokens := auth.NewTokenVerifier(cfg.Identity.JWTSecret, cfg.Identity.SessionBudget())
	authMiddleware := auth.NewAuthMiddleware(tokens, identityClient, logger)

	chatClient := chat.NewClient(cfg.Chat.APIBase, cfg.Chat.APIKey, cfg.Chat.Timeout, nil)
	if !chatClient.Configured() {
		logger.Warn("GEMINI_API_KEY not set; chat requests will fail")
	}

	identityService := service.NewIdentityService(cfg.Identity, registry, dispatcher, logger)
	contentService := service.NewContentService(content.NewResolver(os.LookupEnv))
	chatService := service.NewChatService(cfg.Chat, chatClient, limiter, logger)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: bodyLimit,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis, metrics),
		Identity:       handlers.NewIdentityHandler(identityService, logger),
		Content:        handlers.NewContentHandler(contentService),
		Chat:           handlers.NewChatHandler(chatService),
		Members:        handlers.NewMembersHandler(),
		AuthMiddleware: authMiddleware,
		Sessions:       registry,
		Logger:         logger,
		AllowOrigin:    cfg.App.CORSAllowOrigin,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
