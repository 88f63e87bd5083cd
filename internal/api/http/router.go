package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chemdisk/members/internal/api/http/handlers"
	"github.com/chemdisk/members/internal/auth"
	"github.com/chemdisk/members/internal/session"
)

// FunctionsPrefix is the path the gateways are served under.
const FunctionsPrefix = "/.netlify/functions"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Identity       *handlers.IdentityHandler
	Content        *handlers.ContentHandler
	Chat           *handlers.ChatHandler
	Members        *handlers.MembersHandler
	AuthMiddleware *auth.AuthMiddleware
	Sessions       session.Registry
	Logger         *zap.Logger
	AllowOrigin    string
	Now            func() time.Time
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	fn := app.Group(FunctionsPrefix)
	fn.Post("/identity-signup", cfg.Identity.Signup)
	fn.Post("/identity-login", cfg.Identity.Login)

	fn.Get("/pdf-key", handlers.NoStore, cfg.Content.PDF)
	fn.Get("/slides-key", handlers.NoStore, cfg.Content.Slides)
	fn.Get("/forms-key", handlers.NoStore, cfg.Content.Forms)
	fn.Get("/yt-key", handlers.NoStore, cfg.Content.YouTube)
	app.Get("/resolve/pdf", handlers.NoStore, cfg.Content.PDF)

	members := []fiber.Handler{
		cfg.AuthMiddleware.Handle,
		auth.RequireCurrentSession(cfg.Sessions, cfg.Logger),
		auth.RequireActive(cfg.Now),
	}

	corsHandler := chatCORS(cfg.AllowOrigin)
	chatChain := append([]fiber.Handler{corsHandler}, members...)
	chatChain = append(chatChain, cfg.Chat.Complete)
	for _, path := range []string{FunctionsPrefix + "/chat", "/chat"} {
		app.Options(path, corsHandler, cfg.Chat.Preflight)
		app.Post(path, chatChain...)
	}

	fn.Get("/members-content", append(members, cfg.Members.Content)...)
}
