package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chemdisk/members/internal/api/dto"
	"github.com/chemdisk/members/internal/domain"
	"github.com/chemdisk/members/internal/service"
	apperrors "github.com/chemdisk/members/pkg/util/errorutil"
)

// IdentityHandler serves the GoTrue signup and login hooks.
type IdentityHandler struct {
	identity *service.IdentityService
	logger   *zap.Logger
}

// NewIdentityHandler constructs handler.
func NewIdentityHandler(identity *service.IdentityService, logger *zap.Logger) *IdentityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityHandler{identity: identity, logger: logger}
}

// Signup handles POST /.netlify/functions/identity-signup.
func (h *IdentityHandler) Signup(c *fiber.Ctx) error {
	return h.hook(c, "signup", h.identity.Signup)
}

// Login handles POST /.netlify/functions/identity-login.
func (h *IdentityHandler) Login(c *fiber.Ctx) error {
	return h.hook(c, "login", h.identity.Login)
}

type hookFunc func(ctx context.Context, user *domain.User) (*service.MetadataPatch, error)

// hook answers 400 only when a parsed body has no user. Every other fault,
// an unparsable body included, answers 200 {} so a broken hook never blocks
// signup or login.
func (h *IdentityHandler) hook(c *fiber.Ctx, name string, run hookFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("identity hook panicked", zap.String("hook", name), zap.Any("panic", r))
			err = c.JSON(fiber.Map{})
		}
	}()

	user, parseErr := dto.ParseHookUser(c.Body())
	if parseErr != nil {
		h.logger.Warn("identity hook payload unreadable", zap.String("hook", name), zap.Error(parseErr))
		return c.JSON(fiber.Map{})
	}
	if user == nil {
		return apperrors.NewValidationError("no user in payload", nil)
	}

	patch, runErr := run(c.UserContext(), user)
	if runErr != nil {
		if errors.Is(runErr, service.ErrNoUser) {
			return apperrors.NewValidationError("no user in payload", nil)
		}
		h.logger.Warn("identity hook failed", zap.String("hook", name), zap.Error(runErr))
		return c.JSON(fiber.Map{})
	}
	if patch == nil {
		return c.JSON(fiber.Map{})
	}

	resp := dto.HookResponse{UserMetadata: patch.UserMetadata}
	if patch.Roles != nil {
		resp.AppMetadata = &domain.AppMetadata{Roles: patch.Roles}
	}
	return c.JSON(resp)
}
