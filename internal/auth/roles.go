package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chemdisk/members/internal/domain"
	"github.com/chemdisk/members/internal/membership"
	"github.com/chemdisk/members/internal/session"
	apperrors "github.com/chemdisk/members/pkg/util/errorutil"
)

// RequireActive ensures the caller is an effectively active member. Admins
// always pass; a lapsed time-limited grant is reported as EXPIRED.
func RequireActive(now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		err := membership.RequireActive(principal.User, now())
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, membership.ErrGrantExpired):
			details := map[string]any{}
			if until := principal.User.Session().PaidRoleUntil; !until.IsZero() {
				details["expired_at"] = until.UTC().Format(time.RFC3339)
			}
			return apperrors.NewDomainError("EXPIRED", "membership expired", http.StatusForbidden, details)
		default:
			return apperrors.NewForbidden("active membership required")
		}
	}
}

// RequireCurrentSession rejects tokens minted for a session that a newer
// login has replaced. Registry misses and failures let the request through.
func RequireCurrentSession(registry session.Registry, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || registry == nil {
			return c.Next()
		}
		presented := principal.User.MetaString(domain.MetaCurrentSession)
		if presented == "" {
			return c.Next()
		}

		current, err := registry.Current(c.UserContext(), principal.User.ID)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				logger.Warn("session registry lookup failed",
					zap.String("user_id", principal.User.ID),
					zap.Error(err),
				)
			}
			return c.Next()
		}
		if current != presented {
			return apperrors.NewDomainError("SESSION_SUPERSEDED", "session replaced by a newer login", http.StatusUnauthorized, nil)
		}
		return c.Next()
	}
}
