package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chemdisk/members/internal/domain"
	"github.com/chemdisk/members/internal/identity"
	apperrors "github.com/chemdisk/members/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// UserFetcher loads the authoritative user record for a token.
type UserFetcher interface {
	FetchUser(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads principals. Tokens are
// verified locally when a secret is configured, otherwise the identity
// provider is asked for the user.
type AuthMiddleware struct {
	tokens *TokenVerifier
	users  UserFetcher
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenVerifier, users UserFetcher, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, users: users, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := TokenFromRequest(c)
	if err != nil {
		return err
	}

	principal, err := m.resolve(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *AuthMiddleware) resolve(ctx context.Context, token string) (*domain.Principal, error) {
	if m.tokens.Enabled() {
		claims, err := m.tokens.ParseToken(token)
		if err != nil {
			return nil, apperrors.NewUnauthorized("invalid token")
		}
		return &domain.Principal{User: claims.User(), Token: token, FromClaims: true}, nil
	}

	if m.users == nil {
		return nil, apperrors.NewMisconfigured("identity verification not configured")
	}
	user, err := m.users.FetchUser(ctx, token)
	switch {
	case err == nil:
		return &domain.Principal{User: user, Token: token}, nil
	case errors.Is(err, identity.ErrUnauthorized):
		return nil, apperrors.NewUnauthorized("invalid token")
	case errors.Is(err, identity.ErrNotConfigured):
		return nil, apperrors.NewMisconfigured("identity verification not configured")
	default:
		m.logger.Warn("identity lookup failed", zap.Error(err))
		return nil, apperrors.NewBadGateway("identity provider unavailable", 0, "")
	}
}

// TokenFromRequest returns the bearer token from the Authorization header or,
// failing that, from the nf_jwt cookie.
func TokenFromRequest(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", apperrors.NewUnauthorized("invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie := strings.TrimSpace(c.Cookies(domain.JWTCookie)); cookie != "" {
		return cookie, nil
	}
	return "", apperrors.NewUnauthorized("missing token")
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok && principal.User != nil
}
