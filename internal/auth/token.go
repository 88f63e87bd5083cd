package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/chemdisk/members/internal/domain"
)

// TokenVerifier validates GoTrue access tokens signed with the shared HS256 secret.
type TokenVerifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenVerifier builds a verifier. ttl only applies to tokens minted by
// GenerateToken; a non-positive value means one hour.
func NewTokenVerifier(secret string, ttl time.Duration) *TokenVerifier {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenVerifier{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether a signing secret is configured.
func (tv *TokenVerifier) Enabled() bool {
	return tv != nil && len(tv.secret) > 0
}

// Claims mirrors the payload GoTrue puts into its access tokens.
type Claims struct {
	Email        string             `json:"email,omitempty"`
	AppMetadata  domain.AppMetadata `json:"app_metadata"`
	UserMetadata map[string]any     `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// User converts the claims into a user record.
func (c *Claims) User() *domain.User {
	return &domain.User{
		ID:           c.Subject,
		Email:        c.Email,
		AppMetadata:  c.AppMetadata,
		UserMetadata: c.UserMetadata,
	}
}

// GenerateToken signs a token for the user the way GoTrue would.
func (tv *TokenVerifier) GenerateToken(user *domain.User) (string, time.Time, error) {
	issuedAt := tv.now()
	expiresAt := issuedAt.Add(tv.ttl)
	claims := &Claims{
		Email:        user.Email,
		AppMetadata:  user.AppMetadata,
		UserMetadata: user.UserMetadata,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tv.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tv *TokenVerifier) ParseToken(tokenStr string) (*Claims, error) {
	if !tv.Enabled() {
		return nil, errors.New("token verification disabled")
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tv.secret, nil
	}, jwt.WithTimeFunc(tv.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token without subject")
	}
	return claims, nil
}
