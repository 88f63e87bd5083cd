package guard

import (
	"net/http"

	"github.com/chemdisk/members/internal/domain"
)

// JWTCookieMaxAge roughly matches the identity token lifetime.
const JWTCookieMaxAge = 3600

// JWTCookie builds the nf_jwt cookie for token. Secure is dropped on
// localhost so the cookie works over plain http during development.
func JWTCookie(token, hostname string) *http.Cookie {
	return &http.Cookie{
		Name:     domain.JWTCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   JWTCookieMaxAge,
		Secure:   !isLocalHost(hostname),
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearedJWTCookie builds the cookie that deletes nf_jwt.
func ClearedJWTCookie() *http.Cookie {
	return &http.Cookie{
		Name:     domain.JWTCookie,
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func isLocalHost(hostname string) bool {
	return hostname == "localhost" || hostname == "127.0.0.1"
}
