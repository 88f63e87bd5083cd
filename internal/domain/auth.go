package domain

// Principal represents the authenticated caller of a gateway.
type Principal struct {
	User *User
	// Token is the raw bearer token the caller presented.
	Token string
	// FromClaims is true when the user was built from verified token claims
	// rather than fetched from the identity provider.
	FromClaims bool
}

// JWTCookie is the cookie that mirrors the identity access token for
// server-rendered requests.
const JWTCookie = "nf_jwt"
