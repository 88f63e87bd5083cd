package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemdisk/members/internal/domain"
	"github.com/chemdisk/members/internal/identity"
	"github.com/chemdisk/members/internal/session"
	apperrors "github.com/chemdisk/members/pkg/util/errorutil"
)

const testSecret = "test-secret"

type fakeFetcher struct {
	user  *domain.User
	err   error
	calls int
}

func (f *fakeFetcher) FetchUser(_ context.Context, _ string) (*domain.User, error) {
	f.calls++
	return f.user, f.err
}

type failingRegistry struct{ session.Registry }

func (failingRegistry) Current(context.Context, string) (string, error) {
	return "", errors.New("redis down")
}

func newTestApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"code": "HTTP"})
			}
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": p.User.ID, "claims": p.FromClaims})
	})
	app.Get("/", handlers...)
	return app
}

func doRequest(t *testing.T, app *fiber.App, mutate func(*http.Request)) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(body, &out)
	return resp.StatusCode, out
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func member(id string, roles []string, meta map[string]any) *domain.User {
	return &domain.User{ID: id, Email: id + "@example.com", AppMetadata: domain.AppMetadata{Roles: roles}, UserMetadata: meta}
}

func TestTokenVerifier_RoundTrip(t *testing.T) {
	tv := NewTokenVerifier(testSecret, time.Minute)
	token, exp, err := tv.GenerateToken(member("u-1", []string{"hour", "active"}, map[string]any{"current_session": "s-1"}))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	claims, err := tv.ParseToken(token)
	require.NoError(t, err)
	user := claims.User()
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, []string{"hour", "active"}, user.AppMetadata.Roles)
	assert.Equal(t, "s-1", user.MetaString(domain.MetaCurrentSession))

	_, err = NewTokenVerifier("other", time.Minute).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenVerifier_Expired(t *testing.T) {
	tv := NewTokenVerifier(testSecret, time.Minute)
	tv.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tv.GenerateToken(member("u-1", nil, nil))
	require.NoError(t, err)

	_, err = NewTokenVerifier(testSecret, time.Minute).ParseToken(token)
	assert.Error(t, err)
}

func TestAuthMiddleware_Claims(t *testing.T) {
	tv := NewTokenVerifier(testSecret, time.Minute)
	token, _, err := tv.GenerateToken(member("u-1", []string{"active"}, nil))
	require.NoError(t, err)

	app := newTestApp(NewAuthMiddleware(tv, nil, nil).Handle)

	status, body := doRequest(t, app, bearer(token))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u-1", body["id"])
	assert.Equal(t, true, body["claims"])

	status, _ = doRequest(t, app, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: domain.JWTCookie, Value: token})
	})
	assert.Equal(t, http.StatusOK, status)

	status, body = doRequest(t, app, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	status, _ = doRequest(t, app, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, app, func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") })
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthMiddleware_FallsBackToIdentityLookup(t *testing.T) {
	fetcher := &fakeFetcher{user: member("u-2", []string{"admin"}, nil)}
	app := newTestApp(NewAuthMiddleware(NewTokenVerifier("", 0), fetcher, nil).Handle)

	status, body := doRequest(t, app, bearer("opaque"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u-2", body["id"])
	assert.Equal(t, false, body["claims"])
	assert.Equal(t, 1, fetcher.calls)

	fetcher.err = identity.ErrUnauthorized
	status, _ = doRequest(t, app, bearer("opaque"))
	assert.Equal(t, http.StatusUnauthorized, status)

	fetcher.err = identity.ErrUnavailable
	status, body = doRequest(t, app, bearer("opaque"))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "UPSTREAM_FAILED", body["code"])

	app = newTestApp(NewAuthMiddleware(nil, nil, nil).Handle)
	status, body = doRequest(t, app, bearer("opaque"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "SERVER_MISCONFIGURED", body["code"])
}

func TestRequireActive(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tv := NewTokenVerifier(testSecret, time.Minute)
	app := newTestApp(NewAuthMiddleware(tv, nil, nil).Handle, RequireActive(func() time.Time { return now }))

	cases := []struct {
		name   string
		user   *domain.User
		status int
		code   string
	}{
		{"admin", member("a", []string{"admin"}, nil), http.StatusOK, ""},
		{"active", member("b", []string{"active"}, nil), http.StatusOK, ""},
		{"pending", member("c", []string{"pending"}, nil), http.StatusForbidden, "FORBIDDEN"},
		{"open hour", member("d", []string{"hour", "active"}, map[string]any{
			domain.MetaPaidRoleTag:   "hour",
			domain.MetaPaidRoleUntil: now.Add(time.Minute).UnixMilli(),
		}), http.StatusOK, ""},
		{"lapsed hour", member("e", []string{"hour", "active"}, map[string]any{
			domain.MetaPaidRoleTag:   "hour",
			domain.MetaPaidRoleUntil: now.Add(-time.Minute).UnixMilli(),
		}), http.StatusForbidden, "EXPIRED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, _, err := tv.GenerateToken(tc.user)
			require.NoError(t, err)
			status, body := doRequest(t, app, bearer(token))
			assert.Equal(t, tc.status, status)
			if tc.code != "" {
				assert.Equal(t, tc.code, body["code"])
			}
		})
	}
}

func TestRequireCurrentSession(t *testing.T) {
	tv := NewTokenVerifier(testSecret, time.Minute)
	registry := session.NewMemoryRegistry()
	require.NoError(t, registry.Remember(context.Background(), "u-1", "s-new", time.Hour))

	app := newTestApp(NewAuthMiddleware(tv, nil, nil).Handle, RequireCurrentSession(registry, nil))

	stale, _, err := tv.GenerateToken(member("u-1", []string{"active"}, map[string]any{domain.MetaCurrentSession: "s-old"}))
	require.NoError(t, err)
	status, body := doRequest(t, app, bearer(stale))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "SESSION_SUPERSEDED", body["code"])

	fresh, _, err := tv.GenerateToken(member("u-1", []string{"active"}, map[string]any{domain.MetaCurrentSession: "s-new"}))
	require.NoError(t, err)
	status, _ = doRequest(t, app, bearer(fresh))
	assert.Equal(t, http.StatusOK, status)

	unknown, _, err := tv.GenerateToken(member("u-9", []string{"active"}, map[string]any{domain.MetaCurrentSession: "s-x"}))
	require.NoError(t, err)
	status, _ = doRequest(t, app, bearer(unknown))
	assert.Equal(t, http.StatusOK, status, "registry miss never rejects")

	app = newTestApp(NewAuthMiddleware(tv, nil, nil).Handle, RequireCurrentSession(failingRegistry{}, nil))
	status, _ = doRequest(t, app, bearer(stale))
	assert.Equal(t, http.StatusOK, status, "registry failure never rejects")
}
