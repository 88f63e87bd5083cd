// Package guard is the page-side membership guard: it reconciles the identity
// widget's state with the path being viewed, keeps the nf_jwt cookie fresh,
// logs the user out when another device takes over the session and when the
// wall-clock session budget runs out.
//
// Browser facilities are injected so the controller runs unchanged in tests.
package guard

import (
	"context"
	"net/http"
	"sync"

	"github.com/chemdisk/members/internal/domain"
)

// IdentityClient is the identity widget as seen by the guard.
type IdentityClient interface {
	// CurrentUser returns the locally cached user, nil when signed out.
	CurrentUser() *domain.User
	// Token returns an access token, refreshing it when force is set.
	Token(ctx context.Context, force bool) (string, error)
	// FetchUser loads the authoritative record from the identity provider.
	FetchUser(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context) error
}

// Navigator exposes the current location.
type Navigator interface {
	Path() string
	Hostname() string
	// Replace navigates without adding a history entry.
	Replace(path string)
}

// Store is a string key/value store such as sessionStorage.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// CookieJar receives cookies written by the guard.
type CookieJar interface {
	SetCookie(cookie *http.Cookie)
}

// View renders guard state.
type View interface {
	SetSignedIn(signedIn bool)
	SetMembersLink(visible bool)
	RenderProfile(profile Profile)
	RenderSessionTimer(text string)
}

type nopView struct{}

func (nopView) SetSignedIn(bool)          {}
func (nopView) SetMembersLink(bool)       {}
func (nopView) RenderProfile(Profile)     {}
func (nopView) RenderSessionTimer(string) {}

// MemoryStore is a Store backed by a map.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}
