// Package session keeps the server-side copy of each user's current session
// fingerprint, the value the identity login hook regenerates on every login.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no fingerprint is recorded for a user.
var ErrNotFound = errors.New("session: no current session recorded")

// Registry stores the current session fingerprint per user.
type Registry interface {
	Remember(ctx context.Context, userID, sessionID string, ttl time.Duration) error
	Current(ctx context.Context, userID string) (string, error)
	Forget(ctx context.Context, userID string) error
}

// NewSessionID returns a fresh opaque session fingerprint.
func NewSessionID() string {
	return uuid.NewString()
}

// MemoryRegistry is an in-process Registry used when Redis is not configured
// and in tests.
type MemoryRegistry struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	sessionID string
	expiresAt time.Time
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{now: time.Now, entries: make(map[string]memoryEntry)}
}

func (r *MemoryRegistry) Remember(_ context.Context, userID, sessionID string, ttl time.Duration) error {
	if userID == "" || sessionID == "" {
		return errors.New("session: user and session id required")
	}
	entry := memoryEntry{sessionID: sessionID}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = entry
	return nil
}

func (r *MemoryRegistry) Current(_ context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[userID]
	if !ok {
		return "", ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		delete(r.entries, userID)
		return "", ErrNotFound
	}
	return entry.sessionID, nil
}

func (r *MemoryRegistry) Forget(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
	return nil
}
