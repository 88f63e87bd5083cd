package guard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chemdisk/members/internal/domain"
	"github.com/chemdisk/members/internal/schedule"
)

// SessionPollInterval is how often the watcher compares session versions.
const SessionPollInterval = 30 * time.Second

// SessionWatcher detects a login on another device by comparing the
// authoritative current_session with the locally remembered copy.
type SessionWatcher struct {
	identity   IdentityClient
	store      Store
	scheduler  schedule.Scheduler
	logger     *zap.Logger
	onMismatch func()

	mu     sync.Mutex
	task   schedule.Task
	active bool
}

// NewSessionWatcher builds a watcher. onMismatch runs at most once per Start.
func NewSessionWatcher(identity IdentityClient, store Store, scheduler schedule.Scheduler, logger *zap.Logger, onMismatch func()) *SessionWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionWatcher{
		identity:   identity,
		store:      store,
		scheduler:  scheduler,
		logger:     logger,
		onMismatch: onMismatch,
	}
}

// Seed stores the authoritative session version locally. The token is force
// refreshed so stale claims are never trusted.
func (w *SessionWatcher) Seed(ctx context.Context) {
	if w.identity.CurrentUser() == nil {
		w.store.Delete(KeySessionVersion)
		return
	}
	ver, err := w.remoteVersion(ctx)
	if err != nil {
		w.logger.Debug("seed session version failed", zap.Error(err))
		return
	}
	if ver != "" {
		w.store.Set(KeySessionVersion, ver)
	}
}

// Start begins polling, checking once immediately. A running watcher is
// restarted.
func (w *SessionWatcher) Start(ctx context.Context) {
	w.Stop()

	w.mu.Lock()
	w.active = true
	w.task = w.scheduler.Every(SessionPollInterval, func() { w.Check(ctx) })
	w.mu.Unlock()

	w.Check(ctx)
}

// Stop ends polling. It is safe to call on a stopped watcher.
func (w *SessionWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = false
	if w.task != nil {
		w.task.Stop()
		w.task = nil
	}
}

// Running reports whether the watcher is polling.
func (w *SessionWatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Check compares versions once. Fetch failures are ignored; the next poll
// retries. A missing local copy is re-seeded from the server.
func (w *SessionWatcher) Check(ctx context.Context) {
	if !w.Running() || w.identity.CurrentUser() == nil {
		return
	}
	server, err := w.remoteVersion(ctx)
	if err != nil {
		w.logger.Debug("session check failed", zap.Error(err))
		return
	}
	if server == "" {
		return
	}
	local, _ := w.store.Get(KeySessionVersion)
	if local == "" {
		// The seed failed earlier; adopt the server copy so later polls compare.
		w.store.Set(KeySessionVersion, server)
		return
	}
	if server == local {
		return
	}

	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		return
	}
	w.active = false
	if w.task != nil {
		w.task.Stop()
		w.task = nil
	}
	w.mu.Unlock()

	w.logger.Info("session replaced on another device")
	w.onMismatch()
}

func (w *SessionWatcher) remoteVersion(ctx context.Context) (string, error) {
	token, err := w.identity.Token(ctx, true)
	if err != nil {
		return "", err
	}
	user, err := w.identity.FetchUser(ctx, token)
	if err != nil {
		return "", err
	}
	return user.MetaString(domain.MetaCurrentSession), nil
}
