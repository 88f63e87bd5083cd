package guard

import (
	"fmt"
	"sync"
	"time"

	"github.com/chemdisk/members/internal/domain"
	"github.com/chemdisk/members/internal/schedule"
)

const (
	// DefaultSessionBudget applies when a record has a start time but no budget.
	DefaultSessionBudget = 5 * time.Hour
	ExpiryTickInterval   = time.Second
	ExpiryPollInterval   = 30 * time.Second

	timerExpiredText = "Session expired"
)

// FormatRemaining renders d as HH:MM:SS, clamping negatives to zero.
func FormatRemaining(d time.Duration) string {
	s := int64(d / time.Second)
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// sessionDeadline returns when the user's session budget ends. fallback is
// used when the record carries a start but no budget; zero disables that.
func sessionDeadline(u *domain.User, fallback time.Duration) (time.Time, bool) {
	if u == nil {
		return time.Time{}, false
	}
	meta := u.Session()
	if meta.StartedAt.IsZero() {
		return time.Time{}, false
	}
	if meta.MaxSeconds <= 0 {
		if fallback <= 0 {
			return time.Time{}, false
		}
		return meta.StartedAt.Add(fallback), true
	}
	return meta.SessionDeadline()
}

// expiryLatch runs the expiry action once until it is re-armed.
type expiryLatch struct {
	mu    sync.Mutex
	fired bool
}

func (l *expiryLatch) fire(fn func()) bool {
	l.mu.Lock()
	if l.fired {
		l.mu.Unlock()
		return false
	}
	l.fired = true
	l.mu.Unlock()
	fn()
	return true
}

func (l *expiryLatch) rearm() {
	l.mu.Lock()
	l.fired = false
	l.mu.Unlock()
}

// ExpiryTimer counts down the session budget once per second.
type ExpiryTimer struct {
	scheduler schedule.Scheduler
	view      View
	latch     *expiryLatch
	onExpire  func()

	mu       sync.Mutex
	task     schedule.Task
	deadline time.Time
	running  bool
}

func newExpiryTimer(scheduler schedule.Scheduler, view View, latch *expiryLatch, onExpire func()) *ExpiryTimer {
	return &ExpiryTimer{scheduler: scheduler, view: view, latch: latch, onExpire: onExpire}
}

// Start counts down to deadline, replacing any running countdown.
func (t *ExpiryTimer) Start(deadline time.Time) {
	t.Stop()

	t.mu.Lock()
	t.deadline = deadline
	t.running = true
	t.task = t.scheduler.Every(ExpiryTickInterval, t.tick)
	t.mu.Unlock()

	t.tick()
}

// Stop cancels the countdown.
func (t *ExpiryTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	if t.task != nil {
		t.task.Stop()
		t.task = nil
	}
}

// Running reports whether the countdown is active.
func (t *ExpiryTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *ExpiryTimer) tick() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	left := t.deadline.Sub(t.scheduler.Now())
	t.mu.Unlock()

	if left > 0 {
		t.view.RenderSessionTimer("Session time left: " + FormatRemaining(left))
		return
	}
	t.view.RenderSessionTimer(timerExpiredText)
	t.Stop()
	t.latch.fire(t.onExpire)
}

// ExpiryPoller checks the session budget every 30s on pages without a timer.
type ExpiryPoller struct {
	identity  IdentityClient
	scheduler schedule.Scheduler
	latch     *expiryLatch
	onExpire  func()

	mu      sync.Mutex
	task    schedule.Task
	running bool
}

func newExpiryPoller(identity IdentityClient, scheduler schedule.Scheduler, latch *expiryLatch, onExpire func()) *ExpiryPoller {
	return &ExpiryPoller{identity: identity, scheduler: scheduler, latch: latch, onExpire: onExpire}
}

// Start begins polling, checking once immediately.
func (p *ExpiryPoller) Start() {
	p.Stop()

	p.mu.Lock()
	p.running = true
	p.task = p.scheduler.Every(ExpiryPollInterval, p.Check)
	p.mu.Unlock()

	p.Check()
}

// Stop ends polling.
func (p *ExpiryPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	if p.task != nil {
		p.task.Stop()
		p.task = nil
	}
}

// Running reports whether the poller is active.
func (p *ExpiryPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Check fires the expiry action when the current user's budget has elapsed.
func (p *ExpiryPoller) Check() {
	if !p.Running() {
		return
	}
	deadline, ok := sessionDeadline(p.identity.CurrentUser(), 0)
	if !ok || p.scheduler.Now().Before(deadline) {
		return
	}
	p.Stop()
	p.latch.fire(p.onExpire)
}
