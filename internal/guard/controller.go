package guard

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/chemdisk/members/internal/domain"
	"github.com/chemdisk/members/internal/membership"
	"github.com/chemdisk/members/internal/schedule"
)

// Options wires the controller's collaborators. Identity, Navigator, Store,
// Cookies and Scheduler are required.
type Options struct {
	Identity  IdentityClient
	Navigator Navigator
	Store     Store
	Cookies   CookieJar
	View      View
	Scheduler schedule.Scheduler
	Logger    *zap.Logger
}

// Controller owns the guard state for one page load.
type Controller struct {
	identity IdentityClient
	nav      Navigator
	store    Store
	cookies  CookieJar
	view     View
	clock    schedule.Scheduler
	logger   *zap.Logger
	redirect *redirector

	watcher *SessionWatcher
	timer   *ExpiryTimer
	poller  *ExpiryPoller
	latch   *expiryLatch

	mu           sync.Mutex
	ctx          context.Context
	bootstrapped bool
	ready        bool
	evaluating   bool
	rerun        bool
	painting     bool
}

// New builds a controller.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	view := opts.View
	if view == nil {
		view = nopView{}
	}
	c := &Controller{
		identity: opts.Identity,
		nav:      opts.Navigator,
		store:    opts.Store,
		cookies:  opts.Cookies,
		view:     view,
		clock:    opts.Scheduler,
		logger:   logger,
		latch:    &expiryLatch{},
		ctx:      context.Background(),
	}
	c.redirect = &redirector{nav: opts.Navigator, store: opts.Store, now: opts.Scheduler.Now, logger: logger}
	c.watcher = NewSessionWatcher(opts.Identity, opts.Store, opts.Scheduler, logger, c.handleSessionMismatch)
	c.timer = newExpiryTimer(opts.Scheduler, view, c.latch, c.handleSessionExpired)
	c.poller = newExpiryPoller(opts.Identity, opts.Scheduler, c.latch, c.handleSessionExpired)
	return c
}

// Start bootstraps the controller once and evaluates the current page.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.bootstrapped {
		c.mu.Unlock()
		return
	}
	c.bootstrapped = true
	c.ctx = ctx
	c.mu.Unlock()

	c.view.SetSignedIn(c.identity.CurrentUser() != nil)
	c.Run()
}

// Stop cancels every timer and poller.
func (c *Controller) Stop() {
	c.stopTimers()
	c.mu.Lock()
	c.bootstrapped = false
	c.mu.Unlock()
}

// Running reports whether Start has been called and Stop has not.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bootstrapped
}

// Watcher exposes the session watcher.
func (c *Controller) Watcher() *SessionWatcher { return c.watcher }

// Timer exposes the expiry countdown.
func (c *Controller) Timer() *ExpiryTimer { return c.timer }

// Poller exposes the expiry poller.
func (c *Controller) Poller() *ExpiryPoller { return c.poller }

func (c *Controller) context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// Run evaluates the routing policy. Calls made while an evaluation is in
// flight collapse into a single trailing rerun.
func (c *Controller) Run() {
	c.mu.Lock()
	if c.evaluating {
		c.rerun = true
		c.mu.Unlock()
		return
	}
	c.evaluating = true
	c.mu.Unlock()

	for {
		c.evaluate()

		c.mu.Lock()
		if !c.rerun {
			c.evaluating = false
			c.mu.Unlock()
			return
		}
		c.rerun = false
		c.mu.Unlock()
	}
}

func (c *Controller) evaluate() {
	ctx := c.context()
	user := c.identity.CurrentUser()
	page := Classify(c.nav.Path())

	switch {
	case page == PageHome:
		if user != nil {
			c.redirect.Go(PathDashboard)
		}
	case page == PageLogin:
		if user != nil && c.ensureFreshToken(ctx) {
			c.redirect.Go(PathDashboard)
		}
	case page.Protected():
		if user == nil {
			if c.isReady() {
				c.redirect.Go(LoginPath())
			}
			return
		}
		if page == PageMembers && membership.RequireActive(user, c.clock.Now()) != nil {
			c.redirect.Go(PathDashboard)
			return
		}
		c.startTimer(user)
		c.paint(ctx)
	default:
		if user != nil {
			c.paint(ctx)
		}
	}
}

func (c *Controller) isReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// OnInit handles the identity widget's init event.
func (c *Controller) OnInit(user *domain.User) {
	c.mu.Lock()
	c.ready = true
	c.mu.Unlock()

	ctx := c.context()
	c.view.SetSignedIn(user != nil)
	if user != nil {
		if !c.ensureFreshToken(ctx) {
			c.Run()
			return
		}
		c.startSessionTracking(ctx)
	} else {
		c.clearSession()
		c.stopTimers()
	}
	c.Run()
}

// OnLogin handles a completed login.
func (c *Controller) OnLogin(user *domain.User) {
	ctx := c.context()
	c.view.SetSignedIn(user != nil)
	if !c.ensureFreshToken(ctx) {
		return
	}
	c.latch.rearm()
	c.startSessionTracking(ctx)
	c.redirect.Go(PathDashboard)
}

// OnLogout handles a logout from any source.
func (c *Controller) OnLogout() {
	c.view.SetSignedIn(false)
	c.clearSession()
	c.stopTimers()
	c.redirect.Go(PathHome)
}

// OnVisible handles the page becoming visible again.
func (c *Controller) OnVisible() {
	c.Run()
	ctx := c.context()
	c.watcher.Check(ctx)
	c.poller.Check()
}

// OnPageShow handles a page being shown, including from the back/forward cache.
func (c *Controller) OnPageShow() {
	c.Run()
}

// OnStorage handles a storage change made by another tab.
func (c *Controller) OnStorage(key string) {
	if strings.Contains(key, "gotrue.user") {
		c.Run()
	}
}

// RequestLogin sends the browser to the login surface.
func (c *Controller) RequestLogin() {
	c.redirect.Go(LoginPath())
}

// RequestLogout logs the user out; the identity widget reports back via OnLogout.
func (c *Controller) RequestLogout() {
	if err := c.identity.Logout(c.context()); err != nil {
		c.logger.Warn("logout failed", zap.Error(err))
	}
}

func (c *Controller) startSessionTracking(ctx context.Context) {
	c.watcher.Seed(ctx)
	c.watcher.Start(ctx)
	c.startTimer(c.identity.CurrentUser())
	c.poller.Start()
}

func (c *Controller) startTimer(user *domain.User) {
	deadline, ok := sessionDeadline(user, DefaultSessionBudget)
	if !ok {
		c.timer.Stop()
		return
	}
	c.timer.Start(deadline)
}

func (c *Controller) stopTimers() {
	c.watcher.Stop()
	c.timer.Stop()
	c.poller.Stop()
}

// ensureFreshToken stores a usable token in the nf_jwt cookie, trying the
// cached token first and a forced refresh second. When both fail the user is
// logged out and the caller must not redirect.
func (c *Controller) ensureFreshToken(ctx context.Context) bool {
	if c.identity.CurrentUser() == nil {
		c.cookies.SetCookie(ClearedJWTCookie())
		return false
	}
	for _, force := range []bool{false, true} {
		token, err := c.identity.Token(ctx, force)
		if err == nil && token != "" {
			c.cookies.SetCookie(JWTCookie(token, c.nav.Hostname()))
			return true
		}
	}

	c.logger.Info("token refresh failed, logging out")
	c.cookies.SetCookie(ClearedJWTCookie())
	if err := c.identity.Logout(ctx); err != nil {
		c.logger.Warn("logout failed", zap.Error(err))
	}
	return false
}

func (c *Controller) paint(ctx context.Context) {
	c.mu.Lock()
	if c.painting {
		c.mu.Unlock()
		return
	}
	c.painting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.painting = false
		c.mu.Unlock()
	}()

	user := c.identity.CurrentUser()
	c.view.SetSignedIn(user != nil)
	if user == nil {
		return
	}

	_, _ = c.identity.Token(ctx, true)
	if refreshed := c.identity.CurrentUser(); refreshed != nil {
		user = refreshed
	}
	if token, err := c.identity.Token(ctx, false); err == nil && token != "" {
		c.cookies.SetCookie(JWTCookie(token, c.nav.Hostname()))
	}
	c.view.SetSignedIn(true)

	profile := BuildProfile(user, c.clock.Now())
	c.view.RenderProfile(profile)
	c.view.SetMembersLink(profile.Status == domain.StatusActive)
}

func (c *Controller) clearSession() {
	c.cookies.SetCookie(ClearedJWTCookie())
	c.store.Delete(KeySessionVersion)
}

func (c *Controller) handleSessionMismatch() {
	ctx := c.context()
	c.clearSession()
	c.timer.Stop()
	c.poller.Stop()
	if err := c.identity.Logout(ctx); err != nil {
		c.logger.Warn("logout failed", zap.Error(err))
	}
	c.redirect.Go(LoginPath())
}

func (c *Controller) handleSessionExpired() {
	ctx := c.context()
	c.logger.Info("session budget elapsed")
	c.cookies.SetCookie(ClearedJWTCookie())
	c.stopTimers()
	if err := c.identity.Logout(ctx); err != nil {
		c.logger.Warn("logout failed", zap.Error(err))
	}
	c.redirect.Go(PathHome)
}
