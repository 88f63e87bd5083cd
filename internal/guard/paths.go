package guard

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	PathHome        = "/"
	PathDashboard   = "/dashboard.html"
	PathLoginBase   = "/login"
	PathMembersBase = "/members"
)

// Store keys used by the guard.
const (
	KeyLastNavPath    = "lastNavPath"
	KeyLastNavTs      = "lastNavTs"
	KeySessionVersion = "cd_session_ver"
)

// RedirectDebounce suppresses a repeated redirect to the same path.
const RedirectDebounce = 2 * time.Second

var homePaths = []string{"/", "/index.html"}

// Page classifies a location for the routing policy.
type Page int

const (
	PageOther Page = iota
	PageHome
	PageLogin
	PageDashboard
	PageMembers
)

func (p Page) String() string {
	switch p {
	case PageHome:
		return "home"
	case PageLogin:
		return "login"
	case PageDashboard:
		return "dashboard"
	case PageMembers:
		return "members"
	default:
		return "other"
	}
}

// Protected reports whether the page requires a signed-in user.
func (p Page) Protected() bool {
	return p == PageDashboard || p == PageMembers
}

// Normalize drops a trailing slash from every path except the root.
func Normalize(path string) string {
	if path != "/" && strings.HasSuffix(path, "/") {
		return strings.TrimSuffix(path, "/")
	}
	return path
}

// Classify maps a raw location path to its page category.
func Classify(path string) Page {
	for _, home := range homePaths {
		if path == home {
			return PageHome
		}
	}
	p := Normalize(path)
	switch {
	case strings.HasPrefix(p, Normalize(PathLoginBase)):
		return PageLogin
	case p == Normalize(PathDashboard):
		return PageDashboard
	case p == PathMembersBase || strings.HasPrefix(p, PathMembersBase+"/"):
		return PageMembers
	default:
		return PageOther
	}
}

// LoginPath is the login surface redirect target.
func LoginPath() string {
	return Normalize(PathLoginBase) + "/"
}

// redirector navigates while refusing self-redirects and redirect storms.
type redirector struct {
	nav    Navigator
	store  Store
	now    func() time.Time
	logger *zap.Logger

	mu sync.Mutex
}

// Go replaces the location with path unless the browser is already there or
// the same redirect was issued less than RedirectDebounce ago.
func (r *redirector) Go(path string) bool {
	path = Normalize(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	if Normalize(r.nav.Path()) == path {
		return false
	}
	now := r.now()
	if last, ok := r.store.Get(KeyLastNavPath); ok && last == path {
		ts, _ := r.store.Get(KeyLastNavTs)
		lastMs, _ := strconv.ParseInt(ts, 10, 64)
		if now.UnixMilli()-lastMs < RedirectDebounce.Milliseconds() {
			r.logger.Debug("redirect suppressed", zap.String("path", path))
			return false
		}
	}
	r.store.Set(KeyLastNavPath, path)
	r.store.Set(KeyLastNavTs, strconv.FormatInt(now.UnixMilli(), 10))
	r.logger.Debug("redirect", zap.String("from", r.nav.Path()), zap.String("to", path))
	r.nav.Replace(path)
	return true
}
