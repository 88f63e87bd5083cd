package guard

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/chemdisk/members/internal/domain"
)

var errNetwork = errors.New("network down")

type fakeIdentity struct {
	mu          sync.Mutex
	user        *domain.User
	server      *domain.User
	cachedErr   error
	refreshErr  error
	fetchErr    error
	logouts     int
	tokenCalls  int
	fetchTokens []string
}

func (f *fakeIdentity) CurrentUser() *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

func (f *fakeIdentity) Token(_ context.Context, force bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	if f.user == nil {
		return "", errors.New("signed out")
	}
	if force {
		if f.refreshErr != nil {
			return "", f.refreshErr
		}
		return "fresh-token", nil
	}
	if f.cachedErr != nil {
		return "", f.cachedErr
	}
	return "cached-token", nil
}

func (f *fakeIdentity) FetchUser(_ context.Context, token string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchTokens = append(f.fetchTokens, token)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.server, nil
}

func (f *fakeIdentity) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.user = nil
	return nil
}

func (f *fakeIdentity) setServerSession(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta := map[string]any{}
	for k, v := range f.server.UserMetadata {
		meta[k] = v
	}
	meta[domain.MetaCurrentSession] = id
	f.server = &domain.User{ID: f.server.ID, Email: f.server.Email, AppMetadata: f.server.AppMetadata, UserMetadata: meta}
}

func (f *fakeIdentity) logoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logouts
}

type fakeNavigator struct {
	path     string
	host     string
	replaced []string
	onPath   func()
}

func (n *fakeNavigator) Path() string {
	if n.onPath != nil {
		n.onPath()
	}
	return n.path
}

func (n *fakeNavigator) Hostname() string { return n.host }

func (n *fakeNavigator) Replace(path string) {
	n.replaced = append(n.replaced, path)
	n.path = path
}

type fakeJar struct {
	cookies []*http.Cookie
}

func (j *fakeJar) SetCookie(c *http.Cookie) { j.cookies = append(j.cookies, c) }

func (j *fakeJar) last() *http.Cookie {
	if len(j.cookies) == 0 {
		return nil
	}
	return j.cookies[len(j.cookies)-1]
}

type fakeView struct {
	mu       sync.Mutex
	signedIn bool
	members  bool
	profiles []Profile
	timer    []string
}

func (v *fakeView) SetSignedIn(b bool)    { v.mu.Lock(); v.signedIn = b; v.mu.Unlock() }
func (v *fakeView) SetMembersLink(b bool) { v.mu.Lock(); v.members = b; v.mu.Unlock() }

func (v *fakeView) RenderProfile(p Profile) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.profiles = append(v.profiles, p)
}

func (v *fakeView) RenderSessionTimer(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timer = append(v.timer, text)
}

func (v *fakeView) lastTimer() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.timer) == 0 {
		return ""
	}
	return v.timer[len(v.timer)-1]
}
