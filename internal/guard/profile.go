package guard

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/chemdisk/members/internal/domain"
	"github.com/chemdisk/members/internal/membership"
)

const (
	hintActive  = "Your membership is active. The members area is unlocked."
	hintPending = "Status pending: ask an administrator to activate your account."
	hintExpired = "Your membership has expired. Ask an administrator to renew it."
)

// Profile is what the user panel shows.
type Profile struct {
	Email       string
	DisplayName string
	Username    string
	Status      domain.MembershipStatus
	Hint        string
}

// BuildProfile derives the panel contents from a user record. The status is
// the one the member gateways enforce at now.
func BuildProfile(u *domain.User, now time.Time) Profile {
	display, username := DeriveNames(u)
	status, hint := domain.StatusPending, hintPending
	switch err := membership.RequireActive(u, now); {
	case err == nil:
		status, hint = domain.StatusActive, hintActive
	case errors.Is(err, membership.ErrGrantExpired):
		hint = hintExpired
	}
	p := Profile{DisplayName: display, Username: username, Status: status, Hint: hint}
	if u != nil {
		p.Email = u.Email
	}
	return p
}

// DeriveNames picks a display name and a username from user_metadata, falling
// back to the local part of the email address.
func DeriveNames(u *domain.User) (displayName, username string) {
	if u == nil {
		return "", ""
	}
	local := emailLocalPart(u.Email)

	displayName = firstNonEmpty(
		u.MetaString("name"),
		u.MetaString("full_name"),
		u.MetaString("display_name"),
		local,
	)
	username = firstNonEmpty(
		u.MetaString("username"),
		u.MetaString("preferred_username"),
		stripSpaces(displayName),
		local,
	)
	return displayName, username
}

func emailLocalPart(email string) string {
	if email == "" {
		return ""
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
