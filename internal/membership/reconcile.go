package membership

import (
	"time"

	"github.com/chemdisk/members/internal/domain"
)

// Previous is the grant state persisted on the record by the last login.
type Previous struct {
	Tag    domain.Role
	Window Window
}

// PreviousFromMeta reads the persisted grant from session metadata.
func PreviousFromMeta(m domain.SessionMeta) Previous {
	return Previous{
		Tag:    m.PaidRoleTag,
		Window: Window{Since: m.PaidRoleSince, Until: m.PaidRoleUntil},
	}
}

// Grant is the outcome of reconciling an identity record at login.
type Grant struct {
	Tag        domain.Role
	Window     Window
	Roles      []domain.Role
	Status     domain.MembershipStatus
	TagChanged bool
}

// Reconcile recomputes the paid window and the role set for a login at now.
// The window restarts only when the assigned tag changed or no window exists,
// so logging in again with the same tag never extends it.
func Reconcile(roles []domain.Role, prev Previous, now time.Time) Grant {
	tag := GrantTag(roles)
	changed := tag != "" && tag != prev.Tag
	window := prev.Window

	switch {
	case IsTimeLimited(tag):
		if changed || window.Until.IsZero() {
			window = Window{Since: now, Until: now.Add(GrantDuration(tag))}
		}
	case tag == domain.RoleAdmin || tag == domain.RoleActive:
		if window.Since.IsZero() {
			window.Since = now
		}
		window.Until = time.Time{}
	default:
		window = Window{}
	}

	active := tag == domain.RoleAdmin || tag == domain.RoleActive ||
		(IsTimeLimited(tag) && now.Before(window.Until))

	next := append([]domain.Role(nil), roles...)
	if active {
		next = addRole(next, domain.RoleActive)
		next = removeRole(next, domain.RolePending)
	} else {
		next = removeRole(next, domain.RoleActive)
		next = addRole(next, domain.RolePending)
	}
	if len(next) == 0 {
		next = []domain.Role{domain.RolePending}
	}

	status := domain.StatusPending
	if active {
		status = domain.StatusActive
	}

	return Grant{
		Tag:        tag,
		Window:     window,
		Roles:      next,
		Status:     status,
		TagChanged: changed,
	}
}

func addRole(roles []domain.Role, r domain.Role) []domain.Role {
	if domain.HasRole(roles, r) {
		return roles
	}
	return append(roles, r)
}

func removeRole(roles []domain.Role, r domain.Role) []domain.Role {
	out := roles[:0]
	for _, candidate := range roles {
		if candidate != r {
			out = append(out, candidate)
		}
	}
	return out
}
