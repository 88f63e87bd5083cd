package membership

import (
	"errors"
	"time"

	"github.com/chemdisk/members/internal/domain"
)

var (
	// ErrNotMember is returned when the caller holds none of the required roles.
	ErrNotMember = errors.New("membership: required role missing")
	// ErrGrantExpired is returned when a time-limited grant has run out even
	// though the token still carries the active marker.
	ErrGrantExpired = errors.New("membership: grant expired")
)

// RequireActive checks that a user may use member-only gateways at now.
// admin always passes. Otherwise the active role is required, and for
// time-limited grants the persisted window must still be open.
func RequireActive(u *domain.User, now time.Time) error {
	roles := u.Roles()
	if domain.HasRole(roles, domain.RoleAdmin) {
		return nil
	}
	if !domain.HasRole(roles, domain.RoleActive) {
		return ErrNotMember
	}
	if !EffectiveFor(u, now).Active() {
		return ErrGrantExpired
	}
	return nil
}

// EffectiveFor evaluates a user record at now. The active marker that the
// login hook adds next to a time-limited grant is set aside so the persisted
// window decides.
func EffectiveFor(u *domain.User, now time.Time) Effective {
	roles := u.Roles()
	meta := u.Session()
	if !domain.HasRole(roles, domain.RoleAdmin) && IsTimeLimited(meta.PaidRoleTag) && !meta.PaidRoleUntil.IsZero() {
		roles = addRole(removeRole(roles, domain.RoleActive), meta.PaidRoleTag)
	}
	return Evaluate(roles, Window{Since: meta.PaidRoleSince, Until: meta.PaidRoleUntil}, now)
}
