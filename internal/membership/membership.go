// Package membership derives effective membership status from role tags and
// the paid time window stored on the identity record.
package membership

import (
	"time"

	"github.com/chemdisk/members/internal/domain"
)

// Grant lengths for time-limited tags.
const (
	HourGrant  = time.Hour
	MonthGrant = 30 * 24 * time.Hour
	YearGrant  = 365 * 24 * time.Hour
)

// Window bounds a time-limited grant. A zero Until means no expiry.
type Window struct {
	Since time.Time
	Until time.Time
}

// Effective is the result of evaluating roles at an instant.
type Effective struct {
	Role      domain.Role
	Status    domain.MembershipStatus
	ExpiresAt *time.Time
}

// Active reports whether the effective status is active.
func (e Effective) Active() bool { return e.Status == domain.StatusActive }

// IsTimeLimited reports whether r is one of hour, month or year.
func IsTimeLimited(r domain.Role) bool {
	return r == domain.RoleHour || r == domain.RoleMonth || r == domain.RoleYear
}

// GrantDuration returns the window length for a time-limited tag, zero otherwise.
func GrantDuration(r domain.Role) time.Duration {
	switch r {
	case domain.RoleHour:
		return HourGrant
	case domain.RoleMonth:
		return MonthGrant
	case domain.RoleYear:
		return YearGrant
	default:
		return 0
	}
}

// Evaluate maps role tags and a window to the effective status at now.
// admin and active are unconditionally active; a time-limited tag is active
// strictly before Until and pending from Until on.
func Evaluate(roles []domain.Role, w Window, now time.Time) Effective {
	if domain.HasRole(roles, domain.RoleAdmin) {
		return Effective{Role: domain.RoleAdmin, Status: domain.StatusActive}
	}
	if domain.HasRole(roles, domain.RoleActive) {
		return Effective{Role: domain.RoleActive, Status: domain.StatusActive}
	}
	if tag := timeLimitedTag(roles); tag != "" {
		if w.Until.IsZero() {
			return Effective{Role: domain.RolePending, Status: domain.StatusPending}
		}
		until := w.Until
		if now.Before(until) {
			return Effective{Role: tag, Status: domain.StatusActive, ExpiresAt: &until}
		}
		return Effective{Role: domain.RolePending, Status: domain.StatusPending, ExpiresAt: &until}
	}
	return Effective{Role: domain.RolePending, Status: domain.StatusPending}
}

// GrantTag picks the administrator-assigned tag that drives the paid window.
// Priority is admin, then the longest time-limited tag, then active. An active
// tag sitting next to a time-limited one is the marker added by a previous
// login and does not count as a permanent grant.
func GrantTag(roles []domain.Role) domain.Role {
	if domain.HasRole(roles, domain.RoleAdmin) {
		return domain.RoleAdmin
	}
	if tag := timeLimitedTag(roles); tag != "" {
		return tag
	}
	if domain.HasRole(roles, domain.RoleActive) {
		return domain.RoleActive
	}
	return ""
}

func timeLimitedTag(roles []domain.Role) domain.Role {
	for _, r := range []domain.Role{domain.RoleYear, domain.RoleMonth, domain.RoleHour} {
		if domain.HasRole(roles, r) {
			return r
		}
	}
	return ""
}
