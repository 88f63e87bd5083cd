package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemdisk/members/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func roles(rs ...domain.Role) []domain.Role { return rs }

func TestEvaluate_AdminAndActiveIgnoreWindow(t *testing.T) {
	expired := Window{Since: now.Add(-48 * time.Hour), Until: now.Add(-time.Hour)}
	for _, rs := range [][]domain.Role{
		roles(domain.RoleAdmin),
		roles(domain.RoleActive),
		roles(domain.RoleHour, domain.RoleActive),
		roles(domain.RolePending, domain.RoleAdmin, domain.RoleYear),
	} {
		eff := Evaluate(rs, expired, now)
		assert.Equal(t, domain.StatusActive, eff.Status, "roles %v", rs)
		assert.Nil(t, eff.ExpiresAt, "roles %v", rs)
	}
}

func TestEvaluate_TimeLimitedBoundary(t *testing.T) {
	until := now.Add(10 * time.Minute)
	w := Window{Since: until.Add(-HourGrant), Until: until}

	before := Evaluate(roles(domain.RoleHour), w, until.Add(-time.Nanosecond))
	assert.Equal(t, domain.StatusActive, before.Status)
	assert.Equal(t, domain.RoleHour, before.Role)
	require.NotNil(t, before.ExpiresAt)
	assert.True(t, before.ExpiresAt.Equal(until))

	at := Evaluate(roles(domain.RoleHour), w, until)
	assert.Equal(t, domain.StatusPending, at.Status)
	assert.Equal(t, domain.RolePending, at.Role)
}

func TestEvaluate_HourScenario(t *testing.T) {
	granted59 := now.Add(-59 * time.Minute)
	eff := Evaluate(roles(domain.RoleHour), Window{Since: granted59, Until: granted59.Add(HourGrant)}, now)
	assert.True(t, eff.Active())

	granted61 := now.Add(-61 * time.Minute)
	eff = Evaluate(roles(domain.RoleHour), Window{Since: granted61, Until: granted61.Add(HourGrant)}, now)
	assert.False(t, eff.Active())
}

func TestEvaluate_NoGrant(t *testing.T) {
	assert.Equal(t, domain.StatusPending, Evaluate(nil, Window{}, now).Status)
	assert.Equal(t, domain.StatusPending, Evaluate(roles(domain.RolePending), Window{}, now).Status)
	assert.Equal(t, domain.StatusPending, Evaluate(roles(domain.RoleMonth), Window{}, now).Status)
}

func TestGrantTag_Priority(t *testing.T) {
	assert.Equal(t, domain.RoleAdmin, GrantTag(roles(domain.RoleHour, domain.RoleAdmin)))
	assert.Equal(t, domain.RoleYear, GrantTag(roles(domain.RoleHour, domain.RoleYear)))
	assert.Equal(t, domain.RoleMonth, GrantTag(roles(domain.RoleActive, domain.RoleMonth)))
	assert.Equal(t, domain.RoleActive, GrantTag(roles(domain.RoleActive)))
	assert.Equal(t, domain.Role(""), GrantTag(roles(domain.RolePending)))
}

func TestEffectiveFor(t *testing.T) {
	user := func(rs []string, tag string, until time.Time) *domain.User {
		meta := map[string]any{}
		if tag != "" {
			meta[domain.MetaPaidRoleTag] = tag
			meta[domain.MetaPaidRoleUntil] = float64(until.UnixMilli())
		}
		return &domain.User{ID: "u", AppMetadata: domain.AppMetadata{Roles: rs}, UserMetadata: meta}
	}

	assert.True(t, EffectiveFor(user([]string{"admin"}, "hour", now.Add(-time.Hour)), now).Active())
	assert.True(t, EffectiveFor(user([]string{"active"}, "", time.Time{}), now).Active())
	assert.True(t, EffectiveFor(user([]string{"hour", "active"}, "hour", now.Add(time.Minute)), now).Active())
	assert.False(t, EffectiveFor(user([]string{"hour", "active"}, "hour", now.Add(-time.Minute)), now).Active())
	assert.False(t, EffectiveFor(user([]string{"active"}, "month", now), now).Active(), "window closes at until")
	assert.False(t, EffectiveFor(user(nil, "", time.Time{}), now).Active())
}

func TestReconcile_NewTimeLimitedGrant(t *testing.T) {
	g := Reconcile(roles(domain.RolePending, domain.RoleMonth), Previous{}, now)

	assert.Equal(t, domain.RoleMonth, g.Tag)
	assert.True(t, g.TagChanged)
	assert.True(t, g.Window.Since.Equal(now))
	assert.True(t, g.Window.Until.Equal(now.Add(MonthGrant)))
	assert.Equal(t, domain.StatusActive, g.Status)
	assert.Equal(t, roles(domain.RoleMonth, domain.RoleActive), g.Roles)
}

func TestReconcile_SameTagKeepsWindow(t *testing.T) {
	since := now.Add(-20 * time.Minute)
	prev := Previous{Tag: domain.RoleHour, Window: Window{Since: since, Until: since.Add(HourGrant)}}

	g := Reconcile(roles(domain.RoleHour, domain.RoleActive), prev, now)

	assert.False(t, g.TagChanged)
	assert.True(t, g.Window.Since.Equal(since))
	assert.True(t, g.Window.Until.Equal(since.Add(HourGrant)))
	assert.Equal(t, domain.StatusActive, g.Status)
}

func TestReconcile_SameTagExpiredDowngrades(t *testing.T) {
	since := now.Add(-61 * time.Minute)
	prev := Previous{Tag: domain.RoleHour, Window: Window{Since: since, Until: since.Add(HourGrant)}}

	g := Reconcile(roles(domain.RoleHour, domain.RoleActive), prev, now)

	assert.Equal(t, domain.StatusPending, g.Status)
	assert.True(t, g.Window.Since.Equal(since), "re-login must not reset the window")
	assert.Equal(t, roles(domain.RoleHour, domain.RolePending), g.Roles)
}

func TestReconcile_TagChangeResetsWindow(t *testing.T) {
	since := now.Add(-50 * time.Minute)
	prev := Previous{Tag: domain.RoleHour, Window: Window{Since: since, Until: since.Add(HourGrant)}}

	g := Reconcile(roles(domain.RoleMonth, domain.RoleActive), prev, now)

	assert.True(t, g.TagChanged)
	assert.True(t, g.Window.Since.Equal(now))
	assert.True(t, g.Window.Until.Equal(now.Add(MonthGrant)))
}

func TestReconcile_PermanentGrantClearsUntil(t *testing.T) {
	since := now.Add(-time.Hour)
	prev := Previous{Tag: domain.RoleHour, Window: Window{Since: since, Until: since.Add(HourGrant)}}

	g := Reconcile(roles(domain.RoleAdmin, domain.RolePending), prev, now)

	assert.Equal(t, domain.RoleAdmin, g.Tag)
	assert.True(t, g.Window.Since.Equal(since))
	assert.True(t, g.Window.Until.IsZero())
	assert.Equal(t, roles(domain.RoleAdmin, domain.RoleActive), g.Roles)
}

func TestReconcile_NoGrant(t *testing.T) {
	g := Reconcile(nil, Previous{Tag: domain.RoleHour, Window: Window{Since: now, Until: now}}, now)

	assert.Equal(t, domain.Role(""), g.Tag)
	assert.False(t, g.TagChanged)
	assert.Equal(t, Window{}, g.Window)
	assert.Equal(t, roles(domain.RolePending), g.Roles)
}

func TestReconcile_DoesNotAliasInput(t *testing.T) {
	in := roles(domain.RolePending, domain.RoleActive)
	_ = Reconcile(in, Previous{}, now)
	assert.Equal(t, roles(domain.RolePending, domain.RoleActive), in)
}

func TestRequireActive(t *testing.T) {
	user := func(rs []string, meta map[string]any) *domain.User {
		return &domain.User{AppMetadata: domain.AppMetadata{Roles: rs}, UserMetadata: meta}
	}

	assert.NoError(t, RequireActive(user([]string{"admin"}, nil), now))
	assert.ErrorIs(t, RequireActive(user([]string{"pending"}, nil), now), ErrNotMember)
	assert.ErrorIs(t, RequireActive(nil, now), ErrNotMember)
	assert.NoError(t, RequireActive(user([]string{"active"}, nil), now))

	open := map[string]any{
		domain.MetaPaidRoleTag:   "hour",
		domain.MetaPaidRoleUntil: float64(now.Add(time.Minute).UnixMilli()),
	}
	assert.NoError(t, RequireActive(user([]string{"hour", "active"}, open), now))

	closed := map[string]any{
		domain.MetaPaidRoleTag:   "hour",
		domain.MetaPaidRoleUntil: float64(now.UnixMilli()),
	}
	assert.ErrorIs(t, RequireActive(user([]string{"hour", "active"}, closed), now), ErrGrantExpired)
}
