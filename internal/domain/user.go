package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Role is a tag stored in app_metadata.roles.
type Role string

const (
	RolePending Role = "pending"
	RoleHour    Role = "hour"
	RoleMonth   Role = "month"
	RoleYear    Role = "year"
	RoleActive  Role = "active"
	RoleAdmin   Role = "admin"
)

// MembershipStatus is the effective status derived from roles and the paid window.
type MembershipStatus string

const (
	StatusPending MembershipStatus = "pending"
	StatusActive  MembershipStatus = "active"
)

// Keys managed by the login hook inside user_metadata.
const (
	MetaPaidRoleTag       = "paid_role_tag"
	MetaPaidRoleSince     = "paid_role_since"
	MetaPaidRoleUntil     = "paid_role_until"
	MetaCurrentSession    = "current_session"
	MetaSessionStartedAt  = "session_started_at"
	MetaSessionMaxSeconds = "session_max_seconds"
)

// AppMetadata is the admin-controlled namespace of the identity record.
type AppMetadata struct {
	Roles []string `json:"roles"`
}

// User mirrors the identity provider's user record. UserMetadata is kept as a
// free-form map so keys the gateway does not manage survive a round trip.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	AppMetadata  AppMetadata    `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// Roles returns the role tags as typed values.
func (u *User) Roles() []Role {
	if u == nil {
		return nil
	}
	return ParseRoles(u.AppMetadata.Roles)
}

// ParseRoles converts raw role strings, trimming blanks.
func ParseRoles(raw []string) []Role {
	out := make([]Role, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, Role(r))
	}
	return out
}

// RoleStrings converts typed roles back to their wire form.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// HasRole reports whether r is present in roles.
func HasRole(roles []Role, r Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

// MetaString reads a string value from user_metadata.
func (u *User) MetaString(key string) string {
	if u == nil || u.UserMetadata == nil {
		return ""
	}
	v, _ := u.UserMetadata[key].(string)
	return v
}

// MetaInt64 reads a numeric value from user_metadata. Numbers decoded from JSON
// arrive as float64 or json.Number; numeric strings are accepted as well.
func (u *User) MetaInt64(key string) int64 {
	if u == nil || u.UserMetadata == nil {
		return 0
	}
	switch v := u.UserMetadata[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0
			}
			return int64(f)
		}
		return n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// SessionMeta is the typed view of the managed user_metadata keys.
type SessionMeta struct {
	PaidRoleTag    Role
	PaidRoleSince  time.Time
	PaidRoleUntil  time.Time
	CurrentSession string
	StartedAt      time.Time
	MaxSeconds     int64
}

// Session extracts the managed metadata fields.
func (u *User) Session() SessionMeta {
	return SessionMeta{
		PaidRoleTag:    Role(u.MetaString(MetaPaidRoleTag)),
		PaidRoleSince:  MillisToTime(u.MetaInt64(MetaPaidRoleSince)),
		PaidRoleUntil:  MillisToTime(u.MetaInt64(MetaPaidRoleUntil)),
		CurrentSession: u.MetaString(MetaCurrentSession),
		StartedAt:      MillisToTime(u.MetaInt64(MetaSessionStartedAt)),
		MaxSeconds:     u.MetaInt64(MetaSessionMaxSeconds),
	}
}

// SessionDeadline returns when the wall-clock session budget runs out. The
// second value is false when the record carries no budget.
func (m SessionMeta) SessionDeadline() (time.Time, bool) {
	if m.StartedAt.IsZero() || m.MaxSeconds <= 0 {
		return time.Time{}, false
	}
	return m.StartedAt.Add(time.Duration(m.MaxSeconds) * time.Second), true
}

// MillisToTime converts epoch milliseconds; zero and negatives map to the zero time.
func MillisToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// TimeToMillis converts to epoch milliseconds; the zero time maps to 0.
func TimeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
