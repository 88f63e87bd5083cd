package events

import (
	"time"

	"github.com/chemdisk/members/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserSignedUp   EventType = "user_signed_up"
	EventSessionRotated EventType = "session_rotated"
	EventGrantChanged   EventType = "grant_changed"
	EventGrantLapsed    EventType = "grant_lapsed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionRotatedPayload payload.
type SessionRotatedPayload struct {
	SessionID  string    `json:"session_id"`
	StartedAt  time.Time `json:"started_at"`
	MaxSeconds int64     `json:"max_seconds"`
	Previous   string    `json:"previous,omitempty"`
}

// GrantChangedPayload payload.
type GrantChangedPayload struct {
	OldTag domain.Role `json:"old_tag,omitempty"`
	NewTag domain.Role `json:"new_tag,omitempty"`
	Since  time.Time   `json:"since"`
	Until  *time.Time  `json:"until,omitempty"`
}

// GrantLapsedPayload payload.
type GrantLapsedPayload struct {
	Tag   domain.Role `json:"tag"`
	Until time.Time   `json:"until"`
}
