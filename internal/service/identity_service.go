package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chemdisk/members/internal/config"
	"github.com/chemdisk/members/internal/domain"
	"github.com/chemdisk/members/internal/events"
	"github.com/chemdisk/members/internal/membership"
	"github.com/chemdisk/members/internal/session"
)

// ErrNoUser is returned when a hook payload carries no user.
var ErrNoUser = errors.New("no user in payload")

// MetadataPatch is what the identity provider merges into the user record
// after a signup or login hook.
type MetadataPatch struct {
	Roles        []string
	UserMetadata map[string]any
}

// IdentityService computes the metadata returned to the identity hooks.
type IdentityService struct {
	registry   session.Registry
	dispatcher events.Dispatcher
	logger     *zap.Logger
	budget     time.Duration
	now        func() time.Time
	newSession func() string
}

// NewIdentityService builds the service. registry and dispatcher may be nil.
func NewIdentityService(cfg config.IdentityConfig, registry session.Registry, dispatcher events.Dispatcher, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	budget := cfg.SessionBudget()
	if budget <= 0 {
		budget = 5 * time.Hour
	}
	return &IdentityService{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
		budget:     budget,
		now:        time.Now,
		newSession: session.NewSessionID,
	}
}

// Signup marks every new account as pending.
func (s *IdentityService) Signup(ctx context.Context, user *domain.User) (*MetadataPatch, error) {
	if user == nil {
		return nil, ErrNoUser
	}
	s.publish(ctx, events.EventUserSignedUp, user.ID, nil)
	return &MetadataPatch{Roles: []string{string(domain.RolePending)}}, nil
}

// Login reconciles the paid window and role set, starts a new session and
// records it as the user's current one. Keys in user_metadata the gateway
// does not manage are carried over untouched.
func (s *IdentityService) Login(ctx context.Context, user *domain.User) (*MetadataPatch, error) {
	if user == nil {
		return nil, ErrNoUser
	}
	now := s.now()
	meta := user.Session()
	prev := membership.PreviousFromMeta(meta)
	grant := membership.Reconcile(user.Roles(), prev, now)

	sessionID := s.newSession()
	budgetSeconds := int64(s.budget / time.Second)

	next := make(map[string]any, len(user.UserMetadata)+6)
	for k, v := range user.UserMetadata {
		next[k] = v
	}
	next[domain.MetaCurrentSession] = sessionID
	next[domain.MetaSessionStartedAt] = now.UnixMilli()
	next[domain.MetaSessionMaxSeconds] = budgetSeconds
	if grant.Tag == "" {
		next[domain.MetaPaidRoleTag] = nil
	} else {
		next[domain.MetaPaidRoleTag] = string(grant.Tag)
	}
	next[domain.MetaPaidRoleSince] = domain.TimeToMillis(grant.Window.Since)
	next[domain.MetaPaidRoleUntil] = domain.TimeToMillis(grant.Window.Until)

	if user.ID != "" && s.registry != nil {
		if err := s.registry.Remember(ctx, user.ID, sessionID, s.budget); err != nil {
			s.logger.Warn("failed to record current session",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		}
	}

	s.publish(ctx, events.EventSessionRotated, user.ID, events.SessionRotatedPayload{
		SessionID:  sessionID,
		StartedAt:  now,
		MaxSeconds: budgetSeconds,
		Previous:   meta.CurrentSession,
	})
	if grant.TagChanged {
		payload := events.GrantChangedPayload{OldTag: prev.Tag, NewTag: grant.Tag, Since: grant.Window.Since}
		if !grant.Window.Until.IsZero() {
			until := grant.Window.Until
			payload.Until = &until
		}
		s.publish(ctx, events.EventGrantChanged, user.ID, payload)
	}
	if membership.IsTimeLimited(grant.Tag) && grant.Status == domain.StatusPending {
		s.publish(ctx, events.EventGrantLapsed, user.ID, events.GrantLapsedPayload{Tag: grant.Tag, Until: grant.Window.Until})
	}

	s.logger.Info("login reconciled",
		zap.String("user_id", user.ID),
		zap.String("grant_tag", string(grant.Tag)),
		zap.String("status", string(grant.Status)),
		zap.Bool("tag_changed", grant.TagChanged),
	)

	return &MetadataPatch{Roles: domain.RoleStrings(grant.Roles), UserMetadata: next}, nil
}

func (s *IdentityService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
