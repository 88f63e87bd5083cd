package dto

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chemdisk/members/internal/domain"
)

// ErrMalformedHook is returned when a hook body is not a JSON object.
var ErrMalformedHook = errors.New("malformed hook payload")

// ParseHookUser reads the user from a body GoTrue posts to the signup and
// login hooks. Decoding is lenient: non-string roles are dropped, a roles or
// user_metadata value of the wrong type reads as empty. A nil user with a nil
// error means the body carried no user object.
func ParseHookUser(body []byte) (*domain.User, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHook, err)
	}
	raw, ok := payload["user"].(map[string]any)
	if !ok {
		return nil, nil
	}

	user := &domain.User{
		ID:           stringField(raw["id"]),
		Email:        stringField(raw["email"]),
		UserMetadata: map[string]any{},
	}
	if app, ok := raw["app_metadata"].(map[string]any); ok {
		if roles, ok := app["roles"].([]any); ok {
			for _, r := range roles {
				if s, ok := r.(string); ok {
					user.AppMetadata.Roles = append(user.AppMetadata.Roles, s)
				}
			}
		}
	}
	if meta, ok := raw["user_metadata"].(map[string]any); ok {
		user.UserMetadata = meta
	}
	return user, nil
}

func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// HookResponse is merged by GoTrue into the user record. An empty response
// leaves the record unchanged.
type HookResponse struct {
	AppMetadata  *domain.AppMetadata `json:"app_metadata,omitempty"`
	UserMetadata map[string]any      `json:"user_metadata,omitempty"`
}
