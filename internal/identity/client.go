// Package identity talks to the GoTrue instance behind Netlify Identity.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/chemdisk/members/internal/domain"
)

var (
	// ErrUnauthorized means GoTrue rejected the token.
	ErrUnauthorized = errors.New("identity: token rejected")
	// ErrUnavailable means GoTrue could not be reached or answered badly.
	ErrUnavailable = errors.New("identity: provider unavailable")
	// ErrNotConfigured means no GoTrue URL is known.
	ErrNotConfigured = errors.New("identity: provider url not configured")
)

const maxUserBody = 1 << 20

// Client fetches authoritative user records. Concurrent lookups for the same
// token share one upstream request.
type Client struct {
	baseURL string
	http    *http.Client
	group   singleflight.Group
}

// NewClient builds a client for a GoTrue base URL such as
// https://site.netlify.app/.netlify/identity. A nil httpClient gets a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// FetchUser returns the user record for a bearer token.
func (c *Client) FetchUser(ctx context.Context, token string) (*domain.User, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if token == "" {
		return nil, ErrUnauthorized
	}

	ch := c.group.DoChan(token, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), token)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		user := *res.Val.(*domain.User)
		return &user, nil
	}
}

func (c *Client) fetch(ctx context.Context, token string) (*domain.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var user domain.User
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserBody)).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", ErrUnavailable, err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user without id", ErrUnavailable)
	}
	return &user, nil
}
