package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned when no upstream key is configured.
var ErrMissingAPIKey = errors.New("chat: missing GEMINI_API_KEY")

// ErrTransport wraps failures to reach the upstream at all.
var ErrTransport = errors.New("chat: upstream request failed")

const maxUpstreamBody = 4 << 20

// UpstreamError is a non-2xx answer from the completion backend.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("chat: upstream status %d", e.Status)
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	apiBase string
	apiKey  string
	http    *http.Client
}

// NewClient builds a client. A nil httpClient gets timeout as its deadline.
func NewClient(apiBase, apiKey string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{apiBase: strings.TrimRight(apiBase, "/"), apiKey: apiKey, http: httpClient}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Generate sends payload to model and returns the joined candidate text.
func (c *Client) Generate(ctx context.Context, model string, payload GenerateRequest) (string, error) {
	if !c.Configured() {
		return "", ErrMissingAPIKey
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.apiBase, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	var decoded GenerateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &UpstreamError{Status: resp.StatusCode, Body: "invalid JSON: " + err.Error()}
	}
	return decoded.Text(), nil
}
