package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ProxyClient is a Completer that posts to the gateway's chat endpoint.
type ProxyClient struct {
	url   string
	token func(ctx context.Context) (string, error)
	http  *http.Client
}

// NewProxyClient builds a client for endpoint. token may be nil for
// cookie-authenticated callers.
func NewProxyClient(endpoint string, token func(ctx context.Context) (string, error), httpClient *http.Client) *ProxyClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ProxyClient{url: endpoint, token: token, http: httpClient}
}

func (p *ProxyClient) Complete(ctx context.Context, r Request) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != nil {
		token, err := p.token(ctx)
		if err != nil {
			return "", fmt.Errorf("access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}
