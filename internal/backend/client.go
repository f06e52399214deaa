package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pulsebridge/internal/config"
)

// ErrNotConfigured is returned when a backend URL or credential is missing.
// A misconfigured endpoint fails the specific request, never the process.
var ErrNotConfigured = errors.New("backend endpoint not configured")

const (
	headerServiceToken = "X-Service-Token"
	headerTenantID     = "X-Tenant-Id"
)

// Client is the shared base for all backend calls.
type Client struct {
	cfg    config.BackendsConfig
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg config.BackendsConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   sharedHTTPClient(30 * time.Second),
		logger: logger,
	}
}

// postJSON marshals body, POSTs it to url with the service token plus any
// extra headers, and decodes a 2xx response into out (when out is non-nil).
// Non-2xx statuses and malformed JSON both come back as errors.
func (c *Client) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	if url == "" {
		return ErrNotConfigured
	}
	if c.cfg.ServiceToken == "" {
		return fmt.Errorf("%w: service token missing", ErrNotConfigured)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerServiceToken, c.cfg.ServiceToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post %s: HTTP %d: %s", url, resp.StatusCode, string(snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}
