package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"pulsebridge/internal/domain"
)

// PublishInsights submits a de-identified signal to the analytics ingest
// endpoint. Transient failures are retried with backoff; this call never
// runs on the user-facing path, so latency here is acceptable.
func (c *Client) PublishInsights(ctx context.Context, signal domain.InsightsSignal) error {
	if c.cfg.IngestURL == "" {
		return ErrNotConfigured
	}
	if c.cfg.ServiceToken == "" {
		return fmt.Errorf("%w: service token missing", ErrNotConfigured)
	}

	payload, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	buildReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.IngestURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(headerServiceToken, c.cfg.ServiceToken)
		req.Header.Set(headerTenantID, signal.TenantID)
		return req, nil
	}

	resp, err := doWithRetry(ctx, c.http, buildReq, c.logger)
	if err != nil {
		return fmt.Errorf("insights ingest: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("insights ingest: HTTP %d", resp.StatusCode)
	}
	return nil
}
