package backend

import (
	"context"
	"fmt"
	"time"

	"pulsebridge/internal/domain"
)

type retrievalRequest struct {
	Question string `json:"question"`
	Source   string `json:"source"`
}

// SourceRef is a citation attached to an answer.
type SourceRef struct {
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Answer is a retrieval backend response. LogID is the opaque reference used
// for feedback submission later.
type Answer struct {
	Answer  string      `json:"answer"`
	Text    string      `json:"text"` // legacy field name, some deployments use it
	Sources []SourceRef `json:"sources"`
	LogID   string      `json:"logId"`
}

// Reply returns the answer body, whichever field the backend populated.
func (a Answer) Reply() string {
	if a.Answer != "" {
		return a.Answer
	}
	return a.Text
}

// Query asks the retrieval backend a question on behalf of a tenant. The
// call is bounded by the configured retrieval timeout; on expiry the caller
// treats it as any other upstream failure.
func (c *Client) Query(ctx context.Context, tenant domain.TenantContext, question string) (Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.RetrievalTimeout)*time.Second)
	defer cancel()

	headers := map[string]string{headerTenantID: tenant.TenantID}
	var answer Answer
	err := c.postJSON(ctx, c.cfg.RetrievalURL, headers, retrievalRequest{
		Question: question,
		Source:   domain.SignalSource,
	}, &answer)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieval: %w", err)
	}
	return answer, nil
}
