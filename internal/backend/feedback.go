package backend

import (
	"context"
	"fmt"

	"pulsebridge/internal/domain"
)

type feedbackRequest struct {
	LogID    string `json:"logId"`
	Feedback string `json:"feedback"`
	Source   string `json:"source"`
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId"`
}

// SubmitFeedback records an up/down vote on a previously delivered answer,
// keyed by the answer's log-reference id.
func (c *Client) SubmitFeedback(ctx context.Context, tenant domain.TenantContext, logID string, verdict domain.FeedbackVerdict, userID string) error {
	req := feedbackRequest{
		LogID:    logID,
		Feedback: string(verdict),
		Source:   domain.SignalSource,
		TenantID: tenant.TenantID,
		UserID:   userID,
	}
	if err := c.postJSON(ctx, c.cfg.FeedbackURL, nil, req, nil); err != nil {
		return fmt.Errorf("feedback: %w", err)
	}
	return nil
}
