package backend

import (
	"context"
	"fmt"

	"pulsebridge/internal/domain"
)

type interventionRequest struct {
	TenantID    string               `json:"tenantId"`
	WorkspaceID string               `json:"workspaceId"`
	MessageText string               `json:"messageText"`
	Metadata    interventionMetadata `json:"metadata"`
}

type interventionMetadata struct {
	ChannelID        string `json:"channelId"`
	ThreadTimestamp  string `json:"threadTimestamp,omitempty"`
	UserID           string `json:"userId"`
	MessageTimestamp string `json:"messageTimestamp"`
}

// InterventionDecision is the policy backend's verdict on whether the bot
// should proactively reply to a message, and how.
type InterventionDecision struct {
	ShouldRespond bool               `json:"shouldRespond"`
	ReplyText     string             `json:"replyText"`
	RespondMode   domain.RespondMode `json:"respondMode"`
	Sources       []SourceRef        `json:"sources"`
}

// DecideIntervention asks the external policy service whether to respond to
// a channel message.
func (c *Client) DecideIntervention(ctx context.Context, tenant domain.TenantContext, msg domain.MessageEvent) (InterventionDecision, error) {
	req := interventionRequest{
		TenantID:    tenant.TenantID,
		WorkspaceID: msg.WorkspaceID,
		MessageText: msg.Text,
		Metadata: interventionMetadata{
			ChannelID:        msg.ChannelID,
			ThreadTimestamp:  msg.ThreadTimestamp,
			UserID:           msg.UserID,
			MessageTimestamp: msg.Timestamp,
		},
	}

	headers := map[string]string{headerTenantID: tenant.TenantID}
	var decision InterventionDecision
	if err := c.postJSON(ctx, c.cfg.InterventionURL, headers, req, &decision); err != nil {
		return InterventionDecision{}, fmt.Errorf("intervention: %w", err)
	}
	return decision, nil
}
