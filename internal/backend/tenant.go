package backend

import (
	"context"
	"fmt"

	"pulsebridge/internal/domain"
)

type tenantRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

type tenantResponse struct {
	TenantID      string `json:"tenantId"`
	BotCredential string `json:"botCredential"`
}

// ResolveTenant maps a workspace id to its owning tenant. The result lives
// for one event only; callers must not cache it across events.
func (c *Client) ResolveTenant(ctx context.Context, workspaceID string) (domain.TenantContext, error) {
	var resp tenantResponse
	err := c.postJSON(ctx, c.cfg.TenantURL, nil, tenantRequest{WorkspaceID: workspaceID}, &resp)
	if err != nil {
		return domain.TenantContext{}, fmt.Errorf("tenant lookup: %w", err)
	}
	if resp.TenantID == "" {
		return domain.TenantContext{}, fmt.Errorf("tenant lookup: no tenant for workspace %s", workspaceID)
	}
	return domain.TenantContext{
		TenantID:      resp.TenantID,
		BotCredential: resp.BotCredential,
	}, nil
}
