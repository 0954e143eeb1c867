package interpretation

import (
	"context"

	"github.com/Marophobia/signsense/core/controlplane"
	"github.com/google/uuid"
)

// controlPlane is the facade used to handle optional control-plane wiring.
// Unconfigured it behaves as a detached session provider: ids are minted
// locally and agent calls succeed without doing anything.
type controlPlane struct {
	client ControlPlane
}

func (c *controlPlane) set(client ControlPlane) {
	if c != nil {
		c.client = client
	}
}

func (c *controlPlane) isConfigured() bool {
	return c != nil && c.client != nil
}

func (c *controlPlane) CreateSession(ctx context.Context, request controlplane.CreateSessionRequest) (*controlplane.CreateSessionResponse, error) {
	if !c.isConfigured() {
		return &controlplane.CreateSessionResponse{
			SessionID:   "signsense-" + uuid.NewString()[:8],
			SessionType: "default",
		}, nil
	}

	return c.client.CreateSession(ctx, request)
}

func (c *controlPlane) StartAgent(ctx context.Context, sessionID string, sessionType string) (*controlplane.AgentStatus, error) {
	if !c.isConfigured() {
		return &controlplane.AgentStatus{
			SessionID:   sessionID,
			AgentActive: true,
			Message:     "Active",
		}, nil
	}

	return c.client.StartAgent(ctx, sessionID, sessionType)
}

func (c *controlPlane) StopAgent(ctx context.Context, sessionID string) error {
	if !c.isConfigured() {
		return nil
	}

	return c.client.StopAgent(ctx, sessionID)
}
