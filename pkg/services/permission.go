package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
)

// Permission computes permission snapshots and manages delegated capability
// grants. Admins are a deployment-level list, not stored per agent.
type Permission struct {
	persistence persistence.Persistence
	adminIDs    []string
}

// NewPermission creates a new permission service.
func NewPermission(persistence persistence.Persistence, adminIDs []string) *Permission {
	return &Permission{
		persistence: persistence,
		adminIDs:    adminIDs,
	}
}

// Snapshot computes the actor's full permission picture for one agent.
func (p *Permission) Snapshot(ctx context.Context, agentID, actorID string) (*models.PermissionSnapshot, error) {
	agent, err := p.persistence.AgentRepository().AgentByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	capabilities, err := p.persistence.GrantRepository().Grants(ctx, agentID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get grants: %w", err)
	}

	return &models.PermissionSnapshot{
		IsOwner:      agent.OwnerID == actorID,
		IsAdmin:      slices.Contains(p.adminIDs, actorID),
		Capabilities: capabilities,
	}, nil
}

// Delegate replaces a target actor's capability set for an agent. Only the
// agent's owner may delegate, regardless of any other capability the caller
// holds.
func (p *Permission) Delegate(ctx context.Context, agentID, callerID, targetID string, capabilities []models.Capability) error {
	agent, err := p.persistence.AgentRepository().AgentByID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed to get agent: %w", err)
	}

	if agent.OwnerID != callerID {
		return NewValidationError("Delegate", "not_owner",
			"only the agent owner may delegate access", ErrNotOwner)
	}

	if err := p.persistence.GrantRepository().SetGrants(ctx, agentID, targetID, capabilities); err != nil {
		return fmt.Errorf("failed to set grants: %w", err)
	}

	return nil
}

// Revoke removes every capability delegated to a target actor. Owner-only,
// same as Delegate.
func (p *Permission) Revoke(ctx context.Context, agentID, callerID, targetID string) error {
	agent, err := p.persistence.AgentRepository().AgentByID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed to get agent: %w", err)
	}

	if agent.OwnerID != callerID {
		return NewValidationError("Revoke", "not_owner",
			"only the agent owner may revoke access", ErrNotOwner)
	}

	if err := p.persistence.GrantRepository().RevokeGrants(ctx, agentID, targetID); err != nil {
		return fmt.Errorf("failed to revoke grants: %w", err)
	}

	return nil
}
