// Package web provides HTTP request and response types for the agent API.
package web

import "github.com/agentforge/agentforge/pkg/models"

// RestoreStatusRequest represents the request body for restoring an agent's
// lifecycle status after a cancelled edit session.
type RestoreStatusRequest struct {
	Status models.AgentStatus `json:"status" validate:"required,oneof=draft published"`
}

// SetGrantsRequest represents the request body for delegating capabilities
// to another actor.
type SetGrantsRequest struct {
	Capabilities []models.Capability `json:"capabilities" validate:"required"`
}

// StartExecutionRequest represents the request body for starting an agent run.
type StartExecutionRequest struct {
	Subtitle string `json:"subtitle"`
}

// PermissionsResponse is the snapshot plus the derived per-section
// mutability, so thin clients don't have to re-derive policy.
type PermissionsResponse struct {
	IsOwner      bool                `json:"is_owner"`
	IsAdmin      bool                `json:"is_admin"`
	Capabilities []models.Capability `json:"capabilities"`
	Sections     map[string]string   `json:"sections"`
}
