// Package persistence provides the data storage abstraction layer for
// agents, executions and permission grants.
package persistence

import (
	"context"
	"time"

	"github.com/agentforge/agentforge/pkg/models"
)

// ListOptions narrows and pages an agent listing.
type ListOptions struct {
	OwnerID string
	Status  *models.AgentStatus
	Limit   int
	Offset  int
}

// AgentRepository stores agent configurations across their draft and
// published lifecycle.
type AgentRepository interface {
	Agents(ctx context.Context, opts ListOptions) ([]*models.Agent, error)
	AgentByID(ctx context.Context, id string) (*models.Agent, error)
	SaveAgent(ctx context.Context, agent *models.Agent) error
	DeleteAgent(ctx context.Context, id string) error
	SetAgentStatus(ctx context.Context, id string, status models.AgentStatus) error

	// PurgeAbandonedDrafts soft-deletes never-published drafts untouched
	// since the cutoff and returns how many were purged.
	PurgeAbandonedDrafts(ctx context.Context, cutoff time.Time) (int, error)
}

// ExecutionRepository stores execution records. Terminal statuses are
// immutable: SetExecutionStatus must refuse to overwrite them.
type ExecutionRepository interface {
	SaveExecution(ctx context.Context, execution *models.Execution) error
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	ExecutionsByAgent(ctx context.Context, agentID string) ([]*models.Execution, error)
	SetExecutionStatus(ctx context.Context, id string, status models.ExecutionStatus, errMessage string) error
}

// GrantRepository stores per-agent capability grants for delegated editors.
type GrantRepository interface {
	Grants(ctx context.Context, agentID, actorID string) ([]models.Capability, error)
	SetGrants(ctx context.Context, agentID, actorID string, capabilities []models.Capability) error
	RevokeGrants(ctx context.Context, agentID, actorID string) error
}

type Persistence interface {
	AgentRepository() AgentRepository
	ExecutionRepository() ExecutionRepository
	GrantRepository() GrantRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
