// Package services implements the business operations behind the HTTP API.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/agentforge/agentforge/pkg/eventbus"
	"github.com/agentforge/agentforge/pkg/events"
	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrAgentNotFound is returned when an agent is not found.
var ErrAgentNotFound = persistence.ErrAgentNotFound

// Agent is the service for agent CRUD operations.
type Agent struct {
	persistence persistence.Persistence
	bus         eventbus.EventPublisher
	validator   *validator.Validate
}

// NewAgent creates a new agent service. bus may be nil when eventing is
// disabled.
func NewAgent(persistence persistence.Persistence, bus eventbus.EventPublisher) *Agent {
	return &Agent{
		persistence: persistence,
		bus:         bus,
		validator:   validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (a *Agent) HealthCheck(ctx context.Context) (string, bool) {
	if a.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := a.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateAgentRequest is the validated view of a create payload. Goal is the
// only content the first persist is guaranteed to carry.
type CreateAgentRequest struct {
	Kind    models.AgentKind `validate:"required,oneof=conversational process"`
	Goal    string           `validate:"required"`
	ActorID string           `validate:"required"`
}

// CreateAgent creates a new draft agent owned by the requesting actor. The
// payload may already carry any amount of wizard configuration; identity,
// status and ownership always come from the server side.
func (a *Agent) CreateAgent(ctx context.Context, actorID string, payload *models.Agent) (*models.Agent, error) {
	if payload == nil {
		return nil, NewValidationError("CreateAgent", "agent_nil", "agent payload is required", ErrAgentNil)
	}

	req := CreateAgentRequest{Kind: payload.Kind, Goal: payload.Goal, ActorID: actorID}
	if err := a.validator.Struct(req); err != nil {
		return nil, NewValidationError("CreateAgent", "invalid_request", err.Error(), ErrInvalidRequest)
	}

	agent := *payload
	agent.ID = uuid.New().String()
	agent.Status = models.AgentStatusDraft
	agent.OwnerID = actorID
	agent.CreatedBy = actorID
	agent.OwnerAssumed = false
	agent.PublishedAt = nil
	agent.DeletedAt = nil
	agent.CreatedAt = time.Time{}

	if err := a.persistence.AgentRepository().SaveAgent(ctx, &agent); err != nil {
		return nil, fmt.Errorf("failed to save agent: %w", err)
	}

	a.publish(ctx, events.AgentCreated{
		BaseEvent: events.NewBaseEvent(events.AgentCreatedEvent, agent.ID),
		OwnerID:   agent.OwnerID,
		Kind:      agent.Kind,
	})

	return &agent, nil
}

// UpdateAgent overwrites a draft's configuration. Identity and ownership
// fields are never taken from the payload.
func (a *Agent) UpdateAgent(ctx context.Context, id string, updated *models.Agent) (*models.Agent, error) {
	if updated == nil {
		return nil, NewValidationError("UpdateAgent", "agent_nil", "agent payload is required", ErrAgentNil)
	}

	if updated.Goal == "" {
		return nil, NewValidationError("UpdateAgent", "goal_required", "agent goal is required", ErrAgentGoalRequired)
	}

	current, err := a.persistence.AgentRepository().AgentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	merged := *updated
	merged.ID = current.ID
	merged.Kind = current.Kind
	merged.OwnerID = current.OwnerID
	merged.CreatedBy = current.CreatedBy
	merged.OwnerAssumed = false
	merged.CreatedAt = current.CreatedAt
	merged.PublishedAt = current.PublishedAt

	if merged.Status == "" {
		merged.Status = current.Status
	}

	if err := a.persistence.AgentRepository().SaveAgent(ctx, &merged); err != nil {
		return nil, fmt.Errorf("failed to save agent: %w", err)
	}

	return &merged, nil
}

// GetAgent returns an agent by ID.
func (a *Agent) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	agent, err := a.persistence.AgentRepository().AgentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return agent, nil
}

// ListAgentsRequest contains options for listing agents.
type ListAgentsRequest struct {
	Limit   int `validate:"min=0,max=100"`
	Offset  int `validate:"min=0"`
	OwnerID string
	Status  *models.AgentStatus
}

// ListAgents retrieves agents with filtering and pagination.
func (a *Agent) ListAgents(ctx context.Context, req ListAgentsRequest) ([]*models.Agent, error) {
	if err := a.validator.Struct(req); err != nil {
		return nil, NewValidationError("ListAgents", "invalid_request", err.Error(), ErrInvalidRequest)
	}

	agents, err := a.persistence.AgentRepository().Agents(ctx, persistence.ListOptions{
		Limit:   req.Limit,
		Offset:  req.Offset,
		OwnerID: req.OwnerID,
		Status:  req.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	return agents, nil
}

// DeleteAgent soft deletes an agent.
func (a *Agent) DeleteAgent(ctx context.Context, id string) error {
	agent, err := a.persistence.AgentRepository().AgentByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get agent: %w", err)
	}

	if err := a.persistence.AgentRepository().DeleteAgent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}

	a.publish(ctx, events.AgentDeleted{
		BaseEvent: events.NewBaseEvent(events.AgentDeletedEvent, agent.ID),
	})

	return nil
}

// PurgeAbandonedDrafts removes never-published drafts untouched for the
// given retention period.
func (a *Agent) PurgeAbandonedDrafts(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-retention)

	purged, err := a.persistence.AgentRepository().PurgeAbandonedDrafts(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge abandoned drafts: %w", err)
	}

	return purged, nil
}

func (a *Agent) publish(ctx context.Context, event eventbus.Event) {
	if a.bus == nil {
		return
	}

	// Event delivery is best effort; the write already succeeded.
	_ = a.bus.Publish(ctx, "agents", event)
}
