package services

import (
	"context"
	"fmt"

	"github.com/agentforge/agentforge/pkg/eventbus"
	"github.com/agentforge/agentforge/pkg/events"
	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
)

// Publishing handles the draft/published lifecycle transitions.
type Publishing struct {
	persistence persistence.Persistence
	bus         eventbus.EventPublisher
}

// NewPublishing creates a new publishing service.
func NewPublishing(persistence persistence.Persistence, bus eventbus.EventPublisher) *Publishing {
	return &Publishing{
		persistence: persistence,
		bus:         bus,
	}
}

// PublishAgent validates an agent's configuration is complete and flips it
// to published.
func (p *Publishing) PublishAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	agent, err := p.persistence.AgentRepository().AgentByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	if agent.Status == models.AgentStatusPublished {
		return nil, NewValidationError("PublishAgent", "already_published",
			"agent is already published", ErrAlreadyPublished)
	}

	if err := p.validateForPublishing(agent); err != nil {
		return nil, fmt.Errorf("agent validation failed: %w", err)
	}

	if err := p.persistence.AgentRepository().SetAgentStatus(ctx, agentID, models.AgentStatusPublished); err != nil {
		return nil, fmt.Errorf("failed to publish agent: %w", err)
	}

	if p.bus != nil {
		_ = p.bus.Publish(ctx, "agents", events.AgentPublished{
			BaseEvent: events.NewBaseEvent(events.AgentPublishedEvent, agentID),
		})
	}

	return p.persistence.AgentRepository().AgentByID(ctx, agentID)
}

// RestoreStatus puts an agent back into the given lifecycle status without
// publishing validation. It backs the cancel-edit path, where a published
// agent demoted to draft for editing is restored untouched.
func (p *Publishing) RestoreStatus(ctx context.Context, agentID string, status models.AgentStatus) (*models.Agent, error) {
	if status != models.AgentStatusDraft && status != models.AgentStatusPublished {
		return nil, NewValidationError("RestoreStatus", "invalid_status",
			fmt.Sprintf("unknown status %q", status), ErrInvalidStatus)
	}

	if err := p.persistence.AgentRepository().SetAgentStatus(ctx, agentID, status); err != nil {
		return nil, fmt.Errorf("failed to restore agent status: %w", err)
	}

	return p.persistence.AgentRepository().AgentByID(ctx, agentID)
}

// validateForPublishing ensures an agent is ready to go live.
func (p *Publishing) validateForPublishing(agent *models.Agent) error {
	if agent == nil {
		return ErrAgentNil
	}

	if agent.Name == "" {
		return ErrAgentNameRequired
	}

	if agent.Goal == "" {
		return ErrAgentGoalRequired
	}

	if !agent.Personality.Complete() {
		return ErrPersonalityIncomplete
	}

	if agent.Model == nil || agent.Model.Provider == "" || agent.Model.Model == "" {
		return ErrModelSelectionRequired
	}

	if err := agent.Guardrails.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGuardrails, err)
	}

	return nil
}
