package services

import (
	"context"
	"fmt"

	"github.com/agentforge/agentforge/pkg/eventbus"
	"github.com/agentforge/agentforge/pkg/events"
	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
	"github.com/google/uuid"
)

// ErrExecutionNotFound is returned when an execution is not found.
var ErrExecutionNotFound = persistence.ErrExecutionNotFound

// Execution manages the lifecycle of agent runs. Reads go through the hot
// execution repository, which may be Redis-backed in production.
type Execution struct {
	agents     persistence.AgentRepository
	executions persistence.ExecutionRepository
	bus        eventbus.EventPublisher
}

// NewExecution creates a new execution service.
func NewExecution(agents persistence.AgentRepository, executions persistence.ExecutionRepository, bus eventbus.EventPublisher) *Execution {
	return &Execution{
		agents:     agents,
		executions: executions,
		bus:        bus,
	}
}

// StartExecution creates a running execution for an agent. Drafts may run
// too: that is the test-step path.
func (e *Execution) StartExecution(ctx context.Context, agentID, subtitle string) (*models.Execution, error) {
	if _, err := e.agents.AgentByID(ctx, agentID); err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	execution := &models.Execution{
		ID:       uuid.New().String(),
		AgentID:  agentID,
		Status:   models.ExecutionStatusRunning,
		Subtitle: subtitle,
	}

	if err := e.executions.SaveExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("failed to save execution: %w", err)
	}

	return execution, nil
}

// GetExecution returns an execution by ID.
func (e *Execution) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	execution, err := e.executions.ExecutionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	return execution, nil
}

// ListExecutions returns an agent's executions, newest first.
func (e *Execution) ListExecutions(ctx context.Context, agentID string) ([]*models.Execution, error) {
	executions, err := e.executions.ExecutionsByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return executions, nil
}

// RequestApproval parks a running execution until a human approves it.
func (e *Execution) RequestApproval(ctx context.Context, id, approvalID string) error {
	execution, err := e.executions.ExecutionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get execution: %w", err)
	}

	execution.Status = models.ExecutionStatusWaitingApproval
	execution.ApprovalID = approvalID

	if err := e.executions.SaveExecution(ctx, execution); err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}

	e.publish(ctx, events.ExecutionWaiting{
		BaseEvent:   events.NewBaseEvent(events.ExecutionWaitingEvent, execution.AgentID),
		ExecutionID: id,
		ApprovalID:  approvalID,
	})

	return nil
}

// ApproveExecution resumes an execution parked on approval.
func (e *Execution) ApproveExecution(ctx context.Context, id string) (*models.Execution, error) {
	execution, err := e.executions.ExecutionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	if execution.Status != models.ExecutionStatusWaitingApproval {
		return nil, NewValidationError("ApproveExecution", "not_waiting",
			"execution is not waiting for approval", ErrExecutionNotApproval)
	}

	if err := e.executions.SetExecutionStatus(ctx, id, models.ExecutionStatusRunning, ""); err != nil {
		return nil, fmt.Errorf("failed to resume execution: %w", err)
	}

	return e.executions.ExecutionByID(ctx, id)
}

// FinishExecution records a terminal outcome with its playback trace.
func (e *Execution) FinishExecution(ctx context.Context, id string, status models.ExecutionStatus, trace []byte, errMessage string) error {
	if !status.Terminal() {
		return NewValidationError("FinishExecution", "invalid_status",
			fmt.Sprintf("status %q is not terminal", status), ErrInvalidStatus)
	}

	execution, err := e.executions.ExecutionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get execution: %w", err)
	}

	if execution.Status.Terminal() {
		return persistence.NewExecutionError("FinishExecution", id, persistence.ErrExecutionTerminal)
	}

	if len(trace) > 0 {
		execution.Trace = trace

		if err := e.executions.SaveExecution(ctx, execution); err != nil {
			return fmt.Errorf("failed to save execution trace: %w", err)
		}
	}

	if err := e.executions.SetExecutionStatus(ctx, id, status, errMessage); err != nil {
		return fmt.Errorf("failed to finish execution: %w", err)
	}

	switch status {
	case models.ExecutionStatusCompleted:
		e.publish(ctx, events.ExecutionCompleted{
			BaseEvent:   events.NewBaseEvent(events.ExecutionCompletedEvent, execution.AgentID),
			ExecutionID: id,
		})
	case models.ExecutionStatusFailed:
		e.publish(ctx, events.ExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, execution.AgentID),
			ExecutionID: id,
			Error:       errMessage,
		})
	}

	return nil
}

func (e *Execution) publish(ctx context.Context, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	_ = e.bus.Publish(ctx, "executions", event)
}
