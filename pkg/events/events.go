// Package events defines the event types emitted for agent lifecycle and
// execution milestone notifications.
package events

import (
	"time"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic is the bus topic all agentforge events travel on.
const Topic = "agentforge.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Agent lifecycle events.
	AgentCreatedEvent   EventType = "agent.created"
	AgentPublishedEvent EventType = "agent.published"
	AgentDeletedEvent   EventType = "agent.deleted"

	// Execution milestone events. Each fires at most once per execution:
	// the tracker's milestone set guarantees the one-shot semantics before
	// anything reaches the bus.
	ExecutionWaitingEvent   EventType = "execution.waiting_approval"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	AgentID   string         `json:"agent_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a fresh event envelope.
func NewBaseEvent(eventType EventType, agentID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		AgentID:   agentID,
	}
}

type AgentCreated struct {
	BaseEvent

	OwnerID string           `json:"owner_id"`
	Kind    models.AgentKind `json:"kind,omitempty"`
}

func (e AgentCreated) GetType() EventType {
	return AgentCreatedEvent
}

type AgentPublished struct {
	BaseEvent
}

func (e AgentPublished) GetType() EventType {
	return AgentPublishedEvent
}

type AgentDeleted struct {
	BaseEvent
}

func (e AgentDeleted) GetType() EventType {
	return AgentDeletedEvent
}

type ExecutionWaiting struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	ApprovalID  string `json:"approval_id,omitempty"`
}

func (e ExecutionWaiting) GetType() EventType {
	return ExecutionWaitingEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Error       string `json:"error,omitempty"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
