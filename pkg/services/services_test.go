package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/agentforge/agentforge/pkg/eventbus"
	"github.com/agentforge/agentforge/pkg/events"
	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryPersistence is an in-memory persistence.Persistence for tests.
type memoryPersistence struct {
	mu         sync.Mutex
	agents     map[string]*models.Agent
	executions map[string]*models.Execution
	grants     map[string]map[string][]models.Capability
}

func newMemoryPersistence() *memoryPersistence {
	return &memoryPersistence{
		agents:     make(map[string]*models.Agent),
		executions: make(map[string]*models.Execution),
		grants:     make(map[string]map[string][]models.Capability),
	}
}

func (m *memoryPersistence) AgentRepository() persistence.AgentRepository         { return m }
func (m *memoryPersistence) ExecutionRepository() persistence.ExecutionRepository { return m }
func (m *memoryPersistence) GrantRepository() persistence.GrantRepository         { return m }
func (m *memoryPersistence) HealthCheck(_ context.Context) error                  { return nil }
func (m *memoryPersistence) Close(_ context.Context) error                        { return nil }

func (m *memoryPersistence) Agents(_ context.Context, opts persistence.ListOptions) ([]*models.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agents := make([]*models.Agent, 0)

	for _, agent := range m.agents {
		if agent.DeletedAt != nil {
			continue
		}

		if opts.OwnerID != "" && agent.OwnerID != opts.OwnerID {
			continue
		}

		if opts.Status != nil && agent.Status != *opts.Status {
			continue
		}

		copied := *agent
		agents = append(agents, &copied)
	}

	return agents, nil
}

func (m *memoryPersistence) AgentByID(_ context.Context, id string) (*models.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.agents[id]
	if !ok || agent.DeletedAt != nil {
		return nil, persistence.NewAgentError("AgentByID", id, persistence.ErrAgentNotFound)
	}

	copied := *agent

	return &copied, nil
}

func (m *memoryPersistence) SaveAgent(_ context.Context, agent *models.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}

	agent.UpdatedAt = now

	copied := *agent
	m.agents[agent.ID] = &copied

	return nil
}

func (m *memoryPersistence) DeleteAgent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.agents[id]
	if !ok {
		return persistence.NewAgentError("DeleteAgent", id, persistence.ErrAgentNotFound)
	}

	now := time.Now().UTC()
	agent.DeletedAt = &now

	return nil
}

func (m *memoryPersistence) SetAgentStatus(_ context.Context, id string, status models.AgentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.agents[id]
	if !ok || agent.DeletedAt != nil {
		return persistence.NewAgentError("SetAgentStatus", id, persistence.ErrAgentNotFound)
	}

	agent.Status = status

	if status == models.AgentStatusPublished {
		now := time.Now().UTC()
		agent.PublishedAt = &now
	}

	return nil
}

func (m *memoryPersistence) PurgeAbandonedDrafts(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	now := time.Now().UTC()

	for _, agent := range m.agents {
		if agent.DeletedAt != nil || agent.Status != models.AgentStatusDraft || agent.PublishedAt != nil {
			continue
		}

		if agent.UpdatedAt.Before(cutoff) {
			agent.DeletedAt = &now
			purged++
		}
	}

	return purged, nil
}

func (m *memoryPersistence) SaveExecution(_ context.Context, execution *models.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if execution.StartedAt.IsZero() {
		execution.StartedAt = time.Now().UTC()
	}

	copied := *execution
	m.executions[execution.ID] = &copied

	return nil
}

func (m *memoryPersistence) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	execution, ok := m.executions[id]
	if !ok {
		return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
	}

	copied := *execution

	return &copied, nil
}

func (m *memoryPersistence) ExecutionsByAgent(_ context.Context, agentID string) ([]*models.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	executions := make([]*models.Execution, 0)

	for _, execution := range m.executions {
		if execution.AgentID == agentID {
			copied := *execution
			executions = append(executions, &copied)
		}
	}

	return executions, nil
}

func (m *memoryPersistence) SetExecutionStatus(_ context.Context, id string, status models.ExecutionStatus, errMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	execution, ok := m.executions[id]
	if !ok {
		return persistence.NewExecutionError("SetExecutionStatus", id, persistence.ErrExecutionNotFound)
	}

	if execution.Status.Terminal() {
		return persistence.NewExecutionError("SetExecutionStatus", id, persistence.ErrExecutionTerminal)
	}

	execution.Status = status
	execution.Error = errMessage

	if status.Terminal() {
		now := time.Now().UTC()
		execution.FinishedAt = &now
	}

	return nil
}

func (m *memoryPersistence) Grants(_ context.Context, agentID, actorID string) ([]models.Capability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.grants[agentID][actorID], nil
}

func (m *memoryPersistence) SetGrants(_ context.Context, agentID, actorID string, capabilities []models.Capability) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.grants[agentID] == nil {
		m.grants[agentID] = make(map[string][]models.Capability)
	}

	m.grants[agentID][actorID] = capabilities

	return nil
}

func (m *memoryPersistence) RevokeGrants(_ context.Context, agentID, actorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.grants[agentID], actorID)

	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *recordingBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	return nil
}

func (b *recordingBus) types() []events.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()

	types := make([]events.EventType, 0, len(b.events))
	for _, event := range b.events {
		types = append(types, event.GetType())
	}

	return types
}

func completeAgent(id, owner string) *models.Agent {
	return &models.Agent{
		ID:     id,
		Kind:   models.AgentKindConversational,
		Name:   "Invoice helper",
		Goal:   "Answer invoice questions",
		Status: models.AgentStatusDraft,
		Personality: &models.Personality{
			Formality: 5, Creativity: 5, Empathy: 5, Assertiveness: 5, Humor: 5, Detail: 5,
		},
		Model:   &models.ModelSelection{Provider: "anthropic", Model: "claude-sonnet-4"},
		OwnerID: owner,
	}
}

func TestAgent_CreateAgent(t *testing.T) {
	ctx := context.Background()
	bus := &recordingBus{}
	service := NewAgent(newMemoryPersistence(), bus)

	agent, err := service.CreateAgent(ctx, "user-1", &models.Agent{
		Kind: models.AgentKindProcess,
		Goal: "Reconcile ledgers",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, agent.ID)
	assert.Equal(t, models.AgentStatusDraft, agent.Status)
	assert.Equal(t, "user-1", agent.OwnerID)
	assert.Equal(t, "user-1", agent.CreatedBy)
	assert.Equal(t, []events.EventType{events.AgentCreatedEvent}, bus.types())
}

func TestAgent_CreateAgentRejectsMissingGoal(t *testing.T) {
	service := NewAgent(newMemoryPersistence(), nil)

	_, err := service.CreateAgent(context.Background(), "user-1", &models.Agent{
		Kind: models.AgentKindProcess,
	})
	assert.True(t, IsValidationError(err))
}

func TestAgent_UpdateAgentPreservesIdentity(t *testing.T) {
	ctx := context.Background()
	store := newMemoryPersistence()
	service := NewAgent(store, nil)

	created, err := service.CreateAgent(ctx, "user-1", &models.Agent{
		Kind: models.AgentKindConversational,
		Goal: "Help",
	})
	require.NoError(t, err)

	// A hostile payload tries to take over identity and ownership.
	payload := completeAgent("evil-id", "user-2")
	payload.Kind = models.AgentKindProcess
	payload.CreatedBy = "user-2"

	updated, err := service.UpdateAgent(ctx, created.ID, payload)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, models.AgentKindConversational, updated.Kind)
	assert.Equal(t, "user-1", updated.OwnerID)
	assert.Equal(t, "user-1", updated.CreatedBy)
	assert.Equal(t, "Invoice helper", updated.Name)
}

func TestAgent_UpdateAgentRejectsEmptyGoal(t *testing.T) {
	service := NewAgent(newMemoryPersistence(), nil)

	_, err := service.UpdateAgent(context.Background(), "agent-1", &models.Agent{})
	assert.True(t, IsValidationError(err))
}

func TestPublishing_PublishAgent(t *testing.T) {
	ctx := context.Background()
	store := newMemoryPersistence()
	bus := &recordingBus{}
	service := NewPublishing(store, bus)

	require.NoError(t, store.SaveAgent(ctx, completeAgent("agent-1", "user-1")))

	published, err := service.PublishAgent(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, models.AgentStatusPublished, published.Status)
	assert.NotNil(t, published.PublishedAt)
	assert.Equal(t, []events.EventType{events.AgentPublishedEvent}, bus.types())

	// Publishing twice is a conflict.
	_, err = service.PublishAgent(ctx, "agent-1")
	assert.True(t, IsConflictError(err))
}

func TestPublishing_PublishRejectsIncompleteAgent(t *testing.T) {
	ctx := context.Background()
	store := newMemoryPersistence()
	service := NewPublishing(store, nil)

	tests := []struct {
		name   string
		mutate func(*models.Agent)
		want   error
	}{
		{"missing name", func(a *models.Agent) { a.Name = "" }, ErrAgentNameRequired},
		{"missing goal", func(a *models.Agent) { a.Goal = "" }, ErrAgentGoalRequired},
		{"no personality", func(a *models.Agent) { a.Personality = nil }, ErrPersonalityIncomplete},
		{"partial personality", func(a *models.Agent) { a.Personality.Humor = 0 }, ErrPersonalityIncomplete},
		{"no model", func(a *models.Agent) { a.Model = nil }, ErrModelSelectionRequired},
		{
			"bad guardrails",
			func(a *models.Agent) { a.Guardrails = &models.Guardrails{Rules: map[string]any{"tone": "angry"}} },
			ErrInvalidGuardrails,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := completeAgent("agent-"+tt.name, "user-1")
			tt.mutate(agent)
			require.NoError(t, store.SaveAgent(ctx, agent))

			_, err := service.PublishAgent(ctx, agent.ID)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPublishing_RestoreStatus(t *testing.T) {
	ctx := context.Background()
	store := newMemoryPersistence()
	service := NewPublishing(store, nil)

	agent := completeAgent("agent-1", "user-1")
	agent.Status = models.AgentStatusDraft
	require.NoError(t, store.SaveAgent(ctx, agent))

	// Restore does not run publishing validation: even an agent stripped
	// back to the minimum goes straight to the requested status.
	restored, err := service.RestoreStatus(ctx, "agent-1", models.AgentStatusPublished)
	require.NoError(t, err)
	assert.Equal(t, models.AgentStatusPublished, restored.Status)

	_, err = service.RestoreStatus(ctx, "agent-1", models.AgentStatus("archived"))
	assert.True(t, IsValidationError(err))
}

func TestPermission_Snapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemoryPersistence()
	service := NewPermission(store, []string{"admin-1"})

	require.NoError(t, store.SaveAgent(ctx, completeAgent("agent-1", "user-1")))
	require.NoError(t, store.SetGrants(ctx, "agent-1", "user-2", []models.Capability{models.CapabilityManageTools}))

	owner, err := service.Snapshot(ctx, "agent-1", "user-1")
	require.NoError(t, err)
	assert.True(t, owner.IsOwner)
	assert.False(t, owner.IsAdmin)

	admin, err := service.Snapshot(ctx, "agent-1", "admin-1")
	require.NoError(t, err)
	assert.False(t, admin.IsOwner)
	assert.True(t, admin.IsAdmin)

	delegated, err := service.Snapshot(ctx, "agent-1", "user-2")
	require.NoError(t, err)
	assert.False(t, delegated.IsOwner)
	assert.False(t, delegated.IsAdmin)
	assert.Equal(t, []models.Capability{models.CapabilityManageTools}, delegated.Capabilities)
}

func TestPermission_DelegateIsOwnerOnly(t *testing.T) {
	ctx := context.Background()
	store := newMemoryPersistence()
	service := NewPermission(store, nil)

	require.NoError(t, store.SaveAgent(ctx, completeAgent("agent-1", "user-1")))

	capabilities := []models.Capability{models.CapabilityEditGuardrails}

	// A delegate with full-admin still cannot re-delegate.
	require.NoError(t, store.SetGrants(ctx, "agent-1", "user-2", []models.Capability{models.CapabilityFullAdmin}))

	err := service.Delegate(ctx, "agent-1", "user-2", "user-3", capabilities)
	assert.True(t, IsForbiddenError(err))

	require.NoError(t, service.Delegate(ctx, "agent-1", "user-1", "user-3", capabilities))

	got, err := store.Grants(ctx, "agent-1", "user-3")
	require.NoError(t, err)
	assert.Equal(t, capabilities, got)

	err = service.Revoke(ctx, "agent-1", "user-2", "user-3")
	assert.True(t, IsForbiddenError(err))

	require.NoError(t, service.Revoke(ctx, "agent-1", "user-1", "user-3"))
}

func TestExecution_ApprovalFlow(t *testing.T) {
	ctx := context.Background()
	store := newMemoryPersistence()
	bus := &recordingBus{}
	service := NewExecution(store, store, bus)

	require.NoError(t, store.SaveAgent(ctx, completeAgent("agent-1", "user-1")))

	execution, err := service.StartExecution(ctx, "agent-1", "Test run")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)

	// Approving a running execution is a conflict.
	_, err = service.ApproveExecution(ctx, execution.ID)
	assert.True(t, IsConflictError(err))

	require.NoError(t, service.RequestApproval(ctx, execution.ID, "approval-7"))

	parked, err := service.GetExecution(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusWaitingApproval, parked.Status)
	assert.Equal(t, "approval-7", parked.ApprovalID)

	resumed, err := service.ApproveExecution(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, resumed.Status)

	assert.Equal(t, []events.EventType{events.ExecutionWaitingEvent}, bus.types())
}

func TestExecution_FinishExecution(t *testing.T) {
	ctx := context.Background()
	store := newMemoryPersistence()
	bus := &recordingBus{}
	service := NewExecution(store, store, bus)

	require.NoError(t, store.SaveAgent(ctx, completeAgent("agent-1", "user-1")))

	execution, err := service.StartExecution(ctx, "agent-1", "Run")
	require.NoError(t, err)

	err = service.FinishExecution(ctx, execution.ID, models.ExecutionStatusRunning, nil, "")
	assert.True(t, IsValidationError(err))

	require.NoError(t, service.FinishExecution(ctx, execution.ID,
		models.ExecutionStatusCompleted, []byte(`[{"frame":1}]`), ""))

	finished, err := service.GetExecution(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, finished.Status)
	assert.NotNil(t, finished.FinishedAt)
	assert.JSONEq(t, `[{"frame":1}]`, string(finished.Trace))

	// Finishing twice hits the terminal guard.
	err = service.FinishExecution(ctx, execution.ID, models.ExecutionStatusFailed, nil, "late")
	assert.True(t, persistence.IsExecutionTerminal(err))

	assert.Equal(t, []events.EventType{events.ExecutionCompletedEvent}, bus.types())
}
