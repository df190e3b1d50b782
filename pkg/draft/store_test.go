package draft

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	creates int
	updates int

	createOwnerID string
	createErr     error
	updateErr     error
	updateOwnerID string

	lastUpdateID string
}

func (f *fakeAPI) CreateAgent(_ context.Context, agent *models.Agent) (*models.Agent, error) {
	f.creates++

	if f.createErr != nil {
		return nil, f.createErr
	}

	created := *agent
	created.ID = "agent-001"
	created.OwnerID = f.createOwnerID
	created.CreatedBy = f.createOwnerID

	return &created, nil
}

func (f *fakeAPI) UpdateAgent(_ context.Context, id string, agent *models.Agent) (*models.Agent, error) {
	f.updates++
	f.lastUpdateID = id

	if f.updateErr != nil {
		return nil, f.updateErr
	}

	updated := *agent
	updated.ID = id

	if f.updateOwnerID != "" {
		updated.OwnerID = f.updateOwnerID
		updated.CreatedBy = f.updateOwnerID
	}

	return &updated, nil
}

func newTestStore(api API) *Store {
	return NewStore(api, "actor-42", slog.Default())
}

func TestPersist_EmptyGoalIsNoOp(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)
	store.Begin(models.AgentKindConversational)

	require.NoError(t, store.Persist(context.Background()))

	assert.Zero(t, api.creates)
	assert.Zero(t, api.updates)

	_, persisted := store.PersistedID()
	assert.False(t, persisted)
}

func TestPersist_FirstCallCreatesThenOnlyUpdates(t *testing.T) {
	api := &fakeAPI{createOwnerID: "owner-1"}
	store := newTestStore(api)

	agent := store.Begin(models.AgentKindConversational)
	agent.Name = "Support Bot"
	agent.Goal = "Answer billing questions"

	require.NoError(t, store.Persist(context.Background()))

	id, persisted := store.PersistedID()
	require.True(t, persisted)
	assert.Equal(t, "agent-001", id)
	assert.Equal(t, "owner-1", agent.OwnerID)
	assert.False(t, agent.OwnerAssumed)

	// Unchanged draft, second persist: must update, never create again.
	require.NoError(t, store.Persist(context.Background()))
	require.NoError(t, store.Persist(context.Background()))

	assert.Equal(t, 1, api.creates)
	assert.Equal(t, 2, api.updates)
	assert.Equal(t, "agent-001", api.lastUpdateID)
}

func TestPersist_OwnershipFallbackToActor(t *testing.T) {
	api := &fakeAPI{createOwnerID: ""}
	store := newTestStore(api)

	agent := store.Begin(models.AgentKindProcess)
	agent.Name = "Invoice Runner"
	agent.Goal = "Process invoices nightly"

	require.NoError(t, store.Persist(context.Background()))

	assert.Equal(t, "actor-42", agent.OwnerID)
	assert.Equal(t, "actor-42", agent.CreatedBy)
	assert.True(t, agent.OwnerAssumed)
}

func TestPersist_ProvisionalOwnershipRepairedByBackend(t *testing.T) {
	api := &fakeAPI{createOwnerID: "", updateOwnerID: "owner-real"}
	store := newTestStore(api)

	agent := store.Begin(models.AgentKindProcess)
	agent.Goal = "Process invoices nightly"

	require.NoError(t, store.Persist(context.Background()))
	require.True(t, agent.OwnerAssumed)

	require.NoError(t, store.Persist(context.Background()))

	assert.Equal(t, "owner-real", agent.OwnerID)
	assert.False(t, agent.OwnerAssumed)
}

func TestPersist_OwnershipNeverRederived(t *testing.T) {
	api := &fakeAPI{createOwnerID: "owner-1", updateOwnerID: "owner-2"}
	store := newTestStore(api)

	agent := store.Begin(models.AgentKindConversational)
	agent.Goal = "Answer questions"

	require.NoError(t, store.Persist(context.Background()))
	require.NoError(t, store.Persist(context.Background()))

	assert.Equal(t, "owner-1", agent.OwnerID)
}

func TestPersist_CreateFailureLeavesDraftLocal(t *testing.T) {
	api := &fakeAPI{createErr: errors.New("backend down")}
	store := newTestStore(api)

	agent := store.Begin(models.AgentKindConversational)
	agent.Goal = "Answer questions"

	err := store.Persist(context.Background())
	require.Error(t, err)

	_, persisted := store.PersistedID()
	assert.False(t, persisted)

	// Recovery: next persist retries the create.
	api.createErr = nil
	require.NoError(t, store.Persist(context.Background()))
	assert.Equal(t, 2, api.creates)
}

func TestBegin_DropsPreviousIdentity(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	agent := store.Begin(models.AgentKindConversational)
	agent.Goal = "Answer questions"
	require.NoError(t, store.Persist(context.Background()))

	_, persisted := store.PersistedID()
	require.True(t, persisted)

	// Choosing a kind again starts a brand new draft.
	fresh := store.Begin(models.AgentKindProcess)

	_, persisted = store.PersistedID()
	assert.False(t, persisted)
	assert.Empty(t, fresh.ID)
	assert.Equal(t, models.AgentKindProcess, fresh.Kind)
}

func TestBeginEdit_PublishedAgentRetainsOriginalStatus(t *testing.T) {
	store := newTestStore(&fakeAPI{})

	existing := &models.Agent{
		ID:      "agent-007",
		Kind:    models.AgentKindConversational,
		Name:    "Live Bot",
		Goal:    "Answer questions",
		Status:  models.AgentStatusPublished,
		OwnerID: "owner-1",
	}

	agent := store.BeginEdit(existing)

	assert.Equal(t, models.AgentStatusDraft, agent.Status)
	assert.Equal(t, models.AgentStatusPublished, store.OriginalStatus())
	assert.True(t, store.EditingPublished())

	id, persisted := store.PersistedID()
	require.True(t, persisted)
	assert.Equal(t, "agent-007", id)
}

func TestDiscard_ClearsIdentity(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(api)

	agent := store.Begin(models.AgentKindConversational)
	agent.Goal = "Answer questions"
	require.NoError(t, store.Persist(context.Background()))

	store.Discard()

	assert.Nil(t, store.Draft())

	_, persisted := store.PersistedID()
	assert.False(t, persisted)
}
