package file

import (
	"context"
	"testing"
	"time"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersistence(t *testing.T) persistence.Persistence {
	t.Helper()

	return NewPersistence("file://" + t.TempDir())
}

func draftAgent(id, owner string) *models.Agent {
	return &models.Agent{
		ID:      id,
		Kind:    models.AgentKindConversational,
		Name:    "Invoice helper",
		Goal:    "Answer invoice questions",
		Status:  models.AgentStatusDraft,
		OwnerID: owner,
	}
}

func TestAgentRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestPersistence(t).AgentRepository()

	require.NoError(t, repo.SaveAgent(ctx, draftAgent("agent-1", "user-1")))

	loaded, err := repo.AgentByID(ctx, "agent-1")
	require.NoError(t, err)
	assert.Equal(t, "Invoice helper", loaded.Name)
	assert.False(t, loaded.CreatedAt.IsZero())
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestAgentRepository_GetMissing(t *testing.T) {
	repo := newTestPersistence(t).AgentRepository()

	_, err := repo.AgentByID(context.Background(), "nope")
	assert.True(t, persistence.IsAgentNotFound(err))
}

func TestAgentRepository_SoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestPersistence(t).AgentRepository()

	require.NoError(t, repo.SaveAgent(ctx, draftAgent("agent-1", "user-1")))
	require.NoError(t, repo.DeleteAgent(ctx, "agent-1"))

	_, err := repo.AgentByID(ctx, "agent-1")
	assert.True(t, persistence.IsAgentNotFound(err))
}

func TestAgentRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestPersistence(t).AgentRepository()

	require.NoError(t, repo.SaveAgent(ctx, draftAgent("agent-1", "user-1")))
	require.NoError(t, repo.SaveAgent(ctx, draftAgent("agent-2", "user-2")))
	require.NoError(t, repo.SetAgentStatus(ctx, "agent-2", models.AgentStatusPublished))

	mine, err := repo.Agents(ctx, persistence.ListOptions{OwnerID: "user-1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "agent-1", mine[0].ID)

	published := models.AgentStatusPublished

	live, err := repo.Agents(ctx, persistence.ListOptions{Status: &published})
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "agent-2", live[0].ID)
	assert.NotNil(t, live[0].PublishedAt)
}

func TestAgentRepository_SetStatusRejectsUnknown(t *testing.T) {
	ctx := context.Background()
	repo := newTestPersistence(t).AgentRepository()

	require.NoError(t, repo.SaveAgent(ctx, draftAgent("agent-1", "user-1")))

	err := repo.SetAgentStatus(ctx, "agent-1", models.AgentStatus("archived"))
	assert.ErrorIs(t, err, persistence.ErrInvalidAgentStatus)
}

func TestAgentRepository_PurgeAbandonedDrafts(t *testing.T) {
	ctx := context.Background()
	repo := newTestPersistence(t).AgentRepository()

	require.NoError(t, repo.SaveAgent(ctx, draftAgent("agent-stale", "user-1")))

	time.Sleep(5 * time.Millisecond)

	cutoff := time.Now().UTC()

	// Touched after the cutoff, must survive.
	require.NoError(t, repo.SaveAgent(ctx, draftAgent("agent-fresh", "user-1")))

	// Published, must survive regardless of age.
	require.NoError(t, repo.SaveAgent(ctx, draftAgent("agent-live", "user-1")))
	require.NoError(t, repo.SetAgentStatus(ctx, "agent-live", models.AgentStatusPublished))

	purged, err := repo.PurgeAbandonedDrafts(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = repo.AgentByID(ctx, "agent-stale")
	assert.True(t, persistence.IsAgentNotFound(err))

	_, err = repo.AgentByID(ctx, "agent-fresh")
	assert.NoError(t, err)
}

func TestExecutionRepository_TerminalStatusIsImmutable(t *testing.T) {
	ctx := context.Background()
	repo := newTestPersistence(t).ExecutionRepository()

	require.NoError(t, repo.SaveExecution(ctx, &models.Execution{
		ID:      "exec-1",
		AgentID: "agent-1",
		Status:  models.ExecutionStatusRunning,
	}))

	require.NoError(t, repo.SetExecutionStatus(ctx, "exec-1", models.ExecutionStatusCompleted, ""))

	err := repo.SetExecutionStatus(ctx, "exec-1", models.ExecutionStatusFailed, "late failure")
	assert.True(t, persistence.IsExecutionTerminal(err))

	loaded, err := repo.ExecutionByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, loaded.Status)
	assert.NotNil(t, loaded.FinishedAt)
}

func TestExecutionRepository_ListByAgent(t *testing.T) {
	ctx := context.Background()
	repo := newTestPersistence(t).ExecutionRepository()

	require.NoError(t, repo.SaveExecution(ctx, &models.Execution{ID: "exec-1", AgentID: "agent-1", Status: models.ExecutionStatusRunning}))
	require.NoError(t, repo.SaveExecution(ctx, &models.Execution{ID: "exec-2", AgentID: "agent-2", Status: models.ExecutionStatusRunning}))

	executions, err := repo.ExecutionsByAgent(ctx, "agent-1")
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, "exec-1", executions[0].ID)
}

func TestGrantRepository_SetGetRevoke(t *testing.T) {
	ctx := context.Background()
	repo := newTestPersistence(t).GrantRepository()

	capabilities := []models.Capability{models.CapabilityManageTools, models.CapabilityEditGuardrails}
	require.NoError(t, repo.SetGrants(ctx, "agent-1", "user-2", capabilities))

	got, err := repo.Grants(ctx, "agent-1", "user-2")
	require.NoError(t, err)
	assert.Equal(t, capabilities, got)

	// Unknown actor has no grants, not an error.
	none, err := repo.Grants(ctx, "agent-1", "user-3")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, repo.RevokeGrants(ctx, "agent-1", "user-2"))

	got, err = repo.Grants(ctx, "agent-1", "user-2")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPersistence_HealthCheck(t *testing.T) {
	assert.NoError(t, newTestPersistence(t).HealthCheck(context.Background()))
	assert.Error(t, NewPersistence("/nonexistent/path").HealthCheck(context.Background()))
}
