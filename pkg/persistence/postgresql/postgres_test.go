//go:build integration

package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
	"github.com/agentforge/agentforge/pkg/persistence/postgresql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Drop tables in reverse dependency order (children first, parents last)
	for _, table := range []string{"capability_grants", "executions", "agents", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("agentforge_test"),
			postgres.WithUsername("agentforge"),
			postgres.WithPassword("agentforge"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	for _, table := range []string{"agents", "executions", "capability_grants"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table+" table should exist")
	}
}

func TestAgentRepository_Lifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.AgentRepository()

	agent := &models.Agent{
		ID:     uuid.New().String(),
		Kind:   models.AgentKindProcess,
		Name:   "Invoice processor",
		Goal:   "Process incoming invoices end to end",
		Status: models.AgentStatusDraft,
		Personality: &models.Personality{
			Formality: 7, Creativity: 3, Empathy: 5, Assertiveness: 6, Humor: 2, Detail: 9,
		},
		Tasks: []*models.Task{
			{Name: "Extract fields", Instructions: []string{"Open invoice", "Read totals"}, Position: 0},
		},
		OwnerID:   "user-1",
		CreatedBy: "user-1",
	}

	require.NoError(t, repo.SaveAgent(ctx, agent))

	loaded, err := repo.AgentByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Invoice processor", loaded.Name)
	require.NotNil(t, loaded.Personality)
	assert.Equal(t, 9, loaded.Personality.Detail)
	require.Len(t, loaded.Tasks, 1)
	assert.Equal(t, []string{"Open invoice", "Read totals"}, loaded.Tasks[0].Instructions)
	assert.Nil(t, loaded.Guardrails)

	// Publish and verify status plus published_at stamp.
	require.NoError(t, repo.SetAgentStatus(ctx, agent.ID, models.AgentStatusPublished))

	loaded, err = repo.AgentByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AgentStatusPublished, loaded.Status)
	assert.NotNil(t, loaded.PublishedAt)

	// Revert to draft keeps the original published_at.
	require.NoError(t, repo.SetAgentStatus(ctx, agent.ID, models.AgentStatusDraft))

	loaded, err = repo.AgentByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AgentStatusDraft, loaded.Status)
	assert.NotNil(t, loaded.PublishedAt)

	// Soft delete hides the agent.
	require.NoError(t, repo.DeleteAgent(ctx, agent.ID))

	_, err = repo.AgentByID(ctx, agent.ID)
	assert.True(t, persistence.IsAgentNotFound(err))
}

func TestAgentRepository_ListAndPurge(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.AgentRepository()

	for _, tc := range []struct {
		owner  string
		status models.AgentStatus
	}{
		{"user-1", models.AgentStatusDraft},
		{"user-1", models.AgentStatusPublished},
		{"user-2", models.AgentStatusDraft},
	} {
		agent := &models.Agent{
			ID:      uuid.New().String(),
			Kind:    models.AgentKindConversational,
			Name:    "Helper",
			Goal:    "Help",
			Status:  models.AgentStatusDraft,
			OwnerID: tc.owner,
		}
		require.NoError(t, repo.SaveAgent(ctx, agent))

		if tc.status == models.AgentStatusPublished {
			require.NoError(t, repo.SetAgentStatus(ctx, agent.ID, models.AgentStatusPublished))
		}
	}

	mine, err := repo.Agents(ctx, persistence.ListOptions{OwnerID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	draft := models.AgentStatusDraft

	drafts, err := repo.Agents(ctx, persistence.ListOptions{Status: &draft})
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	// Every draft is older than a future cutoff; the published agent survives.
	purged, err := repo.PurgeAbandonedDrafts(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, purged)

	remaining, err := repo.Agents(ctx, persistence.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestExecutionRepository_TerminalGuard(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agent := &models.Agent{
		ID:      uuid.New().String(),
		Kind:    models.AgentKindProcess,
		Name:    "Runner",
		Goal:    "Run",
		Status:  models.AgentStatusPublished,
		OwnerID: "user-1",
	}
	require.NoError(t, p.AgentRepository().SaveAgent(ctx, agent))

	repo := p.ExecutionRepository()
	executionID := uuid.New().String()

	require.NoError(t, repo.SaveExecution(ctx, &models.Execution{
		ID:      executionID,
		AgentID: agent.ID,
		Status:  models.ExecutionStatusRunning,
		Trace:   []byte(`[{"frame":1}]`),
	}))

	require.NoError(t, repo.SetExecutionStatus(ctx, executionID, models.ExecutionStatusWaitingApproval, ""))
	require.NoError(t, repo.SetExecutionStatus(ctx, executionID, models.ExecutionStatusCompleted, ""))

	err := repo.SetExecutionStatus(ctx, executionID, models.ExecutionStatusFailed, "too late")
	assert.True(t, persistence.IsExecutionTerminal(err))

	loaded, err := repo.ExecutionByID(ctx, executionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, loaded.Status)
	assert.NotNil(t, loaded.FinishedAt)
	assert.JSONEq(t, `[{"frame":1}]`, string(loaded.Trace))

	byAgent, err := repo.ExecutionsByAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Len(t, byAgent, 1)
}

func TestGrantRepository_RoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	agent := &models.Agent{
		ID:      uuid.New().String(),
		Kind:    models.AgentKindConversational,
		Name:    "Shared",
		Goal:    "Be shared",
		Status:  models.AgentStatusDraft,
		OwnerID: "user-1",
	}
	require.NoError(t, p.AgentRepository().SaveAgent(ctx, agent))

	repo := p.GrantRepository()

	capabilities := []models.Capability{models.CapabilityManageTools, models.CapabilityEditModel}
	require.NoError(t, repo.SetGrants(ctx, agent.ID, "user-2", capabilities))

	got, err := repo.Grants(ctx, agent.ID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, capabilities, got)

	none, err := repo.Grants(ctx, agent.ID, "user-3")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, repo.RevokeGrants(ctx, agent.ID, "user-2"))

	got, err = repo.Grants(ctx, agent.ID, "user-2")
	require.NoError(t, err)
	assert.Empty(t, got)
}
