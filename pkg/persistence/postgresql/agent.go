package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
)

// AgentRepository handles agent-related database operations.
type AgentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAgentRepository creates a new agent repository.
func NewAgentRepository(db *sql.DB, logger *slog.Logger) *AgentRepository {
	return &AgentRepository{db: db, logger: logger}
}

const agentColumns = `
	id
  , kind
  , name
  , goal
  , description
  , personality
  , tasks
  , tools
  , knowledge
  , access
  , guardrails
  , model
  , status
  , owner_id
  , created_by
  , owner_assumed
  , created_at
  , updated_at
  , published_at
`

// Agents returns filtered and paginated agents, newest first.
func (r *AgentRepository) Agents(ctx context.Context, opts persistence.ListOptions) ([]*models.Agent, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	query := `
		SELECT ` + agentColumns + `
		FROM agents
		WHERE deleted_at IS NULL
		  AND ($1 = '' OR owner_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	status := ""
	if opts.Status != nil {
		status = string(*opts.Status)
	}

	rows, err := r.db.QueryContext(ctx, query, opts.OwnerID, status, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	agents := make([]*models.Agent, 0)

	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}

		agents = append(agents, agent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}

	return agents, nil
}

// AgentByID returns an agent by its ID.
func (r *AgentRepository) AgentByID(ctx context.Context, id string) (*models.Agent, error) {
	query := `
		SELECT ` + agentColumns + `
		FROM agents
		WHERE id = $1 AND deleted_at IS NULL
	`

	agent, err := scanAgent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewAgentError("AgentByID", id, persistence.ErrAgentNotFound)
		}

		return nil, persistence.NewAgentError("AgentByID", id, err)
	}

	return agent, nil
}

// SaveAgent upserts an agent, stamping timestamps.
func (r *AgentRepository) SaveAgent(ctx context.Context, agent *models.Agent) error {
	now := time.Now().UTC()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}

	agent.UpdatedAt = now

	fields := map[string]any{
		"personality": agent.Personality,
		"tasks":       agent.Tasks,
		"tools":       agent.Tools,
		"knowledge":   agent.Knowledge,
		"access":      agent.Access,
		"guardrails":  agent.Guardrails,
		"model":       agent.Model,
	}

	blobs := make(map[string][]byte, len(fields))

	for name, value := range fields {
		blob, err := marshalNullable(value)
		if err != nil {
			return persistence.NewAgentError("SaveAgent", agent.ID, fmt.Errorf("failed to marshal %s: %w", name, err))
		}

		blobs[name] = blob
	}

	query := `
		INSERT INTO agents (
			id, kind, name, goal, description,
			personality, tasks, tools, knowledge, access, guardrails, model,
			status, owner_id, created_by, owner_assumed,
			created_at, updated_at, published_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			goal = EXCLUDED.goal,
			description = EXCLUDED.description,
			personality = EXCLUDED.personality,
			tasks = EXCLUDED.tasks,
			tools = EXCLUDED.tools,
			knowledge = EXCLUDED.knowledge,
			access = EXCLUDED.access,
			guardrails = EXCLUDED.guardrails,
			model = EXCLUDED.model,
			status = EXCLUDED.status,
			owner_id = EXCLUDED.owner_id,
			created_by = EXCLUDED.created_by,
			owner_assumed = EXCLUDED.owner_assumed,
			updated_at = EXCLUDED.updated_at,
			published_at = EXCLUDED.published_at
	`

	_, err := r.db.ExecContext(ctx, query,
		agent.ID, agent.Kind, agent.Name, agent.Goal, agent.Description,
		blobs["personality"], blobs["tasks"], blobs["tools"], blobs["knowledge"],
		blobs["access"], blobs["guardrails"], blobs["model"],
		agent.Status, agent.OwnerID, agent.CreatedBy, agent.OwnerAssumed,
		agent.CreatedAt, agent.UpdatedAt, agent.PublishedAt,
	)
	if err != nil {
		return persistence.NewAgentError("SaveAgent", agent.ID, err)
	}

	return nil
}

// DeleteAgent soft deletes an agent by setting its deleted_at timestamp.
func (r *AgentRepository) DeleteAgent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE agents SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return persistence.NewAgentError("DeleteAgent", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewAgentError("DeleteAgent", id, err)
	}

	if affected == 0 {
		return persistence.NewAgentError("DeleteAgent", id, persistence.ErrAgentNotFound)
	}

	return nil
}

// SetAgentStatus flips an agent's lifecycle status, stamping published_at
// the first time it goes live.
func (r *AgentRepository) SetAgentStatus(ctx context.Context, id string, status models.AgentStatus) error {
	if status != models.AgentStatusDraft && status != models.AgentStatusPublished {
		return persistence.NewAgentError("SetAgentStatus", id, persistence.ErrInvalidAgentStatus)
	}

	query := `
		UPDATE agents
		SET status = $2,
			published_at = CASE WHEN $2 = 'published' THEN NOW() ELSE published_at END,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return persistence.NewAgentError("SetAgentStatus", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewAgentError("SetAgentStatus", id, err)
	}

	if affected == 0 {
		return persistence.NewAgentError("SetAgentStatus", id, persistence.ErrAgentNotFound)
	}

	return nil
}

// PurgeAbandonedDrafts soft-deletes never-published drafts untouched since
// the cutoff.
func (r *AgentRepository) PurgeAbandonedDrafts(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		UPDATE agents
		SET deleted_at = NOW()
		WHERE status = 'draft'
		  AND published_at IS NULL
		  AND updated_at < $1
		  AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge abandoned drafts: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged drafts: %w", err)
	}

	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*models.Agent, error) {
	var (
		agent       models.Agent
		personality, tasks, tools, knowledge []byte
		access, guardrails, model            []byte
		publishedAt sql.NullTime
	)

	err := row.Scan(
		&agent.ID, &agent.Kind, &agent.Name, &agent.Goal, &agent.Description,
		&personality, &tasks, &tools, &knowledge, &access, &guardrails, &model,
		&agent.Status, &agent.OwnerID, &agent.CreatedBy, &agent.OwnerAssumed,
		&agent.CreatedAt, &agent.UpdatedAt, &publishedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		agent.PublishedAt = &publishedAt.Time
	}

	for _, field := range []struct {
		blob []byte
		dest any
	}{
		{personality, &agent.Personality},
		{tasks, &agent.Tasks},
		{tools, &agent.Tools},
		{knowledge, &agent.Knowledge},
		{access, &agent.Access},
		{guardrails, &agent.Guardrails},
		{model, &agent.Model},
	} {
		if len(field.blob) == 0 {
			continue
		}

		if err := json.Unmarshal(field.blob, field.dest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal agent field: %w", err)
		}
	}

	return &agent, nil
}

// marshalNullable serializes a value to JSON, mapping nil pointers and nil
// slices to SQL NULL.
func marshalNullable(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}

	blob, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	if string(blob) == "null" {
		return nil, nil
	}

	return blob, nil
}
