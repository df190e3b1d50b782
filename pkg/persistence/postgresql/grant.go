package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agentforge/agentforge/pkg/models"
)

// GrantRepository handles capability-grant database operations.
type GrantRepository struct {
	db *sql.DB
}

// NewGrantRepository creates a new grant repository.
func NewGrantRepository(db *sql.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// Grants returns the capabilities delegated to an actor for an agent. An
// actor without grants gets an empty set, not an error.
func (r *GrantRepository) Grants(ctx context.Context, agentID, actorID string) ([]models.Capability, error) {
	query := `
		SELECT capabilities
		FROM capability_grants
		WHERE agent_id = $1 AND actor_id = $2
	`

	var blob []byte

	err := r.db.QueryRowContext(ctx, query, agentID, actorID).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to query grants: %w", err)
	}

	var capabilities []models.Capability
	if err := json.Unmarshal(blob, &capabilities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grants: %w", err)
	}

	return capabilities, nil
}

// SetGrants replaces an actor's capability set for an agent.
func (r *GrantRepository) SetGrants(ctx context.Context, agentID, actorID string, capabilities []models.Capability) error {
	if capabilities == nil {
		capabilities = []models.Capability{}
	}

	blob, err := json.Marshal(capabilities)
	if err != nil {
		return fmt.Errorf("failed to marshal grants: %w", err)
	}

	query := `
		INSERT INTO capability_grants (agent_id, actor_id, capabilities, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (agent_id, actor_id) DO UPDATE SET
			capabilities = EXCLUDED.capabilities,
			updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query, agentID, actorID, blob)
	if err != nil {
		return fmt.Errorf("failed to save grants: %w", err)
	}

	return nil
}

// RevokeGrants removes every capability delegated to an actor for an agent.
func (r *GrantRepository) RevokeGrants(ctx context.Context, agentID, actorID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM capability_grants WHERE agent_id = $1 AND actor_id = $2", agentID, actorID)
	if err != nil {
		return fmt.Errorf("failed to revoke grants: %w", err)
	}

	return nil
}
