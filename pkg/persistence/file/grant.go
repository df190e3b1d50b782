package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
)

// GrantRepository stores delegated capability grants, one JSON document per
// agent keyed by actor inside it.
type GrantRepository struct {
	root string
}

// NewGrantRepository creates a new grant repository.
func NewGrantRepository(root string) *GrantRepository {
	return &GrantRepository{root: root}
}

func (gr *GrantRepository) path(agentID string) string {
	return filepath.Join(gr.root, "grants", agentID+".json")
}

func (gr *GrantRepository) load(agentID string) (map[string][]models.Capability, error) {
	data, err := os.ReadFile(gr.path(agentID))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]models.Capability{}, nil
		}

		return nil, persistence.NewAgentError("Grants", agentID, err)
	}

	grants := make(map[string][]models.Capability)
	if err := json.Unmarshal(data, &grants); err != nil {
		return nil, persistence.NewAgentError("Grants", agentID, err)
	}

	return grants, nil
}

func (gr *GrantRepository) store(agentID string, grants map[string][]models.Capability) error {
	if err := os.MkdirAll(filepath.Join(gr.root, "grants"), dirPerm); err != nil {
		return persistence.NewAgentError("SetGrants", agentID, err)
	}

	data, err := json.MarshalIndent(grants, "", "  ")
	if err != nil {
		return persistence.NewAgentError("SetGrants", agentID, err)
	}

	if err := os.WriteFile(gr.path(agentID), data, 0o644); err != nil {
		return persistence.NewAgentError("SetGrants", agentID, err)
	}

	return nil
}

// Grants returns the capabilities delegated to an actor for an agent.
func (gr *GrantRepository) Grants(_ context.Context, agentID, actorID string) ([]models.Capability, error) {
	grants, err := gr.load(agentID)
	if err != nil {
		return nil, err
	}

	return grants[actorID], nil
}

// SetGrants replaces an actor's capability set for an agent.
func (gr *GrantRepository) SetGrants(_ context.Context, agentID, actorID string, capabilities []models.Capability) error {
	grants, err := gr.load(agentID)
	if err != nil {
		return err
	}

	grants[actorID] = capabilities

	return gr.store(agentID, grants)
}

// RevokeGrants removes every capability delegated to an actor for an agent.
func (gr *GrantRepository) RevokeGrants(_ context.Context, agentID, actorID string) error {
	grants, err := gr.load(agentID)
	if err != nil {
		return err
	}

	delete(grants, actorID)

	return gr.store(agentID, grants)
}
