package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
)

const dirPerm = 0o755

// AgentRepository handles agent-related file operations. Each agent is one
// JSON document under <root>/agents.
type AgentRepository struct {
	root string
}

// NewAgentRepository creates a new agent repository.
func NewAgentRepository(root string) *AgentRepository {
	return &AgentRepository{root: root}
}

func (ar *AgentRepository) dir() string {
	return filepath.Join(ar.root, "agents")
}

func (ar *AgentRepository) path(id string) string {
	return filepath.Join(ar.dir(), id+".json")
}

// Agents returns filtered, sorted and paginated agents. Soft-deleted agents
// are never returned.
func (ar *AgentRepository) Agents(ctx context.Context, opts persistence.ListOptions) ([]*models.Agent, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	root := os.DirFS(ar.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list agent files: %w", err)
	}

	all := make([]*models.Agent, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		agentID := file[:len(file)-5] // Remove .json extension

		agent, err := ar.AgentByID(ctx, agentID)
		if err != nil {
			if persistence.IsAgentNotFound(err) {
				continue
			}

			return nil, fmt.Errorf("failed to load agent %s: %w", agentID, err)
		}

		if opts.OwnerID != "" && agent.OwnerID != opts.OwnerID {
			continue
		}

		if opts.Status != nil && agent.Status != *opts.Status {
			continue
		}

		all = append(all, agent)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := opts.Offset
	if start >= len(all) {
		return []*models.Agent{}, nil
	}

	end := start + opts.Limit
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], nil
}

// AgentByID retrieves an agent by its ID from the file system.
func (ar *AgentRepository) AgentByID(_ context.Context, id string) (*models.Agent, error) {
	data, err := os.ReadFile(ar.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewAgentError("AgentByID", id, persistence.ErrAgentNotFound)
		}

		return nil, persistence.NewAgentError("AgentByID", id, err)
	}

	var agent models.Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return nil, persistence.NewAgentError("AgentByID", id, err)
	}

	if agent.DeletedAt != nil {
		return nil, persistence.NewAgentError("AgentByID", id, persistence.ErrAgentNotFound)
	}

	return &agent, nil
}

// SaveAgent writes an agent to the file system, stamping timestamps.
func (ar *AgentRepository) SaveAgent(_ context.Context, agent *models.Agent) error {
	now := time.Now().UTC()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}

	agent.UpdatedAt = now

	if err := os.MkdirAll(ar.dir(), dirPerm); err != nil {
		return persistence.NewAgentError("SaveAgent", agent.ID, err)
	}

	data, err := json.MarshalIndent(agent, "", "  ")
	if err != nil {
		return persistence.NewAgentError("SaveAgent", agent.ID, err)
	}

	if err := os.WriteFile(ar.path(agent.ID), data, 0o644); err != nil {
		return persistence.NewAgentError("SaveAgent", agent.ID, err)
	}

	return nil
}

// DeleteAgent soft deletes an agent by setting its deleted_at timestamp.
func (ar *AgentRepository) DeleteAgent(ctx context.Context, id string) error {
	agent, err := ar.AgentByID(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	agent.DeletedAt = &now

	data, err := json.MarshalIndent(agent, "", "  ")
	if err != nil {
		return persistence.NewAgentError("DeleteAgent", id, err)
	}

	if err := os.WriteFile(ar.path(id), data, 0o644); err != nil {
		return persistence.NewAgentError("DeleteAgent", id, err)
	}

	return nil
}

// SetAgentStatus flips an agent's lifecycle status, stamping published_at
// when it goes live.
func (ar *AgentRepository) SetAgentStatus(ctx context.Context, id string, status models.AgentStatus) error {
	if status != models.AgentStatusDraft && status != models.AgentStatusPublished {
		return persistence.NewAgentError("SetAgentStatus", id, persistence.ErrInvalidAgentStatus)
	}

	agent, err := ar.AgentByID(ctx, id)
	if err != nil {
		return err
	}

	agent.Status = status

	if status == models.AgentStatusPublished {
		now := time.Now().UTC()
		agent.PublishedAt = &now
	}

	return ar.SaveAgent(ctx, agent)
}

// PurgeAbandonedDrafts soft-deletes never-published drafts last touched
// before the cutoff.
func (ar *AgentRepository) PurgeAbandonedDrafts(ctx context.Context, cutoff time.Time) (int, error) {
	root := os.DirFS(ar.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return 0, fmt.Errorf("failed to list agent files: %w", err)
	}

	purged := 0

	for _, file := range jsonFiles {
		agentID := file[:len(file)-5]

		agent, err := ar.AgentByID(ctx, agentID)
		if err != nil {
			if persistence.IsAgentNotFound(err) {
				continue
			}

			return purged, err
		}

		if agent.Status != models.AgentStatusDraft || agent.PublishedAt != nil {
			continue
		}

		if !agent.UpdatedAt.Before(cutoff) {
			continue
		}

		if err := ar.DeleteAgent(ctx, agentID); err != nil {
			return purged, err
		}

		purged++
	}

	return purged, nil
}
