// Package file provides file-based persistence implementation for agents,
// executions and grants. Intended for local development and tests.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/agentforge/agentforge/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root          string
	agentRepo     *AgentRepository
	executionRepo *ExecutionRepository
	grantRepo     *GrantRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		agentRepo:     NewAgentRepository(cleanRoot),
		executionRepo: NewExecutionRepository(cleanRoot),
		grantRepo:     NewGrantRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) AgentRepository() persistence.AgentRepository {
	return fp.agentRepo
}

func (fp *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return fp.executionRepo
}

func (fp *Persistence) GrantRepository() persistence.GrantRepository {
	return fp.grantRepo
}
