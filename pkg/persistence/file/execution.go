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

// ExecutionRepository handles execution-related file operations.
type ExecutionRepository struct {
	root string
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) dir() string {
	return filepath.Join(er.root, "executions")
}

func (er *ExecutionRepository) path(id string) string {
	return filepath.Join(er.dir(), id+".json")
}

// SaveExecution writes an execution record to the file system.
func (er *ExecutionRepository) SaveExecution(_ context.Context, execution *models.Execution) error {
	if execution.StartedAt.IsZero() {
		execution.StartedAt = time.Now().UTC()
	}

	if err := os.MkdirAll(er.dir(), dirPerm); err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	if err := os.WriteFile(er.path(execution.ID), data, 0o644); err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	return nil
}

// ExecutionByID retrieves an execution by its ID.
func (er *ExecutionRepository) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	data, err := os.ReadFile(er.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	var execution models.Execution
	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	return &execution, nil
}

// ExecutionsByAgent returns all executions for one agent, newest first.
func (er *ExecutionRepository) ExecutionsByAgent(ctx context.Context, agentID string) ([]*models.Execution, error) {
	root := os.DirFS(er.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.Execution, 0)

	for _, file := range jsonFiles {
		execution, err := er.ExecutionByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		if execution.AgentID == agentID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	return executions, nil
}

// SetExecutionStatus updates an execution's status. Terminal statuses are
// immutable.
func (er *ExecutionRepository) SetExecutionStatus(ctx context.Context, id string, status models.ExecutionStatus, errMessage string) error {
	execution, err := er.ExecutionByID(ctx, id)
	if err != nil {
		return err
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

	return er.SaveExecution(ctx, execution)
}
