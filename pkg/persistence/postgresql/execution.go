package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , agent_id
  , status
  , trace
  , subtitle
  , approval_id
  , error_message
  , started_at
  , finished_at
`

// SaveExecution upserts an execution record.
func (r *ExecutionRepository) SaveExecution(ctx context.Context, execution *models.Execution) error {
	if execution.StartedAt.IsZero() {
		execution.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO executions (
			id, agent_id, status, trace, subtitle, approval_id, error_message, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			trace = EXCLUDED.trace,
			subtitle = EXCLUDED.subtitle,
			approval_id = EXCLUDED.approval_id,
			error_message = EXCLUDED.error_message,
			finished_at = EXCLUDED.finished_at
	`

	var trace []byte
	if len(execution.Trace) > 0 {
		trace = execution.Trace
	}

	_, err := r.db.ExecContext(ctx, query,
		execution.ID, execution.AgentID, execution.Status, trace,
		execution.Subtitle, nullString(execution.ApprovalID), nullString(execution.Error),
		execution.StartedAt, execution.FinishedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	return nil
}

// ExecutionByID returns an execution by its ID.
func (r *ExecutionRepository) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE id = $1
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	return execution, nil
}

// ExecutionsByAgent returns all executions for one agent, newest first.
func (r *ExecutionRepository) ExecutionsByAgent(ctx context.Context, agentID string) ([]*models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE agent_id = $1
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

// SetExecutionStatus updates an execution's status. A row that already
// reached a terminal status is never overwritten.
func (r *ExecutionRepository) SetExecutionStatus(ctx context.Context, id string, status models.ExecutionStatus, errMessage string) error {
	query := `
		UPDATE executions
		SET status = $2,
			error_message = $3,
			finished_at = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE finished_at END
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`

	result, err := r.db.ExecContext(ctx, query, id, status, nullString(errMessage))
	if err != nil {
		return persistence.NewExecutionError("SetExecutionStatus", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("SetExecutionStatus", id, err)
	}

	if affected == 0 {
		// Distinguish a missing row from a terminal one.
		if _, err := r.ExecutionByID(ctx, id); err != nil {
			return err
		}

		return persistence.NewExecutionError("SetExecutionStatus", id, persistence.ErrExecutionTerminal)
	}

	return nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution  models.Execution
		trace      []byte
		approvalID sql.NullString
		errMessage sql.NullString
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&execution.ID, &execution.AgentID, &execution.Status, &trace,
		&execution.Subtitle, &approvalID, &errMessage,
		&execution.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	execution.Trace = trace
	execution.ApprovalID = approvalID.String
	execution.Error = errMessage.String

	if finishedAt.Valid {
		execution.FinishedAt = &finishedAt.Time
	}

	return &execution, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
