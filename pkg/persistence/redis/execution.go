// Package redis provides a Redis-backed execution repository. Execution
// status is a hot, short-lived feed polled by clients every few seconds, so
// it lives in Redis with a TTL instead of the relational store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const (
	executionKeyPrefix = "agentforge:executions:"
	agentIndexPrefix   = "agentforge:agent-executions:"

	// DefaultTTL bounds how long a finished execution stays readable.
	DefaultTTL = 24 * time.Hour
)

// ExecutionRepository implements persistence.ExecutionRepository on Redis.
type ExecutionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewExecutionRepository connects to Redis and verifies the connection.
func NewExecutionRepository(ctx context.Context, redisURL string) (*ExecutionRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &ExecutionRepository{client: client, ttl: DefaultTTL}, nil
}

// Close releases the underlying connection pool.
func (r *ExecutionRepository) Close() error {
	return r.client.Close()
}

func executionKey(id string) string {
	return executionKeyPrefix + id
}

func agentIndexKey(agentID string) string {
	return agentIndexPrefix + agentID
}

// SaveExecution writes an execution record and indexes it under its agent.
func (r *ExecutionRepository) SaveExecution(ctx context.Context, execution *models.Execution) error {
	if execution.StartedAt.IsZero() {
		execution.StartedAt = time.Now().UTC()
	}

	blob, err := json.Marshal(execution)
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, executionKey(execution.ID), blob, r.ttl)
	pipe.SAdd(ctx, agentIndexKey(execution.AgentID), execution.ID)
	pipe.Expire(ctx, agentIndexKey(execution.AgentID), r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	return nil
}

// ExecutionByID returns an execution by its ID.
func (r *ExecutionRepository) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	blob, err := r.client.Get(ctx, executionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	var execution models.Execution
	if err := json.Unmarshal(blob, &execution); err != nil {
		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	return &execution, nil
}

// ExecutionsByAgent returns the still-live executions indexed for an agent,
// newest first. Entries whose record expired are skipped.
func (r *ExecutionRepository) ExecutionsByAgent(ctx context.Context, agentID string) ([]*models.Execution, error) {
	ids, err := r.client.SMembers(ctx, agentIndexKey(agentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read agent execution index: %w", err)
	}

	executions := make([]*models.Execution, 0, len(ids))

	for _, id := range ids {
		execution, err := r.ExecutionByID(ctx, id)
		if err != nil {
			if persistence.IsExecutionNotFound(err) {
				continue
			}

			return nil, err
		}

		executions = append(executions, execution)
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	return executions, nil
}

// SetExecutionStatus updates an execution's status. Terminal statuses are
// immutable.
func (r *ExecutionRepository) SetExecutionStatus(ctx context.Context, id string, status models.ExecutionStatus, errMessage string) error {
	execution, err := r.ExecutionByID(ctx, id)
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

	return r.SaveExecution(ctx, execution)
}
