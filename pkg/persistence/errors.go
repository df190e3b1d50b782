// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrAgentNotFound indicates an agent was not found by the given identifier.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentAlreadyExists indicates an agent with the same identifier already exists.
	ErrAgentAlreadyExists = errors.New("agent already exists")

	// ErrInvalidAgentStatus indicates an invalid agent status was provided.
	ErrInvalidAgentStatus = errors.New("invalid agent status")

	// ErrExecutionNotFound indicates an execution was not found by the given identifier.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionTerminal indicates an attempt to update an execution that
	// already reached a terminal status.
	ErrExecutionTerminal = errors.New("execution already terminal")
)

// AgentError wraps agent-related errors with additional context.
type AgentError struct {
	Op      string // Operation being performed (e.g., "AgentByID", "SaveAgent")
	AgentID string // Agent ID if applicable
	Err     error  // Underlying error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s operation failed for agent %s: %v", e.Op, e.AgentID, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for agent errors.
func (e *AgentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewAgentError creates a new agent error with context.
func NewAgentError(op, agentID string, err error) *AgentError {
	return &AgentError{
		Op:      op,
		AgentID: agentID,
		Err:     err,
	}
}

// ExecutionError wraps execution-related errors with additional context.
type ExecutionError struct {
	Op          string
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExecutionError creates a new execution error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{
		Op:          op,
		ExecutionID: executionID,
		Err:         err,
	}
}

// IsAgentNotFound checks if an error indicates an agent was not found.
func IsAgentNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsExecutionTerminal checks if an error indicates a terminal execution update.
func IsExecutionTerminal(err error) bool {
	return errors.Is(err, ErrExecutionTerminal)
}
