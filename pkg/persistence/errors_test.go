package persistence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgentError_WrapsSentinel(t *testing.T) {
	err := NewAgentError("AgentByID", "agent-1", ErrAgentNotFound)

	assert.True(t, IsAgentNotFound(err))
	assert.True(t, errors.Is(err, ErrAgentNotFound))
	assert.Contains(t, err.Error(), "agent-1")
	assert.Contains(t, err.Error(), "AgentByID")
}

func TestExecutionError_WrapsSentinel(t *testing.T) {
	err := NewExecutionError("SetExecutionStatus", "exec-1", ErrExecutionTerminal)

	assert.True(t, IsExecutionTerminal(err))
	assert.False(t, IsExecutionNotFound(err))
	assert.Contains(t, err.Error(), "exec-1")
}

func TestSentinelsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrAgentNotFound, ErrExecutionNotFound))
	assert.False(t, IsAgentNotFound(errors.New("agent not found")))
}
