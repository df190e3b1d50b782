package models

import (
	"encoding/json"
	"time"
)

// ExecutionStatus is the observed state of a running agent or process
// instance. Completed and Failed are terminal: once observed, the status
// never changes again.
type ExecutionStatus string

const (
	ExecutionStatusRunning         ExecutionStatus = "running"
	ExecutionStatusWaitingApproval ExecutionStatus = "waiting_approval"
	ExecutionStatusCompleted       ExecutionStatus = "completed"
	ExecutionStatusFailed          ExecutionStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// Execution is one run of an agent. Trace is an opaque animation/replay
// payload consumed by the playback layer; this package never inspects it.
type Execution struct {
	ID         string          `json:"id"        validate:"required"`
	AgentID    string          `json:"agent_id"  validate:"required"`
	Status     ExecutionStatus `json:"status"    validate:"required,oneof=running waiting_approval completed failed"`
	Trace      json.RawMessage `json:"trace,omitempty"`
	Subtitle   string          `json:"subtitle,omitempty"`
	ApprovalID string          `json:"approval_id,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}
