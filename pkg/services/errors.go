// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrEmptyOwnerID   = errors.New("owner ID cannot be empty")
	ErrInvalidStatus  = errors.New("invalid agent status")

	// Publishing Validation Errors (400 Bad Request).
	ErrAgentNil                = errors.New("agent cannot be nil")
	ErrAgentNameRequired       = errors.New("agent name is required")
	ErrAgentGoalRequired       = errors.New("agent goal is required")
	ErrPersonalityIncomplete   = errors.New("agent personality is incomplete")
	ErrModelSelectionRequired  = errors.New("agent model selection is required")
	ErrInvalidGuardrails       = errors.New("agent guardrails are invalid")

	// Business Logic Conflicts (409 Conflict).
	ErrAlreadyPublished     = errors.New("agent is already published")
	ErrCannotModifyDeleted  = errors.New("cannot modify deleted agent")
	ErrExecutionNotApproval = errors.New("execution is not waiting for approval")

	// Authorization Errors (403 Forbidden).
	ErrNotOwner     = errors.New("actor is not the agent owner")
	ErrNotPermitted = errors.New("actor lacks the required capability")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyOwnerID) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrAgentNil) ||
		errors.Is(err, ErrAgentNameRequired) ||
		errors.Is(err, ErrAgentGoalRequired) ||
		errors.Is(err, ErrPersonalityIncomplete) ||
		errors.Is(err, ErrModelSelectionRequired) ||
		errors.Is(err, ErrInvalidGuardrails)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyPublished) ||
		errors.Is(err, ErrCannotModifyDeleted) ||
		errors.Is(err, ErrExecutionNotApproval)
}

// IsForbiddenError checks if an error is an authorization failure that should return HTTP 403.
func IsForbiddenError(err error) bool {
	return errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrNotPermitted)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
