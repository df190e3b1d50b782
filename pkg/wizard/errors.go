package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDraft indicates a transition was requested before Start/StartEdit.
	ErrNoDraft = errors.New("no active draft")

	// ErrTransitionInFlight indicates a second transition was requested
	// while one is still running. The controller is not reentrant.
	ErrTransitionInFlight = errors.New("transition already in flight")

	// ErrStepLocked indicates a skip-ahead jump was requested in the create
	// regime, where only visited steps are reachable.
	ErrStepLocked = errors.New("step not reachable yet")

	// ErrInvalidStep indicates a jump target outside the active step range.
	ErrInvalidStep = errors.New("invalid step")

	// Step-local validation failures. These block the transition and are
	// surfaced to the user; correcting the input fully recovers.
	ErrNameRequired          = errors.New("agent name is required")
	ErrGoalRequired          = errors.New("agent goal is required")
	ErrIncompletePersonality = errors.New("personality must carry all six traits")
	ErrTaskNameRequired      = errors.New("every task needs a name")
)

// ValidationError ties a blocking validation failure to the step that
// produced it.
type ValidationError struct {
	Step Step
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a step validation failure, as
// opposed to an access or sequencing problem.
func IsValidationError(err error) bool {
	var target *ValidationError

	return errors.As(err, &target)
}
