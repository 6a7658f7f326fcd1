package wizard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrBusy is returned for events that cannot run while a submit is in flight.
	ErrBusy = errors.New("wizard is submitting")
	// ErrClosed is returned for events other than Reset once the wizard closed.
	ErrClosed = errors.New("wizard is closed")
	// ErrIllegalTransition is returned for navigation past either end, or a
	// submit away from the last step.
	ErrIllegalTransition = errors.New("illegal wizard transition")
	// ErrUnknownField is returned when SetField names a field no step owns.
	ErrUnknownField = errors.New("unknown field")
	// ErrNoAssertions is returned by the assertion sub-API on wizards without
	// an assertion list.
	ErrNoAssertions = errors.New("wizard has no assertion list")
)

// StepValidationError reports that a step did not validate. The engine has
// already moved to Step and recorded Errors in its state.
type StepValidationError struct {
	Step   int
	Errors ErrorMap
	// Cause is set when the failure came from the transformer.
	Cause error
}

func (e *StepValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f, e.Errors[f])
	}
	return fmt.Sprintf("step %d is invalid: %s", e.Step, strings.Join(parts, "; "))
}

func (e *StepValidationError) Unwrap() error { return e.Cause }

// TransformError is produced by a payload transformer for a field whose text
// cannot be converted, typically free-text JSON that does not parse.
type TransformError struct {
	Field  string
	Reason string
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("field '%s': %s", e.Field, e.Reason)
}

func (e *TransformError) Unwrap() error { return e.Err }

// IsTransformError reports whether err wraps a TransformError.
func IsTransformError(err error) bool {
	var te *TransformError
	return errors.As(err, &te)
}

// SubmitError wraps a failure returned by the submit collaborator.
type SubmitError struct {
	Kind string
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit %s: %v", e.Kind, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }
