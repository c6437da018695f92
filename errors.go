package steward

import (
	"errors"
	"fmt"
)

// Error type constants for classification and matching
const (
	// ErrorTypeValidation indicates malformed caller input (missing thread
	// id, empty human response). Surfaced immediately, no state mutation.
	ErrorTypeValidation = "validation"

	// ErrorTypeExtraction indicates an extraction or generation capability
	// failed or returned unparseable output. Recovered locally by composers.
	ErrorTypeExtraction = "extraction"

	// ErrorTypeAction indicates a terminal send action failed or was
	// attempted with missing required fields. Recorded into the turn result,
	// never raised past the engine.
	ErrorTypeAction = "action_failed"

	// ErrorTypeStaleResume indicates a resume against a checkpoint that has
	// already advanced. Rejected without mutating state.
	ErrorTypeStaleResume = "stale_resume"

	// ErrorTypeNotFound indicates an unknown thread id.
	ErrorTypeNotFound = "not_found"

	// ErrorTypeConflict indicates a checkpoint write raced with another
	// write to the same thread and lost.
	ErrorTypeConflict = "conflict"

	// ErrorTypeStore indicates the checkpoint store itself failed. This is
	// the only category treated as fatal by the engine loop.
	ErrorTypeStore = "store"
)

// AgentError represents a structured error with classification.
// It supports Go's error wrapping patterns with Unwrap().
type AgentError struct {
	Type    string `json:"type"`
	Cause   string `json:"cause"`
	Wrapped error  `json:"-"`
}

// Error implements the error interface
func (e *AgentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Cause)
}

// Unwrap implements the error unwrapping interface for errors.Is and errors.As
func (e *AgentError) Unwrap() error {
	return e.Wrapped
}

// NewAgentError creates a new AgentError with the specified type and cause.
func NewAgentError(errorType, format string, args ...any) *AgentError {
	return &AgentError{Type: errorType, Cause: fmt.Sprintf(format, args...)}
}

// WrapError wraps an existing error with a classification type.
func WrapError(errorType string, err error) *AgentError {
	if err == nil {
		return nil
	}
	return &AgentError{Type: errorType, Cause: err.Error(), Wrapped: err}
}

func NewValidationError(format string, args ...any) *AgentError {
	return NewAgentError(ErrorTypeValidation, format, args...)
}

func NewExtractionError(format string, args ...any) *AgentError {
	return NewAgentError(ErrorTypeExtraction, format, args...)
}

func NewActionError(format string, args ...any) *AgentError {
	return NewAgentError(ErrorTypeAction, format, args...)
}

func NewStaleResumeError(format string, args ...any) *AgentError {
	return NewAgentError(ErrorTypeStaleResume, format, args...)
}

func NewNotFoundError(format string, args ...any) *AgentError {
	return NewAgentError(ErrorTypeNotFound, format, args...)
}

func NewConflictError(format string, args ...any) *AgentError {
	return NewAgentError(ErrorTypeConflict, format, args...)
}

// IsErrorType reports whether err (or anything it wraps) is an AgentError of
// the given type.
func IsErrorType(err error, errorType string) bool {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Type == errorType
	}
	return false
}

func IsValidation(err error) bool { return IsErrorType(err, ErrorTypeValidation) }

func IsNotFound(err error) bool { return IsErrorType(err, ErrorTypeNotFound) }

func IsStaleResume(err error) bool { return IsErrorType(err, ErrorTypeStaleResume) }

func IsConflict(err error) bool { return IsErrorType(err, ErrorTypeConflict) }
