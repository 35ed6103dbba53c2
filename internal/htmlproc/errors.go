package htmlproc

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable reason tag for pipeline failures.
type Kind string

const (
	// KindSizeExceeded means the input HTML was over the configured limit.
	// It is a hard precondition; no agent call is made.
	KindSizeExceeded Kind = "size_exceeded"
	// KindAgentFailure means the agent collaborator returned an error.
	// It is surfaced verbatim, without retries.
	KindAgentFailure Kind = "agent_failure"
)

// Error is a caller-visible pipeline failure. It carries a stable reason tag
// plus a human-readable message; stack detail is a logging concern and is not
// part of the contract.
type Error struct {
	Kind    Kind
	Message string
	Code    string
	Err     error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewSizeExceededError reports input HTML over the configured byte limit.
func NewSizeExceededError(size, limit int) *Error {
	return &Error{
		Kind:    KindSizeExceeded,
		Message: fmt.Sprintf("HTML content exceeds maximum allowed size (%d > %d bytes)", size, limit),
	}
}

// NewAgentFailureError wraps an error from the agent collaborator.
func NewAgentFailureError(err error, code string) *Error {
	return &Error{
		Kind:    KindAgentFailure,
		Message: err.Error(),
		Code:    code,
		Err:     err,
	}
}

// KindOf extracts the reason tag from a pipeline error, or "" for foreign errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
