// Package conductorerr provides the unified error taxonomy for MusicalConductor.
package conductorerr

import "fmt"

// Kind identifies one of the error categories named in the specification.
type Kind string

const (
	KindSequenceNotFound          Kind = "SEQUENCE_NOT_FOUND"
	KindValidationFailed          Kind = "VALIDATION_FAILED"
	KindDuplicateRequest          Kind = "DUPLICATE_REQUEST"
	KindResourceRejected          Kind = "RESOURCE_REJECTED"
	KindHandlerError              Kind = "HANDLER_ERROR"
	KindMissingAtDrain            Kind = "MISSING_AT_DRAIN"
	KindPreemptedByHigherPriority Kind = "PREEMPTED_BY_HIGHER_PRIORITY"
)

// Error is a structured error carrying a Kind, a human message, and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error around an existing cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// SequenceNotFound builds a KindSequenceNotFound error.
func SequenceNotFound(name string) *Error {
	return New(KindSequenceNotFound, fmt.Sprintf("sequence %q not found", name))
}

// ValidationFailed builds a KindValidationFailed error.
func ValidationFailed(reason string) *Error {
	return New(KindValidationFailed, reason)
}

// DuplicateRequest builds a KindDuplicateRequest error.
func DuplicateRequest(hash string) *Error {
	return New(KindDuplicateRequest, fmt.Sprintf("duplicate request hash %q within dedup window", hash))
}

// ResourceRejected builds a KindResourceRejected error.
func ResourceRejected(resourceID, reason string) *Error {
	return New(KindResourceRejected, fmt.Sprintf("resource %q rejected: %s", resourceID, reason))
}

// HandlerError wraps a handler's own error.
func HandlerError(event string, err error) *Error {
	return Wrap(KindHandlerError, fmt.Sprintf("handler for event %q failed", event), err)
}

// MissingAtDrain builds a KindMissingAtDrain error.
func MissingAtDrain(name string) *Error {
	return New(KindMissingAtDrain, fmt.Sprintf("sequence %q no longer registered at drain time", name))
}

// Preempted builds a KindPreemptedByHigherPriority error.
func Preempted(resourceID string) *Error {
	return New(KindPreemptedByHigherPriority, fmt.Sprintf("preempted by a higher-priority request for resource %q", resourceID))
}
