// Package caseflow implements an event-sourced case engine for formal
// claim-and-response exchanges between a contractor and an owner on
// construction projects.
package caseflow

import (
	"errors"
	"fmt"

	"github.com/caseflow/caseflow/adapters"
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these errors.
// Storage-level sentinels are aliases to the adapters package errors.
var (
	// ErrConcurrencyConflict indicates an optimistic concurrency violation.
	// The caller must reload state and resubmit; the engine never retries.
	ErrConcurrencyConflict = adapters.ErrConcurrencyConflict

	// ErrCaseNotFound indicates the requested case does not exist.
	ErrCaseNotFound = adapters.ErrCaseNotFound

	// ErrEmptyCaseID indicates an empty case ID was provided.
	ErrEmptyCaseID = adapters.ErrEmptyCaseID

	// ErrNoEvents indicates no events were provided for a write.
	ErrNoEvents = adapters.ErrNoEvents

	// ErrInvalidVersion indicates an invalid expected version was provided.
	ErrInvalidVersion = adapters.ErrInvalidVersion

	// ErrAdapterClosed indicates the storage adapter has been closed.
	ErrAdapterClosed = adapters.ErrAdapterClosed

	// ErrValidationFailed indicates a business rule rejected the event.
	// The event was not persisted.
	ErrValidationFailed = errors.New("caseflow: validation failed")

	// ErrMalformedEvent indicates an unknown event type or a payload that
	// does not match its event type. This is fatal: it means a corrupted
	// write path or version skew between producer and consumer.
	ErrMalformedEvent = errors.New("caseflow: malformed event")

	// ErrStorageFailure indicates an infrastructure-level storage error.
	// Retrying is the caller's decision; the engine attaches no semantics.
	ErrStorageFailure = errors.New("caseflow: storage failure")

	// ErrCrossCaseBatch indicates a batch mixing events for different cases.
	ErrCrossCaseBatch = errors.New("caseflow: batch spans multiple cases")
)

// ConcurrencyError provides detailed information about a concurrency conflict.
type ConcurrencyError = adapters.ConcurrencyError

// NewConcurrencyError creates a new ConcurrencyError.
func NewConcurrencyError(caseID string, expected, actual int64) *ConcurrencyError {
	return adapters.NewConcurrencyError(caseID, expected, actual)
}

// ValidationError reports the named business rule an event violated, together
// with a human-readable message. Validation errors are client-input errors
// and are never persisted.
type ValidationError struct {
	EventType EventType
	Rule      Rule
	Message   string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("caseflow: event %q violates rule %s: %s", e.EventType, e.Rule, e.Message)
}

// Is reports whether this error matches the target error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a new ValidationError.
func NewValidationError(eventType EventType, rule Rule, message string) *ValidationError {
	return &ValidationError{EventType: eventType, Rule: rule, Message: message}
}

// MalformedEventError provides detailed information about an event that
// cannot be decoded or fails structural checks.
type MalformedEventError struct {
	EventType string
	Cause     error
}

// Error returns the error message.
func (e *MalformedEventError) Error() string {
	if e.EventType == "" {
		return fmt.Sprintf("caseflow: malformed event: %v", e.Cause)
	}
	return fmt.Sprintf("caseflow: malformed event of type %q: %v", e.EventType, e.Cause)
}

// Is reports whether this error matches the target error.
func (e *MalformedEventError) Is(target error) bool {
	return target == ErrMalformedEvent
}

// Unwrap returns the underlying cause for errors.Unwrap().
func (e *MalformedEventError) Unwrap() error {
	return e.Cause
}

// NewMalformedEventError creates a new MalformedEventError.
func NewMalformedEventError(eventType string, cause error) *MalformedEventError {
	return &MalformedEventError{EventType: eventType, Cause: cause}
}

// StorageError wraps an infrastructure-level failure from the storage
// adapter. The operation name identifies the failing call without leaking
// backend details to clients.
type StorageError struct {
	Op    string
	Cause error
}

// Error returns the error message.
func (e *StorageError) Error() string {
	return fmt.Sprintf("caseflow: storage failure during %s: %v", e.Op, e.Cause)
}

// Is reports whether this error matches the target error.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

// Unwrap returns the underlying cause for errors.Unwrap().
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(op string, cause error) *StorageError {
	return &StorageError{Op: op, Cause: cause}
}
