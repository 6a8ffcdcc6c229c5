// Package adapters provides interfaces for case event log backends.
package adapters

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for adapter implementations.
// Adapters should return these (or errors that match via errors.Is)
// to enable consistent error handling across different backends.
var (
	// ErrConcurrencyConflict is returned when the optimistic concurrency check fails.
	ErrConcurrencyConflict = errors.New("caseflow: concurrency conflict")

	// ErrCaseNotFound is returned when a case does not exist.
	ErrCaseNotFound = errors.New("caseflow: case not found")

	// ErrEmptyCaseID is returned when an empty case ID is provided.
	ErrEmptyCaseID = errors.New("caseflow: case ID is required")

	// ErrNoEvents is returned when attempting to append zero events.
	ErrNoEvents = errors.New("caseflow: no events to append")

	// ErrInvalidVersion is returned when a negative expected version is specified.
	ErrInvalidVersion = errors.New("caseflow: invalid version")

	// ErrAdapterClosed is returned when operations are attempted on a closed adapter.
	ErrAdapterClosed = errors.New("caseflow: adapter is closed")
)

// NoCase is the expected version for case creation: the case must not exist.
// The version of a case always equals the number of events appended to it, so
// every positive expected version demands an exact match.
const NoCase int64 = 0

// EventRecord represents an event to be appended to a case log.
// This is the adapter-level representation of an event; the payload arrives
// pre-serialized and the adapter attaches no meaning to it.
type EventRecord struct {
	// ID is the unique event identifier.
	ID string

	// Type is the event type identifier.
	Type string

	// Data is the serialized event payload.
	Data []byte

	// Actor is the identity string of the emitting party.
	Actor string

	// Role is the actor's party role.
	Role string

	// Comment is an optional free-text remark.
	Comment string

	// ReferencedEventID optionally points at an earlier event.
	ReferencedEventID string

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// StoredEvent represents a persisted event with its storage metadata.
type StoredEvent struct {
	EventRecord

	// CaseID is the case this event belongs to.
	CaseID string

	// Version is the position within the case log (1-based).
	Version int64
}

// CaseInfo contains metadata about a case log.
type CaseInfo struct {
	// CaseID is the case identifier.
	CaseID string

	// Version is the current case version (the event count).
	Version int64

	// CreatedAt is when the first event was stored.
	CreatedAt time.Time

	// UpdatedAt is when the last event was stored.
	UpdatedAt time.Time
}

// CaseSummary contains summary information about a case for listing.
type CaseSummary struct {
	// CaseID is the case identifier.
	CaseID string

	// EventCount is the number of events in the case log.
	EventCount int64

	// LastEventType is the type of the most recent event.
	LastEventType string

	// LastUpdated is when the last event was stored.
	LastUpdated time.Time
}

// Adapter is the interface that storage backends must implement. It provides
// the low-level operations for persisting and retrieving per-case event logs.
type Adapter interface {
	// Append stores events to the specified case log with optimistic
	// concurrency control. expectedVersion must equal the current version
	// of the case at the moment of the atomic compare-and-append; NoCase
	// (0) requires the case to not exist. The append is atomic: all
	// events are persisted together or none are, and a reader never
	// observes a partially appended batch. Returns the stored events
	// with their assigned versions.
	Append(ctx context.Context, caseID string, events []EventRecord, expectedVersion int64) ([]StoredEvent, error)

	// Load retrieves all events of a case in append order together with
	// the current version. An unknown case yields an empty slice and
	// version 0, not an error.
	Load(ctx context.Context, caseID string) ([]StoredEvent, int64, error)

	// GetCaseInfo returns metadata about a case.
	// Returns ErrCaseNotFound if the case does not exist.
	GetCaseInfo(ctx context.Context, caseID string) (*CaseInfo, error)

	// ListCases returns summaries for known cases, most recently updated
	// first. limit caps the number of results (0 for unlimited).
	ListCases(ctx context.Context, limit int) ([]CaseSummary, error)

	// Initialize sets up the required storage schema.
	// This should be called once during application startup.
	Initialize(ctx context.Context) error

	// Close releases any resources held by the adapter.
	Close() error
}

// HealthChecker provides health check capabilities.
// Adapters may optionally implement this interface.
type HealthChecker interface {
	// Ping checks if the adapter can connect to its backend.
	Ping(ctx context.Context) error
}
