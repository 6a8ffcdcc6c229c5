package adapters

import "fmt"

// ConcurrencyError provides details about a concurrency conflict.
// It is returned when the optimistic concurrency check fails during Append.
type ConcurrencyError struct {
	CaseID          string
	ExpectedVersion int64
	ActualVersion   int64
}

// NewConcurrencyError creates a new ConcurrencyError.
func NewConcurrencyError(caseID string, expected, actual int64) *ConcurrencyError {
	return &ConcurrencyError{
		CaseID:          caseID,
		ExpectedVersion: expected,
		ActualVersion:   actual,
	}
}

// Error implements the error interface.
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("caseflow: concurrency conflict on case %q: expected version %d, got %d",
		e.CaseID, e.ExpectedVersion, e.ActualVersion)
}

// Is implements errors.Is compatibility.
// Returns true when compared with ErrConcurrencyConflict.
func (e *ConcurrencyError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// CaseNotFoundError provides details about a missing case.
type CaseNotFoundError struct {
	CaseID string
}

// NewCaseNotFoundError creates a new CaseNotFoundError.
func NewCaseNotFoundError(caseID string) *CaseNotFoundError {
	return &CaseNotFoundError{CaseID: caseID}
}

// Error implements the error interface.
func (e *CaseNotFoundError) Error() string {
	return fmt.Sprintf("caseflow: case %q not found", e.CaseID)
}

// Is implements errors.Is compatibility.
// Returns true when compared with ErrCaseNotFound.
func (e *CaseNotFoundError) Is(target error) bool {
	return target == ErrCaseNotFound
}

// CheckVersion validates the expected version against the current version.
// This implements the optimistic concurrency control logic shared by all
// adapters: every write must state the version it expects, so there is no
// skip-the-check escape hatch.
//
// Parameters:
//   - caseID: the case identifier (used for error messages)
//   - expected: the expected version (NoCase for creation, otherwise exact)
//   - current: the current version of the case
//   - exists: whether the case currently exists
//
// Returns nil if the version check passes, or an appropriate error otherwise.
func CheckVersion(caseID string, expected, current int64, exists bool) error {
	if expected < 0 {
		return ErrInvalidVersion
	}
	if expected == NoCase {
		if exists {
			return NewConcurrencyError(caseID, expected, current)
		}
		return nil
	}
	if !exists || current != expected {
		return NewConcurrencyError(caseID, expected, current)
	}
	return nil
}

// DefaultLimit returns a default limit value if the provided limit is invalid.
// Used for pagination in ListCases and similar methods.
func DefaultLimit(limit, defaultValue int) int {
	if limit <= 0 {
		return defaultValue
	}
	return limit
}
