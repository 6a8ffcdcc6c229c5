// Package memory provides an in-memory implementation of the case log adapter.
// This adapter is primarily intended for testing and development purposes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/caseflow/caseflow/adapters"
	"github.com/google/uuid"
)

// Ensure MemoryAdapter implements all required interfaces.
var (
	_ adapters.Adapter       = (*MemoryAdapter)(nil)
	_ adapters.HealthChecker = (*MemoryAdapter)(nil)
)

// MemoryAdapter is an in-memory implementation of adapters.Adapter.
// It is thread-safe: the compare-and-append runs under a single mutex, which
// gives it the test-and-set semantics the contract requires.
type MemoryAdapter struct {
	mu     sync.RWMutex
	cases  map[string]*caseData
	closed bool
}

type caseData struct {
	info   adapters.CaseInfo
	events []adapters.StoredEvent
}

// NewAdapter creates a new in-memory case log adapter.
func NewAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		cases: make(map[string]*caseData),
	}
}

// Initialize is a no-op for the memory adapter.
func (a *MemoryAdapter) Initialize(ctx context.Context) error {
	return nil
}

// Append stores events to the specified case log with optimistic concurrency control.
func (a *MemoryAdapter) Append(ctx context.Context, caseID string, events []adapters.EventRecord, expectedVersion int64) ([]adapters.StoredEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}
	if caseID == "" {
		return nil, adapters.ErrEmptyCaseID
	}
	if len(events) == 0 {
		return nil, adapters.ErrNoEvents
	}

	c, exists := a.cases[caseID]
	currentVersion := int64(0)
	if exists {
		currentVersion = c.info.Version
	}

	if err := adapters.CheckVersion(caseID, expectedVersion, currentVersion, exists); err != nil {
		return nil, err
	}

	now := time.Now()
	if !exists {
		c = &caseData{
			info: adapters.CaseInfo{
				CaseID:    caseID,
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
		a.cases[caseID] = c
	}

	storedEvents := make([]adapters.StoredEvent, len(events))
	for i, event := range events {
		currentVersion++

		record := event
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
		if record.Timestamp.IsZero() {
			record.Timestamp = now
		}

		stored := adapters.StoredEvent{
			EventRecord: record,
			CaseID:      caseID,
			Version:     currentVersion,
		}

		c.events = append(c.events, stored)
		storedEvents[i] = stored
	}

	c.info.Version = currentVersion
	c.info.UpdatedAt = now

	return storedEvents, nil
}

// Load retrieves all events of a case in append order together with the
// current version. An unknown case yields an empty slice and version 0.
func (a *MemoryAdapter) Load(ctx context.Context, caseID string) ([]adapters.StoredEvent, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, 0, adapters.ErrAdapterClosed
	}
	if caseID == "" {
		return nil, 0, adapters.ErrEmptyCaseID
	}

	c, exists := a.cases[caseID]
	if !exists {
		return []adapters.StoredEvent{}, 0, nil
	}

	events := make([]adapters.StoredEvent, len(c.events))
	copy(events, c.events)

	return events, c.info.Version, nil
}

// GetCaseInfo returns metadata about a case.
func (a *MemoryAdapter) GetCaseInfo(ctx context.Context, caseID string) (*adapters.CaseInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}

	c, exists := a.cases[caseID]
	if !exists {
		return nil, adapters.NewCaseNotFoundError(caseID)
	}

	// Return a copy to prevent mutation
	info := c.info
	return &info, nil
}

// ListCases returns summaries for known cases, most recently updated first.
func (a *MemoryAdapter) ListCases(ctx context.Context, limit int) ([]adapters.CaseSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return nil, adapters.ErrAdapterClosed
	}

	summaries := make([]adapters.CaseSummary, 0, len(a.cases))
	for _, c := range a.cases {
		summary := adapters.CaseSummary{
			CaseID:      c.info.CaseID,
			EventCount:  c.info.Version,
			LastUpdated: c.info.UpdatedAt,
		}
		if n := len(c.events); n > 0 {
			summary.LastEventType = c.events[n-1].Type
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].LastUpdated.Equal(summaries[j].LastUpdated) {
			return summaries[i].CaseID < summaries[j].CaseID
		}
		return summaries[i].LastUpdated.After(summaries[j].LastUpdated)
	})

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}

	return summaries, nil
}

// Ping checks if the adapter is healthy.
func (a *MemoryAdapter) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return adapters.ErrAdapterClosed
	}
	return nil
}

// Close releases any resources held by the adapter.
func (a *MemoryAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	return nil
}

// Reset clears all data. Useful for testing.
func (a *MemoryAdapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cases = make(map[string]*caseData)
}

// EventCount returns the total number of events stored.
func (a *MemoryAdapter) EventCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	total := 0
	for _, c := range a.cases {
		total += len(c.events)
	}
	return total
}

// CaseCount returns the number of cases.
func (a *MemoryAdapter) CaseCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cases)
}
