// Package index provides an in-memory listing index over case logs.
// The index is a read-side cache kept current by the engine after every
// successful write; it can always be rebuilt by replaying every case.
package index

import (
	"context"
	"sort"
	"sync"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/adapters"
)

// Ensure MemoryIndex implements the caseflow.CaseIndex interface.
var _ caseflow.CaseIndex = (*MemoryIndex)(nil)

// MemoryIndex is a thread-safe in-memory implementation of caseflow.CaseIndex.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]caseflow.IndexEntry
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]caseflow.IndexEntry),
	}
}

// Update records the listing entry for a case, replacing any previous entry.
func (idx *MemoryIndex) Update(ctx context.Context, entry caseflow.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries[entry.CaseID] = entry
	return nil
}

// List returns entries ordered by most recent activity first; ties break on
// case ID so the order is stable.
func (idx *MemoryIndex) List(ctx context.Context, limit int) ([]caseflow.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entries := make([]caseflow.IndexEntry, 0, len(idx.entries))
	for _, entry := range idx.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastEventAt.Equal(entries[j].LastEventAt) {
			return entries[i].CaseID < entries[j].CaseID
		}
		return entries[i].LastEventAt.After(entries[j].LastEventAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// Get returns the entry for a single case.
func (idx *MemoryIndex) Get(ctx context.Context, caseID string) (caseflow.IndexEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entry, ok := idx.entries[caseID]
	return entry, ok
}

// Len returns the number of indexed cases.
func (idx *MemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Rebuild repopulates the index from scratch by replaying every case the
// adapter knows about. Used at startup when the process-local cache is cold.
func Rebuild(ctx context.Context, idx caseflow.CaseIndex, engine *caseflow.Engine) error {
	summaries, err := engine.Adapter().ListCases(ctx, 0)
	if err != nil {
		return err
	}

	for _, summary := range summaries {
		_, state, err := engine.GetState(ctx, summary.CaseID)
		if err != nil {
			return err
		}
		entry := caseflow.IndexEntry{
			CaseID:      summary.CaseID,
			Title:       state.Title,
			Status:      state.OverallStatus,
			LastEventAt: summary.LastUpdated,
		}
		if err := idx.Update(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Summaries converts adapter case summaries into index entries without
// replay, for displays that only need activity metadata.
func Summaries(summaries []adapters.CaseSummary) []caseflow.IndexEntry {
	entries := make([]caseflow.IndexEntry, len(summaries))
	for i, s := range summaries {
		entries[i] = caseflow.IndexEntry{
			CaseID:      s.CaseID,
			LastEventAt: s.LastUpdated,
		}
	}
	return entries
}
