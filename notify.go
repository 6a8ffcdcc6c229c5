package caseflow

import (
	"context"
	"time"
)

// Snapshot is the unit handed to notifiers after a successful write: the event
// that was just committed, the version it landed at and the state it produced.
type Snapshot struct {
	// Version is the case version after the write.
	Version int64 `json:"version"`

	// State is the re-projected case state after the write.
	State CaseState `json:"state"`

	// Event is the last event of the committed write.
	Event Event `json:"event"`
}

// Notifier delivers post-commit snapshots to an external system. Delivery is
// best-effort and at-most-once from the engine's point of view: a returned
// error is logged, never propagated, and the write is already durable.
type Notifier interface {
	// Name identifies the notifier in logs.
	Name() string

	// Notify delivers a snapshot.
	Notify(ctx context.Context, snapshot Snapshot) error
}

// IndexEntry is the listing projection of a single case.
type IndexEntry struct {
	// CaseID identifies the case.
	CaseID string `json:"caseId"`

	// Title is the case title.
	Title string `json:"title"`

	// Status is the derived overall status at the last write.
	Status OverallStatus `json:"status"`

	// LastEventAt is the timestamp of the last committed event.
	LastEventAt time.Time `json:"lastEventAt"`
}

// CaseIndex maintains a queryable listing of cases, updated after every
// successful write. The index is a cache over the logs: it can always be
// rebuilt by replaying every case, and a stale entry is a display artifact,
// never a correctness problem.
type CaseIndex interface {
	// Update records the listing entry for a case.
	Update(ctx context.Context, entry IndexEntry) error

	// List returns entries ordered by most recent activity first.
	// limit caps the number of results (0 for unlimited).
	List(ctx context.Context, limit int) ([]IndexEntry, error)

	// Get returns the entry for a single case.
	Get(ctx context.Context, caseID string) (IndexEntry, bool)
}
