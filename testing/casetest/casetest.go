// Package casetest provides fixtures and helpers for testing code built on
// the caseflow engine. It includes event builders for the common negotiation
// steps, an in-memory engine factory and recording fakes for notifiers and
// the case index.
package casetest

import (
	"context"
	"sync"
	"testing"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/adapters/memory"
)

// Default identities used by the builders.
const (
	Claimant = "test-claimant"
	Owner    = "test-owner"
)

// NewEngine creates an engine backed by a fresh in-memory adapter.
func NewEngine(opts ...caseflow.Option) (*caseflow.Engine, *memory.MemoryAdapter) {
	adapter := memory.NewAdapter()
	return caseflow.New(adapter, opts...), adapter
}

// CreateCase builds a case creation event.
func CreateCase(caseID, title string) caseflow.Event {
	return caseflow.Event{
		CaseID: caseID,
		Type:   caseflow.EventCaseCreated,
		Actor:  Claimant,
		Role:   caseflow.RoleClaimant,
		Payload: caseflow.CaseCreatedPayload{
			Title: title,
		},
	}
}

// CloseCase builds a case closing event.
func CloseCase(caseID string) caseflow.Event {
	return caseflow.Event{
		CaseID:  caseID,
		Type:    caseflow.EventCaseClosed,
		Actor:   Owner,
		Role:    caseflow.RoleOwner,
		Payload: caseflow.CaseClosedPayload{},
	}
}

// SubmitGrounds builds a grounds submission event.
func SubmitGrounds(caseID, justification string) caseflow.Event {
	return caseflow.Event{
		CaseID: caseID,
		Type:   caseflow.EventGroundsSubmitted,
		Actor:  Claimant,
		Role:   caseflow.RoleClaimant,
		Payload: caseflow.GroundsClaimPayload{
			Justification: justification,
		},
	}
}

// RespondGrounds builds a grounds response event.
func RespondGrounds(caseID string, result caseflow.ResponseResult) caseflow.Event {
	return caseflow.Event{
		CaseID: caseID,
		Type:   caseflow.EventGroundsResponded,
		Actor:  Owner,
		Role:   caseflow.RoleOwner,
		Payload: caseflow.GroundsResponsePayload{
			Result: result,
		},
	}
}

// SubmitCompensation builds a compensation submission event.
func SubmitCompensation(caseID string, amount int64) caseflow.Event {
	return caseflow.Event{
		CaseID: caseID,
		Type:   caseflow.EventCompensationSubmitted,
		Actor:  Claimant,
		Role:   caseflow.RoleClaimant,
		Payload: caseflow.CompensationClaimPayload{
			Amount:   amount,
			Currency: "NOK",
		},
	}
}

// UpdateCompensation builds a compensation revision event.
func UpdateCompensation(caseID string, amount int64) caseflow.Event {
	return caseflow.Event{
		CaseID: caseID,
		Type:   caseflow.EventCompensationUpdated,
		Actor:  Claimant,
		Role:   caseflow.RoleClaimant,
		Payload: caseflow.CompensationClaimPayload{
			Amount:   amount,
			Currency: "NOK",
		},
	}
}

// RespondCompensation builds a compensation response event. approvedAmount is
// only attached when non-nil.
func RespondCompensation(caseID string, result caseflow.ResponseResult, approvedAmount *int64) caseflow.Event {
	return caseflow.Event{
		CaseID: caseID,
		Type:   caseflow.EventCompensationResponded,
		Actor:  Owner,
		Role:   caseflow.RoleOwner,
		Payload: caseflow.CompensationResponsePayload{
			Result:         result,
			ApprovedAmount: approvedAmount,
		},
	}
}

// AcceptCompensation builds a compensation acceptance event.
func AcceptCompensation(caseID string) caseflow.Event {
	return caseflow.Event{
		CaseID:  caseID,
		Type:    caseflow.EventCompensationAccepted,
		Actor:   Claimant,
		Role:    caseflow.RoleClaimant,
		Payload: caseflow.AcceptancePayload{},
	}
}

// SubmitTimeExtension builds a time extension submission event.
func SubmitTimeExtension(caseID string, days int64) caseflow.Event {
	return caseflow.Event{
		CaseID: caseID,
		Type:   caseflow.EventTimeExtensionSubmitted,
		Actor:  Claimant,
		Role:   caseflow.RoleClaimant,
		Payload: caseflow.TimeExtensionClaimPayload{
			Days: days,
		},
	}
}

// RespondTimeExtension builds a time extension response event.
func RespondTimeExtension(caseID string, result caseflow.ResponseResult, approvedDays *int64) caseflow.Event {
	return caseflow.Event{
		CaseID: caseID,
		Type:   caseflow.EventTimeExtensionResponded,
		Actor:  Owner,
		Role:   caseflow.RoleOwner,
		Payload: caseflow.TimeExtensionResponsePayload{
			Result:       result,
			ApprovedDays: approvedDays,
		},
	}
}

// Withdraw builds a withdrawal event for the given track.
func Withdraw(caseID string, track caseflow.Track) caseflow.Event {
	var eventType caseflow.EventType
	switch track {
	case caseflow.TrackGrounds:
		eventType = caseflow.EventGroundsWithdrawn
	case caseflow.TrackCompensation:
		eventType = caseflow.EventCompensationWithdrawn
	default:
		eventType = caseflow.EventTimeExtensionWithdrawn
	}
	return caseflow.Event{
		CaseID:  caseID,
		Type:    eventType,
		Actor:   Claimant,
		Role:    caseflow.RoleClaimant,
		Payload: caseflow.WithdrawalPayload{},
	}
}

// Int64 returns a pointer to v, for optional payload fields.
func Int64(v int64) *int64 {
	return &v
}

// MustSubmit submits events one at a time with auto-detected versions and
// fails the test on any error. Returns the final version and state.
func MustSubmit(t testing.TB, engine *caseflow.Engine, events ...caseflow.Event) (int64, caseflow.CaseState) {
	t.Helper()

	ctx := context.Background()
	var version int64
	var state caseflow.CaseState
	for _, event := range events {
		current, _, err := engine.GetState(ctx, event.CaseID)
		if err != nil {
			t.Fatalf("loading version for %s: %v", event.Type, err)
		}
		version, state, err = engine.SubmitEvent(ctx, event, current)
		if err != nil {
			t.Fatalf("submitting %s: %v", event.Type, err)
		}
	}
	return version, state
}

// SettledCase submits a full negotiation on a fresh engine: grounds approved,
// compensation partially approved and accepted, and returns the engine with
// the case at that point, ready for closing.
func SettledCase(t testing.TB, caseID string) (*caseflow.Engine, *memory.MemoryAdapter) {
	t.Helper()

	engine, adapter := NewEngine()
	MustSubmit(t, engine,
		CreateCase(caseID, "test case"),
		SubmitGrounds(caseID, "unforeseen conditions"),
		RespondGrounds(caseID, caseflow.ResultApproved),
		SubmitCompensation(caseID, 500000),
		RespondCompensation(caseID, caseflow.ResultPartiallyApproved, Int64(350000)),
		AcceptCompensation(caseID),
	)
	return engine, adapter
}

// Ensure the fakes satisfy the engine interfaces.
var (
	_ caseflow.Notifier  = (*RecordingNotifier)(nil)
	_ caseflow.CaseIndex = (*RecordingIndex)(nil)
)

// RecordingNotifier records every snapshot it is notified with. It can be
// scripted to fail, for testing the engine's best-effort delivery.
type RecordingNotifier struct {
	mu        sync.Mutex
	snapshots []caseflow.Snapshot

	// Err, when set, is returned by every Notify call.
	Err error
}

// Name identifies the notifier in engine logs.
func (n *RecordingNotifier) Name() string {
	return "recording"
}

// Notify records the snapshot.
func (n *RecordingNotifier) Notify(ctx context.Context, snapshot caseflow.Snapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snapshots = append(n.snapshots, snapshot)
	return n.Err
}

// Snapshots returns the recorded snapshots in delivery order.
func (n *RecordingNotifier) Snapshots() []caseflow.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]caseflow.Snapshot, len(n.snapshots))
	copy(out, n.snapshots)
	return out
}

// RecordingIndex records index updates. It can be scripted to fail.
type RecordingIndex struct {
	mu      sync.Mutex
	updates []caseflow.IndexEntry

	// Err, when set, is returned by every Update call.
	Err error
}

// Update records the entry.
func (idx *RecordingIndex) Update(ctx context.Context, entry caseflow.IndexEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.updates = append(idx.updates, entry)
	return idx.Err
}

// List returns the recorded entries in update order.
func (idx *RecordingIndex) List(ctx context.Context, limit int) ([]caseflow.IndexEntry, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]caseflow.IndexEntry, len(idx.updates))
	copy(out, idx.updates)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns the latest recorded entry for a case.
func (idx *RecordingIndex) Get(ctx context.Context, caseID string) (caseflow.IndexEntry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i := len(idx.updates) - 1; i >= 0; i-- {
		if idx.updates[i].CaseID == caseID {
			return idx.updates[i], true
		}
	}
	return caseflow.IndexEntry{}, false
}

// Updates returns the recorded updates in order.
func (idx *RecordingIndex) Updates() []caseflow.IndexEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]caseflow.IndexEntry, len(idx.updates))
	copy(out, idx.updates)
	return out
}

// AssertTrackStatus fails the test unless the track has the wanted status.
func AssertTrackStatus(t testing.TB, state caseflow.CaseState, track caseflow.Track, want caseflow.TrackStatus) {
	t.Helper()
	if got := state.Track(track).Status; got != want {
		t.Errorf("track %s: status = %s, want %s", track, got, want)
	}
}

// AssertLocked fails the test unless the track's locked flag matches.
func AssertLocked(t testing.TB, state caseflow.CaseState, track caseflow.Track, want bool) {
	t.Helper()
	if got := state.Track(track).Locked; got != want {
		t.Errorf("track %s: locked = %v, want %v", track, got, want)
	}
}

// Replay folds the events into a state without an engine, for projector-level
// tests. Fails the test on a fold error.
func Replay(t testing.TB, events ...caseflow.Event) caseflow.CaseState {
	t.Helper()
	state, err := caseflow.ComputeState(events)
	if err != nil {
		t.Fatalf("replaying %d events: %v", len(events), err)
	}
	return state
}
