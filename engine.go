package caseflow

import (
	"context"
	"errors"
	"time"

	"github.com/caseflow/caseflow/adapters"
	"github.com/google/uuid"
)

// Logger defines the logging interface for the engine.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// noopLogger is a no-op logger implementation.
type noopLogger struct{}

func (l *noopLogger) Debug(msg string, args ...interface{}) {}
func (l *noopLogger) Info(msg string, args ...interface{})  {}
func (l *noopLogger) Warn(msg string, args ...interface{})  {}
func (l *noopLogger) Error(msg string, args ...interface{}) {}

// Engine is the main entry point of the case engine. It runs the write
// pipeline (load, version check, project, validate, atomic append, re-project)
// and serves reads from replay. Different cases are fully independent;
// concurrency control is purely optimistic and a conflict is surfaced to the
// caller, never merged or retried here.
type Engine struct {
	adapter   adapters.Adapter
	logger    Logger
	clock     func() time.Time
	source    string
	index     CaseIndex
	notifiers []Notifier
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the time source used to fill missing event timestamps.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithSource sets the envelope source identifier for outgoing notifications.
func WithSource(source string) Option {
	return func(e *Engine) {
		e.source = source
	}
}

// WithIndex sets the listing index notified after every successful write.
func WithIndex(index CaseIndex) Option {
	return func(e *Engine) {
		e.index = index
	}
}

// WithNotifier adds a post-commit notifier. Notifiers are best-effort: their
// failures are logged and never invalidate the committed write.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifiers = append(e.notifiers, n)
	}
}

// New creates a new Engine with the given adapter and options.
func New(adapter adapters.Adapter, opts ...Option) *Engine {
	e := &Engine{
		adapter: adapter,
		logger:  &noopLogger{},
		clock:   time.Now,
		source:  "caseflow",
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Adapter returns the underlying storage adapter.
func (e *Engine) Adapter() adapters.Adapter {
	return e.adapter
}

// GetState loads a case and folds its event log into the current state.
// Returns version 0 and the empty state for an unknown case.
func (e *Engine) GetState(ctx context.Context, caseID string) (int64, CaseState, error) {
	events, version, err := e.loadDecoded(ctx, caseID)
	if err != nil {
		return 0, CaseState{}, err
	}
	state, err := ComputeState(events)
	if err != nil {
		return 0, CaseState{}, err
	}
	return version, state, nil
}

// GetTimeline returns display-ready summaries of a case's events in append order.
func (e *Engine) GetTimeline(ctx context.Context, caseID string) ([]TimelineEntry, error) {
	events, _, err := e.loadDecoded(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return buildTimeline(events), nil
}

// SubmitEvent runs the write pipeline for a single event. On success it
// returns the new version and the re-projected state. Failure modes:
// a ConcurrencyError when expectedVersion does not match (reload and
// resubmit is the caller's decision), a ValidationError when a business rule
// rejects the event, and a StorageError for infrastructure failures. Nothing
// is persisted on any failure.
func (e *Engine) SubmitEvent(ctx context.Context, event Event, expectedVersion int64) (int64, CaseState, error) {
	return e.submit(ctx, []Event{event}, expectedVersion)
}

// SubmitBatch runs the write pipeline for several events of one case within a
// single atomic append. Validation is causally aware: each event is checked
// against the state that would result from the events before it, so a batch
// may legitimately create a case and submit its first claims in one call.
// A violation anywhere rejects the entire batch with zero persisted events.
// Cross-case batches are invalid input.
func (e *Engine) SubmitBatch(ctx context.Context, events []Event, expectedVersion int64) (int64, CaseState, error) {
	return e.submit(ctx, events, expectedVersion)
}

func (e *Engine) submit(ctx context.Context, events []Event, expectedVersion int64) (int64, CaseState, error) {
	if len(events) == 0 {
		return 0, CaseState{}, ErrNoEvents
	}
	if expectedVersion < 0 {
		return 0, CaseState{}, ErrInvalidVersion
	}

	// Fill into a copy so the caller's slice stays untouched.
	caseID := events[0].CaseID
	filled := make([]Event, len(events))
	for i, ev := range events {
		filled[i] = e.fill(ev)
		if err := filled[i].Validate(); err != nil {
			return 0, CaseState{}, err
		}
		if filled[i].CaseID != caseID {
			return 0, CaseState{}, ErrCrossCaseBatch
		}
	}

	log, currentVersion, err := e.loadDecoded(ctx, caseID)
	if err != nil {
		return 0, CaseState{}, err
	}
	if currentVersion != expectedVersion {
		return 0, CaseState{}, NewConcurrencyError(caseID, expectedVersion, currentVersion)
	}

	// Validate incrementally, simulating the state after each prior event.
	simulated := log
	for _, ev := range filled {
		state, err := ComputeState(simulated)
		if err != nil {
			return 0, CaseState{}, err
		}
		if result := Validate(ev, state); !result.Valid {
			return 0, CaseState{}, result.Err(ev.Type)
		}
		simulated = append(simulated, ev)
	}

	records := make([]adapters.EventRecord, len(filled))
	for i, ev := range filled {
		record, err := toRecord(ev)
		if err != nil {
			return 0, CaseState{}, err
		}
		records[i] = record
	}

	stored, err := e.adapter.Append(ctx, caseID, records, expectedVersion)
	if err != nil {
		return 0, CaseState{}, wrapStorageErr("append", err)
	}
	newVersion := stored[len(stored)-1].Version

	state, err := ComputeState(simulated)
	if err != nil {
		return 0, CaseState{}, err
	}

	e.logger.Debug("caseflow: events appended",
		"caseId", caseID, "count", len(filled), "version", newVersion)

	e.publish(ctx, Snapshot{
		Version: newVersion,
		State:   state,
		Event:   filled[len(filled)-1],
	})

	return newVersion, state, nil
}

// publish fans the committed write out to the index cache and the notifiers.
// All of this is best-effort: a failure is logged and never rolls back or
// blocks the already-committed write.
func (e *Engine) publish(ctx context.Context, snapshot Snapshot) {
	if e.index != nil {
		entry := IndexEntry{
			CaseID:      snapshot.State.CaseID,
			Title:       snapshot.State.Title,
			Status:      snapshot.State.OverallStatus,
			LastEventAt: snapshot.Event.Timestamp,
		}
		if err := e.index.Update(ctx, entry); err != nil {
			e.logger.Warn("caseflow: index update failed",
				"caseId", snapshot.State.CaseID, "error", err)
		}
	}

	for _, n := range e.notifiers {
		if err := n.Notify(ctx, snapshot); err != nil {
			e.logger.Warn("caseflow: notifier failed",
				"notifier", n.Name(), "caseId", snapshot.State.CaseID, "error", err)
		}
	}
}

// fill assigns the event ID and timestamp when the caller left them empty.
func (e *Engine) fill(ev Event) Event {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = e.clock().UTC()
	}
	return ev
}

// loadDecoded loads a case log and decodes the stored records back into
// typed events. A record that fails to decode is fatal: it indicates a
// corrupted write path or version skew, never something to skip.
func (e *Engine) loadDecoded(ctx context.Context, caseID string) ([]Event, int64, error) {
	stored, version, err := e.adapter.Load(ctx, caseID)
	if err != nil {
		return nil, 0, wrapStorageErr("load", err)
	}

	events := make([]Event, len(stored))
	for i, s := range stored {
		ev, err := fromStored(s)
		if err != nil {
			return nil, 0, err
		}
		events[i] = ev
	}
	return events, version, nil
}

// toRecord converts a typed event into its adapter-level representation.
func toRecord(ev Event) (adapters.EventRecord, error) {
	data, err := EncodePayload(ev.Payload)
	if err != nil {
		return adapters.EventRecord{}, err
	}
	return adapters.EventRecord{
		ID:                ev.ID,
		Type:              string(ev.Type),
		Data:              data,
		Actor:             ev.Actor,
		Role:              string(ev.Role),
		Comment:           ev.Comment,
		ReferencedEventID: ev.ReferencedEventID,
		Timestamp:         ev.Timestamp,
	}, nil
}

// fromStored converts a stored record back into a typed event.
func fromStored(s adapters.StoredEvent) (Event, error) {
	eventType := EventType(s.Type)
	payload, err := DecodePayload(eventType, s.Data)
	if err != nil {
		return Event{}, err
	}
	ev := Event{
		ID:                s.ID,
		CaseID:            s.CaseID,
		Type:              eventType,
		Timestamp:         s.Timestamp,
		Actor:             s.Actor,
		Role:              Role(s.Role),
		Comment:           s.Comment,
		ReferencedEventID: s.ReferencedEventID,
		Payload:           payload,
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// wrapStorageErr passes contract-level errors through untouched and wraps
// everything else as an infrastructure failure.
func wrapStorageErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, adapters.ErrConcurrencyConflict),
		errors.Is(err, adapters.ErrCaseNotFound),
		errors.Is(err, adapters.ErrEmptyCaseID),
		errors.Is(err, adapters.ErrNoEvents),
		errors.Is(err, adapters.ErrInvalidVersion):
		return err
	default:
		return NewStorageError(op, err)
	}
}
