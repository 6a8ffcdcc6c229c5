// Package tracing provides OpenTelemetry integration for caseflow.
//
// This package enables distributed tracing for case engine operations:
// event submissions, state reads and storage adapter calls.
//
// Basic usage:
//
//	tp := sdktrace.NewTracerProvider(...)
//	otel.SetTracerProvider(tp)
//
//	tracer := tracing.NewTracer()
//	engine := caseflow.New(adapter)
//	svc := tracing.NewEngineMiddleware(engine, tracer)
//
// The tracing middleware captures:
//   - Event type, case ID and expected version
//   - Success/failure status
//   - Error details when submissions are rejected
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/adapters"
)

const (
	// TracerName is the name of the caseflow tracer.
	TracerName = "github.com/caseflow/caseflow"

	// DefaultServiceName is the default service name for spans.
	DefaultServiceName = "caseflow"
)

// Tracer wraps an OpenTelemetry tracer for caseflow operations.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithTracerProvider sets a custom TracerProvider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(t *Tracer) {
		t.tracer = tp.Tracer(TracerName)
	}
}

// WithServiceName sets the service name for spans.
func WithServiceName(name string) TracerOption {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// NewTracer creates a new Tracer with the global TracerProvider.
func NewTracer(opts ...TracerOption) *Tracer {
	t := &Tracer{
		tracer:      otel.Tracer(TracerName),
		serviceName: DefaultServiceName,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// ServiceName returns the configured service name.
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

// =============================================================================
// Engine Middleware
// =============================================================================

// Service is the engine surface traced by this package.
// *caseflow.Engine satisfies it.
type Service interface {
	GetState(ctx context.Context, caseID string) (int64, caseflow.CaseState, error)
	GetTimeline(ctx context.Context, caseID string) ([]caseflow.TimelineEntry, error)
	SubmitEvent(ctx context.Context, event caseflow.Event, expectedVersion int64) (int64, caseflow.CaseState, error)
	SubmitBatch(ctx context.Context, events []caseflow.Event, expectedVersion int64) (int64, caseflow.CaseState, error)
}

// EngineMiddleware wraps a Service with tracing.
type EngineMiddleware struct {
	next   Service
	tracer *Tracer
}

// Ensure EngineMiddleware remains a valid Service.
var _ Service = (*EngineMiddleware)(nil)

// NewEngineMiddleware wraps an engine with tracing.
func NewEngineMiddleware(next Service, tracer *Tracer) *EngineMiddleware {
	return &EngineMiddleware{
		next:   next,
		tracer: tracer,
	}
}

// GetState loads case state with tracing.
func (m *EngineMiddleware) GetState(ctx context.Context, caseID string) (int64, caseflow.CaseState, error) {
	ctx, span := m.tracer.StartSpan(ctx, "caseflow.get_state",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("caseflow.service", m.tracer.serviceName),
		attribute.String("caseflow.case_id", caseID),
	)

	version, state, err := m.next.GetState(ctx, caseID)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(
			attribute.Int64("caseflow.version", version),
			attribute.String("caseflow.overall_status", string(state.OverallStatus)),
		)
	}

	return version, state, err
}

// GetTimeline loads a case timeline with tracing.
func (m *EngineMiddleware) GetTimeline(ctx context.Context, caseID string) ([]caseflow.TimelineEntry, error) {
	ctx, span := m.tracer.StartSpan(ctx, "caseflow.get_timeline",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("caseflow.service", m.tracer.serviceName),
		attribute.String("caseflow.case_id", caseID),
	)

	entries, err := m.next.GetTimeline(ctx, caseID)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int("caseflow.entries", len(entries)))
	}

	return entries, err
}

// SubmitEvent submits a single event with tracing.
func (m *EngineMiddleware) SubmitEvent(ctx context.Context, event caseflow.Event, expectedVersion int64) (int64, caseflow.CaseState, error) {
	ctx, span := m.tracer.StartSpan(ctx, "caseflow.submit_event",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("caseflow.service", m.tracer.serviceName),
		attribute.String("caseflow.case_id", event.CaseID),
		attribute.String("caseflow.event.type", string(event.Type)),
		attribute.String("caseflow.event.role", string(event.Role)),
		attribute.Int64("caseflow.expected_version", expectedVersion),
	)

	version, state, err := m.next.SubmitEvent(ctx, event, expectedVersion)

	m.recordSubmitResult(span, version, state, err)

	return version, state, err
}

// SubmitBatch submits a batch of events with tracing.
func (m *EngineMiddleware) SubmitBatch(ctx context.Context, events []caseflow.Event, expectedVersion int64) (int64, caseflow.CaseState, error) {
	ctx, span := m.tracer.StartSpan(ctx, "caseflow.submit_batch",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("caseflow.service", m.tracer.serviceName),
		attribute.Int64("caseflow.expected_version", expectedVersion),
		attribute.Int("caseflow.events.count", len(events)),
	}
	if len(events) > 0 {
		attrs = append(attrs, attribute.String("caseflow.case_id", events[0].CaseID))
		eventTypes := make([]string, len(events))
		for i, e := range events {
			eventTypes[i] = string(e.Type)
		}
		attrs = append(attrs, attribute.StringSlice("caseflow.events.types", eventTypes))
	}
	span.SetAttributes(attrs...)

	version, state, err := m.next.SubmitBatch(ctx, events, expectedVersion)

	m.recordSubmitResult(span, version, state, err)

	return version, state, err
}

// recordSubmitResult records the outcome of a write on the span.
func (m *EngineMiddleware) recordSubmitResult(span trace.Span, version int64, state caseflow.CaseState, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(
		attribute.Int64("caseflow.version", version),
		attribute.String("caseflow.overall_status", string(state.OverallStatus)),
	)
}

// =============================================================================
// Adapter Middleware
// =============================================================================

// AdapterMiddleware wraps an adapters.Adapter with tracing.
type AdapterMiddleware struct {
	adapter adapters.Adapter
	tracer  *Tracer
}

// Ensure AdapterMiddleware remains a valid adapter.
var _ adapters.Adapter = (*AdapterMiddleware)(nil)

// NewAdapterMiddleware wraps a storage adapter with tracing.
func NewAdapterMiddleware(adapter adapters.Adapter, tracer *Tracer) *AdapterMiddleware {
	return &AdapterMiddleware{
		adapter: adapter,
		tracer:  tracer,
	}
}

// Append stores events with tracing.
func (m *AdapterMiddleware) Append(ctx context.Context, caseID string, events []adapters.EventRecord, expectedVersion int64) ([]adapters.StoredEvent, error) {
	ctx, span := m.tracer.StartSpan(ctx, "caselog.append",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("caseflow.service", m.tracer.serviceName),
		attribute.String("caseflow.case_id", caseID),
		attribute.Int64("caseflow.expected_version", expectedVersion),
		attribute.Int("caseflow.events.count", len(events)),
	)

	if len(events) > 0 {
		eventTypes := make([]string, len(events))
		for i, e := range events {
			eventTypes[i] = e.Type
		}
		span.SetAttributes(attribute.StringSlice("caseflow.events.types", eventTypes))
	}

	stored, err := m.adapter.Append(ctx, caseID, events, expectedVersion)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		if len(stored) > 0 {
			span.SetAttributes(attribute.Int64("caseflow.stored.version", stored[len(stored)-1].Version))
		}
	}

	return stored, err
}

// Load retrieves events with tracing.
func (m *AdapterMiddleware) Load(ctx context.Context, caseID string) ([]adapters.StoredEvent, int64, error) {
	ctx, span := m.tracer.StartSpan(ctx, "caselog.load",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("caseflow.service", m.tracer.serviceName),
		attribute.String("caseflow.case_id", caseID),
	)

	events, version, err := m.adapter.Load(ctx, caseID)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(
			attribute.Int("caseflow.events.loaded", len(events)),
			attribute.Int64("caseflow.version", version),
		)
	}

	return events, version, err
}

// GetCaseInfo returns case metadata with tracing.
func (m *AdapterMiddleware) GetCaseInfo(ctx context.Context, caseID string) (*adapters.CaseInfo, error) {
	ctx, span := m.tracer.StartSpan(ctx, "caselog.get_case_info",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("caseflow.service", m.tracer.serviceName),
		attribute.String("caseflow.case_id", caseID),
	)

	info, err := m.adapter.GetCaseInfo(ctx, caseID)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int64("caseflow.case.version", info.Version))
	}

	return info, err
}

// ListCases lists cases with tracing.
func (m *AdapterMiddleware) ListCases(ctx context.Context, limit int) ([]adapters.CaseSummary, error) {
	ctx, span := m.tracer.StartSpan(ctx, "caselog.list_cases",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("caseflow.service", m.tracer.serviceName),
		attribute.Int("caseflow.limit", limit),
	)

	summaries, err := m.adapter.ListCases(ctx, limit)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int("caseflow.cases", len(summaries)))
	}

	return summaries, err
}

// Initialize initializes the adapter with tracing.
func (m *AdapterMiddleware) Initialize(ctx context.Context) error {
	ctx, span := m.tracer.StartSpan(ctx, "caselog.initialize",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(attribute.String("caseflow.service", m.tracer.serviceName))

	err := m.adapter.Initialize(ctx)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// Close closes the adapter.
func (m *AdapterMiddleware) Close() error {
	return m.adapter.Close()
}

// =============================================================================
// Span Helpers
// =============================================================================

// SpanFromContext returns the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, opts ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, opts...)
}

// SetError sets an error on the current span.
func SetError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attrs...)
}
