// Package metrics provides Prometheus metrics integration for caseflow.
//
// This package enables observability for the case engine: submission
// counts and durations, rule violations, concurrency conflicts and
// storage adapter operations.
//
// Basic usage:
//
//	m := metrics.New(metrics.WithMetricsServiceName("claims-api"))
//	m.MustRegister()
//
//	// Instrument the engine
//	engine := caseflow.New(adapter)
//	svc := m.WrapEngine(engine)
//
//	// Instrument the storage adapter
//	tracked := m.WrapAdapter(adapter)
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/adapters"
)

// Default metric labels.
const (
	LabelEventType = "event_type"
	LabelRule      = "rule"
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelService   = "service"
)

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation values.
const (
	OperationAppend = "append"
	OperationLoad   = "load"
)

// Service is the engine surface instrumented by this package.
// *caseflow.Engine satisfies it.
type Service interface {
	GetState(ctx context.Context, caseID string) (int64, caseflow.CaseState, error)
	GetTimeline(ctx context.Context, caseID string) ([]caseflow.TimelineEntry, error)
	SubmitEvent(ctx context.Context, event caseflow.Event, expectedVersion int64) (int64, caseflow.CaseState, error)
	SubmitBatch(ctx context.Context, events []caseflow.Event, expectedVersion int64) (int64, caseflow.CaseState, error)
}

// Metrics holds all Prometheus metrics for caseflow.
type Metrics struct {
	namespace   string
	subsystem   string
	serviceName string

	// Submission metrics
	submitsTotal    *prometheus.CounterVec
	submitDuration  *prometheus.HistogramVec
	submitsInFlight *prometheus.GaugeVec

	// Rule and concurrency metrics
	violationsTotal *prometheus.CounterVec
	conflictsTotal  *prometheus.CounterVec

	// Adapter metrics
	adapterOperationsTotal   *prometheus.CounterVec
	adapterOperationDuration *prometheus.HistogramVec
	eventsAppendedTotal      *prometheus.CounterVec
	eventsLoadedTotal        *prometheus.CounterVec

	// Error metrics
	errorsTotal *prometheus.CounterVec
}

// MetricsOption configures Metrics.
type MetricsOption func(*Metrics)

// WithNamespace sets the Prometheus namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(m *Metrics) {
		m.namespace = namespace
	}
}

// WithSubsystem sets the Prometheus subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(m *Metrics) {
		m.subsystem = subsystem
	}
}

// WithMetricsServiceName sets the service name label.
func WithMetricsServiceName(name string) MetricsOption {
	return func(m *Metrics) {
		m.serviceName = name
	}
}

// New creates a new Metrics instance with default settings.
func New(opts ...MetricsOption) *Metrics {
	m := &Metrics{
		namespace:   "caseflow",
		subsystem:   "",
		serviceName: "unknown",
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initMetrics()
	return m
}

// initMetrics initializes all Prometheus metrics.
func (m *Metrics) initMetrics() {
	m.submitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "submits_total",
			Help:      "Total number of event submissions processed.",
		},
		[]string{LabelService, LabelEventType, LabelStatus},
	)

	m.submitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "submit_duration_seconds",
			Help:      "Duration of event submissions in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelService, LabelEventType},
	)

	m.submitsInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "submits_in_flight",
			Help:      "Number of event submissions currently being processed.",
		},
		[]string{LabelService},
	)

	m.violationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rule_violations_total",
			Help:      "Total number of submissions rejected by a business rule.",
		},
		[]string{LabelService, LabelRule},
	)

	m.conflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "concurrency_conflicts_total",
			Help:      "Total number of submissions rejected by the version check.",
		},
		[]string{LabelService},
	)

	m.adapterOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "adapter_operations_total",
			Help:      "Total number of storage adapter operations.",
		},
		[]string{LabelService, LabelOperation, LabelStatus},
	)

	m.adapterOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "adapter_operation_duration_seconds",
			Help:      "Duration of storage adapter operations in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelService, LabelOperation},
	)

	m.eventsAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_appended_total",
			Help:      "Total number of events appended to case logs.",
		},
		[]string{LabelService, LabelEventType},
	)

	m.eventsLoadedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_loaded_total",
			Help:      "Total number of events loaded from case logs.",
		},
		[]string{LabelService},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors by type.",
		},
		[]string{LabelService, LabelErrorType},
	)
}

// Collectors returns all Prometheus collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.submitsTotal,
		m.submitDuration,
		m.submitsInFlight,
		m.violationsTotal,
		m.conflictsTotal,
		m.adapterOperationsTotal,
		m.adapterOperationDuration,
		m.eventsAppendedTotal,
		m.eventsLoadedTotal,
		m.errorsTotal,
	}
}

// MustRegister registers all collectors with the default registry.
// Panics if registration fails.
func (m *Metrics) MustRegister() {
	prometheus.MustRegister(m.Collectors()...)
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(registry prometheus.Registerer) error {
	for _, collector := range m.Collectors() {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Engine Middleware
// =============================================================================

// EngineMiddleware wraps a Service with metrics collection.
type EngineMiddleware struct {
	next    Service
	metrics *Metrics
}

// Ensure EngineMiddleware remains a valid Service.
var _ Service = (*EngineMiddleware)(nil)

// WrapEngine wraps an engine with metrics collection.
func (m *Metrics) WrapEngine(next Service) *EngineMiddleware {
	return &EngineMiddleware{
		next:    next,
		metrics: m,
	}
}

// GetState loads case state with metrics.
func (em *EngineMiddleware) GetState(ctx context.Context, caseID string) (int64, caseflow.CaseState, error) {
	start := time.Now()
	version, state, err := em.next.GetState(ctx, caseID)
	em.metrics.adapterOperationDuration.WithLabelValues(em.metrics.serviceName, OperationLoad).Observe(time.Since(start).Seconds())

	status := StatusSuccess
	if err != nil {
		status = StatusError
		em.metrics.errorsTotal.WithLabelValues(em.metrics.serviceName, errorTypeName(err)).Inc()
	}
	em.metrics.adapterOperationsTotal.WithLabelValues(em.metrics.serviceName, OperationLoad, status).Inc()

	return version, state, err
}

// GetTimeline loads a case timeline with metrics.
func (em *EngineMiddleware) GetTimeline(ctx context.Context, caseID string) ([]caseflow.TimelineEntry, error) {
	start := time.Now()
	entries, err := em.next.GetTimeline(ctx, caseID)
	em.metrics.adapterOperationDuration.WithLabelValues(em.metrics.serviceName, OperationLoad).Observe(time.Since(start).Seconds())

	status := StatusSuccess
	if err != nil {
		status = StatusError
		em.metrics.errorsTotal.WithLabelValues(em.metrics.serviceName, errorTypeName(err)).Inc()
	}
	em.metrics.adapterOperationsTotal.WithLabelValues(em.metrics.serviceName, OperationLoad, status).Inc()

	return entries, err
}

// SubmitEvent submits a single event with metrics.
func (em *EngineMiddleware) SubmitEvent(ctx context.Context, event caseflow.Event, expectedVersion int64) (int64, caseflow.CaseState, error) {
	em.metrics.submitsInFlight.WithLabelValues(em.metrics.serviceName).Inc()
	defer em.metrics.submitsInFlight.WithLabelValues(em.metrics.serviceName).Dec()

	start := time.Now()
	version, state, err := em.next.SubmitEvent(ctx, event, expectedVersion)
	em.metrics.submitDuration.WithLabelValues(em.metrics.serviceName, string(event.Type)).Observe(time.Since(start).Seconds())

	em.recordSubmit(string(event.Type), err)

	return version, state, err
}

// SubmitBatch submits a batch of events with metrics. The batch is counted
// per event type.
func (em *EngineMiddleware) SubmitBatch(ctx context.Context, events []caseflow.Event, expectedVersion int64) (int64, caseflow.CaseState, error) {
	em.metrics.submitsInFlight.WithLabelValues(em.metrics.serviceName).Inc()
	defer em.metrics.submitsInFlight.WithLabelValues(em.metrics.serviceName).Dec()

	start := time.Now()
	version, state, err := em.next.SubmitBatch(ctx, events, expectedVersion)
	duration := time.Since(start).Seconds()

	for _, ev := range events {
		em.metrics.submitDuration.WithLabelValues(em.metrics.serviceName, string(ev.Type)).Observe(duration)
		em.recordSubmit(string(ev.Type), err)
	}

	return version, state, err
}

// recordSubmit updates the submission counters for one event.
func (em *EngineMiddleware) recordSubmit(eventType string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError

		var verr *caseflow.ValidationError
		switch {
		case errors.As(err, &verr):
			em.metrics.violationsTotal.WithLabelValues(em.metrics.serviceName, string(verr.Rule)).Inc()
		case errors.Is(err, caseflow.ErrConcurrencyConflict):
			em.metrics.conflictsTotal.WithLabelValues(em.metrics.serviceName).Inc()
		}
		em.metrics.errorsTotal.WithLabelValues(em.metrics.serviceName, errorTypeName(err)).Inc()
	}

	em.metrics.submitsTotal.WithLabelValues(em.metrics.serviceName, eventType, status).Inc()
}

// errorTypeName extracts the error type name based on sentinel errors.
func errorTypeName(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.Is(err, caseflow.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, caseflow.ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, caseflow.ErrMalformedEvent):
		return "malformed_event"
	case errors.Is(err, caseflow.ErrCrossCaseBatch):
		return "cross_case_batch"
	case errors.Is(err, caseflow.ErrStorageFailure):
		return "storage_failure"
	case errors.Is(err, caseflow.ErrCaseNotFound):
		return "case_not_found"
	case errors.Is(err, adapters.ErrEmptyCaseID):
		return "empty_case_id"
	case errors.Is(err, adapters.ErrNoEvents):
		return "no_events"
	case errors.Is(err, adapters.ErrInvalidVersion):
		return "invalid_version"
	case errors.Is(err, adapters.ErrAdapterClosed):
		return "adapter_closed"
	default:
		return "unknown"
	}
}

// =============================================================================
// Adapter Middleware
// =============================================================================

// AdapterMiddleware wraps an adapters.Adapter with metrics.
type AdapterMiddleware struct {
	adapter adapters.Adapter
	metrics *Metrics
}

// Ensure AdapterMiddleware remains a valid adapter.
var _ adapters.Adapter = (*AdapterMiddleware)(nil)

// WrapAdapter wraps a storage adapter with metrics collection.
func (m *Metrics) WrapAdapter(adapter adapters.Adapter) *AdapterMiddleware {
	return &AdapterMiddleware{
		adapter: adapter,
		metrics: m,
	}
}

// Append stores events with metrics.
func (am *AdapterMiddleware) Append(ctx context.Context, caseID string, events []adapters.EventRecord, expectedVersion int64) ([]adapters.StoredEvent, error) {
	start := time.Now()
	stored, err := am.adapter.Append(ctx, caseID, events, expectedVersion)
	am.metrics.adapterOperationDuration.WithLabelValues(am.metrics.serviceName, OperationAppend).Observe(time.Since(start).Seconds())

	status := StatusSuccess
	if err != nil {
		status = StatusError
		am.metrics.errorsTotal.WithLabelValues(am.metrics.serviceName, "append_error").Inc()
	} else {
		for _, e := range events {
			am.metrics.eventsAppendedTotal.WithLabelValues(am.metrics.serviceName, e.Type).Inc()
		}
	}
	am.metrics.adapterOperationsTotal.WithLabelValues(am.metrics.serviceName, OperationAppend, status).Inc()

	return stored, err
}

// Load retrieves events with metrics.
func (am *AdapterMiddleware) Load(ctx context.Context, caseID string) ([]adapters.StoredEvent, int64, error) {
	start := time.Now()
	events, version, err := am.adapter.Load(ctx, caseID)
	am.metrics.adapterOperationDuration.WithLabelValues(am.metrics.serviceName, OperationLoad).Observe(time.Since(start).Seconds())

	status := StatusSuccess
	if err != nil {
		status = StatusError
		am.metrics.errorsTotal.WithLabelValues(am.metrics.serviceName, "load_error").Inc()
	} else {
		am.metrics.eventsLoadedTotal.WithLabelValues(am.metrics.serviceName).Add(float64(len(events)))
	}
	am.metrics.adapterOperationsTotal.WithLabelValues(am.metrics.serviceName, OperationLoad, status).Inc()

	return events, version, err
}

// GetCaseInfo returns case metadata with metrics.
func (am *AdapterMiddleware) GetCaseInfo(ctx context.Context, caseID string) (*adapters.CaseInfo, error) {
	start := time.Now()
	info, err := am.adapter.GetCaseInfo(ctx, caseID)
	am.metrics.adapterOperationDuration.WithLabelValues(am.metrics.serviceName, "get_case_info").Observe(time.Since(start).Seconds())

	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	am.metrics.adapterOperationsTotal.WithLabelValues(am.metrics.serviceName, "get_case_info", status).Inc()

	return info, err
}

// ListCases lists cases with metrics.
func (am *AdapterMiddleware) ListCases(ctx context.Context, limit int) ([]adapters.CaseSummary, error) {
	start := time.Now()
	summaries, err := am.adapter.ListCases(ctx, limit)
	am.metrics.adapterOperationDuration.WithLabelValues(am.metrics.serviceName, "list_cases").Observe(time.Since(start).Seconds())

	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	am.metrics.adapterOperationsTotal.WithLabelValues(am.metrics.serviceName, "list_cases", status).Inc()

	return summaries, err
}

// Initialize initializes the underlying adapter.
func (am *AdapterMiddleware) Initialize(ctx context.Context) error {
	return am.adapter.Initialize(ctx)
}

// Close closes the underlying adapter.
func (am *AdapterMiddleware) Close() error {
	return am.adapter.Close()
}

// =============================================================================
// Manual Metric Recording
// =============================================================================

// RecordError records a custom error.
func (m *Metrics) RecordError(errorType string) {
	m.errorsTotal.WithLabelValues(m.serviceName, errorType).Inc()
}

// =============================================================================
// Getters for testing
// =============================================================================

// SubmitsTotal returns the submissions counter.
func (m *Metrics) SubmitsTotal() *prometheus.CounterVec {
	return m.submitsTotal
}

// SubmitDuration returns the submission duration histogram.
func (m *Metrics) SubmitDuration() *prometheus.HistogramVec {
	return m.submitDuration
}

// SubmitsInFlight returns the in-flight submissions gauge.
func (m *Metrics) SubmitsInFlight() *prometheus.GaugeVec {
	return m.submitsInFlight
}

// ViolationsTotal returns the rule violations counter.
func (m *Metrics) ViolationsTotal() *prometheus.CounterVec {
	return m.violationsTotal
}

// ConflictsTotal returns the concurrency conflicts counter.
func (m *Metrics) ConflictsTotal() *prometheus.CounterVec {
	return m.conflictsTotal
}

// AdapterOperationsTotal returns the adapter operations counter.
func (m *Metrics) AdapterOperationsTotal() *prometheus.CounterVec {
	return m.adapterOperationsTotal
}

// AdapterOperationDuration returns the adapter duration histogram.
func (m *Metrics) AdapterOperationDuration() *prometheus.HistogramVec {
	return m.adapterOperationDuration
}

// EventsAppendedTotal returns the events appended counter.
func (m *Metrics) EventsAppendedTotal() *prometheus.CounterVec {
	return m.eventsAppendedTotal
}

// EventsLoadedTotal returns the events loaded counter.
func (m *Metrics) EventsLoadedTotal() *prometheus.CounterVec {
	return m.eventsLoadedTotal
}

// ErrorsTotal returns the errors counter.
func (m *Metrics) ErrorsTotal() *prometheus.CounterVec {
	return m.errorsTotal
}
