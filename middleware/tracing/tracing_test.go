package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/caseflow/caseflow"
	"github.com/caseflow/caseflow/adapters"
	"github.com/caseflow/caseflow/testing/casetest"
)

// testTracer returns a tracer backed by an in-memory exporter, so tests can
// inspect the finished spans.
func testTracer() (*Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	tracer := NewTracer(
		WithTracerProvider(tp),
		WithServiceName("claims-service"),
	)
	return tracer, recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNewTracer(t *testing.T) {
	tracer := NewTracer()
	assert.Equal(t, DefaultServiceName, tracer.ServiceName())
	assert.NotNil(t, tracer.Tracer())

	named := NewTracer(WithServiceName("claims-service"))
	assert.Equal(t, "claims-service", named.ServiceName())
}

func TestEngineMiddleware_SubmitEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("records a span per submission", func(t *testing.T) {
		tracer, recorder := testTracer()
		engine, _ := casetest.NewEngine()
		svc := NewEngineMiddleware(engine, tracer)

		_, _, err := svc.SubmitEvent(ctx, casetest.CreateCase("case-1", "Delayed site access"), adapters.NoCase)
		require.NoError(t, err)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		span := spans[0]
		assert.Equal(t, "caseflow.submit_event", span.Name())
		assert.Equal(t, codes.Ok, span.Status().Code)

		caseID, ok := spanAttr(span, "caseflow.case_id")
		require.True(t, ok)
		assert.Equal(t, "case-1", caseID.AsString())

		eventType, ok := spanAttr(span, "caseflow.event.type")
		require.True(t, ok)
		assert.Equal(t, string(caseflow.EventCaseCreated), eventType.AsString())

		version, ok := spanAttr(span, "caseflow.version")
		require.True(t, ok)
		assert.Equal(t, int64(1), version.AsInt64())
	})

	t.Run("marks rejected submissions as errors", func(t *testing.T) {
		tracer, recorder := testTracer()
		engine, _ := casetest.NewEngine()
		svc := NewEngineMiddleware(engine, tracer)

		version, _, err := svc.SubmitEvent(ctx, casetest.CreateCase("case-1", "Delayed site access"), adapters.NoCase)
		require.NoError(t, err)

		_, _, err = svc.SubmitEvent(ctx, casetest.SubmitCompensation("case-1", 500000), version)
		require.Error(t, err)

		spans := recorder.Ended()
		require.Len(t, spans, 2)
		failed := spans[1]
		assert.Equal(t, codes.Error, failed.Status().Code)
		require.NotEmpty(t, failed.Events())
		assert.Equal(t, "exception", failed.Events()[0].Name)
	})
}

func TestEngineMiddleware_SubmitBatch(t *testing.T) {
	ctx := context.Background()
	tracer, recorder := testTracer()
	engine, _ := casetest.NewEngine()
	svc := NewEngineMiddleware(engine, tracer)

	_, _, err := svc.SubmitBatch(ctx, []caseflow.Event{
		casetest.CreateCase("case-1", "Delayed site access"),
		casetest.SubmitGrounds("case-1", "Changed ground conditions"),
	}, adapters.NoCase)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "caseflow.submit_batch", span.Name())

	count, ok := spanAttr(span, "caseflow.events.count")
	require.True(t, ok)
	assert.Equal(t, int64(2), count.AsInt64())

	types, ok := spanAttr(span, "caseflow.events.types")
	require.True(t, ok)
	assert.Equal(t, []string{
		string(caseflow.EventCaseCreated),
		string(caseflow.EventGroundsSubmitted),
	}, types.AsStringSlice())
}

func TestEngineMiddleware_Reads(t *testing.T) {
	ctx := context.Background()
	tracer, recorder := testTracer()
	engine, _ := casetest.NewEngine()

	casetest.MustSubmit(t, engine,
		casetest.CreateCase("case-1", "Delayed site access"),
	)

	svc := NewEngineMiddleware(engine, tracer)

	_, _, err := svc.GetState(ctx, "case-1")
	require.NoError(t, err)

	_, err = svc.GetTimeline(ctx, "case-1")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "caseflow.get_state", spans[0].Name())
	assert.Equal(t, "caseflow.get_timeline", spans[1].Name())

	entries, ok := spanAttr(spans[1], "caseflow.entries")
	require.True(t, ok)
	assert.Equal(t, int64(1), entries.AsInt64())
}

func TestAdapterMiddleware(t *testing.T) {
	ctx := context.Background()

	t.Run("traces storage round trips", func(t *testing.T) {
		tracer, recorder := testTracer()
		_, adapter := casetest.NewEngine()

		traced := NewAdapterMiddleware(adapter, tracer)
		engine := caseflow.New(traced)

		_, _, err := engine.SubmitEvent(ctx, casetest.CreateCase("case-1", "Delayed site access"), adapters.NoCase)
		require.NoError(t, err)

		spans := recorder.Ended()
		require.Len(t, spans, 2)
		assert.Equal(t, "caselog.load", spans[0].Name())
		assert.Equal(t, "caselog.append", spans[1].Name())

		stored, ok := spanAttr(spans[1], "caseflow.stored.version")
		require.True(t, ok)
		assert.Equal(t, int64(1), stored.AsInt64())
	})

	t.Run("records adapter failures", func(t *testing.T) {
		tracer, recorder := testTracer()
		_, adapter := casetest.NewEngine()
		require.NoError(t, adapter.Close())

		traced := NewAdapterMiddleware(adapter, tracer)
		_, _, err := traced.Load(ctx, "case-1")
		require.Error(t, err)

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})
}
