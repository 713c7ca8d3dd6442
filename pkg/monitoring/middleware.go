package monitoring

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/medrex/portal-gate"

// Instrumentation combines metrics and tracing around outbound calls
type Instrumentation struct {
	metrics *Collector
	tracer  trace.Tracer
}

// NewInstrumentation creates instrumentation backed by metrics and the global tracer provider.
// A nil collector disables metrics.
func NewInstrumentation(metrics *Collector) *Instrumentation {
	return &Instrumentation{
		metrics: metrics,
		tracer:  otel.Tracer(instrumentationName),
	}
}

// NewInstrumentationWithTracer is NewInstrumentation with an explicit tracer
func NewInstrumentationWithTracer(metrics *Collector, tracer trace.Tracer) *Instrumentation {
	return &Instrumentation{metrics: metrics, tracer: tracer}
}

// Metrics returns the collector, possibly nil
func (in *Instrumentation) Metrics() *Collector {
	if in == nil {
		return nil
	}
	return in.metrics
}

// LedgerCall wraps one ledger contract call with a span and call metrics
func (in *Instrumentation) LedgerCall(ctx context.Context, contract, function string, call func(ctx context.Context) error) error {
	if in == nil {
		return call(ctx)
	}

	start := time.Now()

	ctx, span := in.tracer.Start(ctx, fmt.Sprintf("ledger.%s", function),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ledger.contract", contract),
			attribute.String("ledger.function", function),
		),
	)
	defer span.End()

	err := call(ctx)

	status := "success"
	if err != nil {
		status = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("ledger.status", status))

	in.metrics.RecordLedgerCall(function, status, time.Since(start))

	return err
}
