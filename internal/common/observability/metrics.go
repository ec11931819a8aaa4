// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the OpenTelemetry meter (exported through the
// Prometheus registry served on /metrics) and the tracer used around
// ingestion stages.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	tracer        trace.Tracer
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	o := &Observability{
		meterProvider: provider,
		meter:         provider.Meter(serviceName),
		tracer:        otel.Tracer(serviceName),
	}
	if err := o.initInstruments(); err != nil {
		return nil, err
	}
	return o, nil
}

// NewNoop returns an Observability that records nothing, for tests.
func NewNoop() *Observability {
	o := &Observability{
		meter:  noop.NewMeterProvider().Meter("noop"),
		tracer: otel.Tracer("noop"),
	}
	_ = o.initInstruments()
	return o
}

func (o *Observability) initInstruments() error {
	var err error
	o.jobCounter, err = o.meter.Int64Counter(
		"ingestion.jobs.processed",
		otelmetric.WithDescription("Number of ingestion jobs processed"),
	)
	if err != nil {
		return err
	}

	o.jobDuration, err = o.meter.Float64Histogram(
		"ingestion.jobs.duration",
		otelmetric.WithDescription("Ingestion job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	return err
}

// StartSpan opens a span named after an ingestion stage.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, outcome string) {
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, outcome string) {
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
