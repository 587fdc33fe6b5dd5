// Package observability records OpenTelemetry traces and metrics for provider calls.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

const (
	instrumentationName = "github.com/rmacdonaldsmith/eventstreams-go"
)

// Observer receives a notification at the start and end of every dispatched call.
type Observer interface {
	OnCallStart(ctx context.Context, actor, op string) context.Context
	OnCallComplete(ctx context.Context, op string, duration time.Duration, err error)
}

// Nop is an Observer that records nothing.
type Nop struct{}

// OnCallStart returns ctx unchanged.
func (Nop) OnCallStart(ctx context.Context, actor, op string) context.Context { return ctx }

// OnCallComplete does nothing.
func (Nop) OnCallComplete(ctx context.Context, op string, duration time.Duration, err error) {}

// Observability implements Observer using OpenTelemetry
type Observability struct {
	tracer trace.Tracer
	meter  metric.Meter

	// Metrics
	callCounter  metric.Int64Counter
	callDuration metric.Float64Histogram
	callErrors   metric.Int64Counter
}

// Option configures the Observability
type Option func(*Observability)

// WithTracerProvider sets a custom tracer provider
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *Observability) {
		o.tracer = provider.Tracer(instrumentationName)
	}
}

// WithMeterProvider sets a custom meter provider
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *Observability) {
		o.meter = provider.Meter(instrumentationName)
	}
}

// New creates a new OpenTelemetry observability implementation
func New(opts ...Option) (*Observability, error) {
	obs := &Observability{
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}

	for _, opt := range opts {
		opt(obs)
	}

	var err error

	obs.callCounter, err = obs.meter.Int64Counter(
		"eventstreams.call.count",
		metric.WithDescription("Number of provider calls dispatched"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	obs.callDuration, err = obs.meter.Float64Histogram(
		"eventstreams.call.duration",
		metric.WithDescription("Provider call duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	obs.callErrors, err = obs.meter.Int64Counter(
		"eventstreams.call.errors",
		metric.WithDescription("Number of failed provider calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return obs, nil
}

// OnCallStart starts a span for the call and counts it.
func (o *Observability) OnCallStart(ctx context.Context, actor, op string) context.Context {
	ctx, _ = o.tracer.Start(ctx, "eventstreams.call: "+op,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("eventstreams.actor", actor),
			attribute.String("eventstreams.operation", op),
		),
	)

	o.callCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("eventstreams.operation", op),
		),
	)

	return ctx
}

// OnCallComplete records the duration, counts failures by kind and ends the span.
func (o *Observability) OnCallComplete(ctx context.Context, op string, duration time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	opAttr := attribute.String("eventstreams.operation", op)

	durationMs := float64(duration.Microseconds()) / 1000
	o.callDuration.Record(ctx, durationMs, metric.WithAttributes(opAttr))

	if err != nil {
		kind := eventstreams.KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("eventstreams.error_kind", kind))
		o.callErrors.Add(ctx, 1,
			metric.WithAttributes(
				opAttr,
				attribute.String("eventstreams.error_kind", kind),
			),
		)
		return
	}

	span.SetStatus(codes.Ok, "")
}

var (
	_ Observer = (*Observability)(nil)
	_ Observer = Nop{}
)
