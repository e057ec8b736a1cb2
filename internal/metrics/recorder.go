// Package metrics records per-operation request, error and duration telemetry
// on top of the OpenTelemetry metrics API.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Instrument names.
const (
	RequestCount      = "request_count"
	ErrorCount        = "error_count"
	ExecutionDuration = "execution_duration"
	ExecutionActive   = "execution_active"
)

// OperationKey is the attribute every measurement is tagged with.
const OperationKey = "operation"

// Recorder owns the instruments shared by every operation. Instruments are
// registered once, at construction.
type Recorder struct {
	requests metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

func NewRecorder(meter metric.Meter) (*Recorder, error) {
	requests, err := meter.Int64Counter(RequestCount,
		metric.WithDescription("Requests handled per operation"))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", RequestCount, err)
	}

	errs, err := meter.Int64Counter(ErrorCount,
		metric.WithDescription("Failed requests and absorbed failures per operation"))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", ErrorCount, err)
	}

	duration, err := meter.Float64Histogram(ExecutionDuration,
		metric.WithDescription("Wall-clock time a request is in flight"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", ExecutionDuration, err)
	}

	active, err := meter.Int64UpDownCounter(ExecutionActive,
		metric.WithDescription("Requests currently in flight"))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", ExecutionActive, err)
	}

	return &Recorder{
		requests: requests,
		errors:   errs,
		duration: duration,
		active:   active,
	}, nil
}

// NewNopRecorder returns a Recorder that drops every measurement.
func NewNopRecorder() *Recorder {
	r, _ := NewRecorder(noop.NewMeterProvider().Meter(""))
	return r
}

func (r *Recorder) RecordRequest(ctx context.Context, op string) {
	r.requests.Add(ctx, 1, withOperation(op))
}

func (r *Recorder) RecordError(ctx context.Context, op string) {
	r.errors.Add(ctx, 1, withOperation(op))
}

// StartSample begins timing one in-flight request. Samples for the same
// operation may overlap; each one is measured on its own.
func (r *Recorder) StartSample(ctx context.Context, op string) *Sample {
	r.active.Add(ctx, 1, withOperation(op))
	return &Sample{
		recorder: r,
		ctx:      context.WithoutCancel(ctx),
		op:       op,
		start:    time.Now(),
	}
}

// Sample is a running duration measurement.
type Sample struct {
	recorder *Recorder
	ctx      context.Context
	op       string
	start    time.Time
	once     sync.Once
	elapsed  time.Duration
}

// Stop records the elapsed time. Calls after the first are no-ops and
// return the duration recorded the first time.
func (s *Sample) Stop() time.Duration {
	s.once.Do(func() {
		s.elapsed = time.Since(s.start)
		s.recorder.duration.Record(s.ctx, s.elapsed.Seconds(), withOperation(s.op))
		s.recorder.active.Add(s.ctx, -1, withOperation(s.op))
	})
	return s.elapsed
}

func withOperation(op string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String(OperationKey, op))
}
