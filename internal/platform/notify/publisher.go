// Package notify publishes change notifications to a message broker on a
// best-effort basis. Delivery failures are logged and counted, never returned.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bookbff/internal/metrics"
)

const (
	DefaultTimeout = 2 * time.Second
	spanName       = "notification.publish"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Transport moves an encoded payload to a broker topic.
type Transport interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, topic string, payload []byte) error

func (f TransportFunc) Publish(ctx context.Context, topic string, payload []byte) error {
	return f(ctx, topic, payload)
}

// Publisher encodes payloads and hands them to a Transport within a bounded
// time. Errors are recorded under "<owner>.notify".
type Publisher struct {
	transport Transport
	metrics   *metrics.Recorder
	op        string
	owner     string
	timeout   time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Publisher)

func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Publisher) { p.tracer = t }
}

func NewPublisher(owner string, transport Transport, recorder *metrics.Recorder, opts ...Option) *Publisher {
	p := &Publisher{
		transport: transport,
		metrics:   recorder,
		op:        owner + ".notify",
		owner:     owner,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
		tracer:    otel.Tracer("bookbff/notify"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends payload, pretty-printed as JSON, to topic. It returns once the
// transport acknowledges the message or the timeout elapses.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("messaging.destination", topic),
		attribute.String("owner", p.owner),
	))
	defer span.End()

	if err := p.send(ctx, topic, payload); err != nil {
		p.metrics.RecordError(ctx, p.op)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.ErrorContext(ctx, "push notification error", "topic", topic, "owner", p.owner, "error", err)
		return
	}
	span.SetStatus(codes.Ok, "")
}

func (p *Publisher) send(ctx context.Context, topic string, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("transport panic: %v", r)
			}
		}()
		done <- p.transport.Publish(ctx, topic, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("publish to %q: %w", topic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish to %q: %w", topic, ctx.Err())
	}
}
