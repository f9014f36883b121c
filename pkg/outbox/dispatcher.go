package outbox

import (
	"context"
	"log/slog"

	"github.com/dmehra2102/storefront/pkg/tracing"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
	observe  func(ok bool)
	tracer   trace.Tracer
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic, observe: func(bool) {}, tracer: otel.Tracer("outbox-dispatcher")}
}

// OnResult registers a callback invoked after every dispatch attempt.
func (d *Dispatcher) OnResult(fn func(ok bool)) {
	if fn != nil {
		d.observe = fn
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	ctx, span := d.tracer.Start(tracing.ContextWithTraceparent(ctx, event.Traceparent), "outbox.dispatch "+event.Type)
	defer span.End()

	headers := tracing.MessageHeaders(event.Type, event.Traceparent, event.Headers)
	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		d.log.Error("outbox dispatch failed", "event_id", event.ID, "err", err)
		d.observe(false)
		return err
	}
	d.log.Debug("outbox dispatched", "event_id", event.ID, "type", event.Type)
	d.observe(true)
	return nil
}
