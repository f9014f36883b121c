package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrMissingKey rejects an event without an order id key, which would break
// per-order partition ordering.
var ErrMissingKey = errors.New("order event without key")

// Writer publishes order events. The hash balancer sends every event of one
// order to the same partition so consumers see its lifecycle in sequence.
type Writer struct {
	w   *kafka.Writer
	log *slog.Logger
}

func NewWriter(log *slog.Logger, brokers []string) *Writer {
	return &Writer{
		log: log,
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
				log.Error("kafka writer", "msg", fmt.Sprintf(msg, args...))
			}),
		},
	}
}

func (w *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if len(m.Key) == 0 {
			return ErrMissingKey
		}
	}
	if err := w.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d order event(s): %w", len(msgs), err)
	}
	return nil
}

func (w *Writer) Close() error { return w.w.Close() }
