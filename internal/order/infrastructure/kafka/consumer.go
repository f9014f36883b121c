package kafka

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

// EventHandler receives one order lifecycle event. The key of the message is
// the order id.
type EventHandler func(ctx context.Context, eventType, orderID string, payload []byte) error

// Consumer reads the order event topic back. Deliveries are deduplicated by
// topic, partition and offset so a rebalance never feeds a handler twice.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	idem   *idempotency.Store
	handle EventHandler
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, idem *idempotency.Store, handle EventHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		idem:   idem,
		handle: handle,
		tracer: otel.Tracer("order-events-consumer"),
	}
}

const (
	maxAttempts  = 3
	retryBackoff = 200 * time.Millisecond
)

type delivery int

const (
	handled delivery = iota
	skipped
	failed
)

// Run retries a failing event a few times before moving past it. The offset
// is committed either way so one poisoned event cannot stall the partition.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		for attempt := 1; c.process(ctx, msg) == failed; attempt++ {
			if attempt == maxAttempts {
				c.log.Error("order event dropped after retries", "offset", msg.Offset, "partition", msg.Partition)
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) delivery {
	key := c.idem.Key(msg.Topic, strconv.Itoa(msg.Partition), strconv.FormatInt(msg.Offset, 10))
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		c.log.Error("idempotency check failed", "err", err)
	} else if seen {
		c.log.Info("duplicate message skipped", "key", key)
		return skipped
	}

	eventType := headerValue(msg.Headers, tracing.EventTypeHeader)
	orderID := string(msg.Key)

	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "Consume"+eventType)
	defer span.End()

	if err := c.handle(msgCtx, eventType, orderID, msg.Value); err != nil {
		span.RecordError(err)
		c.log.Error("order event handler failed", "order_id", orderID, "event_type", eventType, "err", err)
		if err := c.idem.Release(context.WithoutCancel(ctx), key); err != nil {
			c.log.Error("idempotency release failed", "key", key, "err", err)
		}
		return failed
	}
	c.log.Debug("order event consumed", "order_id", orderID, "event_type", eventType)
	return handled
}

func headerValue(h []kafka.Header, key string) string {
	for _, hh := range h {
		if hh.Key == key {
			return string(hh.Value)
		}
	}
	return ""
}
