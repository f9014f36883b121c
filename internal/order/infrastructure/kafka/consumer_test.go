package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

type seenEvent struct {
	eventType string
	orderID   string
}

func newTestConsumer(t *testing.T, handle EventHandler) *Consumer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &Consumer{
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		idem:   idempotency.NewStore(rdb, "order-events", time.Minute),
		handle: handle,
		tracer: otel.Tracer("test"),
	}
}

func TestProcessDispatchesOncePerOffset(t *testing.T) {
	var got []seenEvent
	c := newTestConsumer(t, func(_ context.Context, eventType, orderID string, _ []byte) error {
		got = append(got, seenEvent{eventType, orderID})
		return nil
	})

	msg := kafka.Message{
		Topic:     "order.events",
		Partition: 2,
		Offset:    41,
		Key:       []byte("ord-1"),
		Value:     []byte(`{"OrderID":"ord-1"}`),
		Headers:   tracing.MessageHeaders("OrderPaid", "", nil),
	}
	ctx := context.Background()

	assert.Equal(t, handled, c.process(ctx, msg))
	assert.Equal(t, skipped, c.process(ctx, msg))

	next := msg
	next.Offset = 42
	next.Headers = tracing.MessageHeaders("OrderShipped", "", nil)
	assert.Equal(t, handled, c.process(ctx, next))

	require.Len(t, got, 2)
	assert.Equal(t, seenEvent{"OrderPaid", "ord-1"}, got[0])
	assert.Equal(t, seenEvent{"OrderShipped", "ord-1"}, got[1])
}

func TestFailedEventCanBeRetried(t *testing.T) {
	calls := 0
	c := newTestConsumer(t, func(context.Context, string, string, []byte) error {
		calls++
		if calls == 1 {
			return errors.New("boom")
		}
		return nil
	})
	msg := kafka.Message{Topic: "order.events", Offset: 1, Key: []byte("ord-2")}
	ctx := context.Background()

	assert.Equal(t, failed, c.process(ctx, msg))
	assert.Equal(t, handled, c.process(ctx, msg), "a failure must not leave the offset claimed")
	assert.Equal(t, skipped, c.process(ctx, msg))
	assert.Equal(t, 2, calls)
}
