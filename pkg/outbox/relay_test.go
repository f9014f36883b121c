package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu     sync.Mutex
	events []Event
	sent   []int64
	failed map[int64]string
}

func (s *fakeStore) LockBatch(_ context.Context, _ string, batchSize int, _ time.Duration) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Status == StatusPending && len(out) < batchSize {
			out = append(out, e)
		}
	}
	for i := range s.events {
		for _, o := range out {
			if s.events[i].ID == o.ID {
				s.events[i].Status = StatusInProgress
			}
		}
	}
	return out, nil
}

func (s *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[int64]string{}
	}
	s.failed[id] = errMsg
	return nil
}

func (s *fakeStore) ExtendLease(context.Context, string, []int64, time.Duration) error { return nil }

type fakeProducer struct {
	msgs   []kafka.Message
	failOn string
}

func (p *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("broker unavailable")
		}
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRelayTickDispatchesAndMarks(t *testing.T) {
	store := &fakeStore{events: []Event{
		{ID: 1, AggregateID: "o-1", Type: "OrderCreated", Payload: []byte(`{}`), Status: StatusPending, Traceparent: "00-abc-def-01"},
		{ID: 2, AggregateID: "o-2", Type: "OrderCreated", Payload: []byte(`{}`), Status: StatusPending},
	}}
	producer := &fakeProducer{failOn: "o-2"}
	d := NewDispatcher(quietLogger(), producer, "order.events")

	var okCount, failCount int
	d.OnResult(func(ok bool) {
		if ok {
			okCount++
		} else {
			failCount++
		}
	})

	relay := NewRelay(quietLogger(), store, d, "test-relay")
	n, err := relay.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, store.sent)
	assert.Contains(t, store.failed, int64(2))
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, failCount)

	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	assert.Equal(t, "order.events", msg.Topic)
	assert.Equal(t, "o-1", string(msg.Key))

	var sawType, sawTrace bool
	for _, h := range msg.Headers {
		switch h.Key {
		case "event_type":
			sawType = string(h.Value) == "OrderCreated"
		case "traceparent":
			sawTrace = string(h.Value) == "00-abc-def-01"
		}
	}
	assert.True(t, sawType)
	assert.True(t, sawTrace)
}

func TestRelayTickEmptyBatch(t *testing.T) {
	relay := NewRelay(quietLogger(), &fakeStore{}, NewDispatcher(quietLogger(), &fakeProducer{}, "t"), "r")
	n, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
