package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStopsInOrderAndJoinsErrors(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	boom := errors.New("boom")
	var order []string
	step := func(name string, err error) Step {
		return Step{Name: name, Stop: func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			order = append(order, name)
			return err
		}}
	}

	err := Run(log, time.Second, step("http", nil), step("grpc", boom), step("kafka", nil))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "grpc")
	assert.Equal(t, []string{"http", "grpc", "kafka"}, order)
}

func TestRunSharesOneDeadline(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	slow := Step{Name: "slow", Stop: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	var sawExpired bool
	after := Step{Name: "after", Stop: func(ctx context.Context) error {
		sawExpired = ctx.Err() != nil
		return nil
	}}

	err := Run(log, 20*time.Millisecond, slow, after)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, sawExpired)
}

func TestWithSignalsCancelsWithParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := WithSignals(parent, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
