//go:build integration

package integration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	catalogpg "github.com/dmehra2102/storefront/internal/catalog/infrastructure/postgres"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	orderkafka "github.com/dmehra2102/storefront/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/storefront/internal/order/infrastructure/postgres"
	platformpg "github.com/dmehra2102/storefront/internal/platform/postgres"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func startPostgres(t *testing.T, withKafka bool) (*Env, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	env, err := Setup(ctx, withKafka)
	require.NoError(t, err)
	t.Cleanup(func() { env.Teardown(context.Background()) })

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, platformpg.EnsureSchema(ctx, pool))
	// Twice, to prove the bootstrap is idempotent.
	require.NoError(t, platformpg.EnsureSchema(ctx, pool))

	_, err = pool.Exec(ctx, `INSERT INTO products (id, name, price_cents, stock) VALUES ('A', 'Drill', 1000, 10)`)
	require.NoError(t, err)
	return env, pool
}

func newPendingOrder(t *testing.T, svc *orderapp.Service, id string) {
	t.Helper()
	o := order.NewOrder(id, "u1", []order.OrderItem{{ProductID: "A", Title: "Drill", Quantity: 2, PriceCents: 1000}}, "", 0,
		order.Shipping{Method: "PAC", CostCents: 2570}, order.Address{City: "Curitiba"})
	require.NoError(t, svc.Create(context.Background(), o, ""))
}

func TestConcurrentPaidTransitionDecrementsOnce(t *testing.T) {
	_, pool := startPostgres(t, false)
	ctx := context.Background()
	log := quietLogger()
	svc := orderapp.NewService(log, orderpg.NewRepository(log, pool))
	newPendingOrder(t, svc, "o1")

	got, err := svc.Get(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(2000+2570), got.TotalCents)

	const n = 16
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transition(ctx, "o1", order.StatusPaid, "pay-1")
			switch {
			case err == nil:
				wins.Add(1)
			default:
				assert.True(t, isLostRace(err), "unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())

	p, err := catalogpg.NewRepository(log, pool).FindByID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)

	var paidEvents int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM outbox WHERE aggregate_id='o1' AND type='OrderPaid'`).Scan(&paidEvents))
	assert.Equal(t, 1, paidEvents)

	bought, err := svc.HasPurchased(ctx, "u1", "A")
	require.NoError(t, err)
	assert.True(t, bought)
}

func TestStockNeverGoesNegative(t *testing.T) {
	_, pool := startPostgres(t, false)
	ctx := context.Background()
	repo := catalogpg.NewRepository(quietLogger(), pool)

	require.NoError(t, repo.DecrementStock(ctx, "A", 25))
	p, err := repo.FindByID(ctx, "A")
	require.NoError(t, err)
	assert.Zero(t, p.Stock)
}

func TestCancelledOrderIsTerminal(t *testing.T) {
	_, pool := startPostgres(t, false)
	ctx := context.Background()
	log := quietLogger()
	svc := orderapp.NewService(log, orderpg.NewRepository(log, pool))
	newPendingOrder(t, svc, "o2")

	_, err := svc.Transition(ctx, "o2", order.StatusCancelled, "pay-2")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, "o2", order.StatusPaid, "pay-2")
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	n, err := svc.CountPriorOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutboxRelayPublishesToKafka(t *testing.T) {
	env, pool := startPostgres(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	log := quietLogger()

	const topic = "order.events"
	conn, err := kafka.DialContext(ctx, "tcp", env.KAddr[0])
	require.NoError(t, err)
	require.NoError(t, conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
	_ = conn.Close()

	svc := orderapp.NewService(log, orderpg.NewRepository(log, pool))
	newPendingOrder(t, svc, "o3")

	writer := orderkafka.NewWriter(log, env.KAddr)
	defer writer.Close()
	relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool), outbox.NewDispatcher(log, writer, topic), "it-relay")

	require.Eventually(t, func() bool {
		n, err := relay.Tick(ctx)
		return err == nil && n == 1
	}, 30*time.Second, 500*time.Millisecond)

	reader := kafka.NewReader(kafka.ReaderConfig{Brokers: env.KAddr, Topic: topic, Partition: 0})
	defer reader.Close()
	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "o3", string(msg.Key))

	var eventType string
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			eventType = string(h.Value)
		}
	}
	assert.Equal(t, "OrderCreated", eventType)

	var status string
	require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM outbox WHERE aggregate_id='o3'`).Scan(&status))
	assert.Equal(t, "sent", status)
}

func isLostRace(err error) bool {
	return errors.Is(err, order.ErrStatusConflict) || errors.Is(err, order.ErrInvalidTransition)
}
