package application_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	catalogmem "github.com/dmehra2102/storefront/internal/catalog/infrastructure/memory"
	"github.com/dmehra2102/storefront/internal/order/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	ordermem "github.com/dmehra2102/storefront/internal/order/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*application.Service, *ordermem.Repository, *catalogmem.Repository) {
	t.Helper()
	products := catalogmem.NewRepository(catalog.Product{ID: "A", Name: "Drill", PriceCents: 1000, Stock: 10})
	repo := ordermem.NewRepository(products)
	svc := application.NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
	return svc, repo, products
}

func pendingOrder(id string) domain.Order {
	return domain.NewOrder(id, "u1", []domain.OrderItem{{ProductID: "A", Title: "Drill", Quantity: 2, PriceCents: 1000}}, "", 0, domain.Shipping{}, domain.Address{})
}

func TestCreateWritesOutbox(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, pendingOrder("o1"), "00-trace"))

	got, err := svc.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	events := repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "OrderCreated", events[0].Type)
	assert.Equal(t, "o1", events[0].AggregateID)
	assert.Equal(t, "00-trace", events[0].Traceparent)
}

func TestTransitionPaidDecrementsStockOnce(t *testing.T) {
	svc, repo, products := setup(t)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, pendingOrder("o1"), ""))

	o, err := svc.Transition(ctx, "o1", domain.StatusPaid, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, o.Status)
	assert.Equal(t, "pay-1", o.PaymentID)

	_, err = svc.Transition(ctx, "o1", domain.StatusPaid, "pay-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	p, err := products.FindByID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)

	events := repo.Events()
	assert.Equal(t, "OrderPaid", events[len(events)-1].Type)
}

func TestTransitionAdminFlow(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, pendingOrder("o1"), ""))

	_, err := svc.Transition(ctx, "o1", domain.StatusShipped, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Transition(ctx, "o1", domain.StatusPaid, "pay-1")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, "o1", domain.StatusShipped, "")
	require.NoError(t, err)
	o, err := svc.Transition(ctx, "o1", domain.StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, o.Status)
	assert.Equal(t, "pay-1", o.PaymentID)
}

func TestTransitionUnknownOrder(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Transition(context.Background(), "missing", domain.StatusPaid, "")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestConcurrentPaidTransitionsDecrementOnce(t *testing.T) {
	svc, _, products := setup(t)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, pendingOrder("o1"), ""))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins int
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Transition(ctx, "o1", domain.StatusPaid, "pay-1"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	p, err := products.FindByID(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
}

func TestCountPriorOrdersAndHasPurchased(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, pendingOrder("o1"), ""))
	require.NoError(t, svc.Create(ctx, pendingOrder("o2"), ""))
	_, err := svc.Transition(ctx, "o2", domain.StatusCancelled, "pay-2")
	require.NoError(t, err)

	n, err := svc.CountPriorOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, n, "pending and cancelled orders are not prior purchases")

	bought, err := svc.HasPurchased(ctx, "u1", "A")
	require.NoError(t, err)
	assert.False(t, bought, "pending order is not a purchase")

	_, err = svc.Transition(ctx, "o1", domain.StatusPaid, "pay-1")
	require.NoError(t, err)
	bought, err = svc.HasPurchased(ctx, "u1", "A")
	require.NoError(t, err)
	assert.True(t, bought)
	n, err = svc.CountPriorOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
