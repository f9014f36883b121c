package application_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	catalogmem "github.com/dmehra2102/storefront/internal/catalog/infrastructure/memory"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	ordermem "github.com/dmehra2102/storefront/internal/order/infrastructure/memory"
	"github.com/dmehra2102/storefront/internal/payment/application"
	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "whsec_test"

type fakeGateway struct {
	mu       sync.Mutex
	payments map[string]domain.Payment
	calls    int
	err      error
}

func (g *fakeGateway) CreatePreference(context.Context, domain.PreferenceRequest) (domain.Preference, error) {
	return domain.Preference{}, errors.New("not used")
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (domain.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return domain.Payment{}, g.err
	}
	p, ok := g.payments[id]
	if !ok {
		return domain.Payment{}, domain.ErrPaymentNotFound
	}
	return p, nil
}

type recordingLog struct {
	mu       sync.Mutex
	recorded []domain.Payment
}

func (l *recordingLog) Record(_ context.Context, p domain.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recorded = append(l.recorded, p)
	return nil
}

type fixture struct {
	rec      *application.Reconciler
	gateway  *fakeGateway
	orders   *orderapp.Service
	products *catalogmem.Repository
	ledger   *recordingLog
}

func setup(t *testing.T) fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	products := catalogmem.NewRepository(catalog.Product{ID: "A", Name: "Drill", PriceCents: 1000, Stock: 10})
	orders := orderapp.NewService(log, ordermem.NewRepository(products))
	gw := &fakeGateway{payments: map[string]domain.Payment{}}
	ledger := &recordingLog{}

	ctx := context.Background()
	o := order.NewOrder("o1", "u1", []order.OrderItem{{ProductID: "A", Title: "Drill", Quantity: 2, PriceCents: 1000}}, "", 0, order.Shipping{}, order.Address{})
	require.NoError(t, orders.Create(ctx, o, ""))

	return fixture{
		rec:      application.NewReconciler(log, secret, gw, orders, idempotency.NewStore(rdb, "webhook", time.Minute), ledger),
		gateway:  gw,
		orders:   orders,
		products: products,
		ledger:   ledger,
	}
}

func (f fixture) pay(id string, status domain.Status) {
	f.gateway.mu.Lock()
	defer f.gateway.mu.Unlock()
	f.gateway.payments[id] = domain.Payment{ID: id, Status: status, ExternalReference: "o1"}
}

func signed(paymentID, ts string) application.Inbound {
	return application.Inbound{
		Type:      "payment",
		PaymentID: paymentID,
		Signature: fmt.Sprintf("ts=%s,v1=%s", ts, domain.Sign(secret, paymentID, ts)),
	}
}

func (f fixture) stock(t *testing.T) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), "A")
	require.NoError(t, err)
	return p.Stock
}

func (f fixture) status(t *testing.T) order.OrderStatus {
	t.Helper()
	o, err := f.orders.Get(context.Background(), "o1")
	require.NoError(t, err)
	return o.Status
}

func TestApprovedPaymentMarksPaidAndDecrementsStock(t *testing.T) {
	f := setup(t)
	f.pay("pay-1", domain.StatusApproved)

	res, err := f.rec.HandleNotification(context.Background(), signed("pay-1", "100"))
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeApplied, res.Outcome)
	assert.Equal(t, order.StatusPaid, res.Status)
	assert.Equal(t, order.StatusPaid, f.status(t))
	assert.Equal(t, 8, f.stock(t))
	assert.Len(t, f.ledger.recorded, 1)

	o, err := f.orders.Get(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", o.PaymentID)
}

func TestSecondDeliveryIsNoop(t *testing.T) {
	f := setup(t)
	f.pay("pay-1", domain.StatusApproved)
	ctx := context.Background()

	_, err := f.rec.HandleNotification(ctx, signed("pay-1", "100"))
	require.NoError(t, err)

	// Identical redelivery stops at the dedupe key.
	res, err := f.rec.HandleNotification(ctx, signed("pay-1", "100"))
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeDuplicate, res.Outcome)

	// A fresh timestamp reaches the order and finds it already Paid.
	res, err = f.rec.HandleNotification(ctx, signed("pay-1", "101"))
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeDuplicate, res.Outcome)

	assert.Equal(t, 8, f.stock(t))
	assert.Equal(t, 2, f.gateway.calls)
}

func TestForgedSignatureChangesNothing(t *testing.T) {
	f := setup(t)
	f.pay("pay-1", domain.StatusApproved)

	for _, in := range []application.Inbound{
		{Type: "payment", PaymentID: "pay-1"},
		{Type: "payment", PaymentID: "pay-1", Signature: "ts=100,v1=00ff"},
		{Type: "payment", PaymentID: "pay-1", Signature: signed("pay-2", "100").Signature},
	} {
		res, err := f.rec.HandleNotification(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		assert.Equal(t, application.OutcomeRejected, res.Outcome)
		assert.False(t, res.Outcome.Acknowledged())
	}

	assert.Equal(t, order.StatusPending, f.status(t))
	assert.Equal(t, 10, f.stock(t))
	assert.Zero(t, f.gateway.calls)
}

func TestRejectedPaymentCancelsOrder(t *testing.T) {
	f := setup(t)
	f.pay("pay-1", domain.StatusRejected)

	res, err := f.rec.HandleNotification(context.Background(), signed("pay-1", "100"))
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeApplied, res.Outcome)
	assert.Equal(t, order.StatusCancelled, f.status(t))
	assert.Equal(t, 10, f.stock(t))
}

func TestInProcessPaymentLeavesOrderPending(t *testing.T) {
	f := setup(t)
	f.pay("pay-1", domain.StatusInProcess)

	res, err := f.rec.HandleNotification(context.Background(), signed("pay-1", "100"))
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeUnchanged, res.Outcome)
	assert.Equal(t, order.StatusPending, f.status(t))
}

func TestNonPaymentTopicIsAcknowledged(t *testing.T) {
	f := setup(t)
	in := signed("pay-1", "100")
	in.Type = "merchant_order"

	res, err := f.rec.HandleNotification(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeIgnored, res.Outcome)
	assert.Zero(t, f.gateway.calls)
}

func TestUnknownOrderIsAcknowledged(t *testing.T) {
	f := setup(t)
	f.gateway.payments["pay-9"] = domain.Payment{ID: "pay-9", Status: domain.StatusApproved, ExternalReference: "missing"}

	res, err := f.rec.HandleNotification(context.Background(), signed("pay-9", "100"))
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeIgnored, res.Outcome)
}

func TestProviderErrorReleasesDedupeKey(t *testing.T) {
	f := setup(t)
	f.pay("pay-1", domain.StatusApproved)
	f.gateway.err = errors.New("connection reset")

	res, err := f.rec.HandleNotification(context.Background(), signed("pay-1", "100"))
	require.Error(t, err)
	assert.Equal(t, application.OutcomeFailed, res.Outcome)

	f.gateway.err = nil
	res, err = f.rec.HandleNotification(context.Background(), signed("pay-1", "100"))
	require.NoError(t, err)
	assert.Equal(t, application.OutcomeApplied, res.Outcome)
	assert.Equal(t, 8, f.stock(t))
}

func TestConcurrentDeliveriesDecrementOnce(t *testing.T) {
	f := setup(t)
	f.pay("pay-1", domain.StatusApproved)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Distinct timestamps bypass the dedupe key so every delivery
			// races on the order itself.
			res, err := f.rec.HandleNotification(context.Background(), signed("pay-1", fmt.Sprint(1000+i)))
			assert.NoError(t, err)
			assert.True(t, res.Outcome.Acknowledged())
			if res.Outcome == application.OutcomeApplied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.Equal(t, 8, f.stock(t))
	assert.Equal(t, order.StatusPaid, f.status(t))
}
