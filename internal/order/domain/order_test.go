package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	all := []OrderStatus{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled}
	allowed := map[[2]OrderStatus]bool{
		{StatusPending, StatusPaid}:      true,
		{StatusPending, StatusCancelled}: true,
		{StatusPaid, StatusShipped}:      true,
		{StatusShipped, StatusDelivered}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]OrderStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, OrderStatus("pending").Valid())
}

func TestNewOrderTotals(t *testing.T) {
	items := []OrderItem{{ProductID: "A", Quantity: 2, PriceCents: 1000}}

	o := NewOrder("o1", "u1", items, "", 0, Shipping{}, Address{})
	assert.Equal(t, int64(2000), o.SubtotalCents)
	assert.Equal(t, int64(2000), o.TotalCents)
	assert.Equal(t, StatusPending, o.Status)

	o = NewOrder("o2", "u1", items, "TEN", 200, Shipping{Method: "PAC", CostCents: 2570}, Address{})
	assert.Equal(t, int64(1800+2570), o.TotalCents)

	o = NewOrder("o3", "u1", items, "FIFTY", 5000, Shipping{}, Address{})
	assert.Equal(t, int64(2000), o.DiscountCents)
	assert.Equal(t, int64(0), o.TotalCents)
}

func TestPlanTransition(t *testing.T) {
	o := NewOrder("o1", "u1", []OrderItem{{ProductID: "A", Quantity: 2, PriceCents: 1000}}, "", 0, Shipping{}, Address{})

	paid, err := o.PlanTransition(StatusPaid, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, paid.From)
	assert.Equal(t, "OrderPaid", paid.EventType())
	assert.Equal(t, o.Items, paid.StockDecrements)

	cancelled, err := o.PlanTransition(StatusCancelled, "pay-1")
	require.NoError(t, err)
	assert.Empty(t, cancelled.StockDecrements)

	_, err = o.PlanTransition(StatusShipped, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	o.Status = StatusPaid
	_, err = o.PlanTransition(StatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
