//go:build integration

package integration

import (
	"context"
	"testing"

	catalogapp "github.com/dmehra2102/storefront/internal/catalog/application"
	catalogpg "github.com/dmehra2102/storefront/internal/catalog/infrastructure/postgres"
	couponapp "github.com/dmehra2102/storefront/internal/coupon/application"
	coupon "github.com/dmehra2102/storefront/internal/coupon/domain"
	couponpg "github.com/dmehra2102/storefront/internal/coupon/infrastructure/postgres"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	orderpg "github.com/dmehra2102/storefront/internal/order/infrastructure/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouponAdminRoundTrip(t *testing.T) {
	_, pool := startPostgres(t, false)
	ctx := context.Background()
	log := quietLogger()
	orders := orderapp.NewService(log, orderpg.NewRepository(log, pool))
	svc := couponapp.NewService(couponpg.NewRepository(log, pool), orders)

	created, err := svc.Create(ctx, coupon.Coupon{Code: " welcome ", Type: coupon.Percentage, Value: decimal.NewFromInt(10), FirstPurchaseOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", created.Code)

	_, err = svc.Create(ctx, coupon.Coupon{Code: "Welcome", Type: coupon.Fixed, Value: decimal.NewFromInt(5)})
	assert.ErrorIs(t, err, coupon.ErrCouponExists)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Value.Equal(decimal.NewFromInt(10)))

	// A pending order from an abandoned checkout keeps the first purchase open.
	newPendingOrder(t, orders, "o1")
	res, err := svc.Validate(ctx, "welcome", "u1", 2000)
	require.NoError(t, err)
	assert.EqualValues(t, 200, res.AmountCents)

	_, err = orders.Transition(ctx, "o1", order.StatusPaid, "pay-1")
	require.NoError(t, err)
	_, err = svc.Validate(ctx, "welcome", "u1", 2000)
	assert.ErrorIs(t, err, coupon.ErrCouponInvalid)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), coupon.ErrCouponNotFound)
}

func TestCatalogListingQueries(t *testing.T) {
	_, pool := startPostgres(t, false)
	ctx := context.Background()
	_, err := pool.Exec(ctx, `INSERT INTO products (id, name, category, price_cents, on_sale, sale_price_cents, stock, created_at) VALUES
		('B', 'Saw', 'TOOLS', 5000, true, 4000, 3, now() + interval '1 hour'),
		('C', 'Lamp', 'Home', 3000, true, NULL, 1, now() + interval '2 hours')`)
	require.NoError(t, err)
	svc := catalogapp.NewService(catalogpg.NewRepository(quietLogger(), pool))

	all, err := svc.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "C", all[0].ID)
	assert.Equal(t, "B", all[1].ID)

	tools, err := svc.ListByCategory(ctx, "tools", 0)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "B", tools[0].ID)

	sale, err := svc.ListOnSale(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sale, 1)
	assert.EqualValues(t, 4000, sale[0].SalePriceCents)
}
