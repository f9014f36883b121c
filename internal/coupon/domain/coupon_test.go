package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "WELCOME10", NormalizeCode("  welcome10 "))
}

func TestUsable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	base := Coupon{Code: "X", Type: Percentage, Value: decimal.NewFromInt(10), IsActive: true}

	assert.NoError(t, base.Usable(now, 3))

	inactive := base
	inactive.IsActive = false
	assert.ErrorIs(t, inactive.Usable(now, 0), ErrCouponInvalid)

	expired := base
	expired.ExpiresAt = &past
	assert.ErrorIs(t, expired.Usable(now, 0), ErrCouponInvalid)

	// expired wins even when active
	assert.True(t, expired.IsActive)

	notYet := base
	notYet.ExpiresAt = &future
	assert.NoError(t, notYet.Usable(now, 0))

	first := base
	first.FirstPurchaseOnly = true
	assert.NoError(t, first.Usable(now, 0))
	assert.ErrorIs(t, first.Usable(now, 1), ErrCouponInvalid)

	zero := base
	zero.Value = decimal.Zero
	assert.ErrorIs(t, zero.Usable(now, 0), ErrCouponInvalid)
}

func TestDiscountCents(t *testing.T) {
	pct := func(v string) Coupon { return Coupon{Type: Percentage, Value: decimal.RequireFromString(v)} }
	fixed := func(v string) Coupon { return Coupon{Type: Fixed, Value: decimal.RequireFromString(v)} }

	assert.Equal(t, int64(200), pct("10").DiscountCents(2000))
	assert.Equal(t, int64(2000), pct("150").DiscountCents(2000))
	assert.Equal(t, int64(250), pct("12.5").DiscountCents(1999))
	assert.Equal(t, int64(2000), fixed("50").DiscountCents(2000))
	assert.Equal(t, int64(550), fixed("5.50").DiscountCents(2000))
	assert.Equal(t, int64(0), fixed("5").DiscountCents(0))
}
