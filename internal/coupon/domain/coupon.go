package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCouponInvalid   = errors.New("coupon invalid or expired")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCouponExists    = errors.New("coupon code already exists")
	ErrCouponMalformed = errors.New("malformed coupon")
)

type DiscountType string

const (
	Percentage DiscountType = "percentage"
	Fixed      DiscountType = "fixed"
)

func (t DiscountType) Valid() bool { return t == Percentage || t == Fixed }

type Coupon struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"`
	Type              DiscountType    `json:"discount_type"`
	Value             decimal.Decimal `json:"discount_value"`
	IsActive          bool            `json:"is_active"`
	FirstPurchaseOnly bool            `json:"first_purchase_only"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Check reports why c cannot be stored. Percentages above 100 are refused.
func (c Coupon) Check() error {
	switch {
	case NormalizeCode(c.Code) == "":
		return fmt.Errorf("%w: code is required", ErrCouponMalformed)
	case !c.Type.Valid():
		return fmt.Errorf("%w: unknown discount type %q", ErrCouponMalformed, c.Type)
	case !c.Value.IsPositive():
		return fmt.Errorf("%w: value must be positive", ErrCouponMalformed)
	case c.Type == Percentage && c.Value.GreaterThan(decimal.NewFromInt(100)):
		return fmt.Errorf("%w: percentage above 100", ErrCouponMalformed)
	}
	return nil
}

// Usable checks the activation, expiry and first-purchase rules. priorOrders
// is the number of the user's earlier orders that count against the
// first-purchase rule.
func (c Coupon) Usable(now time.Time, priorOrders int) error {
	if !c.IsActive {
		return fmt.Errorf("%w: inactive", ErrCouponInvalid)
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return fmt.Errorf("%w: expired", ErrCouponInvalid)
	}
	if c.FirstPurchaseOnly && priorOrders > 0 {
		return fmt.Errorf("%w: first purchase only", ErrCouponInvalid)
	}
	if !c.Type.Valid() || !c.Value.IsPositive() {
		return fmt.Errorf("%w: malformed", ErrCouponInvalid)
	}
	return nil
}

// DiscountCents is the amount taken off subtotalCents, never more than the
// subtotal and never negative.
func (c Coupon) DiscountCents(subtotalCents int64) int64 {
	if subtotalCents <= 0 {
		return 0
	}
	var amount int64
	switch c.Type {
	case Percentage:
		amount = decimal.NewFromInt(subtotalCents).Mul(c.Value).Div(decimal.NewFromInt(100)).Round(0).IntPart()
	case Fixed:
		amount = c.Value.Shift(2).Round(0).IntPart()
	}
	if amount < 0 {
		return 0
	}
	if amount > subtotalCents {
		return subtotalCents
	}
	return amount
}

// Applied is a validated coupon together with the discount it yields for the
// current subtotal.
type Applied struct {
	Code        string
	AmountCents int64
}
