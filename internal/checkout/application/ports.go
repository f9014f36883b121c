package application

import (
	"context"

	cart "github.com/dmehra2102/storefront/internal/cart/domain"
	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	coupon "github.com/dmehra2102/storefront/internal/coupon/domain"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	payment "github.com/dmehra2102/storefront/internal/payment/domain"
	shipping "github.com/dmehra2102/storefront/internal/shipping/domain"
	user "github.com/dmehra2102/storefront/internal/user/domain"
)

type Products interface {
	FindByID(ctx context.Context, id string) (catalog.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]catalog.Product, error)
}

type Carts interface {
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Save(ctx context.Context, c *cart.Cart) error
}

type Coupons interface {
	Validate(ctx context.Context, code, userID string, subtotalCents int64) (coupon.Applied, error)
}

// StockChecker answers availability questions for a whole cart at once.
type StockChecker interface {
	CheckStock(ctx context.Context, items []catalog.StockRequest) ([]catalog.StockShortage, error)
}

type Orders interface {
	Create(ctx context.Context, o order.Order, traceparent string) error
	Get(ctx context.Context, id string) (order.Order, error)
	SetPreferenceID(ctx context.Context, id, preferenceID string) error
}

type Users interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}

type Shipping interface {
	Quote(ctx context.Context, zip string) ([]shipping.Option, error)
}

type Payments interface {
	CreatePreference(ctx context.Context, req payment.PreferenceRequest) (payment.Preference, error)
}
