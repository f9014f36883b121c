package application

import (
	"context"

	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/internal/payment/domain"
)

type Gateway interface {
	CreatePreference(ctx context.Context, req domain.PreferenceRequest) (domain.Preference, error)
	GetPayment(ctx context.Context, id string) (domain.Payment, error)
}

// OrderLedger is the subset of the order service the reconciler drives.
type OrderLedger interface {
	Get(ctx context.Context, id string) (order.Order, error)
	Transition(ctx context.Context, id string, to order.OrderStatus, paymentID string) (order.Order, error)
}

// PaymentLog records the provider's view of a payment.
type PaymentLog interface {
	Record(ctx context.Context, p domain.Payment) error
}

// Deduper claims a delivery key. Release gives the key back after a failure.
type Deduper interface {
	Key(parts ...string) string
	Seen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
