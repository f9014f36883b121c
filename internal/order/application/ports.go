package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/outbox"
)

type OrderRepository interface {
	CreateWithOutbox(ctx context.Context, o domain.Order, rec outbox.Record) error
	Get(ctx context.Context, id string) (domain.Order, error)
	SetPreferenceID(ctx context.Context, id, preferenceID string) error
	// TransitionWithOutbox applies t as a compare-and-set on the order status
	// and returns domain.ErrStatusConflict when the order is no longer in t.From.
	TransitionWithOutbox(ctx context.Context, t domain.Transition, rec outbox.Record) error
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	CountPriorOrders(ctx context.Context, userID string) (int, error)
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}
