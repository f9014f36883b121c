package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/coupon/domain"
)

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (domain.Coupon, error)
	Create(ctx context.Context, c domain.Coupon) error
	List(ctx context.Context) ([]domain.Coupon, error)
	Delete(ctx context.Context, id string) error
}

// OrderHistory counts a user's earlier orders for the first-purchase rule.
type OrderHistory interface {
	CountPriorOrders(ctx context.Context, userID string) (int, error)
}
