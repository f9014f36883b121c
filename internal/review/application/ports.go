package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/review/domain"
	user "github.com/dmehra2102/storefront/internal/user/domain"
)

type ReviewRepository interface {
	// Create returns domain.ErrAlreadyReviewed when the user already
	// reviewed the product.
	Create(ctx context.Context, r domain.Review) error
	Exists(ctx context.Context, productID, userID string) (bool, error)
	Approve(ctx context.Context, id string) error
	ListApproved(ctx context.Context, productID string) ([]domain.Review, error)
}

type PurchaseHistory interface {
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}

type Users interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}
