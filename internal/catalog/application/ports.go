package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
)

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	DecrementStock(ctx context.Context, id string, amount int) error
	List(ctx context.Context, limit int) ([]domain.Product, error)
	ListByCategory(ctx context.Context, category string, limit int) ([]domain.Product, error)
	ListOnSale(ctx context.Context, limit int) ([]domain.Product, error)
}
