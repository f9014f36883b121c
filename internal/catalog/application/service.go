package application

import (
	"context"
	"strings"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

type Service struct {
	repo ProductRepository
}

func NewService(repo ProductRepository) *Service {
	return &Service{repo: repo}
}

// CheckStock returns one shortage per request whose quantity exceeds the
// product's stock. Unknown products are reported with Available 0.
func (s *Service) CheckStock(ctx context.Context, reqs []domain.StockRequest) ([]domain.StockShortage, error) {
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ProductID)
	}
	products, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	stock := make(map[string]int, len(products))
	for _, p := range products {
		stock[p.ID] = p.Stock
	}

	var short []domain.StockShortage
	for _, r := range reqs {
		if avail := stock[r.ProductID]; r.Quantity > avail {
			short = append(short, domain.StockShortage{ProductID: r.ProductID, Requested: r.Quantity, Available: avail})
		}
	}
	return short, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns the newest products first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Product, error) {
	return s.repo.List(ctx, pageSize(limit))
}

// ListByCategory matches the category name case-insensitively.
func (s *Service) ListByCategory(ctx context.Context, category string, limit int) ([]domain.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, nil
	}
	return s.repo.ListByCategory(ctx, category, pageSize(limit))
}

// ListOnSale returns products whose sale price is in effect.
func (s *Service) ListOnSale(ctx context.Context, limit int) ([]domain.Product, error) {
	return s.repo.ListOnSale(ctx, pageSize(limit))
}

func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}
