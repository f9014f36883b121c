// Package memory is a mutex-guarded product store for tests and local runs
// without Postgres.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
)

type Repository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewRepository(products ...domain.Product) *Repository {
	r := &Repository{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *Repository) Put(p domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

func (r *Repository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
}

func (r *Repository) FindByID(_ context.Context, id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (r *Repository) FindByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repository) DecrementStock(_ context.Context, id string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock -= amount
	if p.Stock < 0 {
		p.Stock = 0
	}
	r.products[id] = p
	return nil
}

func (r *Repository) List(_ context.Context, limit int) ([]domain.Product, error) {
	return r.filter(limit, func(domain.Product) bool { return true }), nil
}

func (r *Repository) ListByCategory(_ context.Context, category string, limit int) ([]domain.Product, error) {
	return r.filter(limit, func(p domain.Product) bool { return strings.EqualFold(p.Category, category) }), nil
}

func (r *Repository) ListOnSale(_ context.Context, limit int) ([]domain.Product, error) {
	return r.filter(limit, func(p domain.Product) bool { return p.OnSale && p.SalePriceCents > 0 }), nil
}

// filter returns up to limit matching products, newest first.
func (r *Repository) filter(limit int, keep func(domain.Product) bool) []domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Product
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
