package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dmehra2102/storefront/internal/coupon/domain"
)

type Repository struct {
	mu      sync.RWMutex
	coupons map[string]domain.Coupon
}

func NewRepository(coupons ...domain.Coupon) *Repository {
	r := &Repository{coupons: map[string]domain.Coupon{}}
	for _, c := range coupons {
		r.Put(c)
	}
	return r
}

// Put stores c under its normalised code, replacing any coupon there.
func (r *Repository) Put(c domain.Coupon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Code = domain.NormalizeCode(c.Code)
	r.coupons[c.Code] = c
}

func (r *Repository) FindByCode(_ context.Context, code string) (domain.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.coupons[domain.NormalizeCode(code)]
	if !ok {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	return c, nil
}

func (r *Repository) Create(_ context.Context, c domain.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Code = domain.NormalizeCode(c.Code)
	if _, ok := r.coupons[c.Code]; ok {
		return domain.ErrCouponExists
	}
	r.coupons[c.Code] = c
	return nil
}

// List returns the newest coupons first.
func (r *Repository) List(_ context.Context) ([]domain.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Coupon, 0, len(r.coupons))
	for _, c := range r.coupons {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, c := range r.coupons {
		if c.ID == id {
			delete(r.coupons, code)
			return nil
		}
	}
	return domain.ErrCouponNotFound
}
