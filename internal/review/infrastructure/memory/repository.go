package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dmehra2102/storefront/internal/review/domain"
)

type Repository struct {
	mu      sync.Mutex
	reviews map[string]domain.Review
}

func NewRepository() *Repository {
	return &Repository{reviews: map[string]domain.Review{}}
}

func (r *Repository) Create(_ context.Context, rv domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.ProductID == rv.ProductID && existing.UserID == rv.UserID {
			return domain.ErrAlreadyReviewed
		}
	}
	r.reviews[rv.ID] = rv
	return nil
}

func (r *Repository) Exists(_ context.Context, productID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ProductID == productID && rv.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) Approve(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return domain.ErrReviewNotFound
	}
	rv.IsApproved = true
	r.reviews[id] = rv
	return nil
}

func (r *Repository) ListApproved(_ context.Context, productID string) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Review
	for _, rv := range r.reviews {
		if rv.ProductID == productID && rv.IsApproved {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
