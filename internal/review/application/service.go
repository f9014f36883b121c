package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmehra2102/storefront/internal/review/domain"
	"github.com/google/uuid"
)

type Service struct {
	log       *slog.Logger
	repo      ReviewRepository
	purchases PurchaseHistory
	users     Users
}

func NewService(log *slog.Logger, repo ReviewRepository, purchases PurchaseHistory, users Users) *Service {
	return &Service{log: log, repo: repo, purchases: purchases, users: users}
}

// InvalidError carries per-field validation messages.
type InvalidError struct {
	Fields map[string]string
}

func (e *InvalidError) Error() string { return fmt.Sprintf("invalid review: %d field(s)", len(e.Fields)) }

func (e *InvalidError) Is(target error) bool { return target == domain.ErrInvalidReview }

// CanReview is true when the user bought the product and has not reviewed it
// yet.
func (s *Service) CanReview(ctx context.Context, userID, productID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	bought, err := s.purchases.HasPurchased(ctx, userID, productID)
	if err != nil || !bought {
		return false, err
	}
	reviewed, err := s.repo.Exists(ctx, productID, userID)
	if err != nil {
		return false, err
	}
	return !reviewed, nil
}

// Submit stores a review awaiting moderation.
func (s *Service) Submit(ctx context.Context, userID, productID string, rating int, comment string) (domain.Review, error) {
	if fields := domain.Validate(rating, comment); fields != nil {
		return domain.Review{}, &InvalidError{Fields: fields}
	}
	bought, err := s.purchases.HasPurchased(ctx, userID, productID)
	if err != nil {
		return domain.Review{}, err
	}
	if !bought {
		return domain.Review{}, domain.ErrNotPurchased
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return domain.Review{}, err
	}

	r := domain.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		UserName:  u.Name,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return domain.Review{}, err
	}
	s.log.Info("review submitted", "review_id", r.ID, "product_id", productID)
	return r, nil
}

func (s *Service) Approve(ctx context.Context, id string) error {
	return s.repo.Approve(ctx, id)
}

func (s *Service) ListApproved(ctx context.Context, productID string) ([]domain.Review, error) {
	return s.repo.ListApproved(ctx, productID)
}
