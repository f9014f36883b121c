package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/storefront/internal/coupon/domain"
	"github.com/google/uuid"
)

type Service struct {
	repo   CouponRepository
	orders OrderHistory
	now    func() time.Time
	newID  func() string
}

func NewService(repo CouponRepository, orders OrderHistory) *Service {
	return &Service{repo: repo, orders: orders, now: time.Now, newID: uuid.NewString}
}

// Create stores a new active coupon. Codes are unique after normalisation.
func (s *Service) Create(ctx context.Context, c domain.Coupon) (domain.Coupon, error) {
	if err := c.Check(); err != nil {
		return domain.Coupon{}, err
	}
	now := s.now().UTC()
	c.ID = s.newID()
	c.Code = domain.NormalizeCode(c.Code)
	c.IsActive = true
	c.CreatedAt, c.UpdatedAt = now, now
	if err := s.repo.Create(ctx, c); err != nil {
		return domain.Coupon{}, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Validate looks the code up case-insensitively and returns the discount it
// yields for subtotalCents. Every rejection wraps domain.ErrCouponInvalid.
func (s *Service) Validate(ctx context.Context, code, userID string, subtotalCents int64) (domain.Applied, error) {
	normalized := domain.NormalizeCode(code)
	if normalized == "" {
		return domain.Applied{}, fmt.Errorf("%w: empty code", domain.ErrCouponInvalid)
	}

	c, err := s.repo.FindByCode(ctx, normalized)
	if errors.Is(err, domain.ErrCouponNotFound) {
		return domain.Applied{}, fmt.Errorf("%w: unknown code", domain.ErrCouponInvalid)
	}
	if err != nil {
		return domain.Applied{}, err
	}

	prior := 0
	if c.FirstPurchaseOnly {
		if userID == "" {
			return domain.Applied{}, fmt.Errorf("%w: sign in to use this coupon", domain.ErrCouponInvalid)
		}
		prior, err = s.orders.CountPriorOrders(ctx, userID)
		if err != nil {
			return domain.Applied{}, err
		}
	}
	if err := c.Usable(s.now(), prior); err != nil {
		return domain.Applied{}, err
	}
	return domain.Applied{Code: c.Code, AmountCents: c.DiscountCents(subtotalCents)}, nil
}
