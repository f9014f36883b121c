package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmehra2102/storefront/internal/shipping/domain"
	"github.com/dmehra2102/storefront/pkg/config"
)

type ConfigRepository interface {
	Get(ctx context.Context) (domain.Config, error)
	Update(ctx context.Context, c domain.Config) error
}

type Service struct {
	repo  ConfigRepository
	rules config.Shipping
}

func NewService(repo ConfigRepository, rules config.Shipping) *Service {
	return &Service{repo: repo, rules: rules}
}

// Quote lists the delivery options for a postal code: local delivery when
// the code matches a local prefix, the carrier table otherwise.
func (s *Service) Quote(ctx context.Context, zip string) ([]domain.Option, error) {
	zip = domain.NormalizeZip(zip)
	if zip == "" {
		return nil, domain.ErrInvalidZip
	}

	for _, prefix := range s.rules.LocalZipPrefixes {
		if strings.HasPrefix(zip, prefix) {
			cfg, err := s.repo.Get(ctx)
			if err != nil {
				return nil, fmt.Errorf("load shipping config: %w", err)
			}
			cost := cfg.LocalCostCents
			if cost <= 0 {
				cost = s.rules.DefaultLocalCostCents
			}
			return []domain.Option{{Method: "Local delivery", CostCents: cost, Days: s.rules.LocalDays}}, nil
		}
	}

	opts := make([]domain.Option, 0, len(s.rules.Carriers))
	for _, c := range s.rules.Carriers {
		opts = append(opts, domain.Option{Method: c.Name, CostCents: c.CostCents, Days: c.Days})
	}
	return opts, nil
}

func (s *Service) Config(ctx context.Context) (domain.Config, error) {
	return s.repo.Get(ctx)
}

func (s *Service) UpdateConfig(ctx context.Context, c domain.Config) error {
	if c.LocalCostCents < 0 {
		return fmt.Errorf("local cost must not be negative")
	}
	if strings.TrimSpace(c.LocalCity) == "" {
		return fmt.Errorf("local city is required")
	}
	return s.repo.Update(ctx, c)
}
