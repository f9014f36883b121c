package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/shipping/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Get returns the singleton configuration, creating the default row on
// first use.
func (r *Repository) Get(ctx context.Context) (domain.Config, error) {
	var c domain.Config
	err := r.pool.QueryRow(ctx, `SELECT local_city, local_cost_cents, updated_at FROM shipping_config WHERE id=$1`, domain.ConfigID).
		Scan(&c.LocalCity, &c.LocalCostCents, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		r.log.Info("no shipping config found, creating default")
		def := domain.DefaultConfig()
		if err := r.Update(ctx, def); err != nil {
			return domain.Config{}, err
		}
		return def, nil
	}
	return c, err
}

func (r *Repository) Update(ctx context.Context, c domain.Config) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO shipping_config (id, local_city, local_cost_cents, updated_at) VALUES ($1,$2,$3,now())
		ON CONFLICT (id) DO UPDATE SET local_city=$2, local_cost_cents=$3, updated_at=now()`,
		domain.ConfigID, c.LocalCity, c.LocalCostCents)
	return err
}
