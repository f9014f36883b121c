package postgres

import (
	"context"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository keeps the last provider view of each payment. It is an audit
// trail only; order status lives on the order.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Record(ctx context.Context, p domain.Payment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (id, order_id, status, status_detail, amount_cents, currency, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
		ON CONFLICT (id) DO UPDATE SET status=$3, status_detail=$4, amount_cents=$5, currency=$6, updated_at=$7`,
		p.ID, p.ExternalReference, string(p.Status), p.StatusDetail, p.AmountCents, p.Currency, p.ReceivedAt)
	if err != nil {
		r.log.Error("record payment failed", "payment_id", p.ID, "err", err)
	}
	return err
}
