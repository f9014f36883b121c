package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/coupon/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const couponColumns = `id, code, discount_type, discount_value::text, is_active, first_purchase_only, expires_at, created_at, updated_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code=$1`, domain.NormalizeCode(code))
	c, err := scanCoupon(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	return c, err
}

// Create inserts a coupon; the code is stored upper-cased.
func (r *Repository) Create(ctx context.Context, c domain.Coupon) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO coupons (id, code, discount_type, discount_value, is_active, first_purchase_only, expires_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4::numeric,$5,$6,$7,$8,$9)`,
		c.ID, domain.NormalizeCode(c.Code), string(c.Type), c.Value.String(), c.IsActive, c.FirstPurchaseOnly, c.ExpiresAt, c.CreatedAt, c.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrCouponExists
	}
	return err
}

func (r *Repository) List(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func scanCoupon(row pgx.Row) (domain.Coupon, error) {
	var c domain.Coupon
	var value string
	if err := row.Scan(&c.ID, &c.Code, &c.Type, &value, &c.IsActive, &c.FirstPurchaseOnly, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Coupon{}, err
	}
	var err error
	c.Value, err = decimal.NewFromString(value)
	if err != nil {
		return domain.Coupon{}, err
	}
	return c, nil
}
