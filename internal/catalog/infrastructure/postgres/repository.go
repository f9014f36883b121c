package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, name, description, category, price_cents, on_sale, sale_price_cents, stock, weight_grams, image_urls, created_at, updated_at`

// Execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, err
}

func (r *Repository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
}

func (r *Repository) List(ctx context.Context, limit int) ([]domain.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id LIMIT $1`, limit)
}

func (r *Repository) ListByCategory(ctx context.Context, category string, limit int) ([]domain.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE lower(category) = lower($1)
		ORDER BY created_at DESC, id LIMIT $2`, category, limit)
}

// ListOnSale uses the same rule as Product.EffectivePriceCents.
func (r *Repository) ListOnSale(ctx context.Context, limit int) ([]domain.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE on_sale AND sale_price_cents > 0
		ORDER BY created_at DESC, id LIMIT $1`, limit)
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) DecrementStock(ctx context.Context, id string, amount int) error {
	return DecrementStockTx(ctx, r.pool, id, amount)
}

// DecrementStockTx lowers stock in a single UPDATE so concurrent orders for
// the same product never lose an update. Stock is floored at zero.
func DecrementStockTx(ctx context.Context, q Execer, id string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("decrement stock %s: non-positive amount %d", id, amount)
	}
	ct, err := q.Exec(ctx, `UPDATE products SET stock = GREATEST(stock - $2, 0), updated_at = now() WHERE id = $1`, id, amount)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	var sale *int64
	var images []string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.PriceCents, &p.OnSale, &sale,
		&p.Stock, &p.WeightGrams, &images, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Product{}, err
	}
	if sale != nil {
		p.SalePriceCents = *sale
	}
	p.ImageURLs = images
	return p, nil
}
