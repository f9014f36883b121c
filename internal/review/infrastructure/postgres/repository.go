package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/review/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, rv domain.Review) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reviews (id, product_id, user_id, user_name, rating, comment, is_approved, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,false,$7)`,
		rv.ID, rv.ProductID, rv.UserID, rv.UserName, rv.Rating, rv.Comment, rv.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadyReviewed
	}
	return err
}

func (r *Repository) Exists(ctx context.Context, productID, userID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE product_id=$1 AND user_id=$2)`, productID, userID).Scan(&ok)
	return ok, err
}

func (r *Repository) Approve(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE reviews SET is_approved=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (r *Repository) ListApproved(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, user_id, user_name, rating, comment, is_approved, created_at
		FROM reviews WHERE product_id=$1 AND is_approved ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.IsApproved, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
