package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dmehra2102/storefront/internal/user/domain"
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

func (r *Repository) FindByID(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	var addr []byte
	err := r.pool.QueryRow(ctx, `SELECT id, name, email, role, address FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &addr)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	if len(addr) > 0 {
		if err := json.Unmarshal(addr, &u.Address); err != nil {
			return domain.User{}, err
		}
	}
	return u, nil
}

func (r *Repository) UpdateAddress(ctx context.Context, id string, a domain.Address) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	ct, err := r.pool.Exec(ctx, `UPDATE users SET address=$2, updated_at=now() WHERE id=$1`, id, raw)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
