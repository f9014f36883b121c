package memory

import (
	"context"
	"sync"

	"github.com/dmehra2102/storefront/internal/user/domain"
)

type Repository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewRepository(users ...domain.User) *Repository {
	r := &Repository{users: map[string]domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *Repository) FindByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *Repository) UpdateAddress(_ context.Context, id string, a domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Address = a
	r.users[id] = u
	return nil
}
