package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/storefront/internal/cart/domain"
	"github.com/redis/go-redis/v9"
)

// Store keeps one JSON cart per session, expiring with the session.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(sessionID string) string { return "cart:" + sessionID }

// Load returns the session cart, or an empty one when none is stored.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	raw, err := s.rdb.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.New(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c domain.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	c.SessionID = sessionID
	return &c, nil
}

func (s *Store) Save(ctx context.Context, c *domain.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, key(c.SessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
