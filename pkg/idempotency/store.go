package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store remembers delivery keys for a bounded time using SETNX.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewStore(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (s *Store) Key(parts ...string) string {
	k := "idem:" + s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// Seen claims key and reports whether an earlier caller already holds it.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency setnx: %w", err)
	}

	return !ok, nil
}

// Release drops a claim so that a failed delivery can be retried.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
