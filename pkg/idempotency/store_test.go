package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeenClaimReleaseExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewStore(rdb, "webhook", time.Minute)
	ctx := context.Background()
	key := s.Key("pay-1", "1700000000")
	assert.Equal(t, "idem:webhook:pay-1:1700000000", key)

	seen, err := s.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = s.Seen(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, s.Release(ctx, key))
	seen, err = s.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	mr.FastForward(2 * time.Minute)
	seen, err = s.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)
}
