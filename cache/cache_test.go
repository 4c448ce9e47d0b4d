package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-stats/cache"
	"tieba-stats/logger"
	"tieba-stats/metrics"
)

func newRedisStore(t *testing.T) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedis(client, "tieba:", time.Minute), mr
}

func TestRedis_SetGet(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	assert.True(t, mr.Exists("tieba:k"))

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestRedis_Ping(t *testing.T) {
	store, _ := newRedisStore(t)
	require.NoError(t, store.Ping(context.Background()))
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory(2, time.Minute)

	require.NoError(t, store.Set(ctx, "a", []byte("1")))
	require.NoError(t, store.Set(ctx, "b", []byte("2")))
	require.NoError(t, store.Set(ctx, "c", []byte("3")))

	_, err := store.Get(ctx, "a")
	require.ErrorIs(t, err, cache.ErrMiss, "oldest entry should be evicted")
	got, err := store.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
	assert.Equal(t, 2, store.Len())
}

type payload struct {
	Total int64 `json:"total"`
}

func TestThrough_ServesLastGoodOnFailure(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)
	fb := cache.NewFallback(store, logger.NewNop(), metrics.New())

	got, stale, err := cache.Through(ctx, fb, "post", "2024-01-01", func(context.Context) (payload, error) {
		return payload{Total: 42}, nil
	})
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, int64(42), got.Total)

	got, stale, err = cache.Through(ctx, fb, "post", "2024-01-01", func(context.Context) (payload, error) {
		return payload{}, errors.New("upstream down")
	})
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Equal(t, int64(42), got.Total)
}

func TestThrough_MissReturnsFetchError(t *testing.T) {
	fb := cache.NewFallback(cache.NewMemory(8, time.Minute), logger.NewNop(), nil)
	boom := errors.New("upstream down")

	_, stale, err := cache.Through(context.Background(), fb, "post", "x", func(context.Context) (payload, error) {
		return payload{}, boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, stale)
}

func TestThrough_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	fb := cache.NewFallback(cache.NewMemory(8, time.Minute), logger.NewNop(), nil)

	_, _, err := cache.Through(ctx, fb, "post", "a", func(context.Context) (payload, error) {
		return payload{Total: 1}, nil
	})
	require.NoError(t, err)

	_, _, err = cache.Through(ctx, fb, "post", "b", func(context.Context) (payload, error) {
		return payload{}, errors.New("down")
	})
	require.Error(t, err)
}
