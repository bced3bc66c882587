package projects

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheFetchJSONUsesStoredValue(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, dashboardKey(Period{Year: 2025})...)
	require.NoError(t, err)
	assert.Equal(t, "dashboard:2025:all:v1", key)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}

	var first, second map[string]int
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestCacheBumpChangesKey(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, dashboardKey(Period{Year: 2025, Month: 3})...)
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, dashboardKey(Period{Year: 2025, Month: 3})...)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
	assert.Equal(t, "dashboard:2025:3:v2", after)
	ver, err := mr.Get(cacheVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "2", ver)
}

func TestCacheTTLApplied(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	var out map[string]int
	require.NoError(t, cache.FetchJSON(ctx, "k", &out, func(context.Context) (any, error) {
		return map[string]int{"a": 1}, nil
	}))
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestNilCacheCallsLoader(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "dashboard", "2025", "all")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:2025:all", key)

	var out []int
	require.NoError(t, cache.FetchJSON(ctx, key, &out, func(context.Context) (any, error) {
		return []int{1, 2}, nil
	}))
	assert.Equal(t, []int{1, 2}, out)
	assert.NoError(t, cache.Bump(ctx))
}
