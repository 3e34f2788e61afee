package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*DistinctCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDistinctCache(client, time.Minute), mr
}

func TestDistinctCacheFetchPopulatesOnce(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) ([]string, error) {
		calls++
		return []string{"Office", "Kitchen"}, nil
	}

	values, err := cache.Fetch(ctx, ColumnCategory, loader)
	require.NoError(t, err)
	require.Equal(t, []string{"Office", "Kitchen"}, values)
	require.Equal(t, 1, calls)

	values, err = cache.Fetch(ctx, ColumnCategory, loader)
	require.NoError(t, err)
	require.Equal(t, []string{"Office", "Kitchen"}, values)
	require.Equal(t, 1, calls, "second fetch must be served from cache")
}

func TestDistinctCacheConcurrentMissesLoadOnce(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	loader := func(context.Context) ([]string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []string{"Office"}, nil
	}

	const readers = 5
	results := make(chan error, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Fetch(ctx, ColumnCategory, loader)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), calls.Load(), "concurrent misses must share one load")
}

func TestDistinctCacheBumpInvalidates(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) ([]string, error) {
		calls++
		return []string{"Office"}, nil
	}

	_, err := cache.Fetch(ctx, ColumnCategory, loader)
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))

	_, err = cache.Fetch(ctx, ColumnCategory, loader)
	require.NoError(t, err)
	require.Equal(t, 2, calls, "bump must force a reload")
}

func TestDistinctCacheColumnsAreIndependent(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, err := cache.Fetch(ctx, ColumnCategory, func(context.Context) ([]string, error) {
		return []string{"Office"}, nil
	})
	require.NoError(t, err)

	types, err := cache.Fetch(ctx, ColumnProductType, func(context.Context) ([]string, error) {
		return []string{"consu"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"consu"}, types)
}

func TestDistinctCacheFallsBackWhenRedisDown(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	values, err := cache.Fetch(context.Background(), ColumnCategory, func(context.Context) ([]string, error) {
		return []string{"Office"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Office"}, values)
}

func TestDistinctCacheLoaderErrorPropagates(t *testing.T) {
	cache, _ := newTestCache(t)

	wantErr := errors.New("store down")
	_, err := cache.Fetch(context.Background(), ColumnCategory, func(context.Context) ([]string, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
}
