package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheVersionKey = "catalog:distinct:version"

// DistinctCache is a versioned read-through cache for the distinct-value
// listings. Writes bump a global version instead of deleting keys, so stale
// entries simply age out under their TTL.
type DistinctCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewDistinctCache wraps the Redis client. TTL bounds how long an orphaned
// version's entries linger.
func NewDistinctCache(client *redis.Client, ttl time.Duration) *DistinctCache {
	return &DistinctCache{client: client, ttl: ttl}
}

func (c *DistinctCache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Fetch loads the cached value list for the column, populating it from the
// loader on a miss. Concurrent misses for the same key collapse into a single
// loader call. Cache failures fall through to the loader so a Redis outage
// degrades to direct store reads.
func (c *DistinctCache) Fetch(ctx context.Context, column string, loader func(context.Context) ([]string, error)) ([]string, error) {
	if loader == nil {
		return nil, errors.New("catalog: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	ver, err := c.version(ctx)
	if err != nil {
		return loader(ctx)
	}
	key := fmt.Sprintf("catalog:distinct:%s:%d", column, ver)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var values []string
		if err := json.Unmarshal(payload, &values); err == nil {
			return values, nil
		}
	}

	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		values, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(values); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		}
		return values, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	}
}

// Bump invalidates all cached listings by advancing the version.
func (c *DistinctCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}
