package content

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisHeadlineCache is a cache-aside store for headlines keyed by
// lower-cased industry. Read and write errors count as misses.
type RedisHeadlineCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisHeadlineCache(rdb redis.UniversalClient, ttl time.Duration) *RedisHeadlineCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisHeadlineCache{rdb: rdb, ttl: ttl}
}

func (c *RedisHeadlineCache) key(industry string) string {
	return "news:headlines:" + strings.ToLower(strings.TrimSpace(industry))
}

func (c *RedisHeadlineCache) Get(ctx context.Context, industry string) ([]string, bool) {
	data, err := c.rdb.Get(ctx, c.key(industry)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil || len(out) == 0 {
		return nil, false
	}
	return out, true
}

func (c *RedisHeadlineCache) Set(ctx context.Context, industry string, headlines []string) {
	if payload, err := json.Marshal(headlines); err == nil {
		_ = c.rdb.Set(ctx, c.key(industry), payload, c.ttl).Err()
	}
}
