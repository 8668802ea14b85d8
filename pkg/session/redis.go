package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kaiwa-dev/kaiwa/pkg/observability/logger"
	redisstore "github.com/kaiwa-dev/kaiwa/pkg/store/redis"
)

// RedisCache implements Cache on the Redis adapter, for deployments where
// session entries must survive the process and be shared across instances.
type RedisCache struct {
	adapter *redisstore.Adapter
	logger  logger.Logger
}

// NewRedisCache creates a Redis-backed session cache.
func NewRedisCache(adapter *redisstore.Adapter, log logger.Logger) (*RedisCache, error) {
	if adapter == nil {
		return nil, fmt.Errorf("redis adapter is required")
	}
	return &RedisCache{adapter: adapter, logger: log}, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for key %s: %w", key, err)
	}
	return c.adapter.Set(ctx, key, string(encoded))
}

func (c *RedisCache) Get(ctx context.Context, key string, out any) (bool, error) {
	encoded, err := c.adapter.Get(ctx, key)
	if errors.Is(err, redisstore.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(encoded), out); err != nil {
		c.logger.Warn("discarding malformed cache entry", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.adapter.Delete(ctx, key)
}

func (c *RedisCache) Clear(ctx context.Context) error {
	return c.adapter.FlushDB(ctx)
}
