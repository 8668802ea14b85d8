package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kaiwa-dev/kaiwa/pkg/observability/logger"
)

// InMemoryCache keeps JSON-encoded entries in a mutex-guarded process map.
// There is no TTL and no eviction: unbounded growth is an accepted
// limitation, and the owning application clears entries explicitly.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
	logger  logger.Logger
}

// NewInMemoryCache creates an empty in-memory session cache.
func NewInMemoryCache(log logger.Logger) *InMemoryCache {
	return &InMemoryCache{
		entries: make(map[string]string),
		logger:  log,
	}
}

func (c *InMemoryCache) Set(_ context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for key %s: %w", key, err)
	}
	c.mu.Lock()
	c.entries[key] = string(encoded)
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Get(_ context.Context, key string, out any) (bool, error) {
	c.mu.RLock()
	encoded, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(encoded), out); err != nil {
		c.logger.Warn("discarding malformed cache entry", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (c *InMemoryCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]string)
	c.mu.Unlock()
	return nil
}

// put stores a raw entry without encoding. Test hook for corruption scenarios.
func (c *InMemoryCache) put(key, raw string) {
	c.mu.Lock()
	c.entries[key] = raw
	c.mu.Unlock()
}
