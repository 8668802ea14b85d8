package store

import (
	"fmt"
	"strings"

	"github.com/kaiwa-dev/kaiwa/pkg/config"
	"github.com/kaiwa-dev/kaiwa/pkg/observability/logger"
	"github.com/kaiwa-dev/kaiwa/pkg/session"
	"github.com/kaiwa-dev/kaiwa/pkg/store/mongodb"
	"github.com/kaiwa-dev/kaiwa/pkg/store/redis"
)

// NewDocumentAdapter initializes the document store adapter from config.
func NewDocumentAdapter(cfg config.DatabaseConfig, log logger.Logger) (*mongodb.Adapter, error) {
	return mongodb.NewAdapter(mongodb.Config{
		URL:              cfg.URL,
		Database:         cfg.Database,
		ConnectTimeout:   cfg.ConnectTimeout,
		OperationTimeout: cfg.OperationTimeout,
	}, log)
}

// NewSessionCache selects and initializes the session cache backend from
// config. The redis backend also returns its adapter so the caller can
// register its health probe and close it on shutdown; the memory backend has
// neither concern and returns a nil Adapter.
func NewSessionCache(cfg config.CacheConfig, log logger.Logger) (session.Cache, Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.CacheBackendMemory:
		return session.NewInMemoryCache(log), nil, nil
	case config.CacheBackendRedis:
		adapter, err := redis.NewAdapter(redis.Config{
			URL:              cfg.URL,
			MaxConns:         cfg.MaxConns,
			OperationTimeout: cfg.OperationTimeout,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis cache backend: %w", err)
		}
		cache, err := session.NewRedisCache(adapter, log)
		if err != nil {
			return nil, nil, err
		}
		return cache, adapter, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache.backend %q (supported: %s, %s)",
			cfg.Backend, config.CacheBackendMemory, config.CacheBackendRedis)
	}
}
