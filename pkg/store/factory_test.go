package store

import (
	"testing"

	"github.com/kaiwa-dev/kaiwa/pkg/config"
	"github.com/kaiwa-dev/kaiwa/pkg/observability/logger"
	"github.com/kaiwa-dev/kaiwa/pkg/session"
)

func TestNewSessionCache_Memory(t *testing.T) {
	cache, adapter, err := NewSessionCache(config.CacheConfig{Backend: config.CacheBackendMemory}, logger.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter != nil {
		t.Fatal("memory backend must not return an adapter")
	}
	if _, ok := cache.(*session.InMemoryCache); !ok {
		t.Fatalf("cache = %T, want *session.InMemoryCache", cache)
	}
}

func TestNewSessionCache_BackendNormalization(t *testing.T) {
	if _, _, err := NewSessionCache(config.CacheConfig{Backend: "  Memory "}, logger.NewNop()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewSessionCache_UnsupportedBackend(t *testing.T) {
	if _, _, err := NewSessionCache(config.CacheConfig{Backend: "memcached"}, logger.NewNop()); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestNewSessionCache_RedisRequiresURL(t *testing.T) {
	if _, _, err := NewSessionCache(config.CacheConfig{Backend: config.CacheBackendRedis}, logger.NewNop()); err == nil {
		t.Fatal("expected error for missing redis URL")
	}
}

func TestNewDocumentAdapter_RequiresURL(t *testing.T) {
	if _, err := NewDocumentAdapter(config.DatabaseConfig{}, logger.NewNop()); err == nil {
		t.Fatal("expected error for missing database URL")
	}
}
