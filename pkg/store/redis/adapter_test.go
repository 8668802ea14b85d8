package redis

import (
	"testing"

	"github.com/kaiwa-dev/kaiwa/pkg/observability/logger"
)

func TestNewAdapter_Validation(t *testing.T) {
	log := logger.NewNop()

	if _, err := NewAdapter(Config{}, log); err == nil {
		t.Fatal("expected error for missing URL")
	}
	if _, err := NewAdapter(Config{URL: "://bad-url"}, log); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}
