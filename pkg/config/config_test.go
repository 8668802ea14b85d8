package config

import (
	"testing"
	"time"
)

func TestCollectionPrefix(t *testing.T) {
	cases := map[Environment]string{
		EnvLocal:    "local_",
		EnvDev:      "dev_",
		EnvProd:     "prod_",
		EnvProdLike: "prodLike_",
	}
	for env, want := range cases {
		if got := env.CollectionPrefix(); got != want {
			t.Fatalf("CollectionPrefix(%s) = %q, want %q", env, got, want)
		}
	}
	if got := Environment("staging").CollectionPrefix(); got != "" {
		t.Fatalf("unknown environment prefix = %q, want empty", got)
	}
}

func TestParseEnvironment(t *testing.T) {
	for _, s := range []string{"local", "dev", "prod", "prodlike"} {
		if _, err := ParseEnvironment(s); err != nil {
			t.Fatalf("ParseEnvironment(%q) error: %v", s, err)
		}
	}
	if _, err := ParseEnvironment("staging"); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Environment() != EnvLocal {
		t.Fatalf("default environment = %q, want local", cfg.Environment())
	}
	if cfg.Auth.TokenTTL != 6*time.Hour {
		t.Fatalf("default token ttl = %v, want 6h", cfg.Auth.TokenTTL)
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty service name", func(c *Config) { c.Service.Name = "" }},
		{"bad environment", func(c *Config) { c.Service.Environment = "staging" }},
		{"missing database url", func(c *Config) { c.Database.URL = "" }},
		{"missing database name", func(c *Config) { c.Database.Database = "" }},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis backend without url", func(c *Config) {
			c.Cache.Backend = CacheBackendRedis
			c.Cache.URL = ""
		}},
		{"zero token ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"zero token length", func(c *Config) { c.Auth.TokenLength = 0 }},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 2 }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestViperLoader_DefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("KAIWA_SERVICE_ENVIRONMENT", "dev")
	t.Setenv("KAIWA_DATABASE_DATABASE", "kaiwa_dev")

	cfg, err := NewViperLoader("", "KAIWA").Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service.Environment != "dev" {
		t.Fatalf("environment = %q, want dev", cfg.Service.Environment)
	}
	if cfg.Database.Database != "kaiwa_dev" {
		t.Fatalf("database = %q, want kaiwa_dev", cfg.Database.Database)
	}
	if cfg.Environment().CollectionPrefix() != "dev_" {
		t.Fatalf("prefix = %q, want dev_", cfg.Environment().CollectionPrefix())
	}
	// Untouched keys keep their defaults.
	if cfg.Cache.Backend != CacheBackendMemory {
		t.Fatalf("cache backend = %q, want memory", cfg.Cache.Backend)
	}
}

func TestViperLoader_InvalidEnvRejected(t *testing.T) {
	t.Setenv("KAIWA_SERVICE_ENVIRONMENT", "staging")
	if _, err := NewViperLoader("", "KAIWA").Load(); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestViperLoader_MissingExplicitFile(t *testing.T) {
	if _, err := NewViperLoader("/does/not/exist.yaml", "KAIWA").Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
