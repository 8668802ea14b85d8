package config

import (
	"fmt"
	"time"
)

// Environment selects which deployment the process serves. It determines the
// collection prefix and which credential set the store adapter loads.
type Environment string

const (
	EnvLocal    Environment = "local"
	EnvDev      Environment = "dev"
	EnvProd     Environment = "prod"
	EnvProdLike Environment = "prodlike"
)

// ParseEnvironment converts a string into a known Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case EnvLocal, EnvDev, EnvProd, EnvProdLike:
		return Environment(s), nil
	default:
		return "", fmt.Errorf("unknown environment: %q", s)
	}
}

// CollectionPrefix returns the namespace prepended to every collection name.
// Environments must never cross-read each other's data, so the prefix is
// resolved once here and passed into the repository constructor.
func (e Environment) CollectionPrefix() string {
	switch e {
	case EnvLocal:
		return "local_"
	case EnvDev:
		return "dev_"
	case EnvProd:
		return "prod_"
	case EnvProdLike:
		return "prodLike_"
	default:
		return ""
	}
}

// Cache backend type constants
const (
	// CacheBackendMemory keeps session entries in-process
	CacheBackendMemory = "memory"
	// CacheBackendRedis keeps session entries in Redis
	CacheBackendRedis = "redis"
)

// Config is the root configuration structure.
type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServiceConfig configures service identity.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig configures the document store connection.
type DatabaseConfig struct {
	URL              string        `mapstructure:"url"`
	Database         string        `mapstructure:"database"`
	CredentialsFile  string        `mapstructure:"credentials_file"`
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// CacheConfig configures the session cache backend.
type CacheConfig struct {
	Backend          string        `mapstructure:"backend"`
	URL              string        `mapstructure:"url"`
	MaxConns         int           `mapstructure:"max_conns"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// AuthConfig configures credential issuance and verification.
type AuthConfig struct {
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	TokenLength int           `mapstructure:"token_length"`
	BcryptCost  int           `mapstructure:"bcrypt_cost"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "kaiwa",
			Environment: string(EnvLocal),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			URL:              "mongodb://localhost:27017",
			Database:         "kaiwa",
			ConnectTimeout:   5 * time.Second,
			OperationTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Backend:          CacheBackendMemory,
			URL:              "redis://localhost:6379/0",
			MaxConns:         10,
			OperationTimeout: 3 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:    6 * time.Hour,
			TokenLength: 128,
			BcryptCost:  10,
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service.name is required")
	}
	if _, err := ParseEnvironment(c.Service.Environment); err != nil {
		return fmt.Errorf("service.environment: %w", err)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.Cache.URL == "" {
			return fmt.Errorf("cache.url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend: %q", c.Cache.Backend)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.TokenLength <= 0 {
		return fmt.Errorf("auth.token_length must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost out of range: %d", c.Auth.BcryptCost)
	}
	return nil
}

// Environment returns the parsed environment. Call Validate first.
func (c *Config) Environment() Environment {
	env, _ := ParseEnvironment(c.Service.Environment)
	return env
}
