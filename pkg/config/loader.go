package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader defines the interface for loading configuration.
type Loader interface {
	Load() (*Config, error)
}

// ViperLoader implements Loader using Viper. Precedence: ENV > file > defaults.
type ViperLoader struct {
	configFile string
	envPrefix  string
}

// NewViperLoader creates a new ViperLoader.
// configFile is optional; envPrefix is the environment variable prefix (e.g. "KAIWA").
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// Load reads configuration and validates it.
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()
	l.setDefaults(v)

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults seeds viper with DefaultConfig values so AutomaticEnv lookups
// have a known key set.
func (l *ViperLoader) setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("service.name", d.Service.Name)
	v.SetDefault("service.environment", d.Service.Environment)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.database", d.Database.Database)
	v.SetDefault("database.credentials_file", d.Database.CredentialsFile)
	v.SetDefault("database.connect_timeout", d.Database.ConnectTimeout)
	v.SetDefault("database.operation_timeout", d.Database.OperationTimeout)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.url", d.Cache.URL)
	v.SetDefault("cache.max_conns", d.Cache.MaxConns)
	v.SetDefault("cache.operation_timeout", d.Cache.OperationTimeout)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("auth.token_length", d.Auth.TokenLength)
	v.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)
}
