package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Storage backends accepted by storage.backend.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// EnvPrefix is prepended to every environment variable override,
// e.g. HALO_STORAGE_BACKEND overrides storage.backend.
const EnvPrefix = "HALO"

// Config holds the haloctl configuration
type Config struct {
	Storage   StorageConfig `mapstructure:"storage"`
	Server    ServerConfig  `mapstructure:"server"`
	Routes    RoutesConfig  `mapstructure:"routes"`
	Auth      AuthConfig    `mapstructure:"auth"`
	Debug     bool          `mapstructure:"debug"`
	LogFormat string        `mapstructure:"log_format"`
}

// StorageConfig selects and tunes the key-value backend that persists
// sessions, tabs and dashboard layouts.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	// Path of the JSON state file for the file backend
	Path string `mapstructure:"path"`
	// DSN for the sqlite and postgres backends
	DSN       string        `mapstructure:"dsn"`
	CacheSize int           `mapstructure:"cache_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures haloctl serve
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RoutesConfig holds the redirect targets applied by the access guards
type RoutesConfig struct {
	Login     string `mapstructure:"login"`
	Home      string `mapstructure:"home"`
	Forbidden string `mapstructure:"forbidden"`
}

// AuthConfig configures token issuance
type AuthConfig struct {
	// SigningKey is the HMAC secret for issued tokens
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// DefaultDir returns ~/.halolight, falling back to ./.halolight when the
// home directory cannot be resolved.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".halolight"
	}
	return filepath.Join(home, ".halolight")
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	dir := DefaultDir()
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.path", filepath.Join(dir, "state.json"))
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.cache_size", 128)
	v.SetDefault("storage.timeout", 5*time.Second)
	v.SetDefault("server.addr", "localhost:8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("routes.login", "/auth/login")
	v.SetDefault("routes.home", "/dashboard")
	v.SetDefault("routes.forbidden", "/403")
	v.SetDefault("auth.signing_key", "halolight-dev-signing-key")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "text")
}

// Load reads configuration from the optional config file, HALO_ prefixed
// environment variables and defaults, in decreasing priority after flags
// already bound to v. An empty configFile looks for config.yaml under
// DefaultDir; a missing default file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", BackendFile)
		}
	case BackendSQLite, BackendPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the %s backend", c.Storage.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (want file, sqlite, postgres or memory)", c.Storage.Backend)
	}

	if c.Storage.CacheSize < 0 {
		return fmt.Errorf("storage.cache_size must not be negative")
	}
	if c.Storage.Timeout <= 0 {
		return fmt.Errorf("storage.timeout must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (want text or json)", c.LogFormat)
	}
	return nil
}

type contextKey string

const configKey contextKey = "haloctl-config"

// InjectConfig adds config to the cobra command context.
func InjectConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey).(*Config)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
// Only use it in RunE functions of commands under the root command.
func MustFromContext(ctx context.Context) *Config {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("haloctl: config not found in context - this is a bug in haloctl")
	}
	return cfg
}
