package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Catalog source kinds
const (
	SourceStatic = "static"
	SourceFile   = "file"
	SourceSQLite = "sqlite"
	SourceRemote = "remote"
)

// Config is the top-level portfolio.yml configuration. Every field can be
// overridden from the environment.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"PORTFOLIO_ADDR"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"PORTFOLIO_ALLOWED_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"PORTFOLIO_SHUTDOWN_TIMEOUT"`
}

// CatalogConfig selects where the project catalog comes from
type CatalogConfig struct {
	Source  string        `yaml:"source" env:"PORTFOLIO_CATALOG_SOURCE"`
	Path    string        `yaml:"path,omitempty" env:"PORTFOLIO_CATALOG_PATH"`
	URL     string        `yaml:"url,omitempty" env:"PORTFOLIO_CATALOG_URL"`
	Timeout time.Duration `yaml:"timeout,omitempty" env:"PORTFOLIO_CATALOG_TIMEOUT"`
}

// CacheConfig enables the redis catalog cache when RedisURL is set
type CacheConfig struct {
	RedisURL string        `yaml:"redis_url,omitempty" env:"PORTFOLIO_REDIS_URL"`
	Key      string        `yaml:"key,omitempty" env:"PORTFOLIO_CACHE_KEY"`
	TTL      time.Duration `yaml:"ttl,omitempty" env:"PORTFOLIO_CACHE_TTL"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `yaml:"level" env:"PORTFOLIO_LOG_LEVEL"`
	Development bool   `yaml:"development" env:"PORTFOLIO_LOG_DEVELOPMENT"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			Source:  SourceStatic,
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment, in that order.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := ParseEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// ParseEnv applies environment overrides onto target
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}

	switch c.Catalog.Source {
	case SourceStatic:
	case SourceFile, SourceSQLite:
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for source %q", c.Catalog.Source)
		}
	case SourceRemote:
		if c.Catalog.URL == "" {
			return fmt.Errorf("catalog.url is required for source %q", c.Catalog.Source)
		}
	default:
		return fmt.Errorf("unknown catalog.source %q (want static, file, sqlite or remote)", c.Catalog.Source)
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}
