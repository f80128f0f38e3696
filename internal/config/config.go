// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Search  SearchConfig  `mapstructure:"search"`
	Events  EventsConfig  `mapstructure:"events"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// SearchConfig governs the lookup client and worker pool.
type SearchConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	IdentifierField string `mapstructure:"identifier_field"`
	DateField       string `mapstructure:"date_field"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	DefaultWorkers  int    `mapstructure:"default_workers"`
	MaxWorkers      int    `mapstructure:"max_workers"`
	ResultsDir      string `mapstructure:"results_dir"`
	UserAgent       string `mapstructure:"user_agent"`
}

// EventsConfig tunes the event hub and the in-memory console buffer.
type EventsConfig struct {
	BufferSize        int `mapstructure:"buffer_size"`
	FlushIntervalMs   int `mapstructure:"flush_interval_ms"`
	ConsoleCapacity   int `mapstructure:"console_capacity"`
	ConsoleEvictBlock int `mapstructure:"console_evict_block"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REGPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("search.identifier_field", "registrationNo")
	v.SetDefault("search.date_field", "registrationDate")
	v.SetDefault("search.timeout_seconds", 10)
	v.SetDefault("search.default_workers", 6)
	v.SetDefault("search.max_workers", 64)
	v.SetDefault("search.results_dir", "results")
	v.SetDefault("search.user_agent", "regprobe/0.1")
	v.SetDefault("events.buffer_size", 1024)
	v.SetDefault("events.flush_interval_ms", 200)
	v.SetDefault("events.console_capacity", 1000)
	v.SetDefault("events.console_evict_block", 100)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Search.Endpoint == "" {
		return fmt.Errorf("search.endpoint must be set")
	}
	if c.Search.TimeoutSeconds <= 0 {
		return fmt.Errorf("search.timeout_seconds must be > 0")
	}
	if c.Search.DefaultWorkers <= 0 {
		return fmt.Errorf("search.default_workers must be > 0")
	}
	if c.Search.MaxWorkers < c.Search.DefaultWorkers {
		return fmt.Errorf("search.max_workers must be >= search.default_workers")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// QueryTimeout converts the lookup timeout config into a duration.
func (c Config) QueryTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}
