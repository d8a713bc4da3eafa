package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Style     StyleConfig     `mapstructure:"style" yaml:"style"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	NATS      NATSConfig      `mapstructure:"nats" yaml:"nats"`
	Watcher   WatcherConfig   `mapstructure:"watcher" yaml:"watcher"`
	Tracking  TrackingConfig  `mapstructure:"tracking" yaml:"tracking"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port" yaml:"port"`
	ReadTimeout  int `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// StyleConfig describes the upstream style provider. APIKey is the
// service's own key, used by the watcher and the CLI; HTTP callers
// always pass their own key per request.
type StyleConfig struct {
	Endpoint       string  `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst      int     `mapstructure:"rate_burst" yaml:"rate_burst"`
	CacheTTL       int     `mapstructure:"cache_ttl" yaml:"cache_ttl"` // seconds; 0 keeps caching off
}

type CacheConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"` // none, memory or valkey
	ValkeyAddr string `mapstructure:"valkey_addr" yaml:"valkey_addr"`
	MemorySize int    `mapstructure:"memory_size" yaml:"memory_size"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

type WatcherConfig struct {
	IntervalSeconds int      `mapstructure:"interval_seconds" yaml:"interval_seconds"`
	Keys            []string `mapstructure:"keys" yaml:"keys"`
}

type TrackingConfig struct {
	SessionTTL int `mapstructure:"session_ttl" yaml:"session_ttl"` // seconds a previous fix stays usable
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name" yaml:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("style.endpoint", "https://map.barikoi.com/styles/osm-liberty/style.json")
	v.SetDefault("style.api_key", "")
	v.SetDefault("style.timeout_seconds", 15)
	v.SetDefault("style.rate_limit", 5.0)
	v.SetDefault("style.rate_burst", 2)
	v.SetDefault("style.cache_ttl", 0)
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.valkey_addr", "localhost:6379")
	v.SetDefault("cache.memory_size", 1024)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("watcher.interval_seconds", 300)
	v.SetDefault("watcher.keys", []string{})
	v.SetDefault("tracking.session_ttl", 300)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MANCHITRA_STYLE_ENDPOINT → style.endpoint
	v.SetEnvPrefix("MANCHITRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Style.Endpoint == "" {
		errs = append(errs, "style.endpoint is required")
	}
	if c.Style.TimeoutSeconds <= 0 {
		errs = append(errs, "style.timeout_seconds must be positive")
	}
	if c.Style.RateLimit <= 0 {
		errs = append(errs, "style.rate_limit must be positive")
	}
	if c.Style.RateBurst < 1 {
		errs = append(errs, "style.rate_burst must be at least 1")
	}
	if c.Style.CacheTTL < 0 {
		errs = append(errs, "style.cache_ttl must not be negative")
	}
	switch c.Cache.Backend {
	case "none", "memory", "valkey":
	default:
		errs = append(errs, fmt.Sprintf("cache.backend must be none, memory or valkey, got %q", c.Cache.Backend))
	}
	if c.Cache.Backend == "valkey" && c.Cache.ValkeyAddr == "" {
		errs = append(errs, "cache.valkey_addr is required for the valkey backend")
	}
	if c.Cache.Backend == "memory" && c.Cache.MemorySize <= 0 {
		errs = append(errs, "cache.memory_size must be positive for the memory backend")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Watcher.IntervalSeconds <= 0 {
		errs = append(errs, "watcher.interval_seconds must be positive")
	}
	if c.Tracking.SessionTTL <= 0 {
		errs = append(errs, "tracking.session_ttl must be positive")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("logging.format must be json or text, got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
