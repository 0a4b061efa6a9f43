// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	// Server configuration
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`

	// Artifact paths, read once at startup
	Model        string `mapstructure:"model"`
	Preprocessor string `mapstructure:"preprocessor"`

	// Request handling
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBatchSize   int           `mapstructure:"max_batch_size"`

	// Prediction cache (optional)
	Redis    string        `mapstructure:"redis"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// Logging
	LogLevel string `mapstructure:"log_level"`

	// OpenTelemetry configuration
	OTELEnabled  bool   `mapstructure:"otel_enabled"`
	OTELEndpoint string `mapstructure:"otel_endpoint"`

	// Feature flags
	UseMockInference bool `mapstructure:"use_mock_inference"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("metrics_port", 9100)
	v.SetDefault("model", "artifacts/model.json")
	v.SetDefault("preprocessor", "artifacts/preprocessor.json")
	v.SetDefault("request_timeout", 5*time.Second)
	v.SetDefault("max_batch_size", 64)
	v.SetDefault("redis", "localhost:6379")
	v.SetDefault("cache_ttl", 15*time.Minute)
	v.SetDefault("log_level", "info")
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("use_mock_inference", false)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("HOUSE_PRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("port", "HOUSE_PRICE_PORT")
	v.BindEnv("metrics_port", "HOUSE_PRICE_METRICS_PORT")
	v.BindEnv("model", "HOUSE_PRICE_MODEL")
	v.BindEnv("preprocessor", "HOUSE_PRICE_PREPROCESSOR")
	v.BindEnv("request_timeout", "HOUSE_PRICE_REQUEST_TIMEOUT")
	v.BindEnv("max_batch_size", "HOUSE_PRICE_MAX_BATCH_SIZE")
	v.BindEnv("redis", "HOUSE_PRICE_REDIS")
	v.BindEnv("cache_ttl", "HOUSE_PRICE_CACHE_TTL")
	v.BindEnv("log_level", "HOUSE_PRICE_LOG_LEVEL")
	v.BindEnv("otel_enabled", "HOUSE_PRICE_OTEL_ENABLED")
	v.BindEnv("otel_endpoint", "HOUSE_PRICE_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("use_mock_inference", "HOUSE_PRICE_USE_MOCK")
}

// Load loads configuration from environment variables and an optional config file.
// Priority (highest to lowest): env vars > config file > defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/house-price-service/")
	v.AddConfigPath("$HOME/.house-price-service")

	// Read config file if present (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; ignore
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithConfigFile loads configuration from a specific config file
func LoadWithConfigFile(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}
	if c.Port == c.MetricsPort {
		return fmt.Errorf("port and metrics_port must be different")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", c.MaxBatchSize)
	}
	if !c.UseMockInference {
		if c.Model == "" {
			return fmt.Errorf("model path is required when not using mock inference")
		}
		if c.Preprocessor == "" {
			return fmt.Errorf("preprocessor path is required when not using mock inference")
		}
	}
	return nil
}
