// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
port: 9000
metrics_port: 9101
model: /opt/artifacts/model.json
preprocessor: /opt/artifacts/preprocessor.json
request_timeout: 2s
max_batch_size: 16
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadWithConfigFile(path)
	if err != nil {
		t.Fatalf("LoadWithConfigFile failed: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, expected 9000", cfg.Port)
	}
	if cfg.Model != "/opt/artifacts/model.json" {
		t.Errorf("Model = %q, expected /opt/artifacts/model.json", cfg.Model)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("RequestTimeout = %v, expected 2s", cfg.RequestTimeout)
	}
	if cfg.MaxBatchSize != 16 {
		t.Errorf("MaxBatchSize = %d, expected 16", cfg.MaxBatchSize)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, expected debug", cfg.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed on a valid config: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           8080,
			MetricsPort:    9100,
			Model:          "model.json",
			Preprocessor:   "preprocessor.json",
			RequestTimeout: 5 * time.Second,
			MaxBatchSize:   64,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"bad metrics port", func(c *Config) { c.MetricsPort = 70000 }},
		{"same ports", func(c *Config) { c.MetricsPort = c.Port }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"zero batch size", func(c *Config) { c.MaxBatchSize = 0 }},
		{"no model path", func(c *Config) { c.Model = "" }},
		{"no preprocessor path", func(c *Config) { c.Preprocessor = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestValidate_MockSkipsArtifactPaths(t *testing.T) {
	cfg := &Config{
		Port:             8080,
		MetricsPort:      9100,
		RequestTimeout:   5 * time.Second,
		MaxBatchSize:     64,
		UseMockInference: true,
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed for mock config without artifact paths: %v", err)
	}
}
