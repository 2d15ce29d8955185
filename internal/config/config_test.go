package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DefaultProfile != "default" {
		t.Errorf("Expected default profile 'default', got '%s'", cfg.DefaultProfile)
	}

	if cfg.DefaultOutputFormat != types.OutputFormatText {
		t.Errorf("Expected default output format 'text', got '%s'", cfg.DefaultOutputFormat)
	}

	if cfg.RegistryURL != utils.DefaultRegistryURL {
		t.Errorf("Expected registry URL '%s', got '%s'", utils.DefaultRegistryURL, cfg.RegistryURL)
	}

	if cfg.MaxPollAttempts != 10 {
		t.Errorf("Expected max poll attempts 10, got %d", cfg.MaxPollAttempts)
	}

	if cfg.PollIntervalMs != 5000 {
		t.Errorf("Expected poll interval 5000ms, got %d", cfg.PollIntervalMs)
	}

	if cfg.MaxRetries != 3 {
		t.Errorf("Expected max retries 3, got %d", cfg.MaxRetries)
	}

	if cfg.LogLevel != "normal" {
		t.Errorf("Expected log level 'normal', got '%s'", cfg.LogLevel)
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func(mutate func(*Config)) *Config {
		cfg := DefaultConfig()
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name      string
		config    *Config
		wantError bool
	}{
		{
			name:      "valid default config",
			config:    DefaultConfig(),
			wantError: false,
		},
		{
			name:      "invalid output format",
			config:    valid(func(c *Config) { c.DefaultOutputFormat = types.OutputFormat("invalid") }),
			wantError: true,
		},
		{
			name:      "text output format",
			config:    valid(func(c *Config) { c.DefaultOutputFormat = types.OutputFormatText }),
			wantError: false,
		},
		{
			name:      "missing registry scheme",
			config:    valid(func(c *Config) { c.RegistryURL = "registry.npmmirror.com" }),
			wantError: true,
		},
		{
			name:      "non-http registry scheme",
			config:    valid(func(c *Config) { c.RegistryURL = "ftp://registry.npmmirror.com" }),
			wantError: true,
		},
		{
			name:      "zero poll attempts",
			config:    valid(func(c *Config) { c.MaxPollAttempts = 0 }),
			wantError: true,
		},
		{
			name:      "poll interval too small",
			config:    valid(func(c *Config) { c.PollIntervalMs = 50 }),
			wantError: true,
		},
		{
			name:      "negative max retries",
			config:    valid(func(c *Config) { c.MaxRetries = -1 }),
			wantError: true,
		},
		{
			name:      "retry delay too small",
			config:    valid(func(c *Config) { c.RetryBaseDelay = 10 }),
			wantError: true,
		},
		{
			name:      "request timeout zero",
			config:    valid(func(c *Config) { c.RequestTimeout = 0 }),
			wantError: true,
		},
		{
			name:      "invalid log level",
			config:    valid(func(c *Config) { c.LogLevel = "chatty" }),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv(EnvPrefix+"CONFIG_DIR", tempDir)

	cfg := DefaultConfig()
	cfg.MaxPollAttempts = 20
	cfg.PollIntervalMs = 2500
	cfg.RegistryURL = "https://mirror.example.com"

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Verify the file is valid JSON with expected keys
	data, err := os.ReadFile(filepath.Join(tempDir, ConfigFileName))
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Config file is not valid JSON: %v", err)
	}
	if _, ok := raw["maxPollAttempts"]; !ok {
		t.Error("Expected maxPollAttempts key in config file")
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.MaxPollAttempts != 20 {
		t.Errorf("Expected max poll attempts 20, got %d", loaded.MaxPollAttempts)
	}
	if loaded.PollIntervalMs != 2500 {
		t.Errorf("Expected poll interval 2500, got %d", loaded.PollIntervalMs)
	}
	if loaded.RegistryURL != "https://mirror.example.com" {
		t.Errorf("Expected saved registry URL, got '%s'", loaded.RegistryURL)
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv(EnvPrefix+"CONFIG_DIR", tempDir)
	t.Setenv(EnvPrefix+"REGISTRY_URL", "https://env.example.com")
	t.Setenv(EnvPrefix+"MAX_POLL_ATTEMPTS", "7")
	t.Setenv(EnvPrefix+"POLL_INTERVAL_MS", "1000")
	t.Setenv(EnvPrefix+"LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RegistryURL != "https://env.example.com" {
		t.Errorf("Expected env registry URL, got '%s'", cfg.RegistryURL)
	}
	if cfg.MaxPollAttempts != 7 {
		t.Errorf("Expected max poll attempts 7, got %d", cfg.MaxPollAttempts)
	}
	if cfg.PollIntervalMs != 1000 {
		t.Errorf("Expected poll interval 1000, got %d", cfg.PollIntervalMs)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.LogLevel)
	}
}

func TestGetPollInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PollIntervalMs = 5000

	if got := cfg.GetPollInterval().Milliseconds(); got != 5000 {
		t.Errorf("Expected 5000ms, got %d", got)
	}
}
