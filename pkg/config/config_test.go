package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfigFile writes a config file into a temp dir and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// TestLoad tests loading a YAML file with defaults applied on top.
func TestLoad(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:8080"
providers:
  openai:
    base_url: "https://gateway.example.com/v1"
telemetry:
  logging:
    level: "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("Expected listen address from file, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("Expected default read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Providers["openai"].BaseURL != "https://gateway.example.com/v1" {
		t.Errorf("Expected provider base URL from file, got %q", cfg.Providers["openai"].BaseURL)
	}
	if cfg.Providers["openai"].Timeout != DefaultProviderTimeout {
		t.Errorf("Expected default provider timeout, got %v", cfg.Providers["openai"].Timeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Expected level from file, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Logging.Format != DefaultLogFormat {
		t.Errorf("Expected default format, got %q", cfg.Telemetry.Logging.Format)
	}
}

// TestLoad_MissingFile tests the error for an absent file.
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}

// TestLoad_InvalidYAML tests the error for unparseable content.
func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("Expected a parse error")
	}
}

// TestLoad_ValidationFailure tests that invalid values are rejected.
func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfigFile(t, `
telemetry:
  logging:
    level: "loud"
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("Expected a validation error, got %v", err)
	}
}

// TestLoadWithEnvOverrides tests that environment variables win over file
// values.
func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:3000"
providers:
  openai:
    base_url: "https://api.openai.com/v1"
`)

	t.Setenv("KEYBRIDGE_SERVER_LISTEN_ADDRESS", "0.0.0.0:9999")
	t.Setenv("KEYBRIDGE_PROVIDERS_OPENAI_BASE_URL", "https://override.example.com")
	t.Setenv("KEYBRIDGE_PROVIDERS_ANTHROPIC_TIMEOUT", "90s")
	t.Setenv("KEYBRIDGE_TELEMETRY_METRICS_ENABLED", "true")
	t.Setenv("KEYBRIDGE_USAGE_BACKEND", "sqlite")

	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadWithEnvOverrides() failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("Expected env override for listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Providers["openai"].BaseURL != "https://override.example.com" {
		t.Errorf("Expected env override for base URL, got %q", cfg.Providers["openai"].BaseURL)
	}
	if cfg.Providers["anthropic"].Timeout != 90*time.Second {
		t.Errorf("Expected env-created provider entry, got %v", cfg.Providers["anthropic"].Timeout)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("Expected metrics enabled via env")
	}
	if cfg.Usage.Backend != "sqlite" {
		t.Errorf("Expected usage backend override, got %q", cfg.Usage.Backend)
	}
}

// TestDefault tests the fully defaulted configuration.
func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("Expected default listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Errorf("Write timeout must default to zero for SSE, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Usage.Backend != DefaultUsageBackend {
		t.Errorf("Expected default usage backend, got %q", cfg.Usage.Backend)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default configuration must validate: %v", err)
	}
}

// TestValidate tests individual validation rules.
func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty_listen", func(c *Config) { c.Server.ListenAddress = "" }},
		{"negative_timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }},
		{"bad_level", func(c *Config) { c.Telemetry.Logging.Level = "loud" }},
		{"bad_format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }},
		{"tracing_no_endpoint", func(c *Config) { c.Telemetry.Tracing.Enabled = true; c.Telemetry.Tracing.Endpoint = "" }},
		{"bad_sample_ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }},
		{"bad_usage_backend", func(c *Config) { c.Usage.Backend = "postgres" }},
		{"sqlite_no_path", func(c *Config) { c.Usage.Backend = "sqlite"; c.Usage.SQLite.Path = "" }},
		{"negative_retention", func(c *Config) { c.Usage.Retention.Days = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

// TestWatcher_Reload tests that editing the file triggers the callback
// with the reloaded configuration.
func TestWatcher_Reload(t *testing.T) {
	path := writeConfigFile(t, `
telemetry:
  logging:
    level: "info"
`)

	reloaded := make(chan *Config, 1)
	watcher, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	watcher.Start()
	defer watcher.Stop()

	update := `
telemetry:
  logging:
    level: "debug"
`
	if err := os.WriteFile(path, []byte(update), 0o644); err != nil {
		t.Fatalf("Failed to rewrite config file: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Telemetry.Logging.Level != "debug" {
			t.Errorf("Expected reloaded level 'debug', got %q", cfg.Telemetry.Logging.Level)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for the reload callback")
	}
}

// TestWatcher_InvalidReloadDiscarded tests that a broken edit never
// reaches the callback.
func TestWatcher_InvalidReloadDiscarded(t *testing.T) {
	path := writeConfigFile(t, `
telemetry:
  logging:
    level: "info"
`)

	reloaded := make(chan *Config, 1)
	watcher, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	watcher.Start()
	defer watcher.Stop()

	if err := os.WriteFile(path, []byte("telemetry: [broken"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite config file: %v", err)
	}

	select {
	case cfg := <-reloaded:
		t.Errorf("Broken config must be discarded, got callback with %+v", cfg)
	case <-time.After(time.Second):
		// expected: no callback
	}
}
