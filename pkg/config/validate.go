package config

import "fmt"

// Validate checks a defaulted configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address must not be empty")
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 || cfg.Server.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level must be one of debug, info, warn, error (got %q)",
			cfg.Telemetry.Logging.Level)
	}

	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format must be json or text (got %q)",
			cfg.Telemetry.Logging.Format)
	}

	if cfg.Telemetry.Tracing.Enabled && cfg.Telemetry.Tracing.Endpoint == "" {
		return fmt.Errorf("telemetry.tracing.endpoint is required when tracing is enabled")
	}
	if ratio := cfg.Telemetry.Tracing.SampleRatio; ratio < 0 || ratio > 1 {
		return fmt.Errorf("telemetry.tracing.sample_ratio must be in [0, 1] (got %v)", ratio)
	}

	switch cfg.Usage.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("usage.backend must be memory or sqlite (got %q)", cfg.Usage.Backend)
	}
	if cfg.Usage.Backend == "sqlite" && cfg.Usage.SQLite.Path == "" {
		return fmt.Errorf("usage.sqlite.path is required for the sqlite backend")
	}
	if cfg.Usage.Retention.Days < 0 {
		return fmt.Errorf("usage.retention.days must not be negative")
	}

	for name, pc := range cfg.Providers {
		if pc.Timeout < 0 {
			return fmt.Errorf("providers.%s.timeout must not be negative", name)
		}
	}

	return nil
}
