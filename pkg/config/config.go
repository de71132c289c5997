// Package config defines the YAML configuration model for the proxy,
// with defaulting, validation, environment overrides, and file watching.
package config

import "time"

// Config is the root configuration.
type Config struct {
	// Server contains the HTTP server settings.
	Server ServerConfig `yaml:"server"`

	// Providers maps provider names to adapter settings.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Telemetry contains logging, metrics, and tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Usage contains the request usage log settings.
	Usage UsageConfig `yaml:"usage"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the host:port to bind.
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Zero means no limit; a non-zero value severs long-lived SSE
	// streams, so it stays zero by default.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// StaticDir is the directory served at / for the browser client.
	// Empty disables static serving.
	StaticDir string `yaml:"static_dir"`

	// CORS contains cross-origin settings.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains cross-origin settings.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// ProviderConfig contains the settings for one provider adapter.
type ProviderConfig struct {
	// BaseURL overrides the provider's API base URL.
	BaseURL string `yaml:"base_url"`

	// Timeout is the non-streaming request timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// TelemetryConfig contains logging, metrics, and tracing settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the output format ("json" or "text").
	Format string `yaml:"format"`

	// RedactKeys enables API key redaction in log output.
	RedactKeys bool `yaml:"redact_keys"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled controls metric collection and the exposition endpoint.
	Enabled bool `yaml:"enabled"`

	// Path is the exposition endpoint path.
	Path string `yaml:"path"`

	// Namespace prefixes all metric names.
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	// Enabled controls tracing; disabled yields a noop tracer.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	Endpoint string `yaml:"endpoint"`

	// ServiceName identifies this service in traces.
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the trace sampling ratio in [0, 1].
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS on the exporter connection.
	Insecure bool `yaml:"insecure"`
}

// UsageConfig contains the request usage log settings. The usage log
// records per-request accounting rows; it never stores credentials.
type UsageConfig struct {
	// Enabled controls usage recording.
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend ("memory" or "sqlite").
	Backend string `yaml:"backend"`

	// Buffer is the async recorder queue size.
	Buffer int `yaml:"buffer"`

	// SQLite contains sqlite backend settings.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention contains pruning settings.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains sqlite backend settings.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains usage log pruning settings.
type RetentionConfig struct {
	// Days is how long usage rows are kept.
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for the pruning job.
	// Empty disables scheduled pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}
