package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"keybridge-hq/keybridge/pkg/config"
	"keybridge-hq/keybridge/pkg/keystore"
	"keybridge-hq/keybridge/pkg/providers"
	"keybridge-hq/keybridge/pkg/providers/anthropic"
	"keybridge-hq/keybridge/pkg/providers/openai"
	"keybridge-hq/keybridge/pkg/server"
	"keybridge-hq/keybridge/pkg/telemetry/logging"
	"keybridge-hq/keybridge/pkg/telemetry/metrics"
	"keybridge-hq/keybridge/pkg/telemetry/tracing"
	"keybridge-hq/keybridge/pkg/usage"
	"keybridge-hq/keybridge/pkg/usage/retention"
	"keybridge-hq/keybridge/pkg/usage/storage"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the keybridge proxy server",
	Long: `Start the keybridge proxy server with the specified configuration.

The server stores provider API keys in memory and forwards chat requests
with the stored credential attached. Keys can be seeded from the
OPENAI_API_KEY and ANTHROPIC_API_KEY environment variables (a .env file
in the working directory is loaded if present).

Examples:
  # Start with default config
  keybridge run

  # Start with custom config
  keybridge run --config /etc/keybridge/config.yaml

  # Override listen address
  keybridge run --listen 0.0.0.0:3000

  # Validate config without starting server
  keybridge run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// A .env file is optional; seeded keys come from the environment.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetDefault()

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Credential store, seeded from the environment when keys are set.
	store := keystore.NewMemoryStore()
	seedKeys(store)

	registry := providers.NewRegistry()
	registry.Register(openai.New(openai.Config{
		BaseURL: cfg.Providers["openai"].BaseURL,
		Timeout: cfg.Providers["openai"].Timeout,
	}))
	registry.Register(anthropic.New(anthropic.Config{
		BaseURL: cfg.Providers["anthropic"].BaseURL,
		Timeout: cfg.Providers["anthropic"].Timeout,
	}))
	slog.Info("provider adapters registered", "providers", registry.Names())

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	recorder, pruner, usageBackend, err := setupUsage(cfg)
	if err != nil {
		return err
	}
	if pruner != nil {
		defer pruner.Stop()
	}
	if usageBackend != nil {
		defer usageBackend.Close()
	}
	if recorder != nil {
		// Drains the queue before the backend closes.
		defer recorder.Close()
	}

	srv := server.New(cfg, server.Dependencies{
		Store:    store,
		Registry: registry,
		Metrics:  collector,
		Tracer:   tracer,
		Usage:    recorder,
	})

	// Hot-reload adjusts log verbosity without a restart. Structural
	// changes (listen address, backends) still need one.
	watcher, err := config.NewWatcher(cfgFile, func(newCfg *config.Config) {
		if err := logger.SetLevel(newCfg.Telemetry.Logging.Level); err != nil {
			slog.Warn("reloaded log level is invalid", "error", err)
		}
	})
	if err != nil {
		slog.Warn("configuration watcher unavailable", "error", err)
	} else {
		watcher.Start()
		defer watcher.Stop()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errChan <- err
		}
		close(errChan)
	}()

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("shutdown failed", "error", err)
			return err
		}

		fmt.Println("✓ Server stopped")
		return nil
	}
}

// loadConfig loads the configuration file, falling back to defaults when
// the file does not exist so the proxy runs out of the box.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		return config.Default(), nil
	}

	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// seedKeys stores provider keys found in the environment. Seeding is
// best effort; a malformed key is logged and skipped.
func seedKeys(store keystore.Store) {
	seeds := map[string]string{
		providers.NameOpenAI:    "OPENAI_API_KEY",
		providers.NameAnthropic: "ANTHROPIC_API_KEY",
	}

	for provider, envVar := range seeds {
		key := os.Getenv(envVar)
		if key == "" {
			continue
		}
		if err := store.Save(provider, key); err != nil {
			slog.Warn("skipping seeded API key",
				"provider", provider,
				"env_var", envVar,
				"error", err,
			)
			continue
		}
		slog.Info("seeded API key from environment",
			"provider", provider,
			"key_prefix", logging.RedactAPIKey(key),
		)
	}
}

// setupUsage builds the usage recorder and retention pruner per the
// configuration. Everything is nil when usage recording is disabled.
func setupUsage(cfg *config.Config) (*usage.Recorder, *retention.Pruner, usage.Storage, error) {
	if !cfg.Usage.Enabled {
		return nil, nil, nil, nil
	}

	var (
		backend usage.Storage
		err     error
	)
	switch cfg.Usage.Backend {
	case "sqlite":
		backend, err = storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:        cfg.Usage.SQLite.Path,
			BusyTimeout: cfg.Usage.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open usage storage: %w", err)
		}
	default:
		backend = storage.NewMemoryStorage()
	}

	recorder := usage.NewRecorder(backend, cfg.Usage.Buffer)
	slog.Info("usage recording enabled", "backend", cfg.Usage.Backend)

	var pruner *retention.Pruner
	if cfg.Usage.Retention.PruneSchedule != "" {
		pruner = retention.NewPruner(backend, &retention.Config{
			RetentionDays: cfg.Usage.Retention.Days,
			PruneSchedule: cfg.Usage.Retention.PruneSchedule,
		})
		if err := pruner.Start(); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
			pruner = nil
		} else if next := pruner.NextPruning(); next != nil {
			slog.Debug("usage retention scheduler started", "next_pruning", next)
		}
	}

	return recorder, pruner, backend, nil
}
