// Package server wires the HTTP endpoints, middleware chain, and graceful
// shutdown for the key proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"keybridge-hq/keybridge/pkg/config"
	"keybridge-hq/keybridge/pkg/keystore"
	"keybridge-hq/keybridge/pkg/providers"
	"keybridge-hq/keybridge/pkg/proxy/handlers"
	"keybridge-hq/keybridge/pkg/proxy/middleware"
	"keybridge-hq/keybridge/pkg/telemetry/metrics"
	"keybridge-hq/keybridge/pkg/telemetry/tracing"
	"keybridge-hq/keybridge/pkg/usage"
)

// Dependencies carries the components the server serves.
type Dependencies struct {
	// Store is the credential store.
	Store keystore.Store

	// Registry holds the provider adapters.
	Registry *providers.Registry

	// Metrics is the Prometheus collector; nil disables the endpoint.
	Metrics *metrics.Collector

	// Tracer is the tracing provider; nil disables spans.
	Tracer *tracing.Tracer

	// Usage is the usage recorder; nil disables usage logging.
	Usage *usage.Recorder
}

// Server is the HTTP server for the key proxy.
type Server struct {
	config       *config.Config
	deps         Dependencies
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server.
func New(cfg *config.Config, deps Dependencies) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
// or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting proxy server", "address", s.config.Server.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown",
			"timeout", s.config.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("proxy server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler with the full middleware
// chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/keys", handlers.NewKeysHandler(s.deps.Store, s.deps.Metrics))
	mux.Handle("/validate", handlers.NewValidateHandler(s.deps.Registry, s.deps.Metrics))
	mux.Handle("/chat", handlers.NewChatHandler(
		s.deps.Store, s.deps.Registry, s.deps.Metrics, s.deps.Tracer, s.deps.Usage))
	mux.Handle("/health", handlers.NewHealthHandler())

	if s.deps.Metrics != nil && s.config.Telemetry.Metrics.Enabled {
		mux.Handle(s.config.Telemetry.Metrics.Path, s.deps.Metrics.Handler())
	}

	if s.config.Server.StaticDir != "" {
		mux.Handle("/", handlers.NewStaticHandler(s.config.Server.StaticDir))
	}

	var handler http.Handler = mux

	corsConfig := &middleware.CORSConfig{
		Enabled:        s.config.Server.CORS.Enabled,
		AllowedOrigins: s.config.Server.CORS.AllowedOrigins,
		AllowedMethods: s.config.Server.CORS.AllowedMethods,
		AllowedHeaders: s.config.Server.CORS.AllowedHeaders,
		MaxAge:         s.config.Server.CORS.MaxAge,
	}
	handler = middleware.CORS(corsConfig)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(handler)
	handler = middleware.Recovery(handler)

	return handler
}
