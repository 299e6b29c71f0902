// Package server exposes document ingestion, key extraction, Q&A and
// comparison over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/tracedoc/tracedoc/internal/config"
	"github.com/tracedoc/tracedoc/internal/extract"
	"github.com/tracedoc/tracedoc/internal/store"
	"github.com/tracedoc/tracedoc/internal/workers"
)

// Server is the main tracedoc HTTP server. It owns the document store and
// the CPU parse pool; both are started on Start and torn down on shutdown.
type Server struct {
	httpServer *http.Server
	store      *store.Store
	extractor  *extract.Extractor
	pool       *workers.Pool
	configMgr  *config.Manager
	logger     *slog.Logger

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port int
	// Store is the opened document store.
	Store *store.Store
	// Extractor runs the model-backed operations.
	Extractor *extract.Extractor
	// Pool runs CPU-bound PDF parsing.
	Pool *workers.Pool
	// ConfigManager provides configuration with hot-reload support.
	ConfigManager *config.Manager
	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if cfg.Pool == nil {
		cfg.Pool = workers.NewPool(workers.Config{Logger: cfg.Logger})
	}

	s := &Server{
		store:     cfg.Store,
		extractor: cfg.Extractor,
		pool:      cfg.Pool,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:     mux,
		ReadTimeout: 60 * time.Second,
		// Streaming answers and large uploads need a long write window.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the parse pool and HTTP server. It blocks until the context
// is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	poolCtx, cancelPool := context.WithCancel(context.Background())
	defer cancelPool()
	s.pool.Start(poolCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and the store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("store close error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
