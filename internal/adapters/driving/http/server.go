package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	retrieval driving.RetrievalService
	indexer   driving.IndexService
	guides    driving.GuideService

	// Infrastructure health checks, keyed by component name (optional)
	dependencies map[string]Pinger
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// Services groups the driving ports the API exposes
type Services struct {
	Retrieval driving.RetrievalService
	Indexer   driving.IndexService
	Guides    driving.GuideService
}

// NewServer creates a new HTTP server. dependencies may be nil.
func NewServer(cfg Config, svc Services, dependencies map[string]Pinger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:       http.NewServeMux(),
		version:      cfg.Version,
		logger:       logger,
		retrieval:    svc.Retrieval,
		indexer:      svc.Indexer,
		guides:       svc.Guides,
		dependencies: dependencies,
	}
	s.setupRoutes()

	var handler http.Handler = s.router
	if len(cfg.AllowedOrigins) > 0 {
		handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(handler)
	}
	handler = NewRecoveryMiddleware(logger).Handler(handler)
	handler = NewLoggingMiddleware(logger).Handler(handler)
	handler = RequestID(handler)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: handler,
		// Downloads fetch several throttled pages and then re-embed the game.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	s.router.HandleFunc("GET /api/v1/games", s.handleListGames)
	s.router.HandleFunc("POST /api/v1/games/{game}/search", s.handleSearch)
	s.router.HandleFunc("POST /api/v1/games/{game}/context", s.handleContext)
	s.router.HandleFunc("POST /api/v1/games/{game}/embeddings", s.handleGenerate)
	s.router.HandleFunc("POST /api/v1/embeddings", s.handleGenerateAll)
	s.router.HandleFunc("DELETE /api/v1/games/{game}/embeddings", s.handleDeleteEmbeddings)
	s.router.HandleFunc("DELETE /api/v1/games/{game}/cache", s.handleInvalidate)

	s.router.HandleFunc("POST /api/v1/guides", s.handleDownload)
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr, "version", s.version)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
