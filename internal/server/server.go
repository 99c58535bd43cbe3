// Package server provides the HTTP API for cleaning text and inspecting runs.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/hansardclean/internal/config"
	"github.com/hyperjump/hansardclean/internal/processor"
	"github.com/hyperjump/hansardclean/internal/storage"
)

// Server is the HTTP server for the hansardclean API.
type Server struct {
	proc   *processor.Processor
	ledger storage.Ledger // nil when the ledger is disabled
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies. ledger may be nil.
func NewServer(
	proc *processor.Processor,
	ledger storage.Ledger,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		proc:   proc,
		ledger: ledger,
		config: cfg,
		logger: logger,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes returns the API handler with middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/clean", s.handleClean)
	r.Post("/api/v1/runs", s.handleRun)
	r.Get("/api/v1/files", s.handleListFiles)
	r.Get("/api/v1/files/{name}", s.handleGetFile)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops. After Stop it
// returns http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server. It is safe to call before Start.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
