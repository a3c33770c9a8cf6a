// Package server provides the HTTP API for RecallGuard.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/safebuy/recallguard/internal/config"
	"github.com/safebuy/recallguard/internal/dictionary"
	"github.com/safebuy/recallguard/internal/ingest"
	"github.com/safebuy/recallguard/internal/search"
	"github.com/safebuy/recallguard/internal/storage"
)

// Ingester triggers a full feed refresh. Nil when no feed is configured.
type Ingester interface {
	Run(ctx context.Context) (*ingest.Result, error)
}

// Server is the HTTP server for the RecallGuard API.
type Server struct {
	engine   *search.Engine
	ingester Ingester
	store    storage.Store
	dict     *dictionary.Cache
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. ingester may be nil.
func NewServer(
	engine *search.Engine,
	ingester Ingester,
	store storage.Store,
	dict *dictionary.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:   engine,
		ingester: ingester,
		store:    store,
		dict:     dict,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(s.config.Search.RequestTimeoutSeconds) * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
