// Package server provides the HTTP upload and download API for mediatext.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/mediatext/internal/config"
	"github.com/hyperjump/mediatext/internal/extract"
	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
)

// Extractor runs the extraction pipeline for an uploaded file.
type Extractor interface {
	ExtractTo(ctx context.Context, path, ext, artifact string) (*extract.Extraction, error)
}

// Server is the HTTP server for the mediatext API.
type Server struct {
	extractor Extractor
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
	now       func() time.Time
}

// NewServer creates a server with the given dependencies.
func NewServer(ex Extractor, cfg *config.Config, logger *zap.Logger) *Server {
	logger = utils.OrNop(logger)
	return &Server{
		extractor: ex,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5, "application/json", "text/plain"))

	r.Post("/upload", s.handleUpload)
	r.Get("/download/original/{filename}", s.handleDownloadOriginal)
	r.Get("/download/text/{filename}", s.handleDownloadText)
	r.Post("/cleanup", s.handleCleanup)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
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
