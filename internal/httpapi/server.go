// Package httpapi serves the JSON API behind the marketing site: the chat
// widget, the contact form and inquiry status lookups.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/protech/repairbot/internal/assistant"
	"github.com/protech/repairbot/internal/config"
	"github.com/protech/repairbot/internal/contact"
	"github.com/protech/repairbot/internal/database"
	"github.com/protech/repairbot/internal/logger"
)

// Server is the HTTP front-end.
type Server struct {
	cfg        config.HTTPConfig
	store      database.Store
	responder  *assistant.Responder
	contact    *contact.Service
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with its routes mounted.
func New(cfg config.HTTPConfig, store database.Store, responder *assistant.Responder, contactSvc *contact.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		store:     store,
		responder: responder,
		contact:   contactSvc,
		logger:    log.With("component", "http_api"),
	}

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	timeout := s.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPRequestTimeout
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/assistant", s.handleAssistant)
		r.Post("/contact", s.handleContact)
		r.Get("/inquiries/{reference}", s.handleInquiryStatus)
	})

	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address and blocks until Shutdown.
// It returns nil right away if Shutdown already ran.
func (s *Server) Start() error {
	s.logger.Info("HTTP API listening", "addr", s.cfg.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server. It is safe to call before
// or concurrently with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
