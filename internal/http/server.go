// Package http exposes the closing engine as a JSON API for the back-office
// frontend.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"closeout/internal/config"
	applog "closeout/internal/log"
	"closeout/internal/reports"
	"closeout/internal/services"
)

// Server wires the closing and report services behind a chi router.
type Server struct {
	router   *chi.Mux
	srv      *http.Server
	closings *services.ClosingService
	reports  *reports.Service
	logger   *applog.Logger
}

func NewServer(cfg *config.Config, closings *services.ClosingService, reportSvc *reports.Service, logger *applog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		closings: closings,
		reports:  reportSvc,
		logger:   logger.WithComponent(applog.ComponentHTTP),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", headerEditSecret},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(securityHeaders)
	s.router.Use(newRateLimiter(cfg.RequestsPerMinute, s.logger).middleware)

	s.routes()

	s.srv = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/closings", func(r chi.Router) {
			r.Post("/", s.handleCreateClosing)
			r.Post("/preview", s.handlePreviewClosing)
			r.Get("/", s.handleListClosings)
			r.Get("/by-date/{date}", s.handleGetClosingByDate)
			r.Get("/{id}", s.handleGetClosing)
			r.Put("/{id}", s.handleUpdateClosing)
			r.Delete("/{id}", s.handleDeleteClosing)
		})

		r.Get("/reports/range", s.handleRangeReport)
		r.Get("/config/terminals", s.handleTerminalConfig)
	})
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
