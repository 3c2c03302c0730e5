// Package web provides the HTTP server and handlers for the translation import UI.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/localesync/internal/config"
	"github.com/JonMunkholm/localesync/internal/core"
	weblog "github.com/JonMunkholm/localesync/internal/web/middleware"
)

// staticFiles holds the dashboard's stylesheet and script.
//
//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the translation import application.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(weblog.TrustedRealIP(s.cfg.Server.TrustedProxies))
	s.router.Use(weblog.Logger)
	s.router.Use(middleware.Recoverer)

	// Security hardening
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Pages
	s.router.Handle("/static/*", http.FileServerFS(staticFiles))
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/healthz", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Current state on disk
		r.Get("/locales", s.handleListLocales)
		r.Get("/locales/{locale}", s.handleGetLocale)

		// Import operations
		r.Group(func(r chi.Router) {
			r.Use(weblog.APIKeyAuth(s.cfg.Server.RequireAPIKey, s.cfg.Server.APIKeys))
			r.Post("/import", s.handleImport)
			r.Post("/preview", s.handlePreview)
		})

		// Run history
		r.Get("/history", s.handleHistory)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the router to httptest.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders sets the response headers shared by the API and the
// dashboard.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		// The dashboard loads its stylesheet and script from /static only.
		w.Header().Set("Content-Security-Policy", "default-src 'self'")

		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes v as a JSON body. An encode failure can only be logged;
// the status line is already out.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
