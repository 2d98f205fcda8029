// Package api provides the HTTP API server and handlers for the Libris catalog.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/librisapp/libris-server/internal/http/response"
	"github.com/librisapp/libris-server/internal/ratelimit"
	"github.com/librisapp/libris-server/internal/service"
	"github.com/librisapp/libris-server/internal/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authService    *service.AuthService
	catalogService *service.CatalogService
	sseHandler     *sse.Handler
	loginLimiter   *ratelimit.KeyedRateLimiter
	router         *chi.Mux
	logger         *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(authService *service.AuthService, catalogService *service.CatalogService, sseHandler *sse.Handler, loginLimiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		authService:    authService,
		catalogService: catalogService,
		sseHandler:     sseHandler,
		loginLimiter:   loginLimiter,
		router:         chi.NewRouter(),
		logger:         logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
//
// Reads are public. Write endpoints are also registered without a gate: the
// identity requirement lives in the service layer, which rejects writes from
// anonymous callers. The middleware here only resolves tokens when present.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.resolveIdentity)

		// Auth endpoints (public).
		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimitByIP(s.loginLimiter, s.logger)).Post("/login", s.handleLogin)
		})

		// Users.
		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.handleCreateUser)
			r.Get("/me", s.handleGetCurrentUser)
		})

		// Books.
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Post("/", s.handleAddBook)
			r.Get("/count", s.handleBookCount)
			r.Get("/search", s.handleSearchBooks)
		})

		// Authors.
		r.Route("/authors", func(r chi.Router) {
			r.Get("/", s.handleListAuthors)
			r.Get("/count", s.handleAuthorCount)
			r.Patch("/", s.handleEditAuthor)
		})

		// Live catalog events.
		r.Get("/events", s.sseHandler.ServeHTTP)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
