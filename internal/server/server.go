// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It connects handlers, middleware, and routes,
// and decides:
// - Which URL patterns map to which handler functions
// - Which routes sit behind the auth gate or a rate limit
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go creates:
//
//	Config, logger, repository.Store, asset.Uploader → server.New
//
// server.New creates:
//
//	TokenService, PasswordService, Validator → services → handlers → routes
//
// The store is owned by the Server from then on and closed on shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/triforge/triforge-api/internal/asset"
	"github.com/triforge/triforge-api/internal/auth"
	"github.com/triforge/triforge-api/internal/handler"
	"github.com/triforge/triforge-api/internal/middleware"
	"github.com/triforge/triforge-api/internal/repository"
	"github.com/triforge/triforge-api/internal/service"
	"github.com/triforge/triforge-api/internal/validate"
)

// Config holds server configuration.
type Config struct {
	Port             int
	Production       bool
	JWTSecret        string
	TokenTTL         time.Duration
	MaxUploadBytes   int64
	CORSOrigins      []string
	ContactRateLimit int // requests per minute per client IP; 0 disables
	LoginRateLimit   int // requests per minute per client IP; 0 disables

	SeedSegments  string
	AdminEmail    string
	AdminPassword string
	AdminName     *string
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  repository.Store

	segments *service.SegmentService
	auth     *service.AuthService
}

// New wires services and handlers on top of store. uploader may be nil, in
// which case file uploads fail with an upstream error and URL images still work.
func New(cfg Config, store repository.Store, uploader asset.Uploader, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	validator := validate.New()

	users := service.NewUserService(store, passwords, validator, logger)
	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		store:    store,
		segments: service.NewSegmentService(store, logger),
		auth:     service.NewAuthService(store, users, tokens, passwords, validator, logger),
	}

	h := handlers{
		health:    handler.NewHealthHandler(store, logger),
		auth:      handler.NewAuthHandler(s.auth, tokens.TTL(), cfg.Production, logger),
		users:     handler.NewUserHandler(users, logger),
		segments:  handler.NewSegmentHandler(s.segments, logger),
		projects:  handler.NewProjectHandler(service.NewProjectService(store, store, uploader, validator, logger), cfg.MaxUploadBytes, logger),
		contacts:  handler.NewContactHandler(service.NewContactService(store, validator, logger), logger),
		dashboard: handler.NewDashboardHandler(service.NewDashboardService(store, store, store, logger), logger),
	}
	s.setupRoutes(h)

	return s, nil
}

type handlers struct {
	health    *handler.HealthHandler
	auth      *handler.AuthHandler
	users     *handler.UserHandler
	segments  *handler.SegmentHandler
	projects  *handler.ProjectHandler
	contacts  *handler.ContactHandler
	dashboard *handler.DashboardHandler
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Bootstrap seeds segments and creates the first admin account when the
// store has none. Both steps are idempotent.
func (s *Server) Bootstrap(ctx context.Context) error {
	if s.config.SeedSegments != "" {
		n, err := s.segments.Seed(ctx, s.config.SeedSegments)
		if err != nil {
			return fmt.Errorf("seeding segments: %w", err)
		}
		s.logger.Info("segments seeded", slog.Int("count", n))
	}

	if s.config.AdminEmail != "" {
		if _, err := s.auth.EnsureAdmin(ctx, s.config.AdminEmail, s.config.AdminPassword, s.config.AdminName); err != nil {
			return fmt.Errorf("creating admin account: %w", err)
		}
	}
	return nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                         → liveness
// GET    /healthz                  → store ping
// POST   /api/auth/login           → JWT (rate limited)
// POST   /api/auth/logout          → clear cookie
// GET    /api/auth/me              → current user            [gated]
// POST   /api/auth/register        → create admin            [gated]
// GET    /api/segments[/{slug}]    → segments
// GET    /api/projects[/{id}]      → projects
// POST   /api/projects             → create                  [gated]
// PUT    /api/projects/{id}        → update                  [gated]
// DELETE /api/projects/{id}        → delete                  [gated]
// POST   /api/contact              → submit message (rate limited)
// *      /api/contact[/{id}]       → inbox                   [gated]
// *      /api/users[/{id}]         → accounts                [gated]
// GET    /api/admin/dashboard      → dashboard               [gated]
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request
// 2. RealIP: extracts the client IP from proxy headers (rate limits key on it)
// 3. Logger: logs each request with timing info
// 4. Recoverer: turns panics into 500 instead of crashing
// 5. SecureHeaders, CORS
func (s *Server) setupRoutes(h handlers) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecureHeaders(s.config.Production))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Get("/", h.health.HandleRoot)
	s.router.Get("/healthz", h.health.HandleReady)

	gate := auth.RequireAuth(s.auth)
	loginLimit := rateLimit(s.config.LoginRateLimit)
	contactLimit := rateLimit(s.config.ContactRateLimit)

	s.router.Route("/api", func(r chi.Router) {
		// === Public ===
		r.With(loginLimit).Post("/auth/login", h.auth.HandleLogin)
		r.Post("/auth/logout", h.auth.HandleLogout)

		r.Get("/segments", h.segments.HandleList)
		r.Get("/segments/{slug}", h.segments.HandleGet)

		r.Get("/projects", h.projects.HandleList)
		r.Get("/projects/{id}", h.projects.HandleGet)

		r.With(contactLimit).Post("/contact", h.contacts.HandleCreate)

		// === Gated ===
		r.Group(func(r chi.Router) {
			r.Use(gate)

			r.Get("/auth/me", h.auth.HandleMe)
			r.Post("/auth/register", h.auth.HandleRegister)

			r.Post("/projects", h.projects.HandleCreate)
			r.Put("/projects/{id}", h.projects.HandleUpdate)
			r.Delete("/projects/{id}", h.projects.HandleDelete)

			r.Get("/contact", h.contacts.HandleList)
			r.Get("/contact/{id}", h.contacts.HandleGet)
			r.Put("/contact/{id}", h.contacts.HandleUpdate)
			r.Delete("/contact/{id}", h.contacts.HandleDelete)

			r.Get("/users", h.users.HandleList)
			r.Post("/users", h.users.HandleCreate)
			r.Get("/users/{id}", h.users.HandleGet)
			r.Put("/users/{id}", h.users.HandleUpdate)
			r.Delete("/users/{id}", h.users.HandleDelete)

			r.Get("/admin/dashboard", h.dashboard.HandleGet)
		})
	})
}

// rateLimit limits requests per client IP per minute. perMinute <= 0 disables it.
func rateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(middleware.RateLimited),
	)
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store
//
// A failure to close the store is logged, not returned.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
			return
		}
		s.logger.Info("store closed")
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second, // multipart uploads
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
