// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the dependency chain
//
//	sqlite.DB → services → handlers → routes
//
// is wired in one place rather than scattered across the codebase. main.go
// stays minimal — read config, build a Server, Start it.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/gigflow/internal/auth"
	"github.com/sakif/gigflow/internal/handler"
	"github.com/sakif/gigflow/internal/middleware"
	"github.com/sakif/gigflow/internal/notify"
	sqliteRepo "github.com/sakif/gigflow/internal/repository/sqlite"
	"github.com/sakif/gigflow/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port      int
	DBPath    string // path to the SQLite database file
	JWTSecret string
}

// Server owns the router, the database connection, and the notification
// hub. The database is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	hub    *notify.Hub
}

// New creates a Server with all dependencies wired. Each layer receives
// only what it needs: services get repository interfaces, handlers get
// services, and nothing below the handlers knows HTTP exists.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		hub:    notify.NewHub(logger),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and routes.
//
// ROUTE MAP:
//
//	GET    /api/health              → liveness probe
//	POST   /api/auth/register       → create account + session
//	POST   /api/auth/login          → session
//	POST   /api/auth/logout         → clear session         [auth]
//	GET    /api/auth/me             → current user          [auth]
//	GET    /api/gigs                → browse open gigs (search + pagination)
//	GET    /api/gigs/{id}           → single gig
//	POST   /api/gigs                → post a gig            [auth]
//	GET    /api/gigs/my-gigs        → own gigs              [auth]
//	POST   /api/bids                → place a bid           [auth]
//	GET    /api/bids/my-bids        → own bids              [auth]
//	GET    /api/bids/{gigId}        → a gig's bids (owner)  [auth]
//	PATCH  /api/bids/{bidId}/hire   → hire a freelancer     [auth]
//	GET    /api/events              → SSE notification stream [auth]
func (s *Server) setupRoutes() error {
	// Global middleware, in order: request IDs for tracing, real client
	// IPs behind proxies, panic recovery, then our request logger.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	userService := service.NewUserService(s.db, passwords, s.logger)
	gigService := service.NewGigService(s.db, s.logger)
	bidService := service.NewBidService(s.db, s.db, s.hub, s.logger)

	authHandler := handler.NewAuthHandler(userService, tokens, s.logger)
	gigHandler := handler.NewGigHandler(gigService, s.logger)
	bidHandler := handler.NewBidHandler(bidService, s.logger)
	eventsHandler := handler.NewEventsHandler(s.hub, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"OK","message":"GigFlow API is running"}`))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.With(requireAuth).Post("/logout", authHandler.HandleLogout)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.Route("/gigs", func(r chi.Router) {
			r.Get("/", gigHandler.HandleList)
			r.With(requireAuth).Post("/", gigHandler.HandleCreate)
			// my-gigs must be registered before {id} so it isn't captured
			// as a gig ID.
			r.With(requireAuth).Get("/my-gigs", gigHandler.HandleListMine)
			r.Get("/{id}", gigHandler.HandleGetByID)
		})

		r.Route("/bids", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", bidHandler.HandleCreate)
			r.Get("/my-bids", bidHandler.HandleListMine)
			r.Get("/{gigId}", bidHandler.HandleListByGig)
			r.Patch("/{bidId}/hire", bidHandler.HandleHire)
		})

		r.With(requireAuth).Get("/events", eventsHandler.HandleStream)
	})

	return nil
}

// Router exposes the configured handler, mainly for tests that want to
// drive the full stack through httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s,
// close the database (flushes the WAL, releases the file lock).
//
// WriteTimeout is deliberately absent: the SSE event stream is a
// long-lived response, and a write timeout would sever every connected
// client on a fixed clock. Read and idle timeouts still bound slow or
// stalled clients.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
