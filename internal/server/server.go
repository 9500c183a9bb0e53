// Package server is the wiring layer: it assembles the dependency graph
// (database → services → handlers), defines the routes, and owns startup
// and graceful shutdown. main.go stays minimal; everything composable
// lives here so tests can build a server without running a process.
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

	"github.com/tressa/tressa/internal/auth"
	"github.com/tressa/tressa/internal/guard"
	"github.com/tressa/tressa/internal/handler"
	"github.com/tressa/tressa/internal/middleware"
	"github.com/tressa/tressa/internal/reaper"
	sqliteRepo "github.com/tressa/tressa/internal/repository/sqlite"
	"github.com/tressa/tressa/internal/service"
)

// Config holds server configuration, loaded from the environment in
// cmd/server.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// GitHub OAuth is optional: the routes are registered only when both
	// client credentials are present.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router, the database connection, and the reaper. The
// database and reaper lifecycles are bound to Start: shutdown stops HTTP,
// then the reaper, then closes the DB.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	reaper *reaper.Reaper
}

// New assembles the full dependency graph.
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
		reaper: reaper.New(db, logger),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires middleware, handlers, and the route tree.
//
// Endpoint auth semantics:
//
//	POST   /api/tress/             optional
//	PUT    /api/tress/{id}         required
//	GET    /api/tress/             optional
//	GET    /api/tress/my           required
//	GET    /api/tress/public/pages optional
//	GET    /api/tress/my/pages     required
//	GET    /api/tress/{id}         optional
//	GET    /api/tress/{id}/raw     optional
//	DELETE /api/tress/{id}         required
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	tressService := service.NewTressService(s.db, s.logger)
	limiter := guard.NewRateLimiter()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	tressHandler := handler.NewTressHandler(tressService, authService, limiter, s.logger)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Welcome to Tressa API"}`))
	})

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	s.router.Route("/api/tress", func(r chi.Router) {
		// Optionally-authenticated routes: the middleware resolves the
		// user when a valid token is present but never rejects.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Post("/", tressHandler.HandleCreate)
			r.Get("/", tressHandler.HandleList)
			r.Get("/public/pages", tressHandler.HandlePagePublic)
			r.Get("/{id}", tressHandler.HandleGetByID)
			r.Get("/{id}/raw", tressHandler.HandleGetRaw)
		})

		// Owner-gated routes.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/my", tressHandler.HandleListMine)
			r.Get("/my/pages", tressHandler.HandlePageMine)
			r.Put("/{id}", tressHandler.HandleUpdate)
			r.Delete("/{id}", tressHandler.HandleDelete)
		})
	})

	return nil
}

// Start runs the HTTP server and the expiry reaper until a shutdown
// signal arrives, then stops them in order: HTTP (30s drain), reaper
// (waits for an in-flight sweep), database.
func (s *Server) Start() error {
	defer s.db.Close()

	s.reaper.Start(context.Background())
	defer s.reaper.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
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
