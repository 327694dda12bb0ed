// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer. It decides:
// - which store backs the repositories (SQLite or Postgres, from config)
// - which URL patterns map to which handler functions
// - what middleware runs on which routes
// - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → store (sqlite.DB | postgres.DB)
//	store.Users()    → CredentialService → AuthHandler, RequireAccessToken
//	store.Messages() → FeedService       → MessageHandler
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes) rather than scattered across the codebase.
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

	"github.com/sakif/guestbook/internal/auth"
	"github.com/sakif/guestbook/internal/config"
	"github.com/sakif/guestbook/internal/handler"
	"github.com/sakif/guestbook/internal/middleware"
	"github.com/sakif/guestbook/internal/repository"
	"github.com/sakif/guestbook/internal/repository/postgres"
	sqliteRepo "github.com/sakif/guestbook/internal/repository/sqlite"
	"github.com/sakif/guestbook/internal/service"
)

// connectTimeout bounds opening the store and running its migrations.
const connectTimeout = 15 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. Start closes it on the way out so SQLite can
// flush its WAL and Postgres connections are returned cleanly.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New opens the configured store and wires every route on top of it.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	store, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := NewWithStore(cfg, store, logger)
	if err := s.Ready(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore wires routes on top of an already-open store.
// The Server takes ownership of store and closes it when Start returns.
func NewWithStore(cfg *config.Config, store repository.Store, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes()
	return s
}

// OpenStore connects to the store selected by cfg.Driver.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo so it can't be confused with
// the modernc.org/sqlite driver package.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqliteRepo.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Ready reports whether the store answers. New refuses to hand back a
// Server whose store is already unreachable.
func (s *Server) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("checking store: %w", err)
	}
	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET  /          → "Hello world"
// POST /          → register, returns {id, accessToken}
// POST /signIn    → sign in, returns {userId, accessToken}
// GET  /messages  → latest messages (access token required)
// POST /messages  → post a message
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (read back by Logger)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)
	credentials := service.NewCredentialService(s.store.Users(), passwords, auth.NewTokenGenerator(), s.logger)
	feed := service.NewFeedService(s.store.Messages(), s.logger)

	authHandler := handler.NewAuthHandler(credentials, s.logger)
	messageHandler := handler.NewMessageHandler(feed, s.logger)

	s.router.Get("/", handler.HandleIndex)
	s.router.Post("/", authHandler.HandleRegister)
	s.router.Post("/signIn", authHandler.HandleSignIn)

	// Only reading the feed is gated. The gate's 401/403 responses mean
	// HandleList never runs for an unknown token or a failed lookup.
	s.router.With(auth.RequireAccessToken(credentials, s.logger)).Get("/messages", messageHandler.HandleList)
	s.router.Post("/messages", messageHandler.HandlePost)
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (server.shutdown_timeout)
// 3. Close the store
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("driver", s.config.Database.Driver),
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

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
