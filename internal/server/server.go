// Package server wires storage, services, handlers and middleware into one
// HTTP server and owns its lifecycle.
//
// DEPENDENCY CHAIN:
//
//	Config → store (sqlite | postgres) → SessionService → handlers → chi router
//
// Everything is assembled in New; nothing else in the tree constructs a
// store or a service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/mpg-calculator/internal/auth"
	"github.com/sakif/mpg-calculator/internal/handler"
	"github.com/sakif/mpg-calculator/internal/middleware"
	"github.com/sakif/mpg-calculator/internal/repository"
	pgRepo "github.com/sakif/mpg-calculator/internal/repository/postgres"
	sqliteRepo "github.com/sakif/mpg-calculator/internal/repository/sqlite"
	"github.com/sakif/mpg-calculator/internal/service"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds server configuration.
type Config struct {
	Listen        string
	Store         string // StoreSQLite or StorePostgres
	DBPath        string
	PostgresURL   string
	SecretKeyBase string
	// Production marks cookies Secure and refuses to start without a secret.
	Production  bool
	CORSOrigins []string
	// CleanupInterval is how often expired sessions are swept. 0 disables the sweep.
	CleanupInterval time.Duration
}

// store is a repository the server can close on shutdown.
type store interface {
	repository.SessionRepository
	Close() error
}

// Server is the HTTP server and everything it owns.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	store    store
	sessions *service.SessionService
}

// New opens the configured store and builds the router.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	secret, err := resolveSecret(cfg, logger)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		store:    st,
		sessions: service.NewSessionService(st, logger),
	}
	s.setupRoutes(tokens)

	return s, nil
}

// resolveSecret returns the configured secret key base. Outside production a
// missing secret is replaced by a random one, which invalidates every cookie
// on restart.
func resolveSecret(cfg Config, logger *slog.Logger) (string, error) {
	if cfg.SecretKeyBase != "" {
		return cfg.SecretKeyBase, nil
	}
	if cfg.Production {
		return "", errors.New("a secret key base is required in production")
	}

	logger.Warn("no secret key base configured, using a random one; sessions will not survive a restart")
	return auth.RandomSecret()
}

func openStore(ctx context.Context, cfg Config, logger *slog.Logger) (store, error) {
	switch cfg.Store {
	case "", StoreSQLite:
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	case StorePostgres:
		db, err := pgRepo.New(ctx, &pgRepo.PoolConfig{ConnString: cfg.PostgresURL}, logger)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", cfg.Store, StoreSQLite, StorePostgres)
	}
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET   /healthz          → store ping
//	GET   /sessions         → id of the caller's session (sets the cookie)
//	GET   /pages/{name}     → pre-population data for a page (sets the cookie)
//	GET   /sessions/{id}    → full session document
//	PATCH /sessions/{id}    → replace the session's meta
//
// Only the first two session routes go through the cookie middleware; the
// id-addressed routes work without a cookie.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	if len(s.config.CORSOrigins) > 0 {
		// Credentials are allowed so the browser sends the session cookie cross-origin.
		s.router.Use(cors.New(cors.Options{
			AllowedOrigins:   s.config.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}).Handler)
	}

	sessionHandler := handler.NewSessionHandler(s.sessions, s.logger)
	pageHandler := handler.NewPageHandler(s.logger)
	healthHandler := handler.NewHealthHandler(s.sessions, s.logger)

	cookie := auth.SessionCookie(tokens, s.sessions, auth.CookieConfig{
		Name:   auth.DefaultCookieName,
		Secure: s.config.Production,
		MaxAge: auth.SessionTokenTTL,
	}, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(cookie)
		r.Get("/sessions", sessionHandler.HandleCurrent)
		r.Get("/pages/{name}", pageHandler.HandleShow)
	})

	s.router.Get("/sessions/{id}", sessionHandler.HandleShow)
	s.router.Patch("/sessions/{id}", sessionHandler.HandleUpdate)
}

// Handler returns the root HTTP handler. Tests serve it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Cleanup runs one sweep of expired anonymous sessions.
func (s *Server) Cleanup(ctx context.Context) (int64, error) {
	return s.sessions.Cleanup(ctx)
}

// Close releases the store. Start calls it on the way out.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests, stops the cleanup loop and closes the store.
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	if s.config.CleanupInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.cleanupLoop(ctx)
		}()
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("listen", s.config.Listen),
			slog.String("store", s.storeName()),
			slog.Bool("production", s.config.Production),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else {
			err = fmt.Errorf("server error: %w", err)
		}
		stop()

	case <-ctx.Done():
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			err = fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
		} else {
			s.logger.Info("server stopped gracefully")
		}
	}

	wg.Wait()
	return err
}

// cleanupLoop sweeps expired sessions every CleanupInterval until ctx ends.
// A failed sweep is logged and retried on the next tick.
func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.sessions.Cleanup(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("session cleanup failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (s *Server) storeName() string {
	if s.config.Store == "" {
		return StoreSQLite
	}
	return s.config.Store
}
