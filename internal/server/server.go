// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "load config, start the server")
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Load() → Server.New() creates:
//	  sqlite.DB → SightingService ┬→ SightingHandler
//	  realtime.Hub ───────────────┘   (service broadcasts into the hub)
//	  storage.DiskStore → UploadHandler
//	  auth.* → AuthService → AuthHandler   (only when auth is configured)
//
// This is the "composition root" pattern — all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
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

	"github.com/sakif/ghost-atlas/internal/auth"
	"github.com/sakif/ghost-atlas/internal/config"
	"github.com/sakif/ghost-atlas/internal/handler"
	"github.com/sakif/ghost-atlas/internal/middleware"
	"github.com/sakif/ghost-atlas/internal/realtime"
	sqliteRepo "github.com/sakif/ghost-atlas/internal/repository/sqlite"
	"github.com/sakif/ghost-atlas/internal/service"
	"github.com/sakif/ghost-atlas/internal/storage"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and the realtime hub. Both
// are released during graceful shutdown in Start(): the DB close
// flushes the WAL and releases the file lock, the hub stop closes
// every open websocket.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	hub    *realtime.Hub
}

// New creates a new Server with the given config.
//
// Each layer only receives what it needs:
// - Service gets the repository interface (not the concrete sqlite.DB)
// - Handler gets the service (not the repository or DB)
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		hub:    realtime.NewHub(logger),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                      → Sighting map page (HTML)
// GET    /post                  → Report-a-sighting page (HTML)
// GET    /static/*              → Static files (CSS, JS)
// GET    /media/*               → Uploaded sighting images
// GET    /ws                    → Websocket (live sighting events)
// GET    /api/sightings         → List sightings (JSON)
// GET    /api/sightings/geojson → All sightings as GeoJSON
// GET    /api/stats             → Aggregate stats (JSON)
// POST   /api/sightings         → Submit a sighting (write-gated)
// POST   /api/images            → Upload an image (write-gated)
// GET    /auth/github/login     → GitHub sign-in   (when configured)
// GET    /auth/github/callback  → OAuth callback    (when configured)
// POST   /auth/logout           → Clear session     (when configured)
// GET    /api/me                → Current user      (when configured)
//
// WRITE GATING:
// In WRITE_MODE=public the write endpoints accept anonymous requests
// (OptionalAuth still attaches identity if a contributor is signed in,
// so their uploads land in their own namespace). In
// WRITE_MODE=authenticated the same endpoints sit behind RequireAuth.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Logger — logs each request with timing info
// 4. Recoverer — catches panics and returns 500 instead of crashing
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Static files and uploaded media ===
	staticServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", staticServer))

	store, err := storage.NewDiskStore(s.config.MediaDir, "/media")
	if err != nil {
		return fmt.Errorf("creating media store: %w", err)
	}
	mediaServer := http.FileServer(http.FS(store.FS()))
	s.router.Handle("/media/*", http.StripPrefix("/media/", mediaServer))

	// === Core services ===
	sightingService := service.NewSightingService(s.db, s.hub, s.logger)
	sightingHandler := handler.NewSightingHandler(sightingService, s.logger)
	uploadHandler := handler.NewUploadHandler(store, s.logger)

	// === Pages ===
	pageHandler, err := handler.NewPageHandler(
		s.config.TemplateDir,
		sightingService,
		handler.DefaultMapConfig(s.config.MapboxToken),
		s.logger,
	)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}
	s.router.Get("/", pageHandler.HandleHome)
	s.router.Get("/post", pageHandler.HandlePostPage)

	// === Realtime ===
	wsHandler := handler.NewWSHandler(s.hub, s.logger)
	s.router.Get("/ws", wsHandler.HandleWS)

	// === Auth (optional) ===
	// writeGate wraps the write endpoints. It is the identity
	// middleware chosen by WRITE_MODE; reads are never gated.
	var writeGate func(http.Handler) http.Handler

	if s.config.AuthConfigured() {
		tokens, err := auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		github := auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
		authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
		authHandler := handler.NewAuthHandler(github, authService, s.logger)

		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		s.router.Post("/auth/logout", authHandler.HandleLogout)
		s.router.With(auth.RequireAuth(tokens)).Get("/api/me", authHandler.HandleMe)

		if s.config.WriteMode == config.WriteModeAuthenticated {
			writeGate = auth.RequireAuth(tokens)
		} else {
			writeGate = auth.OptionalAuth(tokens)
		}
	} else {
		if s.config.WriteMode == config.WriteModeAuthenticated {
			return fmt.Errorf("WRITE_MODE=authenticated requires auth configuration")
		}
		// Public mode, no auth configured: writes are anonymous.
		writeGate = func(next http.Handler) http.Handler { return next }
	}

	// === API ===
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/sightings", sightingHandler.HandleList)
		r.Get("/sightings/geojson", sightingHandler.HandleGeoJSON)
		r.Get("/stats", sightingHandler.HandleStats)

		r.Group(func(r chi.Router) {
			r.Use(writeGate)
			r.Post("/sightings", sightingHandler.HandleCreate)
			r.Post("/images", uploadHandler.HandleUpload)
		})
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Stop the hub (closes every open websocket)
// 4. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.hub.Stop()

	// The hub's event loop runs for the lifetime of the server.
	go s.hub.Run()

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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("writeMode", string(s.config.WriteMode)),
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

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
