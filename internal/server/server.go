// Package server wires the stores, services, and handlers into a chi router
// and runs it with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wtjandra96/modern-webapp-sub000/internal/auth"
	"github.com/wtjandra96/modern-webapp-sub000/internal/handler"
	"github.com/wtjandra96/modern-webapp-sub000/internal/middleware"
	"github.com/wtjandra96/modern-webapp-sub000/internal/repository"
	localRepo "github.com/wtjandra96/modern-webapp-sub000/internal/repository/local"
	sqliteRepo "github.com/wtjandra96/modern-webapp-sub000/internal/repository/sqlite"
	"github.com/wtjandra96/modern-webapp-sub000/internal/service"
	"github.com/wtjandra96/modern-webapp-sub000/internal/validate"
)

// guestOwnerID is the fixed identity every guest-mode request runs as.
const guestOwnerID = "guest"

type Config struct {
	Port       int
	DBPath     string // sqlite file, normal mode
	JWTSecret  string // required unless GuestMode
	CORSOrigin string // allowed browser origin for the SPA

	GuestMode    bool   // run against the local store, no auth
	GuestDataDir string // badger dir; empty means in-memory
}

type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  io.Closer // owned by the server, closed when Start returns
}

// New builds a fully wired server. In normal mode it opens the sqlite store
// and registers token-protected routes; in guest mode it opens the badger
// store and registers the same category/post routes behind a static
// identity, with no auth endpoints at all.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(logger))

	if cfg.CORSOrigin != "" {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.CORSOrigin},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	if cfg.GuestMode {
		if err := s.setupGuestRoutes(); err != nil {
			return nil, err
		}
	} else {
		if err := s.setupRoutes(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	db, err := sqliteRepo.New(s.config.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	s.store = db

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		db.Close()
		return fmt.Errorf("configuring token service: %w", err)
	}

	validator := validate.New()
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(db, tokens, passwords, s.logger)
	authHandler := handler.NewAuthHandler(authService, validator, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/auth/me", authHandler.HandleMe)
			r.Put("/auth/password", authHandler.HandleChangePassword)

			mountContentRoutes(r, db, db, validator, s.logger)
		})
	})

	return nil
}

func (s *Server) setupGuestRoutes() error {
	store, err := localRepo.Open(s.config.GuestDataDir, s.logger)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	s.store = store

	validator := validate.New()

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.StaticIdentity(guestOwnerID))
			mountContentRoutes(r, store, store, validator, s.logger)
		})
	})

	return nil
}

// mountContentRoutes registers the category, label, and post routes. Both
// modes share this table; only the middleware in front of it differs.
func mountContentRoutes(
	r chi.Router,
	categories repository.CategoryRepository,
	posts repository.PostRepository,
	validator *validate.Validator,
	logger *slog.Logger,
) {
	categoryService := service.NewCategoryService(categories, logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, validator, logger)

	postService := service.NewPostService(posts, categories, logger)
	postHandler := handler.NewPostHandler(postService, validator, logger)

	r.Get("/categories", categoryHandler.HandleList)
	r.Post("/categories", categoryHandler.HandleCreate)
	r.Put("/categories/{id}", categoryHandler.HandleEdit)
	r.Delete("/categories/{id}", categoryHandler.HandleDelete)
	r.Get("/categories/{id}/labels", categoryHandler.HandleGetLabels)
	r.Post("/categories/{id}/labels", categoryHandler.HandleAddLabel)
	r.Put("/labels/{id}", categoryHandler.HandleEditLabel)
	r.Delete("/labels/{id}", categoryHandler.HandleDeleteLabel)

	r.Post("/posts", postHandler.HandleCreate)
	r.Get("/posts", postHandler.HandleList)
	r.Get("/posts/bookmarked", postHandler.HandleListBookmarked)
	r.Put("/posts/{id}", postHandler.HandleEdit)
	r.Patch("/posts/{id}/bookmark", postHandler.HandleBookmark)
	r.Delete("/posts/{id}", postHandler.HandleDelete)
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store without serving. Start closes it itself; Close
// exists for callers that build a Server but never run it.
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds before returning.
func (s *Server) Start() error {
	defer s.Close()

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
			slog.Bool("guestMode", s.config.GuestMode),
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
