package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"moviedash/internal/config"
	"moviedash/internal/container"
	"moviedash/internal/domain"
	"moviedash/internal/handler"
	"moviedash/internal/metrics"
	"moviedash/internal/middleware"
	"moviedash/pkg/database"
	apperrors "moviedash/pkg/errors"
	"moviedash/pkg/logger"
	"moviedash/pkg/redis"
)

// Resources holds all resources that need cleanup
type Resources struct {
	db          *database.PostgresDB
	redisClient *redis.Client
	server      *http.Server
	log         *logger.Logger
	mu          sync.Mutex
	closed      bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errors []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errors = append(errors, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	if r.redisClient != nil {
		r.log.Info("Closing Redis connection...")

		healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := r.redisClient.Health(healthCtx); err != nil {
			r.log.WithError(err).Warn("Redis health check failed before closing")
		}
		healthCancel()

		if err := r.redisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errors = append(errors, fmt.Errorf("Redis close: %w", err))
		} else {
			r.log.Info("Redis connection closed successfully")
		}
	}

	if r.db != nil {
		r.log.Info("Closing database connection pool...")

		healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := r.db.Health(healthCtx); err != nil {
			r.log.WithError(err).Warn("Database health check failed before closing")
		}
		healthCancel()

		r.db.Close()
		r.log.Info("Database connection pool closed successfully")
	}

	if len(errors) > 0 {
		r.log.WithField("error_count", len(errors)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errors), errors)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	// Load configuration
	cfg, warnings, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	for _, warning := range warnings {
		log.Warn(warning)
	}

	log.WithFields(cfg.Summary()).Info("Starting moviedash server")

	ctx := context.Background()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.WithError(err).Fatal("Failed to run database migrations")
	}

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Create dependency injection container
	c, err := container.New(ctx, cfg, log, db)
	if err != nil {
		db.Close()
		log.WithError(err).Fatal("Failed to create container")
	}

	router := setupRouter(c)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		db:          db,
		redisClient: c.GetRedisClient(),
		server:      server,
		log:         log,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Cleanup runs however main returns
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	log.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()
	authService := c.GetAuthService()

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID())
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics(c.Metrics))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	checks := map[string]handler.HealthChecker{"database": c.DB}
	if c.HasRedis() {
		checks["redis"] = c.GetRedisClient()
	}
	healthHandler := handler.NewHealthHandler(checks, log)
	authHandler := handler.NewAuthHandler(authService, cfg.CookieSecure, log)
	movieHandler := handler.NewMovieHandler(c.GetCatalogService(), log)
	favoritesHandler := handler.NewLibraryHandler(c.GetLibraryService(), domain.CollectionFavorites, log)
	watchlistHandler := handler.NewLibraryHandler(c.GetLibraryService(), domain.CollectionWatchlist, log)
	reviewHandler := handler.NewReviewHandler(c.GetReviewService(), log)
	userHandler := handler.NewUserHandler(c.GetProfileService(), log)

	requireAuth := middleware.Auth(authService, log)

	r.Get("/health", healthHandler.Check)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(c.Registry))

	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	// A cross-site GET must not end a cookie session
	if cfg.SessionMode == config.SessionModeCookie {
		r.Post("/logout", authHandler.Logout)
	} else {
		r.Get("/logout", authHandler.Logout)
	}
	r.With(requireAuth).Get("/me", authHandler.Me)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/google/url", authHandler.GoogleURL)
		r.Get("/google/callback", authHandler.GoogleCallback)

		r.With(requireAuth).Get("/me", authHandler.Me)
		r.With(requireAuth).Get("/verify", authHandler.Me)
	})

	r.Route("/movies", func(r chi.Router) {
		r.Get("/discover", movieHandler.Discover)
		r.Get("/search", movieHandler.Search)
		r.Get("/trending", movieHandler.Trending)
		r.Get("/{movieID}", movieHandler.Details)
	})

	for prefix, h := range map[string]*handler.LibraryHandler{
		"/favorites": favoritesHandler,
		"/watchlist": watchlistHandler,
	} {
		r.Route(prefix, func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", h.List)
			r.Post("/", h.Add)
			r.Delete("/{movieID}", h.Remove)
			r.Get("/check/{movieID}", h.Check)
		})
	}

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/movie/{movieID}", reviewHandler.MovieReviews)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/user", reviewHandler.UserReviews)
			r.Post("/", reviewHandler.Save)
			r.Delete("/{reviewID}", reviewHandler.Delete)
		})
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/profile", userHandler.Profile)
		r.Get("/preferences", userHandler.Preferences)
		r.Put("/preferences", userHandler.UpdatePreferences)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w, log)
	})

	log.Info("Router configured successfully")
	return r
}

// writeNotFound answers unknown routes in the standard error shape
func writeNotFound(w http.ResponseWriter, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	if err := json.NewEncoder(w).Encode(apperrors.NewNotFoundError("Endpoint not found").Response()); err != nil {
		log.WithError(err).Error("Failed to write not found response")
	}
}
