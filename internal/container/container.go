package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"moviedash/internal/config"
	"moviedash/internal/domain"
	"moviedash/internal/metrics"
	"moviedash/internal/repository"
	"moviedash/internal/service"
	"moviedash/internal/service/auth"
	"moviedash/pkg/database"
	"moviedash/pkg/logger"
	"moviedash/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *database.PostgresDB
	RedisClient *redis.Client
	Registry    *prometheus.Registry
	Metrics     *metrics.Collector
	Auth        *auth.Service
	Services    *service.Services
}

// Option customizes a Container before its services are built
type Option func(*options)

type options struct {
	validator auth.IDTokenValidator
}

// WithIDTokenValidator replaces the Google ID token validator
func WithIDTokenValidator(v auth.IDTokenValidator) Option {
	return func(o *options) { o.validator = v }
}

// New creates a new dependency injection container. db must be connected.
// Redis is optional except in cookie session mode.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, db *database.PostgresDB, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			if cfg.SessionMode == config.SessionModeCookie {
				return nil, fmt.Errorf("cookie sessions require redis: %w", err)
			}
			log.WithError(err).Warn("Failed to initialize Redis client, continuing without Redis")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		if cfg.SessionMode == config.SessionModeCookie {
			return nil, errors.New("cookie sessions require REDIS_URL")
		}
		log.Info("Redis URL not configured, continuing without Redis")
	}

	c := &Container{
		Config:      cfg,
		Logger:      log,
		DB:          db,
		RedisClient: redisClient,
		Registry:    prometheus.NewRegistry(),
	}
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.NewCollector(c.Registry)

	if err := c.initServices(ctx, o); err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}
	return c, nil
}

func (c *Container) initServices(ctx context.Context, o options) error {
	cfg, log := c.Config, c.Logger

	repos := repository.Repositories{
		User:        repository.NewUserRepository(c.DB.DB),
		Preferences: repository.NewPreferencesRepository(c.DB.DB),
		Reviews:     repository.NewReviewRepository(c.DB.DB),
	}
	var err error
	if repos.Favorites, err = repository.NewCollectionRepository(c.DB.DB, domain.CollectionFavorites); err != nil {
		return err
	}
	if repos.Watchlist, err = repository.NewCollectionRepository(c.DB.DB, domain.CollectionWatchlist); err != nil {
		return err
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, nil)

	var sessions auth.SessionStrategy
	switch cfg.SessionMode {
	case config.SessionModeCookie:
		sessions = auth.NewCookieSessions(issuer, c.RedisClient, cfg.CookieSecure, log)
	default:
		var revocations auth.RevocationList
		if c.RedisClient != nil {
			revocations = auth.NewRedisRevocationList(c.RedisClient)
		}
		sessions = auth.NewBearerSessions(issuer, revocations, log)
	}

	var states auth.StateStore
	if c.RedisClient != nil {
		states = auth.NewRedisStateStore(c.RedisClient)
	} else {
		log.Warn("OAuth state is kept in memory; Google sign-in will not survive restarts or span replicas")
		states = auth.NewMemoryStateStore(nil)
	}

	validator := o.validator
	if validator == nil {
		validator, err = auth.NewIDTokenValidator(ctx, &http.Client{Timeout: cfg.OAuthHTTPTimeout})
		if err != nil {
			return err
		}
	}
	google := auth.NewGoogleClient(auth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		HTTPTimeout:  cfg.OAuthHTTPTimeout,
	}, validator, states, nil, log)

	c.Auth = auth.NewService(repos.User, auth.NewPasswordHasher(0), sessions, google, c.Metrics, log)

	c.Services = &service.Services{
		Catalog:  service.NewTMDBClient(cfg, log),
		Library:  service.NewLibraryService(repos.Favorites, repos.Watchlist, log),
		Reviews:  service.NewReviewService(repos.Reviews, log),
		Profiles: service.NewProfileService(repos.User, repos.Preferences, log),
	}
	return nil
}

// GetAuthService returns the auth service
func (c *Container) GetAuthService() service.AuthService {
	return c.Auth
}

// GetCatalogService returns the movie catalog service
func (c *Container) GetCatalogService() service.CatalogService {
	return c.Services.Catalog
}

// GetLibraryService returns the favorites and watchlist service
func (c *Container) GetLibraryService() service.LibraryService {
	return c.Services.Library
}

// GetReviewService returns the review service
func (c *Container) GetReviewService() service.ReviewService {
	return c.Services.Reviews
}

// GetProfileService returns the profile and preferences service
func (c *Container) GetProfileService() service.ProfileService {
	return c.Services.Profiles
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}
