package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	SessionModeBearer = "bearer"
	SessionModeCookie = "cookie"

	// minSecretLength is the shortest JWT secret accepted in production.
	minSecretLength = 32

	// devJWTSecret is only ever used outside production when JWT_SECRET is unset.
	devJWTSecret = "moviedash-development-secret-do-not-use"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	LogLevel       string

	DatabaseURL string
	RedisURL    string

	JWTSecret    string
	SessionMode  string
	CookieSecure bool

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	OAuthHTTPTimeout   time.Duration

	TMDBAPIKey  string
	TMDBBaseURL string
}

// Load loads configuration from environment variables and validates it.
// The returned warnings describe development fallbacks that were applied.
func Load() (*Config, []string, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	environment := strings.ToLower(getEnv("ENVIRONMENT", EnvDevelopment))

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        environment,
		AllowedOrigins:     parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		SessionMode:        strings.ToLower(getEnv("SESSION_MODE", SessionModeBearer)),
		CookieSecure:       getBoolEnv("COOKIE_SECURE", environment == EnvProduction),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		OAuthHTTPTimeout:   getDurationEnv("OAUTH_HTTP_TIMEOUT", 10*time.Second),
		TMDBAPIKey:         getEnv("TMDB_API_KEY", ""),
		TMDBBaseURL:        getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
	}

	warnings, err := cfg.Validate()
	if err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

// Validate checks required settings. Production refuses to start without its
// secrets; development falls back and reports a warning instead.
func (c *Config) Validate() ([]string, error) {
	var errs []error
	var warnings []string

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	switch c.SessionMode {
	case SessionModeBearer:
	case SessionModeCookie:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("SESSION_MODE=cookie requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_MODE must be %q or %q, got %q", SessionModeBearer, SessionModeCookie, c.SessionMode))
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		} else if len(c.JWTSecret) < minSecretLength {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minSecretLength))
		}
		if c.GoogleClientID == "" {
			errs = append(errs, errors.New("GOOGLE_CLIENT_ID is required in production"))
		}
		if c.GoogleClientSecret == "" {
			errs = append(errs, errors.New("GOOGLE_CLIENT_SECRET is required in production"))
		}
	} else {
		if c.JWTSecret == "" {
			c.JWTSecret = devJWTSecret
			warnings = append(warnings, "JWT_SECRET not set, using development secret")
		}
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			warnings = append(warnings, "Google OAuth credentials not set, Google sign-in will fail")
		}
	}

	if c.TMDBAPIKey == "" {
		warnings = append(warnings, "TMDB_API_KEY not set, movie endpoints will fail")
	}

	return warnings, errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Summary returns loggable settings with secrets left out
func (c *Config) Summary() map[string]interface{} {
	return map[string]interface{}{
		"port":            c.Port,
		"environment":     c.Environment,
		"log_level":       c.LogLevel,
		"session_mode":    c.SessionMode,
		"redis_enabled":   c.RedisURL != "",
		"google_enabled":  c.GoogleClientID != "",
		"tmdb_enabled":    c.TMDBAPIKey != "",
		"allowed_origins": c.AllowedOrigins,
	}
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
