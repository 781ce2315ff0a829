package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"

	"moviedash/internal/config"
	"moviedash/internal/service/auth"
	"moviedash/pkg/database"
	"moviedash/pkg/logger"
)

type noopValidator struct{}

func (noopValidator) Validate(context.Context, string, string) (*idtoken.Payload, error) {
	return nil, assert.AnError
}

func newTestDB(t *testing.T) *database.PostgresDB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &database.PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}
}

func testConfig(mode, redisURL string) *config.Config {
	return &config.Config{
		Environment:      "test",
		RedisURL:         redisURL,
		JWTSecret:        "container-test-secret-with-enough-length",
		SessionMode:      mode,
		GoogleClientID:   "client-id",
		OAuthHTTPTimeout: time.Second,
		TMDBBaseURL:      "http://tmdb.invalid/3",
	}
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)
	redisURL := "redis://" + mr.Addr()

	tests := []struct {
		name        string
		config      *config.Config
		expectRedis bool
		expectError bool
	}{
		{
			name:        "bearer sessions with Redis",
			config:      testConfig(config.SessionModeBearer, redisURL),
			expectRedis: true,
		},
		{
			name:        "bearer sessions without Redis",
			config:      testConfig(config.SessionModeBearer, ""),
			expectRedis: false,
		},
		{
			// Redis client initialization fails but container creation succeeds
			name:        "bearer sessions with invalid Redis URL",
			config:      testConfig(config.SessionModeBearer, "invalid://redis-url"),
			expectRedis: false,
		},
		{
			name:        "cookie sessions with Redis",
			config:      testConfig(config.SessionModeCookie, redisURL),
			expectRedis: true,
		},
		{
			name:        "cookie sessions without Redis",
			config:      testConfig(config.SessionModeCookie, ""),
			expectError: true,
		},
		{
			name:        "cookie sessions with unreachable Redis",
			config:      testConfig(config.SessionModeCookie, "redis://127.0.0.1:1"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(context.Background(), tt.config, logger.NewNop(), newTestDB(t), WithIDTokenValidator(noopValidator{}))
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() {
				if c.RedisClient != nil {
					_ = c.RedisClient.Close()
				}
			})

			assert.Equal(t, tt.expectRedis, c.HasRedis())
			assert.NotNil(t, c.GetAuthService())
			assert.NotNil(t, c.GetCatalogService())
			assert.NotNil(t, c.GetLibraryService())
			assert.NotNil(t, c.GetReviewService())
			assert.NotNil(t, c.GetProfileService())
			assert.Same(t, tt.config, c.GetConfig())
			assert.NotNil(t, c.GetLogger())
		})
	}
}

func TestNew_SessionStrategy(t *testing.T) {
	mr := miniredis.RunT(t)

	t.Run("bearer mode returns the token in the body", func(t *testing.T) {
		c, err := New(context.Background(), testConfig(config.SessionModeBearer, ""), logger.NewNop(), newTestDB(t), WithIDTokenValidator(noopValidator{}))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "anything"})
		_, err = c.GetAuthService().Authenticate(req)
		assert.Error(t, err, "cookie must be ignored in bearer mode")
	})

	t.Run("cookie mode ignores the Authorization header", func(t *testing.T) {
		c, err := New(context.Background(), testConfig(config.SessionModeCookie, "redis://"+mr.Addr()), logger.NewNop(), newTestDB(t), WithIDTokenValidator(noopValidator{}))
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.RedisClient.Close() })

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer anything")
		_, err = c.GetAuthService().Authenticate(req)
		assert.Error(t, err)
	})
}

func TestNew_RegistersMetrics(t *testing.T) {
	c, err := New(context.Background(), testConfig(config.SessionModeBearer, ""), logger.NewNop(), newTestDB(t), WithIDTokenValidator(noopValidator{}))
	require.NoError(t, err)

	c.Metrics.AuthEvent("login", "success")
	families, err := c.Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["moviedash_auth_events_total"])
	assert.True(t, names["go_goroutines"])
}
