package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviedash/internal/config"
	"moviedash/internal/domain"
	apperrors "moviedash/pkg/errors"
	"moviedash/pkg/logger"
)

func newTestTMDBClient(t *testing.T, handler http.HandlerFunc) *TMDBClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		TMDBBaseURL: server.URL + "/3/",
		TMDBAPIKey:  "test-key",
	}
	return NewTMDBClient(cfg, logger.NewNop())
}

func TestTMDBClient_Requests(t *testing.T) {
	tests := []struct {
		name       string
		call       func(c *TMDBClient) (json.RawMessage, error)
		wantPath   string
		wantParams map[string]string
	}{
		{
			name: "discover with filters",
			call: func(c *TMDBClient) (json.RawMessage, error) {
				return c.Discover(context.Background(), domain.DiscoverQuery{Page: 2, Genres: "28,12", StartDate: "2020-01-01", EndDate: "2020-12-31"})
			},
			wantPath: "/3/discover/movie",
			wantParams: map[string]string{
				"page":                     "2",
				"sort_by":                  "popularity.desc",
				"include_adult":            "false",
				"with_genres":              "28,12",
				"primary_release_date.gte": "2020-01-01",
				"primary_release_date.lte": "2020-12-31",
			},
		},
		{
			name: "discover defaults to first page",
			call: func(c *TMDBClient) (json.RawMessage, error) {
				return c.Discover(context.Background(), domain.DiscoverQuery{})
			},
			wantPath:   "/3/discover/movie",
			wantParams: map[string]string{"page": "1", "with_genres": ""},
		},
		{
			name: "search",
			call: func(c *TMDBClient) (json.RawMessage, error) {
				return c.Search(context.Background(), "fight club", 3)
			},
			wantPath:   "/3/search/movie",
			wantParams: map[string]string{"query": "fight club", "page": "3"},
		},
		{
			name: "details",
			call: func(c *TMDBClient) (json.RawMessage, error) {
				return c.Details(context.Background(), 550)
			},
			wantPath: "/3/movie/550",
		},
		{
			name: "trending",
			call: func(c *TMDBClient) (json.RawMessage, error) {
				return c.Trending(context.Background())
			},
			wantPath: "/3/trending/movie/week",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestTMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
				for k, v := range tt.wantParams {
					assert.Equal(t, v, r.URL.Query().Get(k), k)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"page":1,"results":[{"id":550,"title":"Fight Club"}]}`))
			})

			body, err := tt.call(client)
			require.NoError(t, err)
			assert.JSONEq(t, `{"page":1,"results":[{"id":550,"title":"Fight Club"}]}`, string(body))
		})
	}
}

func TestTMDBClient_Errors(t *testing.T) {
	tests := []struct {
		name         string
		serverStatus int
		body         string
		want         error
		wantStatus   int
	}{
		{
			name:         "movie not found",
			serverStatus: http.StatusNotFound,
			body:         `{"status_code":34,"status_message":"The resource you requested could not be found."}`,
			want:         domain.ErrMovieNotFound,
			wantStatus:   http.StatusNotFound,
		},
		{
			name:         "server error",
			serverStatus: http.StatusInternalServerError,
			body:         "Internal Server Error",
			want:         domain.ErrCatalogUnavailable,
			wantStatus:   http.StatusBadGateway,
		},
		{
			name:         "invalid api key",
			serverStatus: http.StatusUnauthorized,
			body:         `{"status_code":7}`,
			want:         domain.ErrCatalogUnavailable,
			wantStatus:   http.StatusBadGateway,
		},
		{
			name:         "invalid JSON",
			serverStatus: http.StatusOK,
			body:         "not a json",
			want:         domain.ErrCatalogUnavailable,
			wantStatus:   http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestTMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.serverStatus)
				_, _ = w.Write([]byte(tt.body))
			})

			result, err := client.Details(context.Background(), 550)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, tt.wantStatus, apperrors.From(err).StatusCode)
		})
	}
}

func TestTMDBClient_NetworkError(t *testing.T) {
	cfg := &config.Config{
		TMDBBaseURL: "http://127.0.0.1:1",
		TMDBAPIKey:  "test-key",
	}
	client := NewTMDBClient(cfg, logger.NewNop())

	result, err := client.Trending(context.Background())
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrCatalogUnavailable), "got %v", err)
}

func TestTMDBClient_ContextCancellation(t *testing.T) {
	client := newTestTMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, "alien", 1)
	assert.True(t, errors.Is(err, domain.ErrCatalogUnavailable), "got %v", err)
}

func TestTMDBClient_Validation(t *testing.T) {
	var hits atomic.Int32
	client := newTestTMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	_, err := client.Search(context.Background(), "   ", 1)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.From(err).Type)

	_, err = client.Details(context.Background(), 0)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.From(err).Type)

	assert.Equal(t, int32(0), hits.Load())
}

func TestTMDBClient_EveryCallReachesTMDB(t *testing.T) {
	var hits atomic.Int32
	client := newTestTMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"id":550}`))
	})

	for i := 0; i < 3; i++ {
		body, err := client.Details(context.Background(), 550)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":550}`, string(body))
	}
	_, err := client.Trending(context.Background())
	require.NoError(t, err)
	_, err = client.Trending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(5), hits.Load())
}

func TestTMDBClient_TransportErrorHidesAPIKey(t *testing.T) {
	const apiKey = "SUPERSECRETKEY"
	var logs bytes.Buffer
	cfg := &config.Config{
		TMDBBaseURL: "http://127.0.0.1:1",
		TMDBAPIKey:  apiKey,
	}
	client := NewTMDBClient(cfg, logger.NewWithWriter("debug", &logs))

	_, err := client.Search(context.Background(), "alien", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCatalogUnavailable), "got %v", err)

	assert.NotContains(t, err.Error(), apiKey)
	assert.NotContains(t, apperrors.From(err).Internal.Error(), apiKey)
	assert.Contains(t, logs.String(), "TMDB request failed")
	assert.NotContains(t, logs.String(), apiKey)
}

func TestRedactURL(t *testing.T) {
	err := redactURL(&url.Error{Op: "Get", URL: "http://tmdb/3/movie/1?api_key=secret", Err: assert.AnError}, "/movie/1")

	var urlErr *url.Error
	require.True(t, errors.As(err, &urlErr))
	assert.Equal(t, "/movie/1", urlErr.URL)
	assert.True(t, errors.Is(err, assert.AnError))
	assert.Equal(t, assert.AnError, redactURL(assert.AnError, "/movie/1"))
}
