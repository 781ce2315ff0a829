package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moviedash/internal/config"
	"moviedash/internal/domain"
	apperrors "moviedash/pkg/errors"
	"moviedash/pkg/logger"
)

// maxCatalogBody bounds how much of a catalog response is read
const maxCatalogBody = 4 << 20

// TMDBClient handles all interactions with the TMDB v3 API
type TMDBClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewTMDBClient creates a new TMDB client
func NewTMDBClient(cfg *config.Config, logger *logger.Logger) *TMDBClient {
	return &TMDBClient{
		baseURL: strings.TrimRight(cfg.TMDBBaseURL, "/"),
		apiKey:  cfg.TMDBAPIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Discover calls /discover/movie sorted by popularity
func (c *TMDBClient) Discover(ctx context.Context, q domain.DiscoverQuery) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(normalizePage(q.Page)))
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	params.Set("include_video", "false")
	if q.Genres != "" {
		params.Set("with_genres", q.Genres)
	}
	if q.StartDate != "" {
		params.Set("primary_release_date.gte", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("primary_release_date.lte", q.EndDate)
	}
	return c.get(ctx, "/discover/movie", params)
}

// Search calls /search/movie
func (c *TMDBClient) Search(ctx context.Context, query string, page int) (json.RawMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidationError("Query parameter is required")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(normalizePage(page)))
	return c.get(ctx, "/search/movie", params)
}

// Details calls /movie/{id}
func (c *TMDBClient) Details(ctx context.Context, movieID int64) (json.RawMessage, error) {
	if movieID <= 0 {
		return nil, apperrors.NewValidationError("Movie ID must be a positive integer")
	}
	return c.get(ctx, "/movie/"+strconv.FormatInt(movieID, 10), url.Values{})
}

// Trending calls /trending/movie/week
func (c *TMDBClient) Trending(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/trending/movie/week", url.Values{})
}

func (c *TMDBClient) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	params.Set("api_key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = redactURL(err, path)
		c.logger.WithError(err).WithField("path", path).Error("TMDB request failed")
		return nil, domain.ErrCatalogUnavailable.WithInternal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBody))
	if err != nil {
		return nil, domain.ErrCatalogUnavailable.WithInternal(fmt.Errorf("failed to read response body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrMovieNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.WithFields(map[string]interface{}{
			"path":        path,
			"status_code": resp.StatusCode,
		}).Error("TMDB returned an error status")
		return nil, domain.ErrCatalogUnavailable.WithInternal(fmt.Errorf("TMDB returned status %d", resp.StatusCode))
	case !json.Valid(body):
		return nil, domain.ErrCatalogUnavailable.WithInternal(fmt.Errorf("TMDB returned invalid JSON"))
	}

	c.logger.WithFields(map[string]interface{}{
		"path":  path,
		"bytes": len(body),
	}).Debug("TMDB request succeeded")

	return json.RawMessage(body), nil
}

// redactURL drops the query string, which carries api_key, from transport errors
func redactURL(err error, path string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: path, Err: urlErr.Err}
	}
	return err
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
