package handler

import (
	"net/http"

	"moviedash/internal/domain"
	"moviedash/internal/service"
	"moviedash/pkg/logger"
)

// MovieHandler relays movie catalog lookups
type MovieHandler struct {
	catalog service.CatalogService
	logger  *logger.Logger
}

// NewMovieHandler creates a new movie handler
func NewMovieHandler(catalog service.CatalogService, logger *logger.Logger) *MovieHandler {
	return &MovieHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// Discover handles GET /movies/discover
func (h *MovieHandler) Discover(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	body, err := h.catalog.Discover(r.Context(), domain.DiscoverQuery{
		Page:      pageParam(r),
		Genres:    query.Get("genres"),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
	})
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeRawJSON(w, body, h.logger)
}

// Search handles GET /movies/search
func (h *MovieHandler) Search(w http.ResponseWriter, r *http.Request) {
	body, err := h.catalog.Search(r.Context(), r.URL.Query().Get("query"), pageParam(r))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeRawJSON(w, body, h.logger)
}

// Trending handles GET /movies/trending
func (h *MovieHandler) Trending(w http.ResponseWriter, r *http.Request) {
	body, err := h.catalog.Trending(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeRawJSON(w, body, h.logger)
}

// Details handles GET /movies/{movieID}
func (h *MovieHandler) Details(w http.ResponseWriter, r *http.Request) {
	movieID, err := movieIDParam(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	body, err := h.catalog.Details(r.Context(), movieID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeRawJSON(w, body, h.logger)
}
