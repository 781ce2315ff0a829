package handler

import (
	"net/http"

	"moviedash/internal/domain"
	"moviedash/internal/middleware"
	"moviedash/internal/service"
	"moviedash/pkg/logger"
)

// LibraryHandler serves one of the per-user movie lists. All routes require
// the Auth middleware.
type LibraryHandler struct {
	library  service.LibraryService
	kind     domain.CollectionKind
	checkKey string
	logger   *logger.Logger
}

// NewLibraryHandler creates a handler for the given list
func NewLibraryHandler(library service.LibraryService, kind domain.CollectionKind, logger *logger.Logger) *LibraryHandler {
	checkKey := "favorite"
	if kind == domain.CollectionWatchlist {
		checkKey = "inWatchlist"
	}
	return &LibraryHandler{
		library:  library,
		kind:     kind,
		checkKey: checkKey,
		logger:   logger,
	}
}

// List handles GET /favorites and GET /watchlist
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}

	items, err := h.library.List(r.Context(), h.kind, userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	if items == nil {
		items = []*domain.CollectionItem{}
	}
	writeJSON(w, http.StatusOK, items, h.logger)
}

// Add handles POST /favorites and POST /watchlist
func (h *LibraryHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}

	var req domain.MovieRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	item, err := h.library.Add(r.Context(), h.kind, userID, req.MovieID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, item, h.logger)
}

// Remove handles DELETE /favorites/{movieID} and DELETE /watchlist/{movieID}
func (h *LibraryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}
	movieID, err := movieIDParam(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.library.Remove(r.Context(), h.kind, userID, movieID); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Movie removed"}, h.logger)
}

// Check handles GET /favorites/check/{movieID} and GET /watchlist/check/{movieID}
func (h *LibraryHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}
	movieID, err := movieIDParam(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	found, err := h.library.Contains(r.Context(), h.kind, userID, movieID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{h.checkKey: found}, h.logger)
}
