package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"moviedash/internal/domain"
	"moviedash/internal/middleware"
	"moviedash/internal/service"
	"moviedash/pkg/logger"
)

// UserHandler serves the signed-in user's profile and preferences. All routes
// require the Auth middleware.
type UserHandler struct {
	profiles service.ProfileService
	logger   *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(profiles service.ProfileService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// Profile handles GET /user/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}

	profile, err := h.profiles.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, profile, h.logger)
}

// Preferences handles GET /user/preferences
func (h *UserHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}

	prefs, err := h.profiles.Preferences(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeRawJSON(w, prefs, h.logger)
}

// UpdatePreferences handles PUT /user/preferences
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}

	// An empty body is reported by the service as "No data provided"
	var prefs json.RawMessage
	if err := decodeJSON(w, r, &prefs); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, err, h.logger)
		return
	}

	if err := h.profiles.UpdatePreferences(r.Context(), userID, prefs); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Preferences updated successfully"}, h.logger)
}
