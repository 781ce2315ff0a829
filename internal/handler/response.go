package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "moviedash/pkg/errors"
	"moviedash/pkg/logger"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

var errInvalidBody = apperrors.NewValidationError("Invalid request body")

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

// writeRawJSON relays an already encoded body
func writeRawJSON(w http.ResponseWriter, body json.RawMessage, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.WithError(err).Error("Failed to write response")
	}
}

// writeError writes the client-safe body for err. Internal causes are
// logged, never returned.
func writeError(w http.ResponseWriter, err error, logger *logger.Logger) {
	appErr := apperrors.From(err)
	if appErr.Type == apperrors.ErrorTypeInternal || appErr.Type == apperrors.ErrorTypeUpstreamUnavailable {
		logger.WithError(err).Error("Request failed")
	}
	writeJSON(w, appErr.StatusCode, appErr.Response(), logger)
}

// decodeJSON reads a JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.NewValidationError("Request body too large")
		}
		return errInvalidBody.WithInternal(err)
	}
	return nil
}

// movieIDParam parses the {movieID} path parameter
func movieIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("Invalid movie ID")
	}
	return id, nil
}

// pageParam parses the optional page query parameter, defaulting to 1
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
