package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"moviedash/internal/domain"
	"moviedash/internal/middleware"
	"moviedash/internal/service"
	"moviedash/pkg/logger"
)

// ReviewHandler handles movie review requests
type ReviewHandler struct {
	reviews service.ReviewService
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews service.ReviewService, logger *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		logger:  logger,
	}
}

// MovieReviews handles GET /reviews/movie/{movieID}. Public.
func (h *ReviewHandler) MovieReviews(w http.ResponseWriter, r *http.Request) {
	movieID, err := movieIDParam(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	reviews, err := h.reviews.MovieReviews(r.Context(), movieID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeReviews(w, reviews, h.logger)
}

// UserReviews handles GET /reviews/user
func (h *ReviewHandler) UserReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}

	reviews, err := h.reviews.UserReviews(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeReviews(w, reviews, h.logger)
}

// Save handles POST /reviews
func (h *ReviewHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}

	var req domain.ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	review, err := h.reviews.Save(r.Context(), userID, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, review, h.logger)
}

// Delete handles DELETE /reviews/{reviewID}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}

	if err := h.reviews.Delete(r.Context(), userID, chi.URLParam(r, "reviewID")); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Review deleted"}, h.logger)
}

func writeReviews(w http.ResponseWriter, reviews []*domain.Review, logger *logger.Logger) {
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	writeJSON(w, http.StatusOK, reviews, logger)
}
