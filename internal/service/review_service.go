package service

import (
	"context"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"moviedash/internal/domain"
	"moviedash/internal/repository"
	apperrors "moviedash/pkg/errors"
	"moviedash/pkg/logger"
)

const (
	minRating        = 1
	maxRating        = 5
	maxCommentLength = 2000
)

type reviewService struct {
	reviews  repository.ReviewRepository
	sanitize *bluemonday.Policy
	logger   *logger.Logger
}

// NewReviewService creates the review service. Comments are stripped of all markup.
func NewReviewService(reviews repository.ReviewRepository, logger *logger.Logger) ReviewService {
	return &reviewService{
		reviews:  reviews,
		sanitize: bluemonday.StrictPolicy(),
		logger:   logger,
	}
}

func (s *reviewService) MovieReviews(ctx context.Context, movieID int64) ([]*domain.Review, error) {
	if movieID <= 0 {
		return nil, errInvalidMovieID
	}
	return s.reviews.ListByMovie(ctx, movieID)
}

func (s *reviewService) UserReviews(ctx context.Context, userID string) ([]*domain.Review, error) {
	return s.reviews.ListByUser(ctx, userID)
}

func (s *reviewService) Save(ctx context.Context, userID string, req domain.ReviewRequest) (*domain.Review, error) {
	if req.MovieID <= 0 {
		return nil, errInvalidMovieID
	}
	if req.Rating < minRating || req.Rating > maxRating {
		return nil, apperrors.NewValidationError("Rating must be between 1 and 5")
	}

	if utf8.RuneCountInString(strings.TrimSpace(req.Comment)) > maxCommentLength {
		return nil, apperrors.NewValidationError("Comment must be at most 2000 characters")
	}
	// Stored as plain text: markup is dropped, entities the policy escapes are restored
	comment := strings.TrimSpace(html.UnescapeString(s.sanitize.Sanitize(req.Comment)))

	review := &domain.Review{
		UserID:  userID,
		MovieID: req.MovieID,
		Rating:  req.Rating,
		Comment: comment,
	}
	if err := s.reviews.Upsert(ctx, review); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"movie_id": req.MovieID,
		"rating":   req.Rating,
	}).Info("Review saved")
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, userID, reviewID string) error {
	if _, err := uuid.Parse(reviewID); err != nil {
		return domain.ErrReviewNotFound
	}
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return domain.ErrReviewNotFound
	}
	if review.UserID != userID {
		s.logger.WithFields(map[string]interface{}{
			"user_id":   userID,
			"review_id": reviewID,
		}).Warn("Attempt to delete another user's review")
		return domain.ErrReviewForbidden
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}
	s.logger.WithField("review_id", reviewID).Info("Review deleted")
	return nil
}
