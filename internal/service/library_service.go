package service

import (
	"context"
	"fmt"

	"moviedash/internal/domain"
	"moviedash/internal/repository"
	apperrors "moviedash/pkg/errors"
	"moviedash/pkg/logger"
)

var errInvalidMovieID = apperrors.NewValidationError("Movie ID must be a positive integer")

type libraryService struct {
	lists  map[domain.CollectionKind]repository.CollectionRepository
	logger *logger.Logger
}

// NewLibraryService creates the favorites and watchlist service
func NewLibraryService(favorites, watchlist repository.CollectionRepository, logger *logger.Logger) LibraryService {
	return &libraryService{
		lists: map[domain.CollectionKind]repository.CollectionRepository{
			domain.CollectionFavorites: favorites,
			domain.CollectionWatchlist: watchlist,
		},
		logger: logger,
	}
}

func (s *libraryService) list(kind domain.CollectionKind) (repository.CollectionRepository, error) {
	repo, ok := s.lists[kind]
	if !ok {
		return nil, fmt.Errorf("unknown collection kind %q", kind)
	}
	return repo, nil
}

func (s *libraryService) List(ctx context.Context, kind domain.CollectionKind, userID string) ([]*domain.CollectionItem, error) {
	repo, err := s.list(kind)
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, userID)
}

func (s *libraryService) Add(ctx context.Context, kind domain.CollectionKind, userID string, movieID int64) (*domain.CollectionItem, error) {
	if movieID <= 0 {
		return nil, errInvalidMovieID
	}
	repo, err := s.list(kind)
	if err != nil {
		return nil, err
	}

	item, err := repo.Add(ctx, userID, movieID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":    userID,
		"movie_id":   movieID,
		"collection": string(kind),
	}).Debug("Movie added to collection")
	return item, nil
}

func (s *libraryService) Remove(ctx context.Context, kind domain.CollectionKind, userID string, movieID int64) error {
	if movieID <= 0 {
		return errInvalidMovieID
	}
	repo, err := s.list(kind)
	if err != nil {
		return err
	}

	removed, err := repo.Remove(ctx, userID, movieID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrNotInCollection
	}
	return nil
}

func (s *libraryService) Contains(ctx context.Context, kind domain.CollectionKind, userID string, movieID int64) (bool, error) {
	if movieID <= 0 {
		return false, errInvalidMovieID
	}
	repo, err := s.list(kind)
	if err != nil {
		return false, err
	}
	return repo.Contains(ctx, userID, movieID)
}
