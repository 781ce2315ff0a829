package service

import (
	"bytes"
	"context"
	"encoding/json"

	"moviedash/internal/domain"
	"moviedash/internal/repository"
	apperrors "moviedash/pkg/errors"
	"moviedash/pkg/logger"
)

const maxPreferencesBytes = 16 << 10

var errNoPreferences = apperrors.NewValidationError("No data provided")

type profileService struct {
	users       repository.UserRepository
	preferences repository.PreferencesRepository
	logger      *logger.Logger
}

// NewProfileService creates the profile and preferences service
func NewProfileService(users repository.UserRepository, preferences repository.PreferencesRepository, logger *logger.Logger) ProfileService {
	return &profileService{
		users:       users,
		preferences: preferences,
		logger:      logger,
	}
}

func (s *profileService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return user.Profile(), nil
}

func (s *profileService) Preferences(ctx context.Context, userID string) (json.RawMessage, error) {
	prefs, err := s.preferences.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return nil, domain.ErrUnauthenticated
	}
	return prefs, nil
}

func (s *profileService) UpdatePreferences(ctx context.Context, userID string, prefs json.RawMessage) error {
	prefs = bytes.TrimSpace(prefs)
	if len(prefs) == 0 {
		return errNoPreferences
	}
	if len(prefs) > maxPreferencesBytes {
		return apperrors.NewValidationError("Preferences must be at most 16 KiB")
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(prefs, &doc); err != nil {
		return apperrors.NewValidationError("Preferences must be a JSON object")
	}
	if len(doc) == 0 {
		return errNoPreferences
	}

	ok, err := s.preferences.Set(ctx, userID, prefs)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUnauthenticated
	}

	s.logger.WithField("user_id", userID).Info("Preferences updated")
	return nil
}
