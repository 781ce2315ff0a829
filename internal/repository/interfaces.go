package repository

import (
	"context"
	"encoding/json"

	"moviedash/internal/domain"
)

// UserRepository is the credential store. Lookups return nil, nil when no
// row matches. Uniqueness of email, username and Google subject is enforced
// by the database and reported as domain duplicate errors.
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by exact email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUsername retrieves a user by exact username
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByGoogleSubject retrieves a user linked to a Google account
	GetByGoogleSubject(ctx context.Context, subject string) (*domain.User, error)

	// Create inserts a new user and fills in ID and timestamps
	Create(ctx context.Context, user *domain.User) error

	// Update writes username, password hash and Google subject
	Update(ctx context.Context, user *domain.User) error

	// UpdateProfile records the display name and picture from a Google account
	UpdateProfile(ctx context.Context, id, name, picture string) error
}

// PreferencesRepository stores each user's free-form preferences document
type PreferencesRepository interface {
	// Get returns nil, nil when the user does not exist
	Get(ctx context.Context, userID string) (json.RawMessage, error)
	// Set reports whether the user exists
	Set(ctx context.Context, userID string, prefs json.RawMessage) (bool, error)
}

// CollectionRepository stores one kind of per-user movie list
type CollectionRepository interface {
	List(ctx context.Context, userID string) ([]*domain.CollectionItem, error)
	Add(ctx context.Context, userID string, movieID int64) (*domain.CollectionItem, error)
	// Remove reports whether a row was deleted
	Remove(ctx context.Context, userID string, movieID int64) (bool, error)
	Contains(ctx context.Context, userID string, movieID int64) (bool, error)
}

// ReviewRepository stores movie reviews, one per user and movie
type ReviewRepository interface {
	// Upsert inserts the review or updates the user's existing review of the movie
	Upsert(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	ListByMovie(ctx context.Context, movieID int64) ([]*domain.Review, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Review, error)
	Delete(ctx context.Context, id string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	User        UserRepository
	Preferences PreferencesRepository
	Favorites   CollectionRepository
	Watchlist   CollectionRepository
	Reviews     ReviewRepository
}
