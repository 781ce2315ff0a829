package service

import (
	"context"
	"encoding/json"
	"net/http"

	"moviedash/internal/domain"
	"moviedash/internal/service/auth"
)

// AuthService defines the interface for accounts and sessions
type AuthService interface {
	// Register creates a password account without logging in
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserSummary, error)

	// Login checks the password and starts a session
	Login(ctx context.Context, w http.ResponseWriter, req domain.LoginRequest) (*domain.LoginResult, error)

	Logout(w http.ResponseWriter, r *http.Request) error

	// Authenticate resolves the request's session to verified claims
	Authenticate(r *http.Request) (*auth.Claims, error)

	Me(ctx context.Context, userID string) (*domain.UserSummary, error)

	// GoogleAuthURL returns the consent URL and the state to bind to the browser
	GoogleAuthURL(ctx context.Context, requestRedirect string) (string, string, error)

	GoogleCallback(ctx context.Context, w http.ResponseWriter, p auth.CallbackParams) (*domain.LoginResult, error)
}

// CatalogService defines the interface for movie catalog lookups.
// Results are the catalog's JSON bodies, relayed unchanged.
type CatalogService interface {
	// Discover lists popular movies matching the filters
	Discover(ctx context.Context, q domain.DiscoverQuery) (json.RawMessage, error)

	// Search finds movies by title. query must not be empty.
	Search(ctx context.Context, query string, page int) (json.RawMessage, error)

	// Details returns one movie
	Details(ctx context.Context, movieID int64) (json.RawMessage, error)

	// Trending returns this week's trending movies
	Trending(ctx context.Context) (json.RawMessage, error)
}

// LibraryService defines the interface for per-user favorites and watchlist
type LibraryService interface {
	List(ctx context.Context, kind domain.CollectionKind, userID string) ([]*domain.CollectionItem, error)

	// Add saves a movie. Adding a movie twice fails with ErrAlreadyInCollection.
	Add(ctx context.Context, kind domain.CollectionKind, userID string, movieID int64) (*domain.CollectionItem, error)

	// Remove deletes a movie. Removing an absent movie fails with ErrNotInCollection.
	Remove(ctx context.Context, kind domain.CollectionKind, userID string, movieID int64) error

	Contains(ctx context.Context, kind domain.CollectionKind, userID string, movieID int64) (bool, error)
}

// ReviewService defines the interface for movie reviews
type ReviewService interface {
	MovieReviews(ctx context.Context, movieID int64) ([]*domain.Review, error)
	UserReviews(ctx context.Context, userID string) ([]*domain.Review, error)

	// Save creates the user's review of a movie or replaces the existing one
	Save(ctx context.Context, userID string, req domain.ReviewRequest) (*domain.Review, error)

	// Delete removes a review owned by userID
	Delete(ctx context.Context, userID, reviewID string) error
}

// ProfileService defines the interface for the user's profile and preferences
type ProfileService interface {
	Profile(ctx context.Context, userID string) (*domain.Profile, error)

	// Preferences returns the stored document, {} when nothing was saved
	Preferences(ctx context.Context, userID string) (json.RawMessage, error)

	// UpdatePreferences replaces the document. prefs must be a non-empty JSON object.
	UpdatePreferences(ctx context.Context, userID string, prefs json.RawMessage) error
}

// Services aggregates all service interfaces
type Services struct {
	Catalog  CatalogService
	Library  LibraryService
	Reviews  ReviewService
	Profiles ProfileService
}
