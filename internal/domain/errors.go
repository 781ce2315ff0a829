package domain

import apperrors "moviedash/pkg/errors"

// Sentinel errors shared by repositories, services and handlers. They match
// copies carrying an internal cause through errors.Is.
var (
	ErrDuplicateEmail         = apperrors.New(apperrors.ErrorTypeDuplicateEmail, "Email already registered")
	ErrDuplicateUsername      = apperrors.New(apperrors.ErrorTypeDuplicateUsername, "Username already taken")
	ErrDuplicateGoogleSubject = apperrors.New(apperrors.ErrorTypeAlreadyExists, "Google account already linked")
	ErrInvalidCredentials     = apperrors.New(apperrors.ErrorTypeInvalidCredentials, "Invalid email or password")

	ErrStateMismatch       = apperrors.New(apperrors.ErrorTypeStateMismatch, "Invalid or expired OAuth state")
	ErrInvalidIDToken      = apperrors.New(apperrors.ErrorTypeInvalidIDToken, "Invalid Google ID token")
	ErrInvalidGrant        = apperrors.New(apperrors.ErrorTypeInvalidGrant, "Invalid authorization code")
	ErrAuthorizationDenied = apperrors.New(apperrors.ErrorTypeAuthorizationDenied, "Google sign-in was cancelled")
	ErrUpstreamUnavailable = apperrors.New(apperrors.ErrorTypeUpstreamUnavailable, "Identity provider unavailable")

	ErrTokenExpired      = apperrors.New(apperrors.ErrorTypeExpired, "Token has expired")
	ErrTokenBadSignature = apperrors.New(apperrors.ErrorTypeBadSignature, "Invalid token signature")
	ErrTokenMalformed    = apperrors.New(apperrors.ErrorTypeMalformed, "Malformed token")
	ErrMissingToken      = apperrors.New(apperrors.ErrorTypeMissingToken, "Authentication token is required")
	ErrUnauthenticated   = apperrors.New(apperrors.ErrorTypeUnauthenticated, "Not authenticated")

	ErrAlreadyInCollection = apperrors.New(apperrors.ErrorTypeAlreadyExists, "Movie already in list")
	ErrNotInCollection     = apperrors.New(apperrors.ErrorTypeNotFound, "Movie not in list")
	ErrReviewNotFound      = apperrors.New(apperrors.ErrorTypeNotFound, "Review not found")
	ErrReviewForbidden     = apperrors.New(apperrors.ErrorTypeForbidden, "Cannot delete another user's review")
	ErrMovieNotFound       = apperrors.New(apperrors.ErrorTypeNotFound, "Movie not found")
	ErrCatalogUnavailable  = apperrors.New(apperrors.ErrorTypeUpstreamUnavailable, "Movie catalog unavailable")
)
