package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"moviedash/internal/service/auth"
	apperrors "moviedash/pkg/errors"
	"moviedash/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// UserIDContextKey is the key for the authenticated user id in context
	UserIDContextKey ContextKey = "user_id"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// Authenticator resolves a request's session to verified claims
type Authenticator interface {
	Authenticate(r *http.Request) (*auth.Claims, error)
}

// Auth creates an authentication middleware. Requests without a valid
// session are rejected with the session error's status.
func Auth(authenticator Authenticator, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticator.Authenticate(r)
			if err != nil {
				logger.WithField("request_id", RequestIDFromContext(r.Context())).
					WithError(err).Debug("Authentication failed")
				writeErrorResponse(w, err, logger)
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID())
			logger.WithField("user_id", claims.UserID()).Debug("User authenticated successfully")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user id
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// UserIDFromContext returns the user id set by Auth
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(string)
	return userID, ok && userID != ""
}

// RequestID creates a middleware that adds a unique request ID to each request.
// A well-formed incoming X-Request-ID is kept.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the request id set by RequestID
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDContextKey).(string)
	return requestID
}

// writeErrorResponse writes the client-safe error body
func writeErrorResponse(w http.ResponseWriter, err error, logger *logger.Logger) {
	appErr := apperrors.From(err)
	if appErr.Type == apperrors.ErrorTypeInternal {
		logger.WithError(err).Error("Request error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	if encErr := json.NewEncoder(w).Encode(appErr.Response()); encErr != nil {
		logger.WithError(encErr).Error("Failed to encode error response")
	}
}
