package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "validation"
	ErrorTypeDuplicateEmail      ErrorType = "duplicate_email"
	ErrorTypeDuplicateUsername   ErrorType = "duplicate_username"
	ErrorTypeInvalidCredentials  ErrorType = "invalid_credentials"
	ErrorTypeStateMismatch       ErrorType = "state_mismatch"
	ErrorTypeInvalidIDToken      ErrorType = "invalid_id_token"
	ErrorTypeInvalidGrant        ErrorType = "invalid_grant"
	ErrorTypeAuthorizationDenied ErrorType = "authorization_denied"
	ErrorTypeExpired             ErrorType = "expired"
	ErrorTypeBadSignature        ErrorType = "bad_signature"
	ErrorTypeMalformed           ErrorType = "malformed"
	ErrorTypeMissingToken        ErrorType = "missing_token"
	ErrorTypeUnauthenticated     ErrorType = "unauthenticated"
	ErrorTypeForbidden           ErrorType = "forbidden"
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeAlreadyExists       ErrorType = "already_exists"
	ErrorTypeUpstreamUnavailable ErrorType = "upstream_unavailable"
	ErrorTypeInternal            ErrorType = "internal"
)

// statusByType is the single mapping from error kind to HTTP status.
var statusByType = map[ErrorType]int{
	ErrorTypeValidation:          http.StatusBadRequest,
	ErrorTypeDuplicateEmail:      http.StatusBadRequest,
	ErrorTypeDuplicateUsername:   http.StatusBadRequest,
	ErrorTypeInvalidCredentials:  http.StatusUnauthorized,
	ErrorTypeStateMismatch:       http.StatusBadRequest,
	ErrorTypeInvalidIDToken:      http.StatusBadRequest,
	ErrorTypeInvalidGrant:        http.StatusBadRequest,
	ErrorTypeAuthorizationDenied: http.StatusBadRequest,
	ErrorTypeExpired:             http.StatusUnauthorized,
	ErrorTypeBadSignature:        http.StatusUnauthorized,
	ErrorTypeMalformed:           http.StatusUnauthorized,
	ErrorTypeMissingToken:        http.StatusUnauthorized,
	ErrorTypeUnauthenticated:     http.StatusUnauthorized,
	ErrorTypeForbidden:           http.StatusForbidden,
	ErrorTypeNotFound:            http.StatusNotFound,
	ErrorTypeAlreadyExists:       http.StatusConflict,
	ErrorTypeUpstreamUnavailable: http.StatusBadGateway,
	ErrorTypeInternal:            http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for an error type. Unknown types map to 500.
func StatusFor(t ErrorType) int {
	if code, ok := statusByType[t]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Internal   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is reports whether target is an AppError with the same type and message,
// so sentinel values match copies made by WithInternal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == e.Message
}

// WithInternal returns a copy of e that carries the given cause.
func (e *AppError) WithInternal(err error) *AppError {
	cp := *e
	cp.Internal = err
	return &cp
}

// New creates an error of the given type with the status from the table.
func New(t ErrorType, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: StatusFor(t),
	}
}

// Wrap creates an error of the given type carrying an internal cause.
func Wrap(t ErrorType, message string, internal error) *AppError {
	e := New(t, message)
	e.Internal = internal
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return New(ErrorTypeNotFound, message)
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return Wrap(ErrorTypeInternal, message, internal)
}

// NewUpstreamError creates a new error for a failing external service
func NewUpstreamError(message string, internal error) *AppError {
	return Wrap(ErrorTypeUpstreamUnavailable, message, internal)
}

// From resolves any error to an AppError. Errors outside the taxonomy become
// a generic internal error that keeps the original as its cause.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("Internal server error", err)
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Error string    `json:"error"`
	Type  ErrorType `json:"type"`
}

// Response builds the client-safe body for an error.
func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{Error: e.Message, Type: e.Type}
}
