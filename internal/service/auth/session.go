package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"moviedash/internal/domain"
	"moviedash/pkg/logger"
	"moviedash/pkg/redis"
)

// SessionCookieName is the cookie carrying the signed session in cookie mode
const SessionCookieName = "moviedash_session"

// SessionStrategy binds requests to a user identity. Exactly one strategy
// is active per deployment.
type SessionStrategy interface {
	// Establish starts a session for userID. It returns the bearer token the
	// client must present, or "" when the session travels in a cookie.
	Establish(ctx context.Context, w http.ResponseWriter, userID string) (string, error)
	// Authenticate resolves the request's credentials to verified claims.
	Authenticate(r *http.Request) (*Claims, error)
	// Revoke ends the request's session. Missing or invalid credentials are not an error.
	Revoke(w http.ResponseWriter, r *http.Request) error
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", domain.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", domain.ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrMissingToken
	}
	return token, nil
}

// BearerSessions returns tokens in the response body and reads them from the
// Authorization header. Logout revokes the token id when a revocation list is set.
type BearerSessions struct {
	issuer      *TokenIssuer
	revocations RevocationList
	logger      *logger.Logger
}

// NewBearerSessions creates the bearer strategy. revocations may be nil.
func NewBearerSessions(issuer *TokenIssuer, revocations RevocationList, log *logger.Logger) *BearerSessions {
	return &BearerSessions{issuer: issuer, revocations: revocations, logger: log}
}

// Establish issues a token and returns it for the response body
func (s *BearerSessions) Establish(_ context.Context, _ http.ResponseWriter, userID string) (string, error) {
	token, _, err := s.issuer.Issue(userID)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate verifies the Authorization bearer token and rejects revoked ones
func (s *BearerSessions) Authenticate(r *http.Request) (*Claims, error) {
	raw, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}

	claims, err := s.issuer.Verify(raw)
	if err != nil {
		return nil, err
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, domain.ErrUnauthenticated
		}
	}
	return claims, nil
}

// Revoke adds the token id to the revocation list until the token expires.
// Missing or invalid tokens are ignored.
func (s *BearerSessions) Revoke(_ http.ResponseWriter, r *http.Request) error {
	if s.revocations == nil {
		return nil
	}
	raw, err := BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil
	}
	claims, err := s.issuer.Verify(raw)
	if err != nil {
		return nil
	}
	if err := s.revocations.Revoke(r.Context(), claims.ID, s.issuer.RemainingLifetime(claims)); err != nil {
		return err
	}
	s.logger.WithField("user_id", claims.UserID()).Debug("Bearer token revoked")
	return nil
}

// CookieSessions keeps a server-side session record in Redis keyed by the
// token id and sends the signed token as an HttpOnly cookie.
type CookieSessions struct {
	issuer *TokenIssuer
	store  *redis.Client
	secure bool
	logger *logger.Logger
}

// NewCookieSessions creates the cookie strategy. store is required.
func NewCookieSessions(issuer *TokenIssuer, store *redis.Client, secure bool, log *logger.Logger) *CookieSessions {
	return &CookieSessions{issuer: issuer, store: store, secure: secure, logger: log}
}

// Establish records the session in Redis and sets the session cookie.
// The returned token is always empty.
func (s *CookieSessions) Establish(ctx context.Context, w http.ResponseWriter, userID string) (string, error) {
	token, claims, err := s.issuer.Issue(userID)
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, s.store.KeyBuilder.KeySession(claims.ID), userID, TokenTTL); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return "", nil
}

// Authenticate verifies the session cookie and requires a live session record
func (s *CookieSessions) Authenticate(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, domain.ErrMissingToken
	}

	claims, err := s.issuer.Verify(cookie.Value)
	if err != nil {
		return nil, err
	}

	userID, err := s.store.Get(r.Context(), s.store.KeyBuilder.KeySession(claims.ID))
	if errors.Is(err, redis.ErrNil) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if userID != claims.UserID() {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

// Revoke clears the cookie and deletes the session record
func (s *CookieSessions) Revoke(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := s.issuer.Verify(cookie.Value)
	if err != nil {
		return nil
	}
	if err := s.store.Delete(r.Context(), s.store.KeyBuilder.KeySession(claims.ID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
