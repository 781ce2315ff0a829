package handler

import (
	"net/http"
	"strings"

	"moviedash/internal/domain"
	"moviedash/internal/middleware"
	"moviedash/internal/service"
	"moviedash/internal/service/auth"
	"moviedash/pkg/logger"
	"moviedash/pkg/redis"
)

const (
	// StateCookieName binds an OAuth state to the browser that started the flow
	StateCookieName = "moviedash_oauth_state"

	// GoogleCallbackPath is where Google redirects after consent
	GoogleCallbackPath = "/auth/google/callback"

	stateCookiePath = "/auth/google"
)

// AuthHandler handles authentication related requests
type AuthHandler struct {
	auth         service.AuthService
	cookieSecure bool
	logger       *logger.Logger
}

// NewAuthHandler creates a new auth handler. cookieSecure marks the OAuth
// state cookie Secure.
func NewAuthHandler(authService service.AuthService, cookieSecure bool, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         authService,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// MessageResponse is a body carrying only a message
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse carries the current user and, in bearer mode, a session token
type UserResponse struct {
	Message string              `json:"message,omitempty"`
	User    *domain.UserSummary `json:"user"`
	Token   string              `json:"token,omitempty"`
}

// AuthURLResponse carries the Google consent URL
type AuthURLResponse struct {
	URL string `json:"url"`
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	user, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{Message: "User registered successfully", User: user}, h.logger)
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	result, err := h.auth.Login(r.Context(), w, req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "Login successful", User: result.User, Token: result.Token}, h.logger)
}

// Logout handles GET /logout and POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if err := h.auth.Logout(w, r); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"}, h.logger)
}

// Me handles GET /me. Requires the Auth middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.logger.Error("User not found in context")
		writeError(w, domain.ErrUnauthenticated, h.logger)
		return
	}

	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user}, h.logger)
}

// GoogleURL handles GET /auth/google/url
func (h *AuthHandler) GoogleURL(w http.ResponseWriter, r *http.Request) {
	authURL, state, err := h.auth.GoogleAuthURL(r.Context(), callbackURL(r))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     stateCookiePath,
		MaxAge:   int(redis.TTLOAuthState.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, AuthURLResponse{URL: authURL}, h.logger)
}

// GoogleCallback handles GET /auth/google/callback
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := auth.CallbackParams{
		Code:          query.Get("code"),
		State:         query.Get("state"),
		ProviderError: query.Get("error"),
	}
	if cookie, err := r.Cookie(StateCookieName); err == nil {
		params.BoundState = cookie.Value
	}

	// The state is single use whatever the outcome.
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set("Cache-Control", "no-store")

	result, err := h.auth.GoogleCallback(r.Context(), w, params)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "Login successful", User: result.User, Token: result.Token}, h.logger)
}

// callbackURL derives the OAuth redirect URI from the request as seen by the client
func callbackURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		scheme = strings.ToLower(strings.TrimSpace(first))
	}
	return scheme + "://" + r.Host + GoogleCallbackPath
}
