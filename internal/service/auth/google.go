package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"moviedash/internal/domain"
	apperrors "moviedash/pkg/errors"
	"moviedash/pkg/logger"
	"moviedash/pkg/redis"
)

// GoogleScopes are requested on every authorization
var GoogleScopes = []string{"openid", "email", "profile"}

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

var errGoogleNotConfigured = apperrors.NewInternalError("Google sign-in is not configured", nil)

// IDTokenValidator checks an ID token's signature, audience and expiry
type IDTokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// NewIDTokenValidator returns a validator that fetches Google's signing keys with httpClient
func NewIDTokenValidator(ctx context.Context, httpClient *http.Client) (IDTokenValidator, error) {
	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create id token validator: %w", err)
	}
	return v, nil
}

// GoogleConfig configures the authorization-code flow
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	// RedirectURL overrides the redirect derived from the incoming request.
	RedirectURL string
	HTTPTimeout time.Duration
	// Endpoint defaults to google.Endpoint.
	Endpoint oauth2.Endpoint
}

// CallbackParams are the query parameters of the provider redirect plus the
// state bound to the browser when the flow started.
type CallbackParams struct {
	Code          string
	State         string
	BoundState    string
	ProviderError string
}

// GoogleClient runs the OAuth2 authorization-code flow against Google
type GoogleClient struct {
	oauth       oauth2.Config
	redirectURL string
	validator   IDTokenValidator
	states      StateStore
	httpClient  *http.Client
	now         func() time.Time
	logger      *logger.Logger
}

// NewGoogleClient creates the OAuth client. A nil clock uses time.Now.
func NewGoogleClient(cfg GoogleConfig, validator IDTokenValidator, states StateStore, clock func() time.Time, log *logger.Logger) *GoogleClient {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if clock == nil {
		clock = time.Now
	}

	return &GoogleClient{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       GoogleScopes,
		},
		redirectURL: cfg.RedirectURL,
		validator:   validator,
		states:      states,
		httpClient:  &http.Client{Timeout: timeout},
		now:         clock,
		logger:      log,
	}
}

// AuthorizationURL starts a flow and returns the provider URL and its state.
// requestRedirect is used when no redirect URL is configured.
func (c *GoogleClient) AuthorizationURL(ctx context.Context, requestRedirect string) (string, string, error) {
	if c.oauth.ClientID == "" || c.oauth.ClientSecret == "" {
		return "", "", errGoogleNotConfigured
	}

	state, err := randomState()
	if err != nil {
		return "", "", err
	}

	redirect := c.redirectURL
	if redirect == "" {
		redirect = requestRedirect
	}

	pending := &PendingAuthorization{
		State:        state,
		RedirectURI:  redirect,
		CodeVerifier: oauth2.GenerateVerifier(),
		CreatedAt:    c.now(),
	}
	if err := c.states.Save(ctx, pending, redis.TTLOAuthState); err != nil {
		return "", "", err
	}

	conf := c.oauth
	conf.RedirectURL = redirect
	url := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(pending.CodeVerifier),
	)
	return url, state, nil
}

// Exchange completes a flow. The pending state is consumed before anything
// else so it can never be replayed, whatever the outcome.
func (c *GoogleClient) Exchange(ctx context.Context, p CallbackParams) (*domain.GoogleIdentity, error) {
	if p.State == "" {
		return nil, domain.ErrStateMismatch
	}

	pending, err := c.states.Consume(ctx, p.State)
	if err != nil {
		return nil, err
	}
	if pending == nil || subtle.ConstantTimeCompare([]byte(p.State), []byte(p.BoundState)) != 1 {
		return nil, domain.ErrStateMismatch
	}

	if p.ProviderError != "" {
		return nil, domain.ErrAuthorizationDenied.WithInternal(errors.New(p.ProviderError))
	}
	if p.Code == "" {
		return nil, domain.ErrInvalidGrant
	}

	conf := c.oauth
	conf.RedirectURL = pending.RedirectURI
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := conf.Exchange(ctx, p.Code, oauth2.VerifierOption(pending.CodeVerifier))
	if err != nil {
		return nil, classifyExchangeError(err)
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, domain.ErrInvalidIDToken.WithInternal(errors.New("token response has no id_token"))
	}
	return c.verifyIDToken(ctx, rawIDToken)
}

func (c *GoogleClient) verifyIDToken(ctx context.Context, raw string) (*domain.GoogleIdentity, error) {
	payload, err := c.validator.Validate(ctx, raw, c.oauth.ClientID)
	if err != nil {
		return nil, domain.ErrInvalidIDToken.WithInternal(err)
	}

	switch {
	case !googleIssuers[payload.Issuer]:
		return nil, domain.ErrInvalidIDToken.WithInternal(fmt.Errorf("unexpected issuer %q", payload.Issuer))
	case payload.Audience != c.oauth.ClientID:
		return nil, domain.ErrInvalidIDToken.WithInternal(errors.New("audience mismatch"))
	case payload.Expires <= c.now().Unix():
		return nil, domain.ErrInvalidIDToken.WithInternal(errors.New("id token expired"))
	case payload.Subject == "":
		return nil, domain.ErrInvalidIDToken.WithInternal(errors.New("id token has no subject"))
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, domain.ErrInvalidIDToken.WithInternal(errors.New("id token has no email"))
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &domain.GoogleIdentity{
		Subject:       payload.Subject,
		Email:         email,
		EmailVerified: claimBool(payload.Claims["email_verified"]),
		Name:          name,
		Picture:       picture,
	}, nil
}

// classifyExchangeError separates provider outages from rejected codes.
// Network errors, timeouts and 5xx responses are upstream failures.
func classifyExchangeError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		if rErr.Response != nil && rErr.Response.StatusCode >= http.StatusInternalServerError {
			return domain.ErrUpstreamUnavailable.WithInternal(err)
		}
		return domain.ErrInvalidGrant.WithInternal(err)
	}
	return domain.ErrUpstreamUnavailable.WithInternal(err)
}

// claimBool reads a boolean claim that Google may encode as a string
func claimBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	default:
		return false
	}
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
