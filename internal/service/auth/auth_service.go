package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"moviedash/internal/domain"
	"moviedash/internal/repository"
	apperrors "moviedash/pkg/errors"
	"moviedash/pkg/logger"
)

// EventRecorder counts authentication outcomes
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

// Service implements registration, login, logout and the Google flow
type Service struct {
	users    repository.UserRepository
	hasher   *PasswordHasher
	sessions SessionStrategy
	google   *GoogleClient
	events   EventRecorder
	logger   *logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates the auth service. events may be nil.
func NewService(users repository.UserRepository, hasher *PasswordHasher, sessions SessionStrategy, google *GoogleClient, events EventRecorder, log *logger.Logger) *Service {
	if events == nil {
		events = nopRecorder{}
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		google:   google,
		events:   events,
		logger:   log,
	}
}

// Register creates a password account. It does not start a session.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserSummary, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.events.AuthEvent("register", "duplicate_email")
		return nil, domain.ErrDuplicateEmail
	}

	existing, err = s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.events.AuthEvent("register", "duplicate_username")
		return nil, domain.ErrDuplicateUsername
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        req.Email,
		Username:     &req.Username,
		PasswordHash: &hash,
	}
	// The pre-checks above race with concurrent registrations; the unique
	// constraints decide and Create reports the loser as a duplicate.
	if err := s.users.Create(ctx, user); err != nil {
		s.events.AuthEvent("register", "error")
		return nil, err
	}

	s.events.AuthEvent("register", "success")
	s.logger.WithField("user_id", user.ID).Info("User registered")
	return user.Summary(), nil
}

// Login verifies a password and starts a session
func (s *Service) Login(ctx context.Context, w http.ResponseWriter, req domain.LoginRequest) (*domain.LoginResult, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, apperrors.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.HasPassword() {
		// Burn a comparison so unknown emails take as long as wrong passwords.
		s.hasher.Verify(req.Password, s.placeholderHash())
		s.events.AuthEvent("login", "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Verify(req.Password, *user.PasswordHash) {
		s.events.AuthEvent("login", "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.sessions.Establish(ctx, w, user.ID)
	if err != nil {
		return nil, err
	}

	s.events.AuthEvent("login", "success")
	s.logger.WithField("user_id", user.ID).Info("User logged in")
	return &domain.LoginResult{User: user.Summary(), Token: token}, nil
}

// Logout ends the current session. It succeeds even without a session.
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) error {
	if err := s.sessions.Revoke(w, r); err != nil {
		s.logger.WithError(err).Warn("Failed to revoke session")
		return err
	}
	s.events.AuthEvent("logout", "success")
	return nil
}

// Authenticate resolves the request's session to token claims
func (s *Service) Authenticate(r *http.Request) (*Claims, error) {
	return s.sessions.Authenticate(r)
}

// Me returns the authenticated user's public summary
func (s *Service) Me(ctx context.Context, userID string) (*domain.UserSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return user.Summary(), nil
}

// GoogleAuthURL starts the Google flow and returns the URL and the state to bind to the browser
func (s *Service) GoogleAuthURL(ctx context.Context, requestRedirect string) (string, string, error) {
	return s.google.AuthorizationURL(ctx, requestRedirect)
}

// GoogleCallback completes the Google flow, resolves the local user and starts a session
func (s *Service) GoogleCallback(ctx context.Context, w http.ResponseWriter, p CallbackParams) (*domain.LoginResult, error) {
	identity, err := s.google.Exchange(ctx, p)
	if err != nil {
		var appErr *apperrors.AppError
		outcome := "error"
		if errors.As(err, &appErr) {
			outcome = string(appErr.Type)
		}
		s.events.AuthEvent("google_callback", outcome)
		return nil, err
	}

	user, err := s.resolveGoogleUser(ctx, identity)
	if err != nil {
		s.events.AuthEvent("google_callback", "error")
		return nil, err
	}

	if identity.Name != "" || identity.Picture != "" {
		if err := s.users.UpdateProfile(ctx, user.ID, identity.Name, identity.Picture); err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to record Google profile")
		}
	}

	token, err := s.sessions.Establish(ctx, w, user.ID)
	if err != nil {
		return nil, err
	}

	s.events.AuthEvent("google_callback", "success")
	s.logger.WithField("user_id", user.ID).Info("User logged in with Google")
	return &domain.LoginResult{User: user.Summary(), Token: token}, nil
}

// resolveGoogleUser finds the user for a Google identity, linking a verified
// email to an existing password account or creating a new user. A new user
// takes the display name, then the name with a subject suffix, then no
// username at all.
func (s *Service) resolveGoogleUser(ctx context.Context, id *domain.GoogleIdentity) (*domain.User, error) {
	user, err := s.users.GetByGoogleSubject(ctx, id.Subject)
	if err != nil || user != nil {
		return user, err
	}

	user, err = s.users.GetByEmail(ctx, id.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return s.linkGoogleAccount(ctx, user, id)
	}

	name := googleUsername(id)
	suffixed := name + "-" + subjectSuffix(id.Subject)
	candidates := []*string{&name, &suffixed, nil}

	for i, candidate := range candidates {
		user = &domain.User{
			Email:         id.Email,
			Username:      candidate,
			GoogleSubject: &id.Subject,
		}

		err = s.users.Create(ctx, user)
		switch {
		case err == nil:
			s.logger.WithField("user_id", user.ID).Info("User created from Google account")
			return user, nil
		case errors.Is(err, domain.ErrDuplicateUsername) && i < len(candidates)-1:
			continue
		case errors.Is(err, domain.ErrDuplicateGoogleSubject), errors.Is(err, domain.ErrDuplicateEmail):
			// A concurrent callback for the same account won the insert.
			return s.lookupAfterConflict(ctx, id, err)
		default:
			return nil, err
		}
	}
	return nil, err
}

func (s *Service) linkGoogleAccount(ctx context.Context, user *domain.User, id *domain.GoogleIdentity) (*domain.User, error) {
	if user.GoogleSubject != nil || !id.EmailVerified {
		return nil, domain.ErrDuplicateEmail
	}

	user.GoogleSubject = &id.Subject
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateGoogleSubject) {
			return s.lookupAfterConflict(ctx, id, err)
		}
		return nil, err
	}
	s.logger.WithField("user_id", user.ID).Info("Google account linked to existing user")
	return user, nil
}

func (s *Service) lookupAfterConflict(ctx context.Context, id *domain.GoogleIdentity, conflict error) (*domain.User, error) {
	user, err := s.users.GetByGoogleSubject(ctx, id.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, conflict
	}
	return user, nil
}

func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("moviedash-placeholder-password")
	})
	return s.dummyHash
}

func validateRegistration(req domain.RegisterRequest) error {
	switch {
	case strings.TrimSpace(req.Username) == "":
		return apperrors.NewValidationError("Username is required")
	case strings.TrimSpace(req.Email) == "":
		return apperrors.NewValidationError("Email is required")
	case !strings.Contains(req.Email, "@"):
		return apperrors.NewValidationError("Email is invalid")
	case req.Password == "":
		return apperrors.NewValidationError("Password is required")
	}
	return nil
}

func googleUsername(id *domain.GoogleIdentity) string {
	if name := strings.TrimSpace(id.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(id.Email, "@")
	return local
}

func subjectSuffix(subject string) string {
	if len(subject) <= 6 {
		return subject
	}
	return subject[len(subject)-6:]
}
