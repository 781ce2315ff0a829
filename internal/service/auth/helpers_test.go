package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"

	"moviedash/internal/domain"
	"moviedash/pkg/logger"
	"moviedash/pkg/redis"
)

const (
	testClientID     = "client-123.apps.googleusercontent.com"
	testClientSecret = "client-secret"
)

// fakeUserRepo enforces the same uniqueness rules as the users table
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	now   func() time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User), now: time.Now}
}

func (f *fakeUserRepo) find(match func(domain.User) bool) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := u
			return &cp
		}
	}
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.ID == id }), nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.Email == email }), nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.Username != nil && *u.Username == username }), nil
}

func (f *fakeUserRepo) GetByGoogleSubject(_ context.Context, subject string) (*domain.User, error) {
	return f.find(func(u domain.User) bool { return u.GoogleSubject != nil && *u.GoogleSubject == subject }), nil
}

func (f *fakeUserRepo) conflict(candidate domain.User) error {
	for id, u := range f.users {
		if id == candidate.ID {
			continue
		}
		switch {
		case u.Email == candidate.Email:
			return domain.ErrDuplicateEmail
		case u.Username != nil && candidate.Username != nil && *u.Username == *candidate.Username:
			return domain.ErrDuplicateUsername
		case u.GoogleSubject != nil && candidate.GoogleSubject != nil && *u.GoogleSubject == *candidate.GoogleSubject:
			return domain.ErrDuplicateGoogleSubject
		}
	}
	return nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := f.conflict(*user); err != nil {
		return err
	}
	user.CreatedAt = f.now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[user.ID]; !ok {
		return errors.New("user not found")
	}
	if err := f.conflict(*user); err != nil {
		return err
	}
	user.UpdatedAt = f.now()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id, name, picture string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return errors.New("user not found")
	}
	if name != "" {
		u.Name = &name
	}
	if picture != "" {
		u.Picture = &picture
	}
	f.users[id] = u
	return nil
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// fakeValidator returns canned payloads keyed by raw ID token
type fakeValidator struct {
	mu       sync.Mutex
	payloads map[string]*idtoken.Payload
}

func newFakeValidator() *fakeValidator {
	return &fakeValidator{payloads: make(map[string]*idtoken.Payload)}
}

func (v *fakeValidator) add(raw string, p *idtoken.Payload) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.payloads[raw] = p
}

func (v *fakeValidator) Validate(_ context.Context, raw, audience string) (*idtoken.Payload, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.payloads[raw]
	if !ok {
		return nil, errors.New("idtoken: invalid token signature")
	}
	if audience != testClientID {
		return nil, errors.New("idtoken: audience provided does not match aud claim in the JWT")
	}
	return p, nil
}

func googlePayload(clock *fakeClock, subject, email, name string, verified bool) *idtoken.Payload {
	return &idtoken.Payload{
		Issuer:   "https://accounts.google.com",
		Audience: testClientID,
		Expires:  clock.now.Add(time.Hour).Unix(),
		IssuedAt: clock.now.Unix(),
		Subject:  subject,
		Claims: map[string]interface{}{
			"email":          email,
			"email_verified": verified,
			"name":           name,
		},
	}
}

// tokenServer is a fake OAuth token endpoint. Each code maps to an ID token.
type tokenServer struct {
	*httptest.Server
	hits    atomic.Int32
	handler atomic.Value
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.setHandler(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code_verifier") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
			return
		}
		code := r.PostForm.Get("code")
		if code == "bad-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-` + code + `","token_type":"Bearer","expires_in":3600,"id_token":"idt-` + code + `"}`))
	})
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		ts.handler.Load().(http.HandlerFunc)(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) setHandler(h http.HandlerFunc) {
	ts.handler.Store(h)
}

func (ts *tokenServer) endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   "https://accounts.example.test/o/oauth2/auth",
		TokenURL:  ts.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

type googleFixture struct {
	clock     *fakeClock
	users     *fakeUserRepo
	validator *fakeValidator
	states    *MemoryStateStore
	server    *tokenServer
	issuer    *TokenIssuer
	client    *GoogleClient
	service   *Service
}

func newGoogleFixture(t *testing.T) *googleFixture {
	t.Helper()
	f := &googleFixture{
		clock:     newTestClock(),
		users:     newFakeUserRepo(),
		validator: newFakeValidator(),
		server:    newTokenServer(t),
	}
	f.states = NewMemoryStateStore(f.clock.Now)
	f.issuer = NewTokenIssuer(testSecret, f.clock.Now)
	f.client = NewGoogleClient(GoogleConfig{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		HTTPTimeout:  2 * time.Second,
		Endpoint:     f.server.endpoint(),
	}, f.validator, f.states, f.clock.Now, logger.NewNop())
	f.service = NewService(
		f.users,
		NewPasswordHasher(bcrypt.MinCost),
		NewBearerSessions(f.issuer, nil, logger.NewNop()),
		f.client,
		nil,
		logger.NewNop(),
	)
	return f
}

// start begins a flow and returns the issued state
func (f *googleFixture) start(t *testing.T) string {
	t.Helper()
	_, state, err := f.client.AuthorizationURL(context.Background(), "http://localhost:8080/auth/google/callback")
	if err != nil {
		t.Fatalf("start flow: %v", err)
	}
	return state
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}
