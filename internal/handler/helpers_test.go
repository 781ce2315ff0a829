package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"moviedash/internal/domain"
	"moviedash/internal/middleware"
	"moviedash/internal/service/auth"
)

const testUserID = "7b0c3f52-7f0e-4d0e-9a57-0d6f3c1f2a11"

// MockAuthService for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserSummary, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*domain.UserSummary)
	return user, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, w http.ResponseWriter, req domain.LoginRequest) (*domain.LoginResult, error) {
	args := m.Called(ctx, w, req)
	result, _ := args.Get(0).(*domain.LoginResult)
	return result, args.Error(1)
}

func (m *MockAuthService) Logout(w http.ResponseWriter, r *http.Request) error {
	args := m.Called(w, r)
	return args.Error(0)
}

func (m *MockAuthService) Authenticate(r *http.Request) (*auth.Claims, error) {
	args := m.Called(r)
	claims, _ := args.Get(0).(*auth.Claims)
	return claims, args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*domain.UserSummary, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*domain.UserSummary)
	return user, args.Error(1)
}

func (m *MockAuthService) GoogleAuthURL(ctx context.Context, requestRedirect string) (string, string, error) {
	args := m.Called(ctx, requestRedirect)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAuthService) GoogleCallback(ctx context.Context, w http.ResponseWriter, p auth.CallbackParams) (*domain.LoginResult, error) {
	args := m.Called(ctx, w, p)
	result, _ := args.Get(0).(*domain.LoginResult)
	return result, args.Error(1)
}

// jsonRequest builds a request with a JSON body
func jsonRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser marks the request as authenticated, as the Auth middleware would
func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

// withURLParams attaches chi route parameters to the request
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

type errorBody struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	decodeBody(t, w, &body)
	return body
}
