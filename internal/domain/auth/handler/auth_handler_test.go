package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/presenter"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/service"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/servicetest"
	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
)

// fakeAuth treats the X-Test-User header as an authenticated user id.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Test-User")
		if id == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(interceptors.WithUser(r.Context(), id, "", "STUDENT")))
	})
}

func newTestRouter(svc *service.AuthService) http.Handler {
	h := NewAuthHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) { h.Routes(r, fakeAuth) })
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	svc, repo, tokens, _ := servicetest.NewTestAuthService()
	router := newTestRouter(svc)

	tokens.GenerateFunc = func(_, _, _ string) (*service.TokenPair, error) {
		return &service.TokenPair{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			ExpiresAt:    time.Now().Add(time.Hour),
			TokenType:    "Bearer",
		}, nil
	}

	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"email":"new@example.com","password":"Str0ngPass","first_name":"New","role":"LANDLORD"}`,
		map[string]string{"User-Agent": "http-test-agent"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body presenter.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "access-token", body.Tokens.AccessToken)
	assert.Equal(t, "LANDLORD", body.User.Role)

	require.Len(t, repo.Sessions, 1)
	for _, session := range repo.Sessions {
		require.NotNil(t, session.UserAgent)
		assert.Equal(t, "http-test-agent", *session.UserAgent)
		require.NotNil(t, session.ClientIP)
		assert.NotEmpty(t, *session.ClientIP)
	}
}

func TestAuthHandler_Register_InvalidInput(t *testing.T) {
	svc, repo, _, _ := servicetest.NewTestAuthService()
	router := newTestRouter(svc)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"missing fields", `{}`},
		{"bad email", `{"email":"nope","password":"Str0ngPass"}`},
		{"admin role", `{"email":"a@example.com","password":"Str0ngPass","role":"ADMIN"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/auth/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, repo.Users)
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	svc, repo, _, _ := servicetest.NewTestAuthService()
	servicetest.AddUser(repo, t, "taken@example.com", true, "hashed")
	router := newTestRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"email":"taken@example.com","password":"Str0ngPass"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	svc, repo, tokens, _ := servicetest.NewTestAuthService()
	router := newTestRouter(svc)
	servicetest.AddUser(repo, t, "login@example.com", true, servicetest.MustHash(t, "Str0ngPass"))
	tokens.GenerateFunc = func(_, _, _ string) (*service.TokenPair, error) {
		return &service.TokenPair{
			AccessToken:  "login-access",
			RefreshToken: "login-refresh",
			ExpiresAt:    time.Now().Add(time.Hour),
		}, nil
	}

	rec := doJSON(t, router, http.MethodPost, "/auth/login",
		`{"email":"login@example.com","password":"Str0ngPass"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body presenter.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "login-access", body.Tokens.AccessToken)
	assert.Equal(t, "login-refresh", body.Tokens.RefreshToken)
	assert.Equal(t, "Bearer", body.Tokens.TokenType)
	assert.Len(t, repo.Sessions, 1)

	rec = doJSON(t, router, http.MethodPost, "/auth/login",
		`{"email":"login@example.com","password":"WrongPass1"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	ctx := context.Background()
	svc, repo, tokens, _ := servicetest.NewTestAuthService()
	router := newTestRouter(svc)
	user := servicetest.AddUser(repo, t, "refresh@example.com", true, "hashed")

	oldRefresh := "old-refresh"
	_, err := repo.CreateUserSession(ctx, user.ID, hashTestToken(oldRefresh), "agent", "ip", time.Now().Add(time.Hour))
	require.NoError(t, err)

	tokens.RefreshFunc = func(token string) (*service.Claims, error) {
		if token != oldRefresh {
			return nil, errors.New("unexpected token")
		}
		return &service.Claims{UserID: user.ID.String()}, nil
	}
	tokens.GenerateFunc = func(_, _, _ string) (*service.TokenPair, error) {
		return &service.TokenPair{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresAt:    time.Now().Add(time.Hour),
		}, nil
	}

	rec := doJSON(t, router, http.MethodPost, "/auth/refresh", `{"refresh_token":"old-refresh"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body presenter.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "new-refresh", body.RefreshToken)
	assert.Len(t, repo.Sessions, 1)
	assert.NotContains(t, repo.Sessions, hashTestToken(oldRefresh))
	assert.Contains(t, repo.Sessions, hashTestToken("new-refresh"))

	// The consumed token cannot be replayed.
	rec = doJSON(t, router, http.MethodPost, "/auth/refresh", `{"refresh_token":"old-refresh"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := servicetest.NewTestAuthService()
	router := newTestRouter(svc)
	user := servicetest.AddUser(repo, t, "logout@example.com", true, "hashed")
	_, err := repo.CreateUserSession(ctx, user.ID, hashTestToken("bye"), "agent", "ip", time.Now().Add(time.Hour))
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/auth/logout", `{"refresh_token":"bye"}`, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.Sessions)
}

func TestAuthHandler_Me(t *testing.T) {
	svc, repo, _, _ := servicetest.NewTestAuthService()
	router := newTestRouter(svc)
	user := servicetest.AddUser(repo, t, "me@example.com", true, "hashed")

	rec := doJSON(t, router, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/auth/me", "", map[string]string{"X-Test-User": user.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	var body presenter.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "me@example.com", body.Email)

	rec = doJSON(t, router, http.MethodPut, "/auth/me", `{"last_name":"Updated"}`,
		map[string]string{"X-Test-User": user.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.LastName)
	assert.Equal(t, "Updated", *body.LastName)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	svc, repo, _, _ := servicetest.NewTestAuthService()
	router := newTestRouter(svc)
	user := servicetest.AddUser(repo, t, "pw@example.com", true, servicetest.MustHash(t, "Str0ngPass"))
	headers := map[string]string{"X-Test-User": user.ID.String()}

	rec := doJSON(t, router, http.MethodPut, "/auth/me/password",
		`{"current_password":"wrong1","new_password":"NewPass22"}`, headers)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/auth/me/password",
		`{"current_password":"Str0ngPass","new_password":"NewPass22"}`, headers)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthHandler_GoogleToken(t *testing.T) {
	svc, _, _, oauth := servicetest.NewTestAuthService()
	router := newTestRouter(svc)
	oauth.User = &service.OAuthUser{
		Provider:       service.ProviderGoogle,
		ProviderUserID: "g-1",
		Email:          "g@example.com",
		EmailVerified:  true,
	}

	rec := doJSON(t, router, http.MethodPost, "/auth/google", `{"access_token":"ya29"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, oauth.Calls)
}

func hashTestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
