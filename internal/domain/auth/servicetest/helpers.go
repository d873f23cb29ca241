// Package servicetest holds in-memory fakes for exercising the auth service.
package servicetest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/common"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/repository"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/service"
)

// MockTokenManager implements TokenManager for tests.
type MockTokenManager struct {
	GenerateFunc func(userID, email, role string) (*service.TokenPair, error)
	AccessFunc   func(token string) (*service.Claims, error)
	RefreshFunc  func(token string) (*service.Claims, error)
}

func (m *MockTokenManager) GenerateTokenPair(userID, email, role string) (*service.TokenPair, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(userID, email, role)
	}
	// Unique refresh tokens keep sessions from overwriting each other.
	return &service.TokenPair{
		AccessToken:  "access-" + uuid.NewString(),
		RefreshToken: "refresh-" + uuid.NewString(),
		ExpiresAt:    time.Now().Add(time.Hour),
		TokenType:    "Bearer",
	}, nil
}

func (m *MockTokenManager) ValidateAccessToken(tokenString string) (*service.Claims, error) {
	if m.AccessFunc != nil {
		return m.AccessFunc(tokenString)
	}
	return &service.Claims{UserID: "user"}, nil
}

func (m *MockTokenManager) ValidateRefreshToken(tokenString string) (*service.Claims, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(tokenString)
	}
	return &service.Claims{UserID: "user"}, nil
}

// MockOAuthProvider returns a canned identity.
type MockOAuthProvider struct {
	User  *service.OAuthUser
	Err   error
	Calls int
}

func (m *MockOAuthProvider) Name() string { return service.ProviderGoogle }

func (m *MockOAuthProvider) FetchUser(_ context.Context, _ string) (*service.OAuthUser, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.User, nil
}

type identityKey struct {
	provider string
	subject  string
}

// MockAuthRepo is an in-memory AuthRepository. Users are keyed by email and
// sessions by hashed refresh token.
type MockAuthRepo struct {
	Users      map[string]*repository.User
	Sessions   map[string]*repository.UserSession
	Identities map[identityKey]uuid.UUID
}

var _ repository.AuthRepository = (*MockAuthRepo)(nil)

func NewMockAuthRepo() *MockAuthRepo {
	return &MockAuthRepo{
		Users:      make(map[string]*repository.User),
		Sessions:   make(map[string]*repository.UserSession),
		Identities: make(map[identityKey]uuid.UUID),
	}
}

func (m *MockAuthRepo) CreateUser(_ context.Context, email, hashedPassword string, firstName, lastName *string, role string) (*repository.User, error) {
	if _, exists := m.Users[email]; exists {
		return nil, common.ErrUserAlreadyExists
	}
	user := &repository.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashedPassword,
		FirstName:      firstName,
		LastName:       lastName,
		Role:           role,
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	m.Users[email] = user
	return CloneUser(user), nil
}

func (m *MockAuthRepo) GetUserByEmail(_ context.Context, email string) (*repository.User, error) {
	user, ok := m.Users[email]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return CloneUser(user), nil
}

func (m *MockAuthRepo) GetUserByID(_ context.Context, userID uuid.UUID) (*repository.User, error) {
	if user := m.byID(userID); user != nil {
		return CloneUser(user), nil
	}
	return nil, common.ErrUserNotFound
}

func (m *MockAuthRepo) UpdateLastLogin(_ context.Context, userID uuid.UUID) error {
	user := m.byID(userID)
	if user == nil {
		return common.ErrUserNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

func (m *MockAuthRepo) UpdateUserNames(_ context.Context, userID uuid.UUID, firstName, lastName *string) (*repository.User, error) {
	user := m.byID(userID)
	if user == nil {
		return nil, common.ErrUserNotFound
	}
	if firstName != nil {
		user.FirstName = firstName
	}
	if lastName != nil {
		user.LastName = lastName
	}
	user.UpdatedAt = time.Now()
	return CloneUser(user), nil
}

func (m *MockAuthRepo) UpdatePassword(_ context.Context, userID uuid.UUID, hashedPassword string) error {
	user := m.byID(userID)
	if user == nil {
		return common.ErrUserNotFound
	}
	user.HashedPassword = hashedPassword
	return nil
}

func (m *MockAuthRepo) MarkVerified(_ context.Context, userID uuid.UUID) error {
	user := m.byID(userID)
	if user == nil {
		return common.ErrUserNotFound
	}
	user.IsVerified = true
	return nil
}

func (m *MockAuthRepo) CreateUserSession(_ context.Context, userID uuid.UUID, hashedRefreshToken, userAgent, clientIP string, expiresAt time.Time) (*repository.UserSession, error) {
	session := &repository.UserSession{
		ID:                 uuid.New(),
		UserID:             userID,
		HashedRefreshToken: hashedRefreshToken,
		UserAgent:          &userAgent,
		ClientIP:           &clientIP,
		ExpiresAt:          expiresAt,
		CreatedAt:          time.Now(),
	}
	m.Sessions[hashedRefreshToken] = session
	return session, nil
}

func (m *MockAuthRepo) GetUserSessionByToken(_ context.Context, hashedToken string) (*repository.UserSession, error) {
	session, ok := m.Sessions[hashedToken]
	if !ok || session.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockAuthRepo) DeleteUserSession(_ context.Context, hashedToken string) error {
	delete(m.Sessions, hashedToken)
	return nil
}

func (m *MockAuthRepo) DeleteAllUserSessions(_ context.Context, userID uuid.UUID) error {
	for token, session := range m.Sessions {
		if session.UserID == userID {
			delete(m.Sessions, token)
		}
	}
	return nil
}

func (m *MockAuthRepo) CreateOrUpdateOAuthIdentity(_ context.Context, provider, providerUserID string, userID uuid.UUID, _, _ *string) error {
	m.Identities[identityKey{provider, providerUserID}] = userID
	return nil
}

func (m *MockAuthRepo) GetUserByOAuthIdentity(_ context.Context, provider, providerUserID string) (*repository.User, error) {
	id, ok := m.Identities[identityKey{provider, providerUserID}]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	if user := m.byID(id); user != nil {
		return CloneUser(user), nil
	}
	return nil, common.ErrUserNotFound
}

func (m *MockAuthRepo) byID(id uuid.UUID) *repository.User {
	for _, user := range m.Users {
		if user.ID == id {
			return user
		}
	}
	return nil
}

// NewTestAuthService bundles the mocks with a configured AuthService.
func NewTestAuthService() (*service.AuthService, *MockAuthRepo, *MockTokenManager, *MockOAuthProvider) {
	repo := NewMockAuthRepo()
	tokenManager := &MockTokenManager{}
	oauth := &MockOAuthProvider{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	authService := service.NewAuthService(repo, tokenManager, oauth, logger, time.Hour)
	return authService, repo, tokenManager, oauth
}

// CloneUser returns a copy of the provided user.
func CloneUser(u *repository.User) *repository.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// MustHash hashes a password for tests.
func MustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := service.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return hash
}

// AddUser inserts a student into the mock repo.
func AddUser(repo *MockAuthRepo, t *testing.T, email string, active bool, hashedPassword string) *repository.User {
	t.Helper()
	first, last := "Test", "User"
	user := &repository.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashedPassword,
		FirstName:      &first,
		LastName:       &last,
		Role:           common.RoleStudent,
		IsActive:       active,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	repo.Users[email] = user
	return user
}
