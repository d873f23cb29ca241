package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/common"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/repository"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/service"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/servicetest"
	"github.com/FACorreiaa/campusnest-api/internal/types"
)

func janeParams() service.RegisterParams {
	return service.RegisterParams{
		Email:     "Jane@Example.com ",
		Password:  "Str0ngPass",
		FirstName: "Jane",
		LastName:  "Doe",
	}
}

func TestAuthService_RegisterUser_Success(t *testing.T) {
	ctx := context.Background()
	svc, repo, tokens, _ := servicetest.NewTestAuthService()

	expectedPair := &service.TokenPair{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour),
		TokenType:    "Bearer",
	}
	var gotRole string
	tokens.GenerateFunc = func(_, _, role string) (*service.TokenPair, error) {
		gotRole = role
		return expectedPair, nil
	}

	result, err := svc.RegisterUser(ctx, janeParams())
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	if result.Tokens.AccessToken != expectedPair.AccessToken {
		t.Fatalf("expected access token %q, got %q", expectedPair.AccessToken, result.Tokens.AccessToken)
	}
	if gotRole != common.RoleStudent {
		t.Fatalf("expected default role STUDENT, got %q", gotRole)
	}

	user, err := repo.GetUserByEmail(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("user persisted not found: %v", err)
	}
	if user.HashedPassword == "" || user.HashedPassword == "Str0ngPass" {
		t.Fatalf("expected hashed password to be stored")
	}
	if _, ok := repo.Sessions[hashTestToken("refresh-token")]; !ok {
		t.Fatalf("expected registration to open a session")
	}
}

func TestAuthService_RegisterUser_Landlord(t *testing.T) {
	svc, repo, _, _ := servicetest.NewTestAuthService()
	params := janeParams()
	params.Role = "landlord"

	if _, err := svc.RegisterUser(context.Background(), params); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if repo.Users["jane@example.com"].Role != common.RoleLandlord {
		t.Fatalf("expected LANDLORD role, got %q", repo.Users["jane@example.com"].Role)
	}
}

func TestAuthService_RegisterUser_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*service.RegisterParams)
	}{
		{"missing at", func(p *service.RegisterParams) { p.Email = "jane.example.com" }},
		{"missing domain dot", func(p *service.RegisterParams) { p.Email = "jane@example" }},
		{"short password", func(p *service.RegisterParams) { p.Password = "a1" }},
		{"password without digit", func(p *service.RegisterParams) { p.Password = "onlyletters" }},
		{"password without letter", func(p *service.RegisterParams) { p.Password = "12345678" }},
		{"admin role", func(p *service.RegisterParams) { p.Role = "ADMIN" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, _ := servicetest.NewTestAuthService()
			params := janeParams()
			tt.mutate(&params)

			_, err := svc.RegisterUser(context.Background(), params)
			if !errors.Is(err, types.ErrBadRequest) {
				t.Fatalf("expected bad request, got %v", err)
			}
			if len(repo.Users) != 0 {
				t.Fatalf("no user should be stored")
			}
		})
	}
}

func TestAuthService_RegisterUser_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := servicetest.NewTestAuthService()
	ctx := context.Background()
	if _, err := svc.RegisterUser(ctx, janeParams()); err != nil {
		t.Fatalf("unexpected error registering user: %v", err)
	}
	_, err := svc.RegisterUser(ctx, janeParams())
	if !errors.Is(err, common.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
	if !errors.Is(err, types.ErrConflict) {
		t.Fatalf("expected conflict in chain, got %v", err)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc, repo, _, _ := servicetest.NewTestAuthService()
	ctx := context.Background()
	if _, err := svc.RegisterUser(ctx, janeParams()); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(ctx, service.LoginParams{
		Email:    "jane@example.com",
		Password: "WrongPass1",
	})
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	user, _ := repo.GetUserByEmail(ctx, "jane@example.com")
	if user.LastLoginAt != nil {
		t.Fatalf("last login should not be updated on failed login")
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, _, _, _ := servicetest.NewTestAuthService()
	_, err := svc.Login(context.Background(), service.LoginParams{
		Email:    "nobody@example.com",
		Password: "Str0ngPass",
	})
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	svc, repo, _, _ := servicetest.NewTestAuthService()
	servicetest.AddUser(repo, t, "gone@example.com", false, servicetest.MustHash(t, "Str0ngPass"))

	_, err := svc.Login(context.Background(), service.LoginParams{
		Email:    "gone@example.com",
		Password: "Str0ngPass",
	})
	if !errors.Is(err, common.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
	if len(repo.Sessions) != 0 {
		t.Fatalf("inactive user must not get a session")
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	svc, repo, tokens, _ := servicetest.NewTestAuthService()
	if _, err := svc.RegisterUser(ctx, janeParams()); err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	tokens.GenerateFunc = func(_, _, _ string) (*service.TokenPair, error) {
		return &service.TokenPair{
			AccessToken:  "login-access",
			RefreshToken: "login-refresh",
			ExpiresAt:    time.Now().Add(time.Hour),
		}, nil
	}

	result, err := svc.Login(ctx, service.LoginParams{
		Email:     "JANE@example.com",
		Password:  "Str0ngPass",
		UserAgent: "test-agent",
		ClientIP:  "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Tokens.AccessToken != "login-access" {
		t.Fatalf("unexpected access token")
	}
	session, ok := repo.Sessions[hashTestToken("login-refresh")]
	if !ok {
		t.Fatalf("expected session stored")
	}
	if *session.UserAgent != "test-agent" || *session.ClientIP != "10.0.0.1" {
		t.Fatalf("session metadata not stored")
	}
	if repo.Users["jane@example.com"].LastLoginAt == nil {
		t.Fatalf("expected last login timestamp set")
	}
}

func TestAuthService_Logout_RemovesSession(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := servicetest.NewTestAuthService()
	user := servicetest.AddUser(repo, t, "logout@example.com", true, "hashed")
	hashed := hashTestToken("refresh-token")
	repo.Sessions[hashed] = &repository.UserSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	if err := svc.Logout(ctx, "refresh-token"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := repo.Sessions[hashed]; ok {
		t.Fatalf("session should be deleted")
	}
}

func TestAuthService_RefreshTokens_InvalidSession(t *testing.T) {
	ctx := context.Background()
	svc, repo, tokens, _ := servicetest.NewTestAuthService()
	user := servicetest.AddUser(repo, t, "refresh@example.com", true, "hashed")
	tokens.RefreshFunc = func(_ string) (*service.Claims, error) {
		return &service.Claims{UserID: user.ID.String()}, nil
	}

	_, err := svc.RefreshTokens(ctx, service.RefreshTokenParams{RefreshToken: "missing"})
	if !errors.Is(err, common.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestAuthService_RefreshTokens_Success(t *testing.T) {
	ctx := context.Background()
	svc, repo, tokens, _ := servicetest.NewTestAuthService()
	user := servicetest.AddUser(repo, t, "jane@example.com", true, "hashed")

	session := &repository.UserSession{
		ID:                 uuid.New(),
		UserID:             user.ID,
		HashedRefreshToken: hashTestToken("refresh-token"),
		ExpiresAt:          time.Now().Add(time.Hour),
	}
	repo.Sessions[session.HashedRefreshToken] = session

	tokens.RefreshFunc = func(token string) (*service.Claims, error) {
		if token != "refresh-token" {
			return nil, errors.New("unexpected token")
		}
		return &service.Claims{UserID: user.ID.String()}, nil
	}
	tokens.GenerateFunc = func(_, _, _ string) (*service.TokenPair, error) {
		return &service.TokenPair{
			AccessToken:  "access-new",
			RefreshToken: "refresh-new",
			ExpiresAt:    time.Now().Add(2 * time.Hour),
		}, nil
	}

	res, err := svc.RefreshTokens(ctx, service.RefreshTokenParams{RefreshToken: "refresh-token"})
	if err != nil {
		t.Fatalf("RefreshTokens: %v", err)
	}
	if res.AccessToken != "access-new" {
		t.Fatalf("unexpected access token %s", res.AccessToken)
	}
	if _, ok := repo.Sessions[hashTestToken("refresh-token")]; ok {
		t.Fatalf("old session should be deleted")
	}
	if _, ok := repo.Sessions[hashTestToken("refresh-new")]; !ok {
		t.Fatalf("new session should be created")
	}
}

func TestAuthService_RefreshTokens_ForeignSession(t *testing.T) {
	ctx := context.Background()
	svc, repo, tokens, _ := servicetest.NewTestAuthService()
	owner := servicetest.AddUser(repo, t, "owner@example.com", true, "hashed")
	repo.Sessions[hashTestToken("refresh-token")] = &repository.UserSession{
		ID:        uuid.New(),
		UserID:    owner.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	tokens.RefreshFunc = func(string) (*service.Claims, error) {
		return &service.Claims{UserID: uuid.NewString()}, nil
	}

	_, err := svc.RefreshTokens(ctx, service.RefreshTokenParams{RefreshToken: "refresh-token"})
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_ChangePassword_Success(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := servicetest.NewTestAuthService()
	current := "Str0ngPass"
	hashed := servicetest.MustHash(t, current)
	user := servicetest.AddUser(repo, t, "changepass@example.com", true, hashed)
	repo.Sessions["session"] = &repository.UserSession{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	if err := svc.ChangePassword(ctx, user.ID.String(), current, "NewPass2"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if repo.Users[user.Email].HashedPassword == hashed {
		t.Fatalf("password hash should change")
	}
	if len(repo.Sessions) != 0 {
		t.Fatalf("sessions should be cleared")
	}
}

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	svc, repo, _, _ := servicetest.NewTestAuthService()
	hashed := servicetest.MustHash(t, "Str0ngPass")
	user := servicetest.AddUser(repo, t, "changepass@example.com", true, hashed)

	err := svc.ChangePassword(context.Background(), user.ID.String(), "nope1234", "NewPass2")
	if !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if repo.Users[user.Email].HashedPassword != hashed {
		t.Fatalf("password should be unchanged")
	}
}

func TestAuthService_SignInWithGoogle_CreatesStudent(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, oauth := servicetest.NewTestAuthService()
	oauth.User = &service.OAuthUser{
		Provider:       service.ProviderGoogle,
		ProviderUserID: "google-123",
		Email:          "New@Example.com",
		EmailVerified:  true,
		FirstName:      "New",
		LastName:       "Student",
	}

	result, err := svc.SignInWithGoogle(ctx, service.OAuthSignInParams{AccessToken: "goog"})
	if err != nil {
		t.Fatalf("SignInWithGoogle: %v", err)
	}
	if result.User.Role != common.RoleStudent || !result.User.IsVerified {
		t.Fatalf("expected verified student, got %+v", result.User)
	}
	if _, ok := repo.Users["new@example.com"]; !ok {
		t.Fatalf("user should be created with normalized email")
	}

	// A second sign-in resolves through the linked identity.
	again, err := svc.SignInWithGoogle(ctx, service.OAuthSignInParams{AccessToken: "goog"})
	if err != nil {
		t.Fatalf("second SignInWithGoogle: %v", err)
	}
	if again.User.ID != result.User.ID {
		t.Fatalf("expected same account on second sign-in")
	}
	if len(repo.Users) != 1 {
		t.Fatalf("expected a single account, got %d", len(repo.Users))
	}
}

func TestAuthService_SignInWithGoogle_LinksExistingEmail(t *testing.T) {
	svc, repo, _, oauth := servicetest.NewTestAuthService()
	existing := servicetest.AddUser(repo, t, "jane@example.com", true, "hashed")
	oauth.User = &service.OAuthUser{
		Provider:       service.ProviderGoogle,
		ProviderUserID: "google-jane",
		Email:          "jane@example.com",
		EmailVerified:  true,
	}

	result, err := svc.SignInWithGoogle(context.Background(), service.OAuthSignInParams{AccessToken: "goog"})
	if err != nil {
		t.Fatalf("SignInWithGoogle: %v", err)
	}
	if result.User.ID != existing.ID {
		t.Fatalf("expected existing account to be linked")
	}
}

func TestAuthService_SignInWithGoogle_UnverifiedEmail(t *testing.T) {
	svc, repo, _, oauth := servicetest.NewTestAuthService()
	oauth.User = &service.OAuthUser{
		Provider:       service.ProviderGoogle,
		ProviderUserID: "google-x",
		Email:          "x@example.com",
	}

	_, err := svc.SignInWithGoogle(context.Background(), service.OAuthSignInParams{AccessToken: "goog"})
	if !errors.Is(err, common.ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	if len(repo.Users) != 0 {
		t.Fatalf("no account should be created")
	}
}

func TestAuthService_SignInWithGoogle_ProviderDown(t *testing.T) {
	svc, _, _, oauth := servicetest.NewTestAuthService()
	oauth.Err = common.ErrOAuthUnavailable

	_, err := svc.SignInWithGoogle(context.Background(), service.OAuthSignInParams{AccessToken: "goog"})
	if !errors.Is(err, types.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestAuthService_UpdateCurrentUser(t *testing.T) {
	svc, repo, _, _ := servicetest.NewTestAuthService()
	user := servicetest.AddUser(repo, t, "jane@example.com", true, "hashed")
	first := "Janet"

	updated, err := svc.UpdateCurrentUser(context.Background(), user.ID, &first, nil)
	if err != nil {
		t.Fatalf("UpdateCurrentUser: %v", err)
	}
	if *updated.FirstName != "Janet" || *updated.LastName != "User" {
		t.Fatalf("unexpected names %q %q", *updated.FirstName, *updated.LastName)
	}
}

func hashTestToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
