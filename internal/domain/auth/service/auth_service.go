package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/common"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/repository"
	"github.com/FACorreiaa/campusnest-api/pkg/observability"
)

const minPasswordLength = 6

type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	UserAgent string
	ClientIP  string
}

type RegisterResult struct {
	User   *repository.User
	Tokens *TokenPair
}

type LoginParams struct {
	Email     string
	Password  string
	UserAgent string
	ClientIP  string
}

type LoginResult struct {
	User   *repository.User
	Tokens *TokenPair
}

type RefreshTokenParams struct {
	RefreshToken string
	UserAgent    string
	ClientIP     string
}

type OAuthSignInParams struct {
	AccessToken string
	UserAgent   string
	ClientIP    string
}

// AuthService owns accounts, credentials and refresh sessions.
type AuthService struct {
	repo       repository.AuthRepository
	tokens     TokenManager
	oauth      OAuthProvider
	logger     *slog.Logger
	refreshTTL time.Duration
	tracer     trace.Tracer
}

// NewAuthService wires the service. oauth may be nil when Google sign-in is
// not configured.
func NewAuthService(repo repository.AuthRepository, tokens TokenManager, oauth OAuthProvider, logger *slog.Logger, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		repo:       repo,
		tokens:     tokens,
		oauth:      oauth,
		logger:     logger,
		refreshTTL: refreshTTL,
		tracer:     otel.Tracer("AuthService"),
	}
}

func (s *AuthService) RegisterUser(ctx context.Context, params RegisterParams) (*RegisterResult, error) {
	ctx, span := s.tracer.Start(ctx, "RegisterUser")
	defer span.End()
	l := s.logger.With(slog.String("method", "RegisterUser"))

	email, err := normalizeEmail(params.Email)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := validatePassword(params.Password); err != nil {
		span.RecordError(err)
		return nil, err
	}
	role, err := registrationRole(params.Role)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	hashed, err := HashPassword(params.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hash password")
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, email, hashed, optional(params.FirstName), optional(params.LastName), role)
	if err != nil {
		if !errors.Is(err, common.ErrUserAlreadyExists) {
			l.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
			span.SetStatus(codes.Error, "create user")
		}
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()), attribute.String("user.role", role))

	tokens, err := s.issueSession(ctx, user, params.UserAgent, params.ClientIP)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "issue session")
		return nil, err
	}

	l.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()), slog.String("role", role))
	span.SetStatus(codes.Ok, "")
	return &RegisterResult{User: user, Tokens: tokens}, nil
}

// Login answers every credential failure with the same error so callers
// cannot probe which emails exist.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "Login")
	defer span.End()
	l := s.logger.With(slog.String("method", "Login"))

	email := strings.ToLower(strings.TrimSpace(params.Email))
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			observability.AuthLogins.WithLabelValues("invalid_credentials").Inc()
			return nil, common.ErrInvalidCredentials
		}
		observability.AuthLogins.WithLabelValues("error").Inc()
		l.ErrorContext(ctx, "failed to load user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "load user")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(params.Password)); err != nil {
		observability.AuthLogins.WithLabelValues("invalid_credentials").Inc()
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsActive {
		observability.AuthLogins.WithLabelValues("invalid_credentials").Inc()
		return nil, common.ErrUserInactive
	}

	tokens, err := s.issueSession(ctx, user, params.UserAgent, params.ClientIP)
	if err != nil {
		observability.AuthLogins.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "issue session")
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		l.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	observability.AuthLogins.WithLabelValues("success").Inc()
	l.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID.String()))
	span.SetStatus(codes.Ok, "")
	return &LoginResult{User: user, Tokens: tokens}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return fmt.Errorf("refresh token is required: %w", common.ErrInvalidInput)
	}
	if err := s.repo.DeleteUserSession(ctx, hashToken(refreshToken)); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete session", slog.Any("error", err))
		return err
	}
	return nil
}

// RefreshTokens rotates a refresh session: the presented token is consumed
// and a new pair is issued.
func (s *AuthService) RefreshTokens(ctx context.Context, params RefreshTokenParams) (*TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "RefreshTokens")
	defer span.End()

	claims, err := s.tokens.ValidateRefreshToken(params.RefreshToken)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	hashed := hashToken(params.RefreshToken)
	session, err := s.repo.GetUserSessionByToken(ctx, hashed)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if session.UserID.String() != claims.UserID {
		return nil, common.ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !user.IsActive {
		return nil, common.ErrUserInactive
	}

	if err := s.repo.DeleteUserSession(ctx, hashed); err != nil {
		span.RecordError(err)
		return nil, err
	}

	tokens, err := s.issueSession(ctx, user, params.UserAgent, params.ClientIP)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "issue session")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return tokens, nil
}

// SignInWithGoogle verifies a Google access token obtained by a client and
// signs the matching account in.
func (s *AuthService) SignInWithGoogle(ctx context.Context, params OAuthSignInParams) (*LoginResult, error) {
	if s.oauth == nil {
		return nil, fmt.Errorf("google sign-in is not configured: %w", common.ErrOAuthUnavailable)
	}
	if params.AccessToken == "" {
		return nil, fmt.Errorf("access token is required: %w", common.ErrInvalidInput)
	}
	identity, err := s.oauth.FetchUser(ctx, params.AccessToken)
	if err != nil {
		return nil, err
	}
	return s.SignInOAuthUser(ctx, identity, params.UserAgent, params.ClientIP)
}

// SignInOAuthUser resolves an OAuth identity to an account. Known identities
// sign straight in; otherwise a verified email is linked to the existing
// account or a new student account is created.
func (s *AuthService) SignInOAuthUser(ctx context.Context, identity *OAuthUser, userAgent, clientIP string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "SignInOAuthUser", trace.WithAttributes(
		attribute.String("oauth.provider", identity.Provider),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "SignInOAuthUser"), slog.String("provider", identity.Provider))

	user, err := s.repo.GetUserByOAuthIdentity(ctx, identity.Provider, identity.ProviderUserID)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrUserNotFound):
		user, err = s.linkOrCreateOAuthUser(ctx, identity)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
	default:
		l.ErrorContext(ctx, "failed to look up oauth identity", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup identity")
		return nil, err
	}

	if !user.IsActive {
		return nil, common.ErrUserInactive
	}

	if err := s.repo.CreateOrUpdateOAuthIdentity(ctx, identity.Provider, identity.ProviderUserID, user.ID,
		optional(identity.AccessToken), optional(identity.RefreshToken)); err != nil {
		span.RecordError(err)
		return nil, err
	}

	tokens, err := s.issueSession(ctx, user, userAgent, clientIP)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		l.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	observability.AuthLogins.WithLabelValues("success").Inc()
	l.InfoContext(ctx, "oauth sign-in", slog.String("user_id", user.ID.String()))
	span.SetStatus(codes.Ok, "")
	return &LoginResult{User: user, Tokens: tokens}, nil
}

func (s *AuthService) linkOrCreateOAuthUser(ctx context.Context, identity *OAuthUser) (*repository.User, error) {
	if !identity.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}
	email, err := normalizeEmail(identity.Email)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrUserNotFound) {
		return nil, err
	}

	// OAuth-only accounts get an unusable random password.
	placeholder, err := HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}
	user, err := s.repo.CreateUser(ctx, email, placeholder, optional(identity.FirstName), optional(identity.LastName), common.RoleStudent)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsVerified = true
	return user, nil
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *AuthService) UpdateCurrentUser(ctx context.Context, userID uuid.UUID, firstName, lastName *string) (*repository.User, error) {
	return s.repo.UpdateUserNames(ctx, userID, firstName, lastName)
}

// ChangePassword revokes every session of the user on success.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	ctx, span := s.tracer.Start(ctx, "ChangePassword")
	defer span.End()

	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", common.ErrInvalidInput)
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(oldPassword)); err != nil {
		return common.ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hashed); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.repo.DeleteAllUserSessions(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", userID))
	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, user *repository.User, userAgent, clientIP string) (*TokenPair, error) {
	tokens, err := s.tokens.GenerateTokenPair(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	expiresAt := time.Now().Add(s.refreshTTL)
	if _, err := s.repo.CreateUserSession(ctx, user.ID, hashToken(tokens.RefreshToken), userAgent, clientIP, expiresAt); err != nil {
		return nil, err
	}
	return tokens, nil
}

// HashPassword hashes with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	at := strings.LastIndex(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return "", fmt.Errorf("email address is not valid: %w", common.ErrInvalidInput)
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, common.ErrInvalidInput)
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return fmt.Errorf("password must contain a letter and a digit: %w", common.ErrInvalidInput)
	}
	return nil
}

// registrationRole defaults to STUDENT. Admins are never self-registered.
func registrationRole(role string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case "", common.RoleStudent:
		return common.RoleStudent, nil
	case common.RoleLandlord:
		return common.RoleLandlord, nil
	default:
		return "", fmt.Errorf("role %q cannot be self-assigned: %w", role, common.ErrInvalidInput)
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
