package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/common"
)

// User is the account row.
type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FirstName      *string
	LastName       *string
	Role           string
	IsActive       bool
	IsVerified     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastLoginAt    *time.Time
}

// UserSession is a refresh-token session; only the token hash is stored.
type UserSession struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	HashedRefreshToken string
	UserAgent          *string
	ClientIP           *string
	ExpiresAt          time.Time
	CreatedAt          time.Time
}

type AuthRepository interface {
	CreateUser(ctx context.Context, email, hashedPassword string, firstName, lastName *string, role string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error)
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	UpdateUserNames(ctx context.Context, userID uuid.UUID, firstName, lastName *string) (*User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
	MarkVerified(ctx context.Context, userID uuid.UUID) error

	CreateUserSession(ctx context.Context, userID uuid.UUID, hashedRefreshToken, userAgent, clientIP string, expiresAt time.Time) (*UserSession, error)
	GetUserSessionByToken(ctx context.Context, hashedToken string) (*UserSession, error)
	DeleteUserSession(ctx context.Context, hashedToken string) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error

	CreateOrUpdateOAuthIdentity(ctx context.Context, provider, providerUserID string, userID uuid.UUID, accessToken, refreshToken *string) error
	GetUserByOAuthIdentity(ctx context.Context, provider, providerUserID string) (*User, error)
}

var _ AuthRepository = (*PostgresAuthRepository)(nil)

// PostgresAuthRepository runs on database/sql over the pgx stdlib driver.
type PostgresAuthRepository struct {
	db *sql.DB
}

func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{db: db}
}

const userColumns = `id, email, hashed_password, first_name, last_name, role,
		       is_active, is_verified, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FirstName, &u.LastName, &u.Role,
		&u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresAuthRepository) CreateUser(ctx context.Context, email, hashedPassword string, firstName, lastName *string, role string) (*User, error) {
	user := &User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashedPassword,
		FirstName:      firstName,
		LastName:       lastName,
		Role:           role,
		IsActive:       true,
	}

	query := `
		INSERT INTO users (id, email, hashed_password, first_name, last_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, user.ID, email, hashedPassword, firstName, lastName, role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdateUserNames only overwrites the names that are non-nil.
func (r *PostgresAuthRepository) UpdateUserNames(ctx context.Context, userID uuid.UUID, firstName, lastName *string) (*User, error) {
	query := `
		UPDATE users
		SET first_name = COALESCE($1, first_name),
		    last_name = COALESCE($2, last_name),
		    updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, firstName, lastName, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET hashed_password = $1, updated_at = NOW() WHERE id = $2`, hashedPassword, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

func (r *PostgresAuthRepository) MarkVerified(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepository) CreateUserSession(ctx context.Context, userID uuid.UUID, hashedRefreshToken, userAgent, clientIP string, expiresAt time.Time) (*UserSession, error) {
	session := &UserSession{
		ID:                 uuid.New(),
		UserID:             userID,
		HashedRefreshToken: hashedRefreshToken,
		UserAgent:          &userAgent,
		ClientIP:           &clientIP,
		ExpiresAt:          expiresAt,
	}

	query := `
		INSERT INTO user_sessions (id, user_id, hashed_refresh_token, user_agent, client_ip, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, session.ID, userID, hashedRefreshToken, userAgent, clientIP, expiresAt).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (r *PostgresAuthRepository) GetUserSessionByToken(ctx context.Context, hashedToken string) (*UserSession, error) {
	query := `
		SELECT id, user_id, hashed_refresh_token, user_agent, client_ip, expires_at, created_at
		FROM user_sessions
		WHERE hashed_refresh_token = $1 AND expires_at > $2
	`
	var s UserSession
	err := r.db.QueryRowContext(ctx, query, hashedToken, time.Now()).
		Scan(&s.ID, &s.UserID, &s.HashedRefreshToken, &s.UserAgent, &s.ClientIP, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (r *PostgresAuthRepository) DeleteUserSession(ctx context.Context, hashedToken string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE hashed_refresh_token = $1`, hashedToken); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepository) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepository) CreateOrUpdateOAuthIdentity(ctx context.Context, provider, providerUserID string, userID uuid.UUID, accessToken, refreshToken *string) error {
	query := `
		INSERT INTO user_oauth_identities (provider_name, provider_user_id, user_id, access_token, refresh_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_name, provider_user_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, user_oauth_identities.refresh_token),
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, provider, providerUserID, userID, accessToken, refreshToken); err != nil {
		return fmt.Errorf("failed to link oauth identity: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepository) GetUserByOAuthIdentity(ctx context.Context, provider, providerUserID string) (*User, error) {
	query := `
		SELECT u.id, u.email, u.hashed_password, u.first_name, u.last_name, u.role,
		       u.is_active, u.is_verified, u.created_at, u.updated_at, u.last_login_at
		FROM users u
		INNER JOIN user_oauth_identities o ON u.id = o.user_id
		WHERE o.provider_name = $1 AND o.provider_user_id = $2
	`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, provider, providerUserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by oauth identity: %w", err)
	}
	return user, nil
}
