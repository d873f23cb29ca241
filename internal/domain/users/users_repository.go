package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/db"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository defines the contract for user account and profile persistence.
type Repository interface {
	// GetUser returns the account or types.ErrNotFound.
	GetUser(ctx context.Context, userID uuid.UUID) (*types.UserSummary, error)
	// GetProfile returns the profile or types.ErrNotFound when none was created.
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	// CreateProfile returns types.ErrConflict when the user already has one.
	CreateProfile(ctx context.Context, userID uuid.UUID, fields types.UserProfileFields) (*types.UserProfile, error)
	// UpdateProfile writes only the non-nil fields.
	UpdateProfile(ctx context.Context, userID uuid.UUID, fields types.UserProfileFields) (*types.UserProfile, error)

	ListByRole(ctx context.Context, role string) ([]types.UserSummary, error)
	ListByUniversity(ctx context.Context, university string) ([]types.UserProfile, error)
	ListByCity(ctx context.Context, city string) ([]types.UserProfile, error)

	VerifyUser(ctx context.Context, userID uuid.UUID) error
	// DeactivateUser marks the account inactive and drops its sessions.
	DeactivateUser(ctx context.Context, userID uuid.UUID) error
	ReactivateUser(ctx context.Context, userID uuid.UUID) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool db.Querier
}

func NewRepositoryImpl(pgpool db.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var profileColumns = []string{
	"id", "user_id", "first_name", "last_name", "phone", "date_of_birth", "bio",
	"profile_image_url", "university_name", "major", "graduation_year",
	"address", "city", "state", "zip_code", "created_at", "updated_at",
}

const summaryColumns = "id, email, first_name, last_name, role, is_active, is_verified, created_at"

func profileTargets(p *types.UserProfile) []any {
	return []any{
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Phone, &p.DateOfBirth, &p.Bio,
		&p.ProfileImageURL, &p.UniversityName, &p.Major, &p.GraduationYear,
		&p.Address, &p.City, &p.State, &p.ZipCode, &p.CreatedAt, &p.UpdatedAt,
	}
}

func summaryTargets(u *types.UserSummary) []any {
	return []any{&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.IsActive, &u.IsVerified, &u.CreatedAt}
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

func startSpan(ctx context.Context, op, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", table)}, attrs...)
	return otel.Tracer("UsersRepo").Start(ctx, op, trace.WithAttributes(attrs...))
}

// GetUser implements Repository.
func (r *RepositoryImpl) GetUser(ctx context.Context, userID uuid.UUID) (*types.UserSummary, error) {
	ctx, span := startSpan(ctx, "GetUser", "users", attribute.String("db.user.id", userID.String()))
	defer span.End()

	var u types.UserSummary
	err := r.pgpool.QueryRow(ctx, `SELECT `+summaryColumns+` FROM users WHERE id = $1`, userID).Scan(summaryTargets(&u)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "User not found")
			return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch user", slog.String("userID", userID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	span.SetStatus(codes.Ok, "User fetched")
	return &u, nil
}

// GetProfile implements Repository.
func (r *RepositoryImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	ctx, span := startSpan(ctx, "GetProfile", "user_profiles", attribute.String("db.user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Fetching user profile")

	query, args, err := psql.Select(profileColumns...).From("user_profiles").
		Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build profile query: %w", err)
	}

	var p types.UserProfile
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(profileTargets(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Profile not found")
			return nil, fmt.Errorf("user profile not found: %w", types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to fetch user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching profile: %w", err)
	}

	span.SetStatus(codes.Ok, "Profile fetched")
	return &p, nil
}

// CreateProfile implements Repository.
func (r *RepositoryImpl) CreateProfile(ctx context.Context, userID uuid.UUID, f types.UserProfileFields) (*types.UserProfile, error) {
	ctx, span := startSpan(ctx, "CreateProfile", "user_profiles",
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Creating user profile")

	query := `
        INSERT INTO user_profiles (
            user_id, first_name, last_name, phone, date_of_birth, bio, profile_image_url,
            university_name, major, graduation_year, address, city, state, zip_code
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING ` + strings.Join(profileColumns, ", ")

	var p types.UserProfile
	err := r.pgpool.QueryRow(ctx, query,
		userID, f.FirstName, f.LastName, f.Phone, f.DateOfBirth, f.Bio, f.ProfileImageURL,
		f.UniversityName, f.Major, f.GraduationYear, f.Address, f.City, f.State, f.ZipCode,
	).Scan(profileTargets(&p)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				span.SetStatus(codes.Error, "Profile exists")
				return nil, fmt.Errorf("profile already exists for user: %w", types.ErrConflict)
			case "23503":
				span.SetStatus(codes.Error, "User missing")
				return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
			}
		}
		l.ErrorContext(ctx, "Failed to create user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating profile: %w", err)
	}

	l.InfoContext(ctx, "User profile created")
	span.SetStatus(codes.Ok, "Profile created")
	return &p, nil
}

// UpdateProfile implements Repository.
func (r *RepositoryImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, f types.UserProfileFields) (*types.UserProfile, error) {
	ctx, span := startSpan(ctx, "UpdateProfile", "user_profiles",
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateProfile"), slog.String("userID", userID.String()))

	set := profileSetMap(f)
	if len(set) == 0 {
		l.DebugContext(ctx, "UpdateProfile called with no fields, returning current profile")
		return r.GetProfile(ctx, userID)
	}
	for col := range set {
		span.SetAttributes(attribute.Bool("update."+col, true))
	}

	query, args, err := psql.Update("user_profiles").
		SetMap(set).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"user_id": userID}).
		Suffix("RETURNING " + strings.Join(profileColumns, ", ")).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build profile update: %w", err)
	}
	l.DebugContext(ctx, "Executing dynamic update query", slog.String("query", query), slog.Int("arg_count", len(args)))

	var p types.UserProfile
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(profileTargets(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Profile not found")
			return nil, fmt.Errorf("user profile not found: %w", types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to update user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating profile: %w", err)
	}

	l.InfoContext(ctx, "User profile updated")
	span.SetStatus(codes.Ok, "Profile updated")
	return &p, nil
}

func profileSetMap(f types.UserProfileFields) map[string]interface{} {
	set := map[string]interface{}{}
	add := func(col string, isSet bool, v any) {
		if isSet {
			set[col] = v
		}
	}
	add("first_name", f.FirstName != nil, f.FirstName)
	add("last_name", f.LastName != nil, f.LastName)
	add("phone", f.Phone != nil, f.Phone)
	add("date_of_birth", f.DateOfBirth != nil, f.DateOfBirth)
	add("bio", f.Bio != nil, f.Bio)
	add("profile_image_url", f.ProfileImageURL != nil, f.ProfileImageURL)
	add("university_name", f.UniversityName != nil, f.UniversityName)
	add("major", f.Major != nil, f.Major)
	add("graduation_year", f.GraduationYear != nil, f.GraduationYear)
	add("address", f.Address != nil, f.Address)
	add("city", f.City != nil, f.City)
	add("state", f.State != nil, f.State)
	add("zip_code", f.ZipCode != nil, f.ZipCode)
	return set
}

// ListByRole implements Repository. Only active, verified accounts are listed.
func (r *RepositoryImpl) ListByRole(ctx context.Context, role string) ([]types.UserSummary, error) {
	ctx, span := startSpan(ctx, "ListByRole", "users", attribute.String("user.role", role))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT `+summaryColumns+`
        FROM users
        WHERE role = $1 AND is_active = TRUE AND is_verified = TRUE
        ORDER BY created_at DESC`, role)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list users by role", slog.String("role", role), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	users := []types.UserSummary{}
	for rows.Next() {
		var u types.UserSummary
		if err := rows.Scan(summaryTargets(&u)...); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading users: %w", err)
	}

	span.SetStatus(codes.Ok, "Users listed")
	return users, nil
}

// ListByUniversity implements Repository. Matching is case-insensitive.
func (r *RepositoryImpl) ListByUniversity(ctx context.Context, university string) ([]types.UserProfile, error) {
	return r.listProfiles(ctx, "ListByUniversity", squirrel.Expr("LOWER(p.university_name) = LOWER(?)", university))
}

// ListByCity implements Repository. Matching is case-insensitive.
func (r *RepositoryImpl) ListByCity(ctx context.Context, city string) ([]types.UserProfile, error) {
	return r.listProfiles(ctx, "ListByCity", squirrel.Expr("LOWER(p.city) = LOWER(?)", city))
}

func (r *RepositoryImpl) listProfiles(ctx context.Context, op string, where squirrel.Sqlizer) ([]types.UserProfile, error) {
	ctx, span := startSpan(ctx, op, "user_profiles")
	defer span.End()

	l := r.logger.With(slog.String("method", op))

	query, args, err := psql.Select(prefixed("p", profileColumns)...).
		From("user_profiles p").
		Join("users u ON u.id = p.user_id").
		Where(where).
		Where(squirrel.Eq{"u.is_active": true}).
		OrderBy("p.created_at DESC").
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build profile list query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list profiles", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing profiles: %w", err)
	}
	defer rows.Close()

	profiles := []types.UserProfile{}
	for rows.Next() {
		var p types.UserProfile
		if err := rows.Scan(profileTargets(&p)...); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading profiles: %w", err)
	}

	l.DebugContext(ctx, "Listed profiles", slog.Int("count", len(profiles)))
	span.SetStatus(codes.Ok, "Profiles listed")
	return profiles, nil
}

// VerifyUser implements Repository.
func (r *RepositoryImpl) VerifyUser(ctx context.Context, userID uuid.UUID) error {
	return r.setFlag(ctx, "VerifyUser", `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, userID)
}

// ReactivateUser implements Repository.
func (r *RepositoryImpl) ReactivateUser(ctx context.Context, userID uuid.UUID) error {
	return r.setFlag(ctx, "ReactivateUser", `UPDATE users SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, userID)
}

func (r *RepositoryImpl) setFlag(ctx context.Context, op, query string, userID uuid.UUID) error {
	ctx, span := startSpan(ctx, op, "users",
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", op), slog.String("userID", userID.String()))

	tag, err := r.pgpool.Exec(ctx, query, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "User not found")
		return fmt.Errorf("user not found: %w", types.ErrNotFound)
	}

	l.InfoContext(ctx, "User updated")
	span.SetStatus(codes.Ok, "User updated")
	return nil
}

// DeactivateUser implements Repository.
func (r *RepositoryImpl) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	ctx, span := startSpan(ctx, "DeactivateUser", "users",
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "DeactivateUser"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Deactivating user")

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return fmt.Errorf("database error beginning transaction: %w", err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}

	var isActive bool
	if err := tx.QueryRow(ctx, "SELECT is_active FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&isActive); err != nil {
		rollback()
		if errors.Is(err, pgx.ErrNoRows) {
			l.WarnContext(ctx, "Attempted to deactivate non-existent user")
			span.SetStatus(codes.Error, "User not found")
			return fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to check user active status", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return fmt.Errorf("database error checking user status: %w", err)
	}

	if isActive {
		if _, err := tx.Exec(ctx, "UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1", userID); err != nil {
			rollback()
			l.ErrorContext(ctx, "Failed to deactivate user", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB UPDATE failed")
			return fmt.Errorf("database error deactivating user: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM user_sessions WHERE user_id = $1", userID); err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to revoke sessions", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error revoking sessions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return fmt.Errorf("database error committing transaction: %w", err)
	}

	l.InfoContext(ctx, "User deactivated", slog.Bool("was_active", isActive))
	span.SetStatus(codes.Ok, "User deactivated")
	return nil
}
