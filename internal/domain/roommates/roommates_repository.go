package roommates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/db"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository persists roommate preference profiles, one per user.
type Repository interface {
	// GetByUser returns the profile owned by userID or types.ErrNotFound.
	GetByUser(ctx context.Context, userID uuid.UUID) (*types.RoommatePreferences, error)
	// Save creates the profile or overwrites every field of the existing one.
	Save(ctx context.Context, userID uuid.UUID, fields types.RoommatePreferenceFields) (*types.RoommatePreferences, error)
	// Delete removes the profile; deleting a missing profile is not an error.
	Delete(ctx context.Context, userID uuid.UUID) error
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)

	FindByBudgetOverlap(ctx context.Context, minBudget, maxBudget int) ([]types.RoommatePreferences, error)
	FindBySmoking(ctx context.Context, smoking bool) ([]types.RoommatePreferences, error)
	FindByPetsAllowed(ctx context.Context, petsAllowed bool) ([]types.RoommatePreferences, error)
	FindByCleanliness(ctx context.Context, level types.CleanlinessLevel) ([]types.RoommatePreferences, error)
	// FindCandidates returns profiles overlapping the budget range and matching
	// the smoking and pets flags, excluding excludeUserID.
	FindCandidates(ctx context.Context, excludeUserID uuid.UUID, minBudget, maxBudget int, smoking, petsAllowed bool) ([]types.RoommatePreferences, error)
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

const tableName = "roommate_preferences"

var preferenceColumns = []string{
	"id", "user_id",
	"cleanliness_level", "noise_tolerance", "quiet_hours_start", "quiet_hours_end",
	"smoking_preference", "drinking_preference", "pets_allowed", "has_pets",
	"diet_type", "cooking_frequency", "kitchen_sharing",
	"social_level", "guests_frequency",
	"study_hours_start", "study_hours_end", "study_location_preference",
	"budget_min", "budget_max", "utilities_included", "gender_preference",
	"created_at", "updated_at",
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func scanTargets(p *types.RoommatePreferences) []any {
	return []any{
		&p.ID, &p.UserID,
		&p.CleanlinessLevel, &p.NoiseTolerance, &p.QuietHoursStart, &p.QuietHoursEnd,
		&p.SmokingPreference, &p.DrinkingPreference, &p.PetsAllowed, &p.HasPets,
		&p.DietType, &p.CookingFrequency, &p.KitchenSharing,
		&p.SocialLevel, &p.GuestsFrequency,
		&p.StudyHoursStart, &p.StudyHoursEnd, &p.StudyLocationPreference,
		&p.BudgetMin, &p.BudgetMax, &p.UtilitiesIncluded, &p.GenderPreference,
		&p.CreatedAt, &p.UpdatedAt,
	}
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", tableName)}, attrs...)
	return otel.Tracer("RoommatesRepo").Start(ctx, op, trace.WithAttributes(attrs...))
}

// GetByUser implements Repository.
func (r *RepositoryImpl) GetByUser(ctx context.Context, userID uuid.UUID) (*types.RoommatePreferences, error) {
	ctx, span := startSpan(ctx, "GetByUser", attribute.String("db.user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "GetByUser"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Fetching roommate preferences")

	query, args, err := psql.Select(preferenceColumns...).From(tableName).
		Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build preferences query: %w", err)
	}

	var p types.RoommatePreferences
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(scanTargets(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			l.DebugContext(ctx, "No roommate preferences for user")
			span.SetStatus(codes.Ok, "Preferences not found")
			return nil, fmt.Errorf("roommate preferences not found: %w", types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to fetch roommate preferences", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching roommate preferences: %w", err)
	}

	span.SetStatus(codes.Ok, "Preferences fetched")
	return &p, nil
}

// Save implements Repository. A single upsert statement keeps concurrent saves
// for the same user last-write-wins.
func (r *RepositoryImpl) Save(ctx context.Context, userID uuid.UUID, f types.RoommatePreferenceFields) (*types.RoommatePreferences, error) {
	ctx, span := startSpan(ctx, "Save", attribute.String("db.user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "Save"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Saving roommate preferences")

	query := `
        INSERT INTO roommate_preferences (
            user_id, cleanliness_level, noise_tolerance, quiet_hours_start, quiet_hours_end,
            smoking_preference, drinking_preference, pets_allowed, has_pets,
            diet_type, cooking_frequency, kitchen_sharing, social_level, guests_frequency,
            study_hours_start, study_hours_end, study_location_preference,
            budget_min, budget_max, utilities_included, gender_preference
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
        ON CONFLICT (user_id) DO UPDATE SET
            cleanliness_level = EXCLUDED.cleanliness_level,
            noise_tolerance = EXCLUDED.noise_tolerance,
            quiet_hours_start = EXCLUDED.quiet_hours_start,
            quiet_hours_end = EXCLUDED.quiet_hours_end,
            smoking_preference = EXCLUDED.smoking_preference,
            drinking_preference = EXCLUDED.drinking_preference,
            pets_allowed = EXCLUDED.pets_allowed,
            has_pets = EXCLUDED.has_pets,
            diet_type = EXCLUDED.diet_type,
            cooking_frequency = EXCLUDED.cooking_frequency,
            kitchen_sharing = EXCLUDED.kitchen_sharing,
            social_level = EXCLUDED.social_level,
            guests_frequency = EXCLUDED.guests_frequency,
            study_hours_start = EXCLUDED.study_hours_start,
            study_hours_end = EXCLUDED.study_hours_end,
            study_location_preference = EXCLUDED.study_location_preference,
            budget_min = EXCLUDED.budget_min,
            budget_max = EXCLUDED.budget_max,
            utilities_included = EXCLUDED.utilities_included,
            gender_preference = EXCLUDED.gender_preference,
            updated_at = NOW()
        RETURNING id, user_id,
            cleanliness_level, noise_tolerance, quiet_hours_start, quiet_hours_end,
            smoking_preference, drinking_preference, pets_allowed, has_pets,
            diet_type, cooking_frequency, kitchen_sharing,
            social_level, guests_frequency,
            study_hours_start, study_hours_end, study_location_preference,
            budget_min, budget_max, utilities_included, gender_preference,
            created_at, updated_at`

	var p types.RoommatePreferences
	err := r.pgpool.QueryRow(ctx, query,
		userID, f.CleanlinessLevel, f.NoiseTolerance, f.QuietHoursStart, f.QuietHoursEnd,
		f.SmokingPreference, f.DrinkingPreference, f.PetsAllowed, f.HasPets,
		f.DietType, f.CookingFrequency, f.KitchenSharing, f.SocialLevel, f.GuestsFrequency,
		f.StudyHoursStart, f.StudyHoursEnd, f.StudyLocationPreference,
		f.BudgetMin, f.BudgetMax, f.UtilitiesIncluded, f.GenderPreference,
	).Scan(scanTargets(&p)...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to save roommate preferences", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB upsert failed")
		return nil, fmt.Errorf("database error saving roommate preferences: %w", err)
	}

	l.InfoContext(ctx, "Roommate preferences saved", slog.String("preferencesID", p.ID.String()))
	span.SetStatus(codes.Ok, "Preferences saved")
	return &p, nil
}

// Delete implements Repository.
func (r *RepositoryImpl) Delete(ctx context.Context, userID uuid.UUID) error {
	ctx, span := startSpan(ctx, "Delete", attribute.String("db.user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "Delete"), slog.String("userID", userID.String()))

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM roommate_preferences WHERE user_id = $1`, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to delete roommate preferences", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB delete failed")
		return fmt.Errorf("database error deleting roommate preferences: %w", err)
	}

	l.InfoContext(ctx, "Roommate preferences deleted", slog.Int64("rows", tag.RowsAffected()))
	span.SetStatus(codes.Ok, "Preferences deleted")
	return nil
}

// UserExists implements Repository.
func (r *RepositoryImpl) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	ctx, span := startSpan(ctx, "UserExists", attribute.String("db.user.id", userID.String()))
	defer span.End()

	var exists bool
	err := r.pgpool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check user existence", slog.String("userID", userID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return false, fmt.Errorf("database error checking user: %w", err)
	}
	return exists, nil
}

// FindByBudgetOverlap implements Repository.
func (r *RepositoryImpl) FindByBudgetOverlap(ctx context.Context, minBudget, maxBudget int) ([]types.RoommatePreferences, error) {
	return r.find(ctx, "FindByBudgetOverlap", squirrel.And{
		squirrel.LtOrEq{"budget_min": maxBudget},
		squirrel.GtOrEq{"budget_max": minBudget},
	})
}

// FindBySmoking implements Repository.
func (r *RepositoryImpl) FindBySmoking(ctx context.Context, smoking bool) ([]types.RoommatePreferences, error) {
	return r.find(ctx, "FindBySmoking", squirrel.Eq{"smoking_preference": smoking})
}

// FindByPetsAllowed implements Repository.
func (r *RepositoryImpl) FindByPetsAllowed(ctx context.Context, petsAllowed bool) ([]types.RoommatePreferences, error) {
	return r.find(ctx, "FindByPetsAllowed", squirrel.Eq{"pets_allowed": petsAllowed})
}

// FindByCleanliness implements Repository.
func (r *RepositoryImpl) FindByCleanliness(ctx context.Context, level types.CleanlinessLevel) ([]types.RoommatePreferences, error) {
	return r.find(ctx, "FindByCleanliness", squirrel.Eq{"cleanliness_level": string(level)})
}

// FindCandidates implements Repository.
func (r *RepositoryImpl) FindCandidates(ctx context.Context, excludeUserID uuid.UUID, minBudget, maxBudget int, smoking, petsAllowed bool) ([]types.RoommatePreferences, error) {
	return r.find(ctx, "FindCandidates", squirrel.And{
		squirrel.LtOrEq{"budget_min": maxBudget},
		squirrel.GtOrEq{"budget_max": minBudget},
		squirrel.Eq{"smoking_preference": smoking},
		squirrel.Eq{"pets_allowed": petsAllowed},
		squirrel.NotEq{"user_id": excludeUserID},
	})
}

func (r *RepositoryImpl) find(ctx context.Context, op string, where squirrel.Sqlizer) ([]types.RoommatePreferences, error) {
	ctx, span := startSpan(ctx, op)
	defer span.End()

	l := r.logger.With(slog.String("method", op))

	query, args, err := psql.Select(preferenceColumns...).From(tableName).
		Where(where).OrderBy("created_at").ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build %s query: %w", op, err)
	}
	l.DebugContext(ctx, "Searching roommate preferences", slog.String("query", query))

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to search roommate preferences", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error searching roommate preferences: %w", err)
	}
	defer rows.Close()

	results := []types.RoommatePreferences{}
	for rows.Next() {
		var p types.RoommatePreferences
		if err := rows.Scan(scanTargets(&p)...); err != nil {
			l.ErrorContext(ctx, "Failed to scan roommate preferences row", slog.Any("error", err))
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning roommate preferences: %w", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		l.ErrorContext(ctx, "Error iterating roommate preferences rows", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading roommate preferences: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(results)))
	span.SetStatus(codes.Ok, "Preferences searched")
	return results, nil
}
