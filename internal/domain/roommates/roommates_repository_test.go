package roommates

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRepositoryImpl(pool, logger), pool
}

func preferenceRow(rows *pgxmock.Rows, p *types.RoommatePreferences) *pgxmock.Rows {
	return rows.AddRow(
		p.ID, p.UserID,
		p.CleanlinessLevel, p.NoiseTolerance, p.QuietHoursStart, p.QuietHoursEnd,
		p.SmokingPreference, p.DrinkingPreference, p.PetsAllowed, p.HasPets,
		p.DietType, p.CookingFrequency, p.KitchenSharing,
		p.SocialLevel, p.GuestsFrequency,
		p.StudyHoursStart, p.StudyHoursEnd, p.StudyLocationPreference,
		p.BudgetMin, p.BudgetMax, p.UtilitiesIncluded, p.GenderPreference,
		p.CreatedAt, p.UpdatedAt,
	)
}

func storedProfile(userID uuid.UUID) *types.RoommatePreferences {
	p := profileFor(userID)
	p.QuietHoursStart = ptr("22:00")
	p.DietType = ptr(types.DietVegan)
	p.CreatedAt = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	p.UpdatedAt = p.CreatedAt
	return p
}

func TestRepository_GetByUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		want := storedProfile(userID)

		mock.ExpectQuery(regexp.QuoteMeta("FROM roommate_preferences WHERE user_id = $1")).
			WithArgs(userID.String()).
			WillReturnRows(preferenceRow(pgxmock.NewRows(preferenceColumns), want))

		got, err := repo.GetByUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, types.CleanlinessClean, *got.CleanlinessLevel)
		assert.Equal(t, types.DietVegan, *got.DietType)
		assert.Equal(t, "22:00", *got.QuietHoursStart)
		assert.Nil(t, got.QuietHoursEnd)
		assert.Equal(t, 1200, *got.BudgetMax)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM roommate_preferences WHERE user_id = $1")).
			WithArgs(userID.String()).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByUser(ctx, userID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error is not ErrNotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM roommate_preferences WHERE user_id = $1")).
			WithArgs(userID.String()).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByUser(ctx, userID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrNotFound)
	})
}

func TestRepository_SaveIsSingleUpsert(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	want := storedProfile(userID)
	f := want.RoommatePreferenceFields

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (user_id) DO UPDATE SET")).
		WithArgs(userID, f.CleanlinessLevel, f.NoiseTolerance, f.QuietHoursStart, f.QuietHoursEnd,
			f.SmokingPreference, f.DrinkingPreference, f.PetsAllowed, f.HasPets,
			f.DietType, f.CookingFrequency, f.KitchenSharing, f.SocialLevel, f.GuestsFrequency,
			f.StudyHoursStart, f.StudyHoursEnd, f.StudyLocationPreference,
			f.BudgetMin, f.BudgetMax, f.UtilitiesIncluded, f.GenderPreference).
		WillReturnRows(preferenceRow(pgxmock.NewRows(preferenceColumns), want))

	got, err := repo.Save(ctx, userID, f)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Two saves for the same user resolve to whichever statement runs last; there
// is no read-modify-write window in between.
func TestRepository_SaveLastWriteWins(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	first := storedProfile(userID)
	second := storedProfile(userID)
	second.ID = first.ID
	second.SmokingPreference = ptr(true)
	second.BudgetMin, second.BudgetMax = ptr(400), ptr(600)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO roommate_preferences")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg()).
		WillReturnRows(preferenceRow(pgxmock.NewRows(preferenceColumns), first))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO roommate_preferences")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg()).
		WillReturnRows(preferenceRow(pgxmock.NewRows(preferenceColumns), second))

	_, err := repo.Save(ctx, userID, first.RoommatePreferenceFields)
	require.NoError(t, err)
	got, err := repo.Save(ctx, userID, second.RoommatePreferenceFields)
	require.NoError(t, err)

	assert.Equal(t, first.ID, got.ID)
	assert.True(t, *got.SmokingPreference)
	assert.Equal(t, 400, *got.BudgetMin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM roommate_preferences WHERE user_id = $1")).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, repo.Delete(ctx, userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindCandidates(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)
	userID := uuid.New()
	candidate := storedProfile(uuid.New())

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE (budget_min <= $1 AND budget_max >= $2 AND smoking_preference = $3 AND pets_allowed = $4 AND user_id <> $5) ORDER BY created_at")).
		WithArgs(1200, 800, false, true, userID.String()).
		WillReturnRows(preferenceRow(pgxmock.NewRows(preferenceColumns), candidate))

	got, err := repo.FindCandidates(ctx, userID, 800, 1200, false, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, candidate.UserID, got[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SimpleSearches(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		where string
		args  []any
		call  func(r *RepositoryImpl) ([]types.RoommatePreferences, error)
	}{
		{
			name:  "budget overlap",
			where: "WHERE (budget_min <= $1 AND budget_max >= $2)",
			args:  []any{1000, 500},
			call: func(r *RepositoryImpl) ([]types.RoommatePreferences, error) {
				return r.FindByBudgetOverlap(ctx, 500, 1000)
			},
		},
		{
			name:  "smoking",
			where: "WHERE smoking_preference = $1",
			args:  []any{true},
			call: func(r *RepositoryImpl) ([]types.RoommatePreferences, error) {
				return r.FindBySmoking(ctx, true)
			},
		},
		{
			name:  "pets allowed",
			where: "WHERE pets_allowed = $1",
			args:  []any{false},
			call: func(r *RepositoryImpl) ([]types.RoommatePreferences, error) {
				return r.FindByPetsAllowed(ctx, false)
			},
		},
		{
			name:  "cleanliness",
			where: "WHERE cleanliness_level = $1",
			args:  []any{"VERY_CLEAN"},
			call: func(r *RepositoryImpl) ([]types.RoommatePreferences, error) {
				return r.FindByCleanliness(ctx, types.CleanlinessVeryClean)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(regexp.QuoteMeta(tt.where)).
				WithArgs(tt.args...).
				WillReturnRows(pgxmock.NewRows(preferenceColumns))

			got, err := tt.call(repo)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_UserExists(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.UserExists(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, ok)
}
