package roommates

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*types.RoommatePreferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RoommatePreferences), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, userID uuid.UUID, fields types.RoommatePreferenceFields) (*types.RoommatePreferences, error) {
	args := m.Called(ctx, userID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RoommatePreferences), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRepository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) FindByBudgetOverlap(ctx context.Context, minBudget, maxBudget int) ([]types.RoommatePreferences, error) {
	args := m.Called(ctx, minBudget, maxBudget)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RoommatePreferences), args.Error(1)
}

func (m *MockRepository) FindBySmoking(ctx context.Context, smoking bool) ([]types.RoommatePreferences, error) {
	args := m.Called(ctx, smoking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RoommatePreferences), args.Error(1)
}

func (m *MockRepository) FindByPetsAllowed(ctx context.Context, petsAllowed bool) ([]types.RoommatePreferences, error) {
	args := m.Called(ctx, petsAllowed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RoommatePreferences), args.Error(1)
}

func (m *MockRepository) FindByCleanliness(ctx context.Context, level types.CleanlinessLevel) ([]types.RoommatePreferences, error) {
	args := m.Called(ctx, level)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RoommatePreferences), args.Error(1)
}

func (m *MockRepository) FindCandidates(ctx context.Context, excludeUserID uuid.UUID, minBudget, maxBudget int, smoking, petsAllowed bool) ([]types.RoommatePreferences, error) {
	args := m.Called(ctx, excludeUserID, minBudget, maxBudget, smoking, petsAllowed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.RoommatePreferences), args.Error(1)
}

func setupServiceTest() (*ServiceImpl, *MockRepository) {
	repo := new(MockRepository)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(repo, logger), repo
}

func profileFor(userID uuid.UUID) *types.RoommatePreferences {
	p := fullProfile()
	p.ID = uuid.New()
	p.UserID = userID
	return p
}

func TestService_SavePreferences(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	fields := fullProfile().RoommatePreferenceFields

	tests := []struct {
		name      string
		fields    types.RoommatePreferenceFields
		setupMock func(repo *MockRepository)
		wantErr   error
	}{
		{
			name:   "creates or overwrites",
			fields: fields,
			setupMock: func(repo *MockRepository) {
				repo.On("UserExists", mock.Anything, userID).Return(true, nil).Once()
				repo.On("Save", mock.Anything, userID, fields).Return(profileFor(userID), nil).Once()
			},
		},
		{
			name:   "unknown user",
			fields: fields,
			setupMock: func(repo *MockRepository) {
				repo.On("UserExists", mock.Anything, userID).Return(false, nil).Once()
			},
			wantErr: types.ErrNotFound,
		},
		{
			name:      "negative budget",
			fields:    types.RoommatePreferenceFields{BudgetMin: ptr(-1)},
			setupMock: func(repo *MockRepository) {},
			wantErr:   types.ErrBadRequest,
		},
		{
			name:   "min greater than max is accepted",
			fields: types.RoommatePreferenceFields{BudgetMin: ptr(1500), BudgetMax: ptr(900)},
			setupMock: func(repo *MockRepository) {
				f := types.RoommatePreferenceFields{BudgetMin: ptr(1500), BudgetMax: ptr(900)}
				repo.On("UserExists", mock.Anything, userID).Return(true, nil).Once()
				repo.On("Save", mock.Anything, userID, f).Return(&types.RoommatePreferences{UserID: userID, RoommatePreferenceFields: f}, nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setupServiceTest()
			tt.setupMock(repo)

			got, err := svc.SavePreferences(ctx, userID, tt.fields)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, userID, got.UserID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_GetAndDeletePreferences(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, repo := setupServiceTest()

	repo.On("GetByUser", mock.Anything, userID).Return(nil, types.ErrNotFound).Once()
	_, err := svc.GetPreferences(ctx, userID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	repo.On("Delete", mock.Anything, userID).Return(nil).Once()
	assert.NoError(t, svc.DeletePreferences(ctx, userID))
	repo.AssertExpectations(t)
}

func TestService_FindCompatible(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()

	t.Run("no saved profile", func(t *testing.T) {
		svc, repo := setupServiceTest()
		repo.On("GetByUser", mock.Anything, userID).Return(nil, types.ErrNotFound).Once()

		got, err := svc.FindCompatible(ctx, userID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.Nil(t, got)
		repo.AssertNotCalled(t, "FindCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("hard filters and self exclusion", func(t *testing.T) {
		svc, repo := setupServiceTest()
		requester := profileFor(userID)
		repo.On("GetByUser", mock.Anything, userID).Return(requester, nil).Once()
		// A misbehaving store returning the requester must still not leak it.
		repo.On("FindCandidates", mock.Anything, userID, 800, 1200, false, true).
			Return([]types.RoommatePreferences{*profileFor(other), *requester}, nil).Once()

		got, err := svc.FindCompatible(ctx, userID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, other, got[0].UserID)
		repo.AssertExpectations(t)
	})

	t.Run("requester without hard filter data matches nobody", func(t *testing.T) {
		svc, repo := setupServiceTest()
		requester := &types.RoommatePreferences{UserID: userID}
		repo.On("GetByUser", mock.Anything, userID).Return(requester, nil).Once()

		got, err := svc.FindCompatible(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, got)
		repo.AssertNotCalled(t, "FindCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		svc, repo := setupServiceTest()
		repo.On("GetByUser", mock.Anything, userID).Return(profileFor(userID), nil).Once()
		repo.On("FindCandidates", mock.Anything, userID, 800, 1200, false, true).
			Return(nil, errors.New("db down")).Once()

		_, err := svc.FindCompatible(ctx, userID)
		assert.Error(t, err)
	})
}

func TestService_RankCompatible(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, repo := setupServiceTest()

	perfect := profileFor(uuid.New())
	weaker := profileFor(uuid.New())
	weaker.CleanlinessLevel = ptr(types.CleanlinessMessy)
	weaker.KitchenSharing = ptr(false)
	weakest := profileFor(uuid.New())
	weakest.SocialLevel = ptr(types.SocialSocial)
	weakest.NoiseTolerance = ptr(types.NoiseLoud)
	weakest.CleanlinessLevel = ptr(types.CleanlinessMessy)

	repo.On("GetByUser", mock.Anything, userID).Return(profileFor(userID), nil).Once()
	repo.On("FindCandidates", mock.Anything, userID, 800, 1200, false, true).
		Return([]types.RoommatePreferences{*weakest, *perfect, *weaker}, nil).Once()

	got, err := svc.RankCompatible(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, perfect.UserID, got[0].Preferences.UserID)
	assert.Equal(t, 100.0, got[0].Score)
	assert.Equal(t, "Excellent", got[0].Level)
	assert.Equal(t, weaker.UserID, got[1].Preferences.UserID)
	assert.InDelta(t, 80.0, got[1].Score, 1e-9)
	repo.AssertExpectations(t)
}

func TestService_ScoreCompatibility(t *testing.T) {
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	t.Run("both profiles present", func(t *testing.T) {
		svc, repo := setupServiceTest()
		b := profileFor(u2)
		b.SmokingPreference = ptr(true)
		repo.On("GetByUser", mock.Anything, u1).Return(profileFor(u1), nil).Once()
		repo.On("GetByUser", mock.Anything, u2).Return(b, nil).Once()

		got, err := svc.ScoreCompatibility(ctx, u1, u2)
		require.NoError(t, err)
		assert.Equal(t, u1, got.UserID1)
		assert.Equal(t, u2, got.UserID2)
		assert.InDelta(t, 80.0, got.Score, 1e-9)
		assert.Equal(t, "Excellent", got.Level)
	})

	t.Run("second profile missing", func(t *testing.T) {
		svc, repo := setupServiceTest()
		repo.On("GetByUser", mock.Anything, u1).Return(profileFor(u1), nil).Once()
		repo.On("GetByUser", mock.Anything, u2).Return(nil, types.ErrNotFound).Once()

		_, err := svc.ScoreCompatibility(ctx, u1, u2)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("scoring a user against themself", func(t *testing.T) {
		svc, repo := setupServiceTest()
		repo.On("GetByUser", mock.Anything, u1).Return(profileFor(u1), nil).Twice()

		got, err := svc.ScoreCompatibility(ctx, u1, u1)
		require.NoError(t, err)
		assert.Equal(t, 100.0, got.Score)
	})
}

func TestService_Searches(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupServiceTest()

	_, err := svc.SearchByBudget(ctx, -5, 100)
	assert.ErrorIs(t, err, types.ErrBadRequest)

	repo.On("FindByBudgetOverlap", mock.Anything, 500, 900).Return([]types.RoommatePreferences{}, nil).Once()
	got, err := svc.SearchByBudget(ctx, 500, 900)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.SearchByCleanliness(ctx, types.CleanlinessLevel("SPOTLESS"))
	assert.ErrorIs(t, err, types.ErrBadRequest)

	repo.On("FindByCleanliness", mock.Anything, types.CleanlinessClean).Return([]types.RoommatePreferences{*profileFor(uuid.New())}, nil).Once()
	got, err = svc.SearchByCleanliness(ctx, types.CleanlinessClean)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	repo.On("FindBySmoking", mock.Anything, true).Return([]types.RoommatePreferences{}, nil).Once()
	_, err = svc.SearchBySmoking(ctx, true)
	assert.NoError(t, err)

	repo.On("FindByPetsAllowed", mock.Anything, false).Return([]types.RoommatePreferences{}, nil).Once()
	_, err = svc.SearchByPetsAllowed(ctx, false)
	assert.NoError(t, err)

	repo.AssertExpectations(t)
}
