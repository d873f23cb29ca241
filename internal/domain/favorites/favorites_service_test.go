package favorites

import (
	"context"
	"errors"
	"io"
	"log/slog"
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

func (m *MockRepository) ListingRef(ctx context.Context, listingID uuid.UUID) (*types.ListingRef, error) {
	args := m.Called(ctx, listingID)
	ref, _ := args.Get(0).(*types.ListingRef)
	return ref, args.Error(1)
}

func (m *MockRepository) Add(ctx context.Context, userID, listingID uuid.UUID) (*types.Favorite, error) {
	args := m.Called(ctx, userID, listingID)
	f, _ := args.Get(0).(*types.Favorite)
	return f, args.Error(1)
}

func (m *MockRepository) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	return m.Called(ctx, userID, listingID).Error(0)
}

func (m *MockRepository) Exists(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, listingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListForUser(ctx context.Context, userID uuid.UUID, page types.PageRequest) (*types.ListingPage, error) {
	args := m.Called(ctx, userID, page)
	p, _ := args.Get(0).(*types.ListingPage)
	return p, args.Error(1)
}

func (m *MockRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ListForListing(ctx context.Context, listingID uuid.UUID) ([]types.Favorite, error) {
	args := m.Called(ctx, listingID)
	f, _ := args.Get(0).([]types.Favorite)
	return f, args.Error(1)
}

func (m *MockRepository) LandlordStats(ctx context.Context, landlordID uuid.UUID) (*types.FavoriteStats, error) {
	args := m.Called(ctx, landlordID)
	s, _ := args.Get(0).(*types.FavoriteStats)
	return s, args.Error(1)
}

func (m *MockRepository) ClearAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func newTestService() (*ServiceImpl, *MockRepository) {
	repo := new(MockRepository)
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func activeRef(id, landlordID uuid.UUID) *types.ListingRef {
	return &types.ListingRef{ID: id, LandlordID: landlordID, Status: types.ListingActive, Title: "Room"}
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	userID, listingID := uuid.New(), uuid.New()

	t.Run("active listing", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("ListingRef", mock.Anything, listingID).Return(activeRef(listingID, uuid.New()), nil).Once()
		repo.On("Add", mock.Anything, userID, listingID).Return(&types.Favorite{UserID: userID, ListingID: listingID}, nil).Once()

		fav, err := svc.Add(ctx, userID, listingID)
		require.NoError(t, err)
		assert.Equal(t, listingID, fav.ListingID)
		repo.AssertExpectations(t)
	})

	t.Run("inactive listing", func(t *testing.T) {
		svc, repo := newTestService()
		ref := activeRef(listingID, uuid.New())
		ref.Status = types.ListingRented
		repo.On("ListingRef", mock.Anything, listingID).Return(ref, nil).Once()

		_, err := svc.Add(ctx, userID, listingID)
		assert.ErrorIs(t, err, types.ErrBadRequest)
		repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing listing", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("ListingRef", mock.Anything, listingID).Return(nil, types.ErrNotFound).Once()

		_, err := svc.Add(ctx, userID, listingID)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("duplicate", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("ListingRef", mock.Anything, listingID).Return(activeRef(listingID, uuid.New()), nil).Once()
		repo.On("Add", mock.Anything, userID, listingID).Return(nil, types.ErrConflict).Once()

		_, err := svc.Add(ctx, userID, listingID)
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestListForListing_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	owner, listingID := uuid.New(), uuid.New()
	svc, repo := newTestService()
	repo.On("ListingRef", mock.Anything, listingID).Return(activeRef(listingID, owner), nil)
	repo.On("ListForListing", mock.Anything, listingID).Return([]types.Favorite{{ListingID: listingID}}, nil).Once()

	favs, err := svc.ListForListing(ctx, owner, listingID)
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	_, err = svc.ListForListing(ctx, uuid.New(), listingID)
	assert.ErrorIs(t, err, types.ErrForbidden)
	repo.AssertNumberOfCalls(t, "ListForListing", 1)
}

func TestBulkAdd(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	ok, dup, gone := uuid.New(), uuid.New(), uuid.New()

	svc, repo := newTestService()
	repo.On("ListingRef", mock.Anything, ok).Return(activeRef(ok, uuid.New()), nil)
	repo.On("ListingRef", mock.Anything, dup).Return(activeRef(dup, uuid.New()), nil)
	repo.On("ListingRef", mock.Anything, gone).Return(nil, types.ErrNotFound)
	repo.On("Add", mock.Anything, userID, ok).Return(&types.Favorite{}, nil)
	repo.On("Add", mock.Anything, userID, dup).Return(nil, types.ErrConflict)

	res, err := svc.BulkAdd(ctx, userID, []uuid.UUID{ok, dup, gone})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ok}, res.Processed)
	assert.Equal(t, []uuid.UUID{dup, gone}, res.Failed)
}

func TestBulk_Limits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.BulkAdd(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, types.ErrBadRequest)

	_, err = svc.BulkRemove(ctx, uuid.New(), make([]uuid.UUID, maxBulk+1))
	assert.ErrorIs(t, err, types.ErrBadRequest)
}

func TestBulkRemove_StopsOnInfrastructureError(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	a, b := uuid.New(), uuid.New()
	dbErr := errors.New("connection reset")

	svc, repo := newTestService()
	repo.On("Remove", mock.Anything, userID, a).Return(dbErr).Once()

	_, err := svc.BulkRemove(ctx, userID, []uuid.UUID{a, b})
	assert.ErrorIs(t, err, dbErr)
	repo.AssertNotCalled(t, "Remove", mock.Anything, userID, b)
}

func TestClearAllAndCount(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, repo := newTestService()
	repo.On("ClearAll", mock.Anything, userID).Return(int64(4), nil).Once()
	repo.On("CountForUser", mock.Anything, userID).Return(int64(0), nil).Once()

	n, err := svc.ClearAll(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	n, err = svc.CountForUser(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertExpectations(t)
}
