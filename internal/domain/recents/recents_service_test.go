package recents

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

func (m *MockRepository) RecentlyViewed(ctx context.Context, userID uuid.UUID, limit int) ([]types.RecentlyViewed, error) {
	args := m.Called(ctx, userID, limit)
	v, _ := args.Get(0).([]types.RecentlyViewed)
	return v, args.Error(1)
}

func TestListRecentlyViewed_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"default", 0, DefaultLimit},
		{"negative", -3, DefaultLimit},
		{"within range", 25, 25},
		{"capped", 500, MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
			repo.On("RecentlyViewed", mock.Anything, userID, tt.want).Return([]types.RecentlyViewed{}, nil).Once()

			got, err := svc.ListRecentlyViewed(ctx, userID, tt.requested)
			require.NoError(t, err)
			assert.Empty(t, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestListRecentlyViewed_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	dbErr := errors.New("pool closed")
	repo.On("RecentlyViewed", mock.Anything, mock.Anything, DefaultLimit).Return(nil, dbErr)

	_, err := svc.ListRecentlyViewed(context.Background(), uuid.New(), 0)
	assert.ErrorIs(t, err, dbErr)
}
