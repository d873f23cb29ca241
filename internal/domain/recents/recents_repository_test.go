package recents

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/campusnest-api/internal/domain/listings"
	"github.com/FACorreiaa/campusnest-api/internal/domain/listings/listingstest"
)

func TestRepository_RecentlyViewed(t *testing.T) {
	ctx := context.Background()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()
	repo := NewRepository(pool, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))

	userID := uuid.New()
	lst := listingstest.Listing(uuid.New(), uuid.New())
	seen := time.Date(2025, 4, 2, 18, 30, 0, 0, time.UTC)

	rows := pgxmock.NewRows(append(listings.Columns(""), "last_viewed_at", "views"))
	rows.AddRow(
		lst.ID, lst.LandlordID, lst.Title, lst.Description, lst.MonthlyRent, lst.Currency, lst.SecurityDeposit,
		lst.UtilitiesIncluded, lst.Bedrooms, lst.Bathrooms, lst.SquareFeet, lst.PropertyType,
		lst.Address, lst.City, lst.State, lst.ZipCode, lst.Latitude, lst.Longitude, lst.DistanceToCampusKm,
		lst.NearestUniversity, lst.LeaseType, lst.LeaseDurationMonths, lst.AvailableFrom, lst.AvailableUntil,
		lst.PetsAllowed, lst.SmokingAllowed, lst.Furnished, lst.ContactEmail, lst.ContactPhone,
		lst.Status, lst.RejectionReason, lst.ViewCount, lst.FavoriteCount, lst.CreatedAt, lst.UpdatedAt,
		seen, int64(3),
	)
	pool.ExpectQuery(regexp.QuoteMeta("ORDER BY v.last_viewed_at DESC, l.id")).
		WithArgs(userID, 10).
		WillReturnRows(rows)

	got, err := repo.RecentlyViewed(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, *lst, got[0].Listing)
	assert.Equal(t, seen, got[0].LastViewedAt)
	assert.EqualValues(t, 3, got[0].ViewCount)
	assert.NoError(t, pool.ExpectationsWereMet())
}
