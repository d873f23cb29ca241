package favorites

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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/campusnest-api/internal/domain/listings"
	"github.com/FACorreiaa/campusnest-api/internal/domain/listings/listingstest"
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

func TestRepository_ListingRef(t *testing.T) {
	ctx := context.Background()
	id, landlord := uuid.New(), uuid.New()

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, landlord_id, status, title FROM listings WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "landlord_id", "status", "title"}).
			AddRow(id, landlord, "ACTIVE", "Room"))
	ref, err := repo.ListingRef(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.ListingActive, ref.Status)
	assert.Equal(t, landlord, ref.LandlordID)

	mock.ExpectQuery("FROM listings WHERE id").WithArgs(id).WillReturnError(pgx.ErrNoRows)
	_, err = repo.ListingRef(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Add(t *testing.T) {
	ctx := context.Background()
	userID, listingID := uuid.New(), uuid.New()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("inserts and recounts", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		favID := uuid.New()
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO listing_favorites (user_id, listing_id)")).
			WithArgs(userID, listingID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "listing_id", "created_at"}).
				AddRow(favID, userID, listingID, now))
		mock.ExpectExec(regexp.QuoteMeta("SET favorite_count = (SELECT COUNT(*) FROM listing_favorites")).
			WithArgs([]uuid.UUID{listingID}).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		fav, err := repo.Add(ctx, userID, listingID)
		require.NoError(t, err)
		assert.Equal(t, favID, fav.ID)
		assert.Equal(t, now, fav.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO listing_favorites").
			WithArgs(userID, listingID).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		_, err := repo.Add(ctx, userID, listingID)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Remove(t *testing.T) {
	ctx := context.Background()
	userID, listingID := uuid.New(), uuid.New()

	t.Run("not favorited", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM listing_favorites WHERE user_id = $1 AND listing_id = $2")).
			WithArgs(userID, listingID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectRollback()

		err := repo.Remove(ctx, userID, listingID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("recount fails", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM listing_favorites").
			WithArgs(userID, listingID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec("UPDATE listings").
			WithArgs([]uuid.UUID{listingID}).
			WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		err := repo.Remove(ctx, userID, listingID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "refreshing favorite count")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ListForUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	l := listingstest.Listing(uuid.New(), uuid.New())

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM listing_favorites f")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(21)))

	rows := pgxmock.NewRows(listings.Columns(""))
	rows.AddRow(
		l.ID, l.LandlordID, l.Title, l.Description, l.MonthlyRent, l.Currency, l.SecurityDeposit,
		l.UtilitiesIncluded, l.Bedrooms, l.Bathrooms, l.SquareFeet, l.PropertyType,
		l.Address, l.City, l.State, l.ZipCode, l.Latitude, l.Longitude, l.DistanceToCampusKm,
		l.NearestUniversity, l.LeaseType, l.LeaseDurationMonths, l.AvailableFrom, l.AvailableUntil,
		l.PetsAllowed, l.SmokingAllowed, l.Furnished, l.ContactEmail, l.ContactPhone,
		l.Status, l.RejectionReason, l.ViewCount, l.FavoriteCount, l.CreatedAt, l.UpdatedAt,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT l.id, l.landlord_id, l.title")).
		WithArgs(userID, 20, uint64(20)).
		WillReturnRows(rows)

	page, err := repo.ListForUser(ctx, userID, types.PageRequest{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 21, page.Total)
	require.Len(t, page.Listings, 1)
	assert.Equal(t, *l, page.Listings[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LandlordStats(t *testing.T) {
	ctx := context.Background()
	landlord, top := uuid.New(), uuid.New()

	t.Run("with favorites", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(f.id), COUNT(DISTINCT l.id)")).
			WithArgs(landlord).
			WillReturnRows(pgxmock.NewRows([]string{"favorites", "listings"}).AddRow(int64(9), int64(4)))
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY favorite_count DESC")).
			WithArgs(landlord).
			WillReturnRows(pgxmock.NewRows([]string{"id", "title", "favorite_count"}).AddRow(top, "Loft", int64(6)))

		stats, err := repo.LandlordStats(ctx, landlord)
		require.NoError(t, err)
		assert.EqualValues(t, 9, stats.TotalFavorites)
		assert.InDelta(t, 2.25, stats.AveragePerListing, 1e-9)
		assert.Equal(t, &top, stats.MostFavoritedListingID)
		assert.EqualValues(t, 6, stats.MostFavoritedCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no listings", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(landlord).
			WillReturnRows(pgxmock.NewRows([]string{"favorites", "listings"}).AddRow(int64(0), int64(0)))

		stats, err := repo.LandlordStats(ctx, landlord)
		require.NoError(t, err)
		assert.Zero(t, stats.AveragePerListing)
		assert.Nil(t, stats.MostFavoritedListingID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ClearAll(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	a, b := uuid.New(), uuid.New()

	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM listing_favorites WHERE user_id = $1 RETURNING listing_id")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"listing_id"}).AddRow(a).AddRow(b))
	mock.ExpectExec("UPDATE listings").
		WithArgs([]uuid.UUID{a, b}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	n, err := repo.ClearAll(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
