package statistics

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewRepository(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})), pool), pool
}

func TestRepository_Overview(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE role = 'STUDENT')")).
		WillReturnRows(pgxmock.NewRows([]string{"listings", "cities", "universities", "students", "landlords"}).
			AddRow(int64(40), int64(5), int64(7), int64(310), int64(22)))

	o, err := repo.Overview(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 40, o.ActiveListings)
	assert.EqualValues(t, 7, o.Universities)
	assert.EqualValues(t, 22, o.Landlords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListingTotals(t *testing.T) {
	landlord := uuid.New()

	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(view_count), 0)")).
		WithArgs(landlord).
		WillReturnRows(pgxmock.NewRows([]string{"count", "views"}).AddRow(int64(3), int64(91)))
	mock.ExpectQuery("FROM listings").
		WithArgs(landlord).
		WillReturnError(errors.New("timeout"))

	n, views, err := repo.ListingTotals(context.Background(), landlord)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.EqualValues(t, 91, views)

	_, _, err = repo.ListingTotals(context.Background(), landlord)
	assert.ErrorContains(t, err, "totalling listings")
	assert.NoError(t, mock.ExpectationsWereMet())
}
