//go:build integration

package favorites

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/db"
)

var (
	testDB      *db.DB
	testService *ServiceImpl
)

func TestMain(m *testing.M) {
	if err := godotenv.Load("../../../.env.test"); err != nil {
		log.Println("Warning: .env.test file not found for favorites integration tests.")
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		log.Fatal("TEST_DATABASE_URL environment variable is not set for favorites integration tests")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	var err error
	testDB, err = db.New(db.Config{DSN: dbURL, MaxConns: 5}, logger)
	if err != nil {
		log.Fatalf("Unable to connect to test database: %v\n", err)
	}
	if err := testDB.RunMigrations(); err != nil {
		log.Fatalf("Unable to migrate test database: %v\n", err)
	}

	testService = NewService(NewRepositoryImpl(testDB.Pool, logger), logger)

	code := m.Run()
	testDB.Close()
	os.Exit(code)
}

func createUser(t *testing.T, role string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := testDB.Pool.QueryRow(context.Background(),
		`INSERT INTO users (email, hashed_password, role) VALUES ($1, 'x', $2) RETURNING id`,
		fmt.Sprintf("fav-%s@example.com", uuid.NewString()[:8]), role,
	).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = testDB.Pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func createListing(t *testing.T, landlordID uuid.UUID, status types.ListingStatus) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := testDB.Pool.QueryRow(context.Background(), `
        INSERT INTO listings (landlord_id, title, description, monthly_rent, bedrooms, bathrooms,
            property_type, address, city, state, zip_code, lease_type, available_from, status)
        VALUES ($1, 'Integration room', 'A bright room close to campus for testing.', 650, 1, 1,
            'SHARED_ROOM', '1 College Rd', 'Austin', 'TX', '78705', 'SEMESTER', CURRENT_DATE, $2)
        RETURNING id`, landlordID, string(status),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func favoriteCount(t *testing.T, listingID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, testDB.Pool.QueryRow(context.Background(),
		`SELECT favorite_count FROM listings WHERE id = $1`, listingID).Scan(&n))
	return n
}

func TestFavorites_Integration(t *testing.T) {
	ctx := context.Background()
	landlord := createUser(t, types.RoleLandlord)
	student := createUser(t, types.RoleStudent)
	active := createListing(t, landlord, types.ListingActive)
	draft := createListing(t, landlord, types.ListingDraft)

	t.Run("add keeps the counter in step", func(t *testing.T) {
		_, err := testService.Add(ctx, student, active)
		require.NoError(t, err)
		assert.Equal(t, 1, favoriteCount(t, active))

		_, err = testService.Add(ctx, student, active)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.Equal(t, 1, favoriteCount(t, active))
	})

	t.Run("draft listings cannot be favorited", func(t *testing.T) {
		_, err := testService.Add(ctx, student, draft)
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("landlord stats", func(t *testing.T) {
		stats, err := testService.LandlordStats(ctx, landlord)
		require.NoError(t, err)
		assert.EqualValues(t, 1, stats.TotalFavorites)
		require.NotNil(t, stats.MostFavoritedListingID)
		assert.Equal(t, active, *stats.MostFavoritedListingID)
	})

	t.Run("clear all resets counters", func(t *testing.T) {
		n, err := testService.ClearAll(ctx, student)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		assert.Equal(t, 0, favoriteCount(t, active))

		err = testService.Remove(ctx, student, active)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
