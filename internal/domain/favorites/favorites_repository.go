package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/domain/listings"
	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	ListingRef(ctx context.Context, listingID uuid.UUID) (*types.ListingRef, error)
	// Add stores the favorite and refreshes the listing's favorite count.
	Add(ctx context.Context, userID, listingID uuid.UUID) (*types.Favorite, error)
	// Remove deletes the favorite and refreshes the listing's favorite count.
	Remove(ctx context.Context, userID, listingID uuid.UUID) error
	Exists(ctx context.Context, userID, listingID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page types.PageRequest) (*types.ListingPage, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListForListing(ctx context.Context, listingID uuid.UUID) ([]types.Favorite, error)
	LandlordStats(ctx context.Context, landlordID uuid.UUID) (*types.FavoriteStats, error)
	// ClearAll removes every favorite of the user and returns how many were removed.
	ClearAll(ctx context.Context, userID uuid.UUID) (int64, error)
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

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", "listing_favorites")}, attrs...)
	return otel.Tracer("FavoritesRepo").Start(ctx, op, trace.WithAttributes(attrs...))
}

const recountFavorites = `
        UPDATE listings
        SET favorite_count = (SELECT COUNT(*) FROM listing_favorites WHERE listing_id = listings.id)
        WHERE id = ANY($1)`

// ListingRef implements Repository.
func (r *RepositoryImpl) ListingRef(ctx context.Context, listingID uuid.UUID) (*types.ListingRef, error) {
	ctx, span := startSpan(ctx, "ListingRef", attribute.String("listing.id", listingID.String()))
	defer span.End()

	var ref types.ListingRef
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, landlord_id, status, title FROM listings WHERE id = $1`, listingID,
	).Scan(&ref.ID, &ref.LandlordID, &ref.Status, &ref.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("listing not found: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to load listing", slog.String("listingID", listingID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error loading listing: %w", err)
	}
	return &ref, nil
}

// Add implements Repository.
func (r *RepositoryImpl) Add(ctx context.Context, userID, listingID uuid.UUID) (*types.Favorite, error) {
	ctx, span := startSpan(ctx, "Add",
		attribute.String("db.operation", "INSERT"),
		attribute.String("user.id", userID.String()),
		attribute.String("listing.id", listingID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "Add"), slog.String("userID", userID.String()), slog.String("listingID", listingID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return nil, fmt.Errorf("database error beginning transaction: %w", err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}

	var f types.Favorite
	err = tx.QueryRow(ctx, `
        INSERT INTO listing_favorites (user_id, listing_id)
        VALUES ($1, $2)
        RETURNING id, user_id, listing_id, created_at`,
		userID, listingID,
	).Scan(&f.ID, &f.UserID, &f.ListingID, &f.CreatedAt)
	if err != nil {
		rollback()
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			span.SetStatus(codes.Error, "Already favorited")
			return nil, fmt.Errorf("listing already in favorites: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert favorite", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error adding favorite: %w", err)
	}

	if _, err := tx.Exec(ctx, recountFavorites, []uuid.UUID{listingID}); err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to refresh favorite count", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error refreshing favorite count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return nil, fmt.Errorf("database error committing transaction: %w", err)
	}

	l.InfoContext(ctx, "Favorite added")
	span.SetStatus(codes.Ok, "Favorite added")
	return &f, nil
}

// Remove implements Repository.
func (r *RepositoryImpl) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	ctx, span := startSpan(ctx, "Remove",
		attribute.String("db.operation", "DELETE"),
		attribute.String("user.id", userID.String()),
		attribute.String("listing.id", listingID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "Remove"), slog.String("userID", userID.String()), slog.String("listingID", listingID.String()))

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

	tag, err := tx.Exec(ctx, `DELETE FROM listing_favorites WHERE user_id = $1 AND listing_id = $2`, userID, listingID)
	if err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to delete favorite", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error removing favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		rollback()
		span.SetStatus(codes.Error, "Favorite not found")
		return fmt.Errorf("listing is not in favorites: %w", types.ErrNotFound)
	}
	if _, err := tx.Exec(ctx, recountFavorites, []uuid.UUID{listingID}); err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to refresh favorite count", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error refreshing favorite count: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return fmt.Errorf("database error committing transaction: %w", err)
	}

	l.InfoContext(ctx, "Favorite removed")
	span.SetStatus(codes.Ok, "Favorite removed")
	return nil
}

// Exists implements Repository.
func (r *RepositoryImpl) Exists(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	ctx, span := startSpan(ctx, "Exists")
	defer span.End()

	var exists bool
	err := r.pgpool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM listing_favorites WHERE user_id = $1 AND listing_id = $2)`,
		userID, listingID,
	).Scan(&exists)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check favorite", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return false, fmt.Errorf("database error checking favorite: %w", err)
	}
	return exists, nil
}

var favoriteListingColumns = strings.Join(listings.Columns("l"), ", ")

// ListForUser implements Repository. Only ACTIVE listings are returned, most
// recently favorited first.
func (r *RepositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID, page types.PageRequest) (*types.ListingPage, error) {
	ctx, span := startSpan(ctx, "ListForUser",
		attribute.String("user.id", userID.String()),
		attribute.Int("page.number", page.Page),
		attribute.Int("page.size", page.Size))
	defer span.End()

	l := r.logger.With(slog.String("method", "ListForUser"), slog.String("userID", userID.String()))

	var total int64
	err := r.pgpool.QueryRow(ctx, `
        SELECT COUNT(*) FROM listing_favorites f
        JOIN listings l ON l.id = f.listing_id
        WHERE f.user_id = $1 AND l.status = 'ACTIVE'`, userID,
	).Scan(&total)
	if err != nil {
		l.ErrorContext(ctx, "Failed to count favorites", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error counting favorites: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, `
        SELECT `+favoriteListingColumns+`
        FROM listing_favorites f
        JOIN listings l ON l.id = f.listing_id
        WHERE f.user_id = $1 AND l.status = 'ACTIVE'
        ORDER BY f.created_at DESC, l.id
        LIMIT $2 OFFSET $3`,
		userID, page.Size, page.Offset(),
	)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query favorites", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing favorites: %w", err)
	}
	out, err := listings.ScanListings(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Favorites listed")
	return &types.ListingPage{Listings: out, Total: total}, nil
}

// CountForUser implements Repository.
func (r *RepositoryImpl) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, span := startSpan(ctx, "CountForUser")
	defer span.End()

	var n int64
	if err := r.pgpool.QueryRow(ctx, `SELECT COUNT(*) FROM listing_favorites WHERE user_id = $1`, userID).Scan(&n); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count favorites", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return 0, fmt.Errorf("database error counting favorites: %w", err)
	}
	return n, nil
}

// ListForListing implements Repository.
func (r *RepositoryImpl) ListForListing(ctx context.Context, listingID uuid.UUID) ([]types.Favorite, error) {
	ctx, span := startSpan(ctx, "ListForListing", attribute.String("listing.id", listingID.String()))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT id, user_id, listing_id, created_at FROM listing_favorites
        WHERE listing_id = $1
        ORDER BY created_at DESC`, listingID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query listing favorites", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing favorites: %w", err)
	}
	defer rows.Close()

	out := []types.Favorite{}
	for rows.Next() {
		var f types.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ListingID, &f.CreatedAt); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning favorite: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading favorites: %w", err)
	}
	return out, nil
}

// LandlordStats implements Repository.
func (r *RepositoryImpl) LandlordStats(ctx context.Context, landlordID uuid.UUID) (*types.FavoriteStats, error) {
	ctx, span := startSpan(ctx, "LandlordStats", attribute.String("landlord.id", landlordID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "LandlordStats"), slog.String("landlordID", landlordID.String()))

	stats := &types.FavoriteStats{}
	err := r.pgpool.QueryRow(ctx, `
        SELECT COUNT(f.id), COUNT(DISTINCT l.id)
        FROM listings l
        LEFT JOIN listing_favorites f ON f.listing_id = l.id
        WHERE l.landlord_id = $1`, landlordID,
	).Scan(&stats.TotalFavorites, &stats.ListingCount)
	if err != nil {
		l.ErrorContext(ctx, "Failed to aggregate favorites", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error aggregating favorites: %w", err)
	}
	if stats.ListingCount > 0 {
		stats.AveragePerListing = float64(stats.TotalFavorites) / float64(stats.ListingCount)
	}
	if stats.TotalFavorites == 0 {
		span.SetStatus(codes.Ok, "No favorites")
		return stats, nil
	}

	var (
		id    uuid.UUID
		title string
		count int64
	)
	err = r.pgpool.QueryRow(ctx, `
        SELECT id, title, favorite_count FROM listings
        WHERE landlord_id = $1
        ORDER BY favorite_count DESC, created_at ASC
        LIMIT 1`, landlordID,
	).Scan(&id, &title, &count)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		l.ErrorContext(ctx, "Failed to find most favorited listing", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error finding most favorited listing: %w", err)
	}
	if err == nil {
		stats.MostFavoritedListingID = &id
		stats.MostFavoritedListingName = &title
		stats.MostFavoritedCount = count
	}
	span.SetStatus(codes.Ok, "Favorite stats computed")
	return stats, nil
}

// ClearAll implements Repository.
func (r *RepositoryImpl) ClearAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, span := startSpan(ctx, "ClearAll",
		attribute.String("db.operation", "DELETE"),
		attribute.String("user.id", userID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "ClearAll"), slog.String("userID", userID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return 0, fmt.Errorf("database error beginning transaction: %w", err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}

	rows, err := tx.Query(ctx, `DELETE FROM listing_favorites WHERE user_id = $1 RETURNING listing_id`, userID)
	if err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to clear favorites", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return 0, fmt.Errorf("database error clearing favorites: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		rollback()
		span.RecordError(err)
		return 0, fmt.Errorf("database error reading cleared favorites: %w", err)
	}
	if len(ids) > 0 {
		if _, err := tx.Exec(ctx, recountFavorites, ids); err != nil {
			rollback()
			l.ErrorContext(ctx, "Failed to refresh favorite counts", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB UPDATE failed")
			return 0, fmt.Errorf("database error refreshing favorite counts: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return 0, fmt.Errorf("database error committing transaction: %w", err)
	}

	l.InfoContext(ctx, "Favorites cleared", slog.Int("count", len(ids)))
	span.SetStatus(codes.Ok, "Favorites cleared")
	return int64(len(ids)), nil
}
