package recents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
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
	// RecentlyViewed returns active listings from the user's view log, newest
	// view first, one entry per listing.
	RecentlyViewed(ctx context.Context, userID uuid.UUID, limit int) ([]types.RecentlyViewed, error)
}

type RepositoryImpl struct {
	pgpool db.Querier
	logger *slog.Logger
}

func NewRepository(pgpool db.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		pgpool: pgpool,
		logger: logger,
	}
}

var recentlyViewedQuery = `
        WITH viewed AS (
            SELECT listing_id, MAX(viewed_at) AS last_viewed_at, COUNT(*) AS views
            FROM listing_views
            WHERE user_id = $1
            GROUP BY listing_id
        )
        SELECT ` + strings.Join(listings.Columns("l"), ", ") + `, v.last_viewed_at, v.views
        FROM viewed v
        JOIN listings l ON l.id = v.listing_id
        WHERE l.status = 'ACTIVE'
        ORDER BY v.last_viewed_at DESC, l.id
        LIMIT $2`

// RecentlyViewed implements Repository.
func (r *RepositoryImpl) RecentlyViewed(ctx context.Context, userID uuid.UUID, limit int) ([]types.RecentlyViewed, error) {
	ctx, span := otel.Tracer("RecentsRepository").Start(ctx, "RecentlyViewed", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "listing_views"),
		attribute.String("user.id", userID.String()),
		attribute.Int("limit", limit),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "RecentlyViewed"))

	rows, err := r.pgpool.Query(ctx, recentlyViewedQuery, userID, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query view history", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error loading view history: %w", err)
	}
	defer rows.Close()

	out := []types.RecentlyViewed{}
	for rows.Next() {
		var rv types.RecentlyViewed
		targets := append(listings.Targets(&rv.Listing), &rv.LastViewedAt, &rv.ViewCount)
		if err := rows.Scan(targets...); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning view history: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB rows failed")
		return nil, fmt.Errorf("database error reading view history: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(out)))
	span.SetStatus(codes.Ok, "View history loaded")
	return out, nil
}
