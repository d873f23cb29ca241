package statistics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/db"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// Overview counts active listings, the cities and universities they cover,
	// and active students and landlords.
	Overview(ctx context.Context) (*types.PlatformOverview, error)
	// ListingTotals returns how many listings a landlord has and their summed view count.
	ListingTotals(ctx context.Context, landlordID uuid.UUID) (listings, views int64, err error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool db.Querier
}

func NewRepository(logger *slog.Logger, pgpool db.Querier) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{semconv.DBSystemPostgreSQL}, attrs...)
	return otel.Tracer("StatisticsRepository").Start(ctx, op, trace.WithAttributes(attrs...))
}

func (r *RepositoryImpl) Overview(ctx context.Context) (*types.PlatformOverview, error) {
	ctx, span := startSpan(ctx, "Overview")
	defer span.End()

	var o types.PlatformOverview
	err := r.pgpool.QueryRow(ctx, `
        WITH active AS (
            SELECT city, nearest_university FROM listings WHERE status = 'ACTIVE'
        ),
        people AS (
            SELECT
                COUNT(*) FILTER (WHERE role = 'STUDENT')  AS students,
                COUNT(*) FILTER (WHERE role = 'LANDLORD') AS landlords
            FROM users
            WHERE is_active = TRUE
        )
        SELECT
            (SELECT COUNT(*) FROM active),
            (SELECT COUNT(DISTINCT LOWER(city)) FROM active),
            (SELECT COUNT(DISTINCT LOWER(nearest_university)) FROM active WHERE nearest_university IS NOT NULL),
            people.students,
            people.landlords
        FROM people`,
	).Scan(&o.ActiveListings, &o.Cities, &o.Universities, &o.Students, &o.Landlords)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load platform overview", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error loading platform overview: %w", err)
	}
	span.SetStatus(codes.Ok, "Overview loaded")
	return &o, nil
}

func (r *RepositoryImpl) ListingTotals(ctx context.Context, landlordID uuid.UUID) (int64, int64, error) {
	ctx, span := startSpan(ctx, "ListingTotals",
		attribute.String("db.sql.table", "listings"),
		attribute.String("landlord.id", landlordID.String()))
	defer span.End()

	var listings, views int64
	err := r.pgpool.QueryRow(ctx, `
        SELECT COUNT(*), COALESCE(SUM(view_count), 0)
        FROM listings
        WHERE landlord_id = $1`, landlordID,
	).Scan(&listings, &views)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to total landlord listings",
			slog.String("landlordID", landlordID.String()),
			slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return 0, 0, fmt.Errorf("database error totalling listings: %w", err)
	}
	return listings, views, nil
}
