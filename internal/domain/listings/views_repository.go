package listings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

type ViewStore interface {
	// RecordView stores v and bumps the listing's view count unless a view with
	// the same listing, user and IP exists since the given time. Absent user or
	// IP values match any row. Reports whether the view was counted.
	RecordView(ctx context.Context, v types.ListingView, since time.Time) (bool, error)
}

// RecordView implements ViewStore.
func (r *RepositoryImpl) RecordView(ctx context.Context, v types.ListingView, since time.Time) (bool, error) {
	ctx, span := startSpan(ctx, "RecordView", "listing_views",
		attribute.String("listing.id", v.ListingID.String()),
		attribute.Bool("view.has_user", v.UserID != nil),
		attribute.Bool("view.has_ip", v.IPAddress != nil))
	defer span.End()

	l := r.logger.With(slog.String("method", "RecordView"), slog.String("listingID", v.ListingID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return false, fmt.Errorf("database error beginning transaction: %w", err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}

	var recent int64
	err = tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM listing_views
        WHERE listing_id = $1
          AND ($2::uuid IS NULL OR user_id = $2)
          AND ($3::text IS NULL OR ip_address = $3)
          AND viewed_at >= $4`,
		v.ListingID, v.UserID, v.IPAddress, since,
	).Scan(&recent)
	if err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to count recent views", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return false, fmt.Errorf("database error counting views: %w", err)
	}
	if recent > 0 {
		rollback()
		span.SetStatus(codes.Ok, "Duplicate view")
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
        INSERT INTO listing_views (listing_id, user_id, ip_address, user_agent)
        VALUES ($1, $2, $3, $4)`,
		v.ListingID, v.UserID, v.IPAddress, v.UserAgent,
	); err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to insert view", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return false, fmt.Errorf("database error recording view: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE listings SET view_count = view_count + 1 WHERE id = $1`, v.ListingID)
	if err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to bump view count", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return false, fmt.Errorf("database error updating view count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		rollback()
		span.SetStatus(codes.Error, "Listing not found")
		return false, fmt.Errorf("listing not found: %w", types.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return false, fmt.Errorf("database error committing transaction: %w", err)
	}

	span.SetStatus(codes.Ok, "View recorded")
	return true, nil
}
