package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

type PhotoStore interface {
	ListPhotos(ctx context.Context, listingID uuid.UUID) ([]types.ListingPhoto, error)
	GetPhoto(ctx context.Context, photoID uuid.UUID) (*types.ListingPhoto, error)
	// AddPhoto appends a photo. Display order defaults to the current photo
	// count and the first photo becomes primary unless told otherwise.
	AddPhoto(ctx context.Context, listingID uuid.UUID, photo types.PhotoUpdate) (*types.ListingPhoto, error)
	UpdatePhoto(ctx context.Context, photoID uuid.UUID, upd types.PhotoUpdate) (*types.ListingPhoto, error)
	// DeletePhoto promotes the next photo in display order when the primary is removed.
	DeletePhoto(ctx context.Context, photoID uuid.UUID) error
	SetPrimaryPhoto(ctx context.Context, listingID, photoID uuid.UUID) error
	// ReorderPhotos assigns display order by position in photoIDs.
	ReorderPhotos(ctx context.Context, listingID uuid.UUID, photoIDs []uuid.UUID) error
	DeleteAllPhotos(ctx context.Context, listingID uuid.UUID) (int64, error)
}

var photoColumns = []string{"id", "listing_id", "photo_url", "caption", "display_order", "is_primary", "created_at"}

var returningPhoto = "RETURNING " + strings.Join(photoColumns, ", ")

func photoTargets(p *types.ListingPhoto) []any {
	return []any{&p.ID, &p.ListingID, &p.PhotoURL, &p.Caption, &p.DisplayOrder, &p.IsPrimary, &p.CreatedAt}
}

// ListPhotos implements PhotoStore.
func (r *RepositoryImpl) ListPhotos(ctx context.Context, listingID uuid.UUID) ([]types.ListingPhoto, error) {
	ctx, span := startSpan(ctx, "ListPhotos", "listing_photos", attribute.String("listing.id", listingID.String()))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT `+strings.Join(photoColumns, ", ")+`
        FROM listing_photos
        WHERE listing_id = $1
        ORDER BY display_order ASC, created_at ASC`, listingID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list photos", slog.String("listingID", listingID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing photos: %w", err)
	}
	defer rows.Close()

	photos := []types.ListingPhoto{}
	for rows.Next() {
		var p types.ListingPhoto
		if err := rows.Scan(photoTargets(&p)...); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading photos: %w", err)
	}
	span.SetStatus(codes.Ok, "Photos listed")
	return photos, nil
}

// GetPhoto implements PhotoStore.
func (r *RepositoryImpl) GetPhoto(ctx context.Context, photoID uuid.UUID) (*types.ListingPhoto, error) {
	ctx, span := startSpan(ctx, "GetPhoto", "listing_photos", attribute.String("photo.id", photoID.String()))
	defer span.End()

	var p types.ListingPhoto
	err := r.pgpool.QueryRow(ctx, `SELECT `+strings.Join(photoColumns, ", ")+` FROM listing_photos WHERE id = $1`, photoID).
		Scan(photoTargets(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Photo not found")
			return nil, fmt.Errorf("photo not found: %w", types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching photo: %w", err)
	}
	span.SetStatus(codes.Ok, "Photo fetched")
	return &p, nil
}

// AddPhoto implements PhotoStore.
func (r *RepositoryImpl) AddPhoto(ctx context.Context, listingID uuid.UUID, in types.PhotoUpdate) (*types.ListingPhoto, error) {
	ctx, span := startSpan(ctx, "AddPhoto", "listing_photos",
		attribute.String("db.operation", "INSERT"),
		attribute.String("listing.id", listingID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "AddPhoto"), slog.String("listingID", listingID.String()))
	if in.PhotoURL == nil {
		return nil, fmt.Errorf("photo url is required: %w", types.ErrBadRequest)
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return nil, fmt.Errorf("database error beginning transaction: %w", err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM listing_photos WHERE listing_id = $1`, listingID).Scan(&count); err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to count photos", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error counting photos: %w", err)
	}

	order := count
	if in.DisplayOrder != nil {
		order = *in.DisplayOrder
	}
	primary := count == 0
	if in.IsPrimary != nil {
		primary = *in.IsPrimary
	}

	if primary && count > 0 {
		if _, err := tx.Exec(ctx, `UPDATE listing_photos SET is_primary = FALSE WHERE listing_id = $1 AND is_primary`, listingID); err != nil {
			rollback()
			l.ErrorContext(ctx, "Failed to clear primary photo", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB UPDATE failed")
			return nil, fmt.Errorf("database error clearing primary photo: %w", err)
		}
	}

	var p types.ListingPhoto
	err = tx.QueryRow(ctx, `
        INSERT INTO listing_photos (listing_id, photo_url, caption, display_order, is_primary)
        VALUES ($1, $2, $3, $4, $5) `+returningPhoto,
		listingID, *in.PhotoURL, in.Caption, order, primary,
	).Scan(photoTargets(&p)...)
	if err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to insert photo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error adding photo: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return nil, fmt.Errorf("database error committing transaction: %w", err)
	}

	l.InfoContext(ctx, "Photo added", slog.String("photoID", p.ID.String()), slog.Bool("primary", p.IsPrimary))
	span.SetStatus(codes.Ok, "Photo added")
	return &p, nil
}

// UpdatePhoto implements PhotoStore. Setting IsPrimary to false is ignored;
// a listing keeps its primary until another photo is promoted.
func (r *RepositoryImpl) UpdatePhoto(ctx context.Context, photoID uuid.UUID, upd types.PhotoUpdate) (*types.ListingPhoto, error) {
	ctx, span := startSpan(ctx, "UpdatePhoto", "listing_photos",
		attribute.String("db.operation", "UPDATE"),
		attribute.String("photo.id", photoID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdatePhoto"), slog.String("photoID", photoID.String()))

	set := map[string]interface{}{}
	if upd.PhotoURL != nil {
		set["photo_url"] = *upd.PhotoURL
	}
	if upd.Caption != nil {
		set["caption"] = *upd.Caption
	}
	if upd.DisplayOrder != nil {
		set["display_order"] = *upd.DisplayOrder
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return nil, fmt.Errorf("database error beginning transaction: %w", err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}

	var p types.ListingPhoto
	if len(set) > 0 {
		query, args, err := psql.Update("listing_photos").
			SetMap(set).
			Where(squirrel.Eq{"id": photoID}).
			Suffix(returningPhoto).
			ToSql()
		if err != nil {
			rollback()
			span.RecordError(err)
			return nil, fmt.Errorf("failed to build photo update: %w", err)
		}
		err = tx.QueryRow(ctx, query, args...).Scan(photoTargets(&p)...)
		if err != nil {
			rollback()
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("photo not found: %w", types.ErrNotFound)
			}
			l.ErrorContext(ctx, "Failed to update photo", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB UPDATE failed")
			return nil, fmt.Errorf("database error updating photo: %w", err)
		}
	} else {
		err := tx.QueryRow(ctx, `SELECT `+strings.Join(photoColumns, ", ")+` FROM listing_photos WHERE id = $1`, photoID).
			Scan(photoTargets(&p)...)
		if err != nil {
			rollback()
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("photo not found: %w", types.ErrNotFound)
			}
			span.RecordError(err)
			return nil, fmt.Errorf("database error fetching photo: %w", err)
		}
	}

	if upd.IsPrimary != nil && *upd.IsPrimary && !p.IsPrimary {
		if _, err := tx.Exec(ctx, `UPDATE listing_photos SET is_primary = (id = $2) WHERE listing_id = $1`, p.ListingID, photoID); err != nil {
			rollback()
			l.ErrorContext(ctx, "Failed to promote photo", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB UPDATE failed")
			return nil, fmt.Errorf("database error promoting photo: %w", err)
		}
		p.IsPrimary = true
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return nil, fmt.Errorf("database error committing transaction: %w", err)
	}
	span.SetStatus(codes.Ok, "Photo updated")
	return &p, nil
}

// DeletePhoto implements PhotoStore.
func (r *RepositoryImpl) DeletePhoto(ctx context.Context, photoID uuid.UUID) error {
	ctx, span := startSpan(ctx, "DeletePhoto", "listing_photos",
		attribute.String("db.operation", "DELETE"),
		attribute.String("photo.id", photoID.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "DeletePhoto"), slog.String("photoID", photoID.String()))

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return fmt.Errorf("database error beginning transaction: %w", err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}

	var listingID uuid.UUID
	var wasPrimary bool
	err = tx.QueryRow(ctx, `DELETE FROM listing_photos WHERE id = $1 RETURNING listing_id, is_primary`, photoID).
		Scan(&listingID, &wasPrimary)
	if err != nil {
		rollback()
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Photo not found")
			return fmt.Errorf("photo not found: %w", types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to delete photo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting photo: %w", err)
	}

	if wasPrimary {
		_, err := tx.Exec(ctx, `
            UPDATE listing_photos SET is_primary = TRUE
            WHERE id = (
                SELECT id FROM listing_photos WHERE listing_id = $1
                ORDER BY display_order ASC, created_at ASC
                LIMIT 1
            )`, listingID)
		if err != nil {
			rollback()
			l.ErrorContext(ctx, "Failed to promote next photo", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB UPDATE failed")
			return fmt.Errorf("database error promoting photo: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return fmt.Errorf("database error committing transaction: %w", err)
	}
	l.InfoContext(ctx, "Photo deleted", slog.Bool("was_primary", wasPrimary))
	span.SetStatus(codes.Ok, "Photo deleted")
	return nil
}

// SetPrimaryPhoto implements PhotoStore. The photo must belong to the listing.
func (r *RepositoryImpl) SetPrimaryPhoto(ctx context.Context, listingID, photoID uuid.UUID) error {
	ctx, span := startSpan(ctx, "SetPrimaryPhoto", "listing_photos",
		attribute.String("listing.id", listingID.String()),
		attribute.String("photo.id", photoID.String()))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `
        UPDATE listing_photos SET is_primary = (id = $2)
        WHERE listing_id = $1
          AND EXISTS (SELECT 1 FROM listing_photos WHERE id = $2 AND listing_id = $1)`,
		listingID, photoID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to set primary photo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error setting primary photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Photo not in listing")
		return fmt.Errorf("photo does not belong to this listing: %w", types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Primary photo set")
	return nil
}

// ReorderPhotos implements PhotoStore.
func (r *RepositoryImpl) ReorderPhotos(ctx context.Context, listingID uuid.UUID, photoIDs []uuid.UUID) error {
	ctx, span := startSpan(ctx, "ReorderPhotos", "listing_photos",
		attribute.String("listing.id", listingID.String()),
		attribute.Int("photos.count", len(photoIDs)))
	defer span.End()

	l := r.logger.With(slog.String("method", "ReorderPhotos"), slog.String("listingID", listingID.String()))

	ids := make([]string, len(photoIDs))
	for i, id := range photoIDs {
		ids[i] = id.String()
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return fmt.Errorf("database error beginning transaction: %w", err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}

	var owned int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM listing_photos WHERE listing_id = $1 AND id = ANY($2::uuid[])`, listingID, ids).
		Scan(&owned)
	if err != nil {
		rollback()
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return fmt.Errorf("database error checking photos: %w", err)
	}
	if owned != len(ids) {
		rollback()
		span.SetStatus(codes.Error, "Foreign photo in order")
		return fmt.Errorf("photo does not belong to this listing: %w", types.ErrBadRequest)
	}

	_, err = tx.Exec(ctx, `
        UPDATE listing_photos p SET display_order = x.ord - 1
        FROM unnest($2::uuid[]) WITH ORDINALITY AS x(id, ord)
        WHERE p.id = x.id AND p.listing_id = $1`, listingID, ids)
	if err != nil {
		rollback()
		l.ErrorContext(ctx, "Failed to reorder photos", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error reordering photos: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return fmt.Errorf("database error committing transaction: %w", err)
	}
	span.SetStatus(codes.Ok, "Photos reordered")
	return nil
}

// DeleteAllPhotos implements PhotoStore.
func (r *RepositoryImpl) DeleteAllPhotos(ctx context.Context, listingID uuid.UUID) (int64, error) {
	ctx, span := startSpan(ctx, "DeleteAllPhotos", "listing_photos", attribute.String("listing.id", listingID.String()))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM listing_photos WHERE listing_id = $1`, listingID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete photos", slog.String("listingID", listingID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return 0, fmt.Errorf("database error deleting photos: %w", err)
	}
	span.SetStatus(codes.Ok, "Photos deleted")
	return tag.RowsAffected(), nil
}
