package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

type AmenityStore interface {
	ListAmenities(ctx context.Context, listingID uuid.UUID) ([]types.ListingAmenity, error)
	// AddAmenity returns types.ErrConflict when the listing already has it.
	AddAmenity(ctx context.Context, listingID uuid.UUID, amenity types.AmenityType, description *string) (*types.ListingAmenity, error)
	// AddAmenities inserts the ones the listing does not have yet and returns them.
	AddAmenities(ctx context.Context, listingID uuid.UUID, amenities []types.AmenityType) ([]types.ListingAmenity, error)
	RemoveAmenity(ctx context.Context, listingID uuid.UUID, amenity types.AmenityType) error
}

type PreferenceStore interface {
	GetPreference(ctx context.Context, listingID uuid.UUID) (*types.ListingPreference, error)
	// SavePreference replaces the listing's preferences, creating them when missing.
	SavePreference(ctx context.Context, listingID uuid.UUID, fields types.ListingPreferenceFields) (*types.ListingPreference, error)
	DeletePreference(ctx context.Context, listingID uuid.UUID) error
}

const amenityColumns = "id, listing_id, amenity_type, description, created_at"

const returningAmenity = "RETURNING " + amenityColumns

func amenityTargets(a *types.ListingAmenity) []any {
	return []any{&a.ID, &a.ListingID, &a.AmenityType, &a.Description, &a.CreatedAt}
}

func scanAmenities(rows pgx.Rows) ([]types.ListingAmenity, error) {
	defer rows.Close()
	out := []types.ListingAmenity{}
	for rows.Next() {
		var a types.ListingAmenity
		if err := rows.Scan(amenityTargets(&a)...); err != nil {
			return nil, fmt.Errorf("database error scanning amenity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error reading amenities: %w", err)
	}
	return out, nil
}

// ListAmenities implements AmenityStore.
func (r *RepositoryImpl) ListAmenities(ctx context.Context, listingID uuid.UUID) ([]types.ListingAmenity, error) {
	ctx, span := startSpan(ctx, "ListAmenities", "listing_amenities", attribute.String("listing.id", listingID.String()))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT `+amenityColumns+` FROM listing_amenities
        WHERE listing_id = $1
        ORDER BY amenity_type`, listingID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list amenities", slog.String("listingID", listingID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing amenities: %w", err)
	}
	out, err := scanAmenities(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Amenities listed")
	return out, nil
}

// AddAmenity implements AmenityStore.
func (r *RepositoryImpl) AddAmenity(ctx context.Context, listingID uuid.UUID, amenity types.AmenityType, description *string) (*types.ListingAmenity, error) {
	ctx, span := startSpan(ctx, "AddAmenity", "listing_amenities",
		attribute.String("db.operation", "INSERT"),
		attribute.String("listing.id", listingID.String()),
		attribute.String("amenity.type", string(amenity)))
	defer span.End()

	var a types.ListingAmenity
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO listing_amenities (listing_id, amenity_type, description)
        VALUES ($1, $2, $3) `+returningAmenity,
		listingID, string(amenity), description,
	).Scan(amenityTargets(&a)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			span.SetStatus(codes.Error, "Amenity exists")
			return nil, fmt.Errorf("amenity %s already added: %w", amenity, types.ErrConflict)
		}
		r.logger.ErrorContext(ctx, "Failed to add amenity", slog.String("listingID", listingID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error adding amenity: %w", err)
	}
	span.SetStatus(codes.Ok, "Amenity added")
	return &a, nil
}

// AddAmenities implements AmenityStore.
func (r *RepositoryImpl) AddAmenities(ctx context.Context, listingID uuid.UUID, amenities []types.AmenityType) ([]types.ListingAmenity, error) {
	ctx, span := startSpan(ctx, "AddAmenities", "listing_amenities",
		attribute.String("db.operation", "INSERT"),
		attribute.String("listing.id", listingID.String()),
		attribute.Int("amenities.requested", len(amenities)))
	defer span.End()

	names := make([]string, len(amenities))
	for i, a := range amenities {
		names[i] = string(a)
	}

	rows, err := r.pgpool.Query(ctx, `
        INSERT INTO listing_amenities (listing_id, amenity_type)
        SELECT $1, t FROM unnest($2::text[]) AS t
        ON CONFLICT (listing_id, amenity_type) DO NOTHING
        `+returningAmenity, listingID, names)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to add amenities", slog.String("listingID", listingID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error adding amenities: %w", err)
	}
	out, err := scanAmenities(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("amenities.added", len(out)))
	span.SetStatus(codes.Ok, "Amenities added")
	return out, nil
}

// RemoveAmenity implements AmenityStore.
func (r *RepositoryImpl) RemoveAmenity(ctx context.Context, listingID uuid.UUID, amenity types.AmenityType) error {
	ctx, span := startSpan(ctx, "RemoveAmenity", "listing_amenities",
		attribute.String("db.operation", "DELETE"),
		attribute.String("listing.id", listingID.String()),
		attribute.String("amenity.type", string(amenity)))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM listing_amenities WHERE listing_id = $1 AND amenity_type = $2`, listingID, string(amenity))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error removing amenity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("amenity %s not found on listing: %w", amenity, types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Amenity removed")
	return nil
}

const preferenceColumns = "id, listing_id, dietary_preference, gender_preference, smoking_preference, additional_notes, created_at, updated_at"

func preferenceTargets(p *types.ListingPreference) []any {
	return []any{&p.ID, &p.ListingID, &p.DietaryPreference, &p.GenderPreference, &p.SmokingPreference,
		&p.AdditionalNotes, &p.CreatedAt, &p.UpdatedAt}
}

func enumArg[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

// GetPreference implements PreferenceStore.
func (r *RepositoryImpl) GetPreference(ctx context.Context, listingID uuid.UUID) (*types.ListingPreference, error) {
	ctx, span := startSpan(ctx, "GetPreference", "listing_preferences", attribute.String("listing.id", listingID.String()))
	defer span.End()

	var p types.ListingPreference
	err := r.pgpool.QueryRow(ctx, `SELECT `+preferenceColumns+` FROM listing_preferences WHERE listing_id = $1`, listingID).
		Scan(preferenceTargets(&p)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Preferences not found")
			return nil, fmt.Errorf("listing preferences not found: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch listing preferences", slog.String("listingID", listingID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching listing preferences: %w", err)
	}
	span.SetStatus(codes.Ok, "Preferences fetched")
	return &p, nil
}

// SavePreference implements PreferenceStore.
func (r *RepositoryImpl) SavePreference(ctx context.Context, listingID uuid.UUID, f types.ListingPreferenceFields) (*types.ListingPreference, error) {
	ctx, span := startSpan(ctx, "SavePreference", "listing_preferences",
		attribute.String("db.operation", "UPSERT"),
		attribute.String("listing.id", listingID.String()))
	defer span.End()

	var p types.ListingPreference
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO listing_preferences (listing_id, dietary_preference, gender_preference, smoking_preference, additional_notes)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (listing_id) DO UPDATE SET
            dietary_preference = EXCLUDED.dietary_preference,
            gender_preference  = EXCLUDED.gender_preference,
            smoking_preference = EXCLUDED.smoking_preference,
            additional_notes   = EXCLUDED.additional_notes,
            updated_at         = NOW()
        RETURNING `+preferenceColumns,
		listingID, enumArg(f.DietaryPreference), enumArg(f.GenderPreference), enumArg(f.SmokingPreference), f.AdditionalNotes,
	).Scan(preferenceTargets(&p)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("listing not found: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to save listing preferences", slog.String("listingID", listingID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPSERT failed")
		return nil, fmt.Errorf("database error saving listing preferences: %w", err)
	}
	span.SetStatus(codes.Ok, "Preferences saved")
	return &p, nil
}

// DeletePreference implements PreferenceStore.
func (r *RepositoryImpl) DeletePreference(ctx context.Context, listingID uuid.UUID) error {
	ctx, span := startSpan(ctx, "DeletePreference", "listing_preferences", attribute.String("listing.id", listingID.String()))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM listing_preferences WHERE listing_id = $1`, listingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting listing preferences: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing preferences not found: %w", types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Preferences deleted")
	return nil
}
