package listings

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

type AmenityService interface {
	ListAmenities(ctx context.Context, listingID uuid.UUID, v Viewer) ([]types.ListingAmenity, error)
	AddAmenity(ctx context.Context, actorID, listingID uuid.UUID, amenity types.AmenityType, description *string) (*types.ListingAmenity, error)
	// AddAmenities adds every valid amenity the listing lacks and reports the rest.
	AddAmenities(ctx context.Context, actorID, listingID uuid.UUID, amenities []string) (*types.BulkAmenityResult, error)
	RemoveAmenity(ctx context.Context, actorID, listingID uuid.UUID, amenity types.AmenityType) error
	AmenityCatalog() []types.AmenityCategory
	SuggestAmenities(description string) []types.AmenityType
}

type PreferenceService interface {
	GetPreferences(ctx context.Context, listingID uuid.UUID, v Viewer) (*types.ListingPreference, error)
	SetPreferences(ctx context.Context, actorID, listingID uuid.UUID, fields types.ListingPreferenceFields) (*types.ListingPreference, error)
	DeletePreferences(ctx context.Context, actorID, listingID uuid.UUID) error
	PreferenceTypes() types.ListingPreferenceTypes
}

func (s *ServiceImpl) ListAmenities(ctx context.Context, listingID uuid.UUID, v Viewer) ([]types.ListingAmenity, error) {
	ctx, span := s.tracer.Start(ctx, "ListAmenities", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	if _, err := s.visible(ctx, listingID, v); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.repo.ListAmenities(ctx, listingID)
}

func (s *ServiceImpl) AddAmenity(ctx context.Context, actorID, listingID uuid.UUID, amenity types.AmenityType, description *string) (*types.ListingAmenity, error) {
	ctx, span := s.tracer.Start(ctx, "AddAmenity", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
		attribute.String("amenity", string(amenity)),
	))
	defer span.End()

	if !amenity.Valid() {
		return nil, badRequest("unknown amenity type %q", amenity)
	}
	if description != nil && utf8.RuneCountInString(*description) > 500 {
		return nil, badRequest("amenity description must be at most 500 characters")
	}
	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	added, err := s.repo.AddAmenity(ctx, listingID, amenity, description)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return added, nil
}

func (s *ServiceImpl) AddAmenities(ctx context.Context, actorID, listingID uuid.UUID, amenities []string) (*types.BulkAmenityResult, error) {
	ctx, span := s.tracer.Start(ctx, "AddAmenities", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
		attribute.Int("amenities.requested", len(amenities)),
	))
	defer span.End()

	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	existing, err := s.repo.ListAmenities(ctx, listingID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	have := make(map[types.AmenityType]bool, len(existing))
	for _, a := range existing {
		have[a.AmenityType] = true
	}

	result := &types.BulkAmenityResult{
		Added:             []types.ListingAmenity{},
		SkippedDuplicates: []string{},
		SkippedInvalid:    []string{},
	}
	var toAdd []types.AmenityType
	for _, raw := range amenities {
		a := types.AmenityType(strings.ToUpper(strings.TrimSpace(raw)))
		switch {
		case !a.Valid():
			result.SkippedInvalid = append(result.SkippedInvalid, raw)
		case have[a]:
			result.SkippedDuplicates = append(result.SkippedDuplicates, string(a))
		default:
			have[a] = true
			toAdd = append(toAdd, a)
		}
	}
	if len(toAdd) == 0 {
		return result, nil
	}

	added, err := s.repo.AddAmenities(ctx, listingID, toAdd)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	result.Added = added
	// Rows skipped by ON CONFLICT were added concurrently by someone else.
	inserted := make(map[types.AmenityType]bool, len(added))
	for _, a := range added {
		inserted[a.AmenityType] = true
	}
	for _, a := range toAdd {
		if !inserted[a] {
			result.SkippedDuplicates = append(result.SkippedDuplicates, string(a))
		}
	}
	span.SetAttributes(attribute.Int("amenities.added", len(added)))
	return result, nil
}

func (s *ServiceImpl) RemoveAmenity(ctx context.Context, actorID, listingID uuid.UUID, amenity types.AmenityType) error {
	ctx, span := s.tracer.Start(ctx, "RemoveAmenity", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
		attribute.String("amenity", string(amenity)),
	))
	defer span.End()

	if !amenity.Valid() {
		return badRequest("unknown amenity type %q", amenity)
	}
	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return err
	}
	return s.repo.RemoveAmenity(ctx, listingID, amenity)
}

func (s *ServiceImpl) AmenityCatalog() []types.AmenityCategory {
	return types.AmenityCatalog
}

func (s *ServiceImpl) SuggestAmenities(description string) []types.AmenityType {
	return SuggestAmenities(description)
}

func (s *ServiceImpl) GetPreferences(ctx context.Context, listingID uuid.UUID, v Viewer) (*types.ListingPreference, error) {
	ctx, span := s.tracer.Start(ctx, "GetPreferences", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	if _, err := s.visible(ctx, listingID, v); err != nil {
		span.RecordError(err)
		return nil, err
	}
	prefs, err := s.repo.GetPreference(ctx, listingID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		span.RecordError(err)
	}
	return prefs, err
}

func checkPreferences(f types.ListingPreferenceFields) error {
	if f.DietaryPreference != nil && !f.DietaryPreference.Valid() {
		return badRequest("unknown dietary preference %q", *f.DietaryPreference)
	}
	if f.GenderPreference != nil && !f.GenderPreference.Valid() {
		return badRequest("unknown gender preference %q", *f.GenderPreference)
	}
	if f.SmokingPreference != nil && !f.SmokingPreference.Valid() {
		return badRequest("unknown smoking preference %q", *f.SmokingPreference)
	}
	if f.AdditionalNotes != nil && utf8.RuneCountInString(*f.AdditionalNotes) > 1000 {
		return badRequest("additional notes must be at most 1000 characters")
	}
	return nil
}

func (s *ServiceImpl) SetPreferences(ctx context.Context, actorID, listingID uuid.UUID, fields types.ListingPreferenceFields) (*types.ListingPreference, error) {
	ctx, span := s.tracer.Start(ctx, "SetPreferences", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	if err := checkPreferences(fields); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.repo.SavePreference(ctx, listingID, fields)
}

func (s *ServiceImpl) DeletePreferences(ctx context.Context, actorID, listingID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "DeletePreferences", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return err
	}
	return s.repo.DeletePreference(ctx, listingID)
}

func (s *ServiceImpl) PreferenceTypes() types.ListingPreferenceTypes {
	return types.ListingPreferenceTypes{
		DietaryPreferences: types.AllDietaryPreferences,
		GenderPreferences:  types.AllGenderPreferences,
		SmokingPreferences: types.AllSmokingRules,
	}
}
