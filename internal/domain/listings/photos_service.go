package listings

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

type PhotoService interface {
	ListPhotos(ctx context.Context, listingID uuid.UUID, v Viewer) ([]types.ListingPhoto, error)
	PrimaryPhoto(ctx context.Context, listingID uuid.UUID, v Viewer) (*types.ListingPhoto, error)
	AddPhoto(ctx context.Context, actorID, listingID uuid.UUID, photo types.PhotoUpdate) (*types.ListingPhoto, error)
	UpdatePhoto(ctx context.Context, actorID, listingID, photoID uuid.UUID, upd types.PhotoUpdate) (*types.ListingPhoto, error)
	DeletePhoto(ctx context.Context, actorID, listingID, photoID uuid.UUID) error
	SetPrimaryPhoto(ctx context.Context, actorID, listingID, photoID uuid.UUID) error
	ReorderPhotos(ctx context.Context, actorID, listingID uuid.UUID, photoIDs []uuid.UUID) error
	DeleteAllPhotos(ctx context.Context, actorID, listingID uuid.UUID) (int64, error)
}

const maxPhotoURLLength = 1000

func checkPhotoURL(raw string) error {
	if raw == "" || len(raw) > maxPhotoURLLength {
		return badRequest("photo url must be between 1 and %d characters", maxPhotoURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return badRequest("photo url must be an absolute http or https url")
	}
	return nil
}

func checkPhoto(p *types.PhotoUpdate) error {
	if p.PhotoURL != nil {
		trimmed := strings.TrimSpace(*p.PhotoURL)
		p.PhotoURL = &trimmed
		if err := checkPhotoURL(trimmed); err != nil {
			return err
		}
	}
	if p.Caption != nil && utf8.RuneCountInString(*p.Caption) > 255 {
		return badRequest("caption must be at most 255 characters")
	}
	if p.DisplayOrder != nil && *p.DisplayOrder < 0 {
		return badRequest("display order cannot be negative")
	}
	return nil
}

// photoOf loads a photo and checks that it belongs to listingID.
func (s *ServiceImpl) photoOf(ctx context.Context, listingID, photoID uuid.UUID) (*types.ListingPhoto, error) {
	photo, err := s.repo.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if photo.ListingID != listingID {
		return nil, fmt.Errorf("photo %s does not belong to listing %s: %w", photoID, listingID, types.ErrNotFound)
	}
	return photo, nil
}

func (s *ServiceImpl) ListPhotos(ctx context.Context, listingID uuid.UUID, v Viewer) ([]types.ListingPhoto, error) {
	ctx, span := s.tracer.Start(ctx, "ListPhotos", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	if _, err := s.visible(ctx, listingID, v); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.repo.ListPhotos(ctx, listingID)
}

func (s *ServiceImpl) PrimaryPhoto(ctx context.Context, listingID uuid.UUID, v Viewer) (*types.ListingPhoto, error) {
	photos, err := s.ListPhotos(ctx, listingID, v)
	if err != nil {
		return nil, err
	}
	for i := range photos {
		if photos[i].IsPrimary {
			return &photos[i], nil
		}
	}
	return nil, fmt.Errorf("listing %s has no primary photo: %w", listingID, types.ErrNotFound)
}

func (s *ServiceImpl) AddPhoto(ctx context.Context, actorID, listingID uuid.UUID, photo types.PhotoUpdate) (*types.ListingPhoto, error) {
	ctx, span := s.tracer.Start(ctx, "AddPhoto", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	if photo.PhotoURL == nil {
		return nil, badRequest("photo url is required")
	}
	if err := checkPhoto(&photo); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	added, err := s.repo.AddPhoto(ctx, listingID, photo)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return added, nil
}

func (s *ServiceImpl) UpdatePhoto(ctx context.Context, actorID, listingID, photoID uuid.UUID, upd types.PhotoUpdate) (*types.ListingPhoto, error) {
	ctx, span := s.tracer.Start(ctx, "UpdatePhoto", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
		attribute.String("photo.id", photoID.String()),
	))
	defer span.End()

	if err := checkPhoto(&upd); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if _, err := s.photoOf(ctx, listingID, photoID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.repo.UpdatePhoto(ctx, photoID, upd)
}

func (s *ServiceImpl) DeletePhoto(ctx context.Context, actorID, listingID, photoID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "DeletePhoto", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
		attribute.String("photo.id", photoID.String()),
	))
	defer span.End()

	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return err
	}
	if _, err := s.photoOf(ctx, listingID, photoID); err != nil {
		span.RecordError(err)
		return err
	}
	return s.repo.DeletePhoto(ctx, photoID)
}

func (s *ServiceImpl) SetPrimaryPhoto(ctx context.Context, actorID, listingID, photoID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "SetPrimaryPhoto", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
		attribute.String("photo.id", photoID.String()),
	))
	defer span.End()

	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return err
	}
	return s.repo.SetPrimaryPhoto(ctx, listingID, photoID)
}

func (s *ServiceImpl) ReorderPhotos(ctx context.Context, actorID, listingID uuid.UUID, photoIDs []uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "ReorderPhotos", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
		attribute.Int("photos.count", len(photoIDs)),
	))
	defer span.End()

	if len(photoIDs) == 0 {
		return badRequest("photo ids are required")
	}
	seen := make(map[uuid.UUID]bool, len(photoIDs))
	for _, id := range photoIDs {
		if seen[id] {
			return badRequest("photo %s listed twice", id)
		}
		seen[id] = true
	}
	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return err
	}
	return s.repo.ReorderPhotos(ctx, listingID, photoIDs)
}

func (s *ServiceImpl) DeleteAllPhotos(ctx context.Context, actorID, listingID uuid.UUID) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "DeleteAllPhotos", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	if _, err := s.owned(ctx, actorID, listingID); err != nil {
		span.RecordError(err)
		return 0, err
	}
	return s.repo.DeleteAllPhotos(ctx, listingID)
}
