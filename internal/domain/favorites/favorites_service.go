package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Add(ctx context.Context, userID, listingID uuid.UUID) (*types.Favorite, error)
	Remove(ctx context.Context, userID, listingID uuid.UUID) error
	IsFavorited(ctx context.Context, userID, listingID uuid.UUID) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page types.PageRequest) (*types.ListingPage, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListForListing(ctx context.Context, actorID, listingID uuid.UUID) ([]types.Favorite, error)
	LandlordStats(ctx context.Context, landlordID uuid.UUID) (*types.FavoriteStats, error)
	BulkAdd(ctx context.Context, userID uuid.UUID, listingIDs []uuid.UUID) (*types.BulkResult, error)
	BulkRemove(ctx context.Context, userID uuid.UUID, listingIDs []uuid.UUID) (*types.BulkResult, error)
	ClearAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

// maxBulk caps the ids accepted by one bulk call.
const maxBulk = 100

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	tracer trace.Tracer
}

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		tracer: otel.Tracer("FavoritesService"),
	}
}

func (s *ServiceImpl) Add(ctx context.Context, userID, listingID uuid.UUID) (*types.Favorite, error) {
	ctx, span := s.tracer.Start(ctx, "Add", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	ref, err := s.repo.ListingRef(ctx, listingID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if ref.Status != types.ListingActive {
		return nil, fmt.Errorf("only active listings can be favorited: %w", types.ErrBadRequest)
	}
	f, err := s.repo.Add(ctx, userID, listingID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return f, nil
}

func (s *ServiceImpl) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "Remove", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	if err := s.repo.Remove(ctx, userID, listingID); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *ServiceImpl) IsFavorited(ctx context.Context, userID, listingID uuid.UUID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "IsFavorited")
	defer span.End()
	return s.repo.Exists(ctx, userID, listingID)
}

func (s *ServiceImpl) ListForUser(ctx context.Context, userID uuid.UUID, page types.PageRequest) (*types.ListingPage, error) {
	ctx, span := s.tracer.Start(ctx, "ListForUser")
	defer span.End()
	return s.repo.ListForUser(ctx, userID, page)
}

func (s *ServiceImpl) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "CountForUser")
	defer span.End()
	return s.repo.CountForUser(ctx, userID)
}

// ListForListing is restricted to the listing's owner.
func (s *ServiceImpl) ListForListing(ctx context.Context, actorID, listingID uuid.UUID) ([]types.Favorite, error) {
	ctx, span := s.tracer.Start(ctx, "ListForListing", trace.WithAttributes(
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	ref, err := s.repo.ListingRef(ctx, listingID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if ref.LandlordID != actorID {
		return nil, fmt.Errorf("listing belongs to another landlord: %w", types.ErrForbidden)
	}
	return s.repo.ListForListing(ctx, listingID)
}

func (s *ServiceImpl) LandlordStats(ctx context.Context, landlordID uuid.UUID) (*types.FavoriteStats, error) {
	ctx, span := s.tracer.Start(ctx, "LandlordStats")
	defer span.End()
	return s.repo.LandlordStats(ctx, landlordID)
}

func checkBulk(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return fmt.Errorf("listing ids are required: %w", types.ErrBadRequest)
	}
	if len(ids) > maxBulk {
		return fmt.Errorf("at most %d listing ids per request: %w", maxBulk, types.ErrBadRequest)
	}
	return nil
}

// bulk applies op to every id, skipping failures. Infrastructure errors abort
// the batch; domain errors (missing, inactive, duplicate) only mark the id failed.
func (s *ServiceImpl) bulk(ctx context.Context, op string, ids []uuid.UUID, apply func(uuid.UUID) error) (*types.BulkResult, error) {
	res := &types.BulkResult{Processed: []uuid.UUID{}, Failed: []uuid.UUID{}}
	for _, id := range ids {
		err := apply(id)
		switch {
		case err == nil:
			res.Processed = append(res.Processed, id)
		case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrConflict), errors.Is(err, types.ErrBadRequest):
			res.Failed = append(res.Failed, id)
		default:
			return nil, err
		}
	}
	s.logger.InfoContext(ctx, "Bulk favorites applied",
		slog.String("op", op),
		slog.Int("processed", len(res.Processed)),
		slog.Int("failed", len(res.Failed)))
	return res, nil
}

func (s *ServiceImpl) BulkAdd(ctx context.Context, userID uuid.UUID, listingIDs []uuid.UUID) (*types.BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "BulkAdd", trace.WithAttributes(attribute.Int("ids.count", len(listingIDs))))
	defer span.End()

	if err := checkBulk(listingIDs); err != nil {
		return nil, err
	}
	return s.bulk(ctx, "add", listingIDs, func(id uuid.UUID) error {
		_, err := s.Add(ctx, userID, id)
		return err
	})
}

func (s *ServiceImpl) BulkRemove(ctx context.Context, userID uuid.UUID, listingIDs []uuid.UUID) (*types.BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "BulkRemove", trace.WithAttributes(attribute.Int("ids.count", len(listingIDs))))
	defer span.End()

	if err := checkBulk(listingIDs); err != nil {
		return nil, err
	}
	return s.bulk(ctx, "remove", listingIDs, func(id uuid.UUID) error {
		return s.Remove(ctx, userID, id)
	})
}

func (s *ServiceImpl) ClearAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "ClearAll")
	defer span.End()

	n, err := s.repo.ClearAll(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64("favorites.cleared", n))
	return n, nil
}
