package recents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ListRecentlyViewed(ctx context.Context, userID uuid.UUID, limit int) ([]types.RecentlyViewed, error)
}

type ServiceImpl struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

// ListRecentlyViewed clamps limit to [1, MaxLimit], using DefaultLimit when
// none is given.
func (s *ServiceImpl) ListRecentlyViewed(ctx context.Context, userID uuid.UUID, limit int) ([]types.RecentlyViewed, error) {
	ctx, span := otel.Tracer("RecentsService").Start(ctx, "ListRecentlyViewed", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("limit", limit),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ListRecentlyViewed"))

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	viewed, err := s.repo.RecentlyViewed(ctx, userID, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get recently viewed listings", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get recently viewed listings")
		return nil, fmt.Errorf("failed to get recently viewed listings: %w", err)
	}

	l.DebugContext(ctx, "Recently viewed listings retrieved",
		slog.String("userID", userID.String()),
		slog.Int("count", len(viewed)))
	span.SetStatus(codes.Ok, "Recently viewed retrieved")
	return viewed, nil
}
