package statistics

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Overview(ctx context.Context) (*types.PlatformOverview, error)
	LandlordOverview(ctx context.Context, landlordID uuid.UUID) (*types.LandlordOverview, error)
}

// FavoriteStatsSource is satisfied by favorites.Service.
type FavoriteStatsSource interface {
	LandlordStats(ctx context.Context, landlordID uuid.UUID) (*types.FavoriteStats, error)
}

// InquiryStatsSource is satisfied by inquiries.Service.
type InquiryStatsSource interface {
	LandlordStats(ctx context.Context, landlordID uuid.UUID) (*types.InquiryStats, error)
}

const overviewKey = "overview"

type ServiceImpl struct {
	repo      Repository
	favorites FavoriteStatsSource
	inquiries InquiryStatsSource
	cache     *cache.Cache
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewService caches the public overview for overviewTTL; zero disables caching.
func NewService(repo Repository, favorites FavoriteStatsSource, inquiries InquiryStatsSource, overviewTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	s := &ServiceImpl{
		repo:      repo,
		favorites: favorites,
		inquiries: inquiries,
		logger:    logger,
		tracer:    otel.Tracer("StatisticsService"),
	}
	if overviewTTL > 0 {
		s.cache = cache.New(overviewTTL, 2*overviewTTL)
	}
	return s
}

func (s *ServiceImpl) Overview(ctx context.Context) (*types.PlatformOverview, error) {
	ctx, span := s.tracer.Start(ctx, "Overview")
	defer span.End()

	if s.cache != nil {
		if cached, ok := s.cache.Get(overviewKey); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			o := cached.(types.PlatformOverview)
			return &o, nil
		}
	}

	o, err := s.repo.Overview(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get platform overview", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetDefault(overviewKey, *o)
	}
	return o, nil
}

// LandlordOverview gathers the dashboard sections concurrently; the first
// failure cancels the rest.
func (s *ServiceImpl) LandlordOverview(ctx context.Context, landlordID uuid.UUID) (*types.LandlordOverview, error) {
	ctx, span := s.tracer.Start(ctx, "LandlordOverview", trace.WithAttributes(
		attribute.String("landlord.id", landlordID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "LandlordOverview"), slog.String("landlordID", landlordID.String()))

	var out types.LandlordOverview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fav, err := s.favorites.LandlordStats(gctx, landlordID)
		if err != nil {
			return err
		}
		out.Favorites = *fav
		return nil
	})
	g.Go(func() error {
		inq, err := s.inquiries.LandlordStats(gctx, landlordID)
		if err != nil {
			return err
		}
		out.Inquiries = *inq
		return nil
	})
	g.Go(func() error {
		listings, views, err := s.repo.ListingTotals(gctx, landlordID)
		if err != nil {
			return err
		}
		out.Listings, out.TotalViews = listings, views
		return nil
	})
	if err := g.Wait(); err != nil {
		l.ErrorContext(ctx, "Failed to build landlord overview", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}

	l.DebugContext(ctx, "Landlord overview built", slog.Int64("listings", out.Listings))
	return &out, nil
}
