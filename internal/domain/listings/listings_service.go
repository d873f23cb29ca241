package listings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

const (
	defaultFeedLimit = 10
	maxFeedLimit     = 50
	defaultCurrency  = "USD"
)

// Service is the listings business layer: listings, their photos, amenities and
// household preferences, view tracking and admin moderation.
type Service interface {
	Create(ctx context.Context, landlordID uuid.UUID, nl types.NewListing) (*types.ListingDetail, error)
	// Get returns the listing page and counts a view for v. Listings that are not
	// ACTIVE are only visible to their owner and to admins.
	Get(ctx context.Context, id uuid.UUID, v Viewer) (*types.ListingDetail, error)
	Update(ctx context.Context, actorID, id uuid.UUID, upd types.ListingUpdate) (*types.Listing, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	ChangeStatus(ctx context.Context, actorID, id uuid.UUID, status types.ListingStatus) (*types.Listing, error)

	ListActive(ctx context.Context, page types.PageRequest, sort types.ListingSort) (*types.ListingPage, error)
	Search(ctx context.Context, filter types.ListingSearchFilter, page types.PageRequest) (*types.ListingPage, error)
	NearCampus(ctx context.Context, maxDistanceKm float64) ([]types.Listing, error)
	ByUniversity(ctx context.Context, university string) ([]types.Listing, error)
	ByLandlord(ctx context.Context, landlordID uuid.UUID) ([]types.Listing, error)
	Recent(ctx context.Context, limit int) ([]types.Listing, error)
	Popular(ctx context.Context, limit int) ([]types.Listing, error)

	PhotoService
	AmenityService
	PreferenceService

	ListPending(ctx context.Context, page types.PageRequest) (*types.ListingPage, error)
	Approve(ctx context.Context, id uuid.UUID) (*types.Listing, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*types.Listing, error)
	ForceDelete(ctx context.Context, id uuid.UUID) error
	AdminStats(ctx context.Context) (*types.ModerationStats, error)
}

// Options tunes caching and view de-duplication.
type Options struct {
	ViewDedupWindow time.Duration
	PopularCacheTTL time.Duration
}

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	views   *viewTracker
	cache   *cache.Cache
	tracer  trace.Tracer
	options Options
}

func NewService(repo Repository, logger *slog.Logger, opts Options) *ServiceImpl {
	if opts.ViewDedupWindow <= 0 {
		opts.ViewDedupWindow = time.Hour
	}
	if opts.PopularCacheTTL <= 0 {
		opts.PopularCacheTTL = 5 * time.Minute
	}
	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		views:   newViewTracker(repo, opts.ViewDedupWindow, logger),
		cache:   cache.New(opts.PopularCacheTTL, 2*opts.PopularCacheTTL),
		tracer:  otel.Tracer("ListingsService"),
		options: opts,
	}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, types.ErrBadRequest)...)
}

func checkLength(field, value string, lo, hi int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < lo || n > hi {
		return badRequest("%s must be between %d and %d characters", field, lo, hi)
	}
	return nil
}

func checkRent(rent float64) error {
	if rent <= 0 {
		return badRequest("monthly rent must be greater than 0")
	}
	return nil
}

func checkRooms(bedrooms, bathrooms *int) error {
	if bedrooms != nil && (*bedrooms < 0 || *bedrooms > 10) {
		return badRequest("bedrooms must be between 0 and 10")
	}
	if bathrooms != nil && (*bathrooms < 1 || *bathrooms > 10) {
		return badRequest("bathrooms must be between 1 and 10")
	}
	return nil
}

func validateFields(f *types.ListingFields) error {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	if err := checkLength("title", f.Title, 10, 100); err != nil {
		return err
	}
	if err := checkLength("description", f.Description, 50, 2000); err != nil {
		return err
	}
	if err := checkRent(f.MonthlyRent); err != nil {
		return err
	}
	if f.SecurityDeposit != nil && *f.SecurityDeposit < 0 {
		return badRequest("security deposit cannot be negative")
	}
	if err := checkRooms(&f.Bedrooms, &f.Bathrooms); err != nil {
		return err
	}
	if !f.PropertyType.Valid() {
		return badRequest("unknown property type %q", f.PropertyType)
	}
	if !f.LeaseType.Valid() {
		return badRequest("unknown lease type %q", f.LeaseType)
	}
	for _, req := range [][2]string{{"address", f.Address}, {"city", f.City}, {"state", f.State}, {"zip code", f.ZipCode}} {
		if strings.TrimSpace(req[1]) == "" {
			return badRequest("%s is required", req[0])
		}
	}
	if f.AvailableFrom.IsZero() {
		return badRequest("available from date is required")
	}
	if f.AvailableUntil != nil && f.AvailableUntil.Before(f.AvailableFrom) {
		return badRequest("available until must not be before available from")
	}
	f.Currency = strings.ToUpper(strings.TrimSpace(f.Currency))
	if f.Currency == "" {
		f.Currency = defaultCurrency
	}
	if len(f.Currency) != 3 {
		return badRequest("currency must be a three letter code")
	}
	return nil
}

func validateUpdate(u *types.ListingUpdate) error {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		u.Title = &t
		if err := checkLength("title", t, 10, 100); err != nil {
			return err
		}
	}
	if u.Description != nil {
		d := strings.TrimSpace(*u.Description)
		u.Description = &d
		if err := checkLength("description", d, 50, 2000); err != nil {
			return err
		}
	}
	if u.MonthlyRent != nil {
		if err := checkRent(*u.MonthlyRent); err != nil {
			return err
		}
	}
	if u.SecurityDeposit != nil && *u.SecurityDeposit < 0 {
		return badRequest("security deposit cannot be negative")
	}
	if err := checkRooms(u.Bedrooms, u.Bathrooms); err != nil {
		return err
	}
	if u.LeaseType != nil && !u.LeaseType.Valid() {
		return badRequest("unknown lease type %q", *u.LeaseType)
	}
	if u.AvailableFrom != nil && u.AvailableUntil != nil && u.AvailableUntil.Before(*u.AvailableFrom) {
		return badRequest("available until must not be before available from")
	}
	return nil
}

func (s *ServiceImpl) Create(ctx context.Context, landlordID uuid.UUID, nl types.NewListing) (*types.ListingDetail, error) {
	ctx, span := s.tracer.Start(ctx, "Create", trace.WithAttributes(
		attribute.String("landlord.id", landlordID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Create"), slog.String("landlordID", landlordID.String()))

	nl.LandlordID = landlordID
	if err := validateFields(&nl.ListingFields); err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, u := range nl.PhotoURLs {
		if err := checkPhotoURL(u); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}
	amenities, err := uniqueAmenities(nl.Amenities)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	nl.Amenities = amenities

	detail, err := s.repo.Create(ctx, nl)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create listing", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}

	l.InfoContext(ctx, "Listing created", slog.String("listingID", detail.Listing.ID.String()))
	span.SetStatus(codes.Ok, "created")
	return detail, nil
}

func uniqueAmenities(in []types.AmenityType) ([]types.AmenityType, error) {
	out := make([]types.AmenityType, 0, len(in))
	seen := make(map[types.AmenityType]bool, len(in))
	for _, a := range in {
		if !a.Valid() {
			return nil, badRequest("unknown amenity type %q", a)
		}
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out, nil
}

// visible loads a listing for v, hiding unpublished listings from other users.
func (s *ServiceImpl) visible(ctx context.Context, id uuid.UUID, v Viewer) (*types.Listing, error) {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Status != types.ListingActive && !v.owns(listing) && !v.isAdmin() {
		return nil, fmt.Errorf("listing %s: %w", id, types.ErrNotFound)
	}
	return listing, nil
}

// owned loads a listing that actorID must own.
func (s *ServiceImpl) owned(ctx context.Context, actorID, id uuid.UUID) (*types.Listing, error) {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.LandlordID != actorID {
		return nil, fmt.Errorf("listing %s is not yours: %w", id, types.ErrForbidden)
	}
	return listing, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID, v Viewer) (*types.ListingDetail, error) {
	ctx, span := s.tracer.Start(ctx, "Get", trace.WithAttributes(
		attribute.String("listing.id", id.String()),
	))
	defer span.End()

	listing, err := s.visible(ctx, id, v)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	detail := &types.ListingDetail{Listing: *listing}
	g, childCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		photos, err := s.repo.ListPhotos(childCtx, id)
		detail.Photos = photos
		return err
	})
	g.Go(func() error {
		amenities, err := s.repo.ListAmenities(childCtx, id)
		detail.Amenities = amenities
		return err
	})
	g.Go(func() error {
		prefs, err := s.repo.GetPreference(childCtx, id)
		if errors.Is(err, types.ErrNotFound) {
			return nil
		}
		detail.Preferences = prefs
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "loading listing detail failed")
		return nil, err
	}

	outcome := s.views.track(ctx, listing, v)
	if outcome == viewRecorded {
		detail.Listing.ViewCount++
	}
	span.SetAttributes(attribute.String("view.outcome", outcome))
	return detail, nil
}

func (s *ServiceImpl) Update(ctx context.Context, actorID, id uuid.UUID, upd types.ListingUpdate) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "Update", trace.WithAttributes(
		attribute.String("listing.id", id.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.String("listingID", id.String()))

	current, err := s.owned(ctx, actorID, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := validateUpdate(&upd); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if upd.AvailableUntil != nil && upd.AvailableFrom == nil && upd.AvailableUntil.Before(current.AvailableFrom) {
		return nil, badRequest("available until must not be before available from")
	}

	listing, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update listing", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	l.InfoContext(ctx, "Listing updated")
	return listing, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("listing.id", id.String()),
	))
	defer span.End()

	if _, err := s.owned(ctx, actorID, id); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	s.logger.InfoContext(ctx, "Listing deleted", slog.String("listingID", id.String()))
	return nil
}

func (s *ServiceImpl) ChangeStatus(ctx context.Context, actorID, id uuid.UUID, status types.ListingStatus) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "ChangeStatus", trace.WithAttributes(
		attribute.String("listing.id", id.String()),
		attribute.String("listing.status", string(status)),
	))
	defer span.End()

	if !status.Valid() {
		return nil, badRequest("unknown listing status %q", status)
	}
	if !status.LandlordSettable() {
		return nil, fmt.Errorf("status %s is reserved for moderators: %w", status, types.ErrForbidden)
	}
	if _, err := s.owned(ctx, actorID, id); err != nil {
		span.RecordError(err)
		return nil, err
	}
	listing, err := s.repo.SetStatus(ctx, id, status, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status change failed")
		return nil, err
	}
	return listing, nil
}

func (s *ServiceImpl) ListActive(ctx context.Context, page types.PageRequest, sort types.ListingSort) (*types.ListingPage, error) {
	ctx, span := s.tracer.Start(ctx, "ListActive")
	defer span.End()

	if sort.Field == "" {
		sort.Field = "created_at"
	}
	if _, ok := sortColumns[sort.Field]; !ok {
		return nil, badRequest("cannot sort by %q", sort.Field)
	}
	result, err := s.repo.ListActive(ctx, page, sort)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

func (s *ServiceImpl) Search(ctx context.Context, filter types.ListingSearchFilter, page types.PageRequest) (*types.ListingPage, error) {
	ctx, span := s.tracer.Start(ctx, "Search")
	defer span.End()

	if filter.MinRent != nil && filter.MaxRent != nil && *filter.MinRent > *filter.MaxRent {
		return nil, badRequest("minimum rent exceeds maximum rent")
	}
	if filter.MinBedrooms != nil && filter.MaxBedrooms != nil && *filter.MinBedrooms > *filter.MaxBedrooms {
		return nil, badRequest("minimum bedrooms exceeds maximum bedrooms")
	}
	if filter.PropertyType != nil && !filter.PropertyType.Valid() {
		return nil, badRequest("unknown property type %q", *filter.PropertyType)
	}
	filter.City = trimmedOrNil(filter.City)
	filter.University = trimmedOrNil(filter.University)

	result, err := s.repo.Search(ctx, filter, page)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("results.total", result.Total))
	return result, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func (s *ServiceImpl) NearCampus(ctx context.Context, maxDistanceKm float64) ([]types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "NearCampus", trace.WithAttributes(
		attribute.Float64("distance.max_km", maxDistanceKm),
	))
	defer span.End()

	if maxDistanceKm <= 0 {
		return nil, badRequest("max distance must be positive")
	}
	return s.repo.NearCampus(ctx, maxDistanceKm)
}

func (s *ServiceImpl) ByUniversity(ctx context.Context, university string) ([]types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "ByUniversity")
	defer span.End()

	university = strings.TrimSpace(university)
	if university == "" {
		return nil, badRequest("university name is required")
	}
	return s.repo.ByUniversity(ctx, university)
}

func (s *ServiceImpl) ByLandlord(ctx context.Context, landlordID uuid.UUID) ([]types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "ByLandlord", trace.WithAttributes(
		attribute.String("landlord.id", landlordID.String()),
	))
	defer span.End()
	return s.repo.ByLandlord(ctx, landlordID)
}

func feedLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultFeedLimit
	case limit > maxFeedLimit:
		return maxFeedLimit
	}
	return limit
}

func (s *ServiceImpl) Recent(ctx context.Context, limit int) ([]types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "Recent")
	defer span.End()
	return s.repo.Recent(ctx, feedLimit(limit))
}

// Popular is served from memory for PopularCacheTTL.
func (s *ServiceImpl) Popular(ctx context.Context, limit int) ([]types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "Popular")
	defer span.End()

	limit = feedLimit(limit)
	key := fmt.Sprintf("popular:%d", limit)
	if cached, found := s.cache.Get(key); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.([]types.Listing), nil
	}

	listings, err := s.repo.Popular(ctx, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.cache.Set(key, listings, cache.DefaultExpiration)
	return listings, nil
}

func (s *ServiceImpl) ListPending(ctx context.Context, page types.PageRequest) (*types.ListingPage, error) {
	ctx, span := s.tracer.Start(ctx, "ListPending")
	defer span.End()
	return s.repo.ListByStatus(ctx, types.ListingPendingReview, page)
}

func (s *ServiceImpl) Approve(ctx context.Context, id uuid.UUID) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "Approve", trace.WithAttributes(
		attribute.String("listing.id", id.String()),
	))
	defer span.End()

	listing, err := s.repo.SetStatus(ctx, id, types.ListingActive, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "Listing approved", slog.String("listingID", id.String()))
	return listing, nil
}

func (s *ServiceImpl) Reject(ctx context.Context, id uuid.UUID, reason string) (*types.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "Reject", trace.WithAttributes(
		attribute.String("listing.id", id.String()),
	))
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, badRequest("a rejection reason is required")
	}
	if utf8.RuneCountInString(reason) > 500 {
		return nil, badRequest("rejection reason must be at most 500 characters")
	}
	listing, err := s.repo.SetStatus(ctx, id, types.ListingRejected, &reason)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "Listing rejected", slog.String("listingID", id.String()))
	return listing, nil
}

func (s *ServiceImpl) ForceDelete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "ForceDelete", trace.WithAttributes(
		attribute.String("listing.id", id.String()),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.WarnContext(ctx, "Listing force deleted", slog.String("listingID", id.String()))
	return nil
}

func (s *ServiceImpl) AdminStats(ctx context.Context) (*types.ModerationStats, error) {
	ctx, span := s.tracer.Start(ctx, "AdminStats")
	defer span.End()
	return s.repo.ModerationStats(ctx)
}
