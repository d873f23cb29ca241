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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/db"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the persistence contract for listings and everything hanging off them.
type Repository interface {
	ListingStore
	ViewStore
	PhotoStore
	AmenityStore
	PreferenceStore
}

type ListingStore interface {
	// Create inserts the listing with its photos and amenities in one transaction.
	Create(ctx context.Context, nl types.NewListing) (*types.ListingDetail, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Listing, error)
	Update(ctx context.Context, id uuid.UUID, upd types.ListingUpdate) (*types.Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// SetStatus replaces the status and rejection reason.
	SetStatus(ctx context.Context, id uuid.UUID, status types.ListingStatus, reason *string) (*types.Listing, error)

	ListActive(ctx context.Context, page types.PageRequest, sort types.ListingSort) (*types.ListingPage, error)
	Search(ctx context.Context, filter types.ListingSearchFilter, page types.PageRequest) (*types.ListingPage, error)
	ListByStatus(ctx context.Context, status types.ListingStatus, page types.PageRequest) (*types.ListingPage, error)
	NearCampus(ctx context.Context, maxDistanceKm float64) ([]types.Listing, error)
	ByUniversity(ctx context.Context, university string) ([]types.Listing, error)
	ByLandlord(ctx context.Context, landlordID uuid.UUID) ([]types.Listing, error)
	Recent(ctx context.Context, limit int) ([]types.Listing, error)
	Popular(ctx context.Context, limit int) ([]types.Listing, error)

	ModerationStats(ctx context.Context) (*types.ModerationStats, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool db.Querier
}

func NewRepositoryImpl(pgpool db.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var listingColumns = []string{
	"id", "landlord_id", "title", "description", "monthly_rent", "currency", "security_deposit",
	"utilities_included", "bedrooms", "bathrooms", "square_feet", "property_type",
	"address", "city", "state", "zip_code", "latitude", "longitude", "distance_to_campus_km",
	"nearest_university", "lease_type", "lease_duration_months", "available_from", "available_until",
	"pets_allowed", "smoking_allowed", "furnished", "contact_email", "contact_phone",
	"status", "rejection_reason", "view_count", "favorite_count", "created_at", "updated_at",
}

// sortColumns maps accepted sort keys onto columns.
var sortColumns = map[string]string{
	"created_at":       "created_at",
	"createdAt":        "created_at",
	"monthly_rent":     "monthly_rent",
	"rent":             "monthly_rent",
	"view_count":       "view_count",
	"viewCount":        "view_count",
	"favorite_count":   "favorite_count",
	"favoriteCount":    "favorite_count",
	"distance":         "distance_to_campus_km",
	"distanceToCampus": "distance_to_campus_km",
	"bedrooms":         "bedrooms",
	"available_from":   "available_from",
	"availableFrom":    "available_from",
}

func listingTargets(l *types.Listing) []any {
	return []any{
		&l.ID, &l.LandlordID, &l.Title, &l.Description, &l.MonthlyRent, &l.Currency, &l.SecurityDeposit,
		&l.UtilitiesIncluded, &l.Bedrooms, &l.Bathrooms, &l.SquareFeet, &l.PropertyType,
		&l.Address, &l.City, &l.State, &l.ZipCode, &l.Latitude, &l.Longitude, &l.DistanceToCampusKm,
		&l.NearestUniversity, &l.LeaseType, &l.LeaseDurationMonths, &l.AvailableFrom, &l.AvailableUntil,
		&l.PetsAllowed, &l.SmokingAllowed, &l.Furnished, &l.ContactEmail, &l.ContactPhone,
		&l.Status, &l.RejectionReason, &l.ViewCount, &l.FavoriteCount, &l.CreatedAt, &l.UpdatedAt,
	}
}

var returningListing = "RETURNING " + strings.Join(listingColumns, ", ")

// Columns returns the listing columns in scan order, prefixed with alias when
// one is given. Other domains joining on listings select these and read the
// rows back with ScanListings.
func Columns(alias string) []string {
	if alias == "" {
		return append([]string(nil), listingColumns...)
	}
	out := make([]string, len(listingColumns))
	for i, c := range listingColumns {
		out[i] = alias + "." + c
	}
	return out
}

// ScanListings drains rows selected with Columns and closes them.
func ScanListings(rows pgx.Rows) ([]types.Listing, error) {
	return scanListings(rows)
}

// Targets returns scan destinations for l in Columns order, for queries that
// select extra columns after the listing.
func Targets(l *types.Listing) []any {
	return listingTargets(l)
}

func startSpan(ctx context.Context, op, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", table)}, attrs...)
	return otel.Tracer("ListingsRepo").Start(ctx, op, trace.WithAttributes(attrs...))
}

func scanListings(rows pgx.Rows) ([]types.Listing, error) {
	defer rows.Close()
	out := []types.Listing{}
	for rows.Next() {
		var l types.Listing
		if err := rows.Scan(listingTargets(&l)...); err != nil {
			return nil, fmt.Errorf("database error scanning listing: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error reading listings: %w", err)
	}
	return out, nil
}

// Create implements ListingStore.
func (r *RepositoryImpl) Create(ctx context.Context, nl types.NewListing) (*types.ListingDetail, error) {
	ctx, span := startSpan(ctx, "Create", "listings",
		attribute.String("db.operation", "INSERT"),
		attribute.String("landlord.id", nl.LandlordID.String()),
		attribute.Int("photos.count", len(nl.PhotoURLs)),
		attribute.Int("amenities.count", len(nl.Amenities)))
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"), slog.String("landlordID", nl.LandlordID.String()))
	l.DebugContext(ctx, "Creating listing")

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return nil, fmt.Errorf("database error beginning transaction: %w", err)
	}
	rollback := func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}
	fail := func(msg string, err error) error {
		rollback()
		l.ErrorContext(ctx, msg, slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return fmt.Errorf("%s: %w", strings.ToLower(msg), err)
	}

	f := nl.ListingFields
	query := `
        INSERT INTO listings (
            landlord_id, title, description, monthly_rent, currency, security_deposit,
            utilities_included, bedrooms, bathrooms, square_feet, property_type,
            address, city, state, zip_code, latitude, longitude, distance_to_campus_km,
            nearest_university, lease_type, lease_duration_months, available_from, available_until,
            pets_allowed, smoking_allowed, furnished, contact_email, contact_phone, status
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
            $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
        ) ` + returningListing

	detail := &types.ListingDetail{Photos: []types.ListingPhoto{}, Amenities: []types.ListingAmenity{}}
	err = tx.QueryRow(ctx, query,
		nl.LandlordID, f.Title, f.Description, f.MonthlyRent, f.Currency, f.SecurityDeposit,
		f.UtilitiesIncluded, f.Bedrooms, f.Bathrooms, f.SquareFeet, string(f.PropertyType),
		f.Address, f.City, f.State, f.ZipCode, f.Latitude, f.Longitude, f.DistanceToCampusKm,
		f.NearestUniversity, string(f.LeaseType), f.LeaseDurationMonths, f.AvailableFrom, f.AvailableUntil,
		f.PetsAllowed, f.SmokingAllowed, f.Furnished, f.ContactEmail, f.ContactPhone, string(types.ListingDraft),
	).Scan(listingTargets(&detail.Listing)...)
	if err != nil {
		return nil, fail("Failed to insert listing", err)
	}

	for i, url := range nl.PhotoURLs {
		var p types.ListingPhoto
		err := tx.QueryRow(ctx, `
            INSERT INTO listing_photos (listing_id, photo_url, display_order, is_primary)
            VALUES ($1, $2, $3, $4) `+returningPhoto,
			detail.Listing.ID, url, i, i == 0,
		).Scan(photoTargets(&p)...)
		if err != nil {
			return nil, fail("Failed to insert listing photo", err)
		}
		detail.Photos = append(detail.Photos, p)
	}

	for _, a := range nl.Amenities {
		var am types.ListingAmenity
		err := tx.QueryRow(ctx, `
            INSERT INTO listing_amenities (listing_id, amenity_type)
            VALUES ($1, $2) `+returningAmenity,
			detail.Listing.ID, string(a),
		).Scan(amenityTargets(&am)...)
		if err != nil {
			return nil, fail("Failed to insert listing amenity", err)
		}
		detail.Amenities = append(detail.Amenities, am)
	}

	if err := tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return nil, fmt.Errorf("database error committing transaction: %w", err)
	}

	l.InfoContext(ctx, "Listing created", slog.String("listingID", detail.Listing.ID.String()))
	span.SetStatus(codes.Ok, "Listing created")
	return detail, nil
}

// Get implements ListingStore.
func (r *RepositoryImpl) Get(ctx context.Context, id uuid.UUID) (*types.Listing, error) {
	ctx, span := startSpan(ctx, "Get", "listings", attribute.String("listing.id", id.String()))
	defer span.End()

	var l types.Listing
	err := r.pgpool.QueryRow(ctx, `SELECT `+strings.Join(listingColumns, ", ")+` FROM listings WHERE id = $1`, id).
		Scan(listingTargets(&l)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Listing not found")
			return nil, fmt.Errorf("listing not found: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch listing", slog.String("listingID", id.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching listing: %w", err)
	}
	span.SetStatus(codes.Ok, "Listing fetched")
	return &l, nil
}

// Update implements ListingStore. An empty update returns the current row.
func (r *RepositoryImpl) Update(ctx context.Context, id uuid.UUID, upd types.ListingUpdate) (*types.Listing, error) {
	ctx, span := startSpan(ctx, "Update", "listings",
		attribute.String("db.operation", "UPDATE"),
		attribute.String("listing.id", id.String()))
	defer span.End()

	l := r.logger.With(slog.String("method", "Update"), slog.String("listingID", id.String()))

	set := listingSetMap(upd)
	if len(set) == 0 {
		return r.Get(ctx, id)
	}

	query, args, err := psql.Update("listings").
		SetMap(set).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix(returningListing).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build listing update: %w", err)
	}
	l.DebugContext(ctx, "Executing dynamic update query", slog.String("query", query), slog.Int("arg_count", len(args)))

	var out types.Listing
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(listingTargets(&out)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Listing not found")
			return nil, fmt.Errorf("listing not found: %w", types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to update listing", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating listing: %w", err)
	}

	l.InfoContext(ctx, "Listing updated", slog.Int("fields", len(set)))
	span.SetStatus(codes.Ok, "Listing updated")
	return &out, nil
}

func listingSetMap(u types.ListingUpdate) map[string]interface{} {
	set := map[string]interface{}{}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.MonthlyRent != nil {
		set["monthly_rent"] = *u.MonthlyRent
	}
	if u.SecurityDeposit != nil {
		set["security_deposit"] = *u.SecurityDeposit
	}
	if u.UtilitiesIncluded != nil {
		set["utilities_included"] = *u.UtilitiesIncluded
	}
	if u.Bedrooms != nil {
		set["bedrooms"] = *u.Bedrooms
	}
	if u.Bathrooms != nil {
		set["bathrooms"] = *u.Bathrooms
	}
	if u.SquareFeet != nil {
		set["square_feet"] = *u.SquareFeet
	}
	if u.LeaseType != nil {
		set["lease_type"] = string(*u.LeaseType)
	}
	if u.LeaseDurationMonths != nil {
		set["lease_duration_months"] = *u.LeaseDurationMonths
	}
	if u.AvailableFrom != nil {
		set["available_from"] = *u.AvailableFrom
	}
	if u.AvailableUntil != nil {
		set["available_until"] = *u.AvailableUntil
	}
	if u.PetsAllowed != nil {
		set["pets_allowed"] = *u.PetsAllowed
	}
	if u.SmokingAllowed != nil {
		set["smoking_allowed"] = *u.SmokingAllowed
	}
	if u.Furnished != nil {
		set["furnished"] = *u.Furnished
	}
	if u.ContactEmail != nil {
		set["contact_email"] = *u.ContactEmail
	}
	if u.ContactPhone != nil {
		set["contact_phone"] = *u.ContactPhone
	}
	return set
}

// Delete implements ListingStore. Photos, amenities, views and favorites cascade.
func (r *RepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := startSpan(ctx, "Delete", "listings",
		attribute.String("db.operation", "DELETE"),
		attribute.String("listing.id", id.String()))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete listing", slog.String("listingID", id.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Listing not found")
		return fmt.Errorf("listing not found: %w", types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Listing deleted")
	return nil
}

// SetStatus implements ListingStore.
func (r *RepositoryImpl) SetStatus(ctx context.Context, id uuid.UUID, status types.ListingStatus, reason *string) (*types.Listing, error) {
	ctx, span := startSpan(ctx, "SetStatus", "listings",
		attribute.String("db.operation", "UPDATE"),
		attribute.String("listing.id", id.String()),
		attribute.String("listing.status", string(status)))
	defer span.End()

	var l types.Listing
	err := r.pgpool.QueryRow(ctx, `
        UPDATE listings SET status = $2, rejection_reason = $3, updated_at = NOW()
        WHERE id = $1 `+returningListing,
		id, string(status), reason,
	).Scan(listingTargets(&l)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Listing not found")
			return nil, fmt.Errorf("listing not found: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to change listing status", slog.String("listingID", id.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error changing listing status: %w", err)
	}
	span.SetStatus(codes.Ok, "Status changed")
	return &l, nil
}

func (r *RepositoryImpl) page(ctx context.Context, op string, where squirrel.Sqlizer, orderBy []string, page types.PageRequest) (*types.ListingPage, error) {
	ctx, span := startSpan(ctx, op, "listings",
		attribute.Int("page.number", page.Page),
		attribute.Int("page.size", page.Size))
	defer span.End()

	l := r.logger.With(slog.String("method", op))

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("listings").Where(where).ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := r.pgpool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		l.ErrorContext(ctx, "Failed to count listings", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error counting listings: %w", err)
	}

	query, args, err := psql.Select(listingColumns...).From("listings").Where(where).
		OrderBy(orderBy...).
		Limit(uint64(page.Size)).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build listing query: %w", err)
	}
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query listings", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing listings: %w", err)
	}
	listings, err := scanListings(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("results.total", total))
	span.SetStatus(codes.Ok, "Listings paged")
	return &types.ListingPage{Listings: listings, Total: total}, nil
}

// ListActive implements ListingStore. Unknown sort keys fall back to newest first.
func (r *RepositoryImpl) ListActive(ctx context.Context, page types.PageRequest, sort types.ListingSort) (*types.ListingPage, error) {
	col, ok := sortColumns[sort.Field]
	if !ok {
		col = "created_at"
	}
	dir := " DESC"
	if sort.Ascending {
		dir = " ASC"
	}
	return r.page(ctx, "ListActive", squirrel.Eq{"status": string(types.ListingActive)},
		[]string{col + dir, "id"}, page)
}

// Search implements ListingStore. Only ACTIVE listings match; newest first.
func (r *RepositoryImpl) Search(ctx context.Context, f types.ListingSearchFilter, page types.PageRequest) (*types.ListingPage, error) {
	return r.page(ctx, "Search", searchConditions(f), []string{"created_at DESC", "id"}, page)
}

func searchConditions(f types.ListingSearchFilter) squirrel.And {
	conds := squirrel.And{squirrel.Eq{"status": string(types.ListingActive)}}
	if f.City != nil && strings.TrimSpace(*f.City) != "" {
		conds = append(conds, squirrel.ILike{"city": "%" + strings.TrimSpace(*f.City) + "%"})
	}
	if f.PropertyType != nil {
		conds = append(conds, squirrel.Eq{"property_type": string(*f.PropertyType)})
	}
	if f.MinRent != nil {
		conds = append(conds, squirrel.GtOrEq{"monthly_rent": *f.MinRent})
	}
	if f.MaxRent != nil {
		conds = append(conds, squirrel.LtOrEq{"monthly_rent": *f.MaxRent})
	}
	if f.MinBedrooms != nil {
		conds = append(conds, squirrel.GtOrEq{"bedrooms": *f.MinBedrooms})
	}
	if f.MaxBedrooms != nil {
		conds = append(conds, squirrel.LtOrEq{"bedrooms": *f.MaxBedrooms})
	}
	if f.PetsAllowed != nil {
		conds = append(conds, squirrel.Eq{"pets_allowed": *f.PetsAllowed})
	}
	if f.Furnished != nil {
		conds = append(conds, squirrel.Eq{"furnished": *f.Furnished})
	}
	if f.University != nil && strings.TrimSpace(*f.University) != "" {
		conds = append(conds, squirrel.ILike{"nearest_university": "%" + strings.TrimSpace(*f.University) + "%"})
	}
	return conds
}

// ListByStatus implements ListingStore; oldest first so moderation is FIFO.
func (r *RepositoryImpl) ListByStatus(ctx context.Context, status types.ListingStatus, page types.PageRequest) (*types.ListingPage, error) {
	return r.page(ctx, "ListByStatus", squirrel.Eq{"status": string(status)}, []string{"created_at ASC", "id"}, page)
}

func (r *RepositoryImpl) list(ctx context.Context, op, query string, args ...any) ([]types.Listing, error) {
	ctx, span := startSpan(ctx, op, "listings")
	defer span.End()

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query listings", slog.String("method", op), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing listings: %w", err)
	}
	out, err := scanListings(rows)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("results.count", len(out)))
	span.SetStatus(codes.Ok, "Listings fetched")
	return out, nil
}

var selectListings = `SELECT ` + strings.Join(listingColumns, ", ") + ` FROM listings `

// NearCampus implements ListingStore.
func (r *RepositoryImpl) NearCampus(ctx context.Context, maxDistanceKm float64) ([]types.Listing, error) {
	return r.list(ctx, "NearCampus", selectListings+`
        WHERE status = 'ACTIVE' AND distance_to_campus_km IS NOT NULL AND distance_to_campus_km <= $1
        ORDER BY distance_to_campus_km ASC, id`, maxDistanceKm)
}

// ByUniversity implements ListingStore.
func (r *RepositoryImpl) ByUniversity(ctx context.Context, university string) ([]types.Listing, error) {
	return r.list(ctx, "ByUniversity", selectListings+`
        WHERE status = 'ACTIVE' AND nearest_university ILIKE $1
        ORDER BY created_at DESC, id`, "%"+university+"%")
}

// ByLandlord implements ListingStore. Every status is included.
func (r *RepositoryImpl) ByLandlord(ctx context.Context, landlordID uuid.UUID) ([]types.Listing, error) {
	return r.list(ctx, "ByLandlord", selectListings+`
        WHERE landlord_id = $1
        ORDER BY created_at DESC, id`, landlordID)
}

// Recent implements ListingStore.
func (r *RepositoryImpl) Recent(ctx context.Context, limit int) ([]types.Listing, error) {
	return r.list(ctx, "Recent", selectListings+`
        WHERE status = 'ACTIVE'
        ORDER BY created_at DESC, id
        LIMIT $1`, limit)
}

// Popular implements ListingStore.
func (r *RepositoryImpl) Popular(ctx context.Context, limit int) ([]types.Listing, error) {
	return r.list(ctx, "Popular", selectListings+`
        WHERE status = 'ACTIVE'
        ORDER BY view_count DESC, favorite_count DESC, id
        LIMIT $1`, limit)
}

// ModerationStats implements ListingStore.
func (r *RepositoryImpl) ModerationStats(ctx context.Context) (*types.ModerationStats, error) {
	ctx, span := startSpan(ctx, "ModerationStats", "listings")
	defer span.End()

	l := r.logger.With(slog.String("method", "ModerationStats"))

	stats := &types.ModerationStats{ByStatus: make(map[string]int64, len(types.AllListingStatuses))}
	for _, s := range types.AllListingStatuses {
		stats.ByStatus[string(s)] = 0
	}

	rows, err := r.pgpool.Query(ctx, `SELECT status, COUNT(*) FROM listings GROUP BY status`)
	if err != nil {
		l.ErrorContext(ctx, "Failed to count listings by status", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error counting listings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning status count: %w", err)
		}
		stats.ByStatus[status] = n
		stats.TotalListings += n
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading status counts: %w", err)
	}
	stats.PendingListings = stats.ByStatus[string(types.ListingPendingReview)]

	err = r.pgpool.QueryRow(ctx, `
        SELECT (SELECT COUNT(*) FROM listing_inquiries), (SELECT COUNT(*) FROM listing_favorites)`,
	).Scan(&stats.TotalInquiries, &stats.TotalFavorites)
	if err != nil {
		l.ErrorContext(ctx, "Failed to count inquiries and favorites", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error counting engagement: %w", err)
	}

	span.SetStatus(codes.Ok, "Stats computed")
	return stats, nil
}
