package inquiries

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

type Repository interface {
	ListingRef(ctx context.Context, listingID uuid.UUID) (*types.ListingRef, error)
	Create(ctx context.Context, listing *types.ListingRef, studentID uuid.UUID, f types.InquiryFields) (*types.Inquiry, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Inquiry, error)
	ListForListing(ctx context.Context, listingID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error)
	// ListForLandlord pages a landlord's inquiries, optionally narrowed to one status.
	ListForLandlord(ctx context.Context, landlordID uuid.UUID, status *types.InquiryStatus, page types.PageRequest) (*types.InquiryPage, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error)
	// Respond answers a PENDING inquiry. ErrConflict when it is no longer pending.
	Respond(ctx context.Context, id uuid.UUID, status types.InquiryStatus, response string) (*types.Inquiry, error)
	SetStatus(ctx context.Context, id uuid.UUID, status types.InquiryStatus) (*types.Inquiry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// StatusCounts returns the number of a landlord's inquiries in each status.
	StatusCounts(ctx context.Context, landlordID uuid.UUID) (map[types.InquiryStatus]int64, error)
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

var inquiryColumns = []string{
	"id", "listing_id", "student_id", "landlord_id", "message", "move_in_date",
	"lease_duration_months", "occupants", "contact_phone", "status",
	"landlord_response", "responded_at", "created_at", "updated_at",
}

var returningInquiry = "RETURNING " + strings.Join(inquiryColumns, ", ")

func inquiryTargets(i *types.Inquiry) []any {
	return []any{
		&i.ID, &i.ListingID, &i.StudentID, &i.LandlordID, &i.Message, &i.MoveInDate,
		&i.LeaseDurationMonths, &i.Occupants, &i.ContactPhone, &i.Status,
		&i.LandlordResponse, &i.RespondedAt, &i.CreatedAt, &i.UpdatedAt,
	}
}

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{semconv.DBSystemPostgreSQL, attribute.String("db.sql.table", "listing_inquiries")}, attrs...)
	return otel.Tracer("InquiriesRepo").Start(ctx, op, trace.WithAttributes(attrs...))
}

// ListingRef implements Repository.
func (r *RepositoryImpl) ListingRef(ctx context.Context, listingID uuid.UUID) (*types.ListingRef, error) {
	ctx, span := startSpan(ctx, "ListingRef", attribute.String("listing.id", listingID.String()))
	defer span.End()

	var ref types.ListingRef
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, landlord_id, status, title FROM listings WHERE id = $1`, listingID,
	).Scan(&ref.ID, &ref.LandlordID, &ref.Status, &ref.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("listing not found: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to load listing", slog.String("listingID", listingID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error loading listing: %w", err)
	}
	return &ref, nil
}

// Create implements Repository. The landlord is copied from the listing so
// later ownership changes do not move existing conversations.
func (r *RepositoryImpl) Create(ctx context.Context, listing *types.ListingRef, studentID uuid.UUID, f types.InquiryFields) (*types.Inquiry, error) {
	ctx, span := startSpan(ctx, "Create",
		attribute.String("db.operation", "INSERT"),
		attribute.String("listing.id", listing.ID.String()),
		attribute.String("student.id", studentID.String()))
	defer span.End()

	var in types.Inquiry
	err := r.pgpool.QueryRow(ctx, `
        INSERT INTO listing_inquiries (
            listing_id, student_id, landlord_id, message, move_in_date,
            lease_duration_months, occupants, contact_phone, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) `+returningInquiry,
		listing.ID, studentID, listing.LandlordID, f.Message, f.MoveInDate,
		f.LeaseDurationMonths, f.Occupants, f.ContactPhone, string(types.InquiryPending),
	).Scan(inquiryTargets(&in)...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to create inquiry",
			slog.String("listingID", listing.ID.String()),
			slog.String("studentID", studentID.String()),
			slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating inquiry: %w", err)
	}
	span.SetStatus(codes.Ok, "Inquiry created")
	return &in, nil
}

func (r *RepositoryImpl) one(ctx context.Context, span trace.Span, op, query string, args ...any) (*types.Inquiry, error) {
	var in types.Inquiry
	err := r.pgpool.QueryRow(ctx, query, args...).Scan(inquiryTargets(&in)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "Inquiry not found")
			return nil, fmt.Errorf("inquiry not found: %w", types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Inquiry query failed", slog.String("method", op), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error in %s: %w", op, err)
	}
	return &in, nil
}

// Get implements Repository.
func (r *RepositoryImpl) Get(ctx context.Context, id uuid.UUID) (*types.Inquiry, error) {
	ctx, span := startSpan(ctx, "Get", attribute.String("inquiry.id", id.String()))
	defer span.End()
	return r.one(ctx, span, "Get",
		`SELECT `+strings.Join(inquiryColumns, ", ")+` FROM listing_inquiries WHERE id = $1`, id)
}

func (r *RepositoryImpl) page(ctx context.Context, op string, where squirrel.Sqlizer, page types.PageRequest) (*types.InquiryPage, error) {
	ctx, span := startSpan(ctx, op,
		attribute.Int("page.number", page.Page),
		attribute.Int("page.size", page.Size))
	defer span.End()

	l := r.logger.With(slog.String("method", op))

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("listing_inquiries").Where(where).ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int64
	if err := r.pgpool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		l.ErrorContext(ctx, "Failed to count inquiries", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error counting inquiries: %w", err)
	}

	query, args, err := psql.Select(inquiryColumns...).From("listing_inquiries").Where(where).
		OrderBy("created_at DESC", "id").
		Limit(uint64(page.Size)).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build inquiry query: %w", err)
	}
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query inquiries", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing inquiries: %w", err)
	}
	defer rows.Close()

	out := []types.Inquiry{}
	for rows.Next() {
		var in types.Inquiry
		if err := rows.Scan(inquiryTargets(&in)...); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning inquiry: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading inquiries: %w", err)
	}
	span.SetStatus(codes.Ok, "Inquiries paged")
	return &types.InquiryPage{Inquiries: out, Total: total}, nil
}

// ListForListing implements Repository.
func (r *RepositoryImpl) ListForListing(ctx context.Context, listingID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error) {
	return r.page(ctx, "ListForListing", squirrel.Eq{"listing_id": listingID}, page)
}

// ListForLandlord implements Repository.
func (r *RepositoryImpl) ListForLandlord(ctx context.Context, landlordID uuid.UUID, status *types.InquiryStatus, page types.PageRequest) (*types.InquiryPage, error) {
	where := squirrel.And{squirrel.Eq{"landlord_id": landlordID}}
	if status != nil {
		where = append(where, squirrel.Eq{"status": string(*status)})
	}
	return r.page(ctx, "ListForLandlord", where, page)
}

// ListForStudent implements Repository.
func (r *RepositoryImpl) ListForStudent(ctx context.Context, studentID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error) {
	return r.page(ctx, "ListForStudent", squirrel.Eq{"student_id": studentID}, page)
}

// Respond implements Repository.
func (r *RepositoryImpl) Respond(ctx context.Context, id uuid.UUID, status types.InquiryStatus, response string) (*types.Inquiry, error) {
	ctx, span := startSpan(ctx, "Respond",
		attribute.String("db.operation", "UPDATE"),
		attribute.String("inquiry.id", id.String()),
		attribute.String("inquiry.status", string(status)))
	defer span.End()

	in, err := r.one(ctx, span, "Respond", `
        UPDATE listing_inquiries
        SET status = $2, landlord_response = $3, responded_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND status = 'PENDING' `+returningInquiry,
		id, string(status), response)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("inquiry is no longer pending: %w", types.ErrConflict)
	}
	return in, err
}

// SetStatus implements Repository.
func (r *RepositoryImpl) SetStatus(ctx context.Context, id uuid.UUID, status types.InquiryStatus) (*types.Inquiry, error) {
	ctx, span := startSpan(ctx, "SetStatus",
		attribute.String("db.operation", "UPDATE"),
		attribute.String("inquiry.id", id.String()),
		attribute.String("inquiry.status", string(status)))
	defer span.End()

	return r.one(ctx, span, "SetStatus", `
        UPDATE listing_inquiries SET status = $2, updated_at = NOW()
        WHERE id = $1 `+returningInquiry,
		id, string(status))
}

// Delete implements Repository.
func (r *RepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := startSpan(ctx, "Delete",
		attribute.String("db.operation", "DELETE"),
		attribute.String("inquiry.id", id.String()))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `DELETE FROM listing_inquiries WHERE id = $1`, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete inquiry", slog.String("inquiryID", id.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting inquiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inquiry not found: %w", types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "Inquiry deleted")
	return nil
}

// StatusCounts implements Repository.
func (r *RepositoryImpl) StatusCounts(ctx context.Context, landlordID uuid.UUID) (map[types.InquiryStatus]int64, error) {
	ctx, span := startSpan(ctx, "StatusCounts", attribute.String("landlord.id", landlordID.String()))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
        SELECT status, COUNT(*) FROM listing_inquiries
        WHERE landlord_id = $1
        GROUP BY status`, landlordID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to count inquiries by status", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error counting inquiries: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.InquiryStatus]int64)
	for rows.Next() {
		var (
			status types.InquiryStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("database error scanning inquiry count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("database error reading inquiry counts: %w", err)
	}
	return counts, nil
}
