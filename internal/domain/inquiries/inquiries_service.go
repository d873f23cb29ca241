package inquiries

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Create(ctx context.Context, studentID, listingID uuid.UUID, f types.InquiryFields) (*types.Inquiry, error)
	Get(ctx context.Context, actorID, id uuid.UUID) (*types.Inquiry, error)
	ListForListing(ctx context.Context, actorID, listingID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error)
	ListForLandlord(ctx context.Context, landlordID uuid.UUID, status *types.InquiryStatus, page types.PageRequest) (*types.InquiryPage, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error)
	ListPending(ctx context.Context, landlordID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error)
	Respond(ctx context.Context, actorID, id uuid.UUID, response string, status types.InquiryStatus) (*types.Inquiry, error)
	UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status types.InquiryStatus) (*types.Inquiry, error)
	Archive(ctx context.Context, actorID, id uuid.UUID) (*types.Inquiry, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	LandlordStats(ctx context.Context, landlordID uuid.UUID) (*types.InquiryStats, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	tracer trace.Tracer
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		tracer: otel.Tracer("InquiriesService"),
		now:    time.Now,
	}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, types.ErrBadRequest)...)
}

func checkText(field, value string, lo, hi int) error {
	n := utf8.RuneCountInString(value)
	if n < lo || n > hi {
		return badRequest("%s must be between %d and %d characters", field, lo, hi)
	}
	return nil
}

func (s *ServiceImpl) validate(f *types.InquiryFields) error {
	f.Message = strings.TrimSpace(f.Message)
	if err := checkText("message", f.Message, 10, 1000); err != nil {
		return err
	}
	if f.LeaseDurationMonths != nil && (*f.LeaseDurationMonths < 1 || *f.LeaseDurationMonths > 24) {
		return badRequest("lease duration must be between 1 and 24 months")
	}
	if f.Occupants != nil && (*f.Occupants < 1 || *f.Occupants > 10) {
		return badRequest("occupants must be between 1 and 10")
	}
	if f.MoveInDate != nil && !f.MoveInDate.After(s.now()) {
		return badRequest("move-in date must be in the future")
	}
	if f.ContactPhone != nil && utf8.RuneCountInString(*f.ContactPhone) > 30 {
		return badRequest("contact phone must be at most 30 characters")
	}
	return nil
}

func (s *ServiceImpl) Create(ctx context.Context, studentID, listingID uuid.UUID, f types.InquiryFields) (*types.Inquiry, error) {
	ctx, span := s.tracer.Start(ctx, "Create", trace.WithAttributes(
		attribute.String("student.id", studentID.String()),
		attribute.String("listing.id", listingID.String()),
	))
	defer span.End()

	if err := s.validate(&f); err != nil {
		span.RecordError(err)
		return nil, err
	}
	listing, err := s.repo.ListingRef(ctx, listingID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if listing.Status != types.ListingActive {
		return nil, badRequest("cannot inquire about an inactive listing")
	}
	if listing.LandlordID == studentID {
		return nil, fmt.Errorf("cannot inquire about your own listing: %w", types.ErrForbidden)
	}

	in, err := s.repo.Create(ctx, listing, studentID, f)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "Inquiry created",
		slog.String("inquiryID", in.ID.String()),
		slog.String("listingID", listingID.String()))
	return in, nil
}

// Get returns the inquiry to its student or landlord; anyone else gets ErrForbidden.
func (s *ServiceImpl) Get(ctx context.Context, actorID, id uuid.UUID) (*types.Inquiry, error) {
	ctx, span := s.tracer.Start(ctx, "Get", trace.WithAttributes(attribute.String("inquiry.id", id.String())))
	defer span.End()

	in, err := s.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if in.StudentID != actorID && in.LandlordID != actorID {
		return nil, fmt.Errorf("inquiry belongs to other users: %w", types.ErrForbidden)
	}
	return in, nil
}

func (s *ServiceImpl) landlordOf(ctx context.Context, actorID, id uuid.UUID) (*types.Inquiry, error) {
	in, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.LandlordID != actorID {
		return nil, fmt.Errorf("inquiry was sent to another landlord: %w", types.ErrForbidden)
	}
	return in, nil
}

func (s *ServiceImpl) ListForListing(ctx context.Context, actorID, listingID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error) {
	ctx, span := s.tracer.Start(ctx, "ListForListing", trace.WithAttributes(attribute.String("listing.id", listingID.String())))
	defer span.End()

	listing, err := s.repo.ListingRef(ctx, listingID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if listing.LandlordID != actorID {
		return nil, fmt.Errorf("listing belongs to another landlord: %w", types.ErrForbidden)
	}
	return s.repo.ListForListing(ctx, listingID, page)
}

func (s *ServiceImpl) ListForLandlord(ctx context.Context, landlordID uuid.UUID, status *types.InquiryStatus, page types.PageRequest) (*types.InquiryPage, error) {
	ctx, span := s.tracer.Start(ctx, "ListForLandlord")
	defer span.End()

	if status != nil && !status.Valid() {
		return nil, badRequest("invalid inquiry status %q", *status)
	}
	return s.repo.ListForLandlord(ctx, landlordID, status, page)
}

func (s *ServiceImpl) ListForStudent(ctx context.Context, studentID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error) {
	ctx, span := s.tracer.Start(ctx, "ListForStudent")
	defer span.End()
	return s.repo.ListForStudent(ctx, studentID, page)
}

func (s *ServiceImpl) ListPending(ctx context.Context, landlordID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error) {
	pending := types.InquiryPending
	return s.ListForLandlord(ctx, landlordID, &pending, page)
}

// Respond answers a pending inquiry. An empty status means RESPONDED.
func (s *ServiceImpl) Respond(ctx context.Context, actorID, id uuid.UUID, response string, status types.InquiryStatus) (*types.Inquiry, error) {
	ctx, span := s.tracer.Start(ctx, "Respond", trace.WithAttributes(attribute.String("inquiry.id", id.String())))
	defer span.End()

	if status == "" {
		status = types.InquiryResponded
	}
	if !status.IsResponse() {
		return nil, badRequest("response status must be RESPONDED, ACCEPTED or DECLINED")
	}
	response = strings.TrimSpace(response)
	if err := checkText("response", response, 10, 1000); err != nil {
		return nil, err
	}

	in, err := s.landlordOf(ctx, actorID, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if in.Status != types.InquiryPending {
		return nil, fmt.Errorf("inquiry has already been answered: %w", types.ErrConflict)
	}
	out, err := s.repo.Respond(ctx, id, status, response)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.InfoContext(ctx, "Inquiry answered",
		slog.String("inquiryID", id.String()),
		slog.String("status", string(status)))
	return out, nil
}

func (s *ServiceImpl) UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status types.InquiryStatus) (*types.Inquiry, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateStatus", trace.WithAttributes(attribute.String("inquiry.id", id.String())))
	defer span.End()

	if !status.Valid() || status == types.InquiryPending {
		return nil, badRequest("invalid inquiry status %q", status)
	}
	if _, err := s.landlordOf(ctx, actorID, id); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.repo.SetStatus(ctx, id, status)
}

// Archive is open to both parties of the inquiry.
func (s *ServiceImpl) Archive(ctx context.Context, actorID, id uuid.UUID) (*types.Inquiry, error) {
	ctx, span := s.tracer.Start(ctx, "Archive", trace.WithAttributes(attribute.String("inquiry.id", id.String())))
	defer span.End()

	if _, err := s.Get(ctx, actorID, id); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.repo.SetStatus(ctx, id, types.InquiryArchived)
}

// Delete lets a student withdraw an inquiry that has not been answered.
func (s *ServiceImpl) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "Delete", trace.WithAttributes(attribute.String("inquiry.id", id.String())))
	defer span.End()

	in, err := s.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if in.StudentID != actorID {
		return fmt.Errorf("only the sender can delete an inquiry: %w", types.ErrForbidden)
	}
	if in.Status != types.InquiryPending {
		return badRequest("cannot delete an inquiry that has been answered")
	}
	return s.repo.Delete(ctx, id)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *ServiceImpl) LandlordStats(ctx context.Context, landlordID uuid.UUID) (*types.InquiryStats, error) {
	ctx, span := s.tracer.Start(ctx, "LandlordStats", trace.WithAttributes(attribute.String("landlord.id", landlordID.String())))
	defer span.End()

	counts, err := s.repo.StatusCounts(ctx, landlordID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	st := &types.InquiryStats{
		Pending:   counts[types.InquiryPending],
		Responded: counts[types.InquiryResponded],
		Accepted:  counts[types.InquiryAccepted],
		Declined:  counts[types.InquiryDeclined],
		Archived:  counts[types.InquiryArchived],
	}
	for _, n := range counts {
		st.Total += n
	}
	answered := st.Responded + st.Accepted + st.Declined
	if st.Total > 0 {
		st.ResponseRate = round2(float64(answered) / float64(st.Total) * 100)
	}
	if answered > 0 {
		st.AcceptanceRate = round2(float64(st.Accepted) / float64(answered) * 100)
	}
	return st, nil
}
