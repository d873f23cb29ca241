package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service manages user profiles and account moderation.
type Service interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, fields types.UserProfileFields) (*types.UserProfile, error)
	// GetProfile returns the account with its profile; the profile is nil when
	// the user never created one.
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserWithProfile, error)
	// UpdateProfile applies a partial update, creating the profile when missing.
	UpdateProfile(ctx context.Context, userID uuid.UUID, fields types.UserProfileFields) (*types.UserProfile, error)
	// GetPublicProfile hides inactive accounts.
	GetPublicProfile(ctx context.Context, userID uuid.UUID) (*types.UserWithProfile, error)

	ListByRole(ctx context.Context, role string) ([]types.UserSummary, error)
	ListByUniversity(ctx context.Context, university string) ([]types.UserProfile, error)
	ListByCity(ctx context.Context, city string) ([]types.UserProfile, error)

	VerifyUser(ctx context.Context, userID uuid.UUID) error
	DeactivateUser(ctx context.Context, userID uuid.UUID) error
	ReactivateUser(ctx context.Context, userID uuid.UUID) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	tracer trace.Tracer
}

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		tracer: otel.Tracer("UsersService"),
	}
}

func (s *ServiceImpl) CreateProfile(ctx context.Context, userID uuid.UUID, fields types.UserProfileFields) (*types.UserProfile, error) {
	ctx, span := s.tracer.Start(ctx, "CreateProfile", trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	profile, err := s.repo.CreateProfile(ctx, userID, fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create profile")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return profile, nil
}

func (s *ServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserWithProfile, error) {
	ctx, span := s.tracer.Start(ctx, "GetProfile", trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	result := &types.UserWithProfile{User: *user}

	profile, err := s.repo.GetProfile(ctx, userID)
	switch {
	case err == nil:
		result.Profile = profile
	case errors.Is(err, types.ErrNotFound):
		s.logger.DebugContext(ctx, "No profile yet, returning basic user info", slog.String("userID", userID.String()))
	default:
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (s *ServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, fields types.UserProfileFields) (*types.UserProfile, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateProfile", trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	profile, err := s.repo.UpdateProfile(ctx, userID, fields)
	if errors.Is(err, types.ErrNotFound) {
		s.logger.InfoContext(ctx, "Profile missing on update, creating it", slog.String("userID", userID.String()))
		profile, err = s.repo.CreateProfile(ctx, userID, fields)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return profile, nil
}

func (s *ServiceImpl) GetPublicProfile(ctx context.Context, userID uuid.UUID) (*types.UserWithProfile, error) {
	result, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !result.User.IsActive {
		return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
	}
	return result, nil
}

func (s *ServiceImpl) ListByRole(ctx context.Context, role string) ([]types.UserSummary, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if !types.ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q: %w", role, types.ErrBadRequest)
	}
	return s.repo.ListByRole(ctx, role)
}

func (s *ServiceImpl) ListByUniversity(ctx context.Context, university string) ([]types.UserProfile, error) {
	university = strings.TrimSpace(university)
	if university == "" {
		return nil, fmt.Errorf("university name is required: %w", types.ErrBadRequest)
	}
	return s.repo.ListByUniversity(ctx, university)
}

func (s *ServiceImpl) ListByCity(ctx context.Context, city string) ([]types.UserProfile, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("city is required: %w", types.ErrBadRequest)
	}
	return s.repo.ListByCity(ctx, city)
}

func (s *ServiceImpl) VerifyUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.VerifyUser(ctx, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User verified by admin", slog.String("userID", userID.String()))
	return nil
}

func (s *ServiceImpl) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeactivateUser(ctx, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User deactivated by admin", slog.String("userID", userID.String()))
	return nil
}

func (s *ServiceImpl) ReactivateUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.ReactivateUser(ctx, userID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User reactivated by admin", slog.String("userID", userID.String()))
	return nil
}
