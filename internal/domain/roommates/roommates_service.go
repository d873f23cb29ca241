package roommates

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/observability"
)

var _ Service = (*ServiceImpl)(nil)

// Service is the roommate compatibility engine.
type Service interface {
	GetPreferences(ctx context.Context, userID uuid.UUID) (*types.RoommatePreferences, error)
	SavePreferences(ctx context.Context, userID uuid.UUID, fields types.RoommatePreferenceFields) (*types.RoommatePreferences, error)
	DeletePreferences(ctx context.Context, userID uuid.UUID) error

	// FindCompatible returns the unscored, unordered candidates passing the
	// budget, smoking and pets hard filters. The requester is never included.
	FindCompatible(ctx context.Context, userID uuid.UUID) ([]types.RoommatePreferences, error)
	// RankCompatible scores FindCompatible's candidates against the requester,
	// best first. limit <= 0 returns all of them.
	RankCompatible(ctx context.Context, userID uuid.UUID, limit int) ([]types.RankedRoommate, error)
	ScoreCompatibility(ctx context.Context, userID1, userID2 uuid.UUID) (*types.CompatibilityResult, error)

	SearchByBudget(ctx context.Context, minBudget, maxBudget int) ([]types.RoommatePreferences, error)
	SearchBySmoking(ctx context.Context, smoking bool) ([]types.RoommatePreferences, error)
	SearchByPetsAllowed(ctx context.Context, petsAllowed bool) ([]types.RoommatePreferences, error)
	SearchByCleanliness(ctx context.Context, level types.CleanlinessLevel) ([]types.RoommatePreferences, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
}

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *ServiceImpl) GetPreferences(ctx context.Context, userID uuid.UUID) (*types.RoommatePreferences, error) {
	ctx, span := otel.Tracer("RoommatesService").Start(ctx, "GetPreferences", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	prefs, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return prefs, nil
}

func (s *ServiceImpl) SavePreferences(ctx context.Context, userID uuid.UUID, fields types.RoommatePreferenceFields) (*types.RoommatePreferences, error) {
	ctx, span := otel.Tracer("RoommatesService").Start(ctx, "SavePreferences", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SavePreferences"), slog.String("userID", userID.String()))

	if err := checkBudget(fields.BudgetMin, fields.BudgetMax); err != nil {
		span.RecordError(err)
		return nil, err
	}

	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		return nil, err
	}
	if !exists {
		l.WarnContext(ctx, "Saving preferences for unknown user")
		return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}

	prefs, err := s.repo.Save(ctx, userID, fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, err
	}

	l.InfoContext(ctx, "Roommate preferences saved")
	span.SetStatus(codes.Ok, "saved")
	return prefs, nil
}

func (s *ServiceImpl) DeletePreferences(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.Tracer("RoommatesService").Start(ctx, "DeletePreferences", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, userID); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *ServiceImpl) FindCompatible(ctx context.Context, userID uuid.UUID) ([]types.RoommatePreferences, error) {
	ctx, span := otel.Tracer("RoommatesService").Start(ctx, "FindCompatible", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	requester, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	candidates, err := s.candidatesFor(ctx, requester)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate search failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))
	return candidates, nil
}

func (s *ServiceImpl) candidatesFor(ctx context.Context, requester *types.RoommatePreferences) ([]types.RoommatePreferences, error) {
	l := s.logger.With(slog.String("method", "FindCompatible"), slog.String("userID", requester.UserID.String()))

	// NULL never equals anything in SQL, so a requester without hard-filter
	// data cannot match any candidate.
	if requester.BudgetMin == nil || requester.BudgetMax == nil ||
		requester.SmokingPreference == nil || requester.PetsAllowed == nil {
		l.DebugContext(ctx, "Requester lacks hard-filter data, no candidates")
		return []types.RoommatePreferences{}, nil
	}

	candidates, err := s.repo.FindCandidates(ctx, requester.UserID,
		*requester.BudgetMin, *requester.BudgetMax,
		*requester.SmokingPreference, *requester.PetsAllowed)
	if err != nil {
		return nil, err
	}

	out := make([]types.RoommatePreferences, 0, len(candidates))
	for _, c := range candidates {
		if c.UserID != requester.UserID {
			out = append(out, c)
		}
	}

	l.DebugContext(ctx, "Compatible candidates found", slog.Int("count", len(out)))
	return out, nil
}

func (s *ServiceImpl) RankCompatible(ctx context.Context, userID uuid.UUID, limit int) ([]types.RankedRoommate, error) {
	ctx, span := otel.Tracer("RoommatesService").Start(ctx, "RankCompatible", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("limit", limit),
	))
	defer span.End()

	requester, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	candidates, err := s.candidatesFor(ctx, requester)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ranked := make([]types.RankedRoommate, 0, len(candidates))
	for _, c := range candidates {
		score := Score(requester, &c)
		observability.CompatibilityScoresComputed.Inc()
		ranked = append(ranked, types.RankedRoommate{Preferences: c, Score: score, Level: Level(score)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Preferences.UserID.String() < ranked[j].Preferences.UserID.String()
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *ServiceImpl) ScoreCompatibility(ctx context.Context, userID1, userID2 uuid.UUID) (*types.CompatibilityResult, error) {
	ctx, span := otel.Tracer("RoommatesService").Start(ctx, "ScoreCompatibility", trace.WithAttributes(
		attribute.String("user.id.1", userID1.String()),
		attribute.String("user.id.2", userID2.String()),
	))
	defer span.End()

	a, err := s.repo.GetByUser(ctx, userID1)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	b, err := s.repo.GetByUser(ctx, userID2)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	score := Score(a, b)
	observability.CompatibilityScoresComputed.Inc()

	s.logger.DebugContext(ctx, "Compatibility scored",
		slog.String("userID1", userID1.String()),
		slog.String("userID2", userID2.String()),
		slog.Float64("score", score))

	return &types.CompatibilityResult{
		UserID1: userID1,
		UserID2: userID2,
		Score:   score,
		Level:   Level(score),
	}, nil
}

func (s *ServiceImpl) SearchByBudget(ctx context.Context, minBudget, maxBudget int) ([]types.RoommatePreferences, error) {
	if minBudget < 0 || maxBudget < 0 {
		return nil, fmt.Errorf("budget bounds must not be negative: %w", types.ErrBadRequest)
	}
	return s.repo.FindByBudgetOverlap(ctx, minBudget, maxBudget)
}

func (s *ServiceImpl) SearchBySmoking(ctx context.Context, smoking bool) ([]types.RoommatePreferences, error) {
	return s.repo.FindBySmoking(ctx, smoking)
}

func (s *ServiceImpl) SearchByPetsAllowed(ctx context.Context, petsAllowed bool) ([]types.RoommatePreferences, error) {
	return s.repo.FindByPetsAllowed(ctx, petsAllowed)
}

func (s *ServiceImpl) SearchByCleanliness(ctx context.Context, level types.CleanlinessLevel) ([]types.RoommatePreferences, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("unknown cleanliness level %q: %w", level, types.ErrBadRequest)
	}
	return s.repo.FindByCleanliness(ctx, level)
}

// checkBudget only rejects negative amounts; min > max is accepted.
func checkBudget(minBudget, maxBudget *int) error {
	if (minBudget != nil && *minBudget < 0) || (maxBudget != nil && *maxBudget < 0) {
		return fmt.Errorf("budget must not be negative: %w", types.ErrBadRequest)
	}
	return nil
}
