package listings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/observability"
)

// Viewer identifies whoever is reading a listing. Every field may be empty.
type Viewer struct {
	UserID    *uuid.UUID
	Role      string
	IP        string
	UserAgent string
}

func (v Viewer) isAdmin() bool { return v.Role == types.RoleAdmin }

func (v Viewer) owns(l *types.Listing) bool {
	return v.UserID != nil && *v.UserID == l.LandlordID
}

const (
	viewRecorded  = "recorded"
	viewDuplicate = "duplicate"
	viewOwner     = "owner"
	viewError     = "error"
)

// viewTracker counts a view at most once per listing, user and IP within the window.
// Views it has already seen are answered from memory before the database is asked.
type viewTracker struct {
	logger *slog.Logger
	repo   ViewStore
	window time.Duration
	seen   *cache.Cache
	now    func() time.Time
}

func newViewTracker(repo ViewStore, window time.Duration, logger *slog.Logger) *viewTracker {
	return &viewTracker{
		logger: logger,
		repo:   repo,
		window: window,
		seen:   cache.New(window, 2*window),
		now:    time.Now,
	}
}

func viewKey(listingID uuid.UUID, v Viewer) string {
	user := "-"
	if v.UserID != nil {
		user = v.UserID.String()
	}
	return listingID.String() + "|" + user + "|" + v.IP
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// track records a view of l by v and returns the outcome label. Failures are
// logged and never surfaced to the reader.
func (t *viewTracker) track(ctx context.Context, l *types.Listing, v Viewer) string {
	outcome := t.record(ctx, l, v)
	observability.ListingViewsRecorded.WithLabelValues(outcome).Inc()
	return outcome
}

func (t *viewTracker) record(ctx context.Context, l *types.Listing, v Viewer) string {
	if v.owns(l) {
		return viewOwner
	}

	key := viewKey(l.ID, v)
	if _, found := t.seen.Get(key); found {
		return viewDuplicate
	}

	counted, err := t.repo.RecordView(ctx, types.ListingView{
		ListingID: l.ID,
		UserID:    v.UserID,
		IPAddress: optional(v.IP),
		UserAgent: optional(v.UserAgent),
	}, t.now().Add(-t.window))
	if err != nil {
		t.logger.WarnContext(ctx, "Failed to record listing view",
			slog.String("listingID", l.ID.String()), slog.Any("error", err))
		return viewError
	}

	t.seen.Set(key, struct{}{}, cache.DefaultExpiration)
	if !counted {
		return viewDuplicate
	}
	return viewRecorded
}
