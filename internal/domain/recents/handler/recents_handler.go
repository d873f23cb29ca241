package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/campusnest-api/internal/domain/listings/presenter"
	"github.com/FACorreiaa/campusnest-api/internal/domain/recents"
	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
	"github.com/FACorreiaa/campusnest-api/pkg/respond"
)

type RecentlyViewedResponse struct {
	Listing      presenter.ListingSummary `json:"listing"`
	LastViewedAt time.Time                `json:"last_viewed_at"`
	ViewCount    int64                    `json:"view_count"`
}

type RecentsHandler struct {
	service recents.Service
}

func NewRecentsHandler(svc recents.Service) *RecentsHandler {
	return &RecentsHandler{service: svc}
}

func (h *RecentsHandler) Routes(r chi.Router) {
	r.With(interceptors.RequireRole(types.RoleStudent, types.RoleLandlord, types.RoleAdmin)).
		Get("/recently-viewed", h.ListRecentlyViewed)
}

func (h *RecentsHandler) ListRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	limit, err := respond.QueryInt(r, "limit", recents.DefaultLimit)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	viewed, err := h.service.ListRecentlyViewed(r.Context(), userID, limit)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	out := make([]RecentlyViewedResponse, len(viewed))
	for i := range viewed {
		out[i] = RecentlyViewedResponse{
			Listing:      presenter.ToSummary(&viewed[i].Listing),
			LastViewedAt: viewed[i].LastViewedAt,
			ViewCount:    viewed[i].ViewCount,
		}
	}
	respond.JSON(w, http.StatusOK, out)
}
