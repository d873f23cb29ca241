package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/campusnest-api/internal/domain/statistics"
	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
	"github.com/FACorreiaa/campusnest-api/pkg/respond"
)

type StatisticsHandler struct {
	service statistics.Service
}

func NewStatisticsHandler(svc statistics.Service) *StatisticsHandler {
	return &StatisticsHandler{service: svc}
}

// Routes registers the public statistics under /api/stats.
func (h *StatisticsHandler) Routes(r chi.Router) {
	r.Get("/overview", h.Overview)
}

// ListingRoutes registers the landlord dashboard on the listings router.
func (h *StatisticsHandler) ListingRoutes(r chi.Router) {
	r.With(interceptors.RequireRole(types.RoleLandlord)).
		Get("/my-listings/stats/overview", h.LandlordOverview)
}

func (h *StatisticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Overview(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, o)
}

func (h *StatisticsHandler) LandlordOverview(w http.ResponseWriter, r *http.Request) {
	landlordID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	o, err := h.service.LandlordOverview(r.Context(), landlordID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, o)
}
