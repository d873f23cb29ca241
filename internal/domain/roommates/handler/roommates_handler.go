package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/campusnest-api/internal/domain/roommates"
	"github.com/FACorreiaa/campusnest-api/internal/domain/roommates/presenter"
	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
	"github.com/FACorreiaa/campusnest-api/pkg/respond"
)

type RoommatesHandler struct {
	service roommates.Service
}

func NewRoommatesHandler(svc roommates.Service) *RoommatesHandler {
	return &RoommatesHandler{service: svc}
}

// Routes mounts the preference endpoints; the caller applies authentication.
func (h *RoommatesHandler) Routes(r chi.Router) {
	r.Get("/", h.GetPreferences)
	r.Post("/", h.SavePreferences)
	r.Put("/", h.SavePreferences)
	r.Delete("/", h.DeletePreferences)
	r.Get("/compatible", h.FindCompatible)
	r.Get("/compatible/ranked", h.RankCompatible)
	r.Get("/compatibility/{otherUserID}", h.ScoreCompatibility)
	r.Get("/search/budget", h.SearchByBudget)
	r.Get("/search/smoking/{value}", h.SearchBySmoking)
	r.Get("/search/pets/{value}", h.SearchByPetsAllowed)
	r.Get("/search/cleanliness/{level}", h.SearchByCleanliness)
}

func (h *RoommatesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	prefs, err := h.service.GetPreferences(r.Context(), userID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToPreferencesResponse(prefs))
}

func (h *RoommatesHandler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	var req presenter.SavePreferencesRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	prefs, err := h.service.SavePreferences(r.Context(), userID, req.RoommatePreferenceFields)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	respond.JSON(w, status, presenter.ToPreferencesResponse(prefs))
}

func (h *RoommatesHandler) DeletePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	if err := h.service.DeletePreferences(r.Context(), userID); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *RoommatesHandler) FindCompatible(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	list, err := h.service.FindCompatible(r.Context(), userID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToPreferencesList(list))
}

func (h *RoommatesHandler) RankCompatible(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			respond.Error(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be a non-negative integer")
			return
		}
	}
	ranked, err := h.service.RankCompatible(r.Context(), userID, limit)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToRankedList(ranked))
}

func (h *RoommatesHandler) ScoreCompatibility(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	otherID, err := presenter.ParseUUID(chi.URLParam(r, "otherUserID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id")
		return
	}
	result, err := h.service.ScoreCompatibility(r.Context(), userID, otherID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToCompatibilityResponse(result))
}

func (h *RoommatesHandler) SearchByBudget(w http.ResponseWriter, r *http.Request) {
	minBudget, err1 := strconv.Atoi(r.URL.Query().Get("minBudget"))
	maxBudget, err2 := strconv.Atoi(r.URL.Query().Get("maxBudget"))
	if err1 != nil || err2 != nil {
		respond.Error(w, http.StatusBadRequest, "BAD_REQUEST", "minBudget and maxBudget must be integers")
		return
	}
	list, err := h.service.SearchByBudget(r.Context(), minBudget, maxBudget)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToPreferencesList(list))
}

func (h *RoommatesHandler) SearchBySmoking(w http.ResponseWriter, r *http.Request) {
	value, err := parseBoolParam(r, "value")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	list, err := h.service.SearchBySmoking(r.Context(), value)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToPreferencesList(list))
}

func (h *RoommatesHandler) SearchByPetsAllowed(w http.ResponseWriter, r *http.Request) {
	value, err := parseBoolParam(r, "value")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	list, err := h.service.SearchByPetsAllowed(r.Context(), value)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToPreferencesList(list))
}

func (h *RoommatesHandler) SearchByCleanliness(w http.ResponseWriter, r *http.Request) {
	level := types.CleanlinessLevel(chi.URLParam(r, "level"))
	list, err := h.service.SearchByCleanliness(r.Context(), level)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToPreferencesList(list))
}

func parseBoolParam(r *http.Request, name string) (bool, error) {
	v, err := strconv.ParseBool(chi.URLParam(r, name))
	if err != nil {
		return false, fmt.Errorf("%s must be true or false: %w", name, types.ErrBadRequest)
	}
	return v, nil
}
