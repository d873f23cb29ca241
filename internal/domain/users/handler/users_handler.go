package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/campusnest-api/internal/domain/users"
	"github.com/FACorreiaa/campusnest-api/internal/domain/users/presenter"
	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
	"github.com/FACorreiaa/campusnest-api/pkg/respond"
)

type UsersHandler struct {
	service users.Service
}

func NewUsersHandler(svc users.Service) *UsersHandler {
	return &UsersHandler{service: svc}
}

// Routes mounts profile and directory routes; the caller applies authentication.
func (h *UsersHandler) Routes(r chi.Router) {
	r.Get("/profile", h.GetProfile)
	r.Post("/profile", h.CreateProfile)
	r.Put("/profile", h.UpdateProfile)
	r.Get("/{userID}/profile", h.GetPublicProfile)
	r.Get("/role/{role}", h.ListByRole)
	r.Get("/university/{name}", h.ListByUniversity)
	r.Get("/city/{city}", h.ListByCity)

	r.Route("/admin/{userID}", func(r chi.Router) {
		r.Use(interceptors.RequireRole(types.RoleAdmin))
		r.Put("/verify", h.adminAction(h.service.VerifyUser))
		r.Put("/deactivate", h.adminAction(h.service.DeactivateUser))
		r.Put("/reactivate", h.adminAction(h.service.ReactivateUser))
	})
}

func (h *UsersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	result, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToProfileResponse(result))
}

func (h *UsersHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, http.StatusCreated, h.service.CreateProfile)
}

func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, http.StatusOK, h.service.UpdateProfile)
}

type profileWriteFunc func(ctx context.Context, userID uuid.UUID, fields types.UserProfileFields) (*types.UserProfile, error)

func (h *UsersHandler) writeProfile(w http.ResponseWriter, r *http.Request, status int, write profileWriteFunc) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	var req presenter.ProfileRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	fields, err := req.Fields()
	if err != nil {
		respond.FromError(w, err)
		return
	}
	profile, err := write(r.Context(), userID, fields)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, status, presenter.ToStoredProfileResponse(profile))
}

func (h *UsersHandler) GetPublicProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := respond.PathUUID(r, "userID")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	result, err := h.service.GetPublicProfile(r.Context(), userID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToPublicProfileResponse(result))
}

func (h *UsersHandler) ListByRole(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByRole(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *UsersHandler) ListByUniversity(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByUniversity(r.Context(), respond.PathText(r, "name"))
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToProfileList(list))
}

func (h *UsersHandler) ListByCity(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByCity(r.Context(), respond.PathText(r, "city"))
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToProfileList(list))
}

func (h *UsersHandler) adminAction(action func(context.Context, uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := respond.PathUUID(r, "userID")
		if err != nil {
			respond.FromError(w, err)
			return
		}
		if err := action(r.Context(), userID); err != nil {
			respond.FromError(w, err)
			return
		}
		respond.NoContent(w)
	}
}
