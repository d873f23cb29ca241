package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/campusnest-api/internal/domain/favorites"
	"github.com/FACorreiaa/campusnest-api/internal/domain/listings/presenter"
	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
	"github.com/FACorreiaa/campusnest-api/pkg/respond"
)

type FavoritesHandler struct {
	service favorites.Service
}

func NewFavoritesHandler(svc favorites.Service) *FavoritesHandler {
	return &FavoritesHandler{service: svc}
}

type BulkFavoritesRequest struct {
	ListingIDs []string `json:"listing_ids" validate:"required,min=1,max=100,dive,uuid"`
}

func (r BulkFavoritesRequest) IDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(r.ListingIDs))
	for i, raw := range r.ListingIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("listing_ids[%d] is not a uuid: %w", i, types.ErrBadRequest)
		}
		ids[i] = id
	}
	return ids, nil
}

// Routes registers favorites on the listings router.
func (h *FavoritesHandler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(interceptors.RequireRole(types.RoleStudent))
		r.Get("/favorites", h.ListMine)
		r.Get("/favorites/count", h.CountMine)
		r.Delete("/favorites", h.ClearAll)
		r.Post("/favorites/bulk", h.BulkAdd)
		r.Post("/favorites/bulk/remove", h.BulkRemove)
		r.Get("/{id}/favorite", h.IsFavorited)
		r.Post("/{id}/favorite", h.Add)
		r.Delete("/{id}/favorite", h.Remove)
	})
	r.Group(func(r chi.Router) {
		r.Use(interceptors.RequireRole(types.RoleLandlord))
		r.Get("/{id}/favorites", h.ListForListing)
		r.Get("/my-listings/stats/favorites", h.LandlordStats)
	})
}

func target(w http.ResponseWriter, r *http.Request) (userID, listingID uuid.UUID, ok bool) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return uuid.Nil, uuid.Nil, false
	}
	listingID, err = respond.PathUUID(r, "id")
	if err != nil {
		respond.FromError(w, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, listingID, true
}

func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, listingID, ok := target(w, r)
	if !ok {
		return
	}
	fav, err := h.service.Add(r.Context(), userID, listingID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, fav)
}

func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, listingID, ok := target(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), userID, listingID); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *FavoritesHandler) IsFavorited(w http.ResponseWriter, r *http.Request) {
	userID, listingID, ok := target(w, r)
	if !ok {
		return
	}
	fav, err := h.service.IsFavorited(r.Context(), userID, listingID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"favorited": fav})
}

func (h *FavoritesHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	page, size, err := respond.Page(r)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	result, err := h.service.ListForUser(r.Context(), userID, types.PageRequest{Page: page, Size: size})
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.NewPage(presenter.ToSummaries(result.Listings), page, size, result.Total))
}

func (h *FavoritesHandler) CountMine(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	n, err := h.service.CountForUser(r.Context(), userID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *FavoritesHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	n, err := h.service.ClearAll(r.Context(), userID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"removed": n})
}

func (h *FavoritesHandler) bulk(w http.ResponseWriter, r *http.Request, apply func(uuid.UUID, []uuid.UUID) (*types.BulkResult, error)) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	var req BulkFavoritesRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	ids, err := req.IDs()
	if err != nil {
		respond.FromError(w, err)
		return
	}
	res, err := apply(userID, ids)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *FavoritesHandler) BulkAdd(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, func(userID uuid.UUID, ids []uuid.UUID) (*types.BulkResult, error) {
		return h.service.BulkAdd(r.Context(), userID, ids)
	})
}

func (h *FavoritesHandler) BulkRemove(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, func(userID uuid.UUID, ids []uuid.UUID) (*types.BulkResult, error) {
		return h.service.BulkRemove(r.Context(), userID, ids)
	})
}

func (h *FavoritesHandler) ListForListing(w http.ResponseWriter, r *http.Request) {
	userID, listingID, ok := target(w, r)
	if !ok {
		return
	}
	favs, err := h.service.ListForListing(r.Context(), userID, listingID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, favs)
}

func (h *FavoritesHandler) LandlordStats(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	stats, err := h.service.LandlordStats(r.Context(), userID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
