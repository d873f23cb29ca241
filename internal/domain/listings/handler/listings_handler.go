package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/campusnest-api/internal/domain/listings"
	"github.com/FACorreiaa/campusnest-api/internal/domain/listings/presenter"
	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
	"github.com/FACorreiaa/campusnest-api/pkg/respond"
)

type ListingsHandler struct {
	service listings.Service
}

func NewListingsHandler(svc listings.Service) *ListingsHandler {
	return &ListingsHandler{service: svc}
}

// Routes mounts the listing endpoints. The caller is expected to attach the
// optional auth middleware so that anonymous reads work; writes require a role.
func (h *ListingsHandler) Routes(r chi.Router) {
	r.Get("/", h.ListActive)
	r.Post("/search", h.Search)
	r.Get("/nearby", h.NearCampus)
	r.Get("/university/{name}", h.ByUniversity)
	r.Get("/recent", h.Recent)
	r.Get("/popular", h.Popular)
	r.Get("/amenities/types", h.AmenityTypes)
	r.Post("/amenities/suggest", h.SuggestAmenities)
	r.Get("/preferences/types", h.PreferenceTypes)

	r.Get("/{id}", h.Get)
	r.Get("/{id}/photos", h.ListPhotos)
	r.Get("/{id}/photos/primary", h.PrimaryPhoto)
	r.Get("/{id}/amenities", h.ListAmenities)
	r.Get("/{id}/preferences", h.GetPreferences)

	r.Group(func(r chi.Router) {
		r.Use(interceptors.RequireRole(types.RoleLandlord))
		r.Post("/", h.Create)
		r.Get("/my-listings", h.MyListings)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Patch("/{id}/status", h.ChangeStatus)

		r.Post("/{id}/photos", h.AddPhoto)
		r.Delete("/{id}/photos", h.DeleteAllPhotos)
		r.Put("/{id}/photos/reorder", h.ReorderPhotos)
		r.Put("/{id}/photos/{photoID}", h.UpdatePhoto)
		r.Delete("/{id}/photos/{photoID}", h.DeletePhoto)
		r.Put("/{id}/photos/{photoID}/primary", h.SetPrimaryPhoto)

		r.Post("/{id}/amenities", h.AddAmenity)
		r.Post("/{id}/amenities/bulk", h.AddAmenities)
		r.Delete("/{id}/amenities/{amenity}", h.RemoveAmenity)

		r.Post("/{id}/preferences", h.SetPreferences)
		r.Put("/{id}/preferences", h.SetPreferences)
		r.Delete("/{id}/preferences", h.DeletePreferences)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(interceptors.RequireRole(types.RoleAdmin))
		r.Get("/pending", h.ListPending)
		r.Get("/stats", h.AdminStats)
		r.Put("/{id}/approve", h.Approve)
		r.Put("/{id}/reject", h.Reject)
		r.Delete("/{id}/force-delete", h.ForceDelete)
	})
}

// ViewerFrom describes the caller of r for visibility and view tracking.
func ViewerFrom(r *http.Request) listings.Viewer {
	v := listings.Viewer{UserAgent: r.UserAgent()}
	if id, err := interceptors.UserUUIDFromContext(r.Context()); err == nil {
		v.UserID = &id
	}
	v.Role, _ = interceptors.GetUserRoleFromContext(r.Context())
	v.IP = r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		v.IP = host
	}
	return v
}

func pageRequest(r *http.Request) (types.PageRequest, error) {
	page, size, err := respond.Page(r)
	return types.PageRequest{Page: page, Size: size}, err
}

func writePage(w http.ResponseWriter, p *types.ListingPage, req types.PageRequest) {
	respond.JSON(w, http.StatusOK, respond.NewPage(presenter.ToSummaries(p.Listings), req.Page, req.Size, p.Total))
}

func (h *ListingsHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	sort := types.ListingSort{
		Field:     r.URL.Query().Get("sortBy"),
		Ascending: strings.EqualFold(r.URL.Query().Get("sortDir"), "asc"),
	}
	result, err := h.service.ListActive(r.Context(), page, sort)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	writePage(w, result, page)
}

func (h *ListingsHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	var req presenter.SearchRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	result, err := h.service.Search(r.Context(), req.Filter(), page)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	writePage(w, result, page)
}

func (h *ListingsHandler) NearCampus(w http.ResponseWriter, r *http.Request) {
	maxKm, err := respond.QueryFloat(r, "maxDistance", 5)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	list, err := h.service.NearCampus(r.Context(), maxKm)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToSummaries(list))
}

func (h *ListingsHandler) ByUniversity(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ByUniversity(r.Context(), respond.PathText(r, "name"))
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToSummaries(list))
}

func (h *ListingsHandler) feed(w http.ResponseWriter, r *http.Request, load func(*http.Request, int) ([]types.Listing, error)) {
	limit, err := respond.QueryInt(r, "limit", 0)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	list, err := load(r, limit)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToSummaries(list))
}

func (h *ListingsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	h.feed(w, r, func(r *http.Request, limit int) ([]types.Listing, error) {
		return h.service.Recent(r.Context(), limit)
	})
}

func (h *ListingsHandler) Popular(w http.ResponseWriter, r *http.Request) {
	h.feed(w, r, func(r *http.Request, limit int) ([]types.Listing, error) {
		return h.service.Popular(r.Context(), limit)
	})
}

func (h *ListingsHandler) MyListings(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	list, err := h.service.ByLandlord(r.Context(), userID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToSummaries(list))
}

func (h *ListingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathUUID(r, "id")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	detail, err := h.service.Get(r.Context(), id, ViewerFrom(r))
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToDetailResponse(detail))
}

func (h *ListingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	var req presenter.CreateListingRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	nl, err := req.NewListing()
	if err != nil {
		respond.FromError(w, err)
		return
	}
	detail, err := h.service.Create(r.Context(), userID, nl)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, presenter.ToDetailResponse(detail))
}

// owned resolves the caller and the {id} parameter of a write request.
func owned(w http.ResponseWriter, r *http.Request) (actorID, listingID uuid.UUID, ok bool) {
	actorID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return uuid.Nil, uuid.Nil, false
	}
	listingID, err = respond.PathUUID(r, "id")
	if err != nil {
		respond.FromError(w, err)
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, listingID, true
}

func (h *ListingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	var req presenter.UpdateListingRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	upd, err := req.Update()
	if err != nil {
		respond.FromError(w, err)
		return
	}
	listing, err := h.service.Update(r.Context(), actorID, id, upd)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToListingResponse(listing))
}

func (h *ListingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actorID, id); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *ListingsHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	var req presenter.StatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	status := types.ListingStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	listing, err := h.service.ChangeStatus(r.Context(), actorID, id, status)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToListingResponse(listing))
}

func (h *ListingsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	result, err := h.service.ListPending(r.Context(), page)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	writePage(w, result, page)
}

func (h *ListingsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathUUID(r, "id")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	listing, err := h.service.Approve(r.Context(), id)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToListingResponse(listing))
}

func (h *ListingsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathUUID(r, "id")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	var req presenter.RejectRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	listing, err := h.service.Reject(r.Context(), id, req.Reason)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, presenter.ToListingResponse(listing))
}

func (h *ListingsHandler) ForceDelete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathUUID(r, "id")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	if err := h.service.ForceDelete(r.Context(), id); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *ListingsHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.AdminStats(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
