package handler

import (
	"net/http"
	"strings"

	"github.com/FACorreiaa/campusnest-api/internal/domain/listings/presenter"
	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/respond"
)

func (h *ListingsHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathUUID(r, "id")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	photos, err := h.service.ListPhotos(r.Context(), id, ViewerFrom(r))
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, photos)
}

func (h *ListingsHandler) PrimaryPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathUUID(r, "id")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	photo, err := h.service.PrimaryPhoto(r.Context(), id, ViewerFrom(r))
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, photo)
}

func (h *ListingsHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	var req presenter.PhotoRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	photo, err := h.service.AddPhoto(r.Context(), actorID, id, req.PhotoUpdate())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, photo)
}

func (h *ListingsHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	photoID, err := respond.PathUUID(r, "photoID")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	var req presenter.PhotoRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	photo, err := h.service.UpdatePhoto(r.Context(), actorID, id, photoID, req.PhotoUpdate())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, photo)
}

func (h *ListingsHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	photoID, err := respond.PathUUID(r, "photoID")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	if err := h.service.DeletePhoto(r.Context(), actorID, id, photoID); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *ListingsHandler) SetPrimaryPhoto(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	photoID, err := respond.PathUUID(r, "photoID")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	if err := h.service.SetPrimaryPhoto(r.Context(), actorID, id, photoID); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *ListingsHandler) ReorderPhotos(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	var req presenter.ReorderPhotosRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	ids, err := req.IDs()
	if err != nil {
		respond.FromError(w, err)
		return
	}
	if err := h.service.ReorderPhotos(r.Context(), actorID, id, ids); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *ListingsHandler) DeleteAllPhotos(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	deleted, err := h.service.DeleteAllPhotos(r.Context(), actorID, id)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *ListingsHandler) ListAmenities(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathUUID(r, "id")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	amenities, err := h.service.ListAmenities(r.Context(), id, ViewerFrom(r))
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, amenities)
}

func (h *ListingsHandler) AddAmenity(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	var req presenter.AmenityRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	amenity := types.AmenityType(strings.ToUpper(strings.TrimSpace(req.AmenityType)))
	added, err := h.service.AddAmenity(r.Context(), actorID, id, amenity, req.Description)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, added)
}

func (h *ListingsHandler) AddAmenities(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	var req presenter.BulkAmenityRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	result, err := h.service.AddAmenities(r.Context(), actorID, id, req.AmenityTypes)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func (h *ListingsHandler) RemoveAmenity(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	amenity := types.AmenityType(strings.ToUpper(respond.PathText(r, "amenity")))
	if err := h.service.RemoveAmenity(r.Context(), actorID, id, amenity); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *ListingsHandler) AmenityTypes(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, h.service.AmenityCatalog())
}

func (h *ListingsHandler) SuggestAmenities(w http.ResponseWriter, r *http.Request) {
	var req presenter.SuggestAmenitiesRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string][]types.AmenityType{
		"amenities": h.service.SuggestAmenities(req.Description),
	})
}

func (h *ListingsHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	id, err := respond.PathUUID(r, "id")
	if err != nil {
		respond.FromError(w, err)
		return
	}
	prefs, err := h.service.GetPreferences(r.Context(), id, ViewerFrom(r))
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, prefs)
}

func (h *ListingsHandler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	var req presenter.PreferenceRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	prefs, err := h.service.SetPreferences(r.Context(), actorID, id, req.Fields())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, prefs)
}

func (h *ListingsHandler) DeletePreferences(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := owned(w, r)
	if !ok {
		return
	}
	if err := h.service.DeletePreferences(r.Context(), actorID, id); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *ListingsHandler) PreferenceTypes(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, h.service.PreferenceTypes())
}
