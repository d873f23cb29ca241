package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/campusnest-api/internal/domain/inquiries"
	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
	"github.com/FACorreiaa/campusnest-api/pkg/respond"
)

type CreateInquiryRequest struct {
	Message             string  `json:"message" validate:"required,min=10,max=1000"`
	MoveInDate          *string `json:"move_in_date" validate:"omitempty,datetime=2006-01-02"`
	LeaseDurationMonths *int    `json:"lease_duration_months" validate:"omitempty,gte=1,lte=24"`
	Occupants           *int    `json:"occupants" validate:"omitempty,gte=1,lte=10"`
	ContactPhone        *string `json:"contact_phone" validate:"omitempty,max=30"`
}

func (r CreateInquiryRequest) Fields() (types.InquiryFields, error) {
	f := types.InquiryFields{
		Message:             r.Message,
		LeaseDurationMonths: r.LeaseDurationMonths,
		Occupants:           r.Occupants,
		ContactPhone:        r.ContactPhone,
	}
	if r.MoveInDate != nil && *r.MoveInDate != "" {
		t, err := time.Parse("2006-01-02", *r.MoveInDate)
		if err != nil {
			return f, fmt.Errorf("move_in_date must be YYYY-MM-DD: %w", types.ErrBadRequest)
		}
		f.MoveInDate = &t
	}
	return f, nil
}

type RespondRequest struct {
	Response string `json:"response" validate:"required,min=10,max=1000"`
	Status   string `json:"status" validate:"omitempty,oneof=RESPONDED ACCEPTED DECLINED responded accepted declined"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type InquiriesHandler struct {
	service inquiries.Service
}

func NewInquiriesHandler(svc inquiries.Service) *InquiriesHandler {
	return &InquiriesHandler{service: svc}
}

// Routes registers inquiry endpoints on the listings router.
func (h *InquiriesHandler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(interceptors.RequireRole(types.RoleStudent))
		r.Post("/{id}/inquiry", h.Create)
		r.Get("/inquiries/sent", h.ListSent)
		r.Delete("/inquiries/{inquiryID}", h.Delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(interceptors.RequireRole(types.RoleLandlord))
		r.Get("/{id}/inquiries", h.ListForListing)
		r.Get("/inquiries/received", h.ListReceived)
		r.Get("/inquiries/pending", h.ListPending)
		r.Put("/inquiries/{inquiryID}/respond", h.Respond)
		r.Patch("/inquiries/{inquiryID}/status", h.UpdateStatus)
		r.Get("/my-listings/stats/inquiries", h.LandlordStats)
	})
	r.Group(func(r chi.Router) {
		r.Use(interceptors.RequireRole(types.RoleStudent, types.RoleLandlord))
		r.Get("/inquiries/{inquiryID}", h.Get)
		r.Put("/inquiries/{inquiryID}/archive", h.Archive)
	})
}

func caller(w http.ResponseWriter, r *http.Request, param string) (actorID, id uuid.UUID, ok bool) {
	actorID, err := interceptors.UserUUIDFromContext(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return uuid.Nil, uuid.Nil, false
	}
	if param == "" {
		return actorID, uuid.Nil, true
	}
	id, err = respond.PathUUID(r, param)
	if err != nil {
		respond.FromError(w, err)
		return uuid.Nil, uuid.Nil, false
	}
	return actorID, id, true
}

func pageOf(w http.ResponseWriter, r *http.Request) (types.PageRequest, bool) {
	page, size, err := respond.Page(r)
	if err != nil {
		respond.FromError(w, err)
		return types.PageRequest{}, false
	}
	return types.PageRequest{Page: page, Size: size}, true
}

func writePage(w http.ResponseWriter, p *types.InquiryPage, page types.PageRequest) {
	respond.JSON(w, http.StatusOK, respond.NewPage(p.Inquiries, page.Page, page.Size, p.Total))
}

func (h *InquiriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	studentID, listingID, ok := caller(w, r, "id")
	if !ok {
		return
	}
	var req CreateInquiryRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	fields, err := req.Fields()
	if err != nil {
		respond.FromError(w, err)
		return
	}
	in, err := h.service.Create(r.Context(), studentID, listingID, fields)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, in)
}

func (h *InquiriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := caller(w, r, "inquiryID")
	if !ok {
		return
	}
	in, err := h.service.Get(r.Context(), actorID, id)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, in)
}

func (h *InquiriesHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	studentID, _, ok := caller(w, r, "")
	if !ok {
		return
	}
	page, ok := pageOf(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListForStudent(r.Context(), studentID, page)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	writePage(w, result, page)
}

func (h *InquiriesHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	landlordID, _, ok := caller(w, r, "")
	if !ok {
		return
	}
	page, ok := pageOf(w, r)
	if !ok {
		return
	}
	var status *types.InquiryStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		s := types.InquiryStatus(strings.ToUpper(raw))
		status = &s
	}
	result, err := h.service.ListForLandlord(r.Context(), landlordID, status, page)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	writePage(w, result, page)
}

func (h *InquiriesHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	landlordID, _, ok := caller(w, r, "")
	if !ok {
		return
	}
	page, ok := pageOf(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListPending(r.Context(), landlordID, page)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	writePage(w, result, page)
}

func (h *InquiriesHandler) ListForListing(w http.ResponseWriter, r *http.Request) {
	landlordID, listingID, ok := caller(w, r, "id")
	if !ok {
		return
	}
	page, ok := pageOf(w, r)
	if !ok {
		return
	}
	result, err := h.service.ListForListing(r.Context(), landlordID, listingID, page)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	writePage(w, result, page)
}

func (h *InquiriesHandler) Respond(w http.ResponseWriter, r *http.Request) {
	landlordID, id, ok := caller(w, r, "inquiryID")
	if !ok {
		return
	}
	var req RespondRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	status := types.InquiryStatus(strings.ToUpper(req.Status))
	in, err := h.service.Respond(r.Context(), landlordID, id, req.Response, status)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, in)
}

func (h *InquiriesHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	landlordID, id, ok := caller(w, r, "inquiryID")
	if !ok {
		return
	}
	var req StatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.DecodeError(w, err)
		return
	}
	status := types.InquiryStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	in, err := h.service.UpdateStatus(r.Context(), landlordID, id, status)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, in)
}

func (h *InquiriesHandler) Archive(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := caller(w, r, "inquiryID")
	if !ok {
		return
	}
	in, err := h.service.Archive(r.Context(), actorID, id)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, in)
}

func (h *InquiriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	studentID, id, ok := caller(w, r, "inquiryID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), studentID, id); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.NoContent(w)
}

func (h *InquiriesHandler) LandlordStats(w http.ResponseWriter, r *http.Request) {
	landlordID, _, ok := caller(w, r, "")
	if !ok {
		return
	}
	stats, err := h.service.LandlordStats(r.Context(), landlordID)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
