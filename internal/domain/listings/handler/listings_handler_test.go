package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/campusnest-api/internal/domain/listings"
	"github.com/FACorreiaa/campusnest-api/internal/domain/listings/listingstest"
	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
)

var _ listings.Repository = (*listingstest.MockRepository)(nil)

type caller struct {
	id   uuid.UUID
	role string
}

var anonymous = caller{}

func newTestRouter(repo *listingstest.MockRepository, who caller) http.Handler {
	svc := listings.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), listings.Options{})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if who.id != uuid.Nil {
				req = req.WithContext(interceptors.WithUser(req.Context(), who.id.String(), "u@uni.edu", who.role))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api/listings", NewListingsHandler(svc).Routes)
	return r
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("User-Agent", "handler-test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const validListing = `{
	"title": "Quiet studio by the library",
	"description": "Self-contained studio with kitchenette, five minutes from the central library and bus stop.",
	"monthly_rent": 620,
	"currency": "eur",
	"bedrooms": 0,
	"bathrooms": 1,
	"property_type": "STUDIO",
	"address": "12 College Road",
	"city": "Leeds",
	"state": "West Yorkshire",
	"zip_code": "LS2 9JT",
	"lease_type": "ACADEMIC_YEAR",
	"available_from": "2025-09-01",
	"available_until": "2026-06-30",
	"photo_urls": ["https://img.example.com/a.jpg"],
	"amenities": ["wifi", "dishwasher"]
}`

func TestHandler_Create(t *testing.T) {
	landlord := caller{uuid.New(), types.RoleLandlord}
	repo := new(listingstest.MockRepository)
	router := newTestRouter(repo, landlord)

	created := listingstest.Listing(uuid.New(), landlord.id)
	created.Status = types.ListingPendingReview
	repo.On("Create", mock.Anything, mock.MatchedBy(func(nl types.NewListing) bool {
		return nl.LandlordID == landlord.id &&
			nl.Currency == "EUR" &&
			nl.AvailableFrom.Format("2006-01-02") == "2025-09-01" &&
			len(nl.PhotoURLs) == 1 &&
			len(nl.Amenities) == 2
	})).Return(&types.ListingDetail{Listing: *created}, nil).Once()

	rec := serve(router, http.MethodPost, "/api/listings/", validListing)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "PENDING_REVIEW", got["status"])
	assert.Equal(t, created.AvailableFrom.Format("2006-01-02"), got["available_from"])
	assert.Equal(t, []any{}, got["photos"])
	repo.AssertExpectations(t)
}

func TestHandler_Create_Rejected(t *testing.T) {
	repo := new(listingstest.MockRepository)

	cases := []struct {
		name string
		who  caller
		body string
		want int
	}{
		{"anonymous", anonymous, validListing, http.StatusUnauthorized},
		{"student", caller{uuid.New(), types.RoleStudent}, validListing, http.StatusForbidden},
		{"short title", caller{uuid.New(), types.RoleLandlord}, strings.Replace(validListing, "Quiet studio by the library", "Studio", 1), http.StatusBadRequest},
		{"bad date", caller{uuid.New(), types.RoleLandlord}, strings.Replace(validListing, "2025-09-01", "01/09/2025", 1), http.StatusBadRequest},
		{"unknown property type", caller{uuid.New(), types.RoleLandlord}, strings.Replace(validListing, `"STUDIO"`, `"CASTLE"`, 1), http.StatusBadRequest},
		{"malformed json", caller{uuid.New(), types.RoleLandlord}, `{"title":`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := serve(newTestRouter(repo, c.who), http.MethodPost, "/api/listings/", c.body)
			assert.Equal(t, c.want, rec.Code, rec.Body.String())
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandler_Get_TracksView(t *testing.T) {
	id := uuid.New()
	repo := new(listingstest.MockRepository)
	router := newTestRouter(repo, anonymous)

	listing := listingstest.Listing(id, uuid.New())
	listing.ViewCount = 7
	repo.On("Get", mock.Anything, id).Return(listing, nil)
	repo.On("ListPhotos", mock.Anything, id).Return([]types.ListingPhoto{}, nil)
	repo.On("ListAmenities", mock.Anything, id).Return([]types.ListingAmenity{{ListingID: id, AmenityType: types.AmenityWifi}}, nil)
	repo.On("GetPreference", mock.Anything, id).Return(nil, types.ErrNotFound)
	repo.On("RecordView", mock.Anything, mock.MatchedBy(func(v types.ListingView) bool {
		return v.ListingID == id && v.UserID == nil && v.IPAddress != nil && *v.IPAddress == "10.1.2.3"
	}), mock.Anything).Return(true, nil).Once()

	rec := serve(router, http.MethodGet, "/api/listings/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"view_count":8`)
	assert.Contains(t, rec.Body.String(), `"WIFI"`)

	rec = serve(router, http.MethodGet, "/api/listings/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"view_count":7`)
	repo.AssertNumberOfCalls(t, "RecordView", 1)
}

func TestHandler_Get_HiddenListing(t *testing.T) {
	id := uuid.New()
	repo := new(listingstest.MockRepository)
	pending := listingstest.Listing(id, uuid.New())
	pending.Status = types.ListingPendingReview
	repo.On("Get", mock.Anything, id).Return(pending, nil)

	rec := serve(newTestRouter(repo, caller{uuid.New(), types.RoleStudent}), http.MethodGet, "/api/listings/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(newTestRouter(repo, anonymous), http.MethodGet, "/api/listings/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ListActive(t *testing.T) {
	repo := new(listingstest.MockRepository)
	router := newTestRouter(repo, anonymous)

	l := listingstest.Listing(uuid.New(), uuid.New())
	repo.On("ListActive", mock.Anything, types.PageRequest{Page: 2, Size: 5}, types.ListingSort{Field: "monthly_rent", Ascending: true}).
		Return(&types.ListingPage{Listings: []types.Listing{*l}, Total: 11}, nil).Once()

	rec := serve(router, http.MethodGet, "/api/listings/?page=2&size=5&sortBy=monthly_rent&sortDir=ASC", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.EqualValues(t, 11, got["total_elements"])
	assert.Len(t, got["items"], 1)

	rec = serve(router, http.MethodGet, "/api/listings/?sortBy=password", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertExpectations(t)
}

func TestHandler_SearchAndFeeds(t *testing.T) {
	repo := new(listingstest.MockRepository)
	router := newTestRouter(repo, anonymous)

	city := "Leeds"
	maxRent := 700.0
	repo.On("Search", mock.Anything, types.ListingSearchFilter{City: &city, MaxRent: &maxRent}, types.PageRequest{Page: 0, Size: 20}).
		Return(&types.ListingPage{}, nil).Once()
	repo.On("NearCampus", mock.Anything, 2.5).Return([]types.Listing{}, nil).Once()
	repo.On("ByUniversity", mock.Anything, "Leeds Beckett").Return([]types.Listing{}, nil).Once()
	repo.On("Recent", mock.Anything, 50).Return([]types.Listing{}, nil).Once()

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/api/listings/search", `{"city":" Leeds ","max_rent":700}`, http.StatusOK},
		{http.MethodPost, "/api/listings/search", `{"min_rent":900,"max_rent":700}`, http.StatusBadRequest},
		{http.MethodGet, "/api/listings/nearby?maxDistance=2.5", "", http.StatusOK},
		{http.MethodGet, "/api/listings/nearby?maxDistance=-1", "", http.StatusBadRequest},
		{http.MethodGet, "/api/listings/university/Leeds%20Beckett", "", http.StatusOK},
		{http.MethodGet, "/api/listings/recent?limit=500", "", http.StatusOK},
		{http.MethodGet, "/api/listings/recent?limit=abc", "", http.StatusBadRequest},
	}
	for _, c := range cases {
		rec := serve(router, c.method, c.path, c.body)
		assert.Equal(t, c.want, rec.Code, "%s %s: %s", c.method, c.path, rec.Body.String())
	}
	repo.AssertExpectations(t)
}

func TestHandler_OwnerWrites(t *testing.T) {
	owner := caller{uuid.New(), types.RoleLandlord}
	stranger := caller{uuid.New(), types.RoleLandlord}
	id := uuid.New()
	repo := new(listingstest.MockRepository)
	repo.On("Get", mock.Anything, id).Return(listingstest.Listing(id, owner.id), nil)

	rented := listingstest.Listing(id, owner.id)
	rented.Status = types.ListingRented
	repo.On("SetStatus", mock.Anything, id, types.ListingRented, (*string)(nil)).Return(rented, nil).Once()
	repo.On("Delete", mock.Anything, id).Return(nil).Once()

	rec := serve(newTestRouter(repo, owner), http.MethodPatch, "/api/listings/"+id.String()+"/status", `{"status":"rented"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"RENTED"`)

	rec = serve(newTestRouter(repo, owner), http.MethodPatch, "/api/listings/"+id.String()+"/status", `{"status":"REJECTED"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(newTestRouter(repo, stranger), http.MethodDelete, "/api/listings/"+id.String(), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(newTestRouter(repo, owner), http.MethodDelete, "/api/listings/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}

func TestHandler_PhotosAndAmenities(t *testing.T) {
	owner := caller{uuid.New(), types.RoleLandlord}
	id, photoID := uuid.New(), uuid.New()
	repo := new(listingstest.MockRepository)
	router := newTestRouter(repo, owner)
	repo.On("Get", mock.Anything, id).Return(listingstest.Listing(id, owner.id), nil)

	repo.On("ReorderPhotos", mock.Anything, id, []uuid.UUID{photoID}).Return(nil).Once()
	repo.On("ListAmenities", mock.Anything, id).Return([]types.ListingAmenity{{ListingID: id, AmenityType: types.AmenityWifi}}, nil).Once()
	repo.On("AddAmenities", mock.Anything, id, []types.AmenityType{types.AmenityParkingIncluded}).
		Return([]types.ListingAmenity{{ListingID: id, AmenityType: types.AmenityParkingIncluded}}, nil).Once()

	rec := serve(router, http.MethodPut, "/api/listings/"+id.String()+"/photos/reorder", `{"photo_ids":["`+photoID.String()+`"]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodPut, "/api/listings/"+id.String()+"/photos/reorder", `{"photo_ids":["nope"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, "/api/listings/"+id.String()+"/amenities/bulk", `{"amenity_types":["wifi","parking_included","JACUZZI"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var bulk types.BulkAmenityResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bulk))
	require.Len(t, bulk.Added, 1)
	assert.Equal(t, types.AmenityParkingIncluded, bulk.Added[0].AmenityType)
	assert.Equal(t, []string{"WIFI"}, bulk.SkippedDuplicates)
	assert.Equal(t, []string{"JACUZZI"}, bulk.SkippedInvalid)
	repo.AssertExpectations(t)
}

func TestHandler_SuggestAndCatalog(t *testing.T) {
	router := newTestRouter(new(listingstest.MockRepository), anonymous)

	rec := serve(router, http.MethodPost, "/api/listings/amenities/suggest", `{"description":"Fast WiFi, a dishwasher and street parking."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"amenities":["WIFI","DISHWASHER","STREET_PARKING"]}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/listings/amenities/types", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WIFI")

	rec = serve(router, http.MethodGet, "/api/listings/preferences/types", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_AdminModeration(t *testing.T) {
	id := uuid.New()
	repo := new(listingstest.MockRepository)
	admin := newTestRouter(repo, caller{uuid.New(), types.RoleAdmin})

	pending := listingstest.Listing(id, uuid.New())
	pending.Status = types.ListingPendingReview
	reason := "Photos do not match the address"
	rejected := *pending
	rejected.Status = types.ListingRejected
	repo.On("SetStatus", mock.Anything, id, types.ListingRejected, &reason).Return(&rejected, nil).Once()
	repo.On("ModerationStats", mock.Anything).Return(&types.ModerationStats{PendingListings: 3}, nil).Once()

	rec := serve(admin, http.MethodPut, "/api/listings/admin/"+id.String()+"/reject", `{"reason":"  Photos do not match the address "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"REJECTED"`)

	rec = serve(admin, http.MethodGet, "/api/listings/admin/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newTestRouter(repo, caller{uuid.New(), types.RoleLandlord}), http.MethodGet, "/api/listings/admin/stats", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	repo.AssertExpectations(t)
}
