package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

const dateLayout = "2006-01-02"

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD: %w", field, types.ErrBadRequest)
	}
	return t, nil
}

func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateListingRequest is the body of POST /api/listings.
type CreateListingRequest struct {
	Title               string   `json:"title" validate:"required,min=10,max=100"`
	Description         string   `json:"description" validate:"required,min=50,max=2000"`
	MonthlyRent         float64  `json:"monthly_rent" validate:"required,gt=0"`
	Currency            string   `json:"currency" validate:"omitempty,len=3"`
	SecurityDeposit     *float64 `json:"security_deposit" validate:"omitempty,gte=0"`
	UtilitiesIncluded   bool     `json:"utilities_included"`
	Bedrooms            int      `json:"bedrooms" validate:"gte=0,lte=10"`
	Bathrooms           int      `json:"bathrooms" validate:"required,gte=1,lte=10"`
	SquareFeet          *int     `json:"square_feet" validate:"omitempty,gt=0"`
	PropertyType        string   `json:"property_type" validate:"required"`
	Address             string   `json:"address" validate:"required,max=255"`
	City                string   `json:"city" validate:"required,max=100"`
	State               string   `json:"state" validate:"required,max=100"`
	ZipCode             string   `json:"zip_code" validate:"required,max=20"`
	Latitude            *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude           *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	DistanceToCampusKm  *float64 `json:"distance_to_campus_km" validate:"omitempty,gte=0"`
	NearestUniversity   *string  `json:"nearest_university" validate:"omitempty,max=200"`
	LeaseType           string   `json:"lease_type" validate:"required"`
	LeaseDurationMonths *int     `json:"lease_duration_months" validate:"omitempty,gte=1,lte=60"`
	AvailableFrom       string   `json:"available_from" validate:"required,datetime=2006-01-02"`
	AvailableUntil      *string  `json:"available_until" validate:"omitempty,datetime=2006-01-02"`
	PetsAllowed         bool     `json:"pets_allowed"`
	SmokingAllowed      bool     `json:"smoking_allowed"`
	Furnished           bool     `json:"furnished"`
	ContactEmail        *string  `json:"contact_email" validate:"omitempty,email"`
	ContactPhone        *string  `json:"contact_phone" validate:"omitempty,max=30"`
	PhotoURLs           []string `json:"photo_urls" validate:"omitempty,max=30,dive,url,max=1000"`
	Amenities           []string `json:"amenities" validate:"omitempty,dive,required"`
}

// NewListing converts the request. The landlord is taken from the token.
func (r CreateListingRequest) NewListing() (types.NewListing, error) {
	from, err := parseDate("available_from", r.AvailableFrom)
	if err != nil {
		return types.NewListing{}, err
	}
	until, err := parseOptionalDate("available_until", r.AvailableUntil)
	if err != nil {
		return types.NewListing{}, err
	}
	amenities := make([]types.AmenityType, len(r.Amenities))
	for i, a := range r.Amenities {
		amenities[i] = types.AmenityType(strings.ToUpper(strings.TrimSpace(a)))
	}
	return types.NewListing{
		ListingFields: types.ListingFields{
			Title:               r.Title,
			Description:         r.Description,
			MonthlyRent:         r.MonthlyRent,
			Currency:            r.Currency,
			SecurityDeposit:     r.SecurityDeposit,
			UtilitiesIncluded:   r.UtilitiesIncluded,
			Bedrooms:            r.Bedrooms,
			Bathrooms:           r.Bathrooms,
			SquareFeet:          r.SquareFeet,
			PropertyType:        types.PropertyType(r.PropertyType),
			Address:             r.Address,
			City:                r.City,
			State:               r.State,
			ZipCode:             r.ZipCode,
			Latitude:            r.Latitude,
			Longitude:           r.Longitude,
			DistanceToCampusKm:  r.DistanceToCampusKm,
			NearestUniversity:   r.NearestUniversity,
			LeaseType:           types.LeaseType(r.LeaseType),
			LeaseDurationMonths: r.LeaseDurationMonths,
			AvailableFrom:       from,
			AvailableUntil:      until,
			PetsAllowed:         r.PetsAllowed,
			SmokingAllowed:      r.SmokingAllowed,
			Furnished:           r.Furnished,
			ContactEmail:        r.ContactEmail,
			ContactPhone:        r.ContactPhone,
		},
		PhotoURLs: r.PhotoURLs,
		Amenities: amenities,
	}, nil
}

// UpdateListingRequest is a partial update; absent fields are unchanged.
type UpdateListingRequest struct {
	Title               *string  `json:"title" validate:"omitempty,min=10,max=100"`
	Description         *string  `json:"description" validate:"omitempty,min=50,max=2000"`
	MonthlyRent         *float64 `json:"monthly_rent" validate:"omitempty,gt=0"`
	SecurityDeposit     *float64 `json:"security_deposit" validate:"omitempty,gte=0"`
	UtilitiesIncluded   *bool    `json:"utilities_included"`
	Bedrooms            *int     `json:"bedrooms" validate:"omitempty,gte=0,lte=10"`
	Bathrooms           *int     `json:"bathrooms" validate:"omitempty,gte=1,lte=10"`
	SquareFeet          *int     `json:"square_feet" validate:"omitempty,gt=0"`
	LeaseType           *string  `json:"lease_type"`
	LeaseDurationMonths *int     `json:"lease_duration_months" validate:"omitempty,gte=1,lte=60"`
	AvailableFrom       *string  `json:"available_from" validate:"omitempty,datetime=2006-01-02"`
	AvailableUntil      *string  `json:"available_until" validate:"omitempty,datetime=2006-01-02"`
	PetsAllowed         *bool    `json:"pets_allowed"`
	SmokingAllowed      *bool    `json:"smoking_allowed"`
	Furnished           *bool    `json:"furnished"`
	ContactEmail        *string  `json:"contact_email" validate:"omitempty,email"`
	ContactPhone        *string  `json:"contact_phone" validate:"omitempty,max=30"`
}

func (r UpdateListingRequest) Update() (types.ListingUpdate, error) {
	from, err := parseOptionalDate("available_from", r.AvailableFrom)
	if err != nil {
		return types.ListingUpdate{}, err
	}
	until, err := parseOptionalDate("available_until", r.AvailableUntil)
	if err != nil {
		return types.ListingUpdate{}, err
	}
	u := types.ListingUpdate{
		Title:               r.Title,
		Description:         r.Description,
		MonthlyRent:         r.MonthlyRent,
		SecurityDeposit:     r.SecurityDeposit,
		UtilitiesIncluded:   r.UtilitiesIncluded,
		Bedrooms:            r.Bedrooms,
		Bathrooms:           r.Bathrooms,
		SquareFeet:          r.SquareFeet,
		LeaseDurationMonths: r.LeaseDurationMonths,
		AvailableFrom:       from,
		AvailableUntil:      until,
		PetsAllowed:         r.PetsAllowed,
		SmokingAllowed:      r.SmokingAllowed,
		Furnished:           r.Furnished,
		ContactEmail:        r.ContactEmail,
		ContactPhone:        r.ContactPhone,
	}
	if r.LeaseType != nil {
		lt := types.LeaseType(*r.LeaseType)
		u.LeaseType = &lt
	}
	return u, nil
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// SearchRequest is the body of POST /api/listings/search.
type SearchRequest struct {
	City         *string  `json:"city" validate:"omitempty,max=100"`
	PropertyType *string  `json:"property_type"`
	MinRent      *float64 `json:"min_rent" validate:"omitempty,gte=0"`
	MaxRent      *float64 `json:"max_rent" validate:"omitempty,gte=0"`
	MinBedrooms  *int     `json:"min_bedrooms" validate:"omitempty,gte=0,lte=10"`
	MaxBedrooms  *int     `json:"max_bedrooms" validate:"omitempty,gte=0,lte=10"`
	PetsAllowed  *bool    `json:"pets_allowed"`
	Furnished    *bool    `json:"furnished"`
	University   *string  `json:"university" validate:"omitempty,max=200"`
}

func (r SearchRequest) Filter() types.ListingSearchFilter {
	f := types.ListingSearchFilter{
		City:        r.City,
		MinRent:     r.MinRent,
		MaxRent:     r.MaxRent,
		MinBedrooms: r.MinBedrooms,
		MaxBedrooms: r.MaxBedrooms,
		PetsAllowed: r.PetsAllowed,
		Furnished:   r.Furnished,
		University:  r.University,
	}
	if r.PropertyType != nil && *r.PropertyType != "" {
		pt := types.PropertyType(*r.PropertyType)
		f.PropertyType = &pt
	}
	return f
}

type PhotoRequest struct {
	PhotoURL     *string `json:"photo_url" validate:"omitempty,url,max=1000"`
	Caption      *string `json:"caption" validate:"omitempty,max=255"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,gte=0"`
	IsPrimary    *bool   `json:"is_primary"`
}

func (r PhotoRequest) PhotoUpdate() types.PhotoUpdate {
	return types.PhotoUpdate{PhotoURL: r.PhotoURL, Caption: r.Caption, DisplayOrder: r.DisplayOrder, IsPrimary: r.IsPrimary}
}

type ReorderPhotosRequest struct {
	PhotoIDs []string `json:"photo_ids" validate:"required,min=1,dive,uuid"`
}

func (r ReorderPhotosRequest) IDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(r.PhotoIDs))
	for i, raw := range r.PhotoIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("photo_ids[%d] is not a uuid: %w", i, types.ErrBadRequest)
		}
		ids[i] = id
	}
	return ids, nil
}

type AmenityRequest struct {
	AmenityType string  `json:"amenity_type" validate:"required"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type BulkAmenityRequest struct {
	AmenityTypes []string `json:"amenity_types" validate:"required,min=1,max=50"`
}

type SuggestAmenitiesRequest struct {
	Description string `json:"description" validate:"required,max=5000"`
}

type PreferenceRequest struct {
	DietaryPreference *string `json:"dietary_preference"`
	GenderPreference  *string `json:"gender_preference"`
	SmokingPreference *string `json:"smoking_preference"`
	AdditionalNotes   *string `json:"additional_notes" validate:"omitempty,max=1000"`
}

func (r PreferenceRequest) Fields() types.ListingPreferenceFields {
	f := types.ListingPreferenceFields{AdditionalNotes: r.AdditionalNotes}
	if r.DietaryPreference != nil {
		d := types.DietaryPreference(*r.DietaryPreference)
		f.DietaryPreference = &d
	}
	if r.GenderPreference != nil {
		g := types.GenderPreference(*r.GenderPreference)
		f.GenderPreference = &g
	}
	if r.SmokingPreference != nil {
		s := types.SmokingRule(*r.SmokingPreference)
		f.SmokingPreference = &s
	}
	return f
}

// ListingSummary is the card shown in result lists.
type ListingSummary struct {
	ID                 uuid.UUID           `json:"id"`
	LandlordID         uuid.UUID           `json:"landlord_id"`
	Title              string              `json:"title"`
	MonthlyRent        float64             `json:"monthly_rent"`
	Currency           string              `json:"currency"`
	PropertyType       types.PropertyType  `json:"property_type"`
	Bedrooms           int                 `json:"bedrooms"`
	Bathrooms          int                 `json:"bathrooms"`
	City               string              `json:"city"`
	NearestUniversity  *string             `json:"nearest_university,omitempty"`
	DistanceToCampusKm *float64            `json:"distance_to_campus_km,omitempty"`
	AvailableFrom      string              `json:"available_from"`
	Furnished          bool                `json:"furnished"`
	PetsAllowed        bool                `json:"pets_allowed"`
	Status             types.ListingStatus `json:"status"`
	ViewCount          int                 `json:"view_count"`
	FavoriteCount      int                 `json:"favorite_count"`
	CreatedAt          time.Time           `json:"created_at"`
}

func ToSummary(l *types.Listing) ListingSummary {
	return ListingSummary{
		ID:                 l.ID,
		LandlordID:         l.LandlordID,
		Title:              l.Title,
		MonthlyRent:        l.MonthlyRent,
		Currency:           l.Currency,
		PropertyType:       l.PropertyType,
		Bedrooms:           l.Bedrooms,
		Bathrooms:          l.Bathrooms,
		City:               l.City,
		NearestUniversity:  l.NearestUniversity,
		DistanceToCampusKm: l.DistanceToCampusKm,
		AvailableFrom:      l.AvailableFrom.Format(dateLayout),
		Furnished:          l.Furnished,
		PetsAllowed:        l.PetsAllowed,
		Status:             l.Status,
		ViewCount:          l.ViewCount,
		FavoriteCount:      l.FavoriteCount,
		CreatedAt:          l.CreatedAt,
	}
}

func ToSummaries(list []types.Listing) []ListingSummary {
	out := make([]ListingSummary, 0, len(list))
	for i := range list {
		out = append(out, ToSummary(&list[i]))
	}
	return out
}

// ListingResponse is the full listing with dates rendered as YYYY-MM-DD.
type ListingResponse struct {
	types.Listing
	AvailableFrom  string  `json:"available_from"`
	AvailableUntil *string `json:"available_until,omitempty"`
}

func ToListingResponse(l *types.Listing) ListingResponse {
	resp := ListingResponse{Listing: *l, AvailableFrom: l.AvailableFrom.Format(dateLayout)}
	if l.AvailableUntil != nil {
		s := l.AvailableUntil.Format(dateLayout)
		resp.AvailableUntil = &s
	}
	return resp
}

type ListingDetailResponse struct {
	ListingResponse
	Photos      []types.ListingPhoto     `json:"photos"`
	Amenities   []types.ListingAmenity   `json:"amenities"`
	Preferences *types.ListingPreference `json:"preferences,omitempty"`
}

func ToDetailResponse(d *types.ListingDetail) ListingDetailResponse {
	photos, amenities := d.Photos, d.Amenities
	if photos == nil {
		photos = []types.ListingPhoto{}
	}
	if amenities == nil {
		amenities = []types.ListingAmenity{}
	}
	return ListingDetailResponse{
		ListingResponse: ToListingResponse(&d.Listing),
		Photos:          photos,
		Amenities:       amenities,
		Preferences:     d.Preferences,
	}
}
