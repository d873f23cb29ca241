package types

import (
	"time"

	"github.com/google/uuid"
)

type PropertyType string

const (
	PropertyApartment  PropertyType = "APARTMENT"
	PropertyHouse      PropertyType = "HOUSE"
	PropertyStudio     PropertyType = "STUDIO"
	PropertySharedRoom PropertyType = "SHARED_ROOM"
	PropertyDorm       PropertyType = "DORM"
	PropertyCondo      PropertyType = "CONDO"
	PropertyTownhouse  PropertyType = "TOWNHOUSE"
)

func (p PropertyType) Valid() bool {
	switch p {
	case PropertyApartment, PropertyHouse, PropertyStudio, PropertySharedRoom,
		PropertyDorm, PropertyCondo, PropertyTownhouse:
		return true
	}
	return false
}

type LeaseType string

const (
	LeaseMonthly      LeaseType = "MONTHLY"
	LeaseSemester     LeaseType = "SEMESTER"
	LeaseAcademicYear LeaseType = "ACADEMIC_YEAR"
	LeaseAnnual       LeaseType = "ANNUAL"
	LeaseSummer       LeaseType = "SUMMER"
)

func (l LeaseType) Valid() bool {
	switch l {
	case LeaseMonthly, LeaseSemester, LeaseAcademicYear, LeaseAnnual, LeaseSummer:
		return true
	}
	return false
}

// ListingStatus is the moderation and availability state of a listing.
type ListingStatus string

const (
	ListingDraft         ListingStatus = "DRAFT"
	ListingPendingReview ListingStatus = "PENDING_REVIEW"
	ListingActive        ListingStatus = "ACTIVE"
	ListingInactive      ListingStatus = "INACTIVE"
	ListingRented        ListingStatus = "RENTED"
	ListingRejected      ListingStatus = "REJECTED"
)

// AllListingStatuses is ordered as the statuses appear in moderation reports.
var AllListingStatuses = []ListingStatus{
	ListingDraft, ListingPendingReview, ListingActive, ListingInactive, ListingRented, ListingRejected,
}

func (s ListingStatus) Valid() bool {
	for _, v := range AllListingStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// LandlordSettable reports whether an owner may move a listing into s.
// ACTIVE is allowed directly; REJECTED is reserved for moderators.
func (s ListingStatus) LandlordSettable() bool {
	switch s {
	case ListingDraft, ListingPendingReview, ListingActive, ListingInactive, ListingRented:
		return true
	}
	return false
}

// ListingFields are the landlord-editable attributes of a listing.
type ListingFields struct {
	Title               string       `json:"title"`
	Description         string       `json:"description"`
	MonthlyRent         float64      `json:"monthly_rent"`
	Currency            string       `json:"currency"`
	SecurityDeposit     *float64     `json:"security_deposit,omitempty"`
	UtilitiesIncluded   bool         `json:"utilities_included"`
	Bedrooms            int          `json:"bedrooms"`
	Bathrooms           int          `json:"bathrooms"`
	SquareFeet          *int         `json:"square_feet,omitempty"`
	PropertyType        PropertyType `json:"property_type"`
	Address             string       `json:"address"`
	City                string       `json:"city"`
	State               string       `json:"state"`
	ZipCode             string       `json:"zip_code"`
	Latitude            *float64     `json:"latitude,omitempty"`
	Longitude           *float64     `json:"longitude,omitempty"`
	DistanceToCampusKm  *float64     `json:"distance_to_campus_km,omitempty"`
	NearestUniversity   *string      `json:"nearest_university,omitempty"`
	LeaseType           LeaseType    `json:"lease_type"`
	LeaseDurationMonths *int         `json:"lease_duration_months,omitempty"`
	AvailableFrom       time.Time    `json:"available_from"`
	AvailableUntil      *time.Time   `json:"available_until,omitempty"`
	PetsAllowed         bool         `json:"pets_allowed"`
	SmokingAllowed      bool         `json:"smoking_allowed"`
	Furnished           bool         `json:"furnished"`
	ContactEmail        *string      `json:"contact_email,omitempty"`
	ContactPhone        *string      `json:"contact_phone,omitempty"`
}

type Listing struct {
	ID         uuid.UUID `json:"id"`
	LandlordID uuid.UUID `json:"landlord_id"`
	ListingFields
	Status          ListingStatus `json:"status"`
	RejectionReason *string       `json:"rejection_reason,omitempty"`
	ViewCount       int           `json:"view_count"`
	FavoriteCount   int           `json:"favorite_count"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ListingUpdate is a partial update; nil fields are left unchanged.
type ListingUpdate struct {
	Title               *string
	Description         *string
	MonthlyRent         *float64
	SecurityDeposit     *float64
	UtilitiesIncluded   *bool
	Bedrooms            *int
	Bathrooms           *int
	SquareFeet          *int
	LeaseType           *LeaseType
	LeaseDurationMonths *int
	AvailableFrom       *time.Time
	AvailableUntil      *time.Time
	PetsAllowed         *bool
	SmokingAllowed      *bool
	Furnished           *bool
	ContactEmail        *string
	ContactPhone        *string
}

// NewListing is everything needed to create a listing in one transaction.
type NewListing struct {
	LandlordID uuid.UUID
	ListingFields
	PhotoURLs []string
	Amenities []AmenityType
}

type ListingSearchFilter struct {
	City         *string
	PropertyType *PropertyType
	MinRent      *float64
	MaxRent      *float64
	MinBedrooms  *int
	MaxBedrooms  *int
	PetsAllowed  *bool
	Furnished    *bool
	University   *string
}

// PageRequest is a zero-based page of results.
type PageRequest struct {
	Page int
	Size int
}

func (p PageRequest) Offset() uint64 { return uint64(p.Page * p.Size) }

// ListingSort names a whitelisted sort column and direction.
type ListingSort struct {
	Field     string
	Ascending bool
}

type ListingPage struct {
	Listings []Listing
	Total    int64
}

type ListingPhoto struct {
	ID           uuid.UUID `json:"id"`
	ListingID    uuid.UUID `json:"listing_id"`
	PhotoURL     string    `json:"photo_url"`
	Caption      *string   `json:"caption,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}

// PhotoUpdate changes a photo in place; nil fields are left unchanged.
type PhotoUpdate struct {
	PhotoURL     *string
	Caption      *string
	DisplayOrder *int
	IsPrimary    *bool
}

type ListingAmenity struct {
	ID          uuid.UUID   `json:"id"`
	ListingID   uuid.UUID   `json:"listing_id"`
	AmenityType AmenityType `json:"amenity_type"`
	Description *string     `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// BulkAmenityResult reports which amenities were added by a bulk request.
type BulkAmenityResult struct {
	Added             []ListingAmenity `json:"added"`
	SkippedDuplicates []string         `json:"skipped_duplicates"`
	SkippedInvalid    []string         `json:"skipped_invalid"`
}

type DietaryPreference string

const (
	DietaryNoPreference DietaryPreference = "NO_PREFERENCE"
	DietaryVegetarian   DietaryPreference = "VEGETARIAN"
	DietaryVegan        DietaryPreference = "VEGAN"
	DietaryHalal        DietaryPreference = "HALAL"
	DietaryKosher       DietaryPreference = "KOSHER"
)

var AllDietaryPreferences = []DietaryPreference{
	DietaryNoPreference, DietaryVegetarian, DietaryVegan, DietaryHalal, DietaryKosher,
}

func (d DietaryPreference) Valid() bool {
	for _, v := range AllDietaryPreferences {
		if d == v {
			return true
		}
	}
	return false
}

type GenderPreference string

const (
	GenderNoPreference GenderPreference = "NO_PREFERENCE"
	GenderMaleOnly     GenderPreference = "MALE_ONLY"
	GenderFemaleOnly   GenderPreference = "FEMALE_ONLY"
)

var AllGenderPreferences = []GenderPreference{GenderNoPreference, GenderMaleOnly, GenderFemaleOnly}

func (g GenderPreference) Valid() bool {
	for _, v := range AllGenderPreferences {
		if g == v {
			return true
		}
	}
	return false
}

type SmokingRule string

const (
	SmokingNoPreference SmokingRule = "NO_PREFERENCE"
	SmokingNonSmoking   SmokingRule = "NON_SMOKING"
	SmokingAllowed      SmokingRule = "SMOKING_ALLOWED"
)

var AllSmokingRules = []SmokingRule{SmokingNoPreference, SmokingNonSmoking, SmokingAllowed}

func (s SmokingRule) Valid() bool {
	for _, v := range AllSmokingRules {
		if s == v {
			return true
		}
	}
	return false
}

// ListingPreferenceFields are the household rules a landlord sets for tenants.
type ListingPreferenceFields struct {
	DietaryPreference *DietaryPreference `json:"dietary_preference,omitempty"`
	GenderPreference  *GenderPreference  `json:"gender_preference,omitempty"`
	SmokingPreference *SmokingRule       `json:"smoking_preference,omitempty"`
	AdditionalNotes   *string            `json:"additional_notes,omitempty"`
}

type ListingPreference struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"listing_id"`
	ListingPreferenceFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListingDetail is a listing with everything shown on its page.
type ListingDetail struct {
	Listing     Listing            `json:"listing"`
	Photos      []ListingPhoto     `json:"photos"`
	Amenities   []ListingAmenity   `json:"amenities"`
	Preferences *ListingPreference `json:"preferences,omitempty"`
}

// ListingView is one recorded page view. UserID and IPAddress may be absent.
type ListingView struct {
	ListingID uuid.UUID
	UserID    *uuid.UUID
	IPAddress *string
	UserAgent *string
}

// ListingStatusCount is one row of the moderation report.
type ListingStatusCount struct {
	Status ListingStatus `json:"status"`
	Count  int64         `json:"count"`
}

// ListingPreferenceTypes enumerates the accepted household rule values.
type ListingPreferenceTypes struct {
	DietaryPreferences []DietaryPreference `json:"dietary_preferences"`
	GenderPreferences  []GenderPreference  `json:"gender_preferences"`
	SmokingPreferences []SmokingRule       `json:"smoking_preferences"`
}
