package types

import "github.com/google/uuid"

// PlatformOverview feeds the public landing page.
type PlatformOverview struct {
	ActiveListings int64 `json:"active_listings"`
	Cities         int64 `json:"cities"`
	Universities   int64 `json:"universities"`
	Students       int64 `json:"students"`
	Landlords      int64 `json:"landlords"`
}

// FavoriteStats summarises favorites across a landlord's listings.
type FavoriteStats struct {
	TotalFavorites           int64      `json:"total_favorites"`
	ListingCount             int64      `json:"listing_count"`
	AveragePerListing        float64    `json:"average_favorites_per_listing"`
	MostFavoritedListingID   *uuid.UUID `json:"most_favorited_listing_id,omitempty"`
	MostFavoritedListingName *string    `json:"most_favorited_listing_title,omitempty"`
	MostFavoritedCount       int64      `json:"most_favorited_count"`
}

// InquiryStats summarises inquiries received by a landlord. Rates are
// percentages rounded to two decimals.
type InquiryStats struct {
	Total          int64   `json:"total"`
	Pending        int64   `json:"pending"`
	Responded      int64   `json:"responded"`
	Accepted       int64   `json:"accepted"`
	Declined       int64   `json:"declined"`
	Archived       int64   `json:"archived"`
	ResponseRate   float64 `json:"response_rate"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// LandlordOverview is the landlord dashboard.
type LandlordOverview struct {
	Favorites  FavoriteStats `json:"favorites"`
	Inquiries  InquiryStats  `json:"inquiries"`
	TotalViews int64         `json:"total_views"`
	Listings   int64         `json:"listings"`
}

// ModerationStats is the admin listing dashboard.
type ModerationStats struct {
	ByStatus        map[string]int64 `json:"listings_by_status"`
	TotalListings   int64            `json:"total_listings"`
	TotalInquiries  int64            `json:"total_inquiries"`
	TotalFavorites  int64            `json:"total_favorites"`
	PendingListings int64            `json:"pending_listings"`
}
