package types

import "time"

// RecentlyViewed is a listing from a user's view history.
type RecentlyViewed struct {
	Listing      Listing   `json:"listing"`
	LastViewedAt time.Time `json:"last_viewed_at"`
	ViewCount    int64     `json:"view_count"`
}
