package types

import (
	"time"

	"github.com/google/uuid"
)

type Favorite struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ListingID uuid.UUID `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingRef is the slice of a listing other domains need for access checks.
type ListingRef struct {
	ID         uuid.UUID
	LandlordID uuid.UUID
	Status     ListingStatus
	Title      string
}

// BulkResult reports which ids a batch operation applied to. Failed ids are
// skipped rather than aborting the batch.
type BulkResult struct {
	Processed []uuid.UUID `json:"processed"`
	Failed    []uuid.UUID `json:"failed"`
}
