package types

import (
	"time"

	"github.com/google/uuid"
)

type InquiryStatus string

const (
	InquiryPending   InquiryStatus = "PENDING"
	InquiryResponded InquiryStatus = "RESPONDED"
	InquiryAccepted  InquiryStatus = "ACCEPTED"
	InquiryDeclined  InquiryStatus = "DECLINED"
	InquiryArchived  InquiryStatus = "ARCHIVED"
)

func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryPending, InquiryResponded, InquiryAccepted, InquiryDeclined, InquiryArchived:
		return true
	}
	return false
}

// IsResponse reports whether s is an outcome a landlord may answer with.
func (s InquiryStatus) IsResponse() bool {
	return s == InquiryResponded || s == InquiryAccepted || s == InquiryDeclined
}

// InquiryFields is what a student submits.
type InquiryFields struct {
	Message             string     `json:"message"`
	MoveInDate          *time.Time `json:"move_in_date,omitempty"`
	LeaseDurationMonths *int       `json:"lease_duration_months,omitempty"`
	Occupants           *int       `json:"occupants,omitempty"`
	ContactPhone        *string    `json:"contact_phone,omitempty"`
}

type Inquiry struct {
	ID         uuid.UUID `json:"id"`
	ListingID  uuid.UUID `json:"listing_id"`
	StudentID  uuid.UUID `json:"student_id"`
	LandlordID uuid.UUID `json:"landlord_id"`
	InquiryFields
	Status           InquiryStatus `json:"status"`
	LandlordResponse *string       `json:"landlord_response,omitempty"`
	RespondedAt      *time.Time    `json:"responded_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type InquiryPage struct {
	Inquiries []Inquiry
	Total     int64
}
