package types

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleStudent  = "STUDENT"
	RoleLandlord = "LANDLORD"
	RoleAdmin    = "ADMIN"
)

// ValidRole reports whether role is a known role name.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleLandlord, RoleAdmin:
		return true
	}
	return false
}

// UserSummary is the basic account information exposed outside auth.
type UserSummary struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FirstName  *string   `json:"first_name,omitempty"`
	LastName   *string   `json:"last_name,omitempty"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserProfileFields are the editable profile attributes. Nil means unset, or
// "leave unchanged" in a partial update.
type UserProfileFields struct {
	FirstName       *string    `json:"first_name,omitempty"`
	LastName        *string    `json:"last_name,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	Bio             *string    `json:"bio,omitempty"`
	ProfileImageURL *string    `json:"profile_image_url,omitempty"`
	UniversityName  *string    `json:"university_name,omitempty"`
	Major           *string    `json:"major,omitempty"`
	GraduationYear  *int       `json:"graduation_year,omitempty"`
	Address         *string    `json:"address,omitempty"`
	City            *string    `json:"city,omitempty"`
	State           *string    `json:"state,omitempty"`
	ZipCode         *string    `json:"zip_code,omitempty"`
}

// Empty reports whether no field is set.
func (f UserProfileFields) Empty() bool {
	return f.FirstName == nil && f.LastName == nil && f.Phone == nil && f.DateOfBirth == nil &&
		f.Bio == nil && f.ProfileImageURL == nil && f.UniversityName == nil && f.Major == nil &&
		f.GraduationYear == nil && f.Address == nil && f.City == nil && f.State == nil && f.ZipCode == nil
}

// UserProfile is the stored profile, one per user.
type UserProfile struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	UserProfileFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserWithProfile pairs the account with its profile, which may be absent.
type UserWithProfile struct {
	User    UserSummary  `json:"user"`
	Profile *UserProfile `json:"profile,omitempty"`
}
