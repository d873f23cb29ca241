package presenter

import (
	"fmt"
	"time"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

const dateLayout = "2006-01-02"

// ProfileRequest is used for both create and partial update.
type ProfileRequest struct {
	FirstName       *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName        *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Phone           *string `json:"phone" validate:"omitempty,max=30"`
	DateOfBirth     *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Bio             *string `json:"bio" validate:"omitempty,max=1000"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitempty,url,max=1000"`
	UniversityName  *string `json:"university_name" validate:"omitempty,max=200"`
	Major           *string `json:"major" validate:"omitempty,max=100"`
	GraduationYear  *int    `json:"graduation_year" validate:"omitempty,gte=1950,lte=2100"`
	Address         *string `json:"address" validate:"omitempty,max=255"`
	City            *string `json:"city" validate:"omitempty,max=100"`
	State           *string `json:"state" validate:"omitempty,max=100"`
	ZipCode         *string `json:"zip_code" validate:"omitempty,max=20"`
}

// Fields converts the request; the date was already shape-checked by the validator.
func (r ProfileRequest) Fields() (types.UserProfileFields, error) {
	f := types.UserProfileFields{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Phone:           r.Phone,
		Bio:             r.Bio,
		ProfileImageURL: r.ProfileImageURL,
		UniversityName:  r.UniversityName,
		Major:           r.Major,
		GraduationYear:  r.GraduationYear,
		Address:         r.Address,
		City:            r.City,
		State:           r.State,
		ZipCode:         r.ZipCode,
	}
	if r.DateOfBirth != nil {
		dob, err := time.Parse(dateLayout, *r.DateOfBirth)
		if err != nil {
			return f, fmt.Errorf("date_of_birth must be YYYY-MM-DD: %w", types.ErrBadRequest)
		}
		if dob.After(time.Now()) {
			return f, fmt.Errorf("date_of_birth cannot be in the future: %w", types.ErrBadRequest)
		}
		f.DateOfBirth = &dob
	}
	return f, nil
}

type ProfileResponse struct {
	ID              string  `json:"id,omitempty"`
	UserID          string  `json:"user_id"`
	Email           string  `json:"email,omitempty"`
	Role            string  `json:"role"`
	IsVerified      bool    `json:"is_verified"`
	FirstName       *string `json:"first_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	DateOfBirth     *string `json:"date_of_birth,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
	UniversityName  *string `json:"university_name,omitempty"`
	Major           *string `json:"major,omitempty"`
	GraduationYear  *int    `json:"graduation_year,omitempty"`
	Address         *string `json:"address,omitempty"`
	City            *string `json:"city,omitempty"`
	State           *string `json:"state,omitempty"`
	ZipCode         *string `json:"zip_code,omitempty"`
	HasProfile      bool    `json:"has_profile"`
}

// ToProfileResponse renders the owner's view. Names fall back to the account
// names when the profile leaves them empty.
func ToProfileResponse(u *types.UserWithProfile) ProfileResponse {
	resp := ProfileResponse{
		UserID:     u.User.ID.String(),
		Email:      u.User.Email,
		Role:       u.User.Role,
		IsVerified: u.User.IsVerified,
		FirstName:  u.User.FirstName,
		LastName:   u.User.LastName,
	}
	if p := u.Profile; p != nil {
		fillProfile(&resp, p)
	}
	return resp
}

// ToPublicProfileResponse drops contact and address details.
func ToPublicProfileResponse(u *types.UserWithProfile) ProfileResponse {
	resp := ToProfileResponse(u)
	resp.Email = ""
	resp.Phone = nil
	resp.DateOfBirth = nil
	resp.Address = nil
	resp.ZipCode = nil
	return resp
}

func ToStoredProfileResponse(p *types.UserProfile) ProfileResponse {
	resp := ProfileResponse{UserID: p.UserID.String()}
	fillProfile(&resp, p)
	return resp
}

func ToProfileList(profiles []types.UserProfile) []ProfileResponse {
	out := make([]ProfileResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, ToStoredProfileResponse(&profiles[i]))
	}
	return out
}

func fillProfile(resp *ProfileResponse, p *types.UserProfile) {
	resp.ID = p.ID.String()
	resp.HasProfile = true
	if p.FirstName != nil {
		resp.FirstName = p.FirstName
	}
	if p.LastName != nil {
		resp.LastName = p.LastName
	}
	resp.Phone = p.Phone
	if p.DateOfBirth != nil {
		dob := p.DateOfBirth.Format(dateLayout)
		resp.DateOfBirth = &dob
	}
	resp.Bio = p.Bio
	resp.ProfileImageURL = p.ProfileImageURL
	resp.UniversityName = p.UniversityName
	resp.Major = p.Major
	resp.GraduationYear = p.GraduationYear
	resp.Address = p.Address
	resp.City = p.City
	resp.State = p.State
	resp.ZipCode = p.ZipCode
}
