package types

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CleanlinessLevel represents the DB ENUM 'cleanliness_level_enum'.
type CleanlinessLevel string

const (
	CleanlinessMessy     CleanlinessLevel = "MESSY"
	CleanlinessModerate  CleanlinessLevel = "MODERATE"
	CleanlinessClean     CleanlinessLevel = "CLEAN"
	CleanlinessVeryClean CleanlinessLevel = "VERY_CLEAN"
)

// Valid reports whether c is one of the known cleanliness levels.
func (c CleanlinessLevel) Valid() bool {
	switch c {
	case CleanlinessMessy, CleanlinessModerate, CleanlinessClean, CleanlinessVeryClean:
		return true
	}
	return false
}

// Scan implements the sql.Scanner interface for CleanlinessLevel.
func (c *CleanlinessLevel) Scan(value interface{}) error {
	s, err := enumString(value, "CleanlinessLevel")
	if err != nil {
		return err
	}
	if !CleanlinessLevel(s).Valid() {
		return fmt.Errorf("unknown CleanlinessLevel value: %s", s)
	}
	*c = CleanlinessLevel(s)
	return nil
}

// Value implements the driver.Valuer interface for CleanlinessLevel.
func (c CleanlinessLevel) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid CleanlinessLevel value: %s", c)
	}
	return string(c), nil
}

// NoiseLevel represents the DB ENUM 'noise_level_enum'.
type NoiseLevel string

const (
	NoiseQuiet    NoiseLevel = "QUIET"
	NoiseModerate NoiseLevel = "MODERATE"
	NoiseLoud     NoiseLevel = "LOUD"
)

// Valid reports whether n is one of the known noise levels.
func (n NoiseLevel) Valid() bool {
	switch n {
	case NoiseQuiet, NoiseModerate, NoiseLoud:
		return true
	}
	return false
}

// Scan implements the sql.Scanner interface for NoiseLevel.
func (n *NoiseLevel) Scan(value interface{}) error {
	s, err := enumString(value, "NoiseLevel")
	if err != nil {
		return err
	}
	if !NoiseLevel(s).Valid() {
		return fmt.Errorf("unknown NoiseLevel value: %s", s)
	}
	*n = NoiseLevel(s)
	return nil
}

// Value implements the driver.Valuer interface for NoiseLevel.
func (n NoiseLevel) Value() (driver.Value, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("invalid NoiseLevel value: %s", n)
	}
	return string(n), nil
}

// SocialLevel represents the DB ENUM 'social_level_enum'.
type SocialLevel string

const (
	SocialIntroverted SocialLevel = "INTROVERTED"
	SocialModerate    SocialLevel = "MODERATE"
	SocialSocial      SocialLevel = "SOCIAL"
)

// Valid reports whether s is one of the known social levels.
func (s SocialLevel) Valid() bool {
	switch s {
	case SocialIntroverted, SocialModerate, SocialSocial:
		return true
	}
	return false
}

// Scan implements the sql.Scanner interface for SocialLevel.
func (s *SocialLevel) Scan(value interface{}) error {
	str, err := enumString(value, "SocialLevel")
	if err != nil {
		return err
	}
	if !SocialLevel(str).Valid() {
		return fmt.Errorf("unknown SocialLevel value: %s", str)
	}
	*s = SocialLevel(str)
	return nil
}

// Value implements the driver.Valuer interface for SocialLevel.
func (s SocialLevel) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid SocialLevel value: %s", s)
	}
	return string(s), nil
}

// DietType represents the DB ENUM 'diet_type_enum'.
type DietType string

const (
	DietOmnivore    DietType = "OMNIVORE"
	DietVegetarian  DietType = "VEGETARIAN"
	DietVegan       DietType = "VEGAN"
	DietPescatarian DietType = "PESCATARIAN"
	DietHalal       DietType = "HALAL"
	DietKosher      DietType = "KOSHER"
	DietOther       DietType = "OTHER"
)

func (d DietType) Valid() bool {
	switch d {
	case DietOmnivore, DietVegetarian, DietVegan, DietPescatarian, DietHalal, DietKosher, DietOther:
		return true
	}
	return false
}

// Scan implements the sql.Scanner interface for DietType.
func (d *DietType) Scan(value interface{}) error {
	s, err := enumString(value, "DietType")
	if err != nil {
		return err
	}
	if !DietType(s).Valid() {
		return fmt.Errorf("unknown DietType value: %s", s)
	}
	*d = DietType(s)
	return nil
}

// Value implements the driver.Valuer interface for DietType.
func (d DietType) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid DietType value: %s", d)
	}
	return string(d), nil
}

// RoommatePreferenceFields holds every attribute a user can state about a future
// roommate. All of them are optional; a nil field means "no data" and makes the
// matching criteria that depend on it inapplicable.
type RoommatePreferenceFields struct {
	// Lifestyle
	CleanlinessLevel *CleanlinessLevel `json:"cleanliness_level,omitempty" validate:"omitempty,oneof=MESSY MODERATE CLEAN VERY_CLEAN"`
	NoiseTolerance   *NoiseLevel       `json:"noise_tolerance,omitempty" validate:"omitempty,oneof=QUIET MODERATE LOUD"`
	QuietHoursStart  *string           `json:"quiet_hours_start,omitempty" validate:"omitempty,datetime=15:04"`
	QuietHoursEnd    *string           `json:"quiet_hours_end,omitempty" validate:"omitempty,datetime=15:04"`

	// Habits
	SmokingPreference  *bool `json:"smoking_preference,omitempty"`
	DrinkingPreference *bool `json:"drinking_preference,omitempty"`
	PetsAllowed        *bool `json:"pets_allowed,omitempty"`
	HasPets            *bool `json:"has_pets,omitempty"`

	// Diet
	DietType         *DietType `json:"diet_type,omitempty" validate:"omitempty,oneof=OMNIVORE VEGETARIAN VEGAN PESCATARIAN HALAL KOSHER OTHER"`
	CookingFrequency *string   `json:"cooking_frequency,omitempty" validate:"omitempty,oneof=rarely sometimes often daily"`
	KitchenSharing   *bool     `json:"kitchen_sharing,omitempty"`

	// Social
	SocialLevel     *SocialLevel `json:"social_level,omitempty" validate:"omitempty,oneof=INTROVERTED MODERATE SOCIAL"`
	GuestsFrequency *string      `json:"guests_frequency,omitempty" validate:"omitempty,oneof=never rarely sometimes often"`

	// Study
	StudyHoursStart         *string `json:"study_hours_start,omitempty" validate:"omitempty,datetime=15:04"`
	StudyHoursEnd           *string `json:"study_hours_end,omitempty" validate:"omitempty,datetime=15:04"`
	StudyLocationPreference *string `json:"study_location_preference,omitempty" validate:"omitempty,oneof=room common_area library flexible"`

	// Budget, min <= max is expected but not enforced
	BudgetMin *int `json:"budget_min,omitempty" validate:"omitempty,gte=0"`
	BudgetMax *int `json:"budget_max,omitempty" validate:"omitempty,gte=0"`

	UtilitiesIncluded *bool   `json:"utilities_included,omitempty"`
	GenderPreference  *string `json:"gender_preference,omitempty" validate:"omitempty,oneof=same opposite no_preference"`
}

// RoommatePreferences is the stored preference profile, one per user.
type RoommatePreferences struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	RoommatePreferenceFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompatibilityResult is the outcome of scoring two users against each other.
type CompatibilityResult struct {
	UserID1 uuid.UUID `json:"user_id_1"`
	UserID2 uuid.UUID `json:"user_id_2"`
	Score   float64   `json:"compatibility_score"`
	Level   string    `json:"compatibility_level"`
}

// RankedRoommate pairs a candidate's preferences with the requester's score for them.
type RankedRoommate struct {
	Preferences RoommatePreferences `json:"preferences"`
	Score       float64             `json:"compatibility_score"`
	Level       string              `json:"compatibility_level"`
}
