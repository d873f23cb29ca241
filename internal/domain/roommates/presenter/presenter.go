package presenter

import (
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

func ParseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// SavePreferencesRequest is the body of POST and PUT /api/users/preferences.
type SavePreferencesRequest struct {
	types.RoommatePreferenceFields
}

type PreferencesResponse struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	types.RoommatePreferenceFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CompatibilityResponse struct {
	UserID1 uuid.UUID `json:"user_id_1"`
	UserID2 uuid.UUID `json:"user_id_2"`
	Score   float64   `json:"compatibility_score"`
	Level   string    `json:"compatibility_level"`
}

type RankedResponse struct {
	Preferences PreferencesResponse `json:"preferences"`
	Score       float64             `json:"compatibility_score"`
	Level       string              `json:"compatibility_level"`
}

func ToPreferencesResponse(p *types.RoommatePreferences) PreferencesResponse {
	return PreferencesResponse{
		ID:                       p.ID,
		UserID:                   p.UserID,
		RoommatePreferenceFields: p.RoommatePreferenceFields,
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
	}
}

func ToPreferencesList(list []types.RoommatePreferences) []PreferencesResponse {
	out := make([]PreferencesResponse, 0, len(list))
	for i := range list {
		out = append(out, ToPreferencesResponse(&list[i]))
	}
	return out
}

func ToCompatibilityResponse(r *types.CompatibilityResult) CompatibilityResponse {
	return CompatibilityResponse{UserID1: r.UserID1, UserID2: r.UserID2, Score: r.Score, Level: r.Level}
}

func ToRankedList(list []types.RankedRoommate) []RankedResponse {
	out := make([]RankedResponse, 0, len(list))
	for i := range list {
		out = append(out, RankedResponse{
			Preferences: ToPreferencesResponse(&list[i].Preferences),
			Score:       list[i].Score,
			Level:       list[i].Level,
		})
	}
	return out
}
