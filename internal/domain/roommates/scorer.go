package roommates

import "github.com/FACorreiaa/campusnest-api/internal/types"

// criterion is one weighted rule of the compatibility rubric. applicable reports
// whether both profiles carry the data the rule needs; match is only consulted
// when it does.
type criterion struct {
	name       string
	weight     float64
	applicable func(a, b *types.RoommatePreferences) bool
	match      func(a, b *types.RoommatePreferences) bool
}

var rubric = []criterion{
	{
		name:   "budget",
		weight: 25,
		applicable: func(a, b *types.RoommatePreferences) bool {
			return a.BudgetMin != nil && a.BudgetMax != nil && b.BudgetMin != nil && b.BudgetMax != nil
		},
		match: func(a, b *types.RoommatePreferences) bool {
			return *a.BudgetMin <= *b.BudgetMax && *a.BudgetMax >= *b.BudgetMin
		},
	},
	{
		name:   "smoking",
		weight: 20,
		applicable: func(a, b *types.RoommatePreferences) bool {
			return a.SmokingPreference != nil && b.SmokingPreference != nil
		},
		match: func(a, b *types.RoommatePreferences) bool {
			return *a.SmokingPreference == *b.SmokingPreference
		},
	},
	{
		// Directional: only a's tolerance and b's pets are considered.
		name:   "pets",
		weight: 15,
		applicable: func(a, b *types.RoommatePreferences) bool {
			return a.PetsAllowed != nil && b.HasPets != nil
		},
		match: func(a, b *types.RoommatePreferences) bool {
			return *a.PetsAllowed || !*b.HasPets
		},
	},
	{
		name:   "cleanliness",
		weight: 15,
		applicable: func(a, b *types.RoommatePreferences) bool {
			return a.CleanlinessLevel != nil && b.CleanlinessLevel != nil
		},
		match: func(a, b *types.RoommatePreferences) bool {
			return *a.CleanlinessLevel == *b.CleanlinessLevel
		},
	},
	{
		name:   "social",
		weight: 10,
		applicable: func(a, b *types.RoommatePreferences) bool {
			return a.SocialLevel != nil && b.SocialLevel != nil
		},
		match: func(a, b *types.RoommatePreferences) bool {
			return *a.SocialLevel == *b.SocialLevel
		},
	},
	{
		name:   "noise",
		weight: 10,
		applicable: func(a, b *types.RoommatePreferences) bool {
			return a.NoiseTolerance != nil && b.NoiseTolerance != nil
		},
		match: func(a, b *types.RoommatePreferences) bool {
			return *a.NoiseTolerance == *b.NoiseTolerance
		},
	},
	{
		name:   "kitchen",
		weight: 5,
		applicable: func(a, b *types.RoommatePreferences) bool {
			return a.KitchenSharing != nil && b.KitchenSharing != nil
		},
		match: func(a, b *types.RoommatePreferences) bool {
			return *a.KitchenSharing == *b.KitchenSharing
		},
	},
}

// Score returns how compatible b is with a on a 0-100 scale. Criteria lacking
// data on either side are skipped; with nothing applicable the score is 0.
// The pets rule makes Score(a, b) and Score(b, a) differ in general.
func Score(a, b *types.RoommatePreferences) float64 {
	if a == nil || b == nil {
		return 0
	}

	var matched, applicable float64
	for _, c := range rubric {
		if !c.applicable(a, b) {
			continue
		}
		applicable += c.weight
		if c.match(a, b) {
			matched += c.weight
		}
	}

	if applicable == 0 {
		return 0
	}
	return matched / applicable * 100
}

// Level labels a score.
func Level(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	case score >= 20:
		return "Poor"
	default:
		return "Very Poor"
	}
}
