package listings

import (
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

// amenityKeywords maps lower-case phrases found in listing descriptions to amenities.
var amenityKeywords = map[string]types.AmenityType{
	"wifi": types.AmenityWifi, "wi-fi": types.AmenityWifi, "wireless internet": types.AmenityWifi,
	"high speed internet": types.AmenityHighSpeedInternet, "high-speed internet": types.AmenityHighSpeedInternet,
	"fiber internet": types.AmenityHighSpeedInternet, "broadband": types.AmenityHighSpeedInternet,
	"electricity included": types.AmenityElectricityIncluded,
	"water included":       types.AmenityWaterIncluded,
	"gas included":         types.AmenityGasIncluded,
	"heating":              types.AmenityHeating, "central heating": types.AmenityHeating,
	"air conditioning": types.AmenityAirConditioning, "air-conditioning": types.AmenityAirConditioning,
	"kitchen access": types.AmenityKitchenAccess, "shared kitchen": types.AmenityKitchenAccess,
	"full kitchen": types.AmenityFullKitchen, "fully equipped kitchen": types.AmenityFullKitchen,
	"microwave": types.AmenityMicrowave,
	"fridge":    types.AmenityRefrigerator, "refrigerator": types.AmenityRefrigerator,
	"dishwasher":  types.AmenityDishwasher,
	"dining area": types.AmenityDiningArea, "dining room": types.AmenityDiningArea,
	"in-unit laundry": types.AmenityWasherDryerInUnit, "washer and dryer": types.AmenityWasherDryerInUnit,
	"laundry room": types.AmenityWasherDryerInBuilding, "shared laundry": types.AmenityWasherDryerInBuilding,
	"laundromat": types.AmenityLaundromatNearby,
	"parking":    types.AmenityParkingIncluded, "parking included": types.AmenityParkingIncluded,
	"garage":         types.AmenityGarageParking,
	"street parking": types.AmenityStreetParking,
	"bus stop":       types.AmenityPublicTransport, "metro": types.AmenityPublicTransport,
	"subway": types.AmenityPublicTransport, "train station": types.AmenityPublicTransport,
	"public transport": types.AmenityPublicTransport,
	"bike storage":     types.AmenityBikeStorage, "bicycle storage": types.AmenityBikeStorage,
	"gym": types.AmenityGym, "fitness center": types.AmenityGym, "fitness centre": types.AmenityGym,
	"pool": types.AmenitySwimmingPool, "swimming pool": types.AmenitySwimmingPool,
	"study room":  types.AmenityStudyRoom,
	"common area": types.AmenityCommonArea, "common room": types.AmenityCommonArea, "lounge": types.AmenityCommonArea,
	"rooftop": types.AmenityRooftopAccess,
	"balcony": types.AmenityBalconyPatio, "patio": types.AmenityBalconyPatio, "terrace": types.AmenityBalconyPatio,
	"security system": types.AmenitySecuritySystem, "cctv": types.AmenitySecuritySystem,
	"doorman": types.AmenityDoormanConcierge, "concierge": types.AmenityDoormanConcierge,
	"controlled access": types.AmenityControlledAccess, "keycard": types.AmenityControlledAccess,
	"key card": types.AmenityControlledAccess, "gated": types.AmenityControlledAccess,
	"smoke detector": types.AmenityFireSafety, "fire extinguisher": types.AmenityFireSafety,
	"close to campus": types.AmenityCloseToCampus, "near campus": types.AmenityCloseToCampus,
	"walking distance to campus": types.AmenityCloseToCampus,
	"quiet":                      types.AmenityQuietStudy, "quiet study": types.AmenityQuietStudy,
	"student friendly": types.AmenityStudentFriendly, "student-friendly": types.AmenityStudentFriendly,
	"furnished": types.AmenityFurnishedRoom, "fully furnished": types.AmenityFurnishedRoom,
	"pet friendly": types.AmenityPetFriendly, "pet-friendly": types.AmenityPetFriendly,
	"pets allowed":    types.AmenityPetFriendly,
	"smoking allowed": types.AmenitySmokingAllowed,
	"garden":          types.AmenityGardenYard, "yard": types.AmenityGardenYard, "backyard": types.AmenityGardenYard,
	"storage space": types.AmenityStorageSpace, "storage unit": types.AmenityStorageSpace,
}

var amenityMatcher = func() a.AhoCorasick {
	builder := a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  true,
		MatchKind:            a.LeftMostLongestMatch,
	})
	patterns := make([]string, 0, len(amenityKeywords))
	for k := range amenityKeywords {
		patterns = append(patterns, k)
	}
	return builder.Build(patterns)
}()

// SuggestAmenities returns the amenities mentioned in text, in order of first mention.
func SuggestAmenities(text string) []types.AmenityType {
	text = strings.ToLower(text)
	out := []types.AmenityType{}
	seen := make(map[types.AmenityType]bool)
	lastEnd := 0
	for _, m := range amenityMatcher.FindAll(text) {
		// FindAll can still report a shorter keyword nested in an accepted phrase.
		if m.Start() < lastEnd {
			continue
		}
		lastEnd = m.End()
		amenity, ok := amenityKeywords[text[m.Start():m.End()]]
		if !ok || seen[amenity] {
			continue
		}
		seen[amenity] = true
		out = append(out, amenity)
	}
	return out
}
