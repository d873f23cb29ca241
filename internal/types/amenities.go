package types

// AmenityType is a feature a listing can advertise.
type AmenityType string

const (
	AmenityWifi                  AmenityType = "WIFI"
	AmenityElectricityIncluded   AmenityType = "ELECTRICITY_INCLUDED"
	AmenityWaterIncluded         AmenityType = "WATER_INCLUDED"
	AmenityGasIncluded           AmenityType = "GAS_INCLUDED"
	AmenityHeating               AmenityType = "HEATING"
	AmenityAirConditioning       AmenityType = "AIR_CONDITIONING"
	AmenityKitchenAccess         AmenityType = "KITCHEN_ACCESS"
	AmenityFullKitchen           AmenityType = "FULL_KITCHEN"
	AmenityMicrowave             AmenityType = "MICROWAVE"
	AmenityRefrigerator          AmenityType = "REFRIGERATOR"
	AmenityDishwasher            AmenityType = "DISHWASHER"
	AmenityDiningArea            AmenityType = "DINING_AREA"
	AmenityWasherDryerInUnit     AmenityType = "WASHER_DRYER_IN_UNIT"
	AmenityWasherDryerInBuilding AmenityType = "WASHER_DRYER_IN_BUILDING"
	AmenityLaundromatNearby      AmenityType = "LAUNDROMAT_NEARBY"
	AmenityParkingIncluded       AmenityType = "PARKING_INCLUDED"
	AmenityGarageParking         AmenityType = "GARAGE_PARKING"
	AmenityStreetParking         AmenityType = "STREET_PARKING"
	AmenityPublicTransport       AmenityType = "PUBLIC_TRANSPORT_NEARBY"
	AmenityBikeStorage           AmenityType = "BIKE_STORAGE"
	AmenityGym                   AmenityType = "GYM_FITNESS_CENTER"
	AmenitySwimmingPool          AmenityType = "SWIMMING_POOL"
	AmenityStudyRoom             AmenityType = "STUDY_ROOM"
	AmenityCommonArea            AmenityType = "COMMON_AREA"
	AmenityRooftopAccess         AmenityType = "ROOFTOP_ACCESS"
	AmenityBalconyPatio          AmenityType = "BALCONY_PATIO"
	AmenitySecuritySystem        AmenityType = "SECURITY_SYSTEM"
	AmenityDoormanConcierge      AmenityType = "DOORMAN_CONCIERGE"
	AmenityControlledAccess      AmenityType = "CONTROLLED_ACCESS"
	AmenityFireSafety            AmenityType = "FIRE_SAFETY"
	AmenityCloseToCampus         AmenityType = "CLOSE_TO_CAMPUS"
	AmenityQuietStudy            AmenityType = "QUIET_STUDY_ENVIRONMENT"
	AmenityStudentFriendly       AmenityType = "STUDENT_FRIENDLY"
	AmenityFurnishedRoom         AmenityType = "FURNISHED_ROOM"
	AmenityPetFriendly           AmenityType = "PET_FRIENDLY"
	AmenitySmokingAllowed        AmenityType = "SMOKING_ALLOWED"
	AmenityGardenYard            AmenityType = "GARDEN_YARD"
	AmenityStorageSpace          AmenityType = "STORAGE_SPACE"
	AmenityHighSpeedInternet     AmenityType = "HIGH_SPEED_INTERNET"
)

// AmenityCategory groups amenity types for display.
type AmenityCategory struct {
	Name      string        `json:"name"`
	Amenities []AmenityType `json:"amenities"`
}

// AmenityCatalog lists every amenity type by category.
var AmenityCatalog = []AmenityCategory{
	{"Basic Utilities", []AmenityType{AmenityWifi, AmenityElectricityIncluded, AmenityWaterIncluded, AmenityGasIncluded, AmenityHeating, AmenityAirConditioning}},
	{"Kitchen & Dining", []AmenityType{AmenityKitchenAccess, AmenityFullKitchen, AmenityMicrowave, AmenityRefrigerator, AmenityDishwasher, AmenityDiningArea}},
	{"Laundry", []AmenityType{AmenityWasherDryerInUnit, AmenityWasherDryerInBuilding, AmenityLaundromatNearby}},
	{"Parking & Transportation", []AmenityType{AmenityParkingIncluded, AmenityGarageParking, AmenityStreetParking, AmenityPublicTransport, AmenityBikeStorage}},
	{"Recreation & Fitness", []AmenityType{AmenityGym, AmenitySwimmingPool, AmenityStudyRoom, AmenityCommonArea, AmenityRooftopAccess, AmenityBalconyPatio}},
	{"Security & Safety", []AmenityType{AmenitySecuritySystem, AmenityDoormanConcierge, AmenityControlledAccess, AmenityFireSafety}},
	{"Student-Specific", []AmenityType{AmenityCloseToCampus, AmenityQuietStudy, AmenityStudentFriendly, AmenityFurnishedRoom}},
	{"Miscellaneous", []AmenityType{AmenityPetFriendly, AmenitySmokingAllowed, AmenityGardenYard, AmenityStorageSpace, AmenityHighSpeedInternet}},
}

var amenitySet = func() map[AmenityType]struct{} {
	m := make(map[AmenityType]struct{})
	for _, c := range AmenityCatalog {
		for _, a := range c.Amenities {
			m[a] = struct{}{}
		}
	}
	return m
}()

func (a AmenityType) Valid() bool {
	_, ok := amenitySet[a]
	return ok
}
