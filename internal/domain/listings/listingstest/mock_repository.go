// Package listingstest provides a testify mock of the listings repository.
package listingstest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func result[T any](args mock.Arguments) (T, error) {
	v, _ := args.Get(0).(T)
	return v, args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, nl types.NewListing) (*types.ListingDetail, error) {
	return result[*types.ListingDetail](m.Called(ctx, nl))
}

func (m *MockRepository) Get(ctx context.Context, id uuid.UUID) (*types.Listing, error) {
	return result[*types.Listing](m.Called(ctx, id))
}

func (m *MockRepository) Update(ctx context.Context, id uuid.UUID, upd types.ListingUpdate) (*types.Listing, error) {
	return result[*types.Listing](m.Called(ctx, id, upd))
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) SetStatus(ctx context.Context, id uuid.UUID, status types.ListingStatus, reason *string) (*types.Listing, error) {
	return result[*types.Listing](m.Called(ctx, id, status, reason))
}

func (m *MockRepository) ListActive(ctx context.Context, page types.PageRequest, sort types.ListingSort) (*types.ListingPage, error) {
	return result[*types.ListingPage](m.Called(ctx, page, sort))
}

func (m *MockRepository) Search(ctx context.Context, filter types.ListingSearchFilter, page types.PageRequest) (*types.ListingPage, error) {
	return result[*types.ListingPage](m.Called(ctx, filter, page))
}

func (m *MockRepository) ListByStatus(ctx context.Context, status types.ListingStatus, page types.PageRequest) (*types.ListingPage, error) {
	return result[*types.ListingPage](m.Called(ctx, status, page))
}

func (m *MockRepository) NearCampus(ctx context.Context, maxDistanceKm float64) ([]types.Listing, error) {
	return result[[]types.Listing](m.Called(ctx, maxDistanceKm))
}

func (m *MockRepository) ByUniversity(ctx context.Context, university string) ([]types.Listing, error) {
	return result[[]types.Listing](m.Called(ctx, university))
}

func (m *MockRepository) ByLandlord(ctx context.Context, landlordID uuid.UUID) ([]types.Listing, error) {
	return result[[]types.Listing](m.Called(ctx, landlordID))
}

func (m *MockRepository) Recent(ctx context.Context, limit int) ([]types.Listing, error) {
	return result[[]types.Listing](m.Called(ctx, limit))
}

func (m *MockRepository) Popular(ctx context.Context, limit int) ([]types.Listing, error) {
	return result[[]types.Listing](m.Called(ctx, limit))
}

func (m *MockRepository) ModerationStats(ctx context.Context) (*types.ModerationStats, error) {
	return result[*types.ModerationStats](m.Called(ctx))
}

func (m *MockRepository) RecordView(ctx context.Context, v types.ListingView, since time.Time) (bool, error) {
	args := m.Called(ctx, v, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListPhotos(ctx context.Context, listingID uuid.UUID) ([]types.ListingPhoto, error) {
	return result[[]types.ListingPhoto](m.Called(ctx, listingID))
}

func (m *MockRepository) GetPhoto(ctx context.Context, photoID uuid.UUID) (*types.ListingPhoto, error) {
	return result[*types.ListingPhoto](m.Called(ctx, photoID))
}

func (m *MockRepository) AddPhoto(ctx context.Context, listingID uuid.UUID, photo types.PhotoUpdate) (*types.ListingPhoto, error) {
	return result[*types.ListingPhoto](m.Called(ctx, listingID, photo))
}

func (m *MockRepository) UpdatePhoto(ctx context.Context, photoID uuid.UUID, upd types.PhotoUpdate) (*types.ListingPhoto, error) {
	return result[*types.ListingPhoto](m.Called(ctx, photoID, upd))
}

func (m *MockRepository) DeletePhoto(ctx context.Context, photoID uuid.UUID) error {
	return m.Called(ctx, photoID).Error(0)
}

func (m *MockRepository) SetPrimaryPhoto(ctx context.Context, listingID, photoID uuid.UUID) error {
	return m.Called(ctx, listingID, photoID).Error(0)
}

func (m *MockRepository) ReorderPhotos(ctx context.Context, listingID uuid.UUID, photoIDs []uuid.UUID) error {
	return m.Called(ctx, listingID, photoIDs).Error(0)
}

func (m *MockRepository) DeleteAllPhotos(ctx context.Context, listingID uuid.UUID) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ListAmenities(ctx context.Context, listingID uuid.UUID) ([]types.ListingAmenity, error) {
	return result[[]types.ListingAmenity](m.Called(ctx, listingID))
}

func (m *MockRepository) AddAmenity(ctx context.Context, listingID uuid.UUID, amenity types.AmenityType, description *string) (*types.ListingAmenity, error) {
	return result[*types.ListingAmenity](m.Called(ctx, listingID, amenity, description))
}

func (m *MockRepository) AddAmenities(ctx context.Context, listingID uuid.UUID, amenities []types.AmenityType) ([]types.ListingAmenity, error) {
	return result[[]types.ListingAmenity](m.Called(ctx, listingID, amenities))
}

func (m *MockRepository) RemoveAmenity(ctx context.Context, listingID uuid.UUID, amenity types.AmenityType) error {
	return m.Called(ctx, listingID, amenity).Error(0)
}

func (m *MockRepository) GetPreference(ctx context.Context, listingID uuid.UUID) (*types.ListingPreference, error) {
	return result[*types.ListingPreference](m.Called(ctx, listingID))
}

func (m *MockRepository) SavePreference(ctx context.Context, listingID uuid.UUID, fields types.ListingPreferenceFields) (*types.ListingPreference, error) {
	return result[*types.ListingPreference](m.Called(ctx, listingID, fields))
}

func (m *MockRepository) DeletePreference(ctx context.Context, listingID uuid.UUID) error {
	return m.Called(ctx, listingID).Error(0)
}

// Listing returns an ACTIVE listing owned by landlordID that passes validation.
func Listing(id, landlordID uuid.UUID) *types.Listing {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	uni := "University of Lisbon"
	return &types.Listing{
		ID:         id,
		LandlordID: landlordID,
		ListingFields: types.ListingFields{
			Title:             "Sunny room near campus",
			Description:       "A bright double room in a shared flat, ten minutes walk from the main campus.",
			MonthlyRent:       450,
			Currency:          "EUR",
			Bedrooms:          1,
			Bathrooms:         1,
			PropertyType:      types.PropertySharedRoom,
			Address:           "Rua das Flores 12",
			City:              "Lisbon",
			State:             "Lisboa",
			ZipCode:           "1200-195",
			NearestUniversity: &uni,
			LeaseType:         types.LeaseAcademicYear,
			AvailableFrom:     now.AddDate(0, 6, 0),
			Furnished:         true,
		},
		Status:    types.ListingActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
