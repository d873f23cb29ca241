package inquiries

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/campusnest-api/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListingRef(ctx context.Context, listingID uuid.UUID) (*types.ListingRef, error) {
	args := m.Called(ctx, listingID)
	ref, _ := args.Get(0).(*types.ListingRef)
	return ref, args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, listing *types.ListingRef, studentID uuid.UUID, f types.InquiryFields) (*types.Inquiry, error) {
	args := m.Called(ctx, listing, studentID, f)
	in, _ := args.Get(0).(*types.Inquiry)
	return in, args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, id uuid.UUID) (*types.Inquiry, error) {
	args := m.Called(ctx, id)
	in, _ := args.Get(0).(*types.Inquiry)
	return in, args.Error(1)
}

func (m *MockRepository) ListForListing(ctx context.Context, listingID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error) {
	args := m.Called(ctx, listingID, page)
	p, _ := args.Get(0).(*types.InquiryPage)
	return p, args.Error(1)
}

func (m *MockRepository) ListForLandlord(ctx context.Context, landlordID uuid.UUID, status *types.InquiryStatus, page types.PageRequest) (*types.InquiryPage, error) {
	args := m.Called(ctx, landlordID, status, page)
	p, _ := args.Get(0).(*types.InquiryPage)
	return p, args.Error(1)
}

func (m *MockRepository) ListForStudent(ctx context.Context, studentID uuid.UUID, page types.PageRequest) (*types.InquiryPage, error) {
	args := m.Called(ctx, studentID, page)
	p, _ := args.Get(0).(*types.InquiryPage)
	return p, args.Error(1)
}

func (m *MockRepository) Respond(ctx context.Context, id uuid.UUID, status types.InquiryStatus, response string) (*types.Inquiry, error) {
	args := m.Called(ctx, id, status, response)
	in, _ := args.Get(0).(*types.Inquiry)
	return in, args.Error(1)
}

func (m *MockRepository) SetStatus(ctx context.Context, id uuid.UUID, status types.InquiryStatus) (*types.Inquiry, error) {
	args := m.Called(ctx, id, status)
	in, _ := args.Get(0).(*types.Inquiry)
	return in, args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) StatusCounts(ctx context.Context, landlordID uuid.UUID) (map[types.InquiryStatus]int64, error) {
	args := m.Called(ctx, landlordID)
	c, _ := args.Get(0).(map[types.InquiryStatus]int64)
	return c, args.Error(1)
}

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService() (*ServiceImpl, *MockRepository) {
	repo := new(MockRepository)
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func ptr[T any](v T) *T { return &v }

func TestCreate(t *testing.T) {
	ctx := context.Background()
	student, landlord, listingID := uuid.New(), uuid.New(), uuid.New()
	active := &types.ListingRef{ID: listingID, LandlordID: landlord, Status: types.ListingActive}
	valid := types.InquiryFields{
		Message:             "  Is the room still available for September?  ",
		MoveInDate:          ptr(fixedNow.AddDate(0, 5, 0)),
		LeaseDurationMonths: ptr(10),
	}

	t.Run("trims and stores", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("ListingRef", mock.Anything, listingID).Return(active, nil).Once()
		repo.On("Create", mock.Anything, active, student, mock.MatchedBy(func(f types.InquiryFields) bool {
			return f.Message == "Is the room still available for September?"
		})).Return(&types.Inquiry{ID: uuid.New(), Status: types.InquiryPending}, nil).Once()

		in, err := svc.Create(ctx, student, listingID, valid)
		require.NoError(t, err)
		assert.Equal(t, types.InquiryPending, in.Status)
		repo.AssertExpectations(t)
	})

	invalid := []struct {
		name   string
		mutate func(f *types.InquiryFields)
	}{
		{"short message", func(f *types.InquiryFields) { f.Message = "  hi there " }},
		{"long message", func(f *types.InquiryFields) { f.Message = strings.Repeat("a", 1001) }},
		{"lease too long", func(f *types.InquiryFields) { f.LeaseDurationMonths = ptr(25) }},
		{"no occupants", func(f *types.InquiryFields) { f.Occupants = ptr(0) }},
		{"move-in in the past", func(f *types.InquiryFields) { f.MoveInDate = ptr(fixedNow.AddDate(0, 0, -1)) }},
	}
	for _, c := range invalid {
		t.Run(c.name, func(t *testing.T) {
			svc, repo := newTestService()
			f := valid
			c.mutate(&f)
			_, err := svc.Create(ctx, student, listingID, f)
			assert.ErrorIs(t, err, types.ErrBadRequest)
			repo.AssertNotCalled(t, "ListingRef", mock.Anything, mock.Anything)
		})
	}

	t.Run("inactive listing", func(t *testing.T) {
		svc, repo := newTestService()
		inactive := *active
		inactive.Status = types.ListingInactive
		repo.On("ListingRef", mock.Anything, listingID).Return(&inactive, nil).Once()

		_, err := svc.Create(ctx, student, listingID, valid)
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("own listing", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("ListingRef", mock.Anything, listingID).Return(active, nil).Once()

		_, err := svc.Create(ctx, landlord, listingID, valid)
		assert.ErrorIs(t, err, types.ErrForbidden)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func pendingInquiry(student, landlord uuid.UUID) *types.Inquiry {
	return &types.Inquiry{ID: uuid.New(), StudentID: student, LandlordID: landlord, Status: types.InquiryPending}
}

func TestGet_Parties(t *testing.T) {
	ctx := context.Background()
	student, landlord := uuid.New(), uuid.New()
	in := pendingInquiry(student, landlord)
	svc, repo := newTestService()
	repo.On("Get", mock.Anything, in.ID).Return(in, nil)

	_, err := svc.Get(ctx, student, in.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, landlord, in.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, uuid.New(), in.ID)
	assert.ErrorIs(t, err, types.ErrForbidden)
}

func TestRespond(t *testing.T) {
	ctx := context.Background()
	student, landlord := uuid.New(), uuid.New()
	answer := "Yes, it is available from the first of September."

	t.Run("defaults to responded", func(t *testing.T) {
		svc, repo := newTestService()
		in := pendingInquiry(student, landlord)
		repo.On("Get", mock.Anything, in.ID).Return(in, nil).Once()
		repo.On("Respond", mock.Anything, in.ID, types.InquiryResponded, answer).
			Return(&types.Inquiry{ID: in.ID, Status: types.InquiryResponded}, nil).Once()

		out, err := svc.Respond(ctx, landlord, in.ID, "  "+answer+" ", "")
		require.NoError(t, err)
		assert.Equal(t, types.InquiryResponded, out.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects non-response status", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Respond(ctx, landlord, uuid.New(), answer, types.InquiryArchived)
		assert.ErrorIs(t, err, types.ErrBadRequest)
	})

	t.Run("already answered", func(t *testing.T) {
		svc, repo := newTestService()
		in := pendingInquiry(student, landlord)
		in.Status = types.InquiryAccepted
		repo.On("Get", mock.Anything, in.ID).Return(in, nil).Once()

		_, err := svc.Respond(ctx, landlord, in.ID, answer, types.InquiryDeclined)
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("other landlord", func(t *testing.T) {
		svc, repo := newTestService()
		in := pendingInquiry(student, landlord)
		repo.On("Get", mock.Anything, in.ID).Return(in, nil).Once()

		_, err := svc.Respond(ctx, uuid.New(), in.ID, answer, types.InquiryAccepted)
		assert.ErrorIs(t, err, types.ErrForbidden)
	})
}

func TestArchiveAndDelete(t *testing.T) {
	ctx := context.Background()
	student, landlord := uuid.New(), uuid.New()
	in := pendingInquiry(student, landlord)

	svc, repo := newTestService()
	repo.On("Get", mock.Anything, in.ID).Return(in, nil)
	repo.On("SetStatus", mock.Anything, in.ID, types.InquiryArchived).Return(&types.Inquiry{Status: types.InquiryArchived}, nil).Once()
	repo.On("Delete", mock.Anything, in.ID).Return(nil).Once()

	_, err := svc.Archive(ctx, landlord, in.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, landlord, in.ID), types.ErrForbidden)
	assert.NoError(t, svc.Delete(ctx, student, in.ID))

	answered := *in
	answered.Status = types.InquiryResponded
	svc2, repo2 := newTestService()
	repo2.On("Get", mock.Anything, in.ID).Return(&answered, nil)
	assert.ErrorIs(t, svc2.Delete(ctx, student, in.ID), types.ErrBadRequest)
	repo.AssertExpectations(t)
}

func TestUpdateStatus_Validation(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	_, err := svc.UpdateStatus(ctx, uuid.New(), uuid.New(), types.InquiryPending)
	assert.ErrorIs(t, err, types.ErrBadRequest)
	_, err = svc.UpdateStatus(ctx, uuid.New(), uuid.New(), "MAYBE")
	assert.ErrorIs(t, err, types.ErrBadRequest)
	repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestListForLandlord_StatusFilter(t *testing.T) {
	ctx := context.Background()
	landlord := uuid.New()
	page := types.PageRequest{Size: 20}
	svc, repo := newTestService()
	pending := types.InquiryPending
	repo.On("ListForLandlord", mock.Anything, landlord, &pending, page).Return(&types.InquiryPage{Total: 2}, nil).Once()

	got, err := svc.ListPending(ctx, landlord, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Total)

	bogus := types.InquiryStatus("LOST")
	_, err = svc.ListForLandlord(ctx, landlord, &bogus, page)
	assert.ErrorIs(t, err, types.ErrBadRequest)
	repo.AssertExpectations(t)
}

func TestLandlordStats(t *testing.T) {
	ctx := context.Background()
	landlord := uuid.New()

	cases := []struct {
		name                     string
		counts                   map[types.InquiryStatus]int64
		total                    int64
		responseRate, acceptRate float64
	}{
		{"none", map[types.InquiryStatus]int64{}, 0, 0, 0},
		{
			"mixed",
			map[types.InquiryStatus]int64{
				types.InquiryPending:   2,
				types.InquiryResponded: 3,
				types.InquiryAccepted:  1,
				types.InquiryDeclined:  2,
				types.InquiryArchived:  1,
			},
			9, 66.67, 16.67,
		},
		{"only pending", map[types.InquiryStatus]int64{types.InquiryPending: 4}, 4, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc, repo := newTestService()
			repo.On("StatusCounts", mock.Anything, landlord).Return(c.counts, nil).Once()

			st, err := svc.LandlordStats(ctx, landlord)
			require.NoError(t, err)
			assert.Equal(t, c.total, st.Total)
			assert.InDelta(t, c.responseRate, st.ResponseRate, 1e-9)
			assert.InDelta(t, c.acceptRate, st.AcceptanceRate, 1e-9)
		})
	}
}
