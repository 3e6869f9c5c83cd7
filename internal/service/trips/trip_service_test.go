package trips

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/kafka"
	"github.com/LhacenMed/admin-dashboard/internal/query"
	"github.com/LhacenMed/admin-dashboard/internal/repository"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripRepository) ListByCompany(ctx context.Context, companyID string) ([]domain.Trip, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripRepository) CountByCompany(ctx context.Context, companyID string) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockTripRepository) SaveSeats(ctx context.Context, tripID string, update domain.SeatUpdate) error {
	args := m.Called(ctx, tripID, update)
	return args.Error(0)
}

func (m *MockTripRepository) UpdateStatus(ctx context.Context, id string, status domain.TripStatus, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

func (m *MockTripRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTripRepository) Watch(ctx context.Context, id string) (<-chan repository.TripSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan repository.TripSnapshot), args.Error(1)
}

type MockIDGenerator struct {
	mock.Mock
}

func (m *MockIDGenerator) Next(ctx context.Context, companyID string, count func(context.Context) (int64, error)) (string, error) {
	args := m.Called(ctx, companyID)
	if _, err := count(ctx); err != nil {
		return "", err
	}
	return args.String(0), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockCompanies struct {
	mock.Mock
}

func (m *MockCompanies) GetCompany(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

var (
	now     = time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	company = domain.Actor{UID: "companyab", Role: domain.RoleCompany}
	admin   = domain.Actor{UID: "root", Role: domain.RoleAdmin}
)

type fixture struct {
	trips     *MockTripRepository
	ids       *MockIDGenerator
	producer  *MockProducer
	companies *MockCompanies
	service   *TripService
}

func newFixture() *fixture {
	f := &fixture{
		trips:     &MockTripRepository{},
		ids:       &MockIDGenerator{},
		producer:  &MockProducer{},
		companies: &MockCompanies{},
	}
	f.service = NewTripService(f.trips, f.ids, query.New(), logger.NewNop(),
		WithProducer(f.producer, "events"),
		WithCompanies(f.companies),
		WithClock(func() time.Time { return now }),
	)
	return f
}

func validInput() CreateTripInput {
	return CreateTripInput{
		DepartureCity:   "Nouakchott",
		DestinationCity: "Nouadhibou",
		Date:            "2026-06-01",
		Time:            "07:45",
		CarType:         domain.CarMedium,
		Price:           3500,
	}
}

func TestTripService_Create_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.ids.On("Next", ctx, "companyab").Return("TRAB000326-X7K2", nil).Once()
	f.trips.On("CountByCompany", ctx, "companyab").Return(int64(2), nil).Once()
	f.trips.On("Create", ctx, mock.MatchedBy(func(trip *domain.Trip) bool {
		return trip.ID == "TRAB000326-X7K2" && trip.Seats.Complete(14)
	})).Return(nil).Once()
	f.producer.On("Publish", ctx, "events", "TRAB000326-X7K2", mock.MatchedBy(func(e kafka.Event) bool {
		return e.Type == kafka.EventTripCreated && e.CompanyID == "companyab"
	})).Return(nil).Once()

	trip, err := f.service.Create(ctx, company, validInput())

	require.NoError(t, err)
	assert.Equal(t, "Nouakchott → Nouadhibou", trip.Route)
	assert.Equal(t, "2026-06-01 07:45", trip.DateTime)
	assert.Equal(t, 14, trip.SeatsAvailable)
	assert.Equal(t, 0, trip.SeatsBooked)
	assert.Equal(t, domain.TripActive, trip.Status)
	assert.Equal(t, now, trip.CreatedAt)
	f.trips.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestTripService_Create_LargeUsesCanonicalCapacity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	input := validInput()
	input.CarType = domain.CarLarge

	f.ids.On("Next", ctx, "companyab").Return("TRAB000126-AAAA", nil).Once()
	f.trips.On("CountByCompany", ctx, "companyab").Return(int64(0), nil).Once()
	f.trips.On("Create", ctx, mock.Anything).Return(nil).Once()
	f.producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	trip, err := f.service.Create(ctx, company, input)

	require.NoError(t, err)
	assert.Len(t, trip.Seats, 60)
	assert.Equal(t, 60, trip.SeatsAvailable)
}

func TestTripService_Create_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(*CreateTripInput)
		expectedErr string
	}{
		{name: "Missing departure", mutate: func(in *CreateTripInput) { in.DepartureCity = "" }, expectedErr: "departure city is required"},
		{name: "Missing destination", mutate: func(in *CreateTripInput) { in.DestinationCity = " " }, expectedErr: "destination city is required"},
		{name: "Same cities", mutate: func(in *CreateTripInput) { in.DestinationCity = "nouakchott" }, expectedErr: "destination must differ"},
		{name: "Bad date", mutate: func(in *CreateTripInput) { in.Date = "01/06/2026" }, expectedErr: "date must be YYYY-MM-DD"},
		{name: "Bad time", mutate: func(in *CreateTripInput) { in.Time = "7pm" }, expectedErr: "time must be HH:MM"},
		{name: "Unknown car", mutate: func(in *CreateTripInput) { in.CarType = "Minibus" }, expectedErr: "unknown car type"},
		{name: "Negative price", mutate: func(in *CreateTripInput) { in.Price = -1 }, expectedErr: "price must not be negative"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			input := validInput()
			tc.mutate(&input)

			trip, err := f.service.Create(context.Background(), company, input)

			assert.Nil(t, trip)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tc.expectedErr)
			f.ids.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
			f.trips.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestTripService_Create_AdminNeedsCompany(t *testing.T) {
	f := newFixture()

	_, err := f.service.Create(context.Background(), admin, validInput())

	assert.True(t, domain.IsValidation(err))
	f.ids.AssertNotCalled(t, "Next", mock.Anything, mock.Anything)
}

func TestTripService_Create_CollisionIsReported(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.ids.On("Next", ctx, "companyab").Return("TRAB000126-AAAA", nil).Once()
	f.trips.On("CountByCompany", ctx, "companyab").Return(int64(0), nil).Once()
	f.trips.On("Create", ctx, mock.Anything).Return(domain.ErrConflict).Once()

	_, err := f.service.Create(ctx, company, validInput())

	assert.ErrorIs(t, err, domain.ErrConflict)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFilter(t *testing.T) {
	trips := []domain.Trip{
		{ID: "T1", Route: "Nouakchott → Atar", DestinationCity: "Atar", CarType: domain.CarMedium, Status: domain.TripActive, DateTime: "2026-06-01 07:00", CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "T2", Route: "Nouakchott → Rosso", DestinationCity: "Rosso", CarType: domain.CarLarge, Status: domain.TripInactive, DateTime: "2026-06-02 08:00", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "T3", Route: "Atar → Rosso", DestinationCity: "Rosso", CarType: domain.CarMedium, Status: domain.TripActive, DateTime: "2026-06-02 09:00", CreatedAt: now.Add(-1 * time.Hour)},
	}

	testCases := []struct {
		name     string
		opts     ListOptions
		expected []string
	}{
		{name: "Default is newest first", opts: ListOptions{}, expected: []string{"T3", "T2", "T1"}},
		{name: "Oldest", opts: ListOptions{Sort: SortOldest}, expected: []string{"T1", "T2", "T3"}},
		{name: "Active newest", opts: ListOptions{Sort: SortActiveNewest}, expected: []string{"T3", "T1"}},
		{name: "Inactive oldest", opts: ListOptions{Sort: SortInactiveOldest}, expected: []string{"T2"}},
		{name: "Destination", opts: ListOptions{Destination: "rosso"}, expected: []string{"T3", "T2"}},
		{name: "Car type", opts: ListOptions{CarType: domain.CarLarge}, expected: []string{"T2"}},
		{name: "Date", opts: ListOptions{Date: "2026-06-02", Sort: SortOldest}, expected: []string{"T2", "T3"}},
		{name: "Search", opts: ListOptions{Search: "ATAR"}, expected: []string{"T3", "T1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Filter(trips, tc.opts)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, trip := range got {
				ids = append(ids, trip.ID)
			}
			assert.Equal(t, tc.expected, ids)
		})
	}

	_, err := Filter(trips, ListOptions{Sort: "price"})
	assert.True(t, domain.IsValidation(err))
}

func TestTripService_List_CachedUntilInvalidated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	list := []domain.Trip{{ID: "T1", CompanyID: "companyab", Status: domain.TripActive}}
	f.trips.On("ListByCompany", mock.Anything, "companyab").Return(list, nil).Twice()
	f.trips.On("GetByID", ctx, "T1").Return(&domain.Trip{ID: "T1", CompanyID: "companyab", Status: domain.TripActive}, nil).Once()
	f.trips.On("UpdateStatus", ctx, "T1", domain.TripInactive, now).Return(nil).Once()
	f.producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.List(ctx, company, ListOptions{})
	require.NoError(t, err)
	_, err = f.service.List(ctx, company, ListOptions{})
	require.NoError(t, err)
	f.trips.AssertNumberOfCalls(t, "ListByCompany", 1)

	_, err = f.service.ToggleStatus(ctx, company, "T1")
	require.NoError(t, err)
	_, err = f.service.List(ctx, company, ListOptions{})
	require.NoError(t, err)
	f.trips.AssertNumberOfCalls(t, "ListByCompany", 2)
}

func TestTripService_List_ErrorIsNotCached(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.trips.On("ListByCompany", mock.Anything, "companyab").Return(nil, errors.New("unavailable")).Once()
	f.trips.On("ListByCompany", mock.Anything, "companyab").Return([]domain.Trip{}, nil).Once()

	_, err := f.service.List(ctx, company, ListOptions{})
	assert.Error(t, err)

	got, err := f.service.List(ctx, company, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTripService_Ownership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	other := &domain.Trip{ID: "T9", CompanyID: "othercompany", Status: domain.TripActive}
	f.trips.On("GetByID", ctx, "T9").Return(other, nil)
	f.trips.On("Delete", ctx, "T9").Return(nil).Once()
	f.producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.Get(ctx, company, "T9")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.service.ToggleStatus(ctx, company, "T9")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.service.Delete(ctx, company, "T9"), domain.ErrForbidden)
	f.trips.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	assert.NoError(t, f.service.Delete(ctx, admin, "T9"))
	f.trips.AssertCalled(t, "Delete", ctx, "T9")
}

func TestTripService_Get_NotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.trips.On("GetByID", ctx, "missing").Return(nil, nil).Once()

	_, err := f.service.Get(ctx, company, "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_Manifest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip := &domain.Trip{ID: "TRAB000126-AAAA", CompanyID: "companyab", CarType: domain.CarMedium, Seats: domain.NewSeatMap(14), SeatsAvailable: 14}
	f.trips.On("GetByID", ctx, trip.ID).Return(trip, nil).Once()
	f.companies.On("GetCompany", ctx, "companyab").Return(&domain.Account{ID: "companyab", Name: "Sahel"}, nil).Once()

	body, name, err := f.service.Manifest(ctx, company, trip.ID)

	require.NoError(t, err)
	assert.Equal(t, "MANIFEST_TRAB000126-AAAA.pdf", name)
	assert.Equal(t, "%PDF", string(body[:4]))
}
