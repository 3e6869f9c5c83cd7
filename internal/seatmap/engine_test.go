package seatmap

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveSeats(ctx context.Context, tripID string, update domain.SeatUpdate) error {
	args := m.Called(ctx, tripID, update)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestEngine(store Store) *Engine {
	return NewEngine(store, logger.NewNop(), WithClock(func() time.Time { return fixedNow }))
}

func initializedTrip(carType domain.CarType) *domain.Trip {
	n, _ := domain.Capacity(carType)
	return &domain.Trip{
		ID:             "TRAB000126-X7K2",
		CarType:        carType,
		Status:         domain.TripActive,
		SeatsAvailable: n,
		Seats:          domain.NewSeatMap(n),
	}
}

func assertConsistent(t *testing.T, trip *domain.Trip) {
	t.Helper()
	available, booked := trip.Seats.Count()
	assert.Equal(t, available, trip.SeatsAvailable)
	assert.Equal(t, booked, trip.SeatsBooked)
	assert.Equal(t, trip.Capacity(), trip.SeatsAvailable+trip.SeatsBooked)
}

func TestEngine_EnsureInitialized(t *testing.T) {
	testCases := []struct {
		name     string
		carType  domain.CarType
		expected int
	}{
		{name: "Medium", carType: domain.CarMedium, expected: 14},
		{name: "Large", carType: domain.CarLarge, expected: 60},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := &MockStore{}
			store.On("SaveSeats", ctx, "t1", mock.MatchedBy(func(u domain.SeatUpdate) bool {
				return len(u.Seats) == tc.expected && u.SeatsAvailable == tc.expected && u.SeatsBooked == 0
			})).Return(nil).Once()

			// Legacy documents can carry counters from an older capacity table.
			trip := &domain.Trip{ID: "t1", CarType: tc.carType, SeatsAvailable: 20}
			wrote, err := newTestEngine(store).EnsureInitialized(ctx, trip)

			require.NoError(t, err)
			assert.True(t, wrote)
			assert.True(t, trip.Seats.Complete(tc.expected))
			for _, seat := range trip.Seats.List() {
				assert.Equal(t, domain.SeatAvailable, seat.Status)
			}
			assertConsistent(t, trip)
			store.AssertExpectations(t)
		})
	}
}

func TestEngine_EnsureInitialized_Idempotent(t *testing.T) {
	store := &MockStore{}
	trip := initializedTrip(domain.CarMedium)
	trip.Seats[5] = domain.Seat{ID: 5, Status: domain.SeatBooked}

	wrote, err := newTestEngine(store).EnsureInitialized(context.Background(), trip)

	assert.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, domain.SeatBooked, trip.Seats[5].Status)
	store.AssertNotCalled(t, "SaveSeats", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_EnsureInitialized_WriteFailureLeavesTrip(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	store.On("SaveSeats", ctx, "t1", mock.Anything).Return(errors.New("unavailable")).Once()

	trip := &domain.Trip{ID: "t1", CarType: domain.CarMedium}
	wrote, err := newTestEngine(store).EnsureInitialized(ctx, trip)

	assert.Error(t, err)
	assert.False(t, wrote)
	assert.False(t, trip.HasSeatMap())
}

func TestEngine_EnsureInitialized_UnknownCarType(t *testing.T) {
	store := &MockStore{}
	trip := &domain.Trip{ID: "t1", CarType: "Minibus"}

	_, err := newTestEngine(store).EnsureInitialized(context.Background(), trip)

	assert.True(t, domain.IsValidation(err))
	store.AssertNotCalled(t, "SaveSeats", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_SetSeatStatus_BookedThenPaid(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	store.On("SaveSeats", ctx, mock.Anything, mock.Anything).Return(nil)
	engine := newTestEngine(store)

	trip := initializedTrip(domain.CarMedium)
	booked, err := engine.SetSeatStatus(ctx, trip, 3, domain.SeatBooked)
	require.NoError(t, err)
	paid, err := engine.SetSeatStatus(ctx, booked, 3, domain.SeatPaid)
	require.NoError(t, err)

	assert.Equal(t, domain.SeatPaid, paid.Seats[3].Status)
	assert.Equal(t, 1, paid.SeatsBooked)
	assert.Equal(t, 13, paid.SeatsAvailable)
	assert.Equal(t, fixedNow, paid.UpdatedAt)
	assertConsistent(t, paid)

	// Inputs are untouched.
	assert.Equal(t, domain.SeatAvailable, trip.Seats[3].Status)
	assert.Equal(t, domain.SeatBooked, booked.Seats[3].Status)
}

func TestEngine_SetSeatStatus_RandomSequenceKeepsCounts(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	store.On("SaveSeats", ctx, mock.Anything, mock.MatchedBy(func(u domain.SeatUpdate) bool {
		available, booked := u.Seats.Count()
		return available == u.SeatsAvailable && booked == u.SeatsBooked && available+booked == 60
	})).Return(nil)
	engine := newTestEngine(store)

	statuses := []domain.SeatStatus{domain.SeatAvailable, domain.SeatBooked, domain.SeatPaid}
	rnd := rand.New(rand.NewSource(7))
	trip := initializedTrip(domain.CarLarge)
	for i := 0; i < 200; i++ {
		next, err := engine.SetSeatStatus(ctx, trip, rnd.Intn(60)+1, statuses[rnd.Intn(len(statuses))])
		require.NoError(t, err)
		assertConsistent(t, next)
		trip = next
	}
}

func TestEngine_SetSeatStatus_Rejections(t *testing.T) {
	testCases := []struct {
		name        string
		trip        *domain.Trip
		seat        int
		status      domain.SeatStatus
		expectedErr error
		validation  bool
	}{
		{name: "Seat zero", trip: initializedTrip(domain.CarMedium), seat: 0, status: domain.SeatBooked, expectedErr: domain.ErrSeatNotFound},
		{name: "Seat above capacity", trip: initializedTrip(domain.CarMedium), seat: 15, status: domain.SeatBooked, expectedErr: domain.ErrSeatNotFound},
		{name: "Negative seat", trip: initializedTrip(domain.CarLarge), seat: -1, status: domain.SeatPaid, expectedErr: domain.ErrSeatNotFound},
		{name: "No seat map", trip: &domain.Trip{ID: "t1", CarType: domain.CarMedium}, seat: 1, status: domain.SeatBooked, expectedErr: domain.ErrSeatMapMissing},
		{name: "Unknown status", trip: initializedTrip(domain.CarMedium), seat: 1, status: "Reserved", validation: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &MockStore{}
			before := tc.trip.Clone()

			next, err := newTestEngine(store).SetSeatStatus(context.Background(), tc.trip, tc.seat, tc.status)

			assert.Nil(t, next)
			if tc.validation {
				assert.True(t, domain.IsValidation(err))
			} else {
				assert.ErrorIs(t, err, tc.expectedErr)
			}
			assert.Equal(t, before, tc.trip)
			store.AssertNotCalled(t, "SaveSeats", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestEngine_SetSeatStatus_WriteFailure(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	store.On("SaveSeats", ctx, mock.Anything, mock.Anything).Return(errors.New("deadline exceeded")).Once()

	trip := initializedTrip(domain.CarMedium)
	next, err := newTestEngine(store).SetSeatStatus(ctx, trip, 2, domain.SeatBooked)

	assert.Error(t, err)
	assert.Nil(t, next)
	assert.Equal(t, domain.SeatAvailable, trip.Seats[2].Status)
	assert.Equal(t, 14, trip.SeatsAvailable)
}

func TestCapacity(t *testing.T) {
	n, err := Capacity(domain.CarMedium)
	assert.NoError(t, err)
	assert.Equal(t, 14, n)

	n, err = Capacity(domain.CarLarge)
	assert.NoError(t, err)
	assert.Equal(t, 60, n)

	_, err = Capacity("Minibus")
	assert.True(t, domain.IsValidation(err))
}
