package seatmap

import (
	"context"
	"fmt"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
	"github.com/LhacenMed/admin-dashboard/pkg/metrics"
)

// Store persists the seat map together with both counters in one write.
type Store interface {
	SaveSeats(ctx context.Context, tripID string, update domain.SeatUpdate) error
}

type Engine struct {
	store   Store
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(store Store, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Capacity returns N for the car type.
func Capacity(carType domain.CarType) (int, error) {
	n, ok := domain.Capacity(carType)
	if !ok {
		return 0, domain.Invalid("carType", fmt.Sprintf("unknown car type %q", carType))
	}
	return n, nil
}

// EnsureInitialized builds and persists an all-available seat map when the trip has none.
// The map is attached to trip only once the write has succeeded. It reports whether it wrote.
func (e *Engine) EnsureInitialized(ctx context.Context, trip *domain.Trip) (bool, error) {
	if trip == nil {
		return false, domain.ErrNotFound
	}
	if trip.HasSeatMap() {
		return false, nil
	}
	n, err := Capacity(trip.CarType)
	if err != nil {
		return false, err
	}

	update := domain.NewSeatUpdate(domain.NewSeatMap(n), e.now())
	if err := e.store.SaveSeats(ctx, trip.ID, update); err != nil {
		e.metrics.Failed("seatmap_init")
		return false, fmt.Errorf("initialize seats for trip %s: %w", trip.ID, err)
	}

	trip.Seats = update.Seats
	trip.SeatsAvailable = update.SeatsAvailable
	trip.SeatsBooked = update.SeatsBooked
	trip.UpdatedAt = update.UpdatedAt
	e.log.Info("seat map initialized", "trip_id", trip.ID, "seats", n)
	return true, nil
}

// SetSeatStatus returns an updated copy of trip. The input is never mutated, so a failed
// write leaves the caller's state as it was.
func (e *Engine) SetSeatStatus(ctx context.Context, trip *domain.Trip, seat int, status domain.SeatStatus) (*domain.Trip, error) {
	if trip == nil {
		return nil, domain.ErrNotFound
	}
	if !status.Valid() {
		return nil, domain.Invalid("status", fmt.Sprintf("unknown seat status %q", status))
	}
	if !trip.HasSeatMap() {
		return nil, fmt.Errorf("trip %s: %w", trip.ID, domain.ErrSeatMapMissing)
	}
	current, ok := trip.Seats[seat]
	if !ok {
		return nil, fmt.Errorf("%w: seat %d on trip %s", domain.ErrSeatNotFound, seat, trip.ID)
	}

	next := trip.Clone()
	current.Status = status
	next.Seats[seat] = current

	update := domain.NewSeatUpdate(next.Seats, e.now())
	if err := e.store.SaveSeats(ctx, trip.ID, update); err != nil {
		e.metrics.Failed("seat_update")
		e.log.Error("seat update failed", "trip_id", trip.ID, "seat", seat, "error", err)
		return nil, fmt.Errorf("update seat %d on trip %s: %w", seat, trip.ID, err)
	}

	next.SeatsAvailable = update.SeatsAvailable
	next.SeatsBooked = update.SeatsBooked
	next.UpdatedAt = update.UpdatedAt
	e.metrics.SeatUpdated(string(status))
	return next, nil
}
