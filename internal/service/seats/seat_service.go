package seats

import (
	"context"
	"fmt"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/kafka"
	"github.com/LhacenMed/admin-dashboard/internal/query"
	"github.com/LhacenMed/admin-dashboard/internal/repository"
	"github.com/LhacenMed/admin-dashboard/internal/seatmap"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
)

type SeatUseCase interface {
	View(ctx context.Context, actor domain.Actor, tripID string) (*SeatView, error)
	SetStatus(ctx context.Context, actor domain.Actor, tripID string, seat int, status domain.SeatStatus) (*SeatView, error)
	Watch(ctx context.Context, actor domain.Actor, tripID string) (<-chan TripUpdate, error)
}

// TripReader is the part of the trip store the seat editor reads from.
type TripReader interface {
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	Watch(ctx context.Context, id string) (<-chan repository.TripSnapshot, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type SeatService struct {
	trips        TripReader
	engine       *seatmap.Engine
	cache        *query.Cache
	producer     Producer
	topic        string
	log          logger.Logger
	writeTimeout time.Duration
}

type SeatServiceOption func(*SeatService)

func WithProducer(producer Producer, topic string) SeatServiceOption {
	return func(s *SeatService) {
		s.producer = producer
		s.topic = topic
	}
}

// WithWriteTimeout bounds writes issued from a subscription.
func WithWriteTimeout(d time.Duration) SeatServiceOption {
	return func(s *SeatService) {
		s.writeTimeout = d
	}
}

func NewSeatService(trips TripReader, engine *seatmap.Engine, cache *query.Cache, log logger.Logger, opts ...SeatServiceOption) *SeatService {
	s := &SeatService{
		trips:        trips,
		engine:       engine,
		cache:        cache,
		log:          log,
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeatView is a trip with its seats flattened and laid out on the floor plan.
type SeatView struct {
	Trip  *domain.Trip     `json:"trip"`
	Seats []domain.Seat    `json:"seats"`
	Grid  [][]seatmap.Cell `json:"grid"`
}

func newSeatView(trip *domain.Trip) *SeatView {
	return &SeatView{Trip: trip, Seats: trip.Seats.List(), Grid: seatmap.Grid(trip)}
}

// TripUpdate is one pushed state of a watched trip. Deleted is set once the trip is gone,
// after which the channel is closed.
type TripUpdate struct {
	View    *SeatView
	Deleted bool
	Err     error
}

func (s *SeatService) View(ctx context.Context, actor domain.Actor, tripID string) (*SeatView, error) {
	trip, err := s.load(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.EnsureInitialized(ctx, trip); err != nil {
		return nil, err
	}
	return newSeatView(trip), nil
}

// SetStatus always starts from a fresh read so the write recounts the latest map.
func (s *SeatService) SetStatus(ctx context.Context, actor domain.Actor, tripID string, seat int, status domain.SeatStatus) (*SeatView, error) {
	if !status.Valid() {
		return nil, domain.Invalid("status", fmt.Sprintf("unknown seat status %q", status))
	}
	trip, err := s.load(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}
	if _, err := s.engine.EnsureInitialized(ctx, trip); err != nil {
		return nil, err
	}

	updated, err := s.engine.SetSeatStatus(ctx, trip, seat, status)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(query.Key("trips", updated.CompanyID))

	event := kafka.NewEvent(kafka.EventSeatStatusChanged, tripID)
	event.CompanyID = updated.CompanyID
	event.Seat = seat
	event.Status = string(status)
	s.publish(ctx, event)
	return newSeatView(updated), nil
}

// Watch subscribes to the trip document until ctx is cancelled or the trip is deleted.
// Ownership is checked on a fresh read before subscribing.
func (s *SeatService) Watch(ctx context.Context, actor domain.Actor, tripID string) (<-chan TripUpdate, error) {
	if _, err := s.load(ctx, actor, tripID); err != nil {
		return nil, err
	}
	snapshots, err := s.trips.Watch(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("watch trip %s: %w", tripID, err)
	}

	out := make(chan TripUpdate)
	go func() {
		defer close(out)
		for snap := range snapshots {
			update := s.toUpdate(ctx, snap)
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
			if update.Deleted {
				return
			}
		}
	}()
	return out, nil
}

func (s *SeatService) toUpdate(ctx context.Context, snap repository.TripSnapshot) TripUpdate {
	if snap.Err != nil {
		s.log.Warn("invalid trip snapshot", "error", snap.Err)
		return TripUpdate{Err: snap.Err}
	}
	if snap.Trip == nil {
		return TripUpdate{Deleted: true}
	}

	trip := snap.Trip
	if !trip.HasSeatMap() {
		// The unsubscribe must not abandon a write mid-flight.
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
		_, err := s.engine.EnsureInitialized(wctx, trip)
		cancel()
		if err != nil {
			return TripUpdate{Err: err}
		}
	}
	return TripUpdate{View: newSeatView(trip)}
}

func (s *SeatService) load(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, fmt.Errorf("trip %s: %w", tripID, domain.ErrNotFound)
	}
	if !actor.CanAccessCompany(trip.CompanyID) {
		return nil, domain.ErrForbidden
	}
	return trip, nil
}

func (s *SeatService) publish(ctx context.Context, event kafka.Event) {
	if s.producer == nil || s.topic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.topic, event.AggregateID, event); err != nil {
		s.log.Warn("failed to publish event", "type", event.Type, "aggregate_id", event.AggregateID, "error", err)
	}
}

var _ SeatUseCase = (*SeatService)(nil)
