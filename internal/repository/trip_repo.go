package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/docstore"
	"github.com/LhacenMed/admin-dashboard/internal/domain"
)

type TripRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	ListByCompany(ctx context.Context, companyID string) ([]domain.Trip, error)
	CountByCompany(ctx context.Context, companyID string) (int64, error)
	Create(ctx context.Context, trip *domain.Trip) error
	SaveSeats(ctx context.Context, tripID string, update domain.SeatUpdate) error
	UpdateStatus(ctx context.Context, id string, status domain.TripStatus, at time.Time) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, id string) (<-chan TripSnapshot, error)
}

// TripSnapshot is one pushed state of a trip. Trip is nil when the document is gone.
type TripSnapshot struct {
	Trip *domain.Trip
	Err  error
}

type DocTripRepository struct {
	store docstore.Store
}

func NewTripRepository(store docstore.Store) TripRepository {
	return &DocTripRepository{store: store}
}

func (r *DocTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	var doc tripDocument
	if err := r.store.Get(ctx, TripsCollection, id, &doc); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get trip %s: %w", id, err)
	}
	return doc.toDomain(id)
}

func (r *DocTripRepository) ListByCompany(ctx context.Context, companyID string) ([]domain.Trip, error) {
	snapshots, err := r.store.Find(ctx, TripsCollection, docstore.Filter{"companyId": companyID})
	if err != nil {
		return nil, fmt.Errorf("list trips for %s: %w", companyID, err)
	}

	trips := make([]domain.Trip, 0, len(snapshots))
	for _, snap := range snapshots {
		var doc tripDocument
		if err := snap.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode trip %s: %w", snap.ID, err)
		}
		trip, err := doc.toDomain(snap.ID)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *trip)
	}
	return trips, nil
}

func (r *DocTripRepository) CountByCompany(ctx context.Context, companyID string) (int64, error) {
	return r.store.Count(ctx, TripsCollection, docstore.Filter{"companyId": companyID})
}

func (r *DocTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	return r.store.Create(ctx, TripsCollection, trip.ID, newTripDocument(trip))
}

// SaveSeats persists the seat map and both counters as a single partial update.
func (r *DocTripRepository) SaveSeats(ctx context.Context, tripID string, update domain.SeatUpdate) error {
	return r.store.Update(ctx, TripsCollection, tripID, map[string]any{
		"seats":          seatDocuments(update.Seats),
		"seatsAvailable": update.SeatsAvailable,
		"seatsBooked":    update.SeatsBooked,
		"updatedAt":      update.UpdatedAt,
	})
}

func (r *DocTripRepository) UpdateStatus(ctx context.Context, id string, status domain.TripStatus, at time.Time) error {
	return r.store.Update(ctx, TripsCollection, id, map[string]any{
		"status":    string(status),
		"updatedAt": at,
	})
}

func (r *DocTripRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, TripsCollection, id)
}

func (r *DocTripRepository) Watch(ctx context.Context, id string) (<-chan TripSnapshot, error) {
	snapshots, err := r.store.Watch(ctx, TripsCollection, id)
	if err != nil {
		return nil, err
	}

	out := make(chan TripSnapshot)
	go func() {
		defer close(out)
		for snap := range snapshots {
			next := decodeTripSnapshot(snap)
			select {
			case out <- next:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func decodeTripSnapshot(snap docstore.Snapshot) TripSnapshot {
	if snap.Err != nil {
		return TripSnapshot{Err: snap.Err}
	}
	if !snap.Exists {
		return TripSnapshot{}
	}
	var doc tripDocument
	if err := snap.Decode(&doc); err != nil {
		return TripSnapshot{Err: fmt.Errorf("decode trip %s: %w", snap.ID, err)}
	}
	trip, err := doc.toDomain(snap.ID)
	return TripSnapshot{Trip: trip, Err: err}
}

var _ TripRepository = (*DocTripRepository)(nil)
