package trips

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/LhacenMed/admin-dashboard/internal/kafka"
	"github.com/LhacenMed/admin-dashboard/internal/query"
	"github.com/LhacenMed/admin-dashboard/internal/report"
	"github.com/LhacenMed/admin-dashboard/internal/repository"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
	"github.com/LhacenMed/admin-dashboard/pkg/metrics"
)

type TripUseCase interface {
	Create(ctx context.Context, actor domain.Actor, input CreateTripInput) (*domain.Trip, error)
	List(ctx context.Context, actor domain.Actor, opts ListOptions) ([]domain.Trip, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Trip, error)
	ToggleStatus(ctx context.Context, actor domain.Actor, id string) (*domain.Trip, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	Manifest(ctx context.Context, actor domain.Actor, id string) ([]byte, string, error)
}

type IDGenerator interface {
	Next(ctx context.Context, companyID string, count func(context.Context) (int64, error)) (string, error)
}

type CompanyLookup interface {
	GetCompany(ctx context.Context, id string) (*domain.Account, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type TripService struct {
	trips     repository.TripRepository
	ids       IDGenerator
	companies CompanyLookup
	cache     *query.Cache
	producer  Producer
	topic     string
	log       logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type TripServiceOption func(*TripService)

func WithProducer(producer Producer, topic string) TripServiceOption {
	return func(s *TripService) {
		s.producer = producer
		s.topic = topic
	}
}

func WithCompanies(companies CompanyLookup) TripServiceOption {
	return func(s *TripService) {
		s.companies = companies
	}
}

func WithMetrics(m *metrics.Metrics) TripServiceOption {
	return func(s *TripService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) TripServiceOption {
	return func(s *TripService) {
		s.now = now
	}
}

func NewTripService(trips repository.TripRepository, ids IDGenerator, cache *query.Cache, log logger.Logger, opts ...TripServiceOption) *TripService {
	s := &TripService{
		trips: trips,
		ids:   ids,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type CreateTripInput struct {
	DepartureCity   string         `json:"departureCity"`
	DestinationCity string         `json:"destinationCity"`
	Date            string         `json:"date"`
	Time            string         `json:"time"`
	CarType         domain.CarType `json:"carType"`
	Price           float64        `json:"price"`
	// CompanyID is only read for admin callers.
	CompanyID string `json:"companyId,omitempty"`
}

func (in CreateTripInput) Validate() error {
	departure := strings.TrimSpace(in.DepartureCity)
	destination := strings.TrimSpace(in.DestinationCity)
	if departure == "" {
		return domain.Invalid("departureCity", "departure city is required")
	}
	if destination == "" {
		return domain.Invalid("destinationCity", "destination city is required")
	}
	if strings.EqualFold(departure, destination) {
		return domain.Invalid("destinationCity", "destination must differ from departure")
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		return domain.Invalid("date", "date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(timeLayout, in.Time); err != nil {
		return domain.Invalid("time", "time must be HH:MM")
	}
	if !in.CarType.Valid() {
		return domain.Invalid("carType", fmt.Sprintf("unknown car type %q", in.CarType))
	}
	if in.Price < 0 {
		return domain.Invalid("price", "price must not be negative")
	}
	return nil
}

// Sort orders accepted by List.
const (
	SortNewest         = "newest"
	SortOldest         = "oldest"
	SortActiveNewest   = "active_newest"
	SortActiveOldest   = "active_oldest"
	SortInactiveNewest = "inactive_newest"
	SortInactiveOldest = "inactive_oldest"
)

type ListOptions struct {
	CompanyID   string
	Sort        string
	Search      string
	Destination string
	CarType     domain.CarType
	Date        string
}

func (s *TripService) Create(ctx context.Context, actor domain.Actor, input CreateTripInput) (*domain.Trip, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	companyID, err := companyFor(actor, input.CompanyID)
	if err != nil {
		return nil, err
	}
	capacity, _ := domain.Capacity(input.CarType)

	id, err := s.ids.Next(ctx, companyID, func(ctx context.Context) (int64, error) {
		return s.trips.CountByCompany(ctx, companyID)
	})
	if err != nil {
		return nil, err
	}

	departure := strings.TrimSpace(input.DepartureCity)
	destination := strings.TrimSpace(input.DestinationCity)
	now := s.now().UTC()
	update := domain.NewSeatUpdate(domain.NewSeatMap(capacity), now)
	trip := &domain.Trip{
		ID:              id,
		Route:           departure + " → " + destination,
		DateTime:        input.Date + " " + input.Time,
		CarType:         input.CarType,
		SeatsAvailable:  update.SeatsAvailable,
		SeatsBooked:     update.SeatsBooked,
		Status:          domain.TripActive,
		Price:           input.Price,
		CompanyID:       companyID,
		DepartureCity:   departure,
		DestinationCity: destination,
		CreatedAt:       now,
		UpdatedAt:       now,
		Seats:           update.Seats,
	}
	if err := s.trips.Create(ctx, trip); err != nil {
		s.metrics.Failed("trip_create")
		s.log.Error("trip not created", "trip_id", id, "company_id", companyID, "error", err)
		return nil, fmt.Errorf("create trip %s: %w", id, err)
	}
	s.cache.Invalidate(query.Key("trips", companyID))
	s.metrics.TripCreated()
	s.log.Info("trip created", "trip_id", id, "company_id", companyID, "car_type", trip.CarType)

	event := kafka.NewEvent(kafka.EventTripCreated, id)
	event.CompanyID = companyID
	event.Status = string(trip.Status)
	s.publish(ctx, event)
	return trip, nil
}

func (s *TripService) List(ctx context.Context, actor domain.Actor, opts ListOptions) ([]domain.Trip, error) {
	companyID, err := companyFor(actor, opts.CompanyID)
	if err != nil {
		return nil, err
	}
	res := query.Fetch(ctx, s.cache, query.Key("trips", companyID), func(ctx context.Context) ([]domain.Trip, error) {
		return s.trips.ListByCompany(ctx, companyID)
	})
	if res.Err != nil {
		return nil, fmt.Errorf("load trips: %w", res.Err)
	}
	return Filter(res.Data, opts)
}

// Filter returns a new slice of the trips matching opts, in the requested order.
func Filter(trips []domain.Trip, opts ListOptions) ([]domain.Trip, error) {
	var status domain.TripStatus
	newestFirst := true
	switch opts.Sort {
	case "", SortNewest:
	case SortOldest:
		newestFirst = false
	case SortActiveNewest:
		status = domain.TripActive
	case SortActiveOldest:
		status, newestFirst = domain.TripActive, false
	case SortInactiveNewest:
		status = domain.TripInactive
	case SortInactiveOldest:
		status, newestFirst = domain.TripInactive, false
	default:
		return nil, domain.Invalid("sort", fmt.Sprintf("unknown sort %q", opts.Sort))
	}

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	out := make([]domain.Trip, 0, len(trips))
	for _, trip := range trips {
		if status != "" && trip.Status != status {
			continue
		}
		if opts.Destination != "" && !strings.EqualFold(trip.DestinationCity, opts.Destination) {
			continue
		}
		if opts.CarType != "" && trip.CarType != opts.CarType {
			continue
		}
		if opts.Date != "" && !strings.HasPrefix(trip.DateTime, opts.Date) {
			continue
		}
		if search != "" && !matches(trip, search) {
			continue
		}
		out = append(out, trip)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func matches(trip domain.Trip, search string) bool {
	for _, field := range []string{trip.ID, trip.Route, trip.DepartureCity, trip.DestinationCity} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// Get is a fresh read, checked for ownership.
func (s *TripService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, fmt.Errorf("trip %s: %w", id, domain.ErrNotFound)
	}
	if !actor.CanAccessCompany(trip.CompanyID) {
		return nil, domain.ErrForbidden
	}
	return trip, nil
}

func (s *TripService) ToggleStatus(ctx context.Context, actor domain.Actor, id string) (*domain.Trip, error) {
	trip, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	next := trip.Status.Toggled()
	now := s.now().UTC()
	if err := s.trips.UpdateStatus(ctx, id, next, now); err != nil {
		return nil, fmt.Errorf("update trip %s status: %w", id, err)
	}
	trip.Status = next
	trip.UpdatedAt = now
	s.cache.Invalidate(query.Key("trips", trip.CompanyID))

	event := kafka.NewEvent(kafka.EventTripStatusChanged, id)
	event.CompanyID = trip.CompanyID
	event.Status = string(next)
	s.publish(ctx, event)
	return trip, nil
}

func (s *TripService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	trip, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.trips.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete trip %s: %w", id, err)
	}
	s.cache.Invalidate(query.Key("trips", trip.CompanyID))
	s.log.Info("trip deleted", "trip_id", id, "company_id", trip.CompanyID)

	event := kafka.NewEvent(kafka.EventTripDeleted, id)
	event.CompanyID = trip.CompanyID
	s.publish(ctx, event)
	return nil
}

// Manifest renders the trip's passenger manifest as a PDF.
func (s *TripService) Manifest(ctx context.Context, actor domain.Actor, id string) ([]byte, string, error) {
	trip, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	var company *domain.Account
	if s.companies != nil {
		company, err = s.companies.GetCompany(ctx, trip.CompanyID)
		if err != nil {
			return nil, "", err
		}
	}
	return report.Manifest(trip, company)
}

func companyFor(actor domain.Actor, requested string) (string, error) {
	if !actor.IsAdmin() {
		if actor.UID == "" {
			return "", domain.ErrForbidden
		}
		return actor.UID, nil
	}
	if strings.TrimSpace(requested) == "" {
		return "", domain.Invalid("companyId", "company id is required")
	}
	return requested, nil
}

func (s *TripService) publish(ctx context.Context, event kafka.Event) {
	if s.producer == nil || s.topic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.topic, event.AggregateID, event); err != nil {
		s.log.Warn("failed to publish event", "type", event.Type, "aggregate_id", event.AggregateID, "error", err)
	}
}

var _ TripUseCase = (*TripService)(nil)
