package domain

import "time"

type CarType string

const (
	CarMedium CarType = "Medium"
	CarLarge  CarType = "Large"
)

func (c CarType) Valid() bool {
	return c == CarMedium || c == CarLarge
}

// Capacity is the single source of truth for the number of seats per car type.
// It must be used both when a trip is created and when its seat map is initialized.
func Capacity(c CarType) (int, bool) {
	switch c {
	case CarMedium:
		return 14, true
	case CarLarge:
		return 60, true
	}
	return 0, false
}

type TripStatus string

const (
	TripActive   TripStatus = "Active"
	TripInactive TripStatus = "Inactive"
)

func (s TripStatus) Valid() bool {
	return s == TripActive || s == TripInactive
}

func (s TripStatus) Toggled() TripStatus {
	if s == TripActive {
		return TripInactive
	}
	return TripActive
}

type Trip struct {
	ID              string     `json:"id"`
	Route           string     `json:"route"`
	DateTime        string     `json:"dateTime"`
	CarType         CarType    `json:"carType"`
	SeatsAvailable  int        `json:"seatsAvailable"`
	SeatsBooked     int        `json:"seatsBooked"`
	Status          TripStatus `json:"status"`
	Price           float64    `json:"price"`
	CompanyID       string     `json:"companyId"`
	DepartureCity   string     `json:"departureCity"`
	DestinationCity string     `json:"destinationCity"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	Seats           SeatMap    `json:"seats,omitempty"`
}

// Capacity returns N for the trip's car type.
func (t *Trip) Capacity() int {
	n, _ := Capacity(t.CarType)
	return n
}

func (t *Trip) HasSeatMap() bool {
	return t != nil && t.Seats != nil
}

// Clone returns a deep copy, including the seat map.
func (t *Trip) Clone() *Trip {
	if t == nil {
		return nil
	}
	out := *t
	out.Seats = t.Seats.Clone()
	return &out
}

// SeatUpdate is the triple persisted on every seat-map write.
type SeatUpdate struct {
	Seats          SeatMap
	SeatsAvailable int
	SeatsBooked    int
	UpdatedAt      time.Time
}

// NewSeatUpdate recounts the aggregates for seats.
func NewSeatUpdate(seats SeatMap, at time.Time) SeatUpdate {
	available, booked := seats.Count()
	return SeatUpdate{
		Seats:          seats,
		SeatsAvailable: available,
		SeatsBooked:    booked,
		UpdatedAt:      at,
	}
}
