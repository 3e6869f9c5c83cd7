package domain

import "sort"

type SeatStatus string

const (
	SeatAvailable SeatStatus = "Available"
	SeatBooked    SeatStatus = "Booked"
	SeatPaid      SeatStatus = "Paid"
)

func (s SeatStatus) Valid() bool {
	switch s {
	case SeatAvailable, SeatBooked, SeatPaid:
		return true
	}
	return false
}

// Occupied reports whether the seat counts towards seatsBooked.
func (s SeatStatus) Occupied() bool {
	return s == SeatBooked || s == SeatPaid
}

type Seat struct {
	ID     int        `json:"id"`
	Status SeatStatus `json:"status"`
}

// SeatMap is keyed by seat number, 1..N.
type SeatMap map[int]Seat

// NewSeatMap returns n seats numbered 1..n, all available.
func NewSeatMap(n int) SeatMap {
	seats := make(SeatMap, n)
	for i := 1; i <= n; i++ {
		seats[i] = Seat{ID: i, Status: SeatAvailable}
	}
	return seats
}

// Count recounts the aggregates from every seat.
func (m SeatMap) Count() (available, booked int) {
	for _, seat := range m {
		switch {
		case seat.Status == SeatAvailable:
			available++
		case seat.Status.Occupied():
			booked++
		}
	}
	return available, booked
}

func (m SeatMap) Clone() SeatMap {
	if m == nil {
		return nil
	}
	out := make(SeatMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// List returns the seats ordered by number.
func (m SeatMap) List() []Seat {
	seats := make([]Seat, 0, len(m))
	for _, seat := range m {
		seats = append(seats, seat)
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].ID < seats[j].ID })
	return seats
}

// Complete reports whether the map holds exactly seats 1..n with matching ids and known statuses.
func (m SeatMap) Complete(n int) bool {
	if len(m) != n {
		return false
	}
	for i := 1; i <= n; i++ {
		seat, ok := m[i]
		if !ok || seat.ID != i || !seat.Status.Valid() {
			return false
		}
	}
	return true
}
