package seatmap

import "github.com/LhacenMed/admin-dashboard/internal/domain"

// Layouts place seat numbers on the bus floor plan, front row first. Zero marks an aisle,
// the driver position or an empty slot.
var layouts = map[domain.CarType][][]int{
	domain.CarMedium: {
		{0, 0, 0, 1},
		{2, 3, 4, 0},
		{5, 6, 0, 7},
		{8, 9, 0, 10},
		{11, 12, 13, 14},
	},
	domain.CarLarge: largeLayout(),
}

func largeLayout() [][]int {
	rows := [][]int{
		{0, 0, 0, 0, 0},
		{1, 2, 0, 0, 3},
	}
	for first := 4; first < 56; first += 4 {
		rows = append(rows, []int{first, first + 1, first + 2, 0, first + 3})
	}
	return append(rows, []int{56, 57, 58, 59, 60})
}

// Layout returns a copy of the floor plan for carType, or nil when the type is unknown.
func Layout(carType domain.CarType) [][]int {
	src, ok := layouts[carType]
	if !ok {
		return nil
	}
	out := make([][]int, len(src))
	for i, row := range src {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Cell is one position of the rendered grid. Seat is nil for gaps.
type Cell struct {
	Seat *domain.Seat `json:"seat"`
}

// Grid joins the floor plan with the trip's seat states. Seats missing from the map are
// shown as available.
func Grid(trip *domain.Trip) [][]Cell {
	plan := Layout(trip.CarType)
	grid := make([][]Cell, len(plan))
	for i, row := range plan {
		grid[i] = make([]Cell, len(row))
		for j, number := range row {
			if number == 0 {
				continue
			}
			seat, ok := trip.Seats[number]
			if !ok {
				seat = domain.Seat{ID: number, Status: domain.SeatAvailable}
			}
			grid[i][j] = Cell{Seat: &seat}
		}
	}
	return grid
}
