package seatmap

import (
	"testing"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_CoversEverySeatOnce(t *testing.T) {
	for _, carType := range []domain.CarType{domain.CarMedium, domain.CarLarge} {
		t.Run(string(carType), func(t *testing.T) {
			n, _ := domain.Capacity(carType)
			seen := map[int]int{}
			for _, row := range Layout(carType) {
				for _, number := range row {
					if number != 0 {
						seen[number]++
					}
				}
			}
			assert.Len(t, seen, n)
			for i := 1; i <= n; i++ {
				assert.Equal(t, 1, seen[i], "seat %d", i)
			}
		})
	}
}

func TestLayout_ReturnsCopy(t *testing.T) {
	plan := Layout(domain.CarMedium)
	plan[0][3] = 99
	assert.Equal(t, 1, Layout(domain.CarMedium)[0][3])
	assert.Nil(t, Layout("Minibus"))
}

func TestLayout_LargeShape(t *testing.T) {
	plan := Layout(domain.CarLarge)
	require.Len(t, plan, 16)
	assert.Equal(t, []int{1, 2, 0, 0, 3}, plan[1])
	assert.Equal(t, []int{52, 53, 54, 0, 55}, plan[14])
	assert.Equal(t, []int{56, 57, 58, 59, 60}, plan[15])
}

func TestGrid(t *testing.T) {
	trip := initializedTrip(domain.CarMedium)
	trip.Seats[3] = domain.Seat{ID: 3, Status: domain.SeatPaid}

	grid := Grid(trip)

	require.Len(t, grid, 5)
	assert.Nil(t, grid[0][0].Seat)
	require.NotNil(t, grid[1][1].Seat)
	assert.Equal(t, 3, grid[1][1].Seat.ID)
	assert.Equal(t, domain.SeatPaid, grid[1][1].Seat.Status)
	assert.Equal(t, domain.SeatAvailable, grid[4][3].Seat.Status)
}
