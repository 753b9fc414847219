package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticket-booking/internal/model"
)

func TestGenerateSeatsLayout(t *testing.T) {
	ev := &model.Event{ID: 1, PriceCents: 1000, TotalSeats: 40}
	seats := generateSeats(ev)
	require.Len(t, seats, 40)

	// 40 seats over 8 rows -> 5 per row.
	byRow := map[string]int{}
	for _, s := range seats {
		byRow[s.RowLabel]++
		assert.Equal(t, model.SeatAvailable, s.Status)
		assert.Equal(t, uint64(1), s.EventID)
	}
	for _, row := range seatRows {
		assert.Equal(t, 5, byRow[row], "row %s", row)
	}

	for _, s := range seats {
		switch s.RowLabel {
		case "A", "B":
			assert.Equal(t, "Premium", s.Category)
			assert.Equal(t, uint32(1500), s.PriceCents)
		case "C", "D":
			assert.Equal(t, "Executive", s.Category)
			assert.Equal(t, uint32(1200), s.PriceCents)
		default:
			assert.Equal(t, "Standard", s.Category)
			assert.Equal(t, uint32(1000), s.PriceCents)
		}
	}
}

func TestGenerateSeatsTruncatesAtTotal(t *testing.T) {
	// 10 seats over 8 rows -> 2 per row, cut off after the 10th seat.
	ev := &model.Event{ID: 2, PriceCents: 500, TotalSeats: 10}
	seats := generateSeats(ev)
	require.Len(t, seats, 10)

	last := seats[len(seats)-1]
	assert.Equal(t, "E", last.RowLabel)
	assert.Equal(t, uint32(2), last.SeatNumber)
}

func TestGenerateSeatsNumbersStartAtOne(t *testing.T) {
	ev := &model.Event{ID: 3, PriceCents: 100, TotalSeats: 8}
	seats := generateSeats(ev)
	require.Len(t, seats, 8)
	for _, s := range seats {
		assert.Equal(t, uint32(1), s.SeatNumber)
	}
}
