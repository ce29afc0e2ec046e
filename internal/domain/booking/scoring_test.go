package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func reconstructAt(priority int, createdAt time.Time) *Booking {
	return ReconstructBooking(
		uuid.New(), "alice", uuid.New(), uuid.New(), uuid.New(),
		StateAccepted, priority, "", nil, 1, createdAt, createdAt,
	)
}

func TestPriorityScorer(t *testing.T) {
	s := NewPriorityScorer()
	high := reconstructAt(5, time.Now())
	low := reconstructAt(1, time.Now())

	assert.Less(t, s.Score(high), s.Score(low))
}

func TestSortByScore(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	oldLow := reconstructAt(1, base)
	newLow := reconstructAt(1, base.Add(time.Hour))
	high := reconstructAt(9, base.Add(2*time.Hour))

	bookings := []*Booking{newLow, oldLow, high}
	SortByScore(bookings, NewPriorityScorer())

	// Highest priority first, then oldest within the same priority.
	assert.Equal(t, high.ID(), bookings[0].ID())
	assert.Equal(t, oldLow.ID(), bookings[1].ID())
	assert.Equal(t, newLow.ID(), bookings[2].ID())
}

func TestSortByScore_TieBreakByID(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := reconstructAt(1, base)
	b := reconstructAt(1, base)

	first, second := a, b
	if b.ID().String() < a.ID().String() {
		first, second = b, a
	}

	bookings := []*Booking{second, first}
	SortByScore(bookings, NewPriorityScorer())

	assert.Equal(t, first.ID(), bookings[0].ID())
	assert.Equal(t, second.ID(), bookings[1].ID())
}
