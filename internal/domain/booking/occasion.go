package booking

import (
	"time"

	"github.com/google/uuid"
)

// Occasion is one concrete scheduled offering of an activity within a
// period, with finite capacity. Attendance is the count of accepted bookings
// as of the last store read; the repository recomputes it on every load so
// that capacity decisions made after a write observe that write.
type Occasion struct {
	ID                     uuid.UUID
	ActivityTitle          string
	PeriodID               uuid.UUID
	StartsAt               time.Time
	EndsAt                 time.Time
	Capacity               int
	Attendance             int
	ExemptFromBookingLimit bool
	TotalCostCents         int64
}

// Full reports whether the occasion has no spots left.
func (o *Occasion) Full() bool {
	return o.Attendance >= o.Capacity
}

// AvailableSpots returns the number of spots still open on the occasion.
func (o *Occasion) AvailableSpots() int {
	if o.Attendance >= o.Capacity {
		return 0
	}
	return o.Capacity - o.Attendance
}

// Overlaps reports whether two occasions intersect in time. Ranges are
// half-open, so back-to-back occasions do not overlap.
func (o *Occasion) Overlaps(other *Occasion) bool {
	if other == nil {
		return false
	}
	return o.StartsAt.Before(other.EndsAt) && other.StartsAt.Before(o.EndsAt)
}
