package booking

import (
	"github.com/google/uuid"
)

// Period is a booking campaign grouping occasions and bookings. Matching
// only operates on confirmed periods.
type Period struct {
	ID           uuid.UUID
	Title        string
	Confirmed    bool
	BookingLimit *int
	AllInclusive bool
}

// Attendee is a person who can be booked into occasions. Limit, when set,
// overrides the period's booking limit for this attendee.
type Attendee struct {
	ID       uuid.UUID
	Username string
	Name     string
	Limit    *int
}

// EffectiveLimit resolves the booking limit that applies to the attendee in
// the period, or nil for unlimited. An all-inclusive period's limit governs
// every attendee; otherwise a personal limit overrides the period's. The
// same rule is used by acceptance and cancellation.
func EffectiveLimit(attendee *Attendee, period *Period) *int {
	if period.AllInclusive && period.BookingLimit != nil {
		return period.BookingLimit
	}
	if attendee.Limit != nil {
		return attendee.Limit
	}
	return period.BookingLimit
}
