package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
// Every Update is written through immediately: the matching engines rely on
// later reads within the same operation observing earlier writes.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier, with its
	// occasion preloaded.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindForAttendee retrieves all bookings of an attendee within a period,
	// excluding the given booking, with occasions preloaded.
	FindForAttendee(ctx context.Context, attendeeID, periodID, exclude uuid.UUID) ([]*Booking, error)

	// FindWaitingForOccasion retrieves open and denied bookings on an
	// occasion, excluding the given booking, with occasions preloaded.
	FindWaitingForOccasion(ctx context.Context, occasionID, exclude uuid.UUID) ([]*Booking, error)

	// FindByOccasionID retrieves every non-cancelled booking on an occasion.
	FindByOccasionID(ctx context.Context, occasionID uuid.UUID) ([]*Booking, error)

	// FindByUsername retrieves bookings submitted by a user with pagination.
	FindByUsername(ctx context.Context, username string, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves bookings with pagination, optionally narrowed to a
	// single state (admin).
	ListAll(ctx context.Context, page, limit int, state string) ([]*Booking, int64, error)

	// CountByState returns booking counts grouped by state (admin).
	CountByState(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error
}

// TransactionManager runs a function inside one store transaction. The
// matching engines execute under it so a failed run leaves no partial
// blocking behind: intra-call reads observe earlier writes, and an error
// rolls every write back.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OccasionRepository provides read access to occasions. FindByID recomputes
// the occasion's attendance from the booking table on every call.
type OccasionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Occasion, error)
}

// AttendeeRepository provides read access to attendees.
type AttendeeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Attendee, error)
}

// PeriodRepository provides read access to periods.
type PeriodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Period, error)
}
