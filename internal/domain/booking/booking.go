package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/campbook/service-booking/internal/domain"
)

// Booking is the aggregate root for the booking domain: one attendee's
// request to attend one occasion within one period.
type Booking struct {
	id         uuid.UUID
	username   string
	attendeeID uuid.UUID
	occasionID uuid.UUID
	periodID   uuid.UUID
	state      BookingState
	priority   int
	groupCode  string
	costCents  *int64

	// occasion is the loaded association, nil unless the repository
	// preloaded it.
	occasion *Occasion

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with state=open. The periodID
// must be the period of the booking's occasion; the caller denormalizes it
// from the occasion at creation time.
func NewBooking(
	username string,
	attendeeID uuid.UUID,
	occasionID uuid.UUID,
	periodID uuid.UUID,
	priority int,
	groupCode string,
) (*Booking, error) {
	if username == "" {
		return nil, domain.NewValidationError("username is required")
	}
	if attendeeID == uuid.Nil {
		return nil, domain.NewValidationError("attendee ID is required")
	}
	if occasionID == uuid.Nil {
		return nil, domain.NewValidationError("occasion ID is required")
	}
	if periodID == uuid.Nil {
		return nil, domain.NewValidationError("period ID is required")
	}

	now := time.Now().UTC()
	return &Booking{
		id:         uuid.New(),
		username:   username,
		attendeeID: attendeeID,
		occasionID: occasionID,
		periodID:   periodID,
		state:      StateOpen,
		priority:   priority,
		groupCode:  groupCode,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	username string,
	attendeeID uuid.UUID,
	occasionID uuid.UUID,
	periodID uuid.UUID,
	state BookingState,
	priority int,
	groupCode string,
	costCents *int64,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:         id,
		username:   username,
		attendeeID: attendeeID,
		occasionID: occasionID,
		periodID:   periodID,
		state:      state,
		priority:   priority,
		groupCode:  groupCode,
		costCents:  costCents,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// Username returns the user who submitted the booking.
func (b *Booking) Username() string { return b.username }

// AttendeeID returns the attendee the booking is for.
func (b *Booking) AttendeeID() uuid.UUID { return b.attendeeID }

// OccasionID returns the occasion the booking requests.
func (b *Booking) OccasionID() uuid.UUID { return b.occasionID }

// PeriodID returns the period the booking belongs to.
func (b *Booking) PeriodID() uuid.UUID { return b.periodID }

// State returns the current booking state.
func (b *Booking) State() BookingState { return b.state }

// Priority returns the booking's priority used by the default scorer.
func (b *Booking) Priority() int { return b.priority }

// GroupCode returns the code linking bookings made together, or empty.
func (b *Booking) GroupCode() string { return b.groupCode }

// CostCents returns the cost captured at acceptance, or nil.
func (b *Booking) CostCents() *int64 { return b.costCents }

// Occasion returns the loaded occasion, or nil if not preloaded.
func (b *Booking) Occasion() *Occasion { return b.occasion }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// AttachOccasion sets the loaded occasion association.
func (b *Booking) AttachOccasion(o *Occasion) {
	b.occasion = o
}

// --- Behavior ---

// Accept transitions the booking to accepted and captures the occasion's
// cost. Only open and denied bookings can be accepted.
func (b *Booking) Accept(costCents int64) error {
	if !b.state.CanTransitionTo(StateAccepted) {
		return domain.NewInvalidStateError(string(b.state), string(StateAccepted))
	}
	b.state = StateAccepted
	b.costCents = &costCents
	b.updatedAt = time.Now().UTC()
	return nil
}

// Block transitions the booking to blocked. Blocking an already blocked
// booking is a no-op.
func (b *Booking) Block() error {
	if b.state == StateBlocked {
		return nil
	}
	if !b.state.CanTransitionTo(StateBlocked) {
		return domain.NewInvalidStateError(string(b.state), string(StateBlocked))
	}
	b.state = StateBlocked
	b.updatedAt = time.Now().UTC()
	return nil
}

// Deny transitions the booking to denied, marking it eligible for a
// re-acceptance attempt.
func (b *Booking) Deny() error {
	if !b.state.CanTransitionTo(StateDenied) {
		return domain.NewInvalidStateError(string(b.state), string(StateDenied))
	}
	b.state = StateDenied
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking to cancelled and clears its group code.
// Cancelling an already cancelled booking is a no-op.
func (b *Booking) Cancel() error {
	if b.state == StateCancelled {
		return nil
	}
	if !b.state.CanTransitionTo(StateCancelled) {
		return domain.NewInvalidStateError(string(b.state), string(StateCancelled))
	}
	b.state = StateCancelled
	b.groupCode = ""
	b.costCents = nil
	b.updatedAt = time.Now().UTC()
	return nil
}

// Overlaps reports whether the booking's occasion intersects the other
// booking's occasion in time. Both occasions must be preloaded.
func (b *Booking) Overlaps(other *Booking) bool {
	if b.occasion == nil || other.occasion == nil {
		return false
	}
	return b.occasion.Overlaps(other.occasion)
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
