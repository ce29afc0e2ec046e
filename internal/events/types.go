package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics the booking service produces to and consumes from.
const (
	TopicBookingEvents  = "booking.events"
	TopicActivityEvents = "activity.events"
)

// Event types on booking.events.
const (
	BookingRequested = "booking.requested"
	BookingAccepted  = "booking.accepted"
	BookingCancelled = "booking.cancelled"
)

// Event types on activity.events.
const (
	OccasionWithdrawn = "occasion.withdrawn"
)

// BookingRequestedEvent is published when a new booking is created.
type BookingRequestedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	AttendeeID uuid.UUID `json:"attendee_id"`
	OccasionID uuid.UUID `json:"occasion_id"`
	PeriodID   uuid.UUID `json:"period_id"`
	Username   string    `json:"username"`
	Priority   int       `json:"priority"`
	GroupCode  string    `json:"group_code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingAcceptedEvent is published whenever a booking transitions to
// accepted, including rescues during a cancellation cascade.
type BookingAcceptedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	AttendeeID uuid.UUID `json:"attendee_id"`
	OccasionID uuid.UUID `json:"occasion_id"`
	PeriodID   uuid.UUID `json:"period_id"`
	Username   string    `json:"username"`
	CostCents  int64     `json:"cost_cents"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a booking is cancelled.
type BookingCancelledEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	AttendeeID uuid.UUID `json:"attendee_id"`
	OccasionID uuid.UUID `json:"occasion_id"`
	PeriodID   uuid.UUID `json:"period_id"`
	Cascade    bool      `json:"cascade"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OccasionWithdrawnEvent arrives from the activity service when an occasion
// is withdrawn from its period; every booking on it must be cancelled.
type OccasionWithdrawnEvent struct {
	OccasionID uuid.UUID `json:"occasion_id"`
	PeriodID   uuid.UUID `json:"period_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
