package booking

import "fmt"

// BookingState represents the current state of a booking in its lifecycle.
type BookingState string

const (
	// StateOpen is the initial state of every booking.
	StateOpen BookingState = "open"
	// StateBlocked marks a booking held back by a conflicting accepted
	// booking of the same attendee, or by an exhausted booking limit.
	StateBlocked BookingState = "blocked"
	// StateAccepted marks a booking that holds a spot on its occasion.
	StateAccepted BookingState = "accepted"
	// StateDenied marks a booking that lost matching but is eligible for a
	// re-acceptance attempt.
	StateDenied BookingState = "denied"
	// StateCancelled is the terminal state.
	StateCancelled BookingState = "cancelled"
)

// validTransitions defines the state machine for booking state transitions.
var validTransitions = map[BookingState][]BookingState{
	StateOpen:      {StateAccepted, StateBlocked, StateDenied, StateCancelled},
	StateBlocked:   {StateDenied, StateCancelled},
	StateAccepted:  {StateCancelled},
	StateDenied:    {StateAccepted, StateBlocked, StateCancelled},
	StateCancelled: {},
}

// IsValid returns true if the state is a recognized booking state.
func (s BookingState) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this state to the target is allowed.
func (s BookingState) CanTransitionTo(target BookingState) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this state.
func (s BookingState) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// Acceptable returns true if the acceptance engine may operate on a booking
// in this state.
func (s BookingState) Acceptable() bool {
	return s == StateOpen || s == StateDenied
}

// String returns the string representation of the state.
func (s BookingState) String() string {
	return string(s)
}

// ParseBookingState converts a string to a BookingState, returning an error if invalid.
func ParseBookingState(s string) (BookingState, error) {
	state := BookingState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid booking state: %s", s)
	}
	return state, nil
}
