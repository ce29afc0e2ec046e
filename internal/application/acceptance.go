package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campbook/service-booking/internal/domain"
	bookingDomain "github.com/campbook/service-booking/internal/domain/booking"
	"github.com/campbook/service-booking/internal/events"
)

// AcceptBooking attempts to move one booking into the accepted state,
// blocking every conflicting booking of the same attendee in the same
// period. The engine runs inside one store transaction: each step's write is
// visible to the steps after it, and an error rolls every write back so a
// failed accept leaves no sibling half-blocked.
func (s *BookingService) AcceptBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		return s.accept(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// accept is the acceptance engine. It is also invoked by the cancellation
// engine's rescue and backfill loops.
//
// Preconditions fail before any mutation: the period must be confirmed, the
// occasion must have a spot left, and the booking must be open or denied.
func (s *BookingService) accept(ctx context.Context, bk *bookingDomain.Booking) error {
	period, err := s.periods.FindByID(ctx, bk.PeriodID())
	if err != nil {
		return err
	}
	if !period.Confirmed {
		return domain.NewPeriodNotConfirmedError(period.ID.String())
	}

	// Fresh read so the attendance reflects every write made so far.
	occ, err := s.occasions.FindByID(ctx, bk.OccasionID())
	if err != nil {
		return err
	}
	if occ.Full() {
		return domain.NewOccasionFullError(occ.ID.String())
	}

	if !bk.State().Acceptable() {
		return domain.NewInvalidStateError(string(bk.State()), string(bookingDomain.StateAccepted))
	}
	bk.AttachOccasion(occ)

	attendee, err := s.attendees.FindByID(ctx, bk.AttendeeID())
	if err != nil {
		return err
	}

	others, err := s.bookings.FindForAttendee(ctx, bk.AttendeeID(), bk.PeriodID(), bk.ID())
	if err != nil {
		return err
	}

	limit := bookingDomain.EffectiveLimit(attendee, period)

	// Accepting this booking may exhaust the attendee's limit; when it does,
	// every remaining candidate booking is blocked below.
	blockRest := false
	if limit != nil && !occ.ExemptFromBookingLimit {
		accepted := 0
		for _, o := range others {
			if o.State() != bookingDomain.StateAccepted {
				continue
			}
			if o.Occasion() != nil && o.Occasion().ExemptFromBookingLimit {
				continue
			}
			accepted++
		}
		if accepted >= *limit {
			return domain.NewBookingLimitReachedError(attendee.ID.String(), *limit)
		}
		if accepted+1 >= *limit {
			blockRest = true
		}
	}

	for _, o := range others {
		switch o.State() {
		case bookingDomain.StateCancelled, bookingDomain.StateBlocked:
			continue
		}
		if !bk.Overlaps(o) {
			continue
		}
		if o.State() == bookingDomain.StateAccepted {
			// Two accepted overlapping bookings would violate the matching
			// invariant; never resolved silently.
			return domain.NewConflictingBookingError(bk.ID().String(), o.ID().String())
		}
		if err := o.Block(); err != nil {
			return err
		}
		if err := s.persist(ctx, o); err != nil {
			return err
		}
	}

	if blockRest {
		for _, o := range others {
			switch o.State() {
			case bookingDomain.StateCancelled, bookingDomain.StateAccepted, bookingDomain.StateBlocked:
				continue
			}
			if o.Occasion() != nil && o.Occasion().ExemptFromBookingLimit {
				continue
			}
			if err := o.Block(); err != nil {
				return err
			}
			if err := s.persist(ctx, o); err != nil {
				return err
			}
		}
	}

	if err := bk.Accept(occ.TotalCostCents); err != nil {
		return err
	}
	if err := s.persist(ctx, bk); err != nil {
		return err
	}

	evt := events.BookingAcceptedEvent{
		BookingID:  bk.ID(),
		AttendeeID: bk.AttendeeID(),
		OccasionID: bk.OccasionID(),
		PeriodID:   bk.PeriodID(),
		Username:   bk.Username(),
		CostCents:  occ.TotalCostCents,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingAccepted, bk.ID().String(), evt)

	return nil
}
