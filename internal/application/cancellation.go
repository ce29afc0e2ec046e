package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campbook/service-booking/internal/domain"
	bookingDomain "github.com/campbook/service-booking/internal/domain/booking"
	"github.com/campbook/service-booking/internal/events"
)

// rescueOutcome is the result of one re-acceptance attempt during a
// cancellation cascade. Limit and capacity failures are expected ways a
// rescue fails; any other error aborts the whole cancellation.
type rescueOutcome int

const (
	rescued rescueOutcome = iota
	rescueLimitReached
	rescueOccasionFull
	rescueFailed
)

// CancelBooking moves one booking into the cancelled state. With cascade
// enabled and the booking currently accepted, the freed capacity is
// redistributed: first to the attendee's own blocked bookings, then to the
// occasion's waiting list, in scorer order. The whole cascade runs inside
// one store transaction, so an aborted redistribution rolls back the
// cancellation itself as well.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, cascade bool, reason string) (*BookingDTO, error) {
	var bk *bookingDomain.Booking
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		bk, err = s.bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		return s.cancel(ctx, bk, cascade, reason)
	})
	if err != nil {
		return nil, err
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// cancel is the cancellation engine.
func (s *BookingService) cancel(ctx context.Context, bk *bookingDomain.Booking, cascade bool, reason string) error {
	period, err := s.periods.FindByID(ctx, bk.PeriodID())
	if err != nil {
		return err
	}
	if !period.Confirmed {
		return domain.NewPeriodNotConfirmedError(period.ID.String())
	}

	// Fast path: nothing was holding capacity, so nothing to redistribute.
	if !cascade || bk.State() != bookingDomain.StateAccepted {
		changed := bk.State() != bookingDomain.StateCancelled
		if err := bk.Cancel(); err != nil {
			return err
		}
		if changed {
			if err := s.persist(ctx, bk); err != nil {
				return err
			}
			s.publishBookingCancelled(ctx, bk, false, reason)
		}
		return nil
	}

	attendee, err := s.attendees.FindByID(ctx, bk.AttendeeID())
	if err != nil {
		return err
	}

	others, err := s.bookings.FindForAttendee(ctx, bk.AttendeeID(), bk.PeriodID(), bk.ID())
	if err != nil {
		return err
	}

	// The cancellation must be written before any capacity reasoning: the
	// occasion attendance and the attendee's accepted count both derive from
	// the booking table.
	if err := bk.Cancel(); err != nil {
		return err
	}
	if err := s.persist(ctx, bk); err != nil {
		return err
	}

	var acceptedSet, blockedSet []*bookingDomain.Booking
	for _, o := range others {
		switch o.State() {
		case bookingDomain.StateAccepted:
			acceptedSet = append(acceptedSet, o)
		case bookingDomain.StateBlocked:
			blockedSet = append(blockedSet, o)
		}
	}

	limit := bookingDomain.EffectiveLimit(attendee, period)

	// A blocked booking becomes unblockable when the cancelled booking was
	// the last accepted booking overlapping it.
	var unblockable []*bookingDomain.Booking
	for _, o := range blockedSet {
		held := false
		for _, a := range acceptedSet {
			if o.Overlaps(a) {
				held = true
				break
			}
		}
		if !held {
			unblockable = append(unblockable, o)
		}
	}
	bookingDomain.SortByScore(unblockable, s.scorer)

	var unblocked []*bookingDomain.Booking
	for _, o := range unblockable {
		if limit != nil && *limit < len(unblocked)+1+len(acceptedSet) {
			break
		}
		if err := o.Deny(); err != nil {
			return err
		}
		unblocked = append(unblocked, o)
	}
	for _, o := range unblocked {
		if err := s.persist(ctx, o); err != nil {
			return err
		}
	}

	// Rescue loop: re-run the acceptance engine for each unblocked booking.
	// Each success changes capacity for the next iteration, so the engine
	// re-reads occasion attendance per attempt.
	for _, o := range unblocked {
		if o.State() != bookingDomain.StateDenied {
			continue
		}
		occ, err := s.occasions.FindByID(ctx, o.OccasionID())
		if err != nil {
			return err
		}
		if occ.Full() {
			continue
		}
		outcome, err := s.tryAccept(ctx, o)
		if err != nil {
			return err
		}
		if outcome != rescued {
			s.logger.Debug("rescue attempt not admitted",
				zap.String("booking_id", o.ID().String()),
				zap.Int("outcome", int(outcome)),
			)
		}
	}

	// Backfill the freed occasion from its own waiting list, any attendee.
	occ, err := s.occasions.FindByID(ctx, bk.OccasionID())
	if err != nil {
		return err
	}
	waiting, err := s.bookings.FindWaitingForOccasion(ctx, bk.OccasionID(), bk.ID())
	if err != nil {
		return err
	}
	bookingDomain.SortByScore(waiting, s.scorer)

	spots := occ.AvailableSpots()
	for _, o := range waiting {
		if spots <= 0 {
			break
		}
		outcome, err := s.tryAccept(ctx, o)
		if err != nil {
			return err
		}
		if outcome == rescued {
			spots--
		}
	}

	s.publishBookingCancelled(ctx, bk, true, reason)
	return nil
}

// CancelOccasionBookings cancels every booking on a withdrawn occasion,
// atomically. Waiting bookings go first so the cascades run for the
// accepted ones do not backfill the very occasion being withdrawn.
func (s *BookingService) CancelOccasionBookings(ctx context.Context, occasionID uuid.UUID, reason string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		bookings, err := s.bookings.FindByOccasionID(ctx, occasionID)
		if err != nil {
			return err
		}

		for _, bk := range bookings {
			if bk.State() == bookingDomain.StateAccepted {
				continue
			}
			if err := s.cancel(ctx, bk, false, reason); err != nil {
				return err
			}
		}

		for _, bk := range bookings {
			if bk.State() != bookingDomain.StateAccepted {
				continue
			}
			if err := s.cancel(ctx, bk, true, reason); err != nil {
				return err
			}
		}

		return nil
	})
}

// tryAccept invokes the acceptance engine and classifies the expected
// failure modes, so the cascade loops branch on a value instead of
// swallowing exceptions.
func (s *BookingService) tryAccept(ctx context.Context, bk *bookingDomain.Booking) (rescueOutcome, error) {
	err := s.accept(ctx, bk)
	switch {
	case err == nil:
		return rescued, nil
	case domain.IsCode(err, domain.CodeBookingLimitReached):
		return rescueLimitReached, nil
	case domain.IsCode(err, domain.CodeOccasionFull):
		return rescueOccasionFull, nil
	default:
		return rescueFailed, err
	}
}

func (s *BookingService) publishBookingCancelled(ctx context.Context, bk *bookingDomain.Booking, cascade bool, reason string) {
	evt := events.BookingCancelledEvent{
		BookingID:  bk.ID(),
		AttendeeID: bk.AttendeeID(),
		OccasionID: bk.OccasionID(),
		PeriodID:   bk.PeriodID(),
		Cascade:    cascade,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(), evt)
}
