package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campbook/service-booking/internal/domain"
	bookingDomain "github.com/campbook/service-booking/internal/domain/booking"
	"github.com/campbook/service-booking/internal/kafka"
)

// fakeStore backs the in-memory repositories. Bookings are shared pointers,
// so an Update is a write-through just like the real store.
type fakeStore struct {
	bookings  []*bookingDomain.Booking
	occasions map[uuid.UUID]*bookingDomain.Occasion
	attendees map[uuid.UUID]*bookingDomain.Attendee
	periods   map[uuid.UUID]*bookingDomain.Period
	updates   int
	saves     int
}

// snapshot deep-copies the booking rows and counters so a failed
// transaction can be rolled back.
func (s *fakeStore) snapshot() ([]*bookingDomain.Booking, int, int) {
	copies := make([]*bookingDomain.Booking, len(s.bookings))
	for i, b := range s.bookings {
		copies[i] = bookingDomain.ReconstructBooking(
			b.ID(), b.Username(), b.AttendeeID(), b.OccasionID(), b.PeriodID(),
			b.State(), b.Priority(), b.GroupCode(), b.CostCents(), b.Version(),
			b.CreatedAt(), b.UpdatedAt(),
		)
	}
	return copies, s.updates, s.saves
}

func (s *fakeStore) restore(bookings []*bookingDomain.Booking, updates, saves int) {
	s.bookings = bookings
	s.updates = updates
	s.saves = saves
}

// fakeTxManager emulates the store transaction: on error every booking row
// and write counter reverts to its pre-transaction value.
type fakeTxManager struct {
	store *fakeStore
}

func (m *fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	bookings, updates, saves := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(bookings, updates, saves)
		return err
	}
	return nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		occasions: make(map[uuid.UUID]*bookingDomain.Occasion),
		attendees: make(map[uuid.UUID]*bookingDomain.Attendee),
		periods:   make(map[uuid.UUID]*bookingDomain.Period),
	}
}

// preload mirrors the GORM repository's occasion preload.
func (s *fakeStore) preload(b *bookingDomain.Booking) {
	if occ, ok := s.occasions[b.OccasionID()]; ok {
		c := *occ
		b.AttachOccasion(&c)
	}
}

func (s *fakeStore) acceptedCount(occasionID uuid.UUID) int {
	n := 0
	for _, b := range s.bookings {
		if b.OccasionID() == occasionID && b.State() == bookingDomain.StateAccepted {
			n++
		}
	}
	return n
}

type fakeBookingRepo struct {
	store *fakeStore
}

func (r *fakeBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	for _, b := range r.store.bookings {
		if b.ID() == id {
			r.store.preload(b)
			return b, nil
		}
	}
	return nil, domain.NewNotFoundError("booking", id.String())
}

func (r *fakeBookingRepo) FindForAttendee(ctx context.Context, attendeeID, periodID, exclude uuid.UUID) ([]*bookingDomain.Booking, error) {
	var result []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.AttendeeID() != attendeeID || b.PeriodID() != periodID || b.ID() == exclude {
			continue
		}
		r.store.preload(b)
		result = append(result, b)
	}
	return result, nil
}

func (r *fakeBookingRepo) FindWaitingForOccasion(ctx context.Context, occasionID, exclude uuid.UUID) ([]*bookingDomain.Booking, error) {
	var result []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.OccasionID() != occasionID || b.ID() == exclude || !b.State().Acceptable() {
			continue
		}
		r.store.preload(b)
		result = append(result, b)
	}
	return result, nil
}

func (r *fakeBookingRepo) FindByOccasionID(ctx context.Context, occasionID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var result []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.OccasionID() != occasionID || b.State() == bookingDomain.StateCancelled {
			continue
		}
		r.store.preload(b)
		result = append(result, b)
	}
	return result, nil
}

func (r *fakeBookingRepo) FindByUsername(ctx context.Context, username string, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var result []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if b.Username() == username {
			r.store.preload(b)
			result = append(result, b)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeBookingRepo) ListAll(ctx context.Context, page, limit int, state string) ([]*bookingDomain.Booking, int64, error) {
	if state == "" {
		return r.store.bookings, int64(len(r.store.bookings)), nil
	}
	var result []*bookingDomain.Booking
	for _, b := range r.store.bookings {
		if string(b.State()) == state {
			result = append(result, b)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeBookingRepo) CountByState(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, b := range r.store.bookings {
		counts[string(b.State())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) Save(ctx context.Context, b *bookingDomain.Booking) error {
	r.store.bookings = append(r.store.bookings, b)
	r.store.saves++
	return nil
}

func (r *fakeBookingRepo) Update(ctx context.Context, b *bookingDomain.Booking) error {
	for _, stored := range r.store.bookings {
		if stored.ID() == b.ID() {
			r.store.updates++
			return nil
		}
	}
	return domain.NewNotFoundError("booking", b.ID().String())
}

// fakeOccasionRepo recomputes attendance on every read, like the real one.
type fakeOccasionRepo struct {
	store *fakeStore
}

func (r *fakeOccasionRepo) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Occasion, error) {
	occ, ok := r.store.occasions[id]
	if !ok {
		return nil, domain.NewNotFoundError("occasion", id.String())
	}
	c := *occ
	c.Attendance = r.store.acceptedCount(id)
	return &c, nil
}

type fakeAttendeeRepo struct {
	store *fakeStore
}

func (r *fakeAttendeeRepo) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Attendee, error) {
	a, ok := r.store.attendees[id]
	if !ok {
		return nil, domain.NewNotFoundError("attendee", id.String())
	}
	return a, nil
}

type fakePeriodRepo struct {
	store *fakeStore
}

func (r *fakePeriodRepo) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Period, error) {
	p, ok := r.store.periods[id]
	if !ok {
		return nil, domain.NewNotFoundError("period", id.String())
	}
	return p, nil
}

// capturePublisher records published events instead of talking to Kafka.
type capturePublisher struct {
	events []*kafka.CloudEvent
}

func (p *capturePublisher) PublishEvent(ctx context.Context, topic, key string, event *kafka.CloudEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) eventTypes() []string {
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

// fixture wires a BookingService onto the in-memory store.
type fixture struct {
	store     *fakeStore
	publisher *capturePublisher
	service   *BookingService
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	publisher := &capturePublisher{}
	service := NewBookingService(
		&fakeTxManager{store: store},
		&fakeBookingRepo{store: store},
		&fakeOccasionRepo{store: store},
		&fakeAttendeeRepo{store: store},
		&fakePeriodRepo{store: store},
		bookingDomain.NewPriorityScorer(),
		publisher,
		zap.NewNop(),
	)
	return &fixture{
		store:     store,
		publisher: publisher,
		service:   service,
		clock:     time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC),
	}
}

func limitPtr(v int) *int { return &v }

func (f *fixture) addPeriod(confirmed bool, limit *int) *bookingDomain.Period {
	p := &bookingDomain.Period{
		ID:           uuid.New(),
		Title:        "Summer Camp 2026",
		Confirmed:    confirmed,
		BookingLimit: limit,
	}
	f.store.periods[p.ID] = p
	return p
}

func (f *fixture) addAttendee(limit *int) *bookingDomain.Attendee {
	a := &bookingDomain.Attendee{
		ID:       uuid.New(),
		Username: "parent",
		Name:     "Attendee",
		Limit:    limit,
	}
	f.store.attendees[a.ID] = a
	return a
}

// addOccasion schedules an occasion on 2026-07-06 from startHour for durHours.
func (f *fixture) addOccasion(periodID uuid.UUID, startHour, durHours, capacity int) *bookingDomain.Occasion {
	start := time.Date(2026, 7, 6, startHour, 0, 0, 0, time.UTC)
	o := &bookingDomain.Occasion{
		ID:            uuid.New(),
		ActivityTitle: "Activity",
		PeriodID:      periodID,
		StartsAt:      start,
		EndsAt:        start.Add(time.Duration(durHours) * time.Hour),
		Capacity:      capacity,
	}
	f.store.occasions[o.ID] = o
	return o
}

// bookingState reads a booking's state from the store, past any rollback.
// Pointers handed out by addBooking may carry rolled-back in-memory
// mutations, just like a stale aggregate after a real transaction abort.
func (f *fixture) bookingState(id uuid.UUID) bookingDomain.BookingState {
	for _, b := range f.store.bookings {
		if b.ID() == id {
			return b.State()
		}
	}
	return ""
}

// addBooking seeds a booking in the given state with a distinct creation time
// so scorer tie-breaks are deterministic.
func (f *fixture) addBooking(attendeeID, occasionID uuid.UUID, state bookingDomain.BookingState, priority int) *bookingDomain.Booking {
	occ := f.store.occasions[occasionID]
	f.clock = f.clock.Add(time.Minute)
	b := bookingDomain.ReconstructBooking(
		uuid.New(), "parent", attendeeID, occasionID, occ.PeriodID,
		state, priority, "", nil, 1, f.clock, f.clock,
	)
	f.store.bookings = append(f.store.bookings, b)
	return b
}
