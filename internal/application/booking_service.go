package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campbook/service-booking/internal/domain"
	bookingDomain "github.com/campbook/service-booking/internal/domain/booking"
	"github.com/campbook/service-booking/internal/events"
	"github.com/campbook/service-booking/internal/kafka"
)

// eventPublisher is the slice of the Kafka producer the service needs.
type eventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event *kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	AttendeeID uuid.UUID `json:"attendee_id" binding:"required"`
	OccasionID uuid.UUID `json:"occasion_id" binding:"required"`
	Priority   int       `json:"priority"`
	GroupCode  string    `json:"group_code"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	AttendeeID uuid.UUID `json:"attendee_id"`
	OccasionID uuid.UUID `json:"occasion_id"`
	PeriodID   uuid.UUID `json:"period_id"`
	State      string    `json:"state"`
	Priority   int       `json:"priority"`
	GroupCode  string    `json:"group_code,omitempty"`
	CostCents  *int64    `json:"cost_cents,omitempty"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases,
// including the acceptance and cancellation engines.
type BookingService struct {
	tx        bookingDomain.TransactionManager
	bookings  bookingDomain.BookingRepository
	occasions bookingDomain.OccasionRepository
	attendees bookingDomain.AttendeeRepository
	periods   bookingDomain.PeriodRepository
	scorer    bookingDomain.Scorer
	producer  eventPublisher
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	tx bookingDomain.TransactionManager,
	bookings bookingDomain.BookingRepository,
	occasions bookingDomain.OccasionRepository,
	attendees bookingDomain.AttendeeRepository,
	periods bookingDomain.PeriodRepository,
	scorer bookingDomain.Scorer,
	producer eventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:        tx,
		bookings:  bookings,
		occasions: occasions,
		attendees: attendees,
		periods:   periods,
		scorer:    scorer,
		producer:  producer,
		logger:    logger,
	}
}

// CreateBooking creates a new open booking for the given user. The booking's
// period is denormalized from the occasion so that attendee/period queries
// never need a join through occasions.
func (s *BookingService) CreateBooking(ctx context.Context, username string, req CreateBookingRequest) (*BookingDTO, error) {
	occ, err := s.occasions.FindByID(ctx, req.OccasionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.attendees.FindByID(ctx, req.AttendeeID); err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		username,
		req.AttendeeID,
		occ.ID,
		occ.PeriodID,
		req.Priority,
		req.GroupCode,
	)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	evt := events.BookingRequestedEvent{
		BookingID:  bk.ID(),
		AttendeeID: bk.AttendeeID(),
		OccasionID: bk.OccasionID(),
		PeriodID:   bk.PeriodID(),
		Username:   bk.Username(),
		Priority:   bk.Priority(),
		GroupCode:  bk.GroupCode(),
		OccurredAt: time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRequested, bk.ID().String(), evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetUserBookings retrieves paginated bookings submitted by a user.
func (s *BookingService) GetUserBookings(ctx context.Context, username string, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByUsername(ctx, username, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByState       map[string]int64 `json:"by_state"`
}

// ListAllBookings returns a paginated list of bookings, optionally narrowed
// to one state (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int, state string) ([]BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit, state)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos, total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByState:       counts,
	}, nil
}

// --- Helpers ---

// persist bumps the version and writes the booking through to the store.
// The engines call this after every state change so subsequent reads within
// the same operation observe it.
func (s *BookingService) persist(ctx context.Context, bk *bookingDomain.Booking) error {
	bk.IncrementVersion()
	return s.bookings.Update(ctx, bk)
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:         bk.ID(),
		Username:   bk.Username(),
		AttendeeID: bk.AttendeeID(),
		OccasionID: bk.OccasionID(),
		PeriodID:   bk.PeriodID(),
		State:      string(bk.State()),
		Priority:   bk.Priority(),
		GroupCode:  bk.GroupCode(),
		CostCents:  bk.CostCents(),
		Version:    bk.Version(),
		CreatedAt:  bk.CreatedAt(),
		UpdatedAt:  bk.UpdatedAt(),
	}
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data any) {
	cloudEvent, err := kafka.NewCloudEvent("service-booking", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
