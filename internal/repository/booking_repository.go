package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campbook/service-booking/internal/domain"
	bookingDomain "github.com/campbook/service-booking/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username   string    `gorm:"not null;size:255;index"`
	AttendeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_bookings_attendee_period"`
	OccasionID uuid.UUID `gorm:"type:uuid;not null;index"`
	PeriodID   uuid.UUID `gorm:"type:uuid;not null;index:idx_bookings_attendee_period"`
	State      string    `gorm:"not null;size:20;index"`
	Priority   int       `gorm:"not null;default:0"`
	GroupCode  string    `gorm:"size:36"`
	CostCents  *int64    `gorm:""`
	Version    int64     `gorm:"not null;default:1"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`

	Occasion *OccasionModel `gorm:"foreignKey:OccasionID"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := conn(ctx, r.db).Preload("Occasion").Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindForAttendee retrieves all bookings of an attendee within a period,
// excluding the given booking, with occasions preloaded.
func (r *GormBookingRepository) FindForAttendee(ctx context.Context, attendeeID, periodID, exclude uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := conn(ctx, r.db).
		Preload("Occasion").
		Where("attendee_id = ? AND period_id = ? AND id <> ?", attendeeID, periodID, exclude).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find attendee bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindWaitingForOccasion retrieves open and denied bookings on an occasion,
// excluding the given booking.
func (r *GormBookingRepository) FindWaitingForOccasion(ctx context.Context, occasionID, exclude uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := conn(ctx, r.db).
		Preload("Occasion").
		Where("occasion_id = ? AND id <> ? AND state IN ?", occasionID, exclude,
			[]string{string(bookingDomain.StateOpen), string(bookingDomain.StateDenied)}).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find waiting bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByOccasionID retrieves every non-cancelled booking on an occasion.
func (r *GormBookingRepository) FindByOccasionID(ctx context.Context, occasionID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := conn(ctx, r.db).
		Preload("Occasion").
		Where("occasion_id = ? AND state <> ?", occasionID, string(bookingDomain.StateCancelled)).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find occasion bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindByUsername retrieves bookings submitted by a user with pagination.
func (r *GormBookingRepository) FindByUsername(ctx context.Context, username string, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&BookingModel{}).Where("username = ?", username).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := conn(ctx, r.db).
		Preload("Occasion").
		Where("username = ?", username).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find user bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListAll retrieves bookings with pagination, optionally narrowed to one
// state (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int, state string) ([]*bookingDomain.Booking, int64, error) {
	counter := conn(ctx, r.db).Model(&BookingModel{})
	if state != "" {
		counter = counter.Where("state = ?", state)
	}
	var total int64
	if err := counter.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	query := conn(ctx, r.db).Preload("Occasion")
	if state != "" {
		query = query.Where("state = ?", state)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByState returns booking counts grouped by state (admin).
func (r *GormBookingRepository) CountByState(ctx context.Context) (map[string]int64, error) {
	type stateCount struct {
		State string
		Count int64
	}
	var results []stateCount
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Select("state, count(*) as count").
		Group("state").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by state: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.State] = sc.Count
	}
	return counts, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the version matches (current version - 1 since
	// IncrementVersion was called before the write).
	expectedVersion := bk.Version() - 1
	result := conn(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"state":      model.State,
			"priority":   model.Priority,
			"group_code": model.GroupCode,
			"cost_cents": model.CostCents,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	state, err := bookingDomain.ParseBookingState(m.State)
	if err != nil {
		return nil, err
	}

	bk := bookingDomain.ReconstructBooking(
		m.ID,
		m.Username,
		m.AttendeeID,
		m.OccasionID,
		m.PeriodID,
		state,
		m.Priority,
		m.GroupCode,
		m.CostCents,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)

	// Preloaded occasions carry schedule and limit flags for overlap checks;
	// attendance is only computed by the occasion repository.
	if m.Occasion != nil {
		bk.AttachOccasion(toDomainOccasion(m.Occasion, 0))
	}
	return bk, nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
