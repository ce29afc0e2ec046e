package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campbook/service-booking/internal/domain"
	bookingDomain "github.com/campbook/service-booking/internal/domain/booking"
)

// PeriodModel is the GORM model for the periods table.
type PeriodModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title        string    `gorm:"not null;size:255"`
	Confirmed    bool      `gorm:"not null;default:false"`
	BookingLimit *int      `gorm:""`
	AllInclusive bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for the GORM model.
func (PeriodModel) TableName() string {
	return "periods"
}

// AttendeeModel is the GORM model for the attendees table.
type AttendeeModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username string    `gorm:"not null;size:255;index"`
	Name     string    `gorm:"not null;size:255"`
	Limit    *int      `gorm:"column:booking_limit"`
}

// TableName returns the table name for the GORM model.
func (AttendeeModel) TableName() string {
	return "attendees"
}

// GormPeriodRepository is the GORM-based implementation of PeriodRepository.
type GormPeriodRepository struct {
	db *gorm.DB
}

// NewGormPeriodRepository creates a new GormPeriodRepository.
func NewGormPeriodRepository(db *gorm.DB) *GormPeriodRepository {
	return &GormPeriodRepository{db: db}
}

// FindByID retrieves a period by its unique identifier.
func (r *GormPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Period, error) {
	var model PeriodModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Period", id.String())
		}
		return nil, fmt.Errorf("failed to find period by ID: %w", err)
	}

	return &bookingDomain.Period{
		ID:           model.ID,
		Title:        model.Title,
		Confirmed:    model.Confirmed,
		BookingLimit: model.BookingLimit,
		AllInclusive: model.AllInclusive,
	}, nil
}

// GormAttendeeRepository is the GORM-based implementation of AttendeeRepository.
type GormAttendeeRepository struct {
	db *gorm.DB
}

// NewGormAttendeeRepository creates a new GormAttendeeRepository.
func NewGormAttendeeRepository(db *gorm.DB) *GormAttendeeRepository {
	return &GormAttendeeRepository{db: db}
}

// FindByID retrieves an attendee by its unique identifier.
func (r *GormAttendeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Attendee, error) {
	var model AttendeeModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Attendee", id.String())
		}
		return nil, fmt.Errorf("failed to find attendee by ID: %w", err)
	}

	return &bookingDomain.Attendee{
		ID:       model.ID,
		Username: model.Username,
		Name:     model.Name,
		Limit:    model.Limit,
	}, nil
}
