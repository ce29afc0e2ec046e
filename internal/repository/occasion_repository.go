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

// OccasionModel is the GORM model for the occasions table.
type OccasionModel struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey"`
	ActivityTitle          string    `gorm:"not null;size:255"`
	PeriodID               uuid.UUID `gorm:"type:uuid;not null;index"`
	StartsAt               time.Time `gorm:"not null"`
	EndsAt                 time.Time `gorm:"not null"`
	Capacity               int       `gorm:"not null"`
	ExemptFromBookingLimit bool      `gorm:"not null;default:false"`
	TotalCostCents         int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for the GORM model.
func (OccasionModel) TableName() string {
	return "occasions"
}

// GormOccasionRepository is the GORM-based implementation of OccasionRepository.
type GormOccasionRepository struct {
	db *gorm.DB
}

// NewGormOccasionRepository creates a new GormOccasionRepository.
func NewGormOccasionRepository(db *gorm.DB) *GormOccasionRepository {
	return &GormOccasionRepository{db: db}
}

// FindByID retrieves an occasion with its attendance recomputed from the
// booking table, so capacity checks made after a booking write see it.
func (r *GormOccasionRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Occasion, error) {
	var model OccasionModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Occasion", id.String())
		}
		return nil, fmt.Errorf("failed to find occasion by ID: %w", err)
	}

	var attendance int64
	if err := conn(ctx, r.db).Model(&BookingModel{}).
		Where("occasion_id = ? AND state = ?", id, string(bookingDomain.StateAccepted)).
		Count(&attendance).Error; err != nil {
		return nil, fmt.Errorf("failed to count occasion attendance: %w", err)
	}

	return toDomainOccasion(&model, int(attendance)), nil
}

func toDomainOccasion(m *OccasionModel, attendance int) *bookingDomain.Occasion {
	return &bookingDomain.Occasion{
		ID:                     m.ID,
		ActivityTitle:          m.ActivityTitle,
		PeriodID:               m.PeriodID,
		StartsAt:               m.StartsAt,
		EndsAt:                 m.EndsAt,
		Capacity:               m.Capacity,
		Attendance:             attendance,
		ExemptFromBookingLimit: m.ExemptFromBookingLimit,
		TotalCostCents:         m.TotalCostCents,
	}
}
