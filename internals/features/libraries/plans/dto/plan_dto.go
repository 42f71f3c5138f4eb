package dto

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"librarydesk_backend/internals/features/libraries/plans/model"
	"librarydesk_backend/internals/helpers/apperror"
)

type PlanCreateRequest struct {
	Name           string          `json:"name" validate:"required,min=2,max=120"`
	DurationDays   int             `json:"duration_days" validate:"required,min=1,max=730"`
	Price          decimal.Decimal `json:"price"`
	IncludesLocker bool            `json:"includes_locker"`
	HoursPerDay    *int            `json:"hours_per_day" validate:"omitempty,min=1,max=24"`
}

func (r PlanCreateRequest) Check() error {
	if r.Price.IsNegative() {
		return apperror.Validation("invalid price", "price", "must not be negative")
	}
	return nil
}

func (r PlanCreateRequest) ToModel(libraryID uuid.UUID) *model.PlanModel {
	return &model.PlanModel{
		PlanLibraryID:      libraryID,
		PlanName:           strings.TrimSpace(r.Name),
		PlanDurationDays:   r.DurationDays,
		PlanPrice:          r.Price.Round(2),
		PlanIncludesLocker: r.IncludesLocker,
		PlanHoursPerDay:    r.HoursPerDay,
		PlanIsActive:       true,
	}
}

type PlanPatchRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=2,max=120"`
	DurationDays   *int             `json:"duration_days" validate:"omitempty,min=1,max=730"`
	Price          *decimal.Decimal `json:"price"`
	IncludesLocker *bool            `json:"includes_locker"`
	HoursPerDay    *int             `json:"hours_per_day" validate:"omitempty,min=1,max=24"`
	IsActive       *bool            `json:"is_active"`
}

func (r PlanPatchRequest) Check() error {
	if r.Price != nil && r.Price.IsNegative() {
		return apperror.Validation("invalid price", "price", "must not be negative")
	}
	return nil
}

// ApplyToModel: existing subscriptions keep the amount they were sold at.
func (r PlanPatchRequest) ApplyToModel(m *model.PlanModel) {
	if r.Name != nil {
		m.PlanName = strings.TrimSpace(*r.Name)
	}
	if r.DurationDays != nil {
		m.PlanDurationDays = *r.DurationDays
	}
	if r.Price != nil {
		m.PlanPrice = r.Price.Round(2)
	}
	if r.IncludesLocker != nil {
		m.PlanIncludesLocker = *r.IncludesLocker
	}
	if r.HoursPerDay != nil {
		m.PlanHoursPerDay = r.HoursPerDay
	}
	if r.IsActive != nil {
		m.PlanIsActive = *r.IsActive
	}
}
