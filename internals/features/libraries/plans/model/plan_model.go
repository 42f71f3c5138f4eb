package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PlanModel struct {
	PlanID             uuid.UUID       `gorm:"column:plan_id;type:uuid;default:gen_random_uuid();primaryKey" json:"plan_id"`
	PlanLibraryID      uuid.UUID       `gorm:"column:plan_library_id;type:uuid;not null;index" json:"plan_library_id"`
	PlanName           string          `gorm:"column:plan_name;type:varchar(120);not null" json:"plan_name"`
	PlanDurationDays   int             `gorm:"column:plan_duration_days;not null" json:"plan_duration_days"`
	PlanPrice          decimal.Decimal `gorm:"column:plan_price;type:numeric(12,2);not null" json:"plan_price"`
	PlanIncludesLocker bool            `gorm:"column:plan_includes_locker;not null;default:false" json:"plan_includes_locker"`
	PlanHoursPerDay    *int            `gorm:"column:plan_hours_per_day" json:"plan_hours_per_day,omitempty"`
	PlanIsActive       bool            `gorm:"column:plan_is_active;not null;default:true" json:"plan_is_active"`

	CreatedAt time.Time `gorm:"column:plan_created_at;autoCreateTime" json:"plan_created_at"`
	UpdatedAt time.Time `gorm:"column:plan_updated_at;autoUpdateTime" json:"plan_updated_at"`
}

func (PlanModel) TableName() string { return "plans" }
