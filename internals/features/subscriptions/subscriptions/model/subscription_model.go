package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type SubscriptionModel struct {
	SubscriptionID        uuid.UUID          `gorm:"column:subscription_id;type:uuid;default:gen_random_uuid();primaryKey" json:"subscription_id"`
	SubscriptionLibraryID uuid.UUID          `gorm:"column:subscription_library_id;type:uuid;not null;index" json:"subscription_library_id"`
	SubscriptionStudentID uuid.UUID          `gorm:"column:subscription_student_id;type:uuid;not null;index" json:"subscription_student_id"`
	SubscriptionBranchID  uuid.UUID          `gorm:"column:subscription_branch_id;type:uuid;not null;index" json:"subscription_branch_id"`
	SubscriptionPlanID    uuid.UUID          `gorm:"column:subscription_plan_id;type:uuid;not null" json:"subscription_plan_id"`
	SubscriptionSeatID    *uuid.UUID         `gorm:"column:subscription_seat_id;type:uuid;index" json:"subscription_seat_id,omitempty"`
	SubscriptionLockerID  *uuid.UUID         `gorm:"column:subscription_locker_id;type:uuid;index" json:"subscription_locker_id,omitempty"`
	SubscriptionStatus    SubscriptionStatus `gorm:"column:subscription_status;type:varchar(12);not null;default:'active'" json:"subscription_status"`
	SubscriptionStartDate time.Time          `gorm:"column:subscription_start_date;not null" json:"subscription_start_date"`
	SubscriptionEndDate   time.Time          `gorm:"column:subscription_end_date;not null" json:"subscription_end_date"`
	SubscriptionAmount    decimal.Decimal    `gorm:"column:subscription_amount;type:numeric(12,2);not null" json:"subscription_amount"`
	SubscriptionCreatedBy *uuid.UUID         `gorm:"column:subscription_created_by;type:uuid" json:"subscription_created_by,omitempty"`

	CreatedAt time.Time `gorm:"column:subscription_created_at;autoCreateTime" json:"subscription_created_at"`
	UpdatedAt time.Time `gorm:"column:subscription_updated_at;autoUpdateTime" json:"subscription_updated_at"`
}

func (SubscriptionModel) TableName() string { return "subscriptions" }

// IsLive reports an active subscription whose end has not passed.
func (s SubscriptionModel) IsLive(now time.Time) bool {
	return s.SubscriptionStatus == SubscriptionActive && !s.SubscriptionEndDate.Before(now)
}

// Occupies reports whether the row still holds its seat/locker in [from, to).
func (s SubscriptionModel) Occupies(from, to time.Time) bool {
	if s.SubscriptionStatus != SubscriptionActive && s.SubscriptionStatus != SubscriptionPending {
		return false
	}
	return s.SubscriptionStartDate.Before(to) && s.SubscriptionEndDate.After(from)
}
