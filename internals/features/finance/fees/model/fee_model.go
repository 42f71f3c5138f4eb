package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FeeStatus string

const (
	FeeUnpaid FeeStatus = "unpaid"
	FeePaid   FeeStatus = "paid"
)

type AdditionalFeeModel struct {
	FeeID        uuid.UUID       `gorm:"column:fee_id;type:uuid;default:gen_random_uuid();primaryKey" json:"fee_id"`
	FeeLibraryID uuid.UUID       `gorm:"column:fee_library_id;type:uuid;not null;index" json:"fee_library_id"`
	FeeStudentID uuid.UUID       `gorm:"column:fee_student_id;type:uuid;not null;index" json:"fee_student_id"`
	FeeBranchID  uuid.UUID       `gorm:"column:fee_branch_id;type:uuid;not null" json:"fee_branch_id"`
	FeeTitle     string          `gorm:"column:fee_title;type:varchar(120);not null" json:"fee_title"`
	FeeAmount    decimal.Decimal `gorm:"column:fee_amount;type:numeric(12,2);not null" json:"fee_amount"`
	FeeStatus    FeeStatus       `gorm:"column:fee_status;type:varchar(8);not null;default:'unpaid'" json:"fee_status"`
	FeeDueDate   *time.Time      `gorm:"column:fee_due_date;type:date" json:"fee_due_date,omitempty"`

	CreatedAt time.Time `gorm:"column:fee_created_at;autoCreateTime" json:"fee_created_at"`
	UpdatedAt time.Time `gorm:"column:fee_updated_at;autoUpdateTime" json:"fee_updated_at"`
}

func (AdditionalFeeModel) TableName() string { return "additional_fees" }
