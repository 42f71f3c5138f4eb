package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type HandoverStatus string
type HandoverMethod string

const (
	HandoverPending  HandoverStatus = "pending"
	HandoverVerified HandoverStatus = "verified"
	HandoverRejected HandoverStatus = "rejected"
)

const (
	HandoverCash         HandoverMethod = "cash"
	HandoverUPI          HandoverMethod = "upi"
	HandoverBankTransfer HandoverMethod = "bank_transfer"
)

// CashHandoverModel is one khatabook entry: staff moving collected money out of their custody.
type CashHandoverModel struct {
	HandoverID         uuid.UUID       `gorm:"column:handover_id;type:uuid;default:gen_random_uuid();primaryKey" json:"handover_id"`
	HandoverLibraryID  uuid.UUID       `gorm:"column:handover_library_id;type:uuid;not null;index" json:"handover_library_id"`
	HandoverStaffID    uuid.UUID       `gorm:"column:handover_staff_id;type:uuid;not null;index" json:"handover_staff_id"`
	HandoverAmount     decimal.Decimal `gorm:"column:handover_amount;type:numeric(12,2);not null" json:"handover_amount"`
	HandoverMethod     HandoverMethod  `gorm:"column:handover_method;type:varchar(16);not null" json:"handover_method"`
	HandoverStatus     HandoverStatus  `gorm:"column:handover_status;type:varchar(10);not null;default:'pending'" json:"handover_status"`
	HandoverNotes      *string         `gorm:"column:handover_notes;type:text" json:"handover_notes,omitempty"`
	HandoverAttachment *string         `gorm:"column:handover_attachment_url;type:text" json:"handover_attachment_url,omitempty"`
	HandoverPaymentIDs pq.StringArray  `gorm:"column:handover_payment_ids;type:text[]" json:"handover_payment_ids"`
	HandoverReviewedBy *uuid.UUID      `gorm:"column:handover_reviewed_by;type:uuid" json:"handover_reviewed_by,omitempty"`
	HandoverReviewedAt *time.Time      `gorm:"column:handover_reviewed_at" json:"handover_reviewed_at,omitempty"`
	HandoverReviewNote *string         `gorm:"column:handover_review_note;type:text" json:"handover_review_note,omitempty"`

	CreatedAt time.Time `gorm:"column:handover_created_at;autoCreateTime;index" json:"handover_created_at"`
	UpdatedAt time.Time `gorm:"column:handover_updated_at;autoUpdateTime" json:"handover_updated_at"`
}

func (CashHandoverModel) TableName() string { return "cash_handovers" }
