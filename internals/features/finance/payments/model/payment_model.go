package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentModel struct {
	PaymentID        uuid.UUID `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`
	PaymentLibraryID uuid.UUID `gorm:"column:payment_library_id;type:uuid;not null;index;uniqueIndex:uq_payment_invoice" json:"payment_library_id"`
	PaymentStudentID uuid.UUID `gorm:"column:payment_student_id;type:uuid;not null;index" json:"payment_student_id"`
	PaymentBranchID  uuid.UUID `gorm:"column:payment_branch_id;type:uuid;not null" json:"payment_branch_id"`

	// Exactly one target.
	PaymentSubscriptionID *uuid.UUID `gorm:"column:payment_subscription_id;type:uuid;index" json:"payment_subscription_id,omitempty"`
	PaymentFeeID          *uuid.UUID `gorm:"column:payment_additional_fee_id;type:uuid;index" json:"payment_additional_fee_id,omitempty"`

	PaymentAmount decimal.Decimal `gorm:"column:payment_amount;type:numeric(12,2);not null" json:"payment_amount"`
	PaymentMethod PaymentMethod   `gorm:"column:payment_method;type:varchar(16);not null" json:"payment_method"`
	PaymentStatus PaymentStatus   `gorm:"column:payment_status;type:varchar(24);not null;default:'pending'" json:"payment_status"`

	PaymentCollectedBy *uuid.UUID `gorm:"column:payment_collected_by;type:uuid;index" json:"payment_collected_by,omitempty"`
	PaymentVerifiedBy  *uuid.UUID `gorm:"column:payment_verified_by;type:uuid" json:"payment_verified_by,omitempty"`
	PaymentVerifiedAt  *time.Time `gorm:"column:payment_verified_at" json:"payment_verified_at,omitempty"`
	PaymentPaidAt      *time.Time `gorm:"column:payment_paid_at;index" json:"payment_paid_at,omitempty"`
	PaymentHandoverID  *uuid.UUID `gorm:"column:payment_handover_id;type:uuid;index" json:"payment_handover_id,omitempty"`

	PaymentInvoiceNumber string  `gorm:"column:payment_invoice_number;type:varchar(32);not null;uniqueIndex:uq_payment_invoice" json:"payment_invoice_number"`
	PaymentReference     *string `gorm:"column:payment_reference;type:varchar(120)" json:"payment_reference,omitempty"`
	PaymentProofURL      *string `gorm:"column:payment_proof_url;type:text" json:"payment_proof_url,omitempty"`
	PaymentExternalID    *string `gorm:"column:payment_external_id;type:varchar(80);uniqueIndex" json:"payment_external_id,omitempty"`
	PaymentCheckoutURL   *string `gorm:"column:payment_checkout_url;type:text" json:"payment_checkout_url,omitempty"`
	PaymentNote          *string `gorm:"column:payment_note;type:text" json:"payment_note,omitempty"`

	PaymentMeta datatypes.JSONMap `gorm:"column:payment_meta;type:jsonb" json:"payment_meta,omitempty"`

	CreatedAt time.Time `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	UpdatedAt time.Time `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
}

func (PaymentModel) TableName() string { return "payments" }

// Claimable reports whether a staff member may attach the payment to a new handover.
func (p PaymentModel) Claimable(staffID uuid.UUID) bool {
	return p.PaymentStatus == PaymentStatusCompleted &&
		p.PaymentMethod.HandCollected() &&
		p.PaymentCollectedBy != nil && *p.PaymentCollectedBy == staffID &&
		p.PaymentHandoverID == nil
}
