package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"librarydesk_backend/internals/features/finance/payments/model"
	"librarydesk_backend/internals/helpers/apperror"
)

// RecordRequest is accepted as JSON or multipart (with a "proof" file for bank transfers).
type RecordRequest struct {
	StudentID      uuid.UUID        `json:"student_id" form:"student_id" validate:"required"`
	SubscriptionID *uuid.UUID       `json:"subscription_id" form:"subscription_id"`
	FeeID          *uuid.UUID       `json:"additional_fee_id" form:"additional_fee_id"`
	Amount         *decimal.Decimal `json:"amount" form:"amount"`
	Method         string           `json:"method" form:"method" validate:"required,oneof=cash upi card bank_transfer online"`
	Reference      *string          `json:"reference" form:"reference" validate:"omitempty,max=120"`
	ProofURL       *string          `json:"proof_url" form:"proof_url" validate:"omitempty,url"`
	Note           *string          `json:"note" form:"note" validate:"omitempty,max=1000"`
}

func (r *RecordRequest) Normalize() {
	r.Method = strings.ToLower(strings.TrimSpace(r.Method))
	r.Reference = trimPtr(r.Reference)
	r.ProofURL = trimPtr(r.ProofURL)
	r.Note = trimPtr(r.Note)
}

// Check enforces a single target and a positive amount when one is given.
func (r *RecordRequest) Check() error {
	if (r.SubscriptionID == nil) == (r.FeeID == nil) {
		return apperror.Validation("payment needs one target",
			"subscription_id", "give exactly one of subscription_id or additional_fee_id")
	}
	if r.Amount != nil && !r.Amount.IsPositive() {
		return apperror.Validation("invalid amount", "amount", "must be greater than zero")
	}
	return nil
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// ListQuery filters the payments list and the CSV export.
type ListQuery struct {
	Status      string `query:"status" validate:"omitempty,oneof=pending completed failed pending_verification"`
	Method      string `query:"method" validate:"omitempty,oneof=cash upi card bank_transfer online"`
	StudentID   string `query:"student_id" validate:"omitempty,uuid"`
	BranchID    string `query:"branch_id" validate:"omitempty,uuid"`
	CollectedBy string `query:"collected_by" validate:"omitempty,uuid"`
	From        string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To          string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Search      string `query:"search" validate:"omitempty,max=100"`
}

// PaymentRow is a payment joined with the names a desk needs to read it.
type PaymentRow struct {
	model.PaymentModel
	StudentName     string  `json:"student_name" gorm:"column:student_name"`
	BranchName      string  `json:"branch_name" gorm:"column:branch_name"`
	CollectedByName *string `json:"collected_by_name,omitempty" gorm:"column:collected_by_name"`
}

type PaymentListResponse struct {
	Payments []PaymentRow `json:"payments"`
	Total    int64        `json:"total"`
	Sum      string       `json:"sum"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
}

// RecordResponse carries the snap token for online payments.
type RecordResponse struct {
	Payment     model.PaymentModel `json:"payment"`
	SnapToken   *string            `json:"snap_token,omitempty"`
	CheckoutURL *string            `json:"checkout_url,omitempty"`
}

// Invoice is the printable view of one payment.
type Invoice struct {
	InvoiceNumber string     `json:"invoice_number"`
	Status        string     `json:"status"`
	LibraryName   string     `json:"library_name"`
	BranchName    string     `json:"branch_name"`
	BranchAddress *string    `json:"branch_address,omitempty"`
	StudentName   string     `json:"student_name"`
	StudentEmail  *string    `json:"student_email,omitempty"`
	StudentPhone  *string    `json:"student_phone,omitempty"`
	Description   string     `json:"description"`
	PeriodStart   *time.Time `json:"period_start,omitempty"`
	PeriodEnd     *time.Time `json:"period_end,omitempty"`
	Amount        string     `json:"amount"`
	Method        string     `json:"method"`
	Reference     *string    `json:"reference,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CollectedBy   *string    `json:"collected_by,omitempty"`
	IssuedAt      time.Time  `json:"issued_at"`
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
