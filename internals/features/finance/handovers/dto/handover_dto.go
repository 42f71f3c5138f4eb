package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"librarydesk_backend/internals/features/finance/handovers/ledger"
	"librarydesk_backend/internals/features/finance/handovers/model"
)

type SubmitRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method" validate:"required,oneof=cash upi bank_transfer"`
	Notes         *string         `json:"notes" validate:"omitempty,max=1000"`
	AttachmentURL *string         `json:"attachment_url" validate:"omitempty,url"`
	PaymentIDs    []uuid.UUID     `json:"payment_ids" validate:"omitempty,max=500"`
}

func (r *SubmitRequest) Normalize() {
	r.Method = strings.ToLower(strings.TrimSpace(r.Method))
	if r.Notes != nil {
		n := strings.TrimSpace(*r.Notes)
		if n == "" {
			r.Notes = nil
		} else {
			r.Notes = &n
		}
	}
	seen := map[uuid.UUID]bool{}
	ids := r.PaymentIDs[:0]
	for _, id := range r.PaymentIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	r.PaymentIDs = ids
}

type ReviewRequest struct {
	Note string `json:"note" validate:"omitempty,max=500"`
}

// PeriodQuery selects a staff member's month. Staff may only read their own book.
type PeriodQuery struct {
	Month   string `query:"month" validate:"omitempty,datetime=2006-01"`
	StaffID string `query:"staff_id" validate:"omitempty,uuid"`
}

type ListQuery struct {
	PeriodQuery
	Status string `query:"status" validate:"omitempty,oneof=pending verified rejected"`
}

type HandoverRow struct {
	model.CashHandoverModel
	StaffName    string  `json:"staff_name" gorm:"column:staff_name"`
	ReviewerName *string `json:"reviewer_name,omitempty" gorm:"column:reviewer_name"`
}

type SummaryResponse struct {
	StaffID   uuid.UUID `json:"staff_id"`
	StaffName string    `json:"staff_name"`
	Month     string    `json:"month"`
	ledger.Summary
}

type TransactionsResponse struct {
	StaffID uuid.UUID      `json:"staff_id"`
	Month   string         `json:"month"`
	Opening string         `json:"opening_balance"`
	Entries []ledger.Entry `json:"entries"`
}

func MonthLabel(start time.Time) string { return start.Format("2006-01") }
