package dto

import (
	"github.com/shopspring/decimal"

	"librarydesk_backend/internals/features/students/status"
)

type SummaryQuery struct {
	BranchID string `query:"branch_id" validate:"omitempty,uuid"`
}

type RevenueQuery struct {
	Months int `query:"months" validate:"omitempty,min=1,max=24"`
}

type SeatUsage struct {
	Total    int64 `json:"total"`
	Occupied int64 `json:"occupied"`
	Free     int64 `json:"free"`
}

type PendingAmount struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type SummaryResponse struct {
	Students             map[status.Status]int64 `json:"students"`
	CheckInsToday        int64                   `json:"check_ins_today"`
	MonthRevenue         decimal.Decimal         `json:"month_revenue"`
	MonthPayments        int64                   `json:"month_payments"`
	PendingVerifications int64                   `json:"pending_verifications"`
	PendingHandovers     PendingAmount           `json:"pending_handovers"`
	Seats                SeatUsage               `json:"seats"`
}

// RevenuePoint is one month of completed payments, split by method.
type RevenuePoint struct {
	Month    string                     `json:"month"`
	Total    decimal.Decimal            `json:"total"`
	Count    int64                      `json:"count"`
	ByMethod map[string]decimal.Decimal `json:"by_method"`
}
