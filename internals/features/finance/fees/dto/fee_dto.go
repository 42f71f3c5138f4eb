package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"librarydesk_backend/internals/features/finance/fees/model"
	"librarydesk_backend/internals/helpers/apperror"
)

type FeeCreateRequest struct {
	Title    string          `json:"title" validate:"required,min=2,max=120"`
	Amount   decimal.Decimal `json:"amount"`
	BranchID *uuid.UUID      `json:"branch_id"`
	DueDate  string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r *FeeCreateRequest) Check() error {
	if !r.Amount.IsPositive() {
		return apperror.Validation("invalid amount", "amount", "must be greater than zero")
	}
	return nil
}

func (r FeeCreateRequest) ToModel(libraryID, studentID, branchID uuid.UUID, loc *time.Location) model.AdditionalFeeModel {
	m := model.AdditionalFeeModel{
		FeeLibraryID: libraryID,
		FeeStudentID: studentID,
		FeeBranchID:  branchID,
		FeeTitle:     strings.TrimSpace(r.Title),
		FeeAmount:    r.Amount.Round(2),
		FeeStatus:    model.FeeUnpaid,
	}
	if r.DueDate != "" {
		if t, err := time.ParseInLocation("2006-01-02", r.DueDate, loc); err == nil {
			m.FeeDueDate = &t
		}
	}
	return m
}

type FeeListResponse struct {
	Fees        []model.AdditionalFeeModel `json:"fees"`
	UnpaidTotal string                     `json:"unpaid_total"`
}

func ToFeeList(rows []model.AdditionalFeeModel) FeeListResponse {
	total := decimal.Zero
	for _, f := range rows {
		if f.FeeStatus == model.FeeUnpaid {
			total = total.Add(f.FeeAmount)
		}
	}
	if rows == nil {
		rows = []model.AdditionalFeeModel{}
	}
	return FeeListResponse{Fees: rows, UnpaidTotal: total.StringFixed(2)}
}
