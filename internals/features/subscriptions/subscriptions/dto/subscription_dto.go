package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	studentDTO "librarydesk_backend/internals/features/students/students/dto"
)

type CreateRequest struct {
	StudentID uuid.UUID        `json:"student_id" validate:"required"`
	BranchID  uuid.UUID        `json:"branch_id" validate:"required"`
	PlanID    uuid.UUID        `json:"plan_id" validate:"required"`
	SeatID    *uuid.UUID       `json:"seat_id"`
	LockerID  *uuid.UUID       `json:"locker_id"`
	StartDate string           `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	Amount    *decimal.Decimal `json:"amount"`
}

type RenewRequest struct {
	PlanID     *uuid.UUID       `json:"plan_id"`
	KeepSeat   *bool            `json:"keep_seat"`
	KeepLocker *bool            `json:"keep_locker"`
	Amount     *decimal.Decimal `json:"amount"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// AssignRequest moves a subscription to another seat or locker; null releases it.
type AssignRequest struct {
	ID *uuid.UUID `json:"id"`
}

// SubscriptionResponse is the aggregate returned by every mutation so clients can merge it
// without reloading.
type SubscriptionResponse struct {
	studentDTO.SubscriptionBrief
	StudentID   uuid.UUID  `json:"student_id"`
	StudentName string     `json:"student_name"`
	BranchID    uuid.UUID  `json:"branch_id"`
	PlanID      uuid.UUID  `json:"plan_id"`
	SeatID      *uuid.UUID `json:"seat_id,omitempty"`
	LockerID    *uuid.UUID `json:"locker_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type SweepResult struct {
	Activated int64 `json:"activated"`
	Expired   int64 `json:"expired"`
}
