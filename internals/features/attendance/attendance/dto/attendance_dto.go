package dto

import (
	"time"

	"github.com/google/uuid"

	"librarydesk_backend/internals/features/attendance/attendance/model"
)

type Action string

const (
	ActionCheckIn   Action = "check_in"
	ActionCheckOut  Action = "check_out"
	ActionDuplicate Action = "duplicate"
)

// ScanRequest comes from the kiosk: the branch is identified by its QR token.
type ScanRequest struct {
	Token     string    `json:"token" validate:"required,max=64"`
	StudentID uuid.UUID `json:"student_id" validate:"required"`
}

type ToggleRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	BranchID  uuid.UUID `json:"branch_id" validate:"required"`
}

type ToggleResponse struct {
	Action      Action                 `json:"action"`
	StudentName string                 `json:"student_name"`
	BranchName  string                 `json:"branch_name"`
	Attendance  *model.AttendanceModel `json:"attendance,omitempty"`
	// Closed is the visit ended at another branch or on an earlier day before this check-in.
	Closed *model.AttendanceModel `json:"closed,omitempty"`
}

type ListQuery struct {
	Date      string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	BranchID  string `query:"branch_id" validate:"omitempty,uuid"`
	StudentID string `query:"student_id" validate:"omitempty,uuid"`
	OpenOnly  bool   `query:"open"`
}

type AttendanceRow struct {
	model.AttendanceModel
	StudentName string `json:"student_name" gorm:"column:student_name"`
	BranchName  string `json:"branch_name" gorm:"column:branch_name"`
	Minutes     int    `json:"minutes_spent" gorm:"-"`
}

// VisitMinutes is the visit length so far; open visits count up to now.
func (r AttendanceRow) VisitMinutes(now time.Time) int {
	end := now
	if r.AttendanceCheckOut != nil {
		end = *r.AttendanceCheckOut
	}
	if end.Before(r.AttendanceCheckIn) {
		return 0
	}
	return int(end.Sub(r.AttendanceCheckIn) / time.Minute)
}

type AttendanceListResponse struct {
	Attendance []AttendanceRow `json:"attendance"`
	Total      int64           `json:"total"`
	Present    int64           `json:"present"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}
