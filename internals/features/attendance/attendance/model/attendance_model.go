package model

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceModel is one visit. An open visit has no check-out.
type AttendanceModel struct {
	AttendanceID        uuid.UUID  `gorm:"column:attendance_id;type:uuid;default:gen_random_uuid();primaryKey" json:"attendance_id"`
	AttendanceLibraryID uuid.UUID  `gorm:"column:attendance_library_id;type:uuid;not null;index" json:"attendance_library_id"`
	AttendanceBranchID  uuid.UUID  `gorm:"column:attendance_branch_id;type:uuid;not null;index" json:"attendance_branch_id"`
	AttendanceStudentID uuid.UUID  `gorm:"column:attendance_student_id;type:uuid;not null;index" json:"attendance_student_id"`
	AttendanceCheckIn   time.Time  `gorm:"column:attendance_check_in_at;not null" json:"attendance_check_in_at"`
	AttendanceCheckOut  *time.Time `gorm:"column:attendance_check_out_at" json:"attendance_check_out_at,omitempty"`
	AttendanceSource    string     `gorm:"column:attendance_source;type:varchar(8);not null;default:'desk'" json:"attendance_source"`
}

func (AttendanceModel) TableName() string { return "attendance" }

func (a AttendanceModel) IsOpen() bool { return a.AttendanceCheckOut == nil }
