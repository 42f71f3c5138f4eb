package model

import (
	"time"

	"github.com/google/uuid"
)

type IDVerificationStatus string

const (
	IDVerificationNone     IDVerificationStatus = "none"
	IDVerificationPending  IDVerificationStatus = "pending"
	IDVerificationVerified IDVerificationStatus = "verified"
	IDVerificationRejected IDVerificationStatus = "rejected"
)

// StudentModel is owned by one library. Email and phone are unique per library.
type StudentModel struct {
	StudentID        uuid.UUID  `gorm:"column:student_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_id"`
	StudentLibraryID uuid.UUID  `gorm:"column:student_library_id;type:uuid;not null;index" json:"student_library_id"`
	StudentBranchID  *uuid.UUID `gorm:"column:student_branch_id;type:uuid;index" json:"student_branch_id,omitempty"`

	StudentName         string     `gorm:"column:student_name;type:varchar(120);not null" json:"student_name"`
	StudentEmail        *string    `gorm:"column:student_email;type:varchar(160)" json:"student_email,omitempty"`
	StudentPhone        *string    `gorm:"column:student_phone;type:varchar(20)" json:"student_phone,omitempty"`
	StudentGender       *string    `gorm:"column:student_gender;type:varchar(10)" json:"student_gender,omitempty"`
	StudentAddress      *string    `gorm:"column:student_address;type:text" json:"student_address,omitempty"`
	StudentGuardianName *string    `gorm:"column:student_guardian_name;type:varchar(120)" json:"student_guardian_name,omitempty"`
	StudentDateOfBirth  *time.Time `gorm:"column:student_date_of_birth;type:date" json:"student_date_of_birth,omitempty"`

	StudentIsBlocked     bool    `gorm:"column:student_is_blocked;not null;default:false" json:"student_is_blocked"`
	StudentBlockedReason *string `gorm:"column:student_blocked_reason;type:text" json:"student_blocked_reason,omitempty"`

	StudentIDStatus      IDVerificationStatus `gorm:"column:student_id_verification_status;type:varchar(10);not null;default:'none'" json:"student_id_verification_status"`
	StudentIDDocumentURL *string              `gorm:"column:student_id_document_url;type:text" json:"student_id_document_url,omitempty"`
	StudentIDVerifiedBy  *uuid.UUID           `gorm:"column:student_id_verified_by;type:uuid" json:"student_id_verified_by,omitempty"`
	StudentIDVerifiedAt  *time.Time           `gorm:"column:student_id_verified_at" json:"student_id_verified_at,omitempty"`

	CreatedAt time.Time `gorm:"column:student_created_at;autoCreateTime" json:"student_created_at"`
	UpdatedAt time.Time `gorm:"column:student_updated_at;autoUpdateTime" json:"student_updated_at"`
}

func (StudentModel) TableName() string { return "students" }
