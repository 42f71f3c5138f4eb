package model

import (
	"time"

	"github.com/google/uuid"
)

type SeatModel struct {
	SeatID        uuid.UUID `gorm:"column:seat_id;type:uuid;default:gen_random_uuid();primaryKey" json:"seat_id"`
	SeatLibraryID uuid.UUID `gorm:"column:seat_library_id;type:uuid;not null;index" json:"seat_library_id"`
	SeatBranchID  uuid.UUID `gorm:"column:seat_branch_id;type:uuid;not null;uniqueIndex:uq_seat_branch_number" json:"seat_branch_id"`
	SeatNumber    string    `gorm:"column:seat_number;type:varchar(20);not null;uniqueIndex:uq_seat_branch_number" json:"seat_number"`
	SeatSection   *string   `gorm:"column:seat_section;type:varchar(60)" json:"seat_section,omitempty"`
	SeatIsActive  bool      `gorm:"column:seat_is_active;not null;default:true" json:"seat_is_active"`

	CreatedAt time.Time `gorm:"column:seat_created_at;autoCreateTime" json:"seat_created_at"`
	UpdatedAt time.Time `gorm:"column:seat_updated_at;autoUpdateTime" json:"seat_updated_at"`
}

func (SeatModel) TableName() string { return "seats" }

type LockerModel struct {
	LockerID        uuid.UUID `gorm:"column:locker_id;type:uuid;default:gen_random_uuid();primaryKey" json:"locker_id"`
	LockerLibraryID uuid.UUID `gorm:"column:locker_library_id;type:uuid;not null;index" json:"locker_library_id"`
	LockerBranchID  uuid.UUID `gorm:"column:locker_branch_id;type:uuid;not null;uniqueIndex:uq_locker_branch_number" json:"locker_branch_id"`
	LockerNumber    string    `gorm:"column:locker_number;type:varchar(20);not null;uniqueIndex:uq_locker_branch_number" json:"locker_number"`
	LockerIsActive  bool      `gorm:"column:locker_is_active;not null;default:true" json:"locker_is_active"`

	CreatedAt time.Time `gorm:"column:locker_created_at;autoCreateTime" json:"locker_created_at"`
	UpdatedAt time.Time `gorm:"column:locker_updated_at;autoUpdateTime" json:"locker_updated_at"`
}

func (LockerModel) TableName() string { return "lockers" }
