package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OpeningHours maps a lowercase weekday ("mon".."sun") to its window.
type OpeningHours map[string]DayWindow

type DayWindow struct {
	Open  string `json:"open"`  // HH:MM
	Close string `json:"close"` // HH:MM
}

type BranchModel struct {
	BranchID        uuid.UUID                        `gorm:"column:branch_id;type:uuid;default:gen_random_uuid();primaryKey" json:"branch_id"`
	BranchLibraryID uuid.UUID                        `gorm:"column:branch_library_id;type:uuid;not null;index" json:"branch_library_id"`
	BranchName      string                           `gorm:"column:branch_name;type:varchar(120);not null" json:"branch_name"`
	BranchSlug      string                           `gorm:"column:branch_slug;type:varchar(140);not null" json:"branch_slug"`
	BranchAddress   *string                          `gorm:"column:branch_address;type:text" json:"branch_address,omitempty"`
	BranchPhone     *string                          `gorm:"column:branch_phone;type:varchar(20)" json:"branch_phone,omitempty"`
	BranchHours     datatypes.JSONType[OpeningHours] `gorm:"column:branch_operating_hours;type:jsonb" json:"branch_operating_hours"`
	BranchAmenities pq.StringArray                   `gorm:"column:branch_amenities;type:text[]" json:"branch_amenities"`
	BranchQRToken   string                           `gorm:"column:branch_qr_token;type:varchar(64);not null;uniqueIndex" json:"-"`
	BranchQRRotated *time.Time                       `gorm:"column:branch_qr_rotated_at" json:"branch_qr_rotated_at,omitempty"`
	BranchIsActive  bool                             `gorm:"column:branch_is_active;not null;default:true" json:"branch_is_active"`

	CreatedAt time.Time      `gorm:"column:branch_created_at;autoCreateTime" json:"branch_created_at"`
	UpdatedAt time.Time      `gorm:"column:branch_updated_at;autoUpdateTime" json:"branch_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:branch_deleted_at;index" json:"-"`
}

func (BranchModel) TableName() string { return "branches" }
