package model

import (
	"time"

	"github.com/google/uuid"
)

// LibraryModel is the tenant. Every other row carries its library_id.
type LibraryModel struct {
	LibraryID       uuid.UUID `gorm:"column:library_id;type:uuid;default:gen_random_uuid();primaryKey" json:"library_id"`
	LibraryName     string    `gorm:"column:library_name;type:varchar(120);not null" json:"library_name"`
	LibrarySlug     string    `gorm:"column:library_slug;type:varchar(140);not null;uniqueIndex" json:"library_slug"`
	LibraryTimezone string    `gorm:"column:library_timezone;type:varchar(64);not null;default:'Asia/Kolkata'" json:"library_timezone"`
	LibraryPhone    *string   `gorm:"column:library_phone;type:varchar(20)" json:"library_phone,omitempty"`
	LibraryEmail    *string   `gorm:"column:library_email;type:varchar(160)" json:"library_email,omitempty"`

	CreatedAt time.Time `gorm:"column:library_created_at;autoCreateTime" json:"library_created_at"`
	UpdatedAt time.Time `gorm:"column:library_updated_at;autoUpdateTime" json:"library_updated_at"`
}

func (LibraryModel) TableName() string { return "libraries" }

// Location falls back to UTC when the stored zone is unknown.
func (l LibraryModel) Location() *time.Location {
	if loc, err := time.LoadLocation(l.LibraryTimezone); err == nil {
		return loc
	}
	return time.UTC
}
