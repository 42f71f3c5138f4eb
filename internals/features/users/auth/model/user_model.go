package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"librarydesk_backend/internals/constants"
)

// UserModel covers owners and desk staff of one library.
type UserModel struct {
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey" json:"user_id"`
	UserLibraryID uuid.UUID  `gorm:"column:user_library_id;type:uuid;not null;index" json:"user_library_id"`
	UserName      string     `gorm:"column:user_name;type:varchar(100);not null" json:"user_name"`
	UserEmail     string     `gorm:"column:user_email;type:varchar(160);not null;uniqueIndex" json:"user_email"`
	UserPhone     *string    `gorm:"column:user_phone;type:varchar(20)" json:"user_phone,omitempty"`
	UserPassword  string     `gorm:"column:user_password;type:text" json:"-"`
	UserGoogleID  *string    `gorm:"column:user_google_id;type:varchar(64)" json:"-"`
	UserRole      string     `gorm:"column:user_role;type:varchar(16);not null;default:'staff'" json:"user_role"`
	UserIsActive  bool       `gorm:"column:user_is_active;not null;default:true" json:"user_is_active"`
	UserLastLogin *time.Time `gorm:"column:user_last_login_at" json:"user_last_login_at,omitempty"`

	CreatedAt time.Time `gorm:"column:user_created_at;autoCreateTime" json:"user_created_at"`
	UpdatedAt time.Time `gorm:"column:user_updated_at;autoUpdateTime" json:"user_updated_at"`
}

func (UserModel) TableName() string { return "users" }

func (u *UserModel) SetPassword(raw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.UserPassword = string(hash)
	return nil
}

func (u *UserModel) CheckPassword(raw string) bool {
	if u.UserPassword == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.UserPassword), []byte(raw)) == nil
}

func (u *UserModel) IsOwner() bool { return u.UserRole == constants.RoleOwner }
