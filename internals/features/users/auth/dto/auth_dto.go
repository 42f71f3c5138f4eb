package dto

import (
	"time"

	"github.com/google/uuid"

	libraryModel "librarydesk_backend/internals/features/libraries/libraries/model"
	authModel "librarydesk_backend/internals/features/users/auth/model"
)

/* ===== Requests ===== */

// RegisterRequest creates a library together with its owner account.
type RegisterRequest struct {
	LibraryName     string  `json:"library_name" validate:"required,min=2,max=120"`
	LibraryTimezone string  `json:"library_timezone" validate:"omitempty,timezone"`
	Name            string  `json:"name" validate:"required,min=2,max=100"`
	Email           string  `json:"email" validate:"required,email,max=160"`
	Phone           *string `json:"phone" validate:"omitempty,min=6,max=20"`
	Password        string  `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest signs in with a Google ID token. LibraryName is only needed the first
// time, when the owner has no account yet.
type GoogleLoginRequest struct {
	IDToken     string `json:"id_token" validate:"required"`
	LibraryName string `json:"library_name" validate:"omitempty,min=2,max=120"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

/* ===== Responses ===== */

type UserResponse struct {
	UserID    uuid.UUID  `json:"user_id"`
	LibraryID uuid.UUID  `json:"library_id"`
	Name      string     `json:"user_name"`
	Email     string     `json:"user_email"`
	Phone     *string    `json:"user_phone,omitempty"`
	Role      string     `json:"user_role"`
	IsActive  bool       `json:"user_is_active"`
	LastLogin *time.Time `json:"user_last_login_at,omitempty"`
}

func ToUserResponse(u authModel.UserModel) UserResponse {
	return UserResponse{
		UserID:    u.UserID,
		LibraryID: u.UserLibraryID,
		Name:      u.UserName,
		Email:     u.UserEmail,
		Phone:     u.UserPhone,
		Role:      u.UserRole,
		IsActive:  u.UserIsActive,
		LastLogin: u.UserLastLogin,
	}
}

type LibraryResponse struct {
	LibraryID uuid.UUID `json:"library_id"`
	Name      string    `json:"library_name"`
	Slug      string    `json:"library_slug"`
	Timezone  string    `json:"library_timezone"`
}

func ToLibraryResponse(l libraryModel.LibraryModel) LibraryResponse {
	return LibraryResponse{LibraryID: l.LibraryID, Name: l.LibraryName, Slug: l.LibrarySlug, Timezone: l.LibraryTimezone}
}

type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        UserResponse    `json:"user"`
	Library     LibraryResponse `json:"library"`
}
