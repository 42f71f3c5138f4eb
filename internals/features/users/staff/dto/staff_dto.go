package dto

import (
	"strings"

	authDTO "librarydesk_backend/internals/features/users/auth/dto"
	authModel "librarydesk_backend/internals/features/users/auth/model"
)

type StaffCreateRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email,max=160"`
	Phone    *string `json:"phone" validate:"omitempty,min=6,max=20"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Role     string  `json:"role" validate:"omitempty,oneof=owner staff"`
}

func (r *StaffCreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Phone != nil {
		p := strings.TrimSpace(*r.Phone)
		if p == "" {
			r.Phone = nil
		} else {
			r.Phone = &p
		}
	}
	if r.Role == "" {
		r.Role = "staff"
	}
}

// StaffPatchRequest: nil fields are left alone.
type StaffPatchRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,min=6,max=20"`
	Role     *string `json:"role" validate:"omitempty,oneof=owner staff"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

func (r StaffPatchRequest) ApplyToModel(u *authModel.UserModel) {
	if r.Name != nil {
		u.UserName = strings.TrimSpace(*r.Name)
	}
	if r.Phone != nil {
		u.UserPhone = r.Phone
	}
	if r.Role != nil {
		u.UserRole = *r.Role
	}
	if r.IsActive != nil {
		u.UserIsActive = *r.IsActive
	}
}

type StaffResponse = authDTO.UserResponse

func ToStaffResponses(rows []authModel.UserModel) []StaffResponse {
	out := make([]StaffResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, authDTO.ToUserResponse(r))
	}
	return out
}
