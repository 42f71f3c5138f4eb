package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"librarydesk_backend/internals/features/students/students/model"
	"librarydesk_backend/internals/helpers/apperror"
	"librarydesk_backend/internals/helpers/dbtime"
)

/* ===== Requests ===== */

type StudentCreateRequest struct {
	Name         string     `json:"name" validate:"required,min=2,max=120"`
	Email        *string    `json:"email" validate:"omitempty,email,max=160"`
	Phone        *string    `json:"phone" validate:"omitempty,min=6,max=20"`
	BranchID     *uuid.UUID `json:"branch_id"`
	Gender       *string    `json:"gender" validate:"omitempty,oneof=male female other"`
	Address      *string    `json:"address" validate:"omitempty,max=500"`
	GuardianName *string    `json:"guardian_name" validate:"omitempty,max=120"`
	DateOfBirth  *string    `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

func lowerPtr(p *string) *string {
	if p = trimPtr(p); p != nil {
		s := strings.ToLower(*p)
		return &s
	}
	return nil
}

func (r *StudentCreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = lowerPtr(r.Email)
	r.Phone = trimPtr(r.Phone)
	r.Gender = lowerPtr(r.Gender)
	r.Address = trimPtr(r.Address)
	r.GuardianName = trimPtr(r.GuardianName)
}

// Check enforces rules the tags cannot express.
func (r StudentCreateRequest) Check() error {
	if r.Email == nil && r.Phone == nil {
		return apperror.Validation("email or phone is required", "email", "email or phone is required", "phone", "email or phone is required")
	}
	return nil
}

func (r StudentCreateRequest) ToModel(libraryID uuid.UUID) (*model.StudentModel, error) {
	m := &model.StudentModel{
		StudentLibraryID:    libraryID,
		StudentBranchID:     r.BranchID,
		StudentName:         r.Name,
		StudentEmail:        r.Email,
		StudentPhone:        r.Phone,
		StudentGender:       r.Gender,
		StudentAddress:      r.Address,
		StudentGuardianName: r.GuardianName,
		StudentIDStatus:     model.IDVerificationNone,
	}
	if r.DateOfBirth != nil {
		d, err := dbtime.ParseDate(*r.DateOfBirth, time.UTC)
		if err != nil {
			return nil, apperror.Validation("invalid date of birth", "date_of_birth", err.Error())
		}
		m.StudentDateOfBirth = &d
	}
	return m, nil
}

type StudentPatchRequest struct {
	Name         *string    `json:"name" validate:"omitempty,min=2,max=120"`
	Email        *string    `json:"email" validate:"omitempty,email,max=160"`
	Phone        *string    `json:"phone" validate:"omitempty,min=6,max=20"`
	BranchID     *uuid.UUID `json:"branch_id"`
	Gender       *string    `json:"gender" validate:"omitempty,oneof=male female other"`
	Address      *string    `json:"address" validate:"omitempty,max=500"`
	GuardianName *string    `json:"guardian_name" validate:"omitempty,max=120"`
	DateOfBirth  *string    `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

func (r StudentPatchRequest) ApplyToModel(m *model.StudentModel) error {
	if r.Name != nil {
		m.StudentName = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		m.StudentEmail = lowerPtr(r.Email)
	}
	if r.Phone != nil {
		m.StudentPhone = trimPtr(r.Phone)
	}
	if r.BranchID != nil {
		m.StudentBranchID = r.BranchID
	}
	if r.Gender != nil {
		m.StudentGender = lowerPtr(r.Gender)
	}
	if r.Address != nil {
		m.StudentAddress = trimPtr(r.Address)
	}
	if r.GuardianName != nil {
		m.StudentGuardianName = trimPtr(r.GuardianName)
	}
	if r.DateOfBirth != nil {
		d, err := dbtime.ParseDate(*r.DateOfBirth, time.UTC)
		if err != nil {
			return apperror.Validation("invalid date of birth", "date_of_birth", err.Error())
		}
		m.StudentDateOfBirth = &d
	}
	if m.StudentEmail == nil && m.StudentPhone == nil {
		return apperror.Validation("email or phone is required", "email", "email or phone is required", "phone", "email or phone is required")
	}
	return nil
}

type BlockRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type VerifyIDRequest struct {
	Approve bool    `json:"approve"`
	Note    *string `json:"note" validate:"omitempty,max=500"`
}

// ListQuery is the students screen filter. Dates are YYYY-MM-DD in the library timezone;
// created_to is inclusive.
type ListQuery struct {
	Search      string `query:"search" validate:"omitempty,max=100"`
	BranchID    string `query:"branch_id" validate:"omitempty,uuid"`
	Status      string `query:"status" validate:"omitempty,oneof=active expired new no_plan blocked"`
	CreatedFrom string `query:"created_from" validate:"omitempty,datetime=2006-01-02"`
	CreatedTo   string `query:"created_to" validate:"omitempty,datetime=2006-01-02"`
}

/* ===== Responses ===== */

type SubscriptionBrief struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	PlanName       string    `json:"plan_name"`
	BranchName     string    `json:"branch_name"`
	SeatNumber     *string   `json:"seat_number,omitempty"`
	LockerNumber   *string   `json:"locker_number,omitempty"`
	Status         string    `json:"status"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Amount         string    `json:"amount"`
}

// StudentRow is one line of the students list.
type StudentRow struct {
	StudentID     uuid.UUID          `json:"student_id"`
	Name          string             `json:"student_name"`
	Email         *string            `json:"student_email,omitempty"`
	Phone         *string            `json:"student_phone,omitempty"`
	HomeBranchID  *uuid.UUID         `json:"student_branch_id,omitempty"`
	IsBlocked     bool               `json:"student_is_blocked"`
	IDStatus      string             `json:"student_id_verification_status"`
	CreatedAt     time.Time          `json:"student_created_at"`
	Status        string             `json:"status"`
	CurrentPlan   *string            `json:"current_plan"`
	CurrentBranch *string            `json:"current_branch"`
	SeatNumber    *string            `json:"seat_number"`
	CurrentSub    *SubscriptionBrief `json:"current_subscription,omitempty"`
}

type StudentListResponse struct {
	Students []StudentRow `json:"students"`
	Total    int64        `json:"total"`
	Pages    int          `json:"pages"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
}

type StudentDetail struct {
	Student       model.StudentModel  `json:"student"`
	Status        string              `json:"status"`
	Current       *SubscriptionBrief  `json:"current_subscription,omitempty"`
	Subscriptions []SubscriptionBrief `json:"subscriptions"`
}
