package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"librarydesk_backend/internals/features/libraries/branches/model"
	"librarydesk_backend/internals/helpers/apperror"
	"librarydesk_backend/internals/helpers/dbtime"
)

var weekdays = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

type BranchCreateRequest struct {
	Name      string             `json:"name" validate:"required,min=2,max=120"`
	Slug      *string            `json:"slug" validate:"omitempty,max=140"`
	Address   *string            `json:"address" validate:"omitempty,max=500"`
	Phone     *string            `json:"phone" validate:"omitempty,min=6,max=20"`
	Hours     model.OpeningHours `json:"operating_hours"`
	Amenities []string           `json:"amenities" validate:"omitempty,max=30,dive,min=1,max=40"`
}

type BranchPatchRequest struct {
	Name      *string             `json:"name" validate:"omitempty,min=2,max=120"`
	Address   *string             `json:"address" validate:"omitempty,max=500"`
	Phone     *string             `json:"phone" validate:"omitempty,min=6,max=20"`
	Hours     *model.OpeningHours `json:"operating_hours"`
	Amenities *[]string           `json:"amenities" validate:"omitempty,max=30,dive,min=1,max=40"`
	IsActive  *bool               `json:"is_active"`
}

// ValidateHours checks day keys and that each window opens before it closes.
func ValidateHours(h model.OpeningHours) error {
	for day, w := range h {
		if !isWeekday(day) {
			return apperror.Validation("invalid operating hours", "operating_hours", "unknown day "+day)
		}
		open, err := dbtime.ParseTod(w.Open)
		if err != nil {
			return apperror.Validation("invalid operating hours", "operating_hours", err.Error())
		}
		closeAt, err := dbtime.ParseTod(w.Close)
		if err != nil {
			return apperror.Validation("invalid operating hours", "operating_hours", err.Error())
		}
		if !open.Before(closeAt.Time) {
			return apperror.Validation("invalid operating hours", "operating_hours", day+" must open before it closes")
		}
	}
	return nil
}

func isWeekday(d string) bool {
	for _, w := range weekdays {
		if w == d {
			return true
		}
	}
	return false
}

func normalizeHours(h model.OpeningHours) model.OpeningHours {
	out := model.OpeningHours{}
	for day, w := range h {
		out[strings.ToLower(strings.TrimSpace(day))] = w
	}
	return out
}

func cleanAmenities(in []string) pq.StringArray {
	out := pq.StringArray{}
	seen := map[string]bool{}
	for _, a := range in {
		a = strings.TrimSpace(a)
		k := strings.ToLower(a)
		if a == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, a)
	}
	return out
}

func (r *BranchCreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Hours = normalizeHours(r.Hours)
}

func (r BranchCreateRequest) ToModel(libraryID uuid.UUID, slug, qrToken string) *model.BranchModel {
	return &model.BranchModel{
		BranchLibraryID: libraryID,
		BranchName:      r.Name,
		BranchSlug:      slug,
		BranchAddress:   r.Address,
		BranchPhone:     r.Phone,
		BranchHours:     datatypes.NewJSONType(r.Hours),
		BranchAmenities: cleanAmenities(r.Amenities),
		BranchQRToken:   qrToken,
		BranchIsActive:  true,
	}
}

func (r *BranchPatchRequest) Normalize() {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	if r.Hours != nil {
		h := normalizeHours(*r.Hours)
		r.Hours = &h
	}
}

func (r BranchPatchRequest) ApplyToModel(m *model.BranchModel) {
	if r.Name != nil {
		m.BranchName = *r.Name
	}
	if r.Address != nil {
		m.BranchAddress = r.Address
	}
	if r.Phone != nil {
		m.BranchPhone = r.Phone
	}
	if r.Hours != nil {
		m.BranchHours = datatypes.NewJSONType(*r.Hours)
	}
	if r.Amenities != nil {
		m.BranchAmenities = cleanAmenities(*r.Amenities)
	}
	if r.IsActive != nil {
		m.BranchIsActive = *r.IsActive
	}
}

/* ===== Responses ===== */

type BranchResponse struct {
	BranchID      uuid.UUID          `json:"branch_id"`
	Name          string             `json:"branch_name"`
	Slug          string             `json:"branch_slug"`
	Address       *string            `json:"branch_address,omitempty"`
	Phone         *string            `json:"branch_phone,omitempty"`
	Hours         model.OpeningHours `json:"branch_operating_hours"`
	Amenities     []string           `json:"branch_amenities"`
	IsActive      bool               `json:"branch_is_active"`
	IsOpenNow     bool               `json:"branch_is_open_now"`
	QRToken       string             `json:"branch_qr_token,omitempty"`
	QRRotated     *time.Time         `json:"branch_qr_rotated_at,omitempty"`
	SeatCount     int64              `json:"seat_count"`
	OccupiedSeats int64              `json:"occupied_seats"`
	CreatedAt     time.Time          `json:"branch_created_at"`
}

// IsOpenAt evaluates the weekly hours at the library-local clock of now.
func IsOpenAt(h model.OpeningHours, now time.Time) bool {
	w, ok := h[weekdays[int(now.Weekday())]]
	if !ok {
		return false
	}
	open, err1 := dbtime.ParseTod(w.Open)
	closeAt, err2 := dbtime.ParseTod(w.Close)
	if err1 != nil || err2 != nil {
		return false
	}
	return dbtime.Within(now, open, closeAt)
}

// ToBranchResponse: now must already be in the library's timezone. withQR exposes the kiosk token.
func ToBranchResponse(m model.BranchModel, now time.Time, withQR bool) BranchResponse {
	hours := m.BranchHours.Data()
	if hours == nil {
		hours = model.OpeningHours{}
	}
	amen := []string(m.BranchAmenities)
	if amen == nil {
		amen = []string{}
	}
	out := BranchResponse{
		BranchID:  m.BranchID,
		Name:      m.BranchName,
		Slug:      m.BranchSlug,
		Address:   m.BranchAddress,
		Phone:     m.BranchPhone,
		Hours:     hours,
		Amenities: amen,
		IsActive:  m.BranchIsActive,
		IsOpenNow: m.BranchIsActive && IsOpenAt(hours, now),
		QRRotated: m.BranchQRRotated,
		CreatedAt: m.CreatedAt,
	}
	if withQR {
		out.QRToken = m.BranchQRToken
	}
	return out
}
