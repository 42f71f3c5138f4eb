package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"librarydesk_backend/internals/features/libraries/branches/model"
	"librarydesk_backend/internals/helpers/apperror"
)

func TestValidateHours(t *testing.T) {
	ok := model.OpeningHours{"mon": {Open: "07:00", Close: "22:00"}, "sun": {Open: "09:00", Close: "13:30"}}
	assert.NoError(t, ValidateHours(ok))

	bad := []model.OpeningHours{
		{"monday": {Open: "07:00", Close: "22:00"}},
		{"mon": {Open: "7am", Close: "22:00"}},
		{"mon": {Open: "22:00", Close: "07:00"}},
		{"mon": {Open: "09:00", Close: "09:00"}},
	}
	for _, h := range bad {
		err := ValidateHours(h)
		assert.ErrorIs(t, err, apperror.ErrValidation, "%v", h)
	}
}

func TestIsOpenAt(t *testing.T) {
	h := model.OpeningHours{"mon": {Open: "07:00", Close: "22:00"}}
	monday := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsOpenAt(h, monday.Add(6*time.Hour+59*time.Minute)))
	assert.True(t, IsOpenAt(h, monday.Add(7*time.Hour)))
	assert.True(t, IsOpenAt(h, monday.Add(21*time.Hour+59*time.Minute)))
	assert.False(t, IsOpenAt(h, monday.Add(22*time.Hour)))
	assert.False(t, IsOpenAt(h, monday.AddDate(0, 0, 1).Add(10*time.Hour)), "tuesday has no hours")
}

func TestCleanAmenities(t *testing.T) {
	got := cleanAmenities([]string{" WiFi ", "wifi", "", "AC", "Lockers"})
	assert.Equal(t, []string{"WiFi", "AC", "Lockers"}, []string(got))
}
