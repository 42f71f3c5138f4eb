package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"librarydesk_backend/internals/features/attendance/attendance/model"
)

func TestVisitMinutes(t *testing.T) {
	in := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	out := in.Add(95 * time.Minute)
	now := in.Add(3 * time.Hour)

	open := AttendanceRow{AttendanceModel: model.AttendanceModel{AttendanceCheckIn: in}}
	assert.Equal(t, 180, open.VisitMinutes(now))

	closed := AttendanceRow{AttendanceModel: model.AttendanceModel{AttendanceCheckIn: in, AttendanceCheckOut: &out}}
	assert.Equal(t, 95, closed.VisitMinutes(now))

	skewed := AttendanceRow{AttendanceModel: model.AttendanceModel{AttendanceCheckIn: now.Add(time.Hour)}}
	assert.Equal(t, 0, skewed.VisitMinutes(now))
}
