// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"librarydesk_backend/internals/configs"
)

// Locals set by AuthJWT.
const (
	LocLibraryTimezone = "library_timezone" // string, e.g. "Asia/Kolkata"
	LocLibraryLoc      = "library_loc"      // *time.Location
)

// DefaultLocation is LIBRARY_DEFAULT_TZ, falling back to UTC.
func DefaultLocation() *time.Location {
	if loc, err := time.LoadLocation(configs.GetEnv("LIBRARY_DEFAULT_TZ", "Asia/Kolkata")); err == nil {
		return loc
	}
	return time.UTC
}

// GetLibraryLocation resolves the caller's library timezone:
// cached *time.Location, then the timezone string from the token, then the default.
func GetLibraryLocation(c *fiber.Ctx) *time.Location {
	if c == nil {
		return DefaultLocation()
	}
	if loc, ok := c.Locals(LocLibraryLoc).(*time.Location); ok && loc != nil {
		return loc
	}
	if s, ok := c.Locals(LocLibraryTimezone).(string); ok && strings.TrimSpace(s) != "" {
		if loc, err := time.LoadLocation(strings.TrimSpace(s)); err == nil {
			c.Locals(LocLibraryLoc, loc)
			return loc
		}
	}
	loc := DefaultLocation()
	c.Locals(LocLibraryLoc, loc)
	return loc
}

func NowInLibrary(c *fiber.Ctx) time.Time {
	return time.Now().In(GetLibraryLocation(c))
}

/* ===== Windows ===== */

// MonthWindow returns [first day 00:00, first day of next month 00:00) in loc.
func MonthWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// DayWindow returns [00:00, next 00:00) of t's day in loc.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// ParseMonth accepts "YYYY-MM"; empty means the month containing now.
func ParseMonth(s string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		start, end := MonthWindow(now, loc)
		return start, end, nil
	}
	t, err := time.ParseInLocation("2006-01", s, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Errorf("month must be YYYY-MM, got %q", s)
	}
	start, end := MonthWindow(t, loc)
	return start, end, nil
}

// ParseDate accepts "YYYY-MM-DD" in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, errors.Errorf("date must be YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

// EndOfDay is the last instant of t's day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	_, next := DayWindow(t, loc)
	return next.Add(-time.Nanosecond)
}
