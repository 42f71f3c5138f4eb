// file: internals/helpers/dbtime/tod.go
package dbtime

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Tod is a wall-clock time of day, used for branch opening hours.
type Tod struct{ time.Time }

// ParseTod accepts "HH:MM" or "HH:MM:SS".
func ParseTod(s string) (Tod, error) {
	s = strings.TrimSpace(s)
	if len(s) == 5 {
		s += ":00"
	}
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return Tod{}, errors.Errorf("time must be HH:MM, got %q", s)
	}
	return Tod{Time: t}, nil
}

func (t Tod) String() string { return t.Format("15:04") }

// Within reports whether at's clock falls in [open, close).
func Within(at time.Time, open, close Tod) bool {
	clock := time.Date(0, 1, 1, at.Hour(), at.Minute(), at.Second(), 0, time.UTC)
	o := time.Date(0, 1, 1, open.Hour(), open.Minute(), open.Second(), 0, time.UTC)
	c := time.Date(0, 1, 1, close.Hour(), close.Minute(), close.Second(), 0, time.UTC)
	return !clock.Before(o) && clock.Before(c)
}
