package dto

import (
	"fmt"
	"strings"

	"librarydesk_backend/internals/helpers/apperror"
)

const maxBulk = 500

// UnitCreateRequest adds seats or lockers to a branch, either by explicit numbers or as a
// numbered range like A1..A40.
type UnitCreateRequest struct {
	Numbers []string `json:"numbers" validate:"omitempty,max=500,dive,min=1,max=20"`
	Prefix  string   `json:"prefix" validate:"omitempty,max=10"`
	From    int      `json:"from" validate:"omitempty,min=0"`
	To      int      `json:"to" validate:"omitempty,min=0"`
	Section *string  `json:"section" validate:"omitempty,max=60"`
}

// Expand returns the numbers to create, deduplicated and in request order.
func (r UnitCreateRequest) Expand() ([]string, error) {
	var out []string
	if len(r.Numbers) > 0 {
		out = append(out, r.Numbers...)
	} else {
		if r.To < r.From || (r.From == 0 && r.To == 0) {
			return nil, apperror.Validation("numbers or a from..to range is required", "numbers", "is required")
		}
		if r.To-r.From+1 > maxBulk {
			return nil, apperror.Validation("range too large", "to", fmt.Sprintf("at most %d at once", maxBulk))
		}
		for i := r.From; i <= r.To; i++ {
			out = append(out, fmt.Sprintf("%s%d", strings.TrimSpace(r.Prefix), i))
		}
	}

	seen := map[string]bool{}
	uniq := out[:0]
	for _, n := range out {
		n = strings.ToUpper(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		uniq = append(uniq, n)
	}
	if len(uniq) == 0 {
		return nil, apperror.Validation("numbers or a from..to range is required", "numbers", "is required")
	}
	return uniq, nil
}

type UnitPatchRequest struct {
	Number   *string `json:"number" validate:"omitempty,min=1,max=20"`
	Section  *string `json:"section" validate:"omitempty,max=60"`
	IsActive *bool   `json:"is_active"`
}
