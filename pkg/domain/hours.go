package domain

import (
	"math"

	dErrors "tempus/pkg/domain-errors"
)

// Bounds for hour amounts on entries and absences. Quarter-hour steps are
// exactly representable in binary floating point, so totals computed by
// summation never accumulate rounding error.
const (
	HoursMax  = 24.0
	HoursStep = 0.25
)

// ValidHours reports whether h is within [0, HoursMax] and on the
// quarter-hour grid. NaN and infinities are invalid.
func ValidHours(h float64) bool {
	if math.IsNaN(h) || h < 0 || h > HoursMax {
		return false
	}
	steps := h / HoursStep
	return steps == math.Trunc(steps)
}

// ParseHours validates an hour amount from external input.
// Errors: CodeValidation.
func ParseHours(h float64) (float64, error) {
	if !ValidHours(h) {
		return 0, dErrors.New(dErrors.CodeValidation, "hours must be between 0 and 24 in steps of 0.25")
	}
	return h, nil
}
