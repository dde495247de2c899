package domain

import (
	"time"

	dErrors "tempus/pkg/domain-errors"
)

// DateLayout is the wire and storage format for civil dates.
const DateLayout = "2006-01-02"

// Date builds a civil date at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf normalizes t to its civil date at midnight UTC. Work dates are
// civil dates; normalizing at the boundary keeps range comparisons, map
// keys, and DATE columns consistent.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 civil date (YYYY-MM-DD).
// Errors: CodeInvalidInput.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "invalid date, want YYYY-MM-DD")
	}
	return t, nil
}

// FormatDate renders a civil date in ISO-8601.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// WithinRange reports whether day falls in [from, to], all three taken as
// civil dates.
func WithinRange(day, from, to time.Time) bool {
	d := DateOf(day)
	return !d.Before(DateOf(from)) && !d.After(DateOf(to))
}
