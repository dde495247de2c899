package domain

import "time"

// FiscalMonth is the monthly accounting window approvals operate on.
// Organizations that close their books mid-month configure a start day other
// than 1; the window then runs from that day through the day before the next
// window starts (e.g. start day 21: Jan 21 .. Feb 20).
type FiscalMonth struct {
	Start time.Time // first day, midnight UTC
	End   time.Time // last day, inclusive, midnight UTC
}

// FiscalMonthOf returns the fiscal month containing date for a window
// starting on startDay. Start days beyond 28 are not stable across February;
// config validation keeps the value in range and this falls back to 1.
func FiscalMonthOf(date time.Time, startDay int) FiscalMonth {
	if startDay < 1 || startDay > 28 {
		startDay = 1
	}
	d := DateOf(date)
	start := time.Date(d.Year(), d.Month(), startDay, 0, 0, 0, 0, time.UTC)
	if d.Day() < startDay {
		start = start.AddDate(0, -1, 0)
	}
	return FiscalMonth{
		Start: start,
		End:   start.AddDate(0, 1, 0).AddDate(0, 0, -1),
	}
}

// Contains reports whether t's civil date falls inside the window.
func (m FiscalMonth) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(m.Start) && !d.After(m.End)
}

func (m FiscalMonth) String() string {
	return FormatDate(m.Start) + ".." + FormatDate(m.End)
}
