package models

import (
	"time"

	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
)

// Kind classifies an absence for reporting. The totals projection does not
// care which kind it is; handlers and exports do.
type Kind string

const (
	KindVacation Kind = "vacation"
	KindSick     Kind = "sick"
	KindOther    Kind = "other"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindVacation, KindSick, KindOther:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "absence kind must be vacation, sick, or other")
	}
	return k, nil
}

const maxNoteLength = 512

// Absence is a planned interval of time away, counted per day. It is plain
// state, not event-sourced: absences never move through review, they only
// feed the day-level totals.
//
// Invariants:
//   - StartDate and EndDate are civil dates (UTC midnight), StartDate <= EndDate
//   - HoursPerDay is on the quarter-hour grid within (0, 24]
//   - Kind is one of vacation, sick, other
type Absence struct {
	ID          id.AbsenceID `json:"id"`
	TenantID    id.TenantID  `json:"tenant_id"`
	MemberID    id.MemberID  `json:"member_id"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	HoursPerDay float64      `json:"hours_per_day"`
	Kind        Kind         `json:"kind"`
	Note        string       `json:"note,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func NewAbsence(absenceID id.AbsenceID, tenantID id.TenantID, memberID id.MemberID, start, end time.Time, hoursPerDay float64, kind Kind, note string, now time.Time) (*Absence, error) {
	if absenceID == (id.AbsenceID{}) || tenantID == (id.TenantID{}) || memberID == (id.MemberID{}) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "absence requires tenant, member, and absence identifiers")
	}
	start = id.DateOf(start)
	end = id.DateOf(end)
	if start.IsZero() || end.Before(start) {
		return nil, dErrors.New(dErrors.CodeValidation, "absence interval must have start_date <= end_date")
	}
	if _, err := id.ParseHours(hoursPerDay); err != nil {
		return nil, err
	}
	if hoursPerDay == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "hours_per_day must be greater than zero")
	}
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "absence kind must be vacation, sick, or other")
	}
	if len(note) > maxNoteLength {
		return nil, dErrors.New(dErrors.CodeValidation, "note must be 512 characters or less")
	}
	return &Absence{
		ID:          absenceID,
		TenantID:    tenantID,
		MemberID:    memberID,
		StartDate:   start,
		EndDate:     end,
		HoursPerDay: hoursPerDay,
		Kind:        kind,
		Note:        note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Overlaps reports whether the absence touches the inclusive [from, to]
// range. The totals projection uses interval intersection, not containment:
// an absence straddling the range boundary still counts for the days inside.
func (a *Absence) Overlaps(from, to time.Time) bool {
	from = id.DateOf(from)
	to = id.DateOf(to)
	return !a.StartDate.After(to) && !a.EndDate.Before(from)
}

// CoversDay reports whether the given civil date falls inside the absence.
func (a *Absence) CoversDay(day time.Time) bool {
	day = id.DateOf(day)
	return !day.Before(a.StartDate) && !day.After(a.EndDate)
}
