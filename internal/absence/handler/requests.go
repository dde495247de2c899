package handler

import (
	"strings"
	"time"

	"tempus/internal/absence/models"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
)

// CreateAbsenceRequest books an absence interval. member_id is optional and
// defaults to the acting member; booking for somebody else requires the
// manager role, which the service enforces.
type CreateAbsenceRequest struct {
	MemberID    string  `json:"member_id,omitempty"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	HoursPerDay float64 `json:"hours_per_day"`
	Kind        string  `json:"kind"`
	Note        string  `json:"note,omitempty"`

	parsedMemberID id.MemberID
	parsedStart    time.Time
	parsedEnd      time.Time
	parsedKind     models.Kind
}

func (r *CreateAbsenceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if memberID := strings.TrimSpace(r.MemberID); memberID != "" {
		parsed, err := id.ParseMemberID(memberID)
		if err != nil {
			return err
		}
		r.parsedMemberID = parsed
	}

	start, err := id.ParseDate(strings.TrimSpace(r.StartDate))
	if err != nil {
		return err
	}
	r.parsedStart = start

	end, err := id.ParseDate(strings.TrimSpace(r.EndDate))
	if err != nil {
		return err
	}
	r.parsedEnd = end

	kind, err := models.ParseKind(strings.ToLower(strings.TrimSpace(r.Kind)))
	if err != nil {
		return err
	}
	r.parsedKind = kind

	return nil
}
