package handler

import (
	"strings"
	"time"

	"tempus/internal/worklog/models"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
)

// CreateEntryRequest records one new entry. member_id is optional and
// defaults to the acting member; entering time for somebody else requires the
// manager role, which the service enforces. Hours stay on the quarter-hour
// grid; the model validates that so the rule lives in exactly one place.
type CreateEntryRequest struct {
	MemberID  string  `json:"member_id,omitempty"`
	ProjectID string  `json:"project_id"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	Comment   string  `json:"comment,omitempty"`

	parsedMemberID  id.MemberID
	parsedProjectID id.ProjectID
	parsedDate      time.Time
}

func (r *CreateEntryRequest) Validate() error {
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

	projectID, err := id.ParseProjectID(strings.TrimSpace(r.ProjectID))
	if err != nil {
		return err
	}
	r.parsedProjectID = projectID

	date, err := id.ParseDate(strings.TrimSpace(r.Date))
	if err != nil {
		return err
	}
	r.parsedDate = date

	return nil
}

// AmendEntryRequest replaces the editable fields of a DRAFT entry in full.
type AmendEntryRequest struct {
	ProjectID string  `json:"project_id"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	Comment   string  `json:"comment,omitempty"`

	parsedProjectID id.ProjectID
	parsedDate      time.Time
}

func (r *AmendEntryRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	projectID, err := id.ParseProjectID(strings.TrimSpace(r.ProjectID))
	if err != nil {
		return err
	}
	r.parsedProjectID = projectID

	date, err := id.ParseDate(strings.TrimSpace(r.Date))
	if err != nil {
		return err
	}
	r.parsedDate = date

	return nil
}

// ReviewEntryRequest is an individual manager decision on one entry. Only
// APPROVED and REJECTED pass the service; the DTO just guards the vocabulary.
type ReviewEntryRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`

	parsedStatus models.Status
}

func (r *ReviewEntryRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	status, err := models.ParseStatus(strings.ToUpper(strings.TrimSpace(r.Status)))
	if err != nil {
		return err
	}
	r.parsedStatus = status

	return nil
}
