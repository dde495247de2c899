package handler

import (
	"strings"
	"time"

	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
)

// SubmitMonthRequest hands in the fiscal month containing the anchor date.
// Fiscal months need not align with calendar months, so the month is
// addressed by any civil date inside it. member_id is optional and defaults
// to the acting member; the service only accepts the member themselves.
type SubmitMonthRequest struct {
	MemberID string `json:"member_id,omitempty"`
	Anchor   string `json:"anchor"`

	parsedMemberID id.MemberID
	parsedAnchor   time.Time
}

func (r *SubmitMonthRequest) Validate() error {
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

	anchor, err := id.ParseDate(strings.TrimSpace(r.Anchor))
	if err != nil {
		return err
	}
	r.parsedAnchor = anchor

	return nil
}

// RejectMonthRequest sends the month back to the member. The model requires
// a reason, so the rule lives in exactly one place.
type RejectMonthRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectMonthRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	return nil
}
