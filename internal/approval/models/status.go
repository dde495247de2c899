package models

import dErrors "tempus/pkg/domain-errors"

// Status is the lifecycle state of a monthly approval.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// allowedTransitions for the monthly approval:
//
//	PENDING   -> SUBMITTED             (opened and submitted in one command)
//	SUBMITTED -> APPROVED | REJECTED   (review)
//	REJECTED  -> SUBMITTED             (member resubmits the month)
//	APPROVED  -> (terminal)
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusRejected:  {StatusSubmitted},
	StatusApproved:  {},
}

// CanTransitionTo reports whether the transition s -> target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsValid reports whether s is one of the defined statuses.
func (s Status) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

func (s Status) String() string { return string(s) }

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid approval status")
	}
	return st, nil
}
