package models

import dErrors "tempus/pkg/domain-errors"

// Status is the lifecycle state of a work log entry.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// allowedTransitions is the single source of truth for the entry state
// machine:
//
//	DRAFT     -> SUBMITTED              (daily or monthly submit)
//	SUBMITTED -> APPROVED | REJECTED    (review)
//	SUBMITTED -> DRAFT                  (recall)
//	REJECTED  -> DRAFT                  (reopened after monthly rejection)
//	REJECTED  -> SUBMITTED              (resubmit via monthly batch)
//	APPROVED  -> (terminal)
var allowedTransitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected, StatusDraft},
	StatusRejected:  {StatusDraft, StatusSubmitted},
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
// Errors: CodeInvalidInput for unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid entry status")
	}
	return st, nil
}
