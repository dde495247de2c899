package audit

import (
	"time"

	id "tempus/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time
	TenantID   id.TenantID
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Outcome    Outcome
	Reason     string
	RequestID  string
	TraceID    string
	SpanID     string
}

// Outcome records how the audited command ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// Action identifies the audited command.
type Action string

const (
	// Entry commands
	ActionEntryCreated  Action = "entry_created"
	ActionEntryAmended  Action = "entry_amended"
	ActionEntryDeleted  Action = "entry_deleted"
	ActionEntryApproved Action = "entry_approved"
	ActionEntryRejected Action = "entry_rejected"
	ActionDaySubmitted  Action = "day_submitted"
	ActionDayRecalled   Action = "day_recalled"

	// Monthly approval commands
	ActionMonthSubmitted Action = "month_submitted"
	ActionMonthApproved  Action = "month_approved"
	ActionMonthRejected  Action = "month_rejected"

	// Tenancy admin
	ActionTenantCreated     Action = "tenant_created"
	ActionTenantDeactivated Action = "tenant_deactivated"
	ActionTenantReactivated Action = "tenant_reactivated"
	ActionMemberCreated     Action = "member_created"
	ActionMemberDeactivated Action = "member_deactivated"
	ActionMemberReactivated Action = "member_reactivated"

	// Absences
	ActionAbsenceCreated Action = "absence_created"
	ActionAbsenceDeleted Action = "absence_deleted"

	// Platform
	ActionRateLimitExceeded Action = "rate_limit_exceeded"
)

// Entity type names used in audit records.
const (
	EntityEntry    = "work_log_entry"
	EntityDay      = "work_day"
	EntityApproval = "monthly_approval"
	EntityTenant   = "tenant"
	EntityMember   = "member"
	EntityAbsence  = "absence"
	EntityRoute    = "http_route"
)
