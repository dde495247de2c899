// Package domain holds the primitive value types shared by every feature:
// typed identifiers, civil dates, fiscal month windows, and hour amounts.
//
// Typed IDs prevent cross-entity assignment at compile time. Construct them
// via the Parse* functions at trust boundaries; direct conversion from
// uuid.UUID is reserved for code that already holds a validated value.
package domain

import (
	"github.com/google/uuid"

	dErrors "tempus/pkg/domain-errors"
)

// TenantID identifies an organization. Every command and query in the system
// is scoped by one; a zero TenantID is never valid.
type TenantID uuid.UUID

// MemberID identifies a person within a tenant.
type MemberID uuid.UUID

// ProjectID identifies a project work is booked against.
type ProjectID uuid.UUID

// EntryID identifies a work log entry aggregate.
type EntryID uuid.UUID

// ApprovalID identifies a monthly approval aggregate.
type ApprovalID uuid.UUID

// AbsenceID identifies an absence record.
type AbsenceID uuid.UUID

func (x TenantID) String() string   { return uuid.UUID(x).String() }
func (x MemberID) String() string   { return uuid.UUID(x).String() }
func (x ProjectID) String() string  { return uuid.UUID(x).String() }
func (x EntryID) String() string    { return uuid.UUID(x).String() }
func (x ApprovalID) String() string { return uuid.UUID(x).String() }
func (x AbsenceID) String() string  { return uuid.UUID(x).String() }

// The defined types do not inherit uuid.UUID's methods, so each implements
// encoding.TextMarshaler/TextUnmarshaler itself: IDs travel as canonical
// UUID strings in JSON. UnmarshalText accepts any well-formed UUID including
// the nil value — serialization must round-trip whatever MarshalText
// produced (stored events legitimately carry zero IDs). Trust boundaries
// validate with the stricter Parse* functions instead.

func (x TenantID) MarshalText() ([]byte, error)   { return []byte(x.String()), nil }
func (x MemberID) MarshalText() ([]byte, error)   { return []byte(x.String()), nil }
func (x ProjectID) MarshalText() ([]byte, error)  { return []byte(x.String()), nil }
func (x EntryID) MarshalText() ([]byte, error)    { return []byte(x.String()), nil }
func (x ApprovalID) MarshalText() ([]byte, error) { return []byte(x.String()), nil }
func (x AbsenceID) MarshalText() ([]byte, error)  { return []byte(x.String()), nil }

func unmarshalUUID(field string, b []byte) (uuid.UUID, error) {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return u, nil
}

func (x *TenantID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID("tenant id", b)
	if err != nil {
		return err
	}
	*x = TenantID(u)
	return nil
}

func (x *MemberID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID("member id", b)
	if err != nil {
		return err
	}
	*x = MemberID(u)
	return nil
}

func (x *ProjectID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID("project id", b)
	if err != nil {
		return err
	}
	*x = ProjectID(u)
	return nil
}

func (x *EntryID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID("entry id", b)
	if err != nil {
		return err
	}
	*x = EntryID(u)
	return nil
}

func (x *ApprovalID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID("approval id", b)
	if err != nil {
		return err
	}
	*x = ApprovalID(u)
	return nil
}

func (x *AbsenceID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID("absence id", b)
	if err != nil {
		return err
	}
	*x = AbsenceID(u)
	return nil
}

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. All Parse* functions go through it so every ID type rejects
// the same inputs.
func parseUUID(field, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be the nil UUID")
	}
	return u, nil
}

// ParseTenantID constructs a TenantID from external input.
// Errors: CodeInvalidInput when empty, malformed, or the nil UUID.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID("tenant id", s)
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(u), nil
}

// ParseMemberID constructs a MemberID from external input.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID("member id", s)
	if err != nil {
		return MemberID{}, err
	}
	return MemberID(u), nil
}

// ParseProjectID constructs a ProjectID from external input.
func ParseProjectID(s string) (ProjectID, error) {
	u, err := parseUUID("project id", s)
	if err != nil {
		return ProjectID{}, err
	}
	return ProjectID(u), nil
}

// ParseEntryID constructs an EntryID from external input.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID("entry id", s)
	if err != nil {
		return EntryID{}, err
	}
	return EntryID(u), nil
}

// ParseApprovalID constructs an ApprovalID from external input.
func ParseApprovalID(s string) (ApprovalID, error) {
	u, err := parseUUID("approval id", s)
	if err != nil {
		return ApprovalID{}, err
	}
	return ApprovalID(u), nil
}

// ParseAbsenceID constructs an AbsenceID from external input.
func ParseAbsenceID(s string) (AbsenceID, error) {
	u, err := parseUUID("absence id", s)
	if err != nil {
		return AbsenceID{}, err
	}
	return AbsenceID(u), nil
}
