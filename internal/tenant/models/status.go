package models

import dErrors "tempus/pkg/domain-errors"

// TenantStatus is the lifecycle state of a tenant. Tenants toggle between
// active and inactive; there are no other states.
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusInactive TenantStatus = "inactive"
)

// CanTransitionTo reports whether the transition s -> target is allowed.
// The only legal moves are active -> inactive and inactive -> active.
func (s TenantStatus) CanTransitionTo(target TenantStatus) bool {
	switch s {
	case TenantStatusActive:
		return target == TenantStatusInactive
	case TenantStatusInactive:
		return target == TenantStatusActive
	}
	return false
}

func (s TenantStatus) IsValid() bool {
	return s == TenantStatusActive || s == TenantStatusInactive
}

// MemberStatus is the lifecycle state of a member within a tenant.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

func (s MemberStatus) CanTransitionTo(target MemberStatus) bool {
	switch s {
	case MemberStatusActive:
		return target == MemberStatusInactive
	case MemberStatusInactive:
		return target == MemberStatusActive
	}
	return false
}

func (s MemberStatus) IsValid() bool {
	return s == MemberStatusActive || s == MemberStatusInactive
}

// Role determines what a member may do. Managers review submissions from
// other members; regular members only manage their own work log.
type Role string

const (
	RoleMember  Role = "member"
	RoleManager Role = "manager"
)

func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleManager
}

func (r Role) String() string { return string(r) }

// ParseRole constructs a Role from external input.
// Errors: CodeInvalidInput for unknown values.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role must be member or manager")
	}
	return role, nil
}
