package models

import (
	"time"

	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
)

// Member is a person who records time within a tenant.
//
// Invariants:
//   - DisplayName is non-empty and at most 128 characters
//   - Role is either member or manager
//   - Status is either active or inactive
//   - Status transitions: active <-> inactive only
//   - TenantID is immutable after construction
type Member struct {
	ID          id.MemberID  `json:"id"`
	TenantID    id.TenantID  `json:"tenant_id"`
	DisplayName string       `json:"display_name"`
	Role        Role         `json:"role"`
	Status      MemberStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func NewMember(memberID id.MemberID, tenantID id.TenantID, displayName string, role Role, now time.Time) (*Member, error) {
	if displayName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member display name cannot be empty")
	}
	if len(displayName) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member display name must be 128 characters or less")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid member role")
	}
	return &Member{
		ID:          memberID,
		TenantID:    tenantID,
		DisplayName: displayName,
		Role:        role,
		Status:      MemberStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (m *Member) IsActive() bool {
	return m.Status == MemberStatusActive
}

// IsManager reports whether the member holds the manager role. Callers that
// authorize review commands must also check IsActive.
func (m *Member) IsManager() bool {
	return m.Role == RoleManager
}

// CanDeactivate checks if the member can transition to inactive status.
func (m *Member) CanDeactivate() error {
	if !m.Status.CanTransitionTo(MemberStatusInactive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "member is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions the member to inactive status.
// Call CanDeactivate first to validate the transition.
func (m *Member) ApplyDeactivation(now time.Time) {
	m.Status = MemberStatusInactive
	m.UpdatedAt = now
}

// Deactivate validates and applies deactivation in one call.
// Prefer CanDeactivate + ApplyDeactivation for Execute callback pattern.
func (m *Member) Deactivate(now time.Time) error {
	if err := m.CanDeactivate(); err != nil {
		return err
	}
	m.ApplyDeactivation(now)
	return nil
}

// CanReactivate checks if the member can transition to active status.
func (m *Member) CanReactivate() error {
	if !m.Status.CanTransitionTo(MemberStatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "member is already active")
	}
	return nil
}

// ApplyReactivation transitions the member to active status.
// Call CanReactivate first to validate the transition.
func (m *Member) ApplyReactivation(now time.Time) {
	m.Status = MemberStatusActive
	m.UpdatedAt = now
}

// Reactivate validates and applies reactivation in one call.
// Prefer CanReactivate + ApplyReactivation for Execute callback pattern.
func (m *Member) Reactivate(now time.Time) error {
	if err := m.CanReactivate(); err != nil {
		return err
	}
	m.ApplyReactivation(now)
	return nil
}
