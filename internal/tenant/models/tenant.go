package models

import (
	"time"

	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
)

// Tenant is the aggregate root for a tenant organization.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Status is either active or inactive
//   - Status transitions: active <-> inactive only
//   - CreatedAt is immutable after construction
//
// Deactivating a tenant does not cascade status changes to its members: the
// identity middleware and the command services check tenant.IsActive() at the
// boundary, so a suspended organization is locked out immediately while its
// member records stay untouched for reactivation.
type Tenant struct {
	ID        id.TenantID  `json:"id"`
	Name      string       `json:"name"`
	Status    TenantStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func NewTenant(tenantID id.TenantID, name string, now time.Time) (*Tenant, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	return &Tenant{
		ID:        tenantID,
		Name:      name,
		Status:    TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// TenantDetails pairs a tenant with aggregate counts for the admin view.
type TenantDetails struct {
	*Tenant
	MemberCount int `json:"member_count"`
}

// CanDeactivate checks if the tenant can transition to inactive status.
// Use with ApplyDeactivation in Execute callbacks so validation and mutation
// run under the store's lock.
func (t *Tenant) CanDeactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusInactive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already inactive")
	}
	return nil
}

// ApplyDeactivation transitions the tenant to inactive status.
// Call CanDeactivate first to validate the transition.
func (t *Tenant) ApplyDeactivation(now time.Time) {
	t.Status = TenantStatusInactive
	t.UpdatedAt = now
}

// Deactivate validates and applies deactivation in one call.
// Prefer CanDeactivate + ApplyDeactivation for Execute callback pattern.
func (t *Tenant) Deactivate(now time.Time) error {
	if err := t.CanDeactivate(); err != nil {
		return err
	}
	t.ApplyDeactivation(now)
	return nil
}

// CanReactivate checks if the tenant can transition to active status.
func (t *Tenant) CanReactivate() error {
	if !t.Status.CanTransitionTo(TenantStatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	}
	return nil
}

// ApplyReactivation transitions the tenant to active status.
// Call CanReactivate first to validate the transition.
func (t *Tenant) ApplyReactivation(now time.Time) {
	t.Status = TenantStatusActive
	t.UpdatedAt = now
}

// Reactivate validates and applies reactivation in one call.
// Prefer CanReactivate + ApplyReactivation for Execute callback pattern.
func (t *Tenant) Reactivate(now time.Time) error {
	if err := t.CanReactivate(); err != nil {
		return err
	}
	t.ApplyReactivation(now)
	return nil
}
