package store

import (
	"context"
	"time"

	"tempus/internal/absence/models"
	id "tempus/pkg/domain"
)

// AbsenceStore persists absences. Plain state, no event streams.
//
// Error Contract:
// - Get and Delete return ErrNotFound for a missing or cross-tenant absence
// - ListOverlapping returns an empty slice, never ErrNotFound
type AbsenceStore interface {
	Create(ctx context.Context, a *models.Absence) error

	Get(ctx context.Context, tenantID id.TenantID, absenceID id.AbsenceID) (*models.Absence, error)

	Delete(ctx context.Context, tenantID id.TenantID, absenceID id.AbsenceID) error

	// ListOverlapping returns the member's absences intersecting the
	// inclusive [from, to] range, ordered by start date.
	ListOverlapping(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]*models.Absence, error)
}
