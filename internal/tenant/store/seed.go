package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tempus/internal/tenant/models"
	memberstore "tempus/internal/tenant/store/member"
	tenantstore "tempus/internal/tenant/store/tenant"
	id "tempus/pkg/domain"
)

// SeedBootstrapTenant creates a default tenant with one manager and one
// member so a dev server is usable immediately. Returns the created records;
// existing data is left alone.
func SeedBootstrapTenant(ts *tenantstore.InMemory, ms *memberstore.InMemory) (*models.Tenant, []*models.Member) {
	now := time.Now()
	t := &models.Tenant{
		ID:        id.TenantID(uuid.New()),
		Name:      "default",
		Status:    models.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_ = ts.CreateIfNameAvailable(context.Background(), t)

	members := []*models.Member{
		{
			ID:          id.MemberID(uuid.New()),
			TenantID:    t.ID,
			DisplayName: "Default Manager",
			Role:        models.RoleManager,
			Status:      models.MemberStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          id.MemberID(uuid.New()),
			TenantID:    t.ID,
			DisplayName: "Default Member",
			Role:        models.RoleMember,
			Status:      models.MemberStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	for _, m := range members {
		_ = ms.Create(context.Background(), m)
	}
	return t, members
}
