package handler

import (
	"strings"

	"tempus/internal/tenant/models"
	dErrors "tempus/pkg/domain-errors"
)

// CreateTenantRequest is the body of POST /admin/tenants.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// Validate trims and checks required fields.
func (r *CreateTenantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 128 {
		return dErrors.New(dErrors.CodeValidation, "name must be 128 characters or less")
	}
	return nil
}

// CreateMemberRequest is the body of POST /admin/tenants/{id}/members.
type CreateMemberRequest struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`

	parsedRole models.Role
}

// Validate trims, checks required fields and parses the role.
func (r *CreateMemberRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	if r.DisplayName == "" {
		return dErrors.New(dErrors.CodeValidation, "display_name is required")
	}

	role, err := models.ParseRole(strings.ToLower(strings.TrimSpace(r.Role)))
	if err != nil {
		return err
	}
	r.parsedRole = role
	return nil
}
