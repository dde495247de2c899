package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"tempus/internal/tenant/models"
)

// CreateTenantRequestSuite tests CreateTenantRequest validation.
type CreateTenantRequestSuite struct {
	suite.Suite
}

func TestCreateTenantRequestSuite(t *testing.T) {
	suite.Run(t, new(CreateTenantRequestSuite))
}

func (s *CreateTenantRequestSuite) TestValidation() {
	s.Run("valid request passes", func() {
		req := &CreateTenantRequest{Name: "Test Tenant"}
		err := req.Validate()
		s.NoError(err)
	})

	s.Run("trims whitespace", func() {
		req := &CreateTenantRequest{Name: "  Test Tenant  "}
		s.NoError(req.Validate())
		s.Equal("Test Tenant", req.Name)
	})

	s.Run("missing name rejected", func() {
		req := &CreateTenantRequest{}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "name is required")
	})

	s.Run("whitespace-only name rejected", func() {
		req := &CreateTenantRequest{Name: "   "}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "name is required")
	})

	s.Run("name over 128 characters rejected", func() {
		req := &CreateTenantRequest{Name: strings.Repeat("a", 129)}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "128 characters or less")
	})

	s.Run("nil request rejected", func() {
		var req *CreateTenantRequest
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "request is required")
	})
}

// CreateMemberRequestSuite tests CreateMemberRequest validation and role parsing.
type CreateMemberRequestSuite struct {
	suite.Suite
}

func TestCreateMemberRequestSuite(t *testing.T) {
	suite.Run(t, new(CreateMemberRequestSuite))
}

func (s *CreateMemberRequestSuite) TestValidation() {
	s.Run("valid request passes and parses role", func() {
		req := &CreateMemberRequest{DisplayName: "Dana", Role: "manager"}
		s.Require().NoError(req.Validate())
		s.Equal(models.RoleManager, req.parsedRole)
	})

	s.Run("role is case-insensitive", func() {
		req := &CreateMemberRequest{DisplayName: "Dana", Role: " Manager "}
		s.Require().NoError(req.Validate())
		s.Equal(models.RoleManager, req.parsedRole)
	})

	s.Run("missing display_name rejected", func() {
		req := &CreateMemberRequest{Role: "member"}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "display_name is required")
	})

	s.Run("unknown role rejected", func() {
		req := &CreateMemberRequest{DisplayName: "Dana", Role: "owner"}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "role must be member or manager")
	})

	s.Run("missing role rejected", func() {
		req := &CreateMemberRequest{DisplayName: "Dana"}
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "role must be member or manager")
	})

	s.Run("nil request rejected", func() {
		var req *CreateMemberRequest
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "request is required")
	})
}
