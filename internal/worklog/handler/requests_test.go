package handler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tempus/internal/worklog/models"
	id "tempus/pkg/domain"
)

type CreateEntryRequestSuite struct {
	suite.Suite
}

func TestCreateEntryRequestSuite(t *testing.T) {
	suite.Run(t, new(CreateEntryRequestSuite))
}

func (s *CreateEntryRequestSuite) TestValidRequest() {
	memberID := uuid.NewString()
	projectID := uuid.NewString()
	req := &CreateEntryRequest{
		MemberID:  memberID,
		ProjectID: projectID,
		Date:      "2026-04-07",
		Hours:     7.75,
		Comment:   "sprint work",
	}

	s.Require().NoError(req.Validate())
	s.Equal(memberID, req.parsedMemberID.String())
	s.Equal(projectID, req.parsedProjectID.String())
	s.Equal(id.Date(2026, 4, 7), req.parsedDate)
}

func (s *CreateEntryRequestSuite) TestMemberIDIsOptional() {
	req := &CreateEntryRequest{
		ProjectID: uuid.NewString(),
		Date:      "2026-04-07",
		Hours:     8,
	}

	s.Require().NoError(req.Validate())
	s.Equal(id.MemberID{}, req.parsedMemberID)
}

func (s *CreateEntryRequestSuite) TestRejectsInvalidInput() {
	projectID := uuid.NewString()
	cases := []struct {
		name string
		req  CreateEntryRequest
	}{
		{"bad member id", CreateEntryRequest{MemberID: "not-a-uuid", ProjectID: projectID, Date: "2026-04-07"}},
		{"missing project", CreateEntryRequest{Date: "2026-04-07"}},
		{"bad date", CreateEntryRequest{ProjectID: projectID, Date: "April 7th"}},
		{"missing date", CreateEntryRequest{ProjectID: projectID}},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Error(tc.req.Validate())
		})
	}
}

func (s *CreateEntryRequestSuite) TestNilRequest() {
	var req *CreateEntryRequest
	s.Error(req.Validate())
}

type ReviewEntryRequestSuite struct {
	suite.Suite
}

func TestReviewEntryRequestSuite(t *testing.T) {
	suite.Run(t, new(ReviewEntryRequestSuite))
}

func (s *ReviewEntryRequestSuite) TestNormalizesStatus() {
	req := &ReviewEntryRequest{Status: " approved "}

	s.Require().NoError(req.Validate())
	s.Equal(models.StatusApproved, req.parsedStatus)
}

func (s *ReviewEntryRequestSuite) TestCarriesReason() {
	req := &ReviewEntryRequest{Status: "REJECTED", Reason: "wrong project"}

	s.Require().NoError(req.Validate())
	s.Equal(models.StatusRejected, req.parsedStatus)
	s.Equal("wrong project", req.Reason)
}

func (s *ReviewEntryRequestSuite) TestRejectsUnknownStatus() {
	req := &ReviewEntryRequest{Status: "DONE"}
	s.Error(req.Validate())
}

func (s *ReviewEntryRequestSuite) TestNilRequest() {
	var req *ReviewEntryRequest
	s.Error(req.Validate())
}
