package approval

import (
	"net/url"

	"github.com/cucumber/godog"

	"tempus/e2e/steps/common"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	POST(path string, body map[string]any) error
	GET(path string) error
	LastStatus() int
	Field(path string) (any, error)
	Remember(key, value string)
	Recall(key string) (string, error)
}

// RegisterSteps wires monthly approval steps.
func RegisterSteps(sc *godog.ScenarioContext, tc TestContext) {
	s := &approvalSteps{tc: tc}

	sc.Step(`^I submit the month containing "([^"]*)"$`, s.submitMonth)
	sc.Step(`^I approve that approval$`, s.approve)
	sc.Step(`^I reject that approval with reason "([^"]*)"$`, s.reject)
	sc.Step(`^I look up the approval for the month containing "([^"]*)"$`, s.lookupMonth)
}

type approvalSteps struct {
	tc TestContext
}

func (s *approvalSteps) submitMonth(anchor string) error {
	if err := s.tc.POST("/v1/approvals", map[string]any{"anchor": anchor}); err != nil {
		return err
	}
	if s.tc.LastStatus() == 200 {
		approvalID, err := s.tc.Field("approval_id")
		if err != nil {
			return err
		}
		s.tc.Remember("approval", common.FormatValue(approvalID))
	}
	return nil
}

func (s *approvalSteps) approve() error {
	approvalID, err := s.tc.Recall("approval")
	if err != nil {
		return err
	}
	return s.tc.POST("/v1/approvals/"+approvalID+"/approve", nil)
}

func (s *approvalSteps) reject(reason string) error {
	approvalID, err := s.tc.Recall("approval")
	if err != nil {
		return err
	}
	return s.tc.POST("/v1/approvals/"+approvalID+"/reject", map[string]any{"reason": reason})
}

func (s *approvalSteps) lookupMonth(anchor string) error {
	return s.tc.GET("/v1/approvals/current?anchor=" + url.QueryEscape(anchor))
}
