package common

import (
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	ProvisionTenant(members map[string]string) error
	ActAs(name string) error
	ActAnonymously()
	LastStatus() int
	LastBody() string
	Field(path string) (any, error)
}

// RegisterSteps wires background and generic assertion steps.
func RegisterSteps(sc *godog.ScenarioContext, tc TestContext) {
	s := &commonSteps{tc: tc}

	sc.Step(`^a fresh tenant with a manager "([^"]*)" and a member "([^"]*)"$`, s.freshTenant)
	sc.Step(`^I act as "([^"]*)"$`, s.actAs)
	sc.Step(`^I have no identity headers$`, s.actAnonymously)

	sc.Step(`^the response status should be (\d+)$`, s.statusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, s.fieldShouldBe)
	sc.Step(`^the response should have field "([^"]*)"$`, s.fieldShouldBePresent)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) freshTenant(manager, member string) error {
	return s.tc.ProvisionTenant(map[string]string{
		manager: "manager",
		member:  "member",
	})
}

func (s *commonSteps) actAs(name string) error {
	return s.tc.ActAs(name)
}

func (s *commonSteps) actAnonymously() error {
	s.tc.ActAnonymously()
	return nil
}

func (s *commonSteps) statusShouldBe(want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("status %d, want %d; body: %s", got, want, s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldBe(path, want string) error {
	got, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	if FormatValue(got) != want {
		return fmt.Errorf("field %q = %v, want %s", path, got, want)
	}
	return nil
}

func (s *commonSteps) fieldShouldBePresent(path string) error {
	_, err := s.tc.Field(path)
	return err
}

// FormatValue renders a decoded JSON value the way it reads in a feature
// file: numbers without a trailing ".0", nil as the empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
