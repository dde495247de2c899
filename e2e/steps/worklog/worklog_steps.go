package worklog

import (
	"fmt"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"tempus/e2e/steps/common"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	POST(path string, body map[string]any) error
	PUT(path string, body map[string]any) error
	GET(path string) error
	DELETE(path string) error
	LastStatus() int
	LastBody() string
	Field(path string) (any, error)
	Remember(key, value string)
	Recall(key string) (string, error)
}

// RegisterSteps wires entry lifecycle and day-level command steps.
func RegisterSteps(sc *godog.ScenarioContext, tc TestContext) {
	s := &worklogSteps{tc: tc}

	sc.Step(`^I create an entry for "([^"]*)" with ([0-9.]+) hours$`, s.createEntry)
	sc.Step(`^I amend that entry to ([0-9.]+) hours$`, s.amendEntry)
	sc.Step(`^I fetch that entry$`, s.fetchEntry)
	sc.Step(`^I delete that entry$`, s.deleteEntry)
	sc.Step(`^I set that entry's status to "([^"]*)" with reason "([^"]*)"$`, s.reviewEntry)

	sc.Step(`^I submit the day "([^"]*)"$`, s.submitDay)
	sc.Step(`^I recall the day "([^"]*)"$`, s.recallDay)
	sc.Step(`^every returned entry should have status "([^"]*)"$`, s.entriesShouldHaveStatus)
}

type worklogSteps struct {
	tc TestContext
}

// projectID keeps one project per scenario so amend payloads can echo it.
func (s *worklogSteps) projectID() string {
	if p, err := s.tc.Recall("project"); err == nil {
		return p
	}
	p := uuid.NewString()
	s.tc.Remember("project", p)
	return p
}

func (s *worklogSteps) createEntry(date string, hours float64) error {
	err := s.tc.POST("/v1/entries", map[string]any{
		"project_id": s.projectID(),
		"date":       date,
		"hours":      hours,
		"comment":    "e2e entry",
	})
	if err != nil {
		return err
	}
	if s.tc.LastStatus() == 201 {
		entryID, err := s.tc.Field("entry_id")
		if err != nil {
			return err
		}
		s.tc.Remember("entry", common.FormatValue(entryID))
		s.tc.Remember("entry_date", date)
	}
	return nil
}

func (s *worklogSteps) amendEntry(hours float64) error {
	entryID, err := s.tc.Recall("entry")
	if err != nil {
		return err
	}
	date, err := s.tc.Recall("entry_date")
	if err != nil {
		return err
	}
	return s.tc.PUT("/v1/entries/"+entryID, map[string]any{
		"project_id": s.projectID(),
		"date":       date,
		"hours":      hours,
		"comment":    "e2e entry amended",
	})
}

func (s *worklogSteps) fetchEntry() error {
	entryID, err := s.tc.Recall("entry")
	if err != nil {
		return err
	}
	return s.tc.GET("/v1/entries/" + entryID)
}

func (s *worklogSteps) deleteEntry() error {
	entryID, err := s.tc.Recall("entry")
	if err != nil {
		return err
	}
	return s.tc.DELETE("/v1/entries/" + entryID)
}

func (s *worklogSteps) reviewEntry(status, reason string) error {
	entryID, err := s.tc.Recall("entry")
	if err != nil {
		return err
	}
	return s.tc.POST("/v1/entries/"+entryID+"/status", map[string]any{
		"status": status,
		"reason": reason,
	})
}

func (s *worklogSteps) submitDay(date string) error {
	return s.tc.POST("/v1/days/"+date+"/submit", nil)
}

func (s *worklogSteps) recallDay(date string) error {
	return s.tc.POST("/v1/days/"+date+"/recall", nil)
}

func (s *worklogSteps) entriesShouldHaveStatus(want string) error {
	v, err := s.tc.Field("entries")
	if err != nil {
		return err
	}
	entries, ok := v.([]any)
	if !ok {
		return fmt.Errorf("field entries is %T, want array", v)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no entries in response: %s", s.tc.LastBody())
	}
	for i, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			return fmt.Errorf("entries.%d is %T, want object", i, e)
		}
		if got := common.FormatValue(entry["status"]); got != want {
			return fmt.Errorf("entries.%d status %s, want %s", i, got, want)
		}
	}
	return nil
}
