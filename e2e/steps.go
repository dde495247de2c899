package e2e

import (
	"github.com/cucumber/godog"

	"tempus/e2e/steps/approval"
	"tempus/e2e/steps/common"
	"tempus/e2e/steps/worklog"
)

// RegisterSteps wires all step definitions from the modular packages.
func RegisterSteps(sc *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(sc, tc)
	worklog.RegisterSteps(sc, tc)
	approval.RegisterSteps(sc, tc)
}
