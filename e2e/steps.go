package e2e

import (
	"github.com/cucumber/godog"

	"tangible/e2e/steps/campaign"
	"tangible/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	campaign.RegisterSteps(ctx, tc)
}
