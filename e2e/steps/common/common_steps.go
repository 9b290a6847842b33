package common

import (
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the shared context the common steps use.
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	LastStatus() int
	ResponseField(field string) (interface{}, error)
	Capture(name, field string) error
	Expand(s string) string
}

// RegisterSteps registers generic request and assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I send a GET request to "([^"]*)"$`, steps.sendGET)
	ctx.Step(`^I send a POST request to "([^"]*)" with body:$`, steps.sendPOSTWithBody)
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
	ctx.Step(`^the response should contain field "([^"]*)"$`, steps.responseShouldContainField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) sendGET(path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) sendPOSTWithBody(path string, body *godog.DocString) error {
	var decoded interface{}
	if err := json.Unmarshal([]byte(s.tc.Expand(body.Content)), &decoded); err != nil {
		return fmt.Errorf("invalid JSON in step body: %w", err)
	}
	return s.tc.POST(path, decoded)
}

func (s *commonSteps) responseStatusShouldBe(status int) error {
	if s.tc.LastStatus() != status {
		return fmt.Errorf("expected status %d, got %d", status, s.tc.LastStatus())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(field, expected string) error {
	value, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", value) != s.tc.Expand(expected) {
		return fmt.Errorf("expected %q to equal %q, got %v", field, expected, value)
	}
	return nil
}

func (s *commonSteps) responseShouldContainField(field string) error {
	_, err := s.tc.ResponseField(field)
	return err
}
