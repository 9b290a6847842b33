package campaign

import (
	"crypto/rand"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the shared context the campaign steps use.
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	LastStatus() int
	ResponseField(field string) (interface{}, error)
}

// RegisterSteps registers campaign lifecycle step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &campaignSteps{tc: tc}

	ctx.Step(`^a draft mentorship campaign named "([^"]*)" exists$`, steps.draftCampaignExists)
	ctx.Step(`^I transition the campaign to "([^"]*)"$`, steps.transitionCampaign)
	ctx.Step(`^I transition the campaign to "([^"]*)" with reason "([^"]*)"$`, steps.transitionCampaignWithReason)
	ctx.Step(`^I archive the campaign$`, steps.archiveCampaign)
	ctx.Step(`^I fetch the campaign$`, steps.fetchCampaign)
	ctx.Step(`^the campaign status should be "([^"]*)"$`, steps.campaignStatusShouldBe)
	ctx.Step(`^a program instance is planned for the campaign$`, steps.planInstance)
	ctx.Step(`^(\d+) volunteers join the instance$`, steps.volunteersJoin)
	ctx.Step(`^the rollup job runs$`, steps.runRollup)
}

type campaignSteps struct {
	tc         TestContext
	campaignID string
	instanceID string
}

func newUUID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

func (s *campaignSteps) draftCampaignExists(name string) error {
	body := map[string]interface{}{
		"company_id":           newUUID(),
		"program_template_id":  newUUID(),
		"beneficiary_group_id": newUUID(),
		"name":                 name,
		"program_type":         "mentorship",
		"program_config": map[string]interface{}{
			"sessions_per_month": 2,
			"session_minutes":    60,
			"pairing_ratio":      1,
		},
		"pricing_model": "seats",
		"pricing": map[string]interface{}{
			"committed_seats": 40,
			"price_per_seat":  150,
		},
		"target_volunteers":    40,
		"target_beneficiaries": 40,
		"budget_allocated":     20000,
		"start_date":           "2026-09-01T00:00:00Z",
		"end_date":             "2027-03-01T00:00:00Z",
	}
	if err := s.tc.POST("/campaigns", body); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("campaign creation failed with status %d", s.tc.LastStatus())
	}
	return s.captureID(&s.campaignID)
}

func (s *campaignSteps) captureID(target *string) error {
	value, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	*target = fmt.Sprintf("%v", value)
	return nil
}

func (s *campaignSteps) transitionCampaign(target string) error {
	return s.tc.POST("/campaigns/"+s.campaignID+"/transition", map[string]interface{}{
		"target_status": target,
	})
}

func (s *campaignSteps) transitionCampaignWithReason(target, reason string) error {
	return s.tc.POST("/campaigns/"+s.campaignID+"/transition", map[string]interface{}{
		"target_status": target,
		"reason":        reason,
	})
}

func (s *campaignSteps) archiveCampaign() error {
	return s.tc.POST("/campaigns/"+s.campaignID+"/archive", nil)
}

func (s *campaignSteps) fetchCampaign() error {
	return s.tc.GET("/campaigns/" + s.campaignID)
}

func (s *campaignSteps) campaignStatusShouldBe(expected string) error {
	status, err := s.tc.ResponseField("status")
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", status) != expected {
		return fmt.Errorf("expected campaign status %q, got %v", expected, status)
	}
	return nil
}

func (s *campaignSteps) planInstance() error {
	body := map[string]interface{}{
		"start_date": "2026-09-01T00:00:00Z",
		"end_date":   "2026-12-01T00:00:00Z",
	}
	if err := s.tc.POST("/campaigns/"+s.campaignID+"/instances", body); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("instance planning failed with status %d", s.tc.LastStatus())
	}
	return s.captureID(&s.instanceID)
}

func (s *campaignSteps) volunteersJoin(count int) error {
	for i := 0; i < count; i++ {
		body := map[string]interface{}{"kind": "volunteer_joined"}
		if err := s.tc.POST("/instances/"+s.instanceID+"/activity", body); err != nil {
			return err
		}
		if s.tc.LastStatus() != 201 {
			return fmt.Errorf("activity logging failed with status %d", s.tc.LastStatus())
		}
	}
	return nil
}

func (s *campaignSteps) runRollup() error {
	if err := s.tc.POST("/rollup/run", nil); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("rollup run failed with status %d", s.tc.LastStatus())
	}
	return nil
}
