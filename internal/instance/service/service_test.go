package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	campaignmodels "tangible/internal/campaign/models"
	campaignmemory "tangible/internal/campaign/store/memory"
	"tangible/internal/instance/lifecycle"
	"tangible/internal/instance/models"
	"tangible/internal/instance/store/memory"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/audit"
	"tangible/pkg/platform/audit/publisher"
	auditmemory "tangible/pkg/platform/audit/store/memory"
)

// =============================================================================
// Instance Service Test Suite
// =============================================================================
// Justification: the service owns the parent gate re-read, the cascade
// sweep, and the compare-and-swap loop; the bare state machine is
// covered in the lifecycle package.

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *memory.InMemoryStore
	campaigns  *campaignmemory.InMemoryStore
	auditStore *auditmemory.InMemoryStore
	svc        *Service
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewInMemoryStore()
	s.campaigns = campaignmemory.NewInMemoryStore()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.svc = NewService(s.store, s.campaigns,
		WithAudit(publisher.NewPublisher(s.auditStore)),
		WithClock(func() time.Time { return s.now }),
	)
}

// createCampaign persists a parent campaign directly in the given
// status; campaign transition mechanics are covered elsewhere.
func (s *ServiceSuite) createCampaign(status campaignmodels.CampaignStatus) *campaignmodels.Campaign {
	groupSize := 12
	c, err := campaignmodels.NewCampaign(campaignmodels.NewCampaignParams{
		CompanyID:        id.NewCompanyID(),
		Name:             "Language Spring Cohort",
		ProgramType:      id.ProgramTypeLanguage,
		ProgramConfig:    campaignmodels.LanguageConfig{TargetLevel: "B1", GroupSize: 8, WeeklySessions: 2},
		Overrides:        campaignmodels.ConfigOverrides{GroupSize: &groupSize},
		PricingModel:     id.PricingModelCredits,
		Pricing:          campaignmodels.CreditsPricing{CreditAllocation: 500, PricePerCredit: 40},
		TargetVolunteers: 20,
		BudgetAllocated:  20000,
		StartDate:        s.now,
		EndDate:          s.now.AddDate(0, 6, 0),
	}, s.now)
	s.Require().NoError(err)
	c.Status = status
	s.Require().NoError(s.campaigns.Create(s.ctx, c))
	return c
}

func (s *ServiceSuite) plan(c *campaignmodels.Campaign) *models.ProgramInstance {
	inst, err := s.svc.Plan(s.ctx, c.ID, s.now, s.now.AddDate(0, 3, 0))
	s.Require().NoError(err)
	return inst
}

func (s *ServiceSuite) TestPlanDenormalizesConfig() {
	c := s.createCampaign(campaignmodels.StatusActive)
	inst := s.plan(c)

	s.Equal(models.StatusPlanned, inst.Status)
	s.Equal(c.ID, inst.CampaignID)

	cfg, ok := inst.Config.(campaignmodels.LanguageConfig)
	s.Require().True(ok)
	// Campaign override wins over the template group size.
	s.Equal(12, cfg.GroupSize)
	s.Equal("B1", cfg.TargetLevel)

	events, err := s.auditStore.ListByCompany(s.ctx, c.CompanyID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventInstanceCreated), events[0].Action)
}

func (s *ServiceSuite) TestPlanRejectsTerminalCampaign() {
	c := s.createCampaign(campaignmodels.StatusClosed)
	_, err := s.svc.Plan(s.ctx, c.ID, s.now, s.now.AddDate(0, 3, 0))
	s.True(derrors.Is(err, derrors.CodePreconditionNotMet))
}

func (s *ServiceSuite) TestPlanUnknownCampaign() {
	_, err := s.svc.Plan(s.ctx, id.NewCampaignID(), s.now, s.now.AddDate(0, 3, 0))
	s.True(derrors.Is(err, derrors.CodeNotFound))
}

func (s *ServiceSuite) TestTransitionGatedByParentStatus() {
	c := s.createCampaign(campaignmodels.StatusDraft)
	inst := s.plan(c)

	// A draft parent blocks activation.
	_, err := s.svc.Transition(s.ctx, inst.ID, lifecycle.Request{Target: models.StatusActive})
	s.True(derrors.Is(err, derrors.CodePreconditionNotMet))

	// A planned parent already carries runnable instances, so the same
	// request succeeds.
	parent, err := s.campaigns.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	updated := *parent
	updated.Status = campaignmodels.StatusPlanned
	updated.Version = parent.Version + 1
	s.Require().NoError(s.campaigns.Update(s.ctx, &updated, parent.Version))

	active, err := s.svc.Transition(s.ctx, inst.ID, lifecycle.Request{Target: models.StatusActive})
	s.Require().NoError(err)
	s.Equal(models.StatusActive, active.Status)
	s.Equal(inst.Version+1, active.Version)
}

func (s *ServiceSuite) TestTransitionEmitsAudit() {
	c := s.createCampaign(campaignmodels.StatusActive)
	inst := s.plan(c)

	_, err := s.svc.Transition(s.ctx, inst.ID, lifecycle.Request{Target: models.StatusActive, Reason: "cohort kickoff"})
	s.Require().NoError(err)

	events, err := s.auditStore.ListByCompany(s.ctx, c.CompanyID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventInstanceTransitioned), events[1].Action)
	s.Equal("active", events[1].Decision)
	s.Equal("cohort kickoff", events[1].Reason)
}

func (s *ServiceSuite) TestTransitionRejectsSkippedStates() {
	c := s.createCampaign(campaignmodels.StatusActive)
	inst := s.plan(c)

	_, err := s.svc.Transition(s.ctx, inst.ID, lifecycle.Request{Target: models.StatusPaused})
	s.True(derrors.Is(err, derrors.CodeInvalidTransition))
}

func (s *ServiceSuite) TestCascadeForCampaign() {
	c := s.createCampaign(campaignmodels.StatusActive)
	planned := s.plan(c)
	running := s.plan(c)
	_, err := s.svc.Transition(s.ctx, running.ID, lifecycle.Request{Target: models.StatusActive})
	s.Require().NoError(err)
	done := s.plan(c)
	_, err = s.svc.Transition(s.ctx, done.ID, lifecycle.Request{Target: models.StatusActive})
	s.Require().NoError(err)
	_, err = s.svc.Transition(s.ctx, done.ID, lifecycle.Request{Target: models.StatusCompleted})
	s.Require().NoError(err)

	parent := *c
	parent.Status = campaignmodels.StatusClosed
	s.Require().NoError(s.svc.CascadeForCampaign(s.ctx, parent))

	for _, instID := range []id.InstanceID{planned.ID, running.ID, done.ID} {
		got, err := s.svc.Get(s.ctx, instID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, got.Status)
	}

	swept, err := s.svc.Get(s.ctx, planned.ID)
	s.Require().NoError(err)
	s.Equal("campaign closed", swept.StatusReason)

	// The already-completed instance keeps its own reason and version.
	untouched, err := s.svc.Get(s.ctx, done.ID)
	s.Require().NoError(err)
	s.NotEqual("campaign closed", untouched.StatusReason)
}

func (s *ServiceSuite) TestListOverdue() {
	c := s.createCampaign(campaignmodels.StatusActive)
	inst := s.plan(c)
	_, err := s.svc.Transition(s.ctx, inst.ID, lifecycle.Request{Target: models.StatusActive})
	s.Require().NoError(err)

	items, total, err := s.svc.ListOverdue(s.ctx, s.now.AddDate(0, 4, 0), 20, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(items, 1)
	s.Equal(inst.ID, items[0].ID)

	// Before the end date nothing is overdue.
	items, total, err = s.svc.ListOverdue(s.ctx, s.now.AddDate(0, 1, 0), 20, 0)
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(items)
}

func (s *ServiceSuite) TestApplyMetrics() {
	c := s.createCampaign(campaignmodels.StatusActive)
	inst := s.plan(c)

	sroi := 3.4
	got, err := s.svc.ApplyMetrics(s.ctx, inst.ID, Metrics{
		EnrolledVolunteers:    14,
		EnrolledBeneficiaries: 24,
		TotalSessionsHeld:     31,
		TotalHoursLogged:      62.5,
		SROIScore:             &sroi,
		OutcomeScores:         map[id.OutcomeDimension]float64{id.DimensionConfidence: 0.71},
		VolunteersConsumed:    14,
		CreditsConsumed:       120,
		LearnersServed:        24,
	})
	s.Require().NoError(err)
	s.Equal(14, got.EnrolledVolunteers)
	s.Require().NotNil(got.SROIScore)
	s.InDelta(3.4, *got.SROIScore, 1e-9)
	s.InDelta(0.71, got.OutcomeScores[id.DimensionConfidence], 1e-9)
	s.Equal(inst.Version+1, got.Version)
}

func (s *ServiceSuite) TestApplyMetricsRejectsOutOfRangeScore() {
	c := s.createCampaign(campaignmodels.StatusActive)
	inst := s.plan(c)

	_, err := s.svc.ApplyMetrics(s.ctx, inst.ID, Metrics{
		OutcomeScores: map[id.OutcomeDimension]float64{id.DimensionConfidence: 1.2},
	})
	s.True(derrors.Is(err, derrors.CodeInvariantViolation))

	_, err = s.svc.ApplyMetrics(s.ctx, inst.ID, Metrics{EnrolledVolunteers: -1})
	s.True(derrors.Is(err, derrors.CodeInvariantViolation))
}
