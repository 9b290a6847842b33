package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tangible/internal/campaign/lifecycle"
	"tangible/internal/campaign/models"
	"tangible/internal/campaign/store/memory"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/audit"
	auditmemory "tangible/pkg/platform/audit/store/memory"
	"tangible/pkg/platform/audit/publisher"
)

// =============================================================================
// Campaign Service Test Suite
// =============================================================================
// Justification: the service owns the compare-and-swap loop and the
// audit side effects; the state machine itself is covered in the
// lifecycle package.

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	store      *memory.InMemoryStore
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
	s.auditStore = auditmemory.NewInMemoryStore()
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.svc = NewService(s.store, lifecycle.DefaultPolicy(),
		WithAudit(publisher.NewPublisher(s.auditStore)),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ServiceSuite) createParams() models.NewCampaignParams {
	return models.NewCampaignParams{
		CompanyID:          id.NewCompanyID(),
		ProgramTemplateID:  id.NewProgramTemplateID(),
		BeneficiaryGroupID: id.NewBeneficiaryGroupID(),
		Name:               "Language Spring Cohort",
		ProgramType:        id.ProgramTypeLanguage,
		ProgramConfig:      models.LanguageConfig{TargetLevel: "B1", GroupSize: 8, WeeklySessions: 2},
		PricingModel:       id.PricingModelCredits,
		Pricing:            models.CreditsPricing{CreditAllocation: 500, PricePerCredit: 40},
		TargetVolunteers:   20,
		BudgetAllocated:    20000,
		StartDate:          s.now,
		EndDate:            s.now.AddDate(0, 6, 0),
	}
}

func (s *ServiceSuite) createCampaign() *models.Campaign {
	c, err := s.svc.Create(s.ctx, s.createParams())
	s.Require().NoError(err)
	return c
}

// advance walks a campaign to the requested status through the table.
func (s *ServiceSuite) advance(c *models.Campaign, target models.CampaignStatus) *models.Campaign {
	path := map[models.CampaignStatus][]models.CampaignStatus{
		models.StatusPlanned:    {models.StatusPlanned},
		models.StatusRecruiting: {models.StatusPlanned, models.StatusRecruiting},
		models.StatusActive:     {models.StatusPlanned, models.StatusRecruiting, models.StatusActive},
		models.StatusCompleted:  {models.StatusPlanned, models.StatusRecruiting, models.StatusActive, models.StatusCompleted},
	}[target]

	current := c
	for _, step := range path {
		if step == models.StatusActive {
			// Satisfy the recruiting -> active volunteer guard.
			withVolunteers, err := s.svc.ApplyCounters(s.ctx, current.ID, Counters{CurrentVolunteers: 10})
			s.Require().NoError(err)
			current = withVolunteers
		}
		next, err := s.svc.Transition(s.ctx, current.ID, lifecycle.Request{Target: step})
		s.Require().NoError(err)
		current = next
	}
	return current
}

func (s *ServiceSuite) TestCreateEmitsAudit() {
	c := s.createCampaign()
	s.Equal(models.StatusDraft, c.Status)
	s.Equal(int64(1), c.Version)

	events, err := s.auditStore.ListByCompany(s.ctx, c.CompanyID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventCampaignCreated), events[0].Action)
	s.Equal(audit.CategoryCompliance, events[0].Category)
}

func (s *ServiceSuite) TestCreateRejectsInvariantViolation() {
	params := s.createParams()
	params.BudgetAllocated = 10000
	// Exceeds the allocation; the constructor must reject, not clamp.
	params.BudgetSpent = 12000
	_, err := s.svc.Create(s.ctx, params)
	s.True(derrors.Is(err, derrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestTransitionBumpsVersion() {
	c := s.createCampaign()
	next, err := s.svc.Transition(s.ctx, c.ID, lifecycle.Request{Target: models.StatusPlanned})
	s.Require().NoError(err)
	s.Equal(models.StatusPlanned, next.Status)
	s.Equal(c.Version+1, next.Version)

	events, err := s.auditStore.ListByCompany(s.ctx, c.CompanyID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventCampaignTransitioned), events[1].Action)
	s.Equal("planned", events[1].Decision)
}

func (s *ServiceSuite) TestTransitionRejectsSkippedStates() {
	c := s.createCampaign()
	_, err := s.svc.Transition(s.ctx, c.ID, lifecycle.Request{Target: models.StatusActive})
	s.True(derrors.Is(err, derrors.CodeInvalidTransition))
}

func (s *ServiceSuite) TestTransitionUnknownCampaign() {
	_, err := s.svc.Transition(s.ctx, id.NewCampaignID(), lifecycle.Request{Target: models.StatusPlanned})
	s.True(derrors.Is(err, derrors.CodeNotFound))
}

func (s *ServiceSuite) TestTransitionCascadesOnClose() {
	var cascaded []models.CampaignStatus
	s.svc = NewService(s.store, lifecycle.DefaultPolicy(),
		WithClock(func() time.Time { return s.now }),
		WithCascade(func(_ context.Context, parent models.Campaign) error {
			cascaded = append(cascaded, parent.Status)
			return nil
		}),
	)

	c := s.createCampaign()
	_, err := s.svc.Transition(s.ctx, c.ID, lifecycle.Request{Target: models.StatusClosed, Reason: "contract cancelled"})
	s.Require().NoError(err)
	s.Equal([]models.CampaignStatus{models.StatusClosed}, cascaded)
}

func (s *ServiceSuite) TestGetDerivesFlags() {
	c := s.createCampaign()
	_, err := s.svc.ApplyCounters(s.ctx, c.ID, Counters{CurrentVolunteers: 18})
	s.Require().NoError(err)

	got, flags, err := s.svc.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(18, got.CurrentVolunteers)
	s.Require().NotNil(flags)
	s.InDelta(0.9, flags.CapacityUtilization, 1e-9)
	s.True(flags.IsNearCapacity)
	s.False(flags.IsOverCapacity)
}

func (s *ServiceSuite) TestApplyCountersRejectsOverspend() {
	c := s.createCampaign()
	_, err := s.svc.ApplyCounters(s.ctx, c.ID, Counters{BudgetSpent: 25000})
	s.True(derrors.Is(err, derrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestArchiveRequiresTerminalStatus() {
	c := s.createCampaign()

	_, err := s.svc.Archive(s.ctx, c.ID)
	s.True(derrors.Is(err, derrors.CodePreconditionNotMet))

	completed := s.advance(c, models.StatusCompleted)
	archived, err := s.svc.Archive(s.ctx, completed.ID)
	s.Require().NoError(err)
	s.True(archived.IsArchived)

	// Archiving twice is a no-op, not an error.
	again, err := s.svc.Archive(s.ctx, completed.ID)
	s.Require().NoError(err)
	s.True(again.IsArchived)
	s.Equal(archived.Version, again.Version)
}

func (s *ServiceSuite) TestActivationGuardUsesPolicy() {
	c := s.createCampaign()
	planned, err := s.svc.Transition(s.ctx, c.ID, lifecycle.Request{Target: models.StatusPlanned})
	s.Require().NoError(err)
	recruiting, err := s.svc.Transition(s.ctx, planned.ID, lifecycle.Request{Target: models.StatusRecruiting})
	s.Require().NoError(err)

	// Below the minimum viable volunteer threshold.
	_, err = s.svc.Transition(s.ctx, recruiting.ID, lifecycle.Request{Target: models.StatusActive})
	s.True(derrors.Is(err, derrors.CodePreconditionNotMet))

	_, err = s.svc.ApplyCounters(s.ctx, recruiting.ID, Counters{CurrentVolunteers: lifecycle.DefaultMinViableVolunteers})
	s.Require().NoError(err)
	active, err := s.svc.Transition(s.ctx, recruiting.ID, lifecycle.Request{Target: models.StatusActive})
	s.Require().NoError(err)
	s.Equal(models.StatusActive, active.Status)
}
