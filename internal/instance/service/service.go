// Package service orchestrates program instance persistence, the
// parent-gated lifecycle transitions, and the cascade applied when a
// campaign terminates. Domain rules live in the models and lifecycle
// packages; this layer owns the compare-and-swap loop.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	campaignmodels "tangible/internal/campaign/models"
	campaignstore "tangible/internal/campaign/store"
	"tangible/internal/instance/lifecycle"
	"tangible/internal/instance/models"
	"tangible/internal/instance/store"
	"tangible/internal/platform/metrics"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/audit"
	"tangible/pkg/platform/audit/publisher"
	"tangible/pkg/platform/sentinel"
)

// casRetries bounds how often a conflicting write is retried against a
// fresh snapshot before giving up with a conflict error.
const casRetries = 3

// Metrics carries the rollup-derived per-instance values. Transitions
// never touch these fields; this is the only write path for them.
type Metrics struct {
	EnrolledVolunteers    int
	EnrolledBeneficiaries int
	ActivePairs           *int
	ActiveGroups          *int
	TotalSessionsHeld     int
	TotalHoursLogged      float64
	SROIScore             *float64
	AverageVISScore       *float64
	OutcomeScores         map[id.OutcomeDimension]float64
	VolunteersConsumed    int
	CreditsConsumed       float64
	LearnersServed        int
}

type Service struct {
	store     store.Store
	campaigns campaignstore.Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	audit     *publisher.Publisher
	now       func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(pub *publisher.Publisher) Option {
	return func(s *Service) { s.audit = pub }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, campaigns campaignstore.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		campaigns: campaigns,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan creates a new planned instance under a campaign. The instance
// receives a denormalized copy of the campaign's program config with
// overrides applied; later campaign edits do not propagate.
func (s *Service) Plan(ctx context.Context, campaignID id.CampaignID, startDate, endDate time.Time) (*models.ProgramInstance, error) {
	parent, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, mapCampaignErr(err)
	}
	if parent.IsArchived || parent.Status == campaignmodels.StatusCompleted || parent.Status == campaignmodels.StatusClosed {
		return nil, derrors.Newf(derrors.CodePreconditionNotMet,
			"cannot plan an instance under a %s campaign", parent.Status)
	}

	inst, err := models.NewProgramInstance(models.NewProgramInstanceParams{
		CampaignID:  parent.ID,
		ProgramType: parent.ProgramType,
		Config:      campaignmodels.MergeConfig(parent.ProgramConfig, parent.Overrides),
		StartDate:   startDate,
		EndDate:     endDate,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, inst); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create instance")
	}

	s.emitAudit(ctx, audit.Event{
		CompanyID: parent.CompanyID,
		Subject:   inst.ID.String(),
		Action:    string(audit.EventInstanceCreated),
	})
	return inst, nil
}

// Get returns a single instance.
func (s *Service) Get(ctx context.Context, instanceID id.InstanceID) (*models.ProgramInstance, error) {
	inst, err := s.store.Get(ctx, instanceID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return inst, nil
}

// List returns a filtered page of instances plus the unpaged total.
func (s *Service) List(ctx context.Context, filter store.ListFilter) ([]models.ProgramInstance, int, error) {
	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, derrors.Wrap(err, derrors.CodeInternal, "failed to list instances")
	}
	return items, total, nil
}

// Transition applies a lifecycle transition under the optimistic
// concurrency guard. The parent campaign's current status gates
// activation, so the campaign is re-read on every attempt.
func (s *Service) Transition(ctx context.Context, instanceID id.InstanceID, req lifecycle.Request) (*models.ProgramInstance, error) {
	var next models.ProgramInstance
	var companyID id.CompanyID
	for attempt := 0; ; attempt++ {
		current, err := s.store.Get(ctx, instanceID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		parent, err := s.campaigns.Get(ctx, current.CampaignID)
		if err != nil {
			return nil, mapCampaignErr(err)
		}
		companyID = parent.CompanyID

		next, err = lifecycle.Transition(*current, parent.Status, req, s.now())
		if err != nil {
			return nil, err
		}
		next.Version = current.Version + 1

		err = s.store.Update(ctx, &next, current.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrVersionMismatch) {
			return nil, mapStoreErr(err)
		}
		if s.metrics != nil {
			s.metrics.IncrementTransitionConflicts()
		}
		if attempt+1 >= casRetries {
			return nil, derrors.New(derrors.CodeConflict, "instance was concurrently modified, retry the transition")
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveInstanceTransition(string(req.Target))
	}
	s.emitAudit(ctx, audit.Event{
		CompanyID: companyID,
		Subject:   next.ID.String(),
		Action:    string(audit.EventInstanceTransitioned),
		Decision:  string(req.Target),
		Reason:    req.Reason,
	})
	return &next, nil
}

// CascadeForCampaign completes every non-completed instance of a
// terminated campaign. It satisfies the campaign service's CascadeFunc.
// Individual failures do not stop the sweep; the first error is
// returned after all instances were attempted so the scheduler retries.
func (s *Service) CascadeForCampaign(ctx context.Context, parent campaignmodels.Campaign) error {
	instances, err := s.store.ListByCampaign(ctx, parent.ID)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to list instances for cascade")
	}

	var firstErr error
	for _, inst := range instances {
		next, changed := lifecycle.CascadeFromCampaign(inst, parent.Status, s.now())
		if !changed {
			continue
		}
		next.Version = inst.Version + 1
		if err := s.store.Update(ctx, &next, inst.Version); err != nil {
			s.logger.ErrorContext(ctx, "instance cascade write failed",
				"instance_id", inst.ID,
				"campaign_id", parent.ID,
				"error", err,
			)
			if firstErr == nil {
				firstErr = mapStoreErr(err)
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.ObserveInstanceTransition(string(models.StatusCompleted))
		}
		s.emitAudit(ctx, audit.Event{
			CompanyID: parent.CompanyID,
			Subject:   next.ID.String(),
			Action:    string(audit.EventInstanceCascaded),
			Reason:    next.StatusReason,
		})
	}
	return firstErr
}

// ListOverdue returns instances that ran past their end date without
// completing. The scheduler transitions them explicitly; nothing
// auto-completes.
func (s *Service) ListOverdue(ctx context.Context, asOf time.Time, limit, offset int) ([]models.ProgramInstance, int, error) {
	return s.List(ctx, store.ListFilter{
		OverdueAsOf: &asOf,
		Limit:       limit,
		Offset:      offset,
		SortBy:      store.SortByEndDate,
		SortOrder:   "asc",
	})
}

// ApplyMetrics writes rollup-derived values onto the instance. Outcome
// scores outside [0,1] and negative counters are rejected, not clamped.
func (s *Service) ApplyMetrics(ctx context.Context, instanceID id.InstanceID, m Metrics) (*models.ProgramInstance, error) {
	if m.EnrolledVolunteers < 0 || m.EnrolledBeneficiaries < 0 || m.TotalSessionsHeld < 0 ||
		m.TotalHoursLogged < 0 || m.VolunteersConsumed < 0 || m.LearnersServed < 0 {
		return nil, derrors.New(derrors.CodeInvariantViolation, "rollup metrics cannot be negative")
	}
	for dim, score := range m.OutcomeScores {
		if !dim.IsValid() {
			return nil, derrors.Newf(derrors.CodeInvariantViolation, "unknown outcome dimension %q", dim)
		}
		if score < 0 || score > 1 {
			return nil, derrors.Newf(derrors.CodeInvariantViolation, "outcome score for %s must be in [0,1]", dim)
		}
	}

	for attempt := 0; ; attempt++ {
		current, err := s.store.Get(ctx, instanceID)
		if err != nil {
			return nil, mapStoreErr(err)
		}

		next := *current
		next.EnrolledVolunteers = m.EnrolledVolunteers
		next.EnrolledBeneficiaries = m.EnrolledBeneficiaries
		next.ActivePairs = m.ActivePairs
		next.ActiveGroups = m.ActiveGroups
		next.TotalSessionsHeld = m.TotalSessionsHeld
		next.TotalHoursLogged = m.TotalHoursLogged
		next.SROIScore = m.SROIScore
		next.AverageVISScore = m.AverageVISScore
		next.OutcomeScores = m.OutcomeScores
		next.VolunteersConsumed = m.VolunteersConsumed
		next.CreditsConsumed = m.CreditsConsumed
		next.LearnersServed = m.LearnersServed
		next.Version = current.Version + 1
		next.UpdatedAt = s.now()

		err = s.store.Update(ctx, &next, current.Version)
		if err == nil {
			return &next, nil
		}
		if !errors.Is(err, sentinel.ErrVersionMismatch) {
			return nil, mapStoreErr(err)
		}
		if attempt+1 >= casRetries {
			return nil, derrors.New(derrors.CodeConflict, "instance was concurrently modified, retry the rollup")
		}
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emission failed",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
	}
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return derrors.New(derrors.CodeNotFound, "instance not found")
	case errors.Is(err, sentinel.ErrConflict):
		return derrors.New(derrors.CodeConflict, "instance already exists")
	case errors.Is(err, sentinel.ErrVersionMismatch):
		return derrors.New(derrors.CodeConflict, "instance was concurrently modified")
	default:
		return derrors.Wrap(err, derrors.CodeInternal, "instance store failure")
	}
}

func mapCampaignErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return derrors.New(derrors.CodeNotFound, "campaign not found")
	}
	return derrors.Wrap(err, derrors.CodeInternal, "campaign store failure")
}
