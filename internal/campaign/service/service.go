// Package service orchestrates campaign persistence, lifecycle
// transitions, and the audit/metrics side effects. Domain rules live in
// the models and lifecycle packages; this layer owns the
// compare-and-swap loop the state machines push to their caller.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tangible/internal/campaign/lifecycle"
	"tangible/internal/campaign/models"
	"tangible/internal/campaign/store"
	"tangible/internal/platform/metrics"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/audit"
	"tangible/pkg/platform/audit/publisher"
	"tangible/pkg/platform/sentinel"
)

// casRetries bounds how often a conflicting transition is retried
// against a fresh snapshot before giving up with a conflict error.
const casRetries = 3

// CascadeFunc is invoked after a campaign reaches completed or closed
// so dependent program instances can follow.
type CascadeFunc func(ctx context.Context, parent models.Campaign) error

// Counters carries the rollup-derived aggregate values applied to a
// campaign. Transitions never touch these fields; this is the only
// write path for them.
type Counters struct {
	CurrentVolunteers    int
	CurrentBeneficiaries int
	CreditsConsumed      float64
	LearnersServed       int
	BudgetSpent          float64
}

type Service struct {
	store   store.Store
	policy  lifecycle.Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *publisher.Publisher
	cascade CascadeFunc
	now     func() time.Time
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

func WithCascade(fn CascadeFunc) Option {
	return func(s *Service) { s.cascade = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, policy lifecycle.Policy, opts ...Option) *Service {
	s := &Service{
		store:  st,
		policy: policy,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and persists a new draft campaign.
func (s *Service) Create(ctx context.Context, params models.NewCampaignParams) (*models.Campaign, error) {
	c, err := models.NewCampaign(params, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create campaign")
	}

	if s.metrics != nil {
		s.metrics.IncrementCampaignsCreated()
	}
	s.emitAudit(ctx, audit.Event{
		CompanyID: c.CompanyID,
		Subject:   c.ID.String(),
		Action:    string(audit.EventCampaignCreated),
	})
	return c, nil
}

// Get returns the campaign with its recomputed derived flags.
func (s *Service) Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, *lifecycle.DerivedFlags, error) {
	c, err := s.store.Get(ctx, campaignID)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	flags := lifecycle.Derive(*c, s.policy)
	return c, &flags, nil
}

// Flags recomputes derived flags for a snapshot. Every surface uses
// this one formula.
func (s *Service) Flags(c models.Campaign) lifecycle.DerivedFlags {
	return lifecycle.Derive(c, s.policy)
}

// List returns a filtered page of campaigns plus the unpaged total.
func (s *Service) List(ctx context.Context, filter store.ListFilter) ([]models.Campaign, int, error) {
	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, derrors.Wrap(err, derrors.CodeInternal, "failed to list campaigns")
	}
	return items, total, nil
}

// Transition applies a lifecycle transition under the optimistic
// concurrency guard. On a version conflict the snapshot is reloaded and
// the transition re-evaluated, so a request that raced a compatible
// update still succeeds while a genuinely conflicting one is rejected
// by the state machine on the fresh state.
func (s *Service) Transition(ctx context.Context, campaignID id.CampaignID, req lifecycle.Request) (*models.Campaign, error) {
	var next models.Campaign
	for attempt := 0; ; attempt++ {
		current, err := s.store.Get(ctx, campaignID)
		if err != nil {
			return nil, mapStoreErr(err)
		}

		next, err = lifecycle.Transition(*current, req, s.policy, s.now())
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
			return nil, derrors.New(derrors.CodeConflict, "campaign was concurrently modified, retry the transition")
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveCampaignTransition(string(req.Target))
	}
	s.emitAudit(ctx, audit.Event{
		CompanyID: next.CompanyID,
		Subject:   next.ID.String(),
		Action:    string(audit.EventCampaignTransitioned),
		Decision:  string(req.Target),
		Reason:    req.Reason,
	})

	if s.cascade != nil && (next.Status == models.StatusCompleted || next.Status == models.StatusClosed) {
		if err := s.cascade(ctx, next); err != nil {
			// The campaign transition already committed; cascading is
			// retried by the scheduler, so log and return the campaign.
			s.logger.ErrorContext(ctx, "instance cascade failed",
				"campaign_id", next.ID,
				"status", next.Status,
				"error", err,
			)
		}
	}
	return &next, nil
}

// Archive flags a terminal campaign as archived. Campaigns are never
// physically deleted while evidence references them.
func (s *Service) Archive(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	for attempt := 0; ; attempt++ {
		current, err := s.store.Get(ctx, campaignID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		if current.Status != models.StatusCompleted && current.Status != models.StatusClosed {
			return nil, derrors.Newf(derrors.CodePreconditionNotMet,
				"only completed or closed campaigns can be archived, status is %s", current.Status)
		}
		if current.IsArchived {
			return current, nil
		}

		next := *current
		next.IsArchived = true
		next.Version = current.Version + 1
		next.UpdatedAt = s.now()

		err = s.store.Update(ctx, &next, current.Version)
		if err == nil {
			s.emitAudit(ctx, audit.Event{
				CompanyID: next.CompanyID,
				Subject:   next.ID.String(),
				Action:    string(audit.EventCampaignArchived),
			})
			return &next, nil
		}
		if !errors.Is(err, sentinel.ErrVersionMismatch) {
			return nil, mapStoreErr(err)
		}
		if attempt+1 >= casRetries {
			return nil, derrors.New(derrors.CodeConflict, "campaign was concurrently modified, retry archival")
		}
	}
}

// ApplyCounters writes rollup-derived aggregates onto the campaign.
// The budget invariant is re-checked: a rollup that would push spend
// past the allocation is rejected, not clamped.
func (s *Service) ApplyCounters(ctx context.Context, campaignID id.CampaignID, counters Counters) (*models.Campaign, error) {
	for attempt := 0; ; attempt++ {
		current, err := s.store.Get(ctx, campaignID)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		if counters.BudgetSpent > current.BudgetAllocated {
			return nil, derrors.Newf(derrors.CodeInvariantViolation,
				"budget_spent %.2f cannot exceed budget_allocated %.2f",
				counters.BudgetSpent, current.BudgetAllocated)
		}
		if counters.BudgetSpent < 0 || counters.CurrentVolunteers < 0 || counters.CurrentBeneficiaries < 0 || counters.LearnersServed < 0 {
			return nil, derrors.New(derrors.CodeInvariantViolation, "rollup counters cannot be negative")
		}

		next := *current
		next.CurrentVolunteers = counters.CurrentVolunteers
		next.CurrentBeneficiaries = counters.CurrentBeneficiaries
		next.CreditsConsumed = counters.CreditsConsumed
		next.LearnersServed = counters.LearnersServed
		next.BudgetSpent = counters.BudgetSpent
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
			return nil, derrors.New(derrors.CodeConflict, "campaign was concurrently modified, retry the rollup")
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
		return derrors.New(derrors.CodeNotFound, "campaign not found")
	case errors.Is(err, sentinel.ErrConflict):
		return derrors.New(derrors.CodeConflict, "campaign already exists")
	case errors.Is(err, sentinel.ErrVersionMismatch):
		return derrors.New(derrors.CodeConflict, "campaign was concurrently modified")
	default:
		return derrors.Wrap(err, derrors.CodeInternal, "campaign store failure")
	}
}
