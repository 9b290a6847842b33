// Package service runs the metric rollup: activity ingestion, the
// per-campaign re-derivation sweep, and the consumption alerts it
// raises. The pure fold lives in the replay package; campaign and
// instance writes go through their services so the optimistic
// concurrency and invariant checks apply here too.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	campaignmodels "tangible/internal/campaign/models"
	campaignservice "tangible/internal/campaign/service"
	campaignstore "tangible/internal/campaign/store"
	instancemodels "tangible/internal/instance/models"
	instanceservice "tangible/internal/instance/service"
	"tangible/internal/ledger"
	"tangible/internal/platform/metrics"
	"tangible/internal/rollup/models"
	"tangible/internal/rollup/replay"
	"tangible/internal/rollup/store"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/audit"
	"tangible/pkg/platform/audit/publisher"
	"tangible/pkg/platform/sentinel"
)

// defaultConcurrency bounds how many campaigns are rolled up at once.
const defaultConcurrency = 4

// CampaignService is the campaign surface the rollup writes through.
type CampaignService interface {
	List(ctx context.Context, filter campaignstore.ListFilter) ([]campaignmodels.Campaign, int, error)
	ApplyCounters(ctx context.Context, campaignID id.CampaignID, counters campaignservice.Counters) (*campaignmodels.Campaign, error)
}

// InstanceService is the instance surface the rollup writes through.
type InstanceService interface {
	ApplyMetrics(ctx context.Context, instanceID id.InstanceID, m instanceservice.Metrics) (*instancemodels.ProgramInstance, error)
}

// InstanceReader lists and reads instances without going through the
// instance service's write path.
type InstanceReader interface {
	Get(ctx context.Context, instanceID id.InstanceID) (*instancemodels.ProgramInstance, error)
	ListByCampaign(ctx context.Context, campaignID id.CampaignID) ([]instancemodels.ProgramInstance, error)
}

type Service struct {
	activity    store.Store
	campaigns   CampaignService
	instances   InstanceService
	reader      InstanceReader
	logger      *slog.Logger
	metrics     *metrics.Metrics
	audit       *publisher.Publisher
	now         func() time.Time
	concurrency int
	alerts      bool
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

// WithConcurrency bounds the campaign fan-out of a rollup run.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithConsumptionAlerts toggles over-consumption alerting. Counters are
// still re-derived when disabled.
func WithConsumptionAlerts(enabled bool) Option {
	return func(s *Service) { s.alerts = enabled }
}

func NewService(activity store.Store, campaigns CampaignService, instances InstanceService, reader InstanceReader, opts ...Option) *Service {
	s := &Service{
		activity:    activity,
		campaigns:   campaigns,
		instances:   instances,
		reader:      reader,
		logger:      slog.Default(),
		now:         time.Now,
		concurrency: defaultConcurrency,
		alerts:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Log appends one activity entry to an instance's log. The entry only
// becomes visible in counters after the next rollup run.
func (s *Service) Log(ctx context.Context, instanceID id.InstanceID, kind models.ActivityKind, hours, credits float64, occurredAt time.Time) (*models.ActivityEntry, error) {
	if _, err := s.reader.Get(ctx, instanceID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "instance not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "instance store failure")
	}

	entry, err := models.NewActivityEntry(instanceID, kind, hours, credits, occurredAt, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to append activity entry")
	}
	return entry, nil
}

// Run sweeps every non-archived campaign, replays each instance's
// activity log, and re-derives the campaign counters from the instance
// aggregation. Campaigns roll up independently; one failing campaign
// does not stop the others, and the first error is returned after the
// sweep so the scheduler retries.
func (s *Service) Run(ctx context.Context) error {
	ctx, span := otel.Tracer("tangible/rollup").Start(ctx, "rollup.run")
	defer span.End()

	var swept int
	var firstErr error
	offset := 0
	for {
		page, total, err := s.campaigns.List(ctx, campaignstore.ListFilter{
			Limit:     100,
			Offset:    offset,
			SortBy:    campaignstore.SortByCreatedAt,
			SortOrder: "asc",
		})
		if err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to list campaigns for rollup")
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, c := range page {
			g.Go(func() error {
				if err := s.rollupCampaign(gctx, c); err != nil {
					s.logger.ErrorContext(gctx, "campaign rollup failed",
						"campaign_id", c.ID,
						"error", err,
					)
					return err
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}

		swept += len(page)
		offset += len(page)
		if len(page) == 0 || offset >= total {
			break
		}
	}

	span.SetAttributes(attribute.Int("rollup.campaigns", swept))
	if s.metrics != nil {
		s.metrics.IncrementRollupRuns()
	}
	return firstErr
}

func (s *Service) rollupCampaign(ctx context.Context, c campaignmodels.Campaign) error {
	instances, err := s.reader.ListByCampaign(ctx, c.ID)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "failed to list instances for rollup")
	}

	replayed := make([]instancemodels.ProgramInstance, 0, len(instances))
	for _, inst := range instances {
		entries, err := s.activity.ListByInstance(ctx, inst.ID)
		if err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "failed to read activity log")
		}

		next := replay.Replay(inst, entries)
		if activityCountersChanged(inst, next) {
			updated, err := s.instances.ApplyMetrics(ctx, inst.ID, metricsFrom(next))
			if err != nil {
				return err
			}
			next = *updated
		}
		replayed = append(replayed, next)
	}

	agg := instancemodels.Aggregate(replayed)
	counters := campaignservice.Counters{
		CurrentVolunteers:    agg.EnrolledVolunteers,
		CurrentBeneficiaries: agg.EnrolledBeneficiaries,
		CreditsConsumed:      agg.CreditsConsumed,
		LearnersServed:       agg.LearnersServed,
		BudgetSpent:          c.BudgetSpent,
	}
	if !campaignCountersChanged(c, counters) {
		s.checkConsumption(ctx, c)
		return nil
	}

	updated, err := s.campaigns.ApplyCounters(ctx, c.ID, counters)
	if err != nil {
		return err
	}
	s.checkConsumption(ctx, *updated)
	return nil
}

// metricsFrom carries the replayed counters into the instance write
// path. Score fields pass through unchanged; replay never owns them.
func metricsFrom(inst instancemodels.ProgramInstance) instanceservice.Metrics {
	return instanceservice.Metrics{
		EnrolledVolunteers:    inst.EnrolledVolunteers,
		EnrolledBeneficiaries: inst.EnrolledBeneficiaries,
		ActivePairs:           inst.ActivePairs,
		ActiveGroups:          inst.ActiveGroups,
		TotalSessionsHeld:     inst.TotalSessionsHeld,
		TotalHoursLogged:      inst.TotalHoursLogged,
		SROIScore:             inst.SROIScore,
		AverageVISScore:       inst.AverageVISScore,
		OutcomeScores:         inst.OutcomeScores,
		VolunteersConsumed:    inst.VolunteersConsumed,
		CreditsConsumed:       inst.CreditsConsumed,
		LearnersServed:        inst.LearnersServed,
	}
}

func activityCountersChanged(before, after instancemodels.ProgramInstance) bool {
	return before.EnrolledVolunteers != after.EnrolledVolunteers ||
		before.EnrolledBeneficiaries != after.EnrolledBeneficiaries ||
		before.TotalSessionsHeld != after.TotalSessionsHeld ||
		before.TotalHoursLogged != after.TotalHoursLogged ||
		before.VolunteersConsumed != after.VolunteersConsumed ||
		before.CreditsConsumed != after.CreditsConsumed ||
		before.LearnersServed != after.LearnersServed
}

func campaignCountersChanged(c campaignmodels.Campaign, counters campaignservice.Counters) bool {
	return c.CurrentVolunteers != counters.CurrentVolunteers ||
		c.CurrentBeneficiaries != counters.CurrentBeneficiaries ||
		c.CreditsConsumed != counters.CreditsConsumed ||
		c.LearnersServed != counters.LearnersServed ||
		c.BudgetSpent != counters.BudgetSpent
}

// checkConsumption raises alerts for over-consumed commitments. Values
// are reported as-is; the ledger never clamps, because the overshoot
// itself is the signal the commercial layer acts on.
func (s *Service) checkConsumption(ctx context.Context, c campaignmodels.Campaign) {
	if !s.alerts {
		return
	}
	if remaining := ledger.RemainingCredits(c.CreditAllocation(), c.CreditsConsumed); remaining != nil && *remaining < 0 {
		s.raiseAlert(ctx, c, fmt.Sprintf(
			"credits consumed %.2f exceed allocation by %.2f", c.CreditsConsumed, -*remaining))
	}

	utilization := ledger.Utilization(c.CurrentVolunteers, c.TargetVolunteers)
	if c.TargetVolunteers > 0 && ledger.IsOverCapacity(utilization) {
		s.raiseAlert(ctx, c, fmt.Sprintf(
			"volunteer capacity at %.0f%% of target", utilization*100))
	}
}

func (s *Service) raiseAlert(ctx context.Context, c campaignmodels.Campaign, reason string) {
	s.logger.WarnContext(ctx, "consumption alert",
		"campaign_id", c.ID,
		"reason", reason,
	)
	if s.metrics != nil {
		s.metrics.IncrementConsumptionAlerts()
	}
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, audit.Event{
		CompanyID: c.CompanyID,
		Subject:   c.ID.String(),
		Action:    string(audit.EventConsumptionAlert),
		Reason:    reason,
	}); err != nil {
		s.logger.ErrorContext(ctx, "audit emission failed",
			"action", audit.EventConsumptionAlert,
			"subject", c.ID,
			"error", err,
		)
	}
}
