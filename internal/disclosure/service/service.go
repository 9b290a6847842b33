// Package service orchestrates regulatory pack generation. Generation
// is asynchronous: Generate persists a pending pack and returns
// immediately; a background worker scores every requested framework and
// writes the completed pack back. Scoring itself is pure and lives in
// the scorer package.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"tangible/internal/disclosure/models"
	"tangible/internal/disclosure/scorer"
	"tangible/internal/disclosure/store"
	"tangible/internal/platform/config"
	"tangible/internal/platform/metrics"
	platformredis "tangible/internal/platform/redis"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/audit"
	"tangible/pkg/platform/audit/publisher"
	"tangible/pkg/platform/sentinel"
)

// packStatusKeyPrefix namespaces the generation status cache entries.
const packStatusKeyPrefix = "disclosure:pack:status:"

type Service struct {
	packs    store.Store
	scores   ScoreSource
	activity ActivitySource
	cache    *platformredis.Client
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *publisher.Publisher
	now      func() time.Time
	floor    float64
	schedule func(fn func())
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

func WithCache(cache *platformredis.Client) Option {
	return func(s *Service) { s.cache = cache }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRelevanceFloor overrides the minimum relevance an evidence ref
// needs to satisfy a data point.
func WithRelevanceFloor(floor float64) Option {
	return func(s *Service) { s.floor = floor }
}

// WithScheduler overrides how generation work is dispatched. Tests pass
// a scheduler that runs the work inline.
func WithScheduler(schedule func(fn func())) Option {
	return func(s *Service) { s.schedule = schedule }
}

func NewService(packs store.Store, scores ScoreSource, activity ActivitySource, opts ...Option) *Service {
	s := &Service{
		packs:    packs,
		scores:   scores,
		activity: activity,
		logger:   slog.Default(),
		now:      time.Now,
		floor:    scorer.DefaultRelevanceFloor,
		schedule: func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate accepts a pack request, persists it as pending and schedules
// the actual generation. The returned pack carries only the header; the
// caller polls Get or Status for the result.
func (s *Service) Generate(ctx context.Context, req models.GenerateRequest) (*models.RegulatoryPack, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.GeneratedAt.IsZero() {
		req.GeneratedAt = s.now()
	}

	now := s.now()
	pack := &models.RegulatoryPack{
		ID:          id.NewPackID(),
		CompanyID:   req.CompanyID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Frameworks:  append([]models.Framework(nil), req.Frameworks...),
		Status:      models.PackPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.packs.Create(ctx, pack); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create pack")
	}
	s.cacheStatus(ctx, pack.ID, models.PackPending)
	s.emitAudit(ctx, audit.Event{
		CompanyID: pack.CompanyID,
		Subject:   pack.ID.String(),
		Action:    string(audit.EventPackRequested),
	})

	// The request context dies with the HTTP request; generation must
	// outlive it.
	bg := context.WithoutCancel(ctx)
	snapshot := *pack
	s.schedule(func() { s.generate(bg, snapshot, req) })
	return pack, nil
}

func (s *Service) generate(ctx context.Context, pack models.RegulatoryPack, req models.GenerateRequest) {
	started := time.Now()
	ctx, span := otel.Tracer("tangible/disclosure").Start(ctx, "disclosure.generate_pack")
	defer span.End()
	span.SetAttributes(
		attribute.String("pack.id", pack.ID.String()),
		attribute.Int("pack.framework_count", len(req.Frameworks)),
	)

	pack.Status = models.PackGenerating
	pack.UpdatedAt = s.now()
	if err := s.packs.Update(ctx, &pack); err != nil {
		s.fail(ctx, pack, started, derrors.Wrap(err, derrors.CodeInternal, "failed to mark pack generating"))
		return
	}
	s.cacheStatus(ctx, pack.ID, models.PackGenerating)

	act, err := s.activity.ActivityForCompany(ctx, req.CompanyID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		s.fail(ctx, pack, started, err)
		return
	}

	sections := make([]models.PackSection, len(req.Frameworks))
	g, gctx := errgroup.WithContext(ctx)
	for i, fw := range req.Frameworks {
		g.Go(func() error {
			section, err := s.buildSection(gctx, fw, act, req)
			if err != nil {
				return err
			}
			sections[i] = section
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.fail(ctx, pack, started, err)
		return
	}

	pack.Sections = sections
	pack.Summary = scorer.Summarize(sections)
	pack.Gaps = scorer.CollectGaps(sections)
	pack.Status = models.PackCompleted
	pack.GeneratedAt = req.GeneratedAt
	pack.FailReason = ""
	pack.UpdatedAt = s.now()
	if err := s.packs.Update(ctx, &pack); err != nil {
		s.fail(ctx, pack, started, derrors.Wrap(err, derrors.CodeInternal, "failed to persist generated pack"))
		return
	}
	s.cacheStatus(ctx, pack.ID, models.PackCompleted)

	if s.metrics != nil {
		s.metrics.ObservePackGeneration(string(models.PackCompleted), time.Since(started))
	}
	s.emitAudit(ctx, audit.Event{
		CompanyID: pack.CompanyID,
		Subject:   pack.ID.String(),
		Action:    string(audit.EventPackGenerated),
		Decision:  string(models.PackCompleted),
	})
	s.logger.InfoContext(ctx, "regulatory pack generated",
		"pack_id", pack.ID,
		"disclosures", pack.Summary.TotalDisclosures,
		"overall_completeness", pack.Summary.OverallCompleteness,
	)
}

func (s *Service) buildSection(ctx context.Context, fw models.Framework, act Activity, req models.GenerateRequest) (models.PackSection, error) {
	section := models.PackSection{Framework: fw, Mappings: []models.DisclosureMapping{}}
	for _, d := range models.Disclosures(fw) {
		refs, err := s.gatherRefs(ctx, d, act, req.PeriodStart, req.PeriodEnd)
		if err != nil {
			return models.PackSection{}, err
		}
		excluded := req.EvidenceScope[d.Ref()]
		section.Mappings = append(section.Mappings, scorer.ScoreDisclosure(d, refs, s.floor, excluded))
	}
	return section, nil
}

func (s *Service) fail(ctx context.Context, pack models.RegulatoryPack, started time.Time, cause error) {
	s.logger.ErrorContext(ctx, "pack generation failed",
		"pack_id", pack.ID,
		"error", cause,
	)

	pack.Status = models.PackFailed
	pack.FailReason = cause.Error()
	pack.UpdatedAt = s.now()
	if err := s.packs.Update(ctx, &pack); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist pack failure",
			"pack_id", pack.ID,
			"error", err,
		)
	}
	s.cacheStatus(ctx, pack.ID, models.PackFailed)

	if s.metrics != nil {
		s.metrics.ObservePackGeneration(string(models.PackFailed), time.Since(started))
	}
	s.emitAudit(ctx, audit.Event{
		CompanyID: pack.CompanyID,
		Subject:   pack.ID.String(),
		Action:    string(audit.EventPackFailed),
		Reason:    cause.Error(),
	})
}

// Get returns a single pack, sections and all.
func (s *Service) Get(ctx context.Context, packID id.PackID) (*models.RegulatoryPack, error) {
	p, err := s.packs.Get(ctx, packID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return p, nil
}

// Status returns just the generation status, served from the cache when
// possible so pollers do not hammer the store.
func (s *Service) Status(ctx context.Context, packID id.PackID) (models.PackStatus, error) {
	if s.cache != nil {
		val, err := s.cache.Get(ctx, packStatusKeyPrefix+packID.String()).Result()
		switch {
		case err == nil:
			if status := models.PackStatus(val); validStatus(status) {
				return status, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.WarnContext(ctx, "pack status cache read failed", "error", err)
		}
	}

	p, err := s.packs.Get(ctx, packID)
	if err != nil {
		return "", mapStoreErr(err)
	}
	s.cacheStatus(ctx, packID, p.Status)
	return p.Status, nil
}

// List returns a filtered page of packs plus the unpaged total.
func (s *Service) List(ctx context.Context, filter store.ListFilter) ([]models.RegulatoryPack, int, error) {
	items, total, err := s.packs.List(ctx, filter)
	if err != nil {
		return nil, 0, derrors.Wrap(err, derrors.CodeInternal, "failed to list packs")
	}
	return items, total, nil
}

func (s *Service) cacheStatus(ctx context.Context, packID id.PackID, status models.PackStatus) {
	if s.cache == nil {
		return
	}
	key := packStatusKeyPrefix + packID.String()
	if err := s.cache.Set(ctx, key, string(status), config.PackStatusTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "pack status cache write failed", "key", key, "error", err)
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

func validStatus(status models.PackStatus) bool {
	switch status {
	case models.PackPending, models.PackGenerating, models.PackCompleted, models.PackFailed:
		return true
	default:
		return false
	}
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return derrors.New(derrors.CodeNotFound, "pack not found")
	case errors.Is(err, sentinel.ErrConflict):
		return derrors.New(derrors.CodeConflict, "pack already exists")
	default:
		return derrors.Wrap(err, derrors.CodeInternal, "pack store failure")
	}
}
