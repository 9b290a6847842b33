// Package service orchestrates evidence ingestion, outcome score
// intake, and lineage resolution. Snippets arrive pre-anonymized and
// pre-hashed content never reaches persistence; scores arrive from the
// external scoring pipeline already computed.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tangible/internal/evidence/lineage"
	"tangible/internal/evidence/models"
	"tangible/internal/evidence/store"
	platformredis "tangible/internal/platform/redis"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/audit"
	"tangible/pkg/platform/audit/publisher"
	"tangible/pkg/platform/sentinel"
)

const dedupKeyPrefix = "evidence:snippet:"

type Service struct {
	snippets store.SnippetStore
	scores   store.ScoreStore
	cache    *platformredis.Client
	logger   *slog.Logger
	audit    *publisher.Publisher
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCache enables the Redis fast path for duplicate detection. The
// store stays the source of truth; a cache miss only costs one query.
func WithCache(cache *platformredis.Client) Option {
	return func(s *Service) { s.cache = cache }
}

func WithAudit(pub *publisher.Publisher) Option {
	return func(s *Service) { s.audit = pub }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(snippets store.SnippetStore, scores store.ScoreStore, opts ...Option) *Service {
	s := &Service{
		snippets: snippets,
		scores:   scores,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestParams carries one raw snippet submission. Content is hashed
// and discarded; only the hash and the labels are kept.
type IngestParams struct {
	Content        string
	SourceType     models.SourceType
	ProgramType    id.ProgramType
	SubmittedAt    time.Time
	Cohort         *string
	ParticipantRef *string
}

// Ingest stores a new evidence snippet, rejecting duplicates by
// content hash.
func (s *Service) Ingest(ctx context.Context, params IngestParams) (*models.EvidenceSnippet, error) {
	if params.Content == "" {
		return nil, derrors.New(derrors.CodeInvalidInput, "content cannot be empty")
	}
	hash := models.HashContent(params.Content)

	if s.cacheHas(ctx, hash) {
		return nil, derrors.New(derrors.CodeConflict, "duplicate evidence snippet")
	}

	submittedAt := params.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = s.now()
	}
	snip, err := models.NewEvidenceSnippet(hash, params.SourceType, params.ProgramType, submittedAt, params.Cohort, params.ParticipantRef)
	if err != nil {
		return nil, err
	}

	if err := s.snippets.Create(ctx, snip); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.cacheSet(ctx, hash)
			return nil, derrors.New(derrors.CodeConflict, "duplicate evidence snippet")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to store snippet")
	}
	s.cacheSet(ctx, hash)

	s.emitAudit(ctx, audit.Event{
		Subject: snip.SnippetHash,
		Action:  string(audit.EventEvidenceIngested),
	})
	return snip, nil
}

// AddScore records a model-derived outcome score against an existing
// snippet. Scoring unknown evidence is refused so the lineage chain
// never dangles at level 1.
func (s *Service) AddScore(ctx context.Context, snippetHash string, dimension id.OutcomeDimension, score, confidence float64, modelTag string) (*models.OutcomeScore, error) {
	exists, err := s.snippets.Exists(ctx, snippetHash)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to check snippet")
	}
	if !exists {
		return nil, derrors.New(derrors.CodePreconditionNotMet, "snippet does not exist")
	}

	sc, err := models.NewOutcomeScore(snippetHash, dimension, score, confidence, s.now(), modelTag)
	if err != nil {
		return nil, err
	}
	if err := s.scores.Create(ctx, sc); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to store outcome score")
	}

	s.emitAudit(ctx, audit.Event{
		Subject:  sc.ID.String(),
		Action:   string(audit.EventOutcomeScoreAdded),
		Decision: sc.Dimension.String(),
	})
	return sc, nil
}

// ListScores returns the scores derived from one snippet.
func (s *Service) ListScores(ctx context.Context, snippetHash string) ([]models.OutcomeScore, error) {
	scores, err := s.scores.ListBySnippet(ctx, snippetHash)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list scores")
	}
	return scores, nil
}

// ResolveLineage materializes the evidence chain behind a metric from
// the stored scores and snippets.
func (s *Service) ResolveLineage(ctx context.Context, metric lineage.Metric) (*lineage.Lineage, error) {
	scores, err := s.scores.ListByDimension(ctx, metric.Dimension, metric.PeriodStart, metric.PeriodEnd)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load scores")
	}

	hashes := make([]string, 0, len(scores))
	seen := map[string]bool{}
	for _, sc := range scores {
		if !seen[sc.SnippetHash] {
			seen[sc.SnippetHash] = true
			hashes = append(hashes, sc.SnippetHash)
		}
	}
	snippets, err := s.snippets.GetBatch(ctx, hashes)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load snippets")
	}

	chain, err := lineage.Resolve(metric, scores, snippets)
	if err != nil {
		return nil, err
	}
	return &chain, nil
}

func (s *Service) cacheHas(ctx context.Context, hash string) bool {
	if s.cache == nil {
		return false
	}
	n, err := s.cache.Exists(ctx, dedupKeyPrefix+hash).Result()
	if err != nil {
		s.logger.WarnContext(ctx, "snippet dedup cache read failed", "error", err)
		return false
	}
	return n > 0
}

func (s *Service) cacheSet(ctx context.Context, hash string) {
	if s.cache == nil {
		return
	}
	// Snippets are immutable, so the marker never expires.
	if err := s.cache.Set(ctx, dedupKeyPrefix+hash, 1, 0).Err(); err != nil {
		s.logger.WarnContext(ctx, "snippet dedup cache write failed", "error", err)
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
