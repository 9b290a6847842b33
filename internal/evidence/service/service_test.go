package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tangible/internal/evidence/lineage"
	"tangible/internal/evidence/models"
	"tangible/internal/evidence/store/memory"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
	"tangible/pkg/platform/audit"
	"tangible/pkg/platform/audit/publisher"
	auditmemory "tangible/pkg/platform/audit/store/memory"
)

// =============================================================================
// Evidence Service Test Suite
// =============================================================================

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	snippets   *memory.SnippetStore
	scores     *memory.ScoreStore
	auditStore *auditmemory.InMemoryStore
	svc        *Service
	now        time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.snippets = memory.NewSnippetStore()
	s.scores = memory.NewScoreStore()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.now = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	s.svc = NewService(s.snippets, s.scores,
		WithAudit(publisher.NewPublisher(s.auditStore)),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ServiceSuite) ingest(content string) *models.EvidenceSnippet {
	snip, err := s.svc.Ingest(s.ctx, IngestParams{
		Content:     content,
		SourceType:  models.SourceSurvey,
		ProgramType: id.ProgramTypeLanguage,
	})
	s.Require().NoError(err)
	return snip
}

func (s *ServiceSuite) TestIngestHashesContent() {
	snip := s.ingest("I understand my colleagues much better now")

	s.Equal(models.HashContent("I understand my colleagues much better now"), snip.SnippetHash)
	s.Equal(s.now, snip.SubmittedAt)

	events, err := s.auditStore.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventEvidenceIngested), events[0].Action)
	s.Equal(snip.SnippetHash, events[0].Subject)
}

func (s *ServiceSuite) TestIngestRejectsDuplicate() {
	s.ingest("same feedback twice")

	_, err := s.svc.Ingest(s.ctx, IngestParams{
		Content:     "same feedback twice",
		SourceType:  models.SourceFeedback,
		ProgramType: id.ProgramTypeLanguage,
	})
	s.True(derrors.Is(err, derrors.CodeConflict))
}

func (s *ServiceSuite) TestIngestRejectsEmptyContent() {
	_, err := s.svc.Ingest(s.ctx, IngestParams{SourceType: models.SourceSurvey, ProgramType: id.ProgramTypeLanguage})
	s.True(derrors.Is(err, derrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestAddScoreRequiresSnippet() {
	_, err := s.svc.AddScore(s.ctx, models.HashContent("never ingested"), id.DimensionConfidence, 0.8, 0.9, "scorer-v2")
	s.True(derrors.Is(err, derrors.CodePreconditionNotMet))
}

func (s *ServiceSuite) TestAddScoreRejectsOutOfRange() {
	snip := s.ingest("score me")
	_, err := s.svc.AddScore(s.ctx, snip.SnippetHash, id.DimensionConfidence, 1.4, 0.9, "scorer-v2")
	s.True(derrors.Is(err, derrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestAddScoreEmitsAudit() {
	snip := s.ingest("score me properly")
	sc, err := s.svc.AddScore(s.ctx, snip.SnippetHash, id.DimensionBelonging, 0.65, 0.8, "scorer-v2")
	s.Require().NoError(err)
	s.Equal(snip.SnippetHash, sc.SnippetHash)

	events, err := s.auditStore.ListRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventOutcomeScoreAdded), events[1].Action)
	s.Equal("belonging", events[1].Decision)
}

func (s *ServiceSuite) TestResolveLineage() {
	first := s.ingest("lineage snippet one")
	second := s.ingest("lineage snippet two")

	_, err := s.svc.AddScore(s.ctx, first.SnippetHash, id.DimensionConfidence, 0.6, 1, "scorer-v2")
	s.Require().NoError(err)
	_, err = s.svc.AddScore(s.ctx, second.SnippetHash, id.DimensionConfidence, 0.8, 1, "scorer-v2")
	s.Require().NoError(err)
	// A different dimension stays out of the chain.
	_, err = s.svc.AddScore(s.ctx, first.SnippetHash, id.DimensionBelonging, 0.2, 1, "scorer-v2")
	s.Require().NoError(err)

	chain, err := s.svc.ResolveLineage(s.ctx, lineage.Metric{
		ID:          "confidence-2026-q2",
		Dimension:   id.DimensionConfidence,
		Method:      lineage.MethodAvg,
		PeriodStart: s.now.Add(-time.Hour),
		PeriodEnd:   s.now.Add(time.Hour),
	})
	s.Require().NoError(err)
	s.Equal(2, chain.TotalEvidenceCount)
	// Two snippets, two scores, one metric.
	s.Require().Len(chain.EvidenceChain, 5)
	s.Equal(lineage.LevelMetric, chain.EvidenceChain[4].Level)
	s.InDelta(0.7, chain.EvidenceChain[4].ContributionWeight, 1e-9)
}

func (s *ServiceSuite) TestResolveLineageEmptyEvidence() {
	chain, err := s.svc.ResolveLineage(s.ctx, lineage.Metric{
		ID:          "well-being-2026-q2",
		Dimension:   id.DimensionWellBeing,
		Method:      lineage.MethodAvg,
		PeriodStart: s.now,
		PeriodEnd:   s.now.Add(time.Hour),
	})
	s.Require().NoError(err)
	s.Zero(chain.TotalEvidenceCount)
	s.Empty(chain.EvidenceChain)
}
