package lineage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tangible/internal/evidence/models"
	id "tangible/pkg/domain"
)

// =============================================================================
// Evidence Lineage Resolver Test Suite
// =============================================================================
// Justification for unit tests: lineage output feeds regulatory packs;
// the count-over-evidence rule and deterministic ordering are contract
// details that must not drift.

type ResolverSuite struct {
	suite.Suite
	period Metric
	base   time.Time
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.period = Metric{
		ID:          "metric-confidence-q1",
		Dimension:   id.DimensionConfidence,
		Method:      MethodWeightedAverage,
		PeriodStart: s.base,
		PeriodEnd:   s.base.AddDate(0, 3, 0),
	}
}

func (s *ResolverSuite) score(hash string, dim id.OutcomeDimension, score, confidence float64, at time.Time) models.OutcomeScore {
	sc, err := models.NewOutcomeScore(hash, dim, score, confidence, at, "scorer-v2")
	s.Require().NoError(err)
	return *sc
}

func (s *ResolverSuite) snippet(hash string, at time.Time) models.EvidenceSnippet {
	snip, err := models.NewEvidenceSnippet(hash, models.SourceSurvey, id.ProgramTypeMentorship, at, nil, nil)
	s.Require().NoError(err)
	return *snip
}

func (s *ResolverSuite) TestEmptyEvidence() {
	lin, err := Resolve(s.period, nil, nil)
	s.Require().NoError(err)
	s.Empty(lin.EvidenceChain)
	s.Equal(0, lin.TotalEvidenceCount)
}

func (s *ResolverSuite) TestChainLevels() {
	scores := []models.OutcomeScore{
		s.score("aaa", id.DimensionConfidence, 0.6, 0.9, s.base.AddDate(0, 0, 10)),
		s.score("bbb", id.DimensionConfidence, 0.8, 0.5, s.base.AddDate(0, 0, 20)),
	}
	snippets := map[string]models.EvidenceSnippet{
		"aaa": s.snippet("aaa", s.base.AddDate(0, 0, 9)),
		"bbb": s.snippet("bbb", s.base.AddDate(0, 0, 19)),
	}

	lin, err := Resolve(s.period, scores, snippets)
	s.Require().NoError(err)
	s.Equal(2, lin.TotalEvidenceCount)
	s.Len(lin.EvidenceChain, 5) // 2 snippets + 2 scores + 1 metric

	s.Equal(LevelSnippet, lin.EvidenceChain[0].Level)
	s.Equal("aaa", lin.EvidenceChain[0].ID)
	s.Equal(LevelScore, lin.EvidenceChain[2].Level)
	s.InDelta(0.9, lin.EvidenceChain[2].ContributionWeight, 1e-9, "level-2 weight is the score confidence")

	last := lin.EvidenceChain[len(lin.EvidenceChain)-1]
	s.Equal(LevelMetric, last.Level)
	s.Equal(s.period.ID, last.ID)
	// weighted_average: (0.6*0.9 + 0.8*0.5) / (0.9+0.5)
	s.InDelta((0.6*0.9+0.8*0.5)/1.4, last.ContributionWeight, 1e-9)
}

func (s *ResolverSuite) TestCountIsOverEvidenceNotScores() {
	// One snippet scored twice in the same dimension still counts once.
	scores := []models.OutcomeScore{
		s.score("shared", id.DimensionConfidence, 0.4, 0.7, s.base.AddDate(0, 0, 5)),
		s.score("shared", id.DimensionConfidence, 0.6, 0.8, s.base.AddDate(0, 1, 0)),
	}
	snippets := map[string]models.EvidenceSnippet{
		"shared": s.snippet("shared", s.base),
	}

	lin, err := Resolve(s.period, scores, snippets)
	s.Require().NoError(err)
	s.Equal(1, lin.TotalEvidenceCount)
	s.Len(lin.EvidenceChain, 4) // 1 snippet + 2 scores + metric
}

func (s *ResolverSuite) TestFiltersDimensionAndPeriod() {
	scores := []models.OutcomeScore{
		s.score("in", id.DimensionConfidence, 0.5, 0.5, s.base.AddDate(0, 1, 0)),
		s.score("wrong-dim", id.DimensionBelonging, 0.9, 0.9, s.base.AddDate(0, 1, 0)),
		s.score("too-late", id.DimensionConfidence, 0.9, 0.9, s.period.PeriodEnd), // end is exclusive
		s.score("too-early", id.DimensionConfidence, 0.9, 0.9, s.base.Add(-time.Hour)),
	}

	lin, err := Resolve(s.period, scores, nil)
	s.Require().NoError(err)
	s.Equal(1, lin.TotalEvidenceCount)
}

func (s *ResolverSuite) TestAggregationMethods() {
	at := func(d int) time.Time { return s.base.AddDate(0, 0, d) }
	scores := []models.OutcomeScore{
		s.score("a", id.DimensionConfidence, 0.2, 1.0, at(1)),
		s.score("b", id.DimensionConfidence, 0.8, 1.0, at(2)),
		s.score("c", id.DimensionConfidence, 0.5, 1.0, at(3)),
	}

	cases := map[AggregationMethod]float64{
		MethodSum:  1.5,
		MethodAvg:  0.5,
		MethodMin:  0.2,
		MethodMax:  0.8,
		MethodLast: 0.5, // latest scoredAt
	}
	for method, want := range cases {
		metric := s.period
		metric.Method = method
		lin, err := Resolve(metric, scores, nil)
		s.Require().NoError(err)
		got := lin.EvidenceChain[len(lin.EvidenceChain)-1].ContributionWeight
		s.InDelta(want, got, 1e-9, "method %s", method)
	}
}

func (s *ResolverSuite) TestDeterminism() {
	scores := []models.OutcomeScore{
		s.score("b", id.DimensionConfidence, 0.7, 0.6, s.base.AddDate(0, 0, 2)),
		s.score("a", id.DimensionConfidence, 0.3, 0.4, s.base.AddDate(0, 0, 2)),
		s.score("c", id.DimensionConfidence, 0.9, 0.9, s.base.AddDate(0, 0, 1)),
	}

	first, err := Resolve(s.period, scores, nil)
	s.Require().NoError(err)

	// Same evidence, different input order.
	reordered := []models.OutcomeScore{scores[2], scores[0], scores[1]}
	second, err := Resolve(s.period, reordered, nil)
	s.Require().NoError(err)

	s.Equal(first, second, "identical evidence sets must resolve identically")
}

func (s *ResolverSuite) TestInvalidInputs() {
	_, err := Resolve(Metric{Method: MethodSum}, nil, nil)
	s.Require().Error(err, "empty metric id")

	_, err = Resolve(Metric{ID: "m", Method: AggregationMethod("median")}, nil, nil)
	s.Require().Error(err, "unknown aggregation method")
}
