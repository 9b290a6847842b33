package scorer

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"tangible/internal/disclosure/models"
)

// =============================================================================
// Disclosure Completeness Scorer Test Suite
// =============================================================================

type ScorerSuite struct {
	suite.Suite
	disclosure models.Disclosure
}

func TestScorerSuite(t *testing.T) {
	suite.Run(t, new(ScorerSuite))
}

func (s *ScorerSuite) SetupTest() {
	s.disclosure = models.Disclosure{
		Framework: models.FrameworkGRI,
		Code:      "GRI-404-1",
		Title:     "Average hours of training per beneficiary",
		DataPoints: []models.DataPoint{
			{Key: "training_hours", Description: "Hours of training delivered", Mandatory: true},
			{Key: "learners_served", Description: "Learners who received training", Mandatory: true},
		},
	}
}

func ref(key string, relevance float64) models.EvidenceRef {
	return models.EvidenceRef{SourceType: "metric", SourceID: "m-" + key, DataPointKey: key, RelevanceScore: relevance}
}

func (s *ScorerSuite) TestPartialDisclosure() {
	// Two mandatory data points, one satisfied.
	refs := []models.EvidenceRef{ref("training_hours", 0.9)}

	m := ScoreDisclosure(s.disclosure, refs, DefaultRelevanceFloor, false)

	s.InDelta(0.5, m.CompletenessScore, 1e-9)
	s.Equal(models.MappingPartial, m.Status)
	s.Require().Len(m.Gaps, 1)
	s.Equal("learners_served", m.Gaps[0].DataPointKey)
	s.Equal(models.SeverityCritical, m.Gaps[0].Severity, "mandatory point with no evidence at all")
	s.NotEmpty(m.Gaps[0].SuggestedAction)
}

func (s *ScorerSuite) TestCompleteDisclosure() {
	refs := []models.EvidenceRef{
		ref("training_hours", 0.8),
		ref("learners_served", 0.7),
	}

	m := ScoreDisclosure(s.disclosure, refs, DefaultRelevanceFloor, false)
	s.Equal(1.0, m.CompletenessScore)
	s.Equal(models.MappingComplete, m.Status)
	s.Empty(m.Gaps)
}

func (s *ScorerSuite) TestMissingDisclosure() {
	m := ScoreDisclosure(s.disclosure, nil, DefaultRelevanceFloor, false)
	s.Equal(0.0, m.CompletenessScore)
	s.Equal(models.MappingMissing, m.Status)
	s.Len(m.Gaps, 2)
	for _, g := range m.Gaps {
		s.Equal(models.SeverityCritical, g.Severity)
	}
}

func (s *ScorerSuite) TestRelevanceFloor() {
	s.Run("evidence below the floor does not satisfy", func() {
		refs := []models.EvidenceRef{
			ref("training_hours", DefaultRelevanceFloor - 0.01),
			ref("learners_served", 0.9),
		}
		m := ScoreDisclosure(s.disclosure, refs, DefaultRelevanceFloor, false)
		s.InDelta(0.5, m.CompletenessScore, 1e-9)
		s.Require().Len(m.Gaps, 1)
		s.Equal(models.SeverityHigh, m.Gaps[0].Severity, "mandatory point with only weak evidence")
	})

	s.Run("evidence exactly at the floor satisfies", func() {
		refs := []models.EvidenceRef{
			ref("training_hours", DefaultRelevanceFloor),
			ref("learners_served", DefaultRelevanceFloor),
		}
		m := ScoreDisclosure(s.disclosure, refs, DefaultRelevanceFloor, false)
		s.Equal(models.MappingComplete, m.Status)
	})
}

func (s *ScorerSuite) TestOptionalGapSeverities() {
	d := models.Disclosure{
		Framework: models.FrameworkSDG,
		Code:      "SDG-4.4",
		DataPoints: []models.DataPoint{
			{Key: "skills_outcomes", Mandatory: true},
			{Key: "job_readiness_scores", Mandatory: false},
			{Key: "certificates_awarded", Mandatory: false},
		},
	}
	refs := []models.EvidenceRef{
		ref("skills_outcomes", 0.9),
		ref("job_readiness_scores", 0.2), // weak
		// certificates_awarded: nothing
	}

	m := ScoreDisclosure(d, refs, DefaultRelevanceFloor, false)
	s.Equal(models.MappingPartial, m.Status)
	s.Require().Len(m.Gaps, 2)

	bySeverity := map[models.GapSeverity]string{}
	for _, g := range m.Gaps {
		bySeverity[g.Severity] = g.DataPointKey
	}
	s.Equal("job_readiness_scores", bySeverity[models.SeverityMedium])
	s.Equal("certificates_awarded", bySeverity[models.SeverityLow])
}

func (s *ScorerSuite) TestScopeExclusion() {
	m := ScoreDisclosure(s.disclosure, []models.EvidenceRef{ref("training_hours", 0.9)}, DefaultRelevanceFloor, true)
	s.Equal(models.MappingNotApplicable, m.Status)
	s.Empty(m.Gaps)
	s.Empty(m.EvidenceRefs)
}

// =============================================================================
// Summary Rollup Tests
// =============================================================================

func (s *ScorerSuite) TestSummarizeIsEvidenceWeighted() {
	sections := []models.PackSection{{
		Framework: models.FrameworkGRI,
		Mappings: []models.DisclosureMapping{
			{Status: models.MappingComplete, CompletenessScore: 1.0, EvidenceRefs: make([]models.EvidenceRef, 9)},
			{Status: models.MappingMissing, CompletenessScore: 0.0, EvidenceRefs: make([]models.EvidenceRef, 1)},
		},
	}}

	summary := Summarize(sections)
	// Weighted: (1.0*9 + 0.0*1)/10 = 0.9, not the simple mean 0.5.
	s.InDelta(0.9, summary.OverallCompleteness, 1e-9)
	s.Equal(10, summary.TotalEvidenceCount)
	s.Equal(1, summary.CompleteCount)
	s.Equal(1, summary.MissingCount)
}

func (s *ScorerSuite) TestSummarizeEdgeCases() {
	s.Run("no evidence anywhere falls back to plain mean", func() {
		sections := []models.PackSection{{
			Mappings: []models.DisclosureMapping{
				{Status: models.MappingMissing, CompletenessScore: 0},
				{Status: models.MappingPartial, CompletenessScore: 0.5},
			},
		}}
		summary := Summarize(sections)
		s.InDelta(0.25, summary.OverallCompleteness, 1e-9)
	})

	s.Run("not_applicable is excluded from the rollup", func() {
		sections := []models.PackSection{{
			Mappings: []models.DisclosureMapping{
				{Status: models.MappingNotApplicable, CompletenessScore: 0},
				{Status: models.MappingComplete, CompletenessScore: 1, EvidenceRefs: make([]models.EvidenceRef, 2)},
			},
		}}
		summary := Summarize(sections)
		s.Equal(1.0, summary.OverallCompleteness)
		s.Equal(1, summary.NotApplicableCount)
	})

	s.Run("empty sections yield a zero summary", func() {
		summary := Summarize(nil)
		s.Equal(0.0, summary.OverallCompleteness)
		s.Equal(0, summary.TotalDisclosures)
	})
}

func (s *ScorerSuite) TestDeterminism() {
	refs := []models.EvidenceRef{ref("training_hours", 0.75)}
	first := ScoreDisclosure(s.disclosure, refs, DefaultRelevanceFloor, false)
	second := ScoreDisclosure(s.disclosure, refs, DefaultRelevanceFloor, false)
	s.Equal(first, second, "same evidence set must score byte-identically")
}
