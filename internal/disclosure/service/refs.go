package service

import (
	"context"
	"time"

	"tangible/internal/disclosure/models"
	evidencemodels "tangible/internal/evidence/models"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// ScoreSource yields model-derived outcome scores inside a reporting
// window. The evidence score store satisfies it.
type ScoreSource interface {
	ListByDimension(ctx context.Context, dimension id.OutcomeDimension, periodStart, periodEnd time.Time) ([]evidencemodels.OutcomeScore, error)
}

// dataPointDimensions maps outcome-backed data point keys to the
// dimensions whose scores evidence them. Keys absent here are either
// counter-backed (see activityValue) or currently unsourced and will
// surface as gaps.
var dataPointDimensions = map[string][]id.OutcomeDimension{
	"outcome_evidence": {
		id.DimensionConfidence,
		id.DimensionBelonging,
		id.DimensionLangLevelProxy,
		id.DimensionJobReadiness,
		id.DimensionWellBeing,
	},
	"impact_assessment":    {id.DimensionBelonging, id.DimensionWellBeing},
	"skills_outcomes":      {id.DimensionLangLevelProxy},
	"job_readiness_scores": {id.DimensionJobReadiness},
	"inclusion_outcomes":   {id.DimensionBelonging},
}

// activityValue maps counter-backed data point keys to the rollup value
// evidencing them. The second return is false for keys this platform
// has no operational source for.
func activityValue(key string, act Activity) (float64, bool) {
	switch key {
	case "volunteer_headcount":
		return float64(act.Volunteers), true
	case "volunteer_hours", "training_hours":
		return act.VolunteerHours, true
	case "beneficiaries_reached":
		return float64(act.Beneficiaries), true
	case "learners_served":
		return float64(act.LearnersServed), true
	case "program_spend":
		return act.BudgetSpent, true
	case "program_coverage":
		return float64(act.CampaignCount), true
	default:
		return 0, false
	}
}

// gatherRefs builds the evidence references for one disclosure.
// Counter-backed data points yield a single fully-relevant "metric"
// ref when the rollup value is positive; outcome-backed data points
// yield one "outcome_score" ref per score in the window with relevance
// equal to the scoring model's confidence. Ordering follows the data
// point order and the stores' (scored_at, id) ordering, so the result
// is deterministic for a fixed evidence set.
func (s *Service) gatherRefs(ctx context.Context, d models.Disclosure, act Activity, periodStart, periodEnd time.Time) ([]models.EvidenceRef, error) {
	var refs []models.EvidenceRef
	for _, dp := range d.DataPoints {
		if value, ok := activityValue(dp.Key, act); ok {
			if value > 0 {
				refs = append(refs, models.EvidenceRef{
					SourceType:     "metric",
					SourceID:       dp.Key,
					DataPointKey:   dp.Key,
					RelevanceScore: 1,
				})
			}
			continue
		}

		for _, dim := range dataPointDimensions[dp.Key] {
			scores, err := s.scores.ListByDimension(ctx, dim, periodStart, periodEnd)
			if err != nil {
				return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to load outcome scores")
			}
			for _, sc := range scores {
				refs = append(refs, models.EvidenceRef{
					SourceType:     "outcome_score",
					SourceID:       sc.ID.String(),
					DataPointKey:   dp.Key,
					RelevanceScore: sc.Confidence,
				})
			}
		}
	}
	return refs, nil
}
