// Package lineage builds the traceable chain from raw evidence snippets
// through model-derived outcome scores up to an aggregated metric.
//
// The resolver is pure: it consumes snapshots, applies the metric's
// aggregation method, and orders its output deterministically so two
// runs over the same evidence produce byte-identical chains. When no
// evidence matches, it returns an empty chain; it never fabricates one.
package lineage

import (
	"sort"
	"time"

	"tangible/internal/evidence/models"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// AggregationMethod names how level-2 scores reduce into the metric.
type AggregationMethod string

const (
	MethodSum             AggregationMethod = "sum"
	MethodWeightedAverage AggregationMethod = "weighted_average"
	MethodAvg             AggregationMethod = "avg"
	MethodMin             AggregationMethod = "min"
	MethodMax             AggregationMethod = "max"
	MethodLast            AggregationMethod = "last"
)

var validMethods = map[AggregationMethod]bool{
	MethodSum:             true,
	MethodWeightedAverage: true,
	MethodAvg:             true,
	MethodMin:             true,
	MethodMax:             true,
	MethodLast:            true,
}

// IsValid checks if the method is one of the supported enum values.
func (m AggregationMethod) IsValid() bool { return validMethods[m] }

// Metric identifies one aggregated, reported number.
type Metric struct {
	ID          string
	Dimension   id.OutcomeDimension
	Value       float64
	Method      AggregationMethod
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// Chain levels. Level 1 is raw evidence, level 3 the metric itself.
const (
	LevelSnippet = 1
	LevelScore   = 2
	LevelMetric  = 3
)

// Entry is one node in the materialized evidence chain. Weights at a
// level are non-negative and need not sum to 1: partial coverage is
// allowed and stays visible.
type Entry struct {
	Level              int     `json:"level"`
	Type               string  `json:"type"`
	ID                 string  `json:"id"`
	Description        string  `json:"description"`
	ContributionWeight float64 `json:"contribution_weight"`
}

// Lineage is the resolved chain for one metric.
type Lineage struct {
	MetricID string `json:"metric_id"`
	// EvidenceChain lists level-1 snippets, then level-2 scores, then
	// the level-3 metric, each deterministically ordered.
	EvidenceChain []Entry `json:"evidence_chain"`
	// TotalEvidenceCount counts distinct level-1 snippets, not scores:
	// one snippet feeding several dimensions still counts once.
	TotalEvidenceCount int `json:"total_evidence_count"`
}

// Resolve builds the lineage for metric from the supplied scores and
// snippet index. Scores outside the metric's dimension or period
// [PeriodStart, PeriodEnd) are ignored.
func Resolve(metric Metric, scores []models.OutcomeScore, snippets map[string]models.EvidenceSnippet) (Lineage, error) {
	if metric.ID == "" {
		return Lineage{}, derrors.New(derrors.CodeInvalidInput, "metric id cannot be empty")
	}
	if !metric.Method.IsValid() {
		return Lineage{}, derrors.New(derrors.CodeInvalidInput, "invalid aggregation method")
	}

	matched := filter(metric, scores)
	if len(matched) == 0 {
		return Lineage{MetricID: metric.ID, EvidenceChain: []Entry{}, TotalEvidenceCount: 0}, nil
	}

	// Deterministic order: scores by (scoredAt, id).
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ScoredAt.Equal(matched[j].ScoredAt) {
			return matched[i].ScoredAt.Before(matched[j].ScoredAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	chain := make([]Entry, 0, 2*len(matched)+1)

	// Level 1: distinct snippets, ordered by (submittedAt, hash).
	seen := map[string]bool{}
	var level1 []models.EvidenceSnippet
	for _, sc := range matched {
		if seen[sc.SnippetHash] {
			continue
		}
		seen[sc.SnippetHash] = true
		if snip, ok := snippets[sc.SnippetHash]; ok {
			level1 = append(level1, snip)
		} else {
			// The score references evidence the caller did not supply;
			// keep the hash visible so the gap is traceable.
			level1 = append(level1, models.EvidenceSnippet{SnippetHash: sc.SnippetHash})
		}
	}
	sort.Slice(level1, func(i, j int) bool {
		if !level1[i].SubmittedAt.Equal(level1[j].SubmittedAt) {
			return level1[i].SubmittedAt.Before(level1[j].SubmittedAt)
		}
		return level1[i].SnippetHash < level1[j].SnippetHash
	})
	for _, snip := range level1 {
		chain = append(chain, Entry{
			Level:              LevelSnippet,
			Type:               "evidence_snippet",
			ID:                 snip.SnippetHash,
			Description:        snippetDescription(snip),
			ContributionWeight: 1,
		})
	}

	// Level 2: scores, weighted by model confidence.
	for _, sc := range matched {
		chain = append(chain, Entry{
			Level:              LevelScore,
			Type:               "outcome_score",
			ID:                 sc.ID.String(),
			Description:        sc.Dimension.String() + " score",
			ContributionWeight: sc.Confidence,
		})
	}

	// Level 3: the metric, weighted by the named reduction.
	chain = append(chain, Entry{
		Level:              LevelMetric,
		Type:               "metric",
		ID:                 metric.ID,
		Description:        metric.Dimension.String() + " " + string(metric.Method),
		ContributionWeight: aggregate(metric.Method, matched),
	})

	return Lineage{
		MetricID:           metric.ID,
		EvidenceChain:      chain,
		TotalEvidenceCount: len(level1),
	}, nil
}

func filter(metric Metric, scores []models.OutcomeScore) []models.OutcomeScore {
	var out []models.OutcomeScore
	for _, sc := range scores {
		if sc.Dimension != metric.Dimension {
			continue
		}
		if sc.ScoredAt.Before(metric.PeriodStart) || !sc.ScoredAt.Before(metric.PeriodEnd) {
			continue
		}
		out = append(out, sc)
	}
	return out
}

// aggregate applies the metric's reduction to already-sorted scores.
// weighted_average weighs each score by its confidence; the remaining
// methods are unweighted named reductions.
func aggregate(method AggregationMethod, scores []models.OutcomeScore) float64 {
	switch method {
	case MethodSum:
		var sum float64
		for _, sc := range scores {
			sum += sc.Score
		}
		return sum
	case MethodAvg:
		var sum float64
		for _, sc := range scores {
			sum += sc.Score
		}
		return sum / float64(len(scores))
	case MethodWeightedAverage:
		var num, den float64
		for _, sc := range scores {
			num += sc.Score * sc.Confidence
			den += sc.Confidence
		}
		if den == 0 {
			return 0
		}
		return num / den
	case MethodMin:
		min := scores[0].Score
		for _, sc := range scores[1:] {
			if sc.Score < min {
				min = sc.Score
			}
		}
		return min
	case MethodMax:
		max := scores[0].Score
		for _, sc := range scores[1:] {
			if sc.Score > max {
				max = sc.Score
			}
		}
		return max
	case MethodLast:
		// Scores are sorted by (scoredAt, id); last is well defined
		// even for equal timestamps.
		return scores[len(scores)-1].Score
	}
	return 0
}

func snippetDescription(s models.EvidenceSnippet) string {
	if s.SourceType == "" {
		return "unresolved evidence reference"
	}
	return s.SourceType.String() + " / " + s.ProgramType.String()
}
