// Package scorer maps aggregated evidence onto regulatory disclosure
// requirements, scores completeness, and emits gap items.
//
// Scoring is deterministic: no randomness, no wall clock. Insufficient
// evidence is a data outcome (status + gaps), never an error.
package scorer

import (
	"fmt"

	"tangible/internal/disclosure/models"
)

// DefaultRelevanceFloor is the relevance score an evidence reference
// must reach to satisfy a data point. Overridable via policy config;
// surfaced as a named constant so tests and reports pin the same value.
const DefaultRelevanceFloor = 0.6

// ScoreDisclosure scores one disclosure against the evidence refs
// gathered for it. A data point is satisfied when at least one ref for
// that key has relevance at or above floor. Excluded disclosures score
// as not_applicable with no gaps.
func ScoreDisclosure(d models.Disclosure, refs []models.EvidenceRef, floor float64, excluded bool) models.DisclosureMapping {
	mapping := models.DisclosureMapping{
		Framework:      d.Framework,
		DisclosureCode: d.Code,
		Title:          d.Title,
		EvidenceRefs:   refs,
		Gaps:           []models.GapItem{},
	}

	if excluded {
		mapping.Status = models.MappingNotApplicable
		mapping.EvidenceRefs = nil
		return mapping
	}

	if len(d.DataPoints) == 0 {
		mapping.Status = models.MappingMissing
		return mapping
	}

	satisfied := 0
	mandatoryUnmet := false
	for _, dp := range d.DataPoints {
		best, any := bestRelevance(refs, dp.Key)
		if any && best >= floor {
			satisfied++
			continue
		}
		if dp.Mandatory {
			mandatoryUnmet = true
		}
		mapping.Gaps = append(mapping.Gaps, gapFor(d, dp, any))
	}

	mapping.CompletenessScore = float64(satisfied) / float64(len(d.DataPoints))

	switch {
	case mapping.CompletenessScore == 1 && !mandatoryUnmet:
		mapping.Status = models.MappingComplete
	case mapping.CompletenessScore == 0:
		mapping.Status = models.MappingMissing
	default:
		mapping.Status = models.MappingPartial
	}
	return mapping
}

func bestRelevance(refs []models.EvidenceRef, key string) (float64, bool) {
	best := 0.0
	any := false
	for _, ref := range refs {
		if ref.DataPointKey != key {
			continue
		}
		any = true
		if ref.RelevanceScore > best {
			best = ref.RelevanceScore
		}
	}
	return best, any
}

// gapFor derives severity from the data point's mandatory flag and
// whether any evidence exists at all:
//
//	mandatory, no evidence        -> critical
//	mandatory, weak evidence      -> high
//	optional, weak evidence       -> medium
//	optional, no evidence         -> low
func gapFor(d models.Disclosure, dp models.DataPoint, hasAnyEvidence bool) models.GapItem {
	var severity models.GapSeverity
	var action string
	switch {
	case dp.Mandatory && !hasAnyEvidence:
		severity = models.SeverityCritical
		action = fmt.Sprintf("Collect evidence for %q: no supporting evidence exists for this mandatory data point", dp.Key)
	case dp.Mandatory:
		severity = models.SeverityHigh
		action = fmt.Sprintf("Strengthen evidence for %q: existing references fall below the relevance floor", dp.Key)
	case hasAnyEvidence:
		severity = models.SeverityMedium
		action = fmt.Sprintf("Improve evidence relevance for optional data point %q", dp.Key)
	default:
		severity = models.SeverityLow
		action = fmt.Sprintf("Consider collecting evidence for optional data point %q", dp.Key)
	}

	return models.GapItem{
		Framework:       d.Framework,
		DisclosureCode:  d.Code,
		DataPointKey:    dp.Key,
		Severity:        severity,
		Description:     dp.Description + " is not sufficiently evidenced",
		SuggestedAction: action,
	}
}

// Summarize rolls sections up into a pack summary. Overall completeness
// weights each scored disclosure by its evidence-ref count; disclosures
// with more evidence dominate. not_applicable disclosures are excluded
// from the weighted average. When no disclosure carries evidence the
// unweighted mean keeps the summary defined and deterministic.
func Summarize(sections []models.PackSection) models.PackSummary {
	var summary models.PackSummary
	var weightedSum, weightTotal float64
	var plainSum float64
	var scoredCount int

	for _, section := range sections {
		for _, m := range section.Mappings {
			summary.TotalDisclosures++
			switch m.Status {
			case models.MappingComplete:
				summary.CompleteCount++
			case models.MappingPartial:
				summary.PartialCount++
			case models.MappingMissing:
				summary.MissingCount++
			case models.MappingNotApplicable:
				summary.NotApplicableCount++
				continue
			}

			weight := float64(len(m.EvidenceRefs))
			weightedSum += m.CompletenessScore * weight
			weightTotal += weight
			plainSum += m.CompletenessScore
			scoredCount++
			summary.TotalEvidenceCount += len(m.EvidenceRefs)
		}
	}

	switch {
	case weightTotal > 0:
		summary.OverallCompleteness = weightedSum / weightTotal
	case scoredCount > 0:
		summary.OverallCompleteness = plainSum / float64(scoredCount)
	}
	return summary
}

// CollectGaps flattens section gaps into the pack-level gap list,
// preserving section and mapping order so output is deterministic.
func CollectGaps(sections []models.PackSection) []models.GapItem {
	var gaps []models.GapItem
	for _, section := range sections {
		for _, m := range section.Mappings {
			gaps = append(gaps, m.Gaps...)
		}
	}
	return gaps
}
