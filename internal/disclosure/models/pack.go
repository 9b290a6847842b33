package models

import (
	"time"

	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// MappingStatus classifies how well a disclosure is evidenced.
type MappingStatus string

const (
	MappingComplete      MappingStatus = "complete"
	MappingPartial       MappingStatus = "partial"
	MappingMissing       MappingStatus = "missing"
	MappingNotApplicable MappingStatus = "not_applicable"
)

// GapSeverity ranks how urgently a gap needs remediation.
type GapSeverity string

const (
	SeverityCritical GapSeverity = "critical"
	SeverityHigh     GapSeverity = "high"
	SeverityMedium   GapSeverity = "medium"
	SeverityLow      GapSeverity = "low"
)

// EvidenceRef points a disclosure data point at supporting evidence
// produced by the lineage resolver.
type EvidenceRef struct {
	SourceType     string  `json:"source_type"` // metric | outcome_score | evidence_snippet
	SourceID       string  `json:"source_id"`
	DataPointKey   string  `json:"data_point_key"`
	RelevanceScore float64 `json:"relevance_score"`
}

// GapItem is one unmet data point with a suggested remediation.
type GapItem struct {
	Framework       Framework   `json:"framework"`
	DisclosureCode  string      `json:"disclosure_code"`
	DataPointKey    string      `json:"data_point_key"`
	Severity        GapSeverity `json:"severity"`
	Description     string      `json:"description"`
	SuggestedAction string      `json:"suggested_action"`
}

// DisclosureMapping is the scored result for one disclosure.
type DisclosureMapping struct {
	Framework         Framework     `json:"framework"`
	DisclosureCode    string        `json:"disclosure_code"`
	Title             string        `json:"title"`
	CompletenessScore float64       `json:"completeness_score"`
	Status            MappingStatus `json:"status"`
	EvidenceRefs      []EvidenceRef `json:"evidence_refs"`
	Gaps              []GapItem     `json:"gaps"`
}

// PackStatus tracks asynchronous generation.
type PackStatus string

const (
	PackPending    PackStatus = "pending"
	PackGenerating PackStatus = "generating"
	PackCompleted  PackStatus = "completed"
	PackFailed     PackStatus = "failed"
)

// PackSection groups mappings per framework.
type PackSection struct {
	Framework Framework           `json:"framework"`
	Mappings  []DisclosureMapping `json:"mappings"`
}

// PackSummary is the rollup over all sections. OverallCompleteness is
// the evidence-count-weighted average of per-disclosure completeness so
// well-evidenced disclosures dominate.
type PackSummary struct {
	OverallCompleteness float64 `json:"overall_completeness"`
	TotalDisclosures    int     `json:"total_disclosures"`
	CompleteCount       int     `json:"complete_count"`
	PartialCount        int     `json:"partial_count"`
	MissingCount        int     `json:"missing_count"`
	NotApplicableCount  int     `json:"not_applicable_count"`
	TotalEvidenceCount  int     `json:"total_evidence_count"`
}

// RegulatoryPack is one generated disclosure pack for a company and
// reporting period. Determinism contract: identical evidence, scope and
// GeneratedAt produce an identical pack.
type RegulatoryPack struct {
	ID          id.PackID
	CompanyID   id.CompanyID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Frameworks  []Framework
	Status      PackStatus
	GeneratedAt time.Time
	Summary     PackSummary
	Sections    []PackSection
	Gaps        []GapItem
	FailReason  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GenerateRequest is the boundary contract for pack generation.
type GenerateRequest struct {
	CompanyID   id.CompanyID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Frameworks  []Framework
	// EvidenceScope lists "framework:code" refs explicitly excluded from
	// the pack; excluded disclosures score as not_applicable.
	EvidenceScope map[string]bool
	GeneratedAt   time.Time
}

// Validate checks the request refinements.
func (r GenerateRequest) Validate() error {
	if r.CompanyID.IsNil() {
		return derrors.New(derrors.CodeInvalidInput, "company_id is required")
	}
	if !r.PeriodStart.Before(r.PeriodEnd) {
		return derrors.New(derrors.CodeInvariantViolation, "period start must be strictly before period end")
	}
	if len(r.Frameworks) == 0 {
		return derrors.New(derrors.CodeInvalidInput, "at least one framework is required")
	}
	for _, f := range r.Frameworks {
		if !f.IsValid() {
			return derrors.New(derrors.CodeInvalidInput, "invalid framework")
		}
	}
	return nil
}
