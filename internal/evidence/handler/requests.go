package handler

import (
	"time"

	"tangible/internal/evidence/lineage"
	"tangible/internal/evidence/models"
	"tangible/internal/evidence/service"
	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// ingestRequest is the boundary shape for snippet ingestion. The raw
// content is hashed server-side and never persisted.
type ingestRequest struct {
	Content        string     `json:"content"`
	SourceType     string     `json:"source_type"`
	ProgramType    string     `json:"program_type"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	Cohort         *string    `json:"cohort,omitempty"`
	ParticipantRef *string    `json:"participant_ref,omitempty"`
}

func (r ingestRequest) toParams() (service.IngestParams, error) {
	source, err := models.ParseSourceType(r.SourceType)
	if err != nil {
		return service.IngestParams{}, err
	}
	program, err := id.ParseProgramType(r.ProgramType)
	if err != nil {
		return service.IngestParams{}, err
	}
	params := service.IngestParams{
		Content:        r.Content,
		SourceType:     source,
		ProgramType:    program,
		Cohort:         r.Cohort,
		ParticipantRef: r.ParticipantRef,
	}
	if r.SubmittedAt != nil {
		params.SubmittedAt = *r.SubmittedAt
	}
	return params, nil
}

// snippetResponse is the wire shape for a stored snippet. Raw content
// is intentionally absent.
type snippetResponse struct {
	SnippetHash    string    `json:"snippet_hash"`
	SourceType     string    `json:"source_type"`
	ProgramType    string    `json:"program_type"`
	SubmittedAt    time.Time `json:"submitted_at"`
	Cohort         *string   `json:"cohort,omitempty"`
	ParticipantRef *string   `json:"participant_ref,omitempty"`
}

func toSnippetResponse(snip models.EvidenceSnippet) snippetResponse {
	return snippetResponse{
		SnippetHash:    snip.SnippetHash,
		SourceType:     snip.SourceType.String(),
		ProgramType:    snip.ProgramType.String(),
		SubmittedAt:    snip.SubmittedAt,
		Cohort:         snip.Cohort,
		ParticipantRef: snip.ParticipantRef,
	}
}

// addScoreRequest is the boundary shape for recording a model-derived
// outcome score.
type addScoreRequest struct {
	Dimension  string  `json:"dimension"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	ModelTag   string  `json:"model_tag"`
}

type scoreResponse struct {
	ID          string    `json:"id"`
	SnippetHash string    `json:"snippet_hash"`
	Dimension   string    `json:"dimension"`
	Score       float64   `json:"score"`
	Confidence  float64   `json:"confidence"`
	ScoredAt    time.Time `json:"scored_at"`
	ModelTag    string    `json:"model_tag,omitempty"`
}

func toScoreResponse(sc models.OutcomeScore) scoreResponse {
	return scoreResponse{
		ID:          sc.ID.String(),
		SnippetHash: sc.SnippetHash,
		Dimension:   sc.Dimension.String(),
		Score:       sc.Score,
		Confidence:  sc.Confidence,
		ScoredAt:    sc.ScoredAt,
		ModelTag:    sc.ModelTag,
	}
}

// resolveLineageRequest describes the metric whose evidence chain is
// requested. The metric itself lives in the reporting layer; only its
// identity and reduction are needed here.
type resolveLineageRequest struct {
	MetricID    string    `json:"metric_id"`
	Dimension   string    `json:"dimension"`
	Value       float64   `json:"value"`
	Method      string    `json:"method"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

func (r resolveLineageRequest) toMetric() (lineage.Metric, error) {
	dimension, err := id.ParseOutcomeDimension(r.Dimension)
	if err != nil {
		return lineage.Metric{}, err
	}
	method := lineage.AggregationMethod(r.Method)
	if !method.IsValid() {
		return lineage.Metric{}, derrors.New(derrors.CodeInvalidInput, "invalid aggregation method")
	}
	if !r.PeriodStart.Before(r.PeriodEnd) {
		return lineage.Metric{}, derrors.New(derrors.CodeInvalidInput, "period_start must be before period_end")
	}
	return lineage.Metric{
		ID:          r.MetricID,
		Dimension:   dimension,
		Value:       r.Value,
		Method:      method,
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
	}, nil
}
