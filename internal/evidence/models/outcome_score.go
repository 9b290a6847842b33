package models

import (
	"time"

	id "tangible/pkg/domain"
	derrors "tangible/pkg/domain-errors"
)

// OutcomeScore is one model-scored dimension derived from exactly one
// evidence snippet. Score and Confidence are both in [0,1]. The core
// consumes already-computed scores; it never invokes the scoring model.
type OutcomeScore struct {
	ID          id.OutcomeScoreID
	SnippetHash string
	Dimension   id.OutcomeDimension
	Score       float64
	Confidence  float64
	ScoredAt    time.Time
	ModelTag    string
}

// NewOutcomeScore validates ranges at construction; out-of-range scores
// are rejected, never clamped.
func NewOutcomeScore(snippetHash string, dimension id.OutcomeDimension, score, confidence float64, scoredAt time.Time, modelTag string) (*OutcomeScore, error) {
	if snippetHash == "" {
		return nil, derrors.New(derrors.CodeInvariantViolation, "snippet_hash cannot be empty")
	}
	if !dimension.IsValid() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "invalid outcome dimension")
	}
	if score < 0 || score > 1 {
		return nil, derrors.New(derrors.CodeInvariantViolation, "score must be in [0,1]")
	}
	if confidence < 0 || confidence > 1 {
		return nil, derrors.New(derrors.CodeInvariantViolation, "confidence must be in [0,1]")
	}
	if scoredAt.IsZero() {
		return nil, derrors.New(derrors.CodeInvariantViolation, "scored_at is required")
	}

	return &OutcomeScore{
		ID:          id.NewOutcomeScoreID(),
		SnippetHash: snippetHash,
		Dimension:   dimension,
		Score:       score,
		Confidence:  confidence,
		ScoredAt:    scoredAt,
		ModelTag:    modelTag,
	}, nil
}
