// Package store defines the evidence persistence contracts. Snippets
// are immutable and deduplicated on their content hash; scores are
// append-only.
package store

import (
	"context"
	"time"

	"tangible/internal/evidence/models"
	id "tangible/pkg/domain"
)

// SnippetStore persists evidence snippets. Create returns
// sentinel.ErrConflict when the hash is already present; snippets are
// never overwritten.
type SnippetStore interface {
	Create(ctx context.Context, snippet *models.EvidenceSnippet) error
	Get(ctx context.Context, snippetHash string) (*models.EvidenceSnippet, error)
	GetBatch(ctx context.Context, snippetHashes []string) (map[string]models.EvidenceSnippet, error)
	Exists(ctx context.Context, snippetHash string) (bool, error)
}

// ScoreStore persists model-derived outcome scores.
type ScoreStore interface {
	Create(ctx context.Context, score *models.OutcomeScore) error
	ListBySnippet(ctx context.Context, snippetHash string) ([]models.OutcomeScore, error)
	// ListByDimension returns scores for a dimension scored within
	// [periodStart, periodEnd); the lineage resolver applies the same
	// half-open window.
	ListByDimension(ctx context.Context, dimension id.OutcomeDimension, periodStart, periodEnd time.Time) ([]models.OutcomeScore, error)
}
