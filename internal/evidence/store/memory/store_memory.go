package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tangible/internal/evidence/models"
	id "tangible/pkg/domain"
	"tangible/pkg/platform/sentinel"
)

// SnippetStore keeps evidence snippets in a map keyed by content hash.
// Used in unit tests and local development.
type SnippetStore struct {
	mu       sync.RWMutex
	snippets map[string]models.EvidenceSnippet
}

func NewSnippetStore() *SnippetStore {
	return &SnippetStore{snippets: make(map[string]models.EvidenceSnippet)}
}

func (s *SnippetStore) Create(_ context.Context, snippet *models.EvidenceSnippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.snippets[snippet.SnippetHash]; exists {
		return sentinel.ErrConflict
	}
	s.snippets[snippet.SnippetHash] = *snippet
	return nil
}

func (s *SnippetStore) Get(_ context.Context, snippetHash string) (*models.EvidenceSnippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snip, ok := s.snippets[snippetHash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &snip, nil
}

func (s *SnippetStore) GetBatch(_ context.Context, snippetHashes []string) (map[string]models.EvidenceSnippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.EvidenceSnippet, len(snippetHashes))
	for _, hash := range snippetHashes {
		if snip, ok := s.snippets[hash]; ok {
			out[hash] = snip
		}
	}
	return out, nil
}

func (s *SnippetStore) Exists(_ context.Context, snippetHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.snippets[snippetHash]
	return ok, nil
}

// ScoreStore keeps outcome scores in an append-only slice.
type ScoreStore struct {
	mu     sync.RWMutex
	scores []models.OutcomeScore
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{}
}

func (s *ScoreStore) Create(_ context.Context, score *models.OutcomeScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.scores {
		if existing.ID == score.ID {
			return sentinel.ErrConflict
		}
	}
	s.scores = append(s.scores, *score)
	return nil
}

func (s *ScoreStore) ListBySnippet(_ context.Context, snippetHash string) ([]models.OutcomeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.OutcomeScore
	for _, sc := range s.scores {
		if sc.SnippetHash == snippetHash {
			out = append(out, sc)
		}
	}
	sortScores(out)
	return out, nil
}

func (s *ScoreStore) ListByDimension(_ context.Context, dimension id.OutcomeDimension, periodStart, periodEnd time.Time) ([]models.OutcomeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.OutcomeScore
	for _, sc := range s.scores {
		if sc.Dimension != dimension {
			continue
		}
		if sc.ScoredAt.Before(periodStart) || !sc.ScoredAt.Before(periodEnd) {
			continue
		}
		out = append(out, sc)
	}
	sortScores(out)
	return out, nil
}

func sortScores(scores []models.OutcomeScore) {
	sort.Slice(scores, func(i, j int) bool {
		if !scores[i].ScoredAt.Equal(scores[j].ScoredAt) {
			return scores[i].ScoredAt.Before(scores[j].ScoredAt)
		}
		return scores[i].ID.String() < scores[j].ID.String()
	})
}
