package memory

import (
	"context"
	"sort"
	"sync"

	"tangible/internal/rollup/models"
	id "tangible/pkg/domain"
	"tangible/pkg/platform/sentinel"
)

// InMemoryStore keeps activity entries in an append-only slice guarded
// by an RWMutex. Used in unit tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []models.ActivityEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry *models.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entries {
		if existing.ID == entry.ID {
			return sentinel.ErrConflict
		}
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *InMemoryStore) ListByInstance(_ context.Context, instanceID id.InstanceID) ([]models.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ActivityEntry
	for _, entry := range s.entries {
		if entry.InstanceID == instanceID {
			out = append(out, entry)
		}
	}
	// Stable (occurred_at, id) order keeps replays deterministic.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
