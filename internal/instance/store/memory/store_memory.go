package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tangible/internal/instance/models"
	"tangible/internal/instance/store"
	id "tangible/pkg/domain"
	"tangible/pkg/platform/sentinel"
)

// InMemoryStore keeps program instances in a map guarded by an RWMutex.
// Used in unit tests and local development.
type InMemoryStore struct {
	mu        sync.RWMutex
	instances map[id.InstanceID]models.ProgramInstance
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{instances: make(map[id.InstanceID]models.ProgramInstance)}
}

func (s *InMemoryStore) Create(_ context.Context, inst *models.ProgramInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.instances[inst.ID]; exists {
		return sentinel.ErrConflict
	}
	s.instances[inst.ID] = cloneInstance(*inst)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, instanceID id.InstanceID) (*models.ProgramInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[instanceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneInstance(inst)
	return &out, nil
}

// Update replaces the stored instance iff its version still equals
// expectedVersion.
func (s *InMemoryStore) Update(_ context.Context, inst *models.ProgramInstance, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.instances[inst.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrVersionMismatch
	}
	s.instances[inst.ID] = cloneInstance(*inst)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter store.ListFilter) ([]models.ProgramInstance, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.ProgramInstance
	for _, inst := range s.instances {
		if filter.CampaignID != nil && inst.CampaignID != *filter.CampaignID {
			continue
		}
		if filter.Status != nil && inst.Status != *filter.Status {
			continue
		}
		if filter.OverdueAsOf != nil {
			if inst.Status == models.StatusCompleted || !filter.OverdueAsOf.After(inst.EndDate) {
				continue
			}
		}
		matched = append(matched, cloneInstance(inst))
	}

	sortInstances(matched, filter.SortBy, filter.SortOrder)

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return append([]models.ProgramInstance{}, matched[start:end]...), total, nil
}

func (s *InMemoryStore) ListByCampaign(_ context.Context, campaignID id.CampaignID) ([]models.ProgramInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.ProgramInstance
	for _, inst := range s.instances {
		if inst.CampaignID == campaignID {
			matched = append(matched, cloneInstance(inst))
		}
	}
	sortInstances(matched, store.SortByCreatedAt, "asc")
	return matched, nil
}

// cloneInstance deep-copies the map-valued outcome scores so callers
// cannot mutate stored state through the returned value.
func cloneInstance(inst models.ProgramInstance) models.ProgramInstance {
	out := inst
	if inst.OutcomeScores != nil {
		out.OutcomeScores = make(map[id.OutcomeDimension]float64, len(inst.OutcomeScores))
		for k, v := range inst.OutcomeScores {
			out.OutcomeScores[k] = v
		}
	}
	return out
}

func sortInstances(items []models.ProgramInstance, sortBy, sortOrder string) {
	less := func(a, b models.ProgramInstance) bool {
		switch sortBy {
		case store.SortByStartDate:
			if !a.StartDate.Equal(b.StartDate) {
				return a.StartDate.Before(b.StartDate)
			}
		case store.SortByEndDate:
			if !a.EndDate.Equal(b.EndDate) {
				return a.EndDate.Before(b.EndDate)
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		// Stable tie-break so pagination never flaps.
		return a.ID.String() < b.ID.String()
	}

	desc := strings.EqualFold(sortOrder, "desc")
	sort.Slice(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
