package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tangible/internal/campaign/models"
	"tangible/internal/campaign/store"
	id "tangible/pkg/domain"
	"tangible/pkg/platform/sentinel"
)

// InMemoryStore keeps campaigns in a map guarded by an RWMutex. Used in
// unit tests and local development.
type InMemoryStore struct {
	mu        sync.RWMutex
	campaigns map[id.CampaignID]models.Campaign
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{campaigns: make(map[id.CampaignID]models.Campaign)}
}

func (s *InMemoryStore) Create(_ context.Context, c *models.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.campaigns[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.campaigns[c.ID] = *c
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

// Update replaces the stored campaign iff its version still equals
// expectedVersion.
func (s *InMemoryStore) Update(_ context.Context, c *models.Campaign, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.campaigns[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrVersionMismatch
	}
	s.campaigns[c.ID] = *c
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter store.ListFilter) ([]models.Campaign, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Campaign
	for _, c := range s.campaigns {
		if filter.CompanyID != nil && c.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if !filter.IncludeArchived && c.IsArchived {
			continue
		}
		matched = append(matched, c)
	}

	sortCampaigns(matched, filter.SortBy, filter.SortOrder)

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return append([]models.Campaign{}, matched[start:end]...), total, nil
}

func sortCampaigns(items []models.Campaign, sortBy, sortOrder string) {
	less := func(a, b models.Campaign) bool {
		switch sortBy {
		case store.SortByName:
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		case store.SortByStartDate:
			if !a.StartDate.Equal(b.StartDate) {
				return a.StartDate.Before(b.StartDate)
			}
		case store.SortByBudget:
			if a.BudgetAllocated != b.BudgetAllocated {
				return a.BudgetAllocated < b.BudgetAllocated
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
