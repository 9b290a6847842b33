package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tangible/internal/disclosure/models"
	"tangible/internal/disclosure/store"
	id "tangible/pkg/domain"
	"tangible/pkg/platform/sentinel"
)

// InMemoryStore keeps regulatory packs in a map guarded by an RWMutex.
// Used in unit tests and local development.
type InMemoryStore struct {
	mu    sync.RWMutex
	packs map[id.PackID]models.RegulatoryPack
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{packs: make(map[id.PackID]models.RegulatoryPack)}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.RegulatoryPack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.packs[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.packs[p.ID] = clonePack(*p)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, packID id.PackID) (*models.RegulatoryPack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packs[packID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := clonePack(p)
	return &out, nil
}

func (s *InMemoryStore) Update(_ context.Context, p *models.RegulatoryPack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packs[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.packs[p.ID] = clonePack(*p)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter store.ListFilter) ([]models.RegulatoryPack, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.RegulatoryPack
	for _, p := range s.packs {
		if filter.CompanyID != nil && p.CompanyID != *filter.CompanyID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		matched = append(matched, clonePack(p))
	}

	sortPacks(matched, filter.SortBy, filter.SortOrder)

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return append([]models.RegulatoryPack{}, matched[start:end]...), total, nil
}

// clonePack deep-copies the slice-valued fields so callers cannot
// mutate stored state through the returned value.
func clonePack(p models.RegulatoryPack) models.RegulatoryPack {
	out := p
	out.Frameworks = append([]models.Framework(nil), p.Frameworks...)
	out.Gaps = append([]models.GapItem(nil), p.Gaps...)
	if p.Sections != nil {
		out.Sections = make([]models.PackSection, len(p.Sections))
		for i, section := range p.Sections {
			cloned := section
			cloned.Mappings = make([]models.DisclosureMapping, len(section.Mappings))
			for j, m := range section.Mappings {
				mc := m
				mc.EvidenceRefs = append([]models.EvidenceRef(nil), m.EvidenceRefs...)
				mc.Gaps = append([]models.GapItem(nil), m.Gaps...)
				cloned.Mappings[j] = mc
			}
			out.Sections[i] = cloned
		}
	}
	return out
}

func sortPacks(items []models.RegulatoryPack, sortBy, sortOrder string) {
	less := func(a, b models.RegulatoryPack) bool {
		switch sortBy {
		case store.SortByPeriodStart:
			if !a.PeriodStart.Equal(b.PeriodStart) {
				return a.PeriodStart.Before(b.PeriodStart)
			}
		case store.SortByGeneratedAt:
			if !a.GeneratedAt.Equal(b.GeneratedAt) {
				return a.GeneratedAt.Before(b.GeneratedAt)
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
