// Package store defines the campaign persistence contract shared by
// the in-memory and PostgreSQL implementations.
package store

import (
	"context"

	"tangible/internal/campaign/models"
	id "tangible/pkg/domain"
)

// Sort columns accepted by List. Anything else falls back to created_at.
const (
	SortByCreatedAt = "created_at"
	SortByName      = "name"
	SortByStartDate = "start_date"
	SortByBudget    = "budget_allocated"
)

// ListFilter narrows and pages a campaign listing. Limit/Offset are
// already validated at the boundary (limit 1-100, offset >= 0).
type ListFilter struct {
	CompanyID       *id.CompanyID
	Status          *models.CampaignStatus
	IncludeArchived bool
	Limit           int
	Offset          int
	SortBy          string
	SortOrder       string // "asc" or "desc"
}

// Store persists campaigns. Update performs a compare-and-swap on the
// version column and returns sentinel.ErrVersionMismatch when the
// stored version differs from expectedVersion.
type Store interface {
	Create(ctx context.Context, c *models.Campaign) error
	Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
	Update(ctx context.Context, c *models.Campaign, expectedVersion int64) error
	List(ctx context.Context, filter ListFilter) ([]models.Campaign, int, error)
}
