// Package store defines the regulatory pack persistence contract
// shared by the in-memory and PostgreSQL implementations.
package store

import (
	"context"

	"tangible/internal/disclosure/models"
	id "tangible/pkg/domain"
)

// Sort columns accepted by List. Anything else falls back to created_at.
const (
	SortByCreatedAt   = "created_at"
	SortByPeriodStart = "period_start"
	SortByGeneratedAt = "generated_at"
)

// ListFilter narrows and pages a pack listing. Limit/Offset are already
// validated at the boundary (limit 1-100, offset >= 0).
type ListFilter struct {
	CompanyID *id.CompanyID
	Status    *models.PackStatus
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string // "asc" or "desc"
}

// Store persists regulatory packs. Generation is single-writer per
// pack, so Update replaces the stored row wholesale instead of doing a
// version compare-and-swap.
type Store interface {
	Create(ctx context.Context, p *models.RegulatoryPack) error
	Get(ctx context.Context, packID id.PackID) (*models.RegulatoryPack, error)
	Update(ctx context.Context, p *models.RegulatoryPack) error
	List(ctx context.Context, filter ListFilter) ([]models.RegulatoryPack, int, error)
}
