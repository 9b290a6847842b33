// Package store defines the program instance persistence contract
// shared by the in-memory and PostgreSQL implementations.
package store

import (
	"context"
	"time"

	"tangible/internal/instance/models"
	id "tangible/pkg/domain"
)

// Sort columns accepted by List. Anything else falls back to created_at.
const (
	SortByCreatedAt = "created_at"
	SortByStartDate = "start_date"
	SortByEndDate   = "end_date"
)

// ListFilter narrows and pages an instance listing. OverdueAsOf selects
// instances whose end date passed without completion; the scheduler
// uses it to find work.
type ListFilter struct {
	CampaignID  *id.CampaignID
	Status      *models.InstanceStatus
	OverdueAsOf *time.Time
	Limit       int
	Offset      int
	SortBy      string
	SortOrder   string // "asc" or "desc"
}

// Store persists program instances. Update performs a compare-and-swap
// on the version column and returns sentinel.ErrVersionMismatch when
// the stored version differs from expectedVersion.
//
// ListByCampaign returns every instance of a campaign unpaged; the
// rollup job and the campaign cascade both need the full set.
type Store interface {
	Create(ctx context.Context, inst *models.ProgramInstance) error
	Get(ctx context.Context, instanceID id.InstanceID) (*models.ProgramInstance, error)
	Update(ctx context.Context, inst *models.ProgramInstance, expectedVersion int64) error
	List(ctx context.Context, filter ListFilter) ([]models.ProgramInstance, int, error)
	ListByCampaign(ctx context.Context, campaignID id.CampaignID) ([]models.ProgramInstance, error)
}
