// Package store defines the activity log persistence contract shared
// by the in-memory and PostgreSQL implementations.
package store

import (
	"context"

	"tangible/internal/rollup/models"
	id "tangible/pkg/domain"
)

// Store persists activity log entries. The log is append-only: entries
// are never updated or deleted, corrections arrive as new entries.
type Store interface {
	Append(ctx context.Context, entry *models.ActivityEntry) error
	ListByInstance(ctx context.Context, instanceID id.InstanceID) ([]models.ActivityEntry, error)
}
