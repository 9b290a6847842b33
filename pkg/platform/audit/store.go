package audit

import (
	"context"

	id "tangible/pkg/domain"
)

// Store persists audit events. Implementations: in-memory for tests
// and dev, a transactional outbox on PostgreSQL for production.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCompany(ctx context.Context, companyID id.CompanyID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
