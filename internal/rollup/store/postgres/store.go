// Package postgres persists the append-only activity log.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tangible/internal/rollup/models"
	id "tangible/pkg/domain"
	"tangible/pkg/platform/sentinel"
	txcontext "tangible/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const entryColumns = `id, instance_id, kind, hours, credits, occurred_at, created_at`

func (s *Store) Append(ctx context.Context, entry *models.ActivityEntry) error {
	query := `
		INSERT INTO activity_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.InstanceID),
		string(entry.Kind),
		entry.Hours,
		entry.Credits,
		entry.OccurredAt,
		entry.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

func (s *Store) ListByInstance(ctx context.Context, instanceID id.InstanceID) ([]models.ActivityEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM activity_entries
		WHERE instance_id = $1
		ORDER BY occurred_at, id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(instanceID))
	if err != nil {
		return nil, fmt.Errorf("list activity entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ActivityEntry
	for rows.Next() {
		var (
			entry   models.ActivityEntry
			entryID uuid.UUID
			instID  uuid.UUID
			kind    string
		)
		if err := rows.Scan(&entryID, &instID, &kind, &entry.Hours, &entry.Credits, &entry.OccurredAt, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		entry.ID = id.ActivityEntryID(entryID)
		entry.InstanceID = id.InstanceID(instID)
		entry.Kind = models.ActivityKind(kind)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity entries: %w", err)
	}
	return entries, nil
}
