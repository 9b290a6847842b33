// Package postgres persists regulatory packs. Sections, summary and
// gaps are stored as JSONB documents; the pack header columns carry
// everything the list endpoint filters on.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tangible/internal/disclosure/models"
	"tangible/internal/disclosure/store"
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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const packColumns = `
	id, company_id, period_start, period_end, frameworks, status,
	generated_at, summary, sections, gaps, fail_reason,
	created_at, updated_at
`

func (s *Store) Create(ctx context.Context, p *models.RegulatoryPack) error {
	summary, sections, gaps, err := marshalPackBody(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO regulatory_packs (` + packColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(p.ID),
		uuid.UUID(p.CompanyID),
		p.PeriodStart,
		p.PeriodEnd,
		pq.Array(frameworkStrings(p.Frameworks)),
		string(p.Status),
		nullableTime(p.GeneratedAt),
		summary,
		sections,
		gaps,
		p.FailReason,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert pack: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, packID id.PackID) (*models.RegulatoryPack, error) {
	query := `SELECT ` + packColumns + ` FROM regulatory_packs WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(packID))
	p, err := scanPack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pack: %w", err)
	}
	return p, nil
}

func (s *Store) Update(ctx context.Context, p *models.RegulatoryPack) error {
	summary, sections, gaps, err := marshalPackBody(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE regulatory_packs SET
			status = $1, generated_at = $2, summary = $3, sections = $4,
			gaps = $5, fail_reason = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		string(p.Status),
		nullableTime(p.GeneratedAt),
		summary,
		sections,
		gaps,
		p.FailReason,
		p.UpdatedAt,
		uuid.UUID(p.ID),
	)
	if err != nil {
		return fmt.Errorf("update pack: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pack rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

var sortColumns = map[string]string{
	store.SortByCreatedAt:   "created_at",
	store.SortByPeriodStart: "period_start",
	store.SortByGeneratedAt: "generated_at",
}

func (s *Store) List(ctx context.Context, filter store.ListFilter) ([]models.RegulatoryPack, int, error) {
	where := "WHERE 1=1"
	args := []any{}

	if filter.CompanyID != nil {
		args = append(args, uuid.UUID(*filter.CompanyID))
		where += fmt.Sprintf(" AND company_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM regulatory_packs " + where
	if err := s.execer(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count packs: %w", err)
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.SortOrder == "desc" {
		direction = "DESC"
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM regulatory_packs %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d",
		packColumns, where, column, direction, len(args)-1, len(args),
	)

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list packs: %w", err)
	}
	defer rows.Close()

	var packs []models.RegulatoryPack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan pack: %w", err)
		}
		packs = append(packs, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate packs: %w", err)
	}
	return packs, total, nil
}

func marshalPackBody(p *models.RegulatoryPack) (summary, sections, gaps []byte, err error) {
	if summary, err = json.Marshal(p.Summary); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal pack summary: %w", err)
	}
	if sections, err = json.Marshal(p.Sections); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal pack sections: %w", err)
	}
	if gaps, err = json.Marshal(p.Gaps); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal pack gaps: %w", err)
	}
	return summary, sections, gaps, nil
}

func frameworkStrings(frameworks []models.Framework) []string {
	out := make([]string, len(frameworks))
	for i, f := range frameworks {
		out[i] = string(f)
	}
	return out
}

// nullableTime maps the zero time to SQL NULL so a pending pack's
// generated_at stays unset until generation finishes.
func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPack(row rowScanner) (*models.RegulatoryPack, error) {
	var (
		p            models.RegulatoryPack
		packID       uuid.UUID
		companyID    uuid.UUID
		frameworks   pq.StringArray
		status       string
		generatedAt  sql.NullTime
		summaryJSON  []byte
		sectionsJSON []byte
		gapsJSON     []byte
	)

	err := row.Scan(
		&packID,
		&companyID,
		&p.PeriodStart,
		&p.PeriodEnd,
		&frameworks,
		&status,
		&generatedAt,
		&summaryJSON,
		&sectionsJSON,
		&gapsJSON,
		&p.FailReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ID = id.PackID(packID)
	p.CompanyID = id.CompanyID(companyID)
	p.Status = models.PackStatus(status)
	if generatedAt.Valid {
		p.GeneratedAt = generatedAt.Time
	}
	p.Frameworks = make([]models.Framework, len(frameworks))
	for i, f := range frameworks {
		p.Frameworks[i] = models.Framework(f)
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &p.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal pack summary: %w", err)
		}
	}
	if len(sectionsJSON) > 0 {
		if err := json.Unmarshal(sectionsJSON, &p.Sections); err != nil {
			return nil, fmt.Errorf("unmarshal pack sections: %w", err)
		}
	}
	if len(gapsJSON) > 0 {
		if err := json.Unmarshal(gapsJSON, &p.Gaps); err != nil {
			return nil, fmt.Errorf("unmarshal pack gaps: %w", err)
		}
	}
	return &p, nil
}
