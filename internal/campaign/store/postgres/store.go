package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tangible/internal/campaign/models"
	"tangible/internal/campaign/store"
	id "tangible/pkg/domain"
	"tangible/pkg/platform/sentinel"
	txcontext "tangible/pkg/platform/tx"
)

// Store persists campaigns in PostgreSQL. Sealed variant configs live
// in JSONB columns with their tags.
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

const campaignColumns = `
	id, company_id, program_template_id, beneficiary_group_id, name,
	program_type, program_config, overrides, status, status_reason,
	pricing_model, pricing, target_volunteers, current_volunteers,
	target_beneficiaries, current_beneficiaries, budget_allocated,
	budget_spent, credits_consumed, learners_served, start_date, end_date,
	is_archived, version, created_at, updated_at
`

func (s *Store) Create(ctx context.Context, c *models.Campaign) error {
	programConfig, err := models.EncodeProgramConfig(c.ProgramConfig)
	if err != nil {
		return err
	}
	pricing, err := models.EncodePricing(c.Pricing)
	if err != nil {
		return err
	}
	overrides, err := json.Marshal(c.Overrides)
	if err != nil {
		return fmt.Errorf("marshal overrides: %w", err)
	}

	query := `
		INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
				$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		uuid.UUID(c.CompanyID),
		nullableUUID(uuid.UUID(c.ProgramTemplateID)),
		nullableUUID(uuid.UUID(c.BeneficiaryGroupID)),
		c.Name,
		string(c.ProgramType),
		programConfig,
		overrides,
		string(c.Status),
		c.StatusReason,
		string(c.PricingModel),
		pricing,
		c.TargetVolunteers,
		c.CurrentVolunteers,
		c.TargetBeneficiaries,
		c.CurrentBeneficiaries,
		c.BudgetAllocated,
		c.BudgetSpent,
		c.CreditsConsumed,
		c.LearnersServed,
		c.StartDate,
		c.EndDate,
		c.IsArchived,
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(campaignID))
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// Update replaces the row guarded by the version compare-and-swap.
func (s *Store) Update(ctx context.Context, c *models.Campaign, expectedVersion int64) error {
	programConfig, err := models.EncodeProgramConfig(c.ProgramConfig)
	if err != nil {
		return err
	}
	pricing, err := models.EncodePricing(c.Pricing)
	if err != nil {
		return err
	}
	overrides, err := json.Marshal(c.Overrides)
	if err != nil {
		return fmt.Errorf("marshal overrides: %w", err)
	}

	query := `
		UPDATE campaigns SET
			program_template_id = $1, beneficiary_group_id = $2, name = $3,
			program_config = $4, overrides = $5, status = $6,
			status_reason = $7, pricing = $8, target_volunteers = $9,
			current_volunteers = $10, target_beneficiaries = $11,
			current_beneficiaries = $12, budget_allocated = $13,
			budget_spent = $14, credits_consumed = $15, learners_served = $16,
			start_date = $17, end_date = $18, is_archived = $19,
			version = $20, updated_at = $21
		WHERE id = $22 AND version = $23
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		nullableUUID(uuid.UUID(c.ProgramTemplateID)),
		nullableUUID(uuid.UUID(c.BeneficiaryGroupID)),
		c.Name,
		programConfig,
		overrides,
		string(c.Status),
		c.StatusReason,
		pricing,
		c.TargetVolunteers,
		c.CurrentVolunteers,
		c.TargetBeneficiaries,
		c.CurrentBeneficiaries,
		c.BudgetAllocated,
		c.BudgetSpent,
		c.CreditsConsumed,
		c.LearnersServed,
		c.StartDate,
		c.EndDate,
		c.IsArchived,
		c.Version,
		c.UpdatedAt,
		uuid.UUID(c.ID),
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign rows affected: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or the version moved; disambiguate so
		// callers can retry on conflict.
		var exists bool
		checkErr := s.execer(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM campaigns WHERE id = $1)`, uuid.UUID(c.ID),
		).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("check campaign existence: %w", checkErr)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionMismatch
	}
	return nil
}

var sortColumns = map[string]string{
	store.SortByCreatedAt: "created_at",
	store.SortByName:      "name",
	store.SortByStartDate: "start_date",
	store.SortByBudget:    "budget_allocated",
}

func (s *Store) List(ctx context.Context, filter store.ListFilter) ([]models.Campaign, int, error) {
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
	if !filter.IncludeArchived {
		where += " AND is_archived = FALSE"
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM campaigns " + where
	if err := s.execer(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
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
		"SELECT %s FROM campaigns %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d",
		campaignColumns, where, column, direction, len(args)-1, len(args),
	)

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate campaigns: %w", err)
	}
	return campaigns, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var (
		c                  models.Campaign
		campaignID         uuid.UUID
		companyID          uuid.UUID
		programTemplateID  *uuid.UUID
		beneficiaryGroupID *uuid.UUID
		programType        string
		programConfigJSON  []byte
		overridesJSON      []byte
		status             string
		pricingModel       string
		pricingJSON        []byte
	)

	err := row.Scan(
		&campaignID,
		&companyID,
		&programTemplateID,
		&beneficiaryGroupID,
		&c.Name,
		&programType,
		&programConfigJSON,
		&overridesJSON,
		&status,
		&c.StatusReason,
		&pricingModel,
		&pricingJSON,
		&c.TargetVolunteers,
		&c.CurrentVolunteers,
		&c.TargetBeneficiaries,
		&c.CurrentBeneficiaries,
		&c.BudgetAllocated,
		&c.BudgetSpent,
		&c.CreditsConsumed,
		&c.LearnersServed,
		&c.StartDate,
		&c.EndDate,
		&c.IsArchived,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.ID = id.CampaignID(campaignID)
	c.CompanyID = id.CompanyID(companyID)
	if programTemplateID != nil {
		c.ProgramTemplateID = id.ProgramTemplateID(*programTemplateID)
	}
	if beneficiaryGroupID != nil {
		c.BeneficiaryGroupID = id.BeneficiaryGroupID(*beneficiaryGroupID)
	}
	c.ProgramType = id.ProgramType(programType)
	c.Status = models.CampaignStatus(status)
	c.PricingModel = id.PricingModel(pricingModel)

	if c.ProgramConfig, err = models.DecodeProgramConfig(programConfigJSON); err != nil {
		return nil, err
	}
	if c.Pricing, err = models.DecodePricing(pricingJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(overridesJSON, &c.Overrides); err != nil {
		return nil, fmt.Errorf("unmarshal overrides: %w", err)
	}
	return &c, nil
}

func nullableUUID(u uuid.UUID) *uuid.UUID {
	if u == uuid.Nil {
		return nil
	}
	return &u
}
