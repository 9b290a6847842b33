package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	campaignmodels "tangible/internal/campaign/models"
	"tangible/internal/instance/models"
	"tangible/internal/instance/store"
	id "tangible/pkg/domain"
	"tangible/pkg/platform/sentinel"
	txcontext "tangible/pkg/platform/tx"
)

// Store persists program instances in PostgreSQL. The denormalized
// program config and the outcome score map live in JSONB columns.
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

const instanceColumns = `
	id, campaign_id, status, status_reason, program_type, config,
	start_date, end_date, enrolled_volunteers, enrolled_beneficiaries,
	active_pairs, active_groups, total_sessions_held, total_hours_logged,
	sroi_score, average_vis_score, outcome_scores, volunteers_consumed,
	credits_consumed, learners_served, version, created_at, updated_at
`

func (s *Store) Create(ctx context.Context, inst *models.ProgramInstance) error {
	config, err := campaignmodels.EncodeProgramConfig(inst.Config)
	if err != nil {
		return err
	}
	outcomeScores, err := json.Marshal(inst.OutcomeScores)
	if err != nil {
		return fmt.Errorf("marshal outcome scores: %w", err)
	}

	query := `
		INSERT INTO program_instances (` + instanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(inst.ID),
		uuid.UUID(inst.CampaignID),
		string(inst.Status),
		inst.StatusReason,
		string(inst.ProgramType),
		config,
		inst.StartDate,
		inst.EndDate,
		inst.EnrolledVolunteers,
		inst.EnrolledBeneficiaries,
		inst.ActivePairs,
		inst.ActiveGroups,
		inst.TotalSessionsHeld,
		inst.TotalHoursLogged,
		inst.SROIScore,
		inst.AverageVISScore,
		outcomeScores,
		inst.VolunteersConsumed,
		inst.CreditsConsumed,
		inst.LearnersServed,
		inst.Version,
		inst.CreatedAt,
		inst.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert instance: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, instanceID id.InstanceID) (*models.ProgramInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM program_instances WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(instanceID))
	inst, err := scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return inst, nil
}

// Update replaces the row guarded by the version compare-and-swap.
func (s *Store) Update(ctx context.Context, inst *models.ProgramInstance, expectedVersion int64) error {
	config, err := campaignmodels.EncodeProgramConfig(inst.Config)
	if err != nil {
		return err
	}
	outcomeScores, err := json.Marshal(inst.OutcomeScores)
	if err != nil {
		return fmt.Errorf("marshal outcome scores: %w", err)
	}

	query := `
		UPDATE program_instances SET
			status = $1, status_reason = $2, config = $3, start_date = $4,
			end_date = $5, enrolled_volunteers = $6,
			enrolled_beneficiaries = $7, active_pairs = $8,
			active_groups = $9, total_sessions_held = $10,
			total_hours_logged = $11, sroi_score = $12,
			average_vis_score = $13, outcome_scores = $14,
			volunteers_consumed = $15, credits_consumed = $16,
			learners_served = $17, version = $18, updated_at = $19
		WHERE id = $20 AND version = $21
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		string(inst.Status),
		inst.StatusReason,
		config,
		inst.StartDate,
		inst.EndDate,
		inst.EnrolledVolunteers,
		inst.EnrolledBeneficiaries,
		inst.ActivePairs,
		inst.ActiveGroups,
		inst.TotalSessionsHeld,
		inst.TotalHoursLogged,
		inst.SROIScore,
		inst.AverageVISScore,
		outcomeScores,
		inst.VolunteersConsumed,
		inst.CreditsConsumed,
		inst.LearnersServed,
		inst.Version,
		inst.UpdatedAt,
		uuid.UUID(inst.ID),
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update instance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update instance rows affected: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or the version moved; disambiguate so
		// callers can retry on conflict.
		var exists bool
		checkErr := s.execer(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM program_instances WHERE id = $1)`, uuid.UUID(inst.ID),
		).Scan(&exists)
		if checkErr != nil {
			return fmt.Errorf("check instance existence: %w", checkErr)
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
	store.SortByStartDate: "start_date",
	store.SortByEndDate:   "end_date",
}

func (s *Store) List(ctx context.Context, filter store.ListFilter) ([]models.ProgramInstance, int, error) {
	where := "WHERE 1=1"
	args := []any{}

	if filter.CampaignID != nil {
		args = append(args, uuid.UUID(*filter.CampaignID))
		where += fmt.Sprintf(" AND campaign_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.OverdueAsOf != nil {
		args = append(args, *filter.OverdueAsOf)
		where += fmt.Sprintf(" AND status <> 'completed' AND end_date < $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM program_instances " + where
	if err := s.execer(ctx).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count instances: %w", err)
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
		"SELECT %s FROM program_instances %s ORDER BY %s %s, id LIMIT $%d OFFSET $%d",
		instanceColumns, where, column, direction, len(args)-1, len(args),
	)

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	instances, err := collectInstances(rows)
	if err != nil {
		return nil, 0, err
	}
	return instances, total, nil
}

func (s *Store) ListByCampaign(ctx context.Context, campaignID id.CampaignID) ([]models.ProgramInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM program_instances WHERE campaign_id = $1 ORDER BY created_at, id`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(campaignID))
	if err != nil {
		return nil, fmt.Errorf("list campaign instances: %w", err)
	}
	defer rows.Close()
	return collectInstances(rows)
}

func collectInstances(rows *sql.Rows) ([]models.ProgramInstance, error) {
	var instances []models.ProgramInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		instances = append(instances, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return instances, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstance(row rowScanner) (*models.ProgramInstance, error) {
	var (
		inst              models.ProgramInstance
		instanceID        uuid.UUID
		campaignID        uuid.UUID
		status            string
		programType       string
		configJSON        []byte
		outcomeScoresJSON []byte
	)

	err := row.Scan(
		&instanceID,
		&campaignID,
		&status,
		&inst.StatusReason,
		&programType,
		&configJSON,
		&inst.StartDate,
		&inst.EndDate,
		&inst.EnrolledVolunteers,
		&inst.EnrolledBeneficiaries,
		&inst.ActivePairs,
		&inst.ActiveGroups,
		&inst.TotalSessionsHeld,
		&inst.TotalHoursLogged,
		&inst.SROIScore,
		&inst.AverageVISScore,
		&outcomeScoresJSON,
		&inst.VolunteersConsumed,
		&inst.CreditsConsumed,
		&inst.LearnersServed,
		&inst.Version,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inst.ID = id.InstanceID(instanceID)
	inst.CampaignID = id.CampaignID(campaignID)
	inst.Status = models.InstanceStatus(status)
	inst.ProgramType = id.ProgramType(programType)

	if inst.Config, err = campaignmodels.DecodeProgramConfig(configJSON); err != nil {
		return nil, err
	}
	if len(outcomeScoresJSON) > 0 {
		if err := json.Unmarshal(outcomeScoresJSON, &inst.OutcomeScores); err != nil {
			return nil, fmt.Errorf("unmarshal outcome scores: %w", err)
		}
	}
	return &inst, nil
}
