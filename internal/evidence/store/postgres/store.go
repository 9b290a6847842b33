package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tangible/internal/evidence/models"
	id "tangible/pkg/domain"
	"tangible/pkg/platform/sentinel"
	txcontext "tangible/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// SnippetStore persists evidence snippets in PostgreSQL. The content
// hash is the primary key; inserts never overwrite.
type SnippetStore struct {
	db *sql.DB
}

func NewSnippetStore(db *sql.DB) *SnippetStore {
	return &SnippetStore{db: db}
}

const snippetColumns = `snippet_hash, source_type, program_type, submitted_at, cohort, participant_ref`

func (s *SnippetStore) Create(ctx context.Context, snippet *models.EvidenceSnippet) error {
	query := `
		INSERT INTO evidence_snippets (` + snippetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		snippet.SnippetHash,
		string(snippet.SourceType),
		string(snippet.ProgramType),
		snippet.SubmittedAt,
		snippet.Cohort,
		snippet.ParticipantRef,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert snippet: %w", err)
	}
	return nil
}

func (s *SnippetStore) Get(ctx context.Context, snippetHash string) (*models.EvidenceSnippet, error) {
	query := `SELECT ` + snippetColumns + ` FROM evidence_snippets WHERE snippet_hash = $1`
	row := execer(ctx, s.db).QueryRowContext(ctx, query, snippetHash)
	snip, err := scanSnippet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snippet: %w", err)
	}
	return snip, nil
}

func (s *SnippetStore) GetBatch(ctx context.Context, snippetHashes []string) (map[string]models.EvidenceSnippet, error) {
	out := make(map[string]models.EvidenceSnippet, len(snippetHashes))
	if len(snippetHashes) == 0 {
		return out, nil
	}

	query := `SELECT ` + snippetColumns + ` FROM evidence_snippets WHERE snippet_hash = ANY($1)`
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, pq.Array(snippetHashes))
	if err != nil {
		return nil, fmt.Errorf("batch get snippets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		snip, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snippet: %w", err)
		}
		out[snip.SnippetHash] = *snip
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snippets: %w", err)
	}
	return out, nil
}

func (s *SnippetStore) Exists(ctx context.Context, snippetHash string) (bool, error) {
	var exists bool
	err := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM evidence_snippets WHERE snippet_hash = $1)`, snippetHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check snippet existence: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (*models.EvidenceSnippet, error) {
	var (
		snip       models.EvidenceSnippet
		sourceType string
		program    string
	)
	err := row.Scan(
		&snip.SnippetHash,
		&sourceType,
		&program,
		&snip.SubmittedAt,
		&snip.Cohort,
		&snip.ParticipantRef,
	)
	if err != nil {
		return nil, err
	}
	snip.SourceType = models.SourceType(sourceType)
	snip.ProgramType = id.ProgramType(program)
	return &snip, nil
}

// ScoreStore persists outcome scores in PostgreSQL.
type ScoreStore struct {
	db *sql.DB
}

func NewScoreStore(db *sql.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

const scoreColumns = `id, snippet_hash, dimension, score, confidence, scored_at, model_tag`

func (s *ScoreStore) Create(ctx context.Context, score *models.OutcomeScore) error {
	query := `
		INSERT INTO outcome_scores (` + scoreColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(score.ID),
		score.SnippetHash,
		string(score.Dimension),
		score.Score,
		score.Confidence,
		score.ScoredAt,
		score.ModelTag,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert outcome score: %w", err)
	}
	return nil
}

func (s *ScoreStore) ListBySnippet(ctx context.Context, snippetHash string) ([]models.OutcomeScore, error) {
	query := `SELECT ` + scoreColumns + ` FROM outcome_scores WHERE snippet_hash = $1 ORDER BY scored_at, id`
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, snippetHash)
	if err != nil {
		return nil, fmt.Errorf("list scores by snippet: %w", err)
	}
	defer rows.Close()
	return collectScores(rows)
}

func (s *ScoreStore) ListByDimension(ctx context.Context, dimension id.OutcomeDimension, periodStart, periodEnd time.Time) ([]models.OutcomeScore, error) {
	query := `
		SELECT ` + scoreColumns + ` FROM outcome_scores
		WHERE dimension = $1 AND scored_at >= $2 AND scored_at < $3
		ORDER BY scored_at, id
	`
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, string(dimension), periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("list scores by dimension: %w", err)
	}
	defer rows.Close()
	return collectScores(rows)
}

func collectScores(rows *sql.Rows) ([]models.OutcomeScore, error) {
	var scores []models.OutcomeScore
	for rows.Next() {
		var (
			sc        models.OutcomeScore
			scoreID   uuid.UUID
			dimension string
		)
		err := rows.Scan(
			&scoreID,
			&sc.SnippetHash,
			&dimension,
			&sc.Score,
			&sc.Confidence,
			&sc.ScoredAt,
			&sc.ModelTag,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outcome score: %w", err)
		}
		sc.ID = id.OutcomeScoreID(scoreID)
		sc.Dimension = id.OutcomeDimension(dimension)
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome scores: %w", err)
	}
	return scores, nil
}
