//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema mirrors the production tables. Integration tests run against a
// throwaway database, so the schema is applied directly instead of
// through the migration tooling.
const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id                    UUID PRIMARY KEY,
	company_id            UUID NOT NULL,
	program_template_id   UUID,
	beneficiary_group_id  UUID,
	name                  TEXT NOT NULL,
	program_type          TEXT NOT NULL,
	program_config        JSONB NOT NULL,
	overrides             JSONB NOT NULL DEFAULT '{}',
	status                TEXT NOT NULL,
	status_reason         TEXT,
	pricing_model         TEXT NOT NULL,
	pricing               JSONB NOT NULL,
	target_volunteers     INTEGER NOT NULL,
	current_volunteers    INTEGER NOT NULL DEFAULT 0,
	target_beneficiaries  INTEGER NOT NULL,
	current_beneficiaries INTEGER NOT NULL DEFAULT 0,
	budget_allocated      DOUBLE PRECISION NOT NULL,
	budget_spent          DOUBLE PRECISION NOT NULL DEFAULT 0,
	credits_consumed      DOUBLE PRECISION NOT NULL DEFAULT 0,
	learners_served       INTEGER NOT NULL DEFAULT 0,
	start_date            TIMESTAMPTZ NOT NULL,
	end_date              TIMESTAMPTZ NOT NULL,
	is_archived           BOOLEAN NOT NULL DEFAULT FALSE,
	version               INTEGER NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_campaigns_company ON campaigns (company_id);

CREATE TABLE IF NOT EXISTS program_instances (
	id                     UUID PRIMARY KEY,
	campaign_id            UUID NOT NULL,
	status                 TEXT NOT NULL,
	status_reason          TEXT,
	program_type           TEXT NOT NULL,
	config                 JSONB NOT NULL,
	start_date             TIMESTAMPTZ NOT NULL,
	end_date               TIMESTAMPTZ NOT NULL,
	enrolled_volunteers    INTEGER NOT NULL DEFAULT 0,
	enrolled_beneficiaries INTEGER NOT NULL DEFAULT 0,
	active_pairs           INTEGER,
	active_groups          INTEGER,
	total_sessions_held    INTEGER NOT NULL DEFAULT 0,
	total_hours_logged     DOUBLE PRECISION NOT NULL DEFAULT 0,
	sroi_score             DOUBLE PRECISION,
	average_vis_score      DOUBLE PRECISION,
	outcome_scores         JSONB NOT NULL DEFAULT '{}',
	volunteers_consumed    INTEGER NOT NULL DEFAULT 0,
	credits_consumed       DOUBLE PRECISION NOT NULL DEFAULT 0,
	learners_served        INTEGER NOT NULL DEFAULT 0,
	version                INTEGER NOT NULL,
	created_at             TIMESTAMPTZ NOT NULL,
	updated_at             TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_instances_campaign ON program_instances (campaign_id);

CREATE TABLE IF NOT EXISTS evidence_snippets (
	snippet_hash    TEXT PRIMARY KEY,
	source_type     TEXT NOT NULL,
	program_type    TEXT NOT NULL,
	submitted_at    TIMESTAMPTZ NOT NULL,
	cohort          TEXT,
	participant_ref TEXT
);

CREATE TABLE IF NOT EXISTS outcome_scores (
	id           UUID PRIMARY KEY,
	snippet_hash TEXT NOT NULL,
	dimension    TEXT NOT NULL,
	score        DOUBLE PRECISION NOT NULL,
	confidence   DOUBLE PRECISION NOT NULL,
	scored_at    TIMESTAMPTZ NOT NULL,
	model_tag    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_snippet ON outcome_scores (snippet_hash);
CREATE INDEX IF NOT EXISTS idx_scores_dimension ON outcome_scores (dimension, scored_at);

CREATE TABLE IF NOT EXISTS regulatory_packs (
	id           UUID PRIMARY KEY,
	company_id   UUID NOT NULL,
	period_start TIMESTAMPTZ NOT NULL,
	period_end   TIMESTAMPTZ NOT NULL,
	frameworks   TEXT[] NOT NULL,
	status       TEXT NOT NULL,
	generated_at TIMESTAMPTZ,
	summary      JSONB NOT NULL,
	sections     JSONB NOT NULL,
	gaps         JSONB NOT NULL,
	fail_reason  TEXT,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_packs_company ON regulatory_packs (company_id);

CREATE TABLE IF NOT EXISTS activity_entries (
	id          UUID PRIMARY KEY,
	instance_id UUID NOT NULL,
	kind        TEXT NOT NULL,
	hours       DOUBLE PRECISION NOT NULL,
	credits     DOUBLE PRECISION NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_instance ON activity_entries (instance_id, occurred_at);

CREATE TABLE IF NOT EXISTS outbox (
	id             UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	published_at   TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox (created_at) WHERE published_at IS NULL;

CREATE TABLE IF NOT EXISTS audit_events (
	id         UUID PRIMARY KEY,
	category   TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL,
	company_id UUID,
	subject    TEXT NOT NULL,
	action     TEXT NOT NULL,
	reason     TEXT,
	decision   TEXT,
	request_id TEXT,
	actor_id   TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_company ON audit_events (company_id, timestamp);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the
// schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("tangible_test"),
		tcpostgres.WithUsername("tangible"),
		tcpostgres.WithPassword("tangible"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// No t.Cleanup here: the container is shared through the Manager
	// and Ryuk handles teardown.
	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables empties the given tables. Call from SetupTest to
// isolate suites that share the container.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
