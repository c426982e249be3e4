// Package postgres implements the repository contracts over pgxpool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-credit/pkg/database"
)

// migrations are applied in order; never edit an applied entry, append a new one
var migrations = []string{
	// 1: schema + 입력 테이블
	`
	CREATE SCHEMA IF NOT EXISTS credit;

	CREATE TABLE IF NOT EXISTS credit.statements (
		company_id   TEXT        NOT NULL,
		company_name TEXT        NOT NULL DEFAULT '',
		fiscal_year  INT         NOT NULL,
		quarter      INT         NOT NULL DEFAULT 0,
		items        JSONB       NOT NULL,
		reported_at  TIMESTAMPTZ,
		PRIMARY KEY (company_id, fiscal_year, quarter)
	);

	CREATE TABLE IF NOT EXISTS credit.disclosures (
		receipt_no  TEXT PRIMARY KEY,
		company_id  TEXT        NOT NULL,
		report_name TEXT        NOT NULL,
		filed_at    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_disclosures_filed ON credit.disclosures (filed_at);

	CREATE TABLE IF NOT EXISTS credit.company_attributes (
		company_id                TEXT PRIMARY KEY,
		graph_id                  TEXT NOT NULL DEFAULT '',
		disclosure_corrections    NUMERIC(10,2),
		auditor_changes           NUMERIC(10,2),
		largest_shareholder_stake NUMERIC(6,4)
	);

	CREATE TABLE IF NOT EXISTS credit.graph_edges (
		src_graph_id TEXT NOT NULL,
		dst_graph_id TEXT NOT NULL,
		edge_type    TEXT NOT NULL,
		PRIMARY KEY (src_graph_id, dst_graph_id, edge_type)
	);
	CREATE INDEX IF NOT EXISTS idx_graph_edges_dst ON credit.graph_edges (dst_graph_id);
	`,

	// 2: 산출 테이블
	`
	CREATE TABLE IF NOT EXISTS credit.ratio_records (
		company_id            TEXT         NOT NULL,
		fiscal_year           INT          NOT NULL,
		quarter               INT          NOT NULL DEFAULT 0,
		ratios                JSONB        NOT NULL,
		category_scores       JSONB        NOT NULL,
		health_score          NUMERIC(5,2),
		health_grade          TEXT         NOT NULL DEFAULT '',
		risk_level            TEXT         NOT NULL DEFAULT '',
		completeness          NUMERIC(4,3) NOT NULL,
		growth_data_available BOOLEAN      NOT NULL,
		computed_at           TIMESTAMPTZ  NOT NULL,
		PRIMARY KEY (company_id, fiscal_year, quarter)
	);

	CREATE TABLE IF NOT EXISTS credit.composite_scores (
		company_id              TEXT         NOT NULL,
		fiscal_year             INT          NOT NULL,
		company_name            TEXT         NOT NULL DEFAULT '',
		cei                     NUMERIC(5,2),
		cgi                     NUMERIC(5,2),
		rii                     NUMERIC(5,2),
		mai                     NUMERIC(5,2),
		composite_score         NUMERIC(5,2),
		grade                   TEXT         NOT NULL DEFAULT '',
		scenario_name           TEXT         NOT NULL,
		scenario_version        INT          NOT NULL,
		investment_gap          NUMERIC(10,2),
		idle_cash_ratio         NUMERIC(10,2),
		reinvestment_rate       NUMERIC(10,2),
		prior_reinvestment_rate NUMERIC(10,2),
		shareholder_return      NUMERIC(10,2),
		red_flags               TEXT[]       NOT NULL DEFAULT '{}',
		yellow_flags            TEXT[]       NOT NULL DEFAULT '{}',
		verdict                 TEXT         NOT NULL DEFAULT '',
		recommendation          TEXT         NOT NULL DEFAULT '',
		watch_trigger           TEXT         NOT NULL DEFAULT '',
		network_risk_score      NUMERIC(4,3) NOT NULL DEFAULT 0,
		network_risk_level      TEXT         NOT NULL DEFAULT '',
		completeness            NUMERIC(4,3) NOT NULL,
		computed_at             TIMESTAMPTZ  NOT NULL,
		PRIMARY KEY (company_id, fiscal_year)
	);

	CREATE TABLE IF NOT EXISTS credit.composite_score_backups (
		backup_id    UUID        NOT NULL,
		company_id   TEXT        NOT NULL,
		fiscal_year  INT         NOT NULL,
		payload      JSONB       NOT NULL,
		backed_up_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (backup_id, company_id, fiscal_year)
	);
	`,

	// 3: 라벨 + 시나리오
	`
	CREATE TABLE IF NOT EXISTS credit.failure_labels (
		id           BIGSERIAL PRIMARY KEY,
		company_id   TEXT         NOT NULL,
		failure_type TEXT         NOT NULL,
		evidence     TEXT         NOT NULL,
		confidence   NUMERIC(4,3) NOT NULL CHECK (confidence BETWEEN 0 AND 1),
		label_date   DATE         NOT NULL,
		source       TEXT         NOT NULL,
		created_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		UNIQUE (company_id, failure_type, label_date, evidence)
	);

	CREATE TABLE IF NOT EXISTS credit.scenario_fingerprints (
		name          TEXT        NOT NULL,
		version       INT         NOT NULL,
		hash          TEXT        NOT NULL,
		referenced_at TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (name, version)
	);
	`,
}

// Migrate applies pending migrations, each in its own transaction.
// Returns the number applied.
func Migrate(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS public.credit_schema_migrations (
			version    INT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return 0, fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM public.credit_schema_migrations`).Scan(&current); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	applied := 0
	for i := current; i < len(migrations); i++ {
		version := i + 1
		err := database.WithTx(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, migrations[i]); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO public.credit_schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migration %d: %w", version, err)
		}
		applied++
	}
	return applied, nil
}
