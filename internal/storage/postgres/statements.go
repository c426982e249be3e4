package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/storage"
	"github.com/wonny/aegis-credit/pkg/database"
)

// StatementRepository implements contracts.StatementRepository and StatementWriter
// ⭐ SSOT: 재무제표 입력 저장소는 여기서만
type StatementRepository struct {
	pool *pgxpool.Pool
}

// NewStatementRepository creates a new statement repository
func NewStatementRepository(pool *pgxpool.Pool) *StatementRepository {
	return &StatementRepository{pool: pool}
}

// ListPeriods returns the statement periods matching q, ordered by company and period
func (r *StatementRepository) ListPeriods(ctx context.Context, q contracts.CompanyQuery) ([]contracts.CompanyPeriod, error) {
	ids := q.CompanyIDs
	if ids == nil {
		ids = []string{}
	}

	query := `
		SELECT company_id, company_name, fiscal_year, quarter
		FROM credit.statements
		WHERE ($1 = 0 OR fiscal_year = $1)
		  AND (cardinality($2::text[]) = 0 OR company_id = ANY($2))
		  AND (NOT $4::boolean OR quarter = 0)
		ORDER BY company_id, fiscal_year, quarter
		LIMIT NULLIF($3, 0)
	`

	rows, err := r.pool.Query(ctx, query, q.FiscalYear, ids, q.Limit, q.AnnualOnly)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	defer rows.Close()

	periods := make([]contracts.CompanyPeriod, 0)
	for rows.Next() {
		var p contracts.CompanyPeriod
		if err := rows.Scan(&p.CompanyID, &p.CompanyName, &p.FiscalYear, &p.Quarter); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// GetStatement returns one period, contracts.ErrNotFound when absent
func (r *StatementRepository) GetStatement(ctx context.Context, key contracts.PeriodKey) (*contracts.StatementRecord, error) {
	query := `
		SELECT company_id, company_name, fiscal_year, quarter, items, reported_at
		FROM credit.statements
		WHERE company_id = $1 AND fiscal_year = $2 AND quarter = $3
	`

	rec, err := scanStatement(r.pool.QueryRow(ctx, query, key.CompanyID, key.FiscalYear, key.Quarter))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("statement %s: %w", key, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("statement %s: %w", key, err)
	}
	return rec, nil
}

// ListStatements returns every period of a company, oldest first
func (r *StatementRepository) ListStatements(ctx context.Context, companyID string) ([]contracts.StatementRecord, error) {
	query := `
		SELECT company_id, company_name, fiscal_year, quarter, items, reported_at
		FROM credit.statements
		WHERE company_id = $1
		ORDER BY fiscal_year, quarter
	`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.StatementRecord, 0)
	for rows.Next() {
		rec, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// SaveStatements upserts records in one transaction
func (r *StatementRepository) SaveStatements(ctx context.Context, records []contracts.StatementRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO credit.statements (company_id, company_name, fiscal_year, quarter, items, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, fiscal_year, quarter) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			items = EXCLUDED.items,
			reported_at = EXCLUDED.reported_at
	`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := rec.Validate(); err != nil {
				return err
			}
			items, err := storage.EncodeItems(rec.Items)
			if err != nil {
				return err
			}
			var reported *time.Time
			if !rec.ReportedAt.IsZero() {
				reported = &rec.ReportedAt
			}
			if _, err := tx.Exec(ctx, query, rec.CompanyID, rec.CompanyName, rec.FiscalYear, rec.Quarter, items, reported); err != nil {
				return fmt.Errorf("upsert statement %s: %w", rec.Key(), err)
			}
		}
		return nil
	})
}

func scanStatement(row pgx.Row) (*contracts.StatementRecord, error) {
	var rec contracts.StatementRecord
	var items []byte
	var reported *time.Time

	if err := row.Scan(&rec.CompanyID, &rec.CompanyName, &rec.FiscalYear, &rec.Quarter, &items, &reported); err != nil {
		return nil, err
	}

	decoded, err := storage.DecodeItems(items)
	if err != nil {
		return nil, fmt.Errorf("statement %s: %w", rec.Key(), err)
	}
	rec.Items = decoded
	if reported != nil {
		rec.ReportedAt = *reported
	}
	return &rec, nil
}
