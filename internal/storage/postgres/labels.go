package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/pkg/database"
)

// LabelRepository implements contracts.LabelRepository
// ⭐ SSOT: 실패 라벨 저장소는 여기서만
type LabelRepository struct {
	pool *pgxpool.Pool
}

// NewLabelRepository creates a new label repository
func NewLabelRepository(pool *pgxpool.Pool) *LabelRepository {
	return &LabelRepository{pool: pool}
}

// AppendLabels inserts labels, skipping existing (company, type, date, evidence) rows
func (r *LabelRepository) AppendLabels(ctx context.Context, labels []contracts.FailureLabel) (int, error) {
	inserted := 0
	query := `
		INSERT INTO credit.failure_labels (company_id, failure_type, evidence, confidence, label_date, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_id, failure_type, label_date, evidence) DO NOTHING
	`

	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, l := range labels {
			tag, err := tx.Exec(ctx, query,
				l.CompanyID, string(l.FailureType), l.Evidence, l.Confidence, l.Date, string(l.Source), l.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert label %s/%s: %w", l.CompanyID, l.FailureType, err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListLabels returns labels of one company, or all when companyID is empty
func (r *LabelRepository) ListLabels(ctx context.Context, companyID string) ([]contracts.FailureLabel, error) {
	query := `
		SELECT company_id, failure_type, evidence, confidence, label_date, source, created_at
		FROM credit.failure_labels
		WHERE ($1 = '' OR company_id = $1)
		ORDER BY company_id, label_date, id
	`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.FailureLabel, 0)
	for rows.Next() {
		var l contracts.FailureLabel
		var typ, source string
		if err := rows.Scan(&l.CompanyID, &typ, &l.Evidence, &l.Confidence, &l.Date, &source, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		l.FailureType = contracts.FailureType(typ)
		l.Source = contracts.LabelSource(source)
		out = append(out, l)
	}
	return out, rows.Err()
}

// DisclosureRepository implements contracts.DisclosureRepository
type DisclosureRepository struct {
	pool *pgxpool.Pool
}

// NewDisclosureRepository creates a new disclosure repository
func NewDisclosureRepository(pool *pgxpool.Pool) *DisclosureRepository {
	return &DisclosureRepository{pool: pool}
}

// ListDisclosures returns filings of a calendar year (0 = all), oldest first
func (r *DisclosureRepository) ListDisclosures(ctx context.Context, fiscalYear int) ([]contracts.Disclosure, error) {
	query := `
		SELECT company_id, receipt_no, report_name, filed_at
		FROM credit.disclosures
		WHERE ($1 = 0 OR EXTRACT(YEAR FROM filed_at)::int = $1)
		ORDER BY filed_at, receipt_no
	`

	rows, err := r.pool.Query(ctx, query, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("query disclosures: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.Disclosure, 0)
	for rows.Next() {
		var d contracts.Disclosure
		if err := rows.Scan(&d.CompanyID, &d.ReceiptNo, &d.ReportName, &d.FiledAt); err != nil {
			return nil, fmt.Errorf("scan disclosure: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
