package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/storage"
	"github.com/wonny/aegis-credit/pkg/database"
)

// ScoreRepository implements contracts.ScoreRepository and contracts.AuditRepository
// ⭐ SSOT: 점수 저장/조회는 여기서만
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Ping checks connectivity
func (r *ScoreRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const upsertRatio = `
	INSERT INTO credit.ratio_records (
		company_id, fiscal_year, quarter, ratios, category_scores, health_score,
		health_grade, risk_level, completeness, growth_data_available, computed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (company_id, fiscal_year, quarter) DO UPDATE SET
		ratios = EXCLUDED.ratios,
		category_scores = EXCLUDED.category_scores,
		health_score = EXCLUDED.health_score,
		health_grade = EXCLUDED.health_grade,
		risk_level = EXCLUDED.risk_level,
		completeness = EXCLUDED.completeness,
		growth_data_available = EXCLUDED.growth_data_available,
		computed_at = EXCLUDED.computed_at
`

// UpsertRatioRecords overwrites ratio records in one transaction
func (r *ScoreRepository) UpsertRatioRecords(ctx context.Context, records []contracts.RatioRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		ratios, err := storage.EncodeJSON("ratios", rec.Ratios)
		if err != nil {
			return err
		}
		cats, err := storage.EncodeJSON("category_scores", rec.CategoryScores)
		if err != nil {
			return err
		}
		batch.Queue(upsertRatio,
			rec.CompanyID, rec.FiscalYear, rec.Quarter, ratios, cats, rec.HealthScore,
			rec.HealthGrade, rec.RiskLevel, rec.Completeness, rec.GrowthDataAvailable, rec.ComputedAt,
		)
	}

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return execBatch(ctx, tx, batch)
	})
}

const upsertComposite = `
	INSERT INTO credit.composite_scores (
		company_id, fiscal_year, company_name, cei, cgi, rii, mai, composite_score, grade,
		scenario_name, scenario_version, investment_gap, idle_cash_ratio, reinvestment_rate,
		prior_reinvestment_rate, shareholder_return, red_flags, yellow_flags, verdict,
		recommendation, watch_trigger, network_risk_score, network_risk_level, completeness, computed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	ON CONFLICT (company_id, fiscal_year) DO UPDATE SET
		company_name = EXCLUDED.company_name,
		cei = EXCLUDED.cei,
		cgi = EXCLUDED.cgi,
		rii = EXCLUDED.rii,
		mai = EXCLUDED.mai,
		composite_score = EXCLUDED.composite_score,
		grade = EXCLUDED.grade,
		scenario_name = EXCLUDED.scenario_name,
		scenario_version = EXCLUDED.scenario_version,
		investment_gap = EXCLUDED.investment_gap,
		idle_cash_ratio = EXCLUDED.idle_cash_ratio,
		reinvestment_rate = EXCLUDED.reinvestment_rate,
		prior_reinvestment_rate = EXCLUDED.prior_reinvestment_rate,
		shareholder_return = EXCLUDED.shareholder_return,
		red_flags = EXCLUDED.red_flags,
		yellow_flags = EXCLUDED.yellow_flags,
		verdict = EXCLUDED.verdict,
		recommendation = EXCLUDED.recommendation,
		watch_trigger = EXCLUDED.watch_trigger,
		network_risk_score = EXCLUDED.network_risk_score,
		network_risk_level = EXCLUDED.network_risk_level,
		completeness = EXCLUDED.completeness,
		computed_at = EXCLUDED.computed_at
`

// UpsertCompositeScores overwrites composite records in one transaction
func (r *ScoreRepository) UpsertCompositeScores(ctx context.Context, records []contracts.CompositeScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		s, d := rec.SubIndices, rec.Derived
		batch.Queue(upsertComposite,
			rec.CompanyID, rec.FiscalYear, rec.CompanyName, s.CEI, s.CGI, s.RII, s.MAI, rec.CompositeScore, rec.Grade,
			rec.ScenarioName, rec.ScenarioVersion, d.InvestmentGap, d.IdleCashRatio, d.ReinvestmentRate,
			d.PriorReinvestmentRate, d.ShareholderReturn, storage.FlagStrings(rec.RedFlags), storage.FlagStrings(rec.YellowFlags), rec.Verdict,
			rec.Recommendation, rec.WatchTrigger, rec.NetworkRiskScore, rec.NetworkRiskLevel, rec.Completeness, rec.ComputedAt,
		)
	}

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return execBatch(ctx, tx, batch)
	})
}

const selectComposite = `
	SELECT company_id, fiscal_year, company_name, cei, cgi, rii, mai, composite_score, grade,
	       scenario_name, scenario_version, investment_gap, idle_cash_ratio, reinvestment_rate,
	       prior_reinvestment_rate, shareholder_return, red_flags, yellow_flags, verdict,
	       recommendation, watch_trigger, network_risk_score, network_risk_level, completeness, computed_at
	FROM credit.composite_scores
`

// ListCompositeScores returns stored composites of a year (0 = all), ordered by company
func (r *ScoreRepository) ListCompositeScores(ctx context.Context, fiscalYear int) ([]contracts.CompositeScoreRecord, error) {
	rows, err := r.pool.Query(ctx, selectComposite+`
		WHERE ($1 = 0 OR fiscal_year = $1)
		ORDER BY company_id, fiscal_year`, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("query composite scores: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.CompositeScoreRecord, 0)
	for rows.Next() {
		var rec contracts.CompositeScoreRecord
		var red, yellow []string
		s, d := &rec.SubIndices, &rec.Derived
		err := rows.Scan(
			&rec.CompanyID, &rec.FiscalYear, &rec.CompanyName, &s.CEI, &s.CGI, &s.RII, &s.MAI, &rec.CompositeScore, &rec.Grade,
			&rec.ScenarioName, &rec.ScenarioVersion, &d.InvestmentGap, &d.IdleCashRatio, &d.ReinvestmentRate,
			&d.PriorReinvestmentRate, &d.ShareholderReturn, &red, &yellow, &rec.Verdict,
			&rec.Recommendation, &rec.WatchTrigger, &rec.NetworkRiskScore, &rec.NetworkRiskLevel, &rec.Completeness, &rec.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan composite score: %w", err)
		}
		rec.RedFlags = storage.ParseFlags(red)
		rec.YellowFlags = storage.ParseFlags(yellow)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BackupCompositeScores snapshots records under backupID in one transaction
func (r *ScoreRepository) BackupCompositeScores(ctx context.Context, backupID string, records []contracts.CompositeScoreRecord) error {
	batch := &pgx.Batch{}
	for _, rec := range records {
		payload, err := storage.EncodeJSON("payload", rec)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO credit.composite_score_backups (backup_id, company_id, fiscal_year, payload)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (backup_id, company_id, fiscal_year) DO NOTHING`,
			backupID, rec.CompanyID, rec.FiscalYear, payload,
		)
	}

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return execBatch(ctx, tx, batch)
	})
}

// ApplyCompositeCorrections updates composite, grade, flags and decision all-or-nothing
func (r *ScoreRepository) ApplyCompositeCorrections(ctx context.Context, corrections []contracts.ScoreCorrection) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, c := range corrections {
			tag, err := tx.Exec(ctx, `
				UPDATE credit.composite_scores
				SET composite_score = $3, grade = $4, scenario_name = $5, scenario_version = $6,
				    red_flags = $7, yellow_flags = $8, verdict = $9, recommendation = $10, watch_trigger = $11
				WHERE company_id = $1 AND fiscal_year = $2`,
				c.CompanyID, c.FiscalYear, c.CompositeScore, c.Grade, c.ScenarioName, c.ScenarioVersion,
				storage.FlagStrings(c.RedFlags), storage.FlagStrings(c.YellowFlags), c.Verdict, c.Recommendation, c.WatchTrigger,
			)
			if err != nil {
				return fmt.Errorf("correct %s/%d: %w", c.CompanyID, c.FiscalYear, err)
			}
			if tag.RowsAffected() != 1 {
				return fmt.Errorf("correct %s/%d: %w", c.CompanyID, c.FiscalYear, contracts.ErrNotFound)
			}
		}
		return nil
	})
}

func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return br.Close()
}
