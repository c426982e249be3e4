// Package sqlite is the single-file local store: every repository contract
// over one database/sql handle. Used for development and fixtures.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/internal/storage"
)

const labelDateLayout = "2006-01-02"

// Store implements every repository contract using SQLite
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbPath and applies the schema
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite 단일 writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Stores exposes s as a storage bundle
func (s *Store) Stores() storage.Stores {
	return storage.Stores{
		Statements:      s,
		StatementWriter: s,
		Scores:          s,
		Audit:           s,
		Labels:          s,
		Disclosures:     s,
		Graph:           s,
		Scenarios:       s,
		Seeder:          s,
		Close:           s.Close,
	}
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(column, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode %s: %w", column, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// ============================================================================
// Statements
// ============================================================================

// ListPeriods returns the statement periods matching q
func (s *Store) ListPeriods(ctx context.Context, q contracts.CompanyQuery) ([]contracts.CompanyPeriod, error) {
	var where []string
	var args []interface{}

	if q.FiscalYear != 0 {
		where = append(where, "fiscal_year = ?")
		args = append(args, q.FiscalYear)
	}
	if len(q.CompanyIDs) > 0 {
		where = append(where, "company_id IN (?"+strings.Repeat(", ?", len(q.CompanyIDs)-1)+")")
		for _, id := range q.CompanyIDs {
			args = append(args, id)
		}
	}
	if q.AnnualOnly {
		where = append(where, "quarter = 0")
	}

	query := "SELECT company_id, company_name, fiscal_year, quarter FROM statements"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY company_id, fiscal_year, quarter"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStatement(row rowScanner) (*contracts.StatementRecord, error) {
	var rec contracts.StatementRecord
	var items string
	var reported sql.NullString
	if err := row.Scan(&rec.CompanyID, &rec.CompanyName, &rec.FiscalYear, &rec.Quarter, &items, &reported); err != nil {
		return nil, err
	}

	decoded, err := storage.DecodeItems([]byte(items))
	if err != nil {
		return nil, err
	}
	rec.Items = decoded

	if reported.Valid {
		if rec.ReportedAt, err = parseTime("reported_at", reported.String); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

// GetStatement returns one period, contracts.ErrNotFound when absent
func (s *Store) GetStatement(ctx context.Context, key contracts.PeriodKey) (*contracts.StatementRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT company_id, company_name, fiscal_year, quarter, items, reported_at
		FROM statements WHERE company_id = ? AND fiscal_year = ? AND quarter = ?`,
		key.CompanyID, key.FiscalYear, key.Quarter,
	)

	rec, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("statement %s: %w", key, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("statement %s: %w", key, err)
	}
	return rec, nil
}

// ListStatements returns every period of a company, oldest first
func (s *Store) ListStatements(ctx context.Context, companyID string) ([]contracts.StatementRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id, company_name, fiscal_year, quarter, items, reported_at
		FROM statements WHERE company_id = ?
		ORDER BY fiscal_year, quarter`, companyID)
	if err != nil {
		return nil, fmt.Errorf("query statements: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.StatementRecord, 0)
	for rows.Next() {
		rec, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// SaveStatements upserts statement records in one transaction
func (s *Store) SaveStatements(ctx context.Context, records []contracts.StatementRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range records {
			rec := &records[i]
			if err := rec.Validate(); err != nil {
				return err
			}
			items, err := storage.EncodeItems(rec.Items)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO statements (company_id, company_name, fiscal_year, quarter, items, reported_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(company_id, fiscal_year, quarter) DO UPDATE SET
					company_name = excluded.company_name,
					items = excluded.items,
					reported_at = excluded.reported_at`,
				rec.CompanyID, rec.CompanyName, rec.FiscalYear, rec.Quarter, string(items), nullTime(&rec.ReportedAt),
			)
			if err != nil {
				return fmt.Errorf("save statement %s: %w", rec.Key(), err)
			}
		}
		return nil
	})
}

// ============================================================================
// Scores
// ============================================================================

// UpsertRatioRecords overwrites ratio records in one transaction
func (s *Store) UpsertRatioRecords(ctx context.Context, records []contracts.RatioRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			ratios, err := storage.EncodeJSON("ratios", rec.Ratios)
			if err != nil {
				return err
			}
			cats, err := storage.EncodeJSON("category_scores", rec.CategoryScores)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO ratio_records (
					company_id, fiscal_year, quarter, ratios, category_scores, health_score,
					health_grade, risk_level, completeness, growth_data_available, computed_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(company_id, fiscal_year, quarter) DO UPDATE SET
					ratios = excluded.ratios,
					category_scores = excluded.category_scores,
					health_score = excluded.health_score,
					health_grade = excluded.health_grade,
					risk_level = excluded.risk_level,
					completeness = excluded.completeness,
					growth_data_available = excluded.growth_data_available,
					computed_at = excluded.computed_at`,
				rec.CompanyID, rec.FiscalYear, rec.Quarter, string(ratios), string(cats), rec.HealthScore,
				rec.HealthGrade, rec.RiskLevel, rec.Completeness, rec.GrowthDataAvailable, formatTime(rec.ComputedAt),
			)
			if err != nil {
				return fmt.Errorf("upsert ratio record %s: %w", rec.Key(), err)
			}
		}
		return nil
	})
}

// UpsertCompositeScores overwrites composite records in one transaction
func (s *Store) UpsertCompositeScores(ctx context.Context, records []contracts.CompositeScoreRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			red, err := storage.EncodeJSON("red_flags", storage.FlagStrings(rec.RedFlags))
			if err != nil {
				return err
			}
			yellow, err := storage.EncodeJSON("yellow_flags", storage.FlagStrings(rec.YellowFlags))
			if err != nil {
				return err
			}
			sub, d := rec.SubIndices, rec.Derived
			_, err = tx.ExecContext(ctx, `
				INSERT INTO composite_scores (
					company_id, fiscal_year, company_name, cei, cgi, rii, mai, composite_score, grade,
					scenario_name, scenario_version, investment_gap, idle_cash_ratio, reinvestment_rate,
					prior_reinvestment_rate, shareholder_return, red_flags, yellow_flags, verdict,
					recommendation, watch_trigger, network_risk_score, network_risk_level, completeness, computed_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(company_id, fiscal_year) DO UPDATE SET
					company_name = excluded.company_name,
					cei = excluded.cei,
					cgi = excluded.cgi,
					rii = excluded.rii,
					mai = excluded.mai,
					composite_score = excluded.composite_score,
					grade = excluded.grade,
					scenario_name = excluded.scenario_name,
					scenario_version = excluded.scenario_version,
					investment_gap = excluded.investment_gap,
					idle_cash_ratio = excluded.idle_cash_ratio,
					reinvestment_rate = excluded.reinvestment_rate,
					prior_reinvestment_rate = excluded.prior_reinvestment_rate,
					shareholder_return = excluded.shareholder_return,
					red_flags = excluded.red_flags,
					yellow_flags = excluded.yellow_flags,
					verdict = excluded.verdict,
					recommendation = excluded.recommendation,
					watch_trigger = excluded.watch_trigger,
					network_risk_score = excluded.network_risk_score,
					network_risk_level = excluded.network_risk_level,
					completeness = excluded.completeness,
					computed_at = excluded.computed_at`,
				rec.CompanyID, rec.FiscalYear, rec.CompanyName, sub.CEI, sub.CGI, sub.RII, sub.MAI, rec.CompositeScore, rec.Grade,
				rec.ScenarioName, rec.ScenarioVersion, d.InvestmentGap, d.IdleCashRatio, d.ReinvestmentRate,
				d.PriorReinvestmentRate, d.ShareholderReturn, string(red), string(yellow), rec.Verdict,
				rec.Recommendation, rec.WatchTrigger, rec.NetworkRiskScore, rec.NetworkRiskLevel, rec.Completeness, formatTime(rec.ComputedAt),
			)
			if err != nil {
				return fmt.Errorf("upsert composite %s/%d: %w", rec.CompanyID, rec.FiscalYear, err)
			}
		}
		return nil
	})
}

// ListCompositeScores returns stored composites of a year (0 = all), ordered by company
func (s *Store) ListCompositeScores(ctx context.Context, fiscalYear int) ([]contracts.CompositeScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id, fiscal_year, company_name, cei, cgi, rii, mai, composite_score, grade,
		       scenario_name, scenario_version, investment_gap, idle_cash_ratio, reinvestment_rate,
		       prior_reinvestment_rate, shareholder_return, red_flags, yellow_flags, verdict,
		       recommendation, watch_trigger, network_risk_score, network_risk_level, completeness, computed_at
		FROM composite_scores
		WHERE (? = 0 OR fiscal_year = ?)
		ORDER BY company_id, fiscal_year`, fiscalYear, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("query composite scores: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.CompositeScoreRecord, 0)
	for rows.Next() {
		var rec contracts.CompositeScoreRecord
		var red, yellow, computed string
		sub, d := &rec.SubIndices, &rec.Derived
		err := rows.Scan(
			&rec.CompanyID, &rec.FiscalYear, &rec.CompanyName, &sub.CEI, &sub.CGI, &sub.RII, &sub.MAI, &rec.CompositeScore, &rec.Grade,
			&rec.ScenarioName, &rec.ScenarioVersion, &d.InvestmentGap, &d.IdleCashRatio, &d.ReinvestmentRate,
			&d.PriorReinvestmentRate, &d.ShareholderReturn, &red, &yellow, &rec.Verdict,
			&rec.Recommendation, &rec.WatchTrigger, &rec.NetworkRiskScore, &rec.NetworkRiskLevel, &rec.Completeness, &computed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan composite score: %w", err)
		}

		var redStr, yellowStr []string
		if err := storage.DecodeJSON("red_flags", []byte(red), &redStr); err != nil {
			return nil, err
		}
		if err := storage.DecodeJSON("yellow_flags", []byte(yellow), &yellowStr); err != nil {
			return nil, err
		}
		rec.RedFlags = storage.ParseFlags(redStr)
		rec.YellowFlags = storage.ParseFlags(yellowStr)
		if rec.ComputedAt, err = parseTime("computed_at", computed); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BackupCompositeScores snapshots records under backupID in one transaction
func (s *Store) BackupCompositeScores(ctx context.Context, backupID string, records []contracts.CompositeScoreRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range records {
			payload, err := storage.EncodeJSON("payload", rec)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO composite_score_backups (backup_id, company_id, fiscal_year, payload)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(backup_id, company_id, fiscal_year) DO NOTHING`,
				backupID, rec.CompanyID, rec.FiscalYear, string(payload),
			)
			if err != nil {
				return fmt.Errorf("backup %s/%d: %w", rec.CompanyID, rec.FiscalYear, err)
			}
		}
		return nil
	})
}

// CountBackups returns how many rows a backup holds
func (s *Store) CountBackups(ctx context.Context, backupID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM composite_score_backups WHERE backup_id = ?`, backupID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count backups: %w", err)
	}
	return n, nil
}

// ApplyCompositeCorrections updates composite, grade, flags and decision all-or-nothing
func (s *Store) ApplyCompositeCorrections(ctx context.Context, corrections []contracts.ScoreCorrection) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range corrections {
			red, err := storage.EncodeJSON("red_flags", storage.FlagStrings(c.RedFlags))
			if err != nil {
				return err
			}
			yellow, err := storage.EncodeJSON("yellow_flags", storage.FlagStrings(c.YellowFlags))
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, `
				UPDATE composite_scores
				SET composite_score = ?, grade = ?, scenario_name = ?, scenario_version = ?,
				    red_flags = ?, yellow_flags = ?, verdict = ?, recommendation = ?, watch_trigger = ?
				WHERE company_id = ? AND fiscal_year = ?`,
				c.CompositeScore, c.Grade, c.ScenarioName, c.ScenarioVersion,
				string(red), string(yellow), c.Verdict, c.Recommendation, c.WatchTrigger, c.CompanyID, c.FiscalYear,
			)
			if err != nil {
				return fmt.Errorf("correct %s/%d: %w", c.CompanyID, c.FiscalYear, err)
			}
			if n, _ := res.RowsAffected(); n != 1 {
				return fmt.Errorf("correct %s/%d: %w", c.CompanyID, c.FiscalYear, contracts.ErrNotFound)
			}
		}
		return nil
	})
}

// ============================================================================
// Labels / disclosures
// ============================================================================

// AppendLabels inserts labels, skipping existing (company, type, date, evidence) rows
func (s *Store) AppendLabels(ctx context.Context, labels []contracts.FailureLabel) (int, error) {
	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, l := range labels {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO failure_labels (company_id, failure_type, evidence, confidence, label_date, source, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(company_id, failure_type, label_date, evidence) DO NOTHING`,
				l.CompanyID, string(l.FailureType), l.Evidence, l.Confidence,
				l.Date.Format(labelDateLayout), string(l.Source), formatTime(l.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("insert label %s/%s: %w", l.CompanyID, l.FailureType, err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListLabels returns labels of one company, or all when companyID is empty
func (s *Store) ListLabels(ctx context.Context, companyID string) ([]contracts.FailureLabel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id, failure_type, evidence, confidence, label_date, source, created_at
		FROM failure_labels
		WHERE (? = '' OR company_id = ?)
		ORDER BY company_id, label_date, id`, companyID, companyID)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.FailureLabel, 0)
	for rows.Next() {
		var l contracts.FailureLabel
		var typ, source, date, created string
		if err := rows.Scan(&l.CompanyID, &typ, &l.Evidence, &l.Confidence, &date, &source, &created); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		if l.Date, err = time.Parse(labelDateLayout, date); err != nil {
			return nil, fmt.Errorf("decode label_date: %w", err)
		}
		if l.CreatedAt, err = parseTime("created_at", created); err != nil {
			return nil, err
		}
		l.FailureType = contracts.FailureType(typ)
		l.Source = contracts.LabelSource(source)
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListDisclosures returns filings of a calendar year (0 = all), oldest first
func (s *Store) ListDisclosures(ctx context.Context, fiscalYear int) ([]contracts.Disclosure, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id, receipt_no, report_name, filed_at
		FROM disclosures
		WHERE (? = 0 OR filed_year = ?)
		ORDER BY filed_at, receipt_no`, fiscalYear, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("query disclosures: %w", err)
	}
	defer rows.Close()

	out := make([]contracts.Disclosure, 0)
	for rows.Next() {
		var d contracts.Disclosure
		var filed string
		if err := rows.Scan(&d.CompanyID, &d.ReceiptNo, &d.ReportName, &filed); err != nil {
			return nil, fmt.Errorf("scan disclosure: %w", err)
		}
		if d.FiledAt, err = parseTime("filed_at", filed); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ============================================================================
// Graph / scenarios
// ============================================================================

// CountEdges counts edges touching graphID by type
func (s *Store) CountEdges(ctx context.Context, graphID string) (contracts.EdgeCounts, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT edge_type, COUNT(*) FROM graph_edges
		WHERE src_graph_id = ? OR dst_graph_id = ?
		GROUP BY edge_type`, graphID, graphID)
	if err != nil {
		return nil, fmt.Errorf("count edges: %w", err)
	}
	defer rows.Close()

	counts := make(contracts.EdgeCounts)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan edge count: %w", err)
		}
		counts[contracts.EdgeType(typ)] = n
	}
	return counts, rows.Err()
}

// GetAttributes returns stored attributes; unknown companies are unlinked
func (s *Store) GetAttributes(ctx context.Context, companyID string) (*contracts.CompanyAttributes, error) {
	a := &contracts.CompanyAttributes{}
	err := s.db.QueryRowContext(ctx, `
		SELECT company_id, graph_id, disclosure_corrections, auditor_changes, largest_shareholder_stake
		FROM company_attributes WHERE company_id = ?`, companyID,
	).Scan(&a.CompanyID, &a.GraphID, &a.DisclosureCorrections, &a.AuditorChanges, &a.LargestShareholderStake)
	if errors.Is(err, sql.ErrNoRows) {
		return &contracts.CompanyAttributes{CompanyID: companyID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attributes %s: %w", companyID, err)
	}
	return a, nil
}

// GetScenarioFingerprint returns contracts.ErrNotFound for unknown scenarios
func (s *Store) GetScenarioFingerprint(ctx context.Context, name string, version int) (*contracts.ScenarioFingerprint, error) {
	var fp contracts.ScenarioFingerprint
	var referenced sql.NullString
	var created string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, version, hash, referenced_at, created_at
		FROM scenario_fingerprints WHERE name = ? AND version = ?`, name, version,
	).Scan(&fp.Name, &fp.Version, &fp.Hash, &referenced, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scenario %s: %w", scenario.FormatID(name, version), contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get fingerprint: %w", err)
	}

	if fp.CreatedAt, err = parseTime("created_at", created); err != nil {
		return nil, err
	}
	if referenced.Valid {
		t, err := parseTime("referenced_at", referenced.String)
		if err != nil {
			return nil, err
		}
		fp.ReferencedAt = &t
	}
	return &fp, nil
}

// SaveScenarioFingerprint upserts a fingerprint. Once referenced_at is set it is kept.
func (s *Store) SaveScenarioFingerprint(ctx context.Context, fp contracts.ScenarioFingerprint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scenario_fingerprints (name, version, hash, referenced_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name, version) DO UPDATE SET
			hash = excluded.hash,
			referenced_at = COALESCE(scenario_fingerprints.referenced_at, excluded.referenced_at)`,
		fp.Name, fp.Version, fp.Hash, nullTime(fp.ReferencedAt), formatTime(fp.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save fingerprint %s: %w", scenario.FormatID(fp.Name, fp.Version), err)
	}
	return nil
}

// ============================================================================
// Seeding
// ============================================================================

// SaveDisclosures upserts filings by receipt number
func (s *Store) SaveDisclosures(ctx context.Context, disclosures []contracts.Disclosure) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range disclosures {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO disclosures (receipt_no, company_id, report_name, filed_at, filed_year)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(receipt_no) DO UPDATE SET
					company_id = excluded.company_id,
					report_name = excluded.report_name,
					filed_at = excluded.filed_at,
					filed_year = excluded.filed_year`,
				d.ReceiptNo, d.CompanyID, d.ReportName, formatTime(d.FiledAt), d.FiledAt.UTC().Year(),
			)
			if err != nil {
				return fmt.Errorf("save disclosure %s: %w", d.ReceiptNo, err)
			}
		}
		return nil
	})
}

// SaveAttributes upserts company attributes
func (s *Store) SaveAttributes(ctx context.Context, attrs []contracts.CompanyAttributes) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, a := range attrs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO company_attributes (company_id, graph_id, disclosure_corrections, auditor_changes, largest_shareholder_stake)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(company_id) DO UPDATE SET
					graph_id = excluded.graph_id,
					disclosure_corrections = excluded.disclosure_corrections,
					auditor_changes = excluded.auditor_changes,
					largest_shareholder_stake = excluded.largest_shareholder_stake`,
				a.CompanyID, a.GraphID, a.DisclosureCorrections, a.AuditorChanges, a.LargestShareholderStake,
			)
			if err != nil {
				return fmt.Errorf("save attributes %s: %w", a.CompanyID, err)
			}
		}
		return nil
	})
}

// SaveEdges inserts edges; duplicates are ignored
func (s *Store) SaveEdges(ctx context.Context, edges []storage.Edge) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, e := range edges {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO graph_edges (src_graph_id, dst_graph_id, edge_type)
				VALUES (?, ?, ?)
				ON CONFLICT DO NOTHING`,
				e.Src, e.Dst, string(e.Type),
			)
			if err != nil {
				return fmt.Errorf("save edge %s-%s: %w", e.Src, e.Dst, err)
			}
		}
		return nil
	})
}
