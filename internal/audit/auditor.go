// Package audit checks published composite scores against a recomputation
// from their stored sub-indices and optionally corrects them.
package audit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/index"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// Defaults
const (
	DefaultTolerance = 5.0
	DefaultBatchSize = 200
)

// ErrBackupFailed means corrections were not applied because the backup failed
var ErrBackupFailed = errors.New("backup snapshot failed")

// Options control one audit run
type Options struct {
	FiscalYear int
	Tolerance  *float64 // nil = DefaultTolerance, 0 = exact match
	Execute    bool     // apply corrections; report-only otherwise
	BatchSize  int
}

// Mismatch is one stored composite outside tolerance
type Mismatch struct {
	CompanyID       string   `json:"company_id"`
	FiscalYear      int      `json:"fiscal_year"`
	StoredScore     *float64 `json:"stored_score"`
	StoredGrade     string   `json:"stored_grade"`
	RecomputedScore float64  `json:"recomputed_score"`
	RecomputedGrade string   `json:"recomputed_grade"`
	Delta           *float64 `json:"delta"` // nil when nothing was stored
}

// Report summarizes an audit run
type Report struct {
	RunID      string        `json:"run_id"`
	Scenario   string        `json:"scenario"`
	FiscalYear int           `json:"fiscal_year"`
	Tolerance  float64       `json:"tolerance"`
	Executed   bool          `json:"executed"`
	Checked    int           `json:"checked"`
	Skipped    int           `json:"skipped"`
	Mismatches []Mismatch    `json:"mismatches"`
	BackupID   string        `json:"backup_id,omitempty"`
	Corrected  int           `json:"corrected"`
	Duration   time.Duration `json:"duration"`
}

// Auditor verifies composite scores under one scenario
// ⭐ SSOT: 점수 정합성 검사/보정은 여기서만
type Auditor struct {
	repo     contracts.AuditRepository
	scenario *scenario.WeightScenario
	logger   *logger.Logger
	newID    func() string
	now      func() time.Time
}

// NewAuditor creates an auditor
func NewAuditor(repo contracts.AuditRepository, scn *scenario.WeightScenario, log *logger.Logger) *Auditor {
	return &Auditor{
		repo:     repo,
		scenario: scn,
		logger:   log.WithField("module", "audit"),
		newID:    func() string { return uuid.New().String() },
		now:      time.Now,
	}
}

// Run checks every stored record of opts.FiscalYear. With Execute, each
// batch of mismatches is backed up and then corrected in one transaction;
// a failed backup stops the run before that batch is touched.
func (a *Auditor) Run(ctx context.Context, opts Options) (*Report, error) {
	tolerance := DefaultTolerance
	if opts.Tolerance != nil {
		tolerance = *opts.Tolerance
	}
	if tolerance < 0 {
		return nil, fmt.Errorf("tolerance must be >= 0, got %v", tolerance)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	start := a.now()
	report := &Report{
		RunID:      a.newID(),
		Scenario:   a.scenario.ID(),
		FiscalYear: opts.FiscalYear,
		Tolerance:  tolerance,
		Executed:   opts.Execute,
		Mismatches: make([]Mismatch, 0),
	}

	records, err := a.repo.ListCompositeScores(ctx, opts.FiscalYear)
	if err != nil {
		return nil, fmt.Errorf("list composite scores: %w", err)
	}

	affected := make([]drift, 0)
	for _, rec := range records {
		healed, ok := index.Reassess(rec, a.scenario)
		if !ok {
			report.Skipped++
			continue
		}
		report.Checked++
		if m := mismatch(rec, healed, tolerance); m != nil {
			report.Mismatches = append(report.Mismatches, *m)
			affected = append(affected, drift{stored: rec, healed: healed})
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"run_id":     report.RunID,
		"scenario":   report.Scenario,
		"year":       opts.FiscalYear,
		"checked":    report.Checked,
		"mismatches": len(report.Mismatches),
		"execute":    opts.Execute,
	}).Info("Audit check complete")

	if opts.Execute && len(affected) > 0 {
		report.BackupID = a.newID()
		if err := a.correct(ctx, report, affected, opts.BatchSize); err != nil {
			report.Duration = a.now().Sub(start)
			return report, err
		}
	}

	report.Duration = a.now().Sub(start)
	return report, nil
}

// drift pairs a stored record with its re-scored version
type drift struct {
	stored contracts.CompositeScoreRecord
	healed contracts.CompositeScoreRecord
}

// mismatch returns nil when stored is within tolerance of healed
func mismatch(stored, healed contracts.CompositeScoreRecord, tolerance float64) *Mismatch {
	var delta *float64
	if stored.CompositeScore != nil {
		d := math.Abs(*stored.CompositeScore - *healed.CompositeScore)
		if d <= tolerance {
			return nil
		}
		delta = &d
	}

	return &Mismatch{
		CompanyID:       stored.CompanyID,
		FiscalYear:      stored.FiscalYear,
		StoredScore:     stored.CompositeScore,
		StoredGrade:     stored.Grade,
		RecomputedScore: *healed.CompositeScore,
		RecomputedGrade: healed.Grade,
		Delta:           delta,
	}
}

func (a *Auditor) correct(ctx context.Context, report *Report, affected []drift, batchSize int) error {
	for startIdx := 0; startIdx < len(affected); startIdx += batchSize {
		end := startIdx + batchSize
		if end > len(affected) {
			end = len(affected)
		}
		batch := affected[startIdx:end]
		originals := make([]contracts.CompositeScoreRecord, len(batch))
		for i, d := range batch {
			originals[i] = d.stored
		}

		// 1. 백업 먼저
		if err := a.repo.BackupCompositeScores(ctx, report.BackupID, originals); err != nil {
			a.logger.WithError(err).WithField("backup_id", report.BackupID).Error("Audit backup failed, corrections aborted")
			return fmt.Errorf("%w: %v", ErrBackupFailed, err)
		}

		// 2. 배치 단위 트랜잭션 보정
		corrections := make([]contracts.ScoreCorrection, 0, len(batch))
		for _, d := range batch {
			h := d.healed
			corrections = append(corrections, contracts.ScoreCorrection{
				CompanyID:       h.CompanyID,
				FiscalYear:      h.FiscalYear,
				CompositeScore:  *h.CompositeScore,
				Grade:           h.Grade,
				ScenarioName:    h.ScenarioName,
				ScenarioVersion: h.ScenarioVersion,
				RedFlags:        h.RedFlags,
				YellowFlags:     h.YellowFlags,
				Verdict:         h.Verdict,
				Recommendation:  h.Recommendation,
				WatchTrigger:    h.WatchTrigger,
			})
		}
		if err := a.repo.ApplyCompositeCorrections(ctx, corrections); err != nil {
			return fmt.Errorf("apply corrections: %w", err)
		}
		report.Corrected += len(corrections)
	}

	a.logger.WithFields(map[string]interface{}{
		"run_id":    report.RunID,
		"backup_id": report.BackupID,
		"corrected": report.Corrected,
	}).Warn("Composite scores corrected")
	return nil
}
