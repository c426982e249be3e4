package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-credit/internal/audit"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// ScoreAuditor is satisfied by *audit.Auditor
type ScoreAuditor interface {
	Run(ctx context.Context, opts audit.Options) (*audit.Report, error)
}

// ConsistencyAuditJob sweeps stored composites for drift. It never
// corrects: execute mode is an operator decision made through the CLI.
type ConsistencyAuditJob struct {
	auditor   ScoreAuditor
	schedule  string
	tolerance float64
	batchSize int
	year      func(time.Time) int
	now       func() time.Time
	logger    *logger.Logger
}

// NewConsistencyAuditJob creates the report-only audit sweep
func NewConsistencyAuditJob(auditor ScoreAuditor, schedule string, tolerance float64, batchSize int, log *logger.Logger) *ConsistencyAuditJob {
	return &ConsistencyAuditJob{
		auditor:   auditor,
		schedule:  schedule,
		tolerance: tolerance,
		batchSize: batchSize,
		year:      LatestClosedYear,
		now:       time.Now,
		logger:    log.WithField("job", "consistency_audit"),
	}
}

// Name returns the job name
func (j *ConsistencyAuditJob) Name() string {
	return "consistency_audit"
}

// Schedule returns the cron schedule
func (j *ConsistencyAuditJob) Schedule() string {
	return j.schedule
}

// Run executes one report-only audit
func (j *ConsistencyAuditJob) Run(ctx context.Context) error {
	year := j.year(j.now())
	tolerance := j.tolerance

	report, err := j.auditor.Run(ctx, audit.Options{
		FiscalYear: year,
		Tolerance:  &tolerance,
		BatchSize:  j.batchSize,
	})
	if err != nil {
		return fmt.Errorf("audit FY%d: %w", year, err)
	}

	log := j.logger.WithRun(report.RunID).WithFields(map[string]interface{}{
		"year":       year,
		"checked":    report.Checked,
		"mismatches": len(report.Mismatches),
	})
	if len(report.Mismatches) > 0 {
		log.Warn("Composite drift detected; run `credit audit scores --execute` to correct")
		return nil
	}
	log.Info("Composite scores consistent")
	return nil
}
