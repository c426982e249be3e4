// Package jobs holds the scheduler's sweeps over the scoring pipeline.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-credit/internal/batch"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// ScoringRunner is satisfied by *batch.Runner
type ScoringRunner interface {
	Run(ctx context.Context, opts batch.RunOptions) (*batch.Summary, error)
}

// LatestClosedYear is the default target: the last fiscal year that has ended
func LatestClosedYear(now time.Time) int {
	return now.Year() - 1
}

// ScoringBatchJob rescores the latest closed fiscal year
// ⭐ SSOT: 정기 스코어링 스케줄은 이 Job에서만
type ScoringBatchJob struct {
	runner   ScoringRunner
	schedule string
	year     func(time.Time) int
	now      func() time.Time
	logger   *logger.Logger
}

// NewScoringBatchJob creates the periodic scoring job
func NewScoringBatchJob(runner ScoringRunner, schedule string, log *logger.Logger) *ScoringBatchJob {
	return &ScoringBatchJob{
		runner:   runner,
		schedule: schedule,
		year:     LatestClosedYear,
		now:      time.Now,
		logger:   log.WithField("job", "scoring_batch"),
	}
}

// Name returns the job name
func (j *ScoringBatchJob) Name() string {
	return "scoring_batch"
}

// Schedule returns the cron schedule
func (j *ScoringBatchJob) Schedule() string {
	return j.schedule
}

// Run executes one scoring pass. Per-company failures do not fail the job;
// an aborted run does.
func (j *ScoringBatchJob) Run(ctx context.Context) error {
	year := j.year(j.now())
	j.logger.WithField("year", year).Info("Starting scheduled scoring run")

	summary, err := j.runner.Run(ctx, batch.RunOptions{FiscalYear: year})
	if err != nil {
		return fmt.Errorf("scoring run FY%d: %w", year, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    summary.RunID,
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"errored":   summary.Errored,
	}).Info("Scheduled scoring run completed")

	return nil
}
