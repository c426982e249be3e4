package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/audit"
	"github.com/wonny/aegis-credit/internal/batch"
	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/pkg/logger"
)

type fakeRunner struct {
	got batch.RunOptions
	err error
}

func (f *fakeRunner) Run(_ context.Context, opts batch.RunOptions) (*batch.Summary, error) {
	f.got = opts
	return &batch.Summary{RunID: "r1", Processed: 3}, f.err
}

type fakeAuditor struct {
	got    audit.Options
	report *audit.Report
}

func (f *fakeAuditor) Run(_ context.Context, opts audit.Options) (*audit.Report, error) {
	f.got = opts
	return f.report, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 4, 1, 3, 0, 0, 0, time.UTC)
}

func TestScoringBatchJob_TargetsLatestClosedYear(t *testing.T) {
	runner := &fakeRunner{}
	job := NewScoringBatchJob(runner, "0 0 3 * * *", logger.NewNop())
	job.now = fixedNow

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 2024, runner.got.FiscalYear)
	assert.False(t, runner.got.DryRun)
	assert.Equal(t, "scoring_batch", job.Name())
	assert.Equal(t, "0 0 3 * * *", job.Schedule())
}

func TestScoringBatchJob_AbortFailsJob(t *testing.T) {
	runner := &fakeRunner{err: contracts.ErrPersistenceUnavailable}
	job := NewScoringBatchJob(runner, "@daily", logger.NewNop())

	err := job.Run(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrPersistenceUnavailable))
}

func TestConsistencyAuditJob_NeverExecutes(t *testing.T) {
	stored := 50.0
	auditor := &fakeAuditor{report: &audit.Report{
		RunID:      "a1",
		Checked:    10,
		Mismatches: []audit.Mismatch{{CompanyID: "A", StoredScore: &stored, RecomputedScore: 70}},
	}}
	job := NewConsistencyAuditJob(auditor, "0 30 5 * * *", 5, 200, logger.NewNop())
	job.now = fixedNow

	require.NoError(t, job.Run(context.Background()), "drift is reported, not failed")
	assert.False(t, auditor.got.Execute)
	assert.Equal(t, 2024, auditor.got.FiscalYear)
	require.NotNil(t, auditor.got.Tolerance)
	assert.Equal(t, 5.0, *auditor.got.Tolerance)
	assert.Equal(t, 200, auditor.got.BatchSize)
}
