package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // 처음 N번 실패
	calls    atomic.Int32
	done     chan struct{}
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("transient")
	}
	if j.done != nil {
		close(j.done)
	}
	return nil
}

func newTestScheduler(retries int) *Scheduler {
	return New(Options{MaxRetries: retries, RetryDelay: time.Millisecond}, logger.NewNop())
}

func waitForHistory(t *testing.T, s *Scheduler, name string) JobResult {
	t.Helper()
	var last JobResult
	require.Eventually(t, func() bool {
		h, err := s.GetJobHistory(name)
		if err != nil || len(h.Results) == 0 {
			return false
		}
		last = h.Results[len(h.Results)-1]
		return true
	}, 2*time.Second, 5*time.Millisecond)
	return last
}

func TestAddJob_DuplicateAndInvalidSchedule(t *testing.T) {
	s := newTestScheduler(0)

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 0 3 * * *"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "0 0 3 * * *"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "b", schedule: "not a cron"}))

	assert.Equal(t, []string{"a"}, s.GetAllJobs())
}

func TestRunJob_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler(3)
	job := &fakeJob{name: "scoring_batch", schedule: "0 0 3 * * *", failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("scoring_batch"))
	res := waitForHistory(t, s, "scoring_batch")

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Empty(t, res.Error)

	stats := s.GetJobStats()["scoring_batch"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1.0, stats.SuccessRate)
	assert.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
}

func TestRunJob_FailsAfterRetries(t *testing.T) {
	s := newTestScheduler(1)
	job := &fakeJob{name: "audit", schedule: "0 30 5 * * *", failures: 10}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("audit"))
	res := waitForHistory(t, s, "audit")

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "transient", res.Error)
	assert.Equal(t, int32(2), job.calls.Load())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler(0)
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
	assert.Error(t, s.RunJob("a"))
}

func TestStartStop_ReportsNextRun(t *testing.T) {
	s := newTestScheduler(0)
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 0 3 * * *"}))

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return s.GetJobStats()["a"].NextRun != nil
	}, time.Second, 5*time.Millisecond)
}

func TestJobHistory_Bounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+20; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(3))
}
