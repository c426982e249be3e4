package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/index"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/pkg/logger"
)

var f = contracts.F

// memAudit records call order so backup-before-update can be asserted
type memAudit struct {
	rows      []contracts.CompositeScoreRecord
	backups   map[string][]contracts.CompositeScoreRecord
	calls     []string
	backupErr error
}

func (m *memAudit) ListCompositeScores(_ context.Context, year int) ([]contracts.CompositeScoreRecord, error) {
	var out []contracts.CompositeScoreRecord
	for _, r := range m.rows {
		if year == 0 || r.FiscalYear == year {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAudit) BackupCompositeScores(_ context.Context, id string, recs []contracts.CompositeScoreRecord) error {
	m.calls = append(m.calls, "backup")
	if m.backupErr != nil {
		return m.backupErr
	}
	if m.backups == nil {
		m.backups = map[string][]contracts.CompositeScoreRecord{}
	}
	m.backups[id] = append(m.backups[id], recs...)
	return nil
}

func (m *memAudit) ApplyCompositeCorrections(_ context.Context, cs []contracts.ScoreCorrection) error {
	m.calls = append(m.calls, "apply")
	for _, c := range cs {
		for i := range m.rows {
			if m.rows[i].CompanyID == c.CompanyID && m.rows[i].FiscalYear == c.FiscalYear {
				v := c.CompositeScore
				m.rows[i].CompositeScore = &v
				m.rows[i].Grade = c.Grade
				m.rows[i].ScenarioName = c.ScenarioName
				m.rows[i].ScenarioVersion = c.ScenarioVersion
				m.rows[i].RedFlags, m.rows[i].YellowFlags = c.RedFlags, c.YellowFlags
				m.rows[i].Verdict, m.rows[i].Recommendation, m.rows[i].WatchTrigger = c.Verdict, c.Recommendation, c.WatchTrigger
			}
		}
	}
	return nil
}

func stored(id string, composite *float64, v float64) contracts.CompositeScoreRecord {
	return contracts.CompositeScoreRecord{
		CompanyID:      id,
		FiscalYear:     2024,
		CompositeScore: composite,
		SubIndices:     contracts.SubIndices{CEI: f(v), CGI: f(v), RII: f(v), MAI: f(v)},
	}
}

func fixture() *memAudit {
	return &memAudit{rows: []contracts.CompositeScoreRecord{
		stored("OK", f(62), 60),  // 허용오차 이내
		stored("BAD", f(90), 60), // 30점 차이
		stored("NIL", nil, 70),   // 저장값 없음
		{CompanyID: "SPARSE", FiscalYear: 2024, CompositeScore: f(50), SubIndices: contracts.SubIndices{CEI: f(50)}},
	}}
}

func TestRun_ReportOnly(t *testing.T) {
	repo := fixture()
	a := NewAuditor(repo, scenario.Uniform(), logger.NewNop())

	rep, err := a.Run(context.Background(), Options{FiscalYear: 2024})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Checked)
	assert.Equal(t, 1, rep.Skipped)
	require.Len(t, rep.Mismatches, 2)
	assert.Equal(t, "BAD", rep.Mismatches[0].CompanyID)
	assert.InDelta(t, 30.0, *rep.Mismatches[0].Delta, 1e-9)
	assert.Equal(t, "B", rep.Mismatches[0].RecomputedGrade)
	assert.Nil(t, rep.Mismatches[1].Delta)

	assert.Empty(t, repo.calls, "report-only must not write")
	assert.Equal(t, 0, rep.Corrected)
	assert.Empty(t, rep.BackupID)
}

func TestRun_ExecuteBacksUpThenCorrects(t *testing.T) {
	repo := fixture()
	a := NewAuditor(repo, scenario.Uniform(), logger.NewNop())

	rep, err := a.Run(context.Background(), Options{FiscalYear: 2024, Execute: true, BatchSize: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Corrected)
	assert.Equal(t, []string{"backup", "apply", "backup", "apply"}, repo.calls)
	require.NotEmpty(t, rep.BackupID)
	backed := repo.backups[rep.BackupID]
	require.Len(t, backed, 2)
	assert.InDelta(t, 90.0, *backed[0].CompositeScore, 1e-9, "backup holds the pre-correction value")

	// 두 번째 실행은 보정 0건
	again, err := a.Run(context.Background(), Options{FiscalYear: 2024, Execute: true})
	require.NoError(t, err)
	assert.Empty(t, again.Mismatches)
	assert.Equal(t, 0, again.Corrected)
	assert.Len(t, repo.calls, 4)
}

func TestRun_BackupFailureBlocksCorrections(t *testing.T) {
	repo := fixture()
	repo.backupErr = errors.New("disk full")
	a := NewAuditor(repo, scenario.Uniform(), logger.NewNop())

	rep, err := a.Run(context.Background(), Options{FiscalYear: 2024, Execute: true})
	require.ErrorIs(t, err, ErrBackupFailed)
	require.NotNil(t, rep)
	assert.Equal(t, 0, rep.Corrected)
	assert.Equal(t, []string{"backup"}, repo.calls)
	assert.InDelta(t, 90.0, *repo.rows[1].CompositeScore, 1e-9)
}

func TestRun_CustomTolerance(t *testing.T) {
	a := NewAuditor(fixture(), scenario.Uniform(), logger.NewNop())

	rep, err := a.Run(context.Background(), Options{FiscalYear: 2024, Tolerance: f(1)})
	require.NoError(t, err)
	assert.Len(t, rep.Mismatches, 3, "OK row drifts by 2 > 1")
}

func TestRun_ZeroToleranceIsExact(t *testing.T) {
	a := NewAuditor(fixture(), scenario.Uniform(), logger.NewNop())

	rep, err := a.Run(context.Background(), Options{FiscalYear: 2024, Tolerance: f(0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rep.Tolerance)
	assert.Len(t, rep.Mismatches, 3)

	_, err = a.Run(context.Background(), Options{FiscalYear: 2024, Tolerance: f(-1)})
	assert.Error(t, err)
}

func TestRun_ExecuteRefreshesFlagsAndVerdict(t *testing.T) {
	stale := stored("STALE", f(20), 80)
	stale.Grade = "F"
	stale.RedFlags = []contracts.Flag{index.FlagCompositeCritical}
	stale.YellowFlags = []contracts.Flag{}
	stale.Verdict = "Distressed (F, 20.0) with red flags: COMPOSITE_CRITICAL"
	stale.Completeness = 1
	repo := &memAudit{rows: []contracts.CompositeScoreRecord{stale}}
	a := NewAuditor(repo, scenario.Uniform(), logger.NewNop())

	rep, err := a.Run(context.Background(), Options{FiscalYear: 2024, Execute: true})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Corrected)

	healed := repo.rows[0]
	assert.InDelta(t, 80.0, *healed.CompositeScore, 1e-9)
	assert.Equal(t, "A", healed.Grade)
	assert.NotContains(t, healed.RedFlags, index.FlagCompositeCritical)
	assert.Equal(t, "Strong financial health (A, 80.0)", healed.Verdict)
	assert.Equal(t, "Maintain", healed.Recommendation)

	want, ok := index.Reassess(stale, scenario.Uniform())
	require.True(t, ok)
	assert.Equal(t, want.Verdict, healed.Verdict)
	assert.Equal(t, want.Recommendation, healed.Recommendation)
	assert.Equal(t, want.WatchTrigger, healed.WatchTrigger)

	// 백업은 보정 전 상태
	backed := repo.backups[rep.BackupID]
	require.Len(t, backed, 1)
	assert.Equal(t, stale.Verdict, backed[0].Verdict)
}
