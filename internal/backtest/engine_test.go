package backtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/pkg/logger"
)

type memScores map[int][]contracts.CompositeScoreRecord

func (m memScores) ListCompositeScores(_ context.Context, year int) ([]contracts.CompositeScoreRecord, error) {
	return m[year], nil
}

type memOutcomes map[string]bool

func (m memOutcomes) Outcomes(_ context.Context, _ float64) (map[string]bool, error) {
	return m, nil
}

type memFingerprints map[string]contracts.ScenarioFingerprint

func (m memFingerprints) GetScenarioFingerprint(_ context.Context, name string, version int) (*contracts.ScenarioFingerprint, error) {
	fp, ok := m[scenario.FormatID(name, version)]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return &fp, nil
}

func (m memFingerprints) SaveScenarioFingerprint(_ context.Context, fp contracts.ScenarioFingerprint) error {
	m[scenario.FormatID(fp.Name, fp.Version)] = fp
	return nil
}

func record(id string, year int, v float64) contracts.CompositeScoreRecord {
	return contracts.CompositeScoreRecord{
		CompanyID:  id,
		FiscalYear: year,
		SubIndices: contracts.SubIndices{CEI: contracts.F(v), CGI: contracts.F(v), RII: contracts.F(v), MAI: contracts.F(v)},
	}
}

// spread: 8개사, 등급 A+~F 각 1개사
func spread(year int, shift float64) []contracts.CompositeScoreRecord {
	scores := []float64{95, 85, 75, 65, 55, 45, 35, 10}
	out := make([]contracts.CompositeScoreRecord, len(scores))
	for i, s := range scores {
		out[i] = record(fmt.Sprintf("C%d", i), year, s+shift)
	}
	return out
}

func TestEvaluate_Metrics(t *testing.T) {
	eng := NewEngine(nil, nil, nil, logger.NewNop())
	scn := scenario.Uniform()

	in := Input{
		Current:  spread(2024, 0),
		Prior:    spread(2023, 3),
		Outcomes: map[string]bool{"C6": true, "C7": true, "C4": true},
	}
	res := eng.Evaluate(in, Config{Scenario: scn, Baseline: scn, FiscalYear: 2024, PriorYear: 2023})

	assert.Equal(t, 8, res.Samples)
	assert.Equal(t, 3, res.Positives)
	// cutoff 40: C6, C7 예측 → TP 2, FN 1 (C4=55)
	assert.Equal(t, 2, res.Confusion.TP)
	assert.Equal(t, 0, res.Confusion.FP)
	assert.Equal(t, 1, res.Confusion.FN)
	assert.InDelta(t, 1.0, res.Precision, 1e-12)
	assert.InDelta(t, 2.0/3, res.Recall, 1e-12)
	assert.InDelta(t, 0.8, res.F1, 1e-12)
	assert.Equal(t, 0.0, res.FalsePositiveRate)

	assert.InDelta(t, 3.0, res.Entropy, 1e-12, "8 distinct grades")
	require.NotNil(t, res.Stability)
	assert.Equal(t, 8, res.StabilityPairs)
	assert.InDelta(t, 1.0, *res.Stability, 1e-12)

	require.NotNil(t, res.Correlation)
	assert.InDelta(t, 1.0, *res.Correlation, 1e-12)
	assert.True(t, res.Pass, "failures: %v", res.Failures)
}

func TestEvaluate_StabilityCountsBandShifts(t *testing.T) {
	eng := NewEngine(nil, nil, nil, logger.NewNop())
	in := Input{
		Current: []contracts.CompositeScoreRecord{record("A", 2024, 95), record("B", 2024, 95), record("C", 2024, 50)},
		Prior:   []contracts.CompositeScoreRecord{record("A", 2023, 72), record("B", 2023, 65), record("Z", 2023, 50)},
	}
	res := eng.Evaluate(in, Config{Scenario: scenario.Uniform()})

	// A: A+→B+ (2단계) 안정, B: A+→B (3단계) 불안정, Z는 현재 시점 없음
	assert.Equal(t, 2, res.StabilityPairs)
	require.NotNil(t, res.Stability)
	assert.InDelta(t, 0.5, *res.Stability, 1e-12)
}

func TestEvaluate_InsufficientData(t *testing.T) {
	eng := NewEngine(nil, nil, nil, logger.NewNop())

	res := eng.Evaluate(Input{}, Config{Scenario: scenario.Uniform(), Baseline: scenario.Uniform()})
	assert.False(t, res.Pass)
	assert.Nil(t, res.Stability)
	assert.Nil(t, res.Correlation)
	assert.Contains(t, res.Failures, "no scored companies")
	assert.Contains(t, res.Failures, "grade stability: insufficient overlap between vintages")
	assert.Contains(t, res.Failures, "baseline correlation: insufficient data")
}

func TestEvaluate_PerMetricRows(t *testing.T) {
	eng := NewEngine(nil, nil, nil, logger.NewNop())
	cur := []contracts.CompositeScoreRecord{record("A", 2024, 61), record("B", 2024, 62), record("C", 2024, 20)}

	res := eng.Evaluate(Input{Current: cur, Prior: cur, Outcomes: map[string]bool{"C": true}}, Config{Scenario: scenario.Uniform()})

	byMetric := make(map[string]MetricResult, len(res.Metrics))
	for _, m := range res.Metrics {
		assert.Equal(t, "uniform@1", m.Scenario)
		byMetric[m.Metric] = m
	}
	assert.Len(t, res.Metrics, 8, "no baseline row without a baseline")
	assert.NotContains(t, byMetric, MetricCorrelation)

	f1 := byMetric[MetricF1]
	require.NotNil(t, f1.Value)
	assert.InDelta(t, 1.0, *f1.Value, 1e-12)
	assert.Equal(t, DefaultCriteria().MinF1, f1.Threshold)
	assert.Equal(t, ">=", f1.Op)
	assert.True(t, f1.Pass)
	assert.Empty(t, f1.Details)

	fpr := byMetric[MetricFPR]
	assert.Equal(t, "<=", fpr.Op)
	assert.True(t, fpr.Pass)

	entropy := byMetric[MetricEntropy]
	assert.False(t, entropy.Pass)
	assert.Contains(t, entropy.Details, "grade entropy")
	assert.Contains(t, res.Failures, entropy.Details)

	failed := 0
	for _, m := range res.Metrics {
		if !m.Pass {
			failed++
		}
	}
	assert.Equal(t, len(res.Failures), failed)
	assert.False(t, res.Pass)
}

func TestEvaluate_CollapsedGradesFailEntropy(t *testing.T) {
	eng := NewEngine(nil, nil, nil, logger.NewNop())
	cur := []contracts.CompositeScoreRecord{record("A", 2024, 61), record("B", 2024, 62), record("C", 2024, 63)}

	res := eng.Evaluate(Input{Current: cur, Prior: cur}, Config{Scenario: scenario.Uniform()})
	assert.Equal(t, 0.0, res.Entropy)
	assert.Equal(t, map[string]int{"B": 3}, res.GradeDistribution)
	assert.False(t, res.Pass)
}

func TestRun_PinsScenario(t *testing.T) {
	fps := memFingerprints{}
	registry := scenario.NewRegistry(fps, logger.NewNop())
	scores := memScores{2024: spread(2024, 0), 2023: spread(2023, 0)}
	eng := NewEngine(scores, memOutcomes{"C7": true}, registry, logger.NewNop())

	scn := scenario.Uniform()
	res, err := eng.Run(context.Background(), Config{Scenario: scn, FiscalYear: 2024})
	require.NoError(t, err)
	assert.Equal(t, 2023, res.PriorYear)
	assert.Equal(t, 8, res.Samples)

	fp, ok := fps[scn.ID()]
	require.True(t, ok)
	assert.NotNil(t, fp.ReferencedAt)
	assert.Equal(t, scn.Hash(), fp.Hash)

	// 같은 이름/버전의 다른 정의는 거부
	changed, err := scn.WithWeights(scn.Name(), scn.Version(), scenario.Weights{CEI: 0.4, CGI: 0.2, RII: 0.2, MAI: 0.2})
	require.NoError(t, err)
	_, err = eng.Run(context.Background(), Config{Scenario: changed, FiscalYear: 2024})
	assert.ErrorIs(t, err, scenario.ErrScenarioImmutable)
}

func TestCompare_OrdersByF1(t *testing.T) {
	eng := NewEngine(nil, nil, nil, logger.NewNop())
	f := contracts.F

	// 실패 기업은 CGI만 낮음
	cur := []contracts.CompositeScoreRecord{
		{CompanyID: "A", SubIndices: contracts.SubIndices{CEI: f(60), CGI: f(5), RII: f(60), MAI: f(60)}},
		{CompanyID: "B", SubIndices: contracts.SubIndices{CEI: f(60), CGI: f(70), RII: f(60), MAI: f(60)}},
	}
	cgiHeavy := scenario.MustNew(scenario.Definition{
		Name: "cgi_heavy", Version: 1, Mode: scenario.ModeArithmetic,
		Weights: scenario.Weights{CEI: 0.1, CGI: 0.7, RII: 0.1, MAI: 0.1},
		Grades:  scenario.DefaultGrades,
	})

	out := eng.Compare(Input{Current: cur, Outcomes: map[string]bool{"A": true}}, Config{}, []*scenario.WeightScenario{scenario.Uniform(), cgiHeavy})
	require.Len(t, out, 2)
	assert.Equal(t, "cgi_heavy@1", out[0].ScenarioID)
	assert.InDelta(t, 1.0, out[0].F1, 1e-12)
	assert.Equal(t, 0.0, out[1].F1)
}
