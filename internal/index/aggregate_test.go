package index

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/scenario"
)

var f = contracts.F

func testScenario(t *testing.T, mode scenario.AggregationMode, w scenario.Weights) *scenario.WeightScenario {
	t.Helper()
	scn, err := scenario.New(scenario.Definition{
		Name:    "test",
		Version: 1,
		Mode:    mode,
		Weights: w,
		Grades:  scenario.DefaultGrades,
	})
	require.NoError(t, err)
	return scn
}

func TestAggregate_ArithmeticExample(t *testing.T) {
	scn := testScenario(t, scenario.ModeArithmetic, scenario.WeightsFromVector([4]float64{0.20, 0.35, 0.25, 0.20}))
	subs := contracts.SubIndices{CEI: f(80), RII: f(60), CGI: f(70), MAI: f(50)}

	got := Aggregate(subs, scn)
	require.NotNil(t, got)
	assert.InDelta(t, 65.5, *got, 1e-9)
	assert.Equal(t, "B", Grade(*got, scn))
}

func TestAggregate_GeometricFloor(t *testing.T) {
	scn := testScenario(t, scenario.ModeGeometric, scenario.Weights{CEI: 0.25, CGI: 0.25, RII: 0.25, MAI: 0.25})

	withZero := Aggregate(contracts.SubIndices{CEI: f(0), CGI: f(80), RII: f(80), MAI: f(80)}, scn)
	require.NotNil(t, withZero)
	assert.Greater(t, *withZero, 1.0, "one zero sub-index must not collapse the product")

	// 0과 1은 바닥값 1로 동일하게 취급
	withOne := Aggregate(contracts.SubIndices{CEI: f(1), CGI: f(80), RII: f(80), MAI: f(80)}, scn)
	assert.InDelta(t, *withOne, *withZero, 1e-9)

	equal := Aggregate(contracts.SubIndices{CEI: f(64), CGI: f(64), RII: f(64), MAI: f(64)}, scn)
	assert.InDelta(t, 64.0, *equal, 1e-9)
}

func TestAggregate_GeometricMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 300; trial++ {
		var w [4]float64
		var total float64
		for i := range w {
			w[i] = rng.Float64()
			total += w[i]
		}
		for i := range w {
			w[i] /= total
		}
		// 합계 오차 보정
		w[3] = 1 - w[0] - w[1] - w[2]
		scn := testScenario(t, scenario.ModeGeometric, scenario.WeightsFromVector(w))

		var base [4]float64
		for i := range base {
			base[i] = rng.Float64() * 100
		}
		before := AggregateVector(base, scn.Weights().Vector(), scn.Mode())

		i := rng.Intn(4)
		raised := base
		raised[i] += rng.Float64() * (100 - raised[i])
		after := AggregateVector(raised, scn.Weights().Vector(), scn.Mode())

		assert.GreaterOrEqual(t, after+1e-9, before, "raising index %d lowered composite (trial %d)", i, trial)
	}
}

func TestAggregate_MissingSubIndices(t *testing.T) {
	scn := testScenario(t, scenario.ModeArithmetic, scenario.Weights{CEI: 0.4, CGI: 0.2, RII: 0.2, MAI: 0.2})

	three := Aggregate(contracts.SubIndices{CEI: f(80), CGI: f(60), RII: f(60)}, scn)
	require.NotNil(t, three)
	// 가중치 재정규화: (80*.4 + 60*.2 + 60*.2) / .8
	assert.InDelta(t, 70.0, *three, 1e-9)

	assert.Nil(t, Aggregate(contracts.SubIndices{CEI: f(80), CGI: f(60)}, scn))
	assert.Nil(t, Aggregate(contracts.SubIndices{}, scn))
}

func TestGrade_Boundaries(t *testing.T) {
	scn := testScenario(t, scenario.ModeArithmetic, scenario.Weights{CEI: 0.25, CGI: 0.25, RII: 0.25, MAI: 0.25})

	assert.Equal(t, "A+", Grade(100, scn))
	assert.Equal(t, "A+", Grade(90, scn))
	assert.Equal(t, "A", Grade(89.99, scn))
	assert.Equal(t, "D", Grade(30, scn))
	assert.Equal(t, "F", Grade(29.99, scn))
	assert.Equal(t, "F", Grade(0, scn))
}

func TestComputeDerived(t *testing.T) {
	cur := contracts.LineItems{
		Depreciation:         f(50),
		CapitalExpenditure:   f(30),
		TotalAssets:          f(1000),
		CashAndEquivalents:   f(200),
		ShortTermInvestments: f(100),
		OperatingCashFlow:    f(100),
		DividendsPaid:        f(40),
		NetIncome:            f(80),
	}
	prior := contracts.LineItems{Depreciation: f(50), CapitalExpenditure: f(20), OperatingCashFlow: f(60)}

	d := ComputeDerived(&cur, &prior)
	assert.InDelta(t, 2.0, *d.InvestmentGap, 1e-9)
	assert.InDelta(t, 30.0, *d.IdleCashRatio, 1e-9)
	assert.InDelta(t, -20.0, *d.ReinvestmentRate, 1e-9)
	assert.InDelta(t, -50.0, *d.PriorReinvestmentRate, 1e-9)
	assert.InDelta(t, 50.0, *d.ShareholderReturn, 1e-9)

	empty := ComputeDerived(&contracts.LineItems{NetIncome: f(0), TotalAssets: f(0)}, nil)
	assert.Nil(t, empty.InvestmentGap)
	assert.Nil(t, empty.IdleCashRatio)
	assert.Nil(t, empty.ReinvestmentRate)
	assert.Nil(t, empty.PriorReinvestmentRate)
	assert.Nil(t, empty.ShareholderReturn)
}

func TestEvaluateFlags(t *testing.T) {
	th := DefaultFlagThresholds()

	red, yellow := EvaluateFlags(FlagInput{
		Composite:    f(55),
		SubIndices:   contracts.SubIndices{CEI: f(60), CGI: f(20), RII: f(50), MAI: f(60)},
		Derived:      contracts.DerivedMetrics{ReinvestmentRate: f(-10), PriorReinvestmentRate: f(-5), IdleCashRatio: f(40)},
		Completeness: 0.5,
		NetworkLevel: "HIGH",
	}, th)

	assert.Equal(t, []contracts.Flag{FlagSustainedNegativeReinvestment}, red)
	assert.ElementsMatch(t, []contracts.Flag{FlagNetworkElevated, FlagIdleCashHigh, FlagWeakSubIndex, FlagIncompleteData}, yellow)

	red, yellow = EvaluateFlags(FlagInput{
		Composite:    f(20),
		Derived:      contracts.DerivedMetrics{ReinvestmentRate: f(-10), ShareholderReturn: f(200)},
		Completeness: 1,
		NetworkLevel: "CRITICAL",
	}, th)
	assert.ElementsMatch(t, []contracts.Flag{FlagExcessPayout, FlagCompositeCritical, FlagNetworkCritical}, red)
	assert.Equal(t, []contracts.Flag{FlagNegativeReinvestment}, yellow)

	red, yellow = EvaluateFlags(FlagInput{Composite: f(85), Completeness: 1, NetworkLevel: "LOW"}, th)
	assert.Empty(t, red)
	assert.Empty(t, yellow)
}
