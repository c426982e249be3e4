package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/ratio"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/pkg/logger"
)

func healthyItems() contracts.LineItems {
	return contracts.LineItems{
		Revenue: f(1000), CostOfSales: f(600), OperatingIncome: f(150), InterestExpense: f(20),
		NetIncome: f(100), Depreciation: f(40), CashAndEquivalents: f(120), ShortTermInvestments: f(30),
		AccountsReceivable: f(110), Inventory: f(90), CurrentAssets: f(400), TotalAssets: f(1200),
		AccountsPayable: f(80), CurrentLiabilities: f(250), ShortTermDebt: f(100), LongTermDebt: f(200),
		TotalLiabilities: f(600), TotalEquity: f(600), RetainedEarnings: f(300),
		OperatingCashFlow: f(180), CapitalExpenditure: f(60), DividendsPaid: f(30), ShareBuybacks: f(10),
	}
}

func TestAggregator_ScoreMatchesOneShot(t *testing.T) {
	log := logger.NewNop()
	scn := testScenario(t, scenario.ModeGeometric, scenario.Weights{CEI: 0.2, CGI: 0.3, RII: 0.3, MAI: 0.2})

	prior := &contracts.StatementRecord{CompanyID: "A001", FiscalYear: 2023, Items: healthyItems()}
	prior.Items.Revenue = f(900)
	cur := &contracts.StatementRecord{CompanyID: "A001", CompanyName: "Alpha", FiscalYear: 2024, Items: healthyItems()}

	ratios, err := ratio.NewEngine(log).Compute(cur, prior)
	require.NoError(t, err)

	rec, err := NewAggregator(scn, log).Score(Input{Statement: cur, Prior: prior, Ratios: ratios, NetworkLevel: "LOW"})
	require.NoError(t, err)
	require.NotNil(t, rec.CompositeScore)

	// 저장된 sub-index로 재계산한 값 == 파이프라인 결과
	again, grade := Recompute(rec, scn)
	require.NotNil(t, again)
	assert.InDelta(t, *rec.CompositeScore, *again, 1e-9)
	assert.Equal(t, rec.Grade, grade)

	// 직접 산출 경로와 동일
	derived := ComputeDerived(&cur.Items, &prior.Items)
	direct := Aggregate(BuildSubIndices(ratios, derived), scn)
	assert.InDelta(t, *direct, *rec.CompositeScore, 1e-9)

	assert.Equal(t, "test", rec.ScenarioName)
	assert.Equal(t, 1, rec.ScenarioVersion)
	assert.Equal(t, "Alpha", rec.CompanyName)
	assert.NotEmpty(t, rec.Verdict)
	assert.NotEmpty(t, rec.Recommendation)
	assert.NotEmpty(t, rec.WatchTrigger)
	assert.Equal(t, 4, rec.SubIndices.Present())

	// 저장값 재평가는 파이프라인 판정과 동일
	reassessed, ok := Reassess(*rec, scn)
	require.True(t, ok)
	assert.Equal(t, rec.Grade, reassessed.Grade)
	assert.Equal(t, rec.RedFlags, reassessed.RedFlags)
	assert.Equal(t, rec.YellowFlags, reassessed.YellowFlags)
	assert.Equal(t, rec.Verdict, reassessed.Verdict)
}

func TestReassess_RefreshesCompositeDependentFields(t *testing.T) {
	stale := contracts.CompositeScoreRecord{
		CompanyID:      "A001",
		FiscalYear:     2024,
		SubIndices:     contracts.SubIndices{CEI: f(80), CGI: f(80), RII: f(80), MAI: f(80)},
		CompositeScore: f(20),
		Grade:          "F",
		RedFlags:       []contracts.Flag{FlagCompositeCritical},
		Verdict:        "Distressed (F, 20.0) with red flags: COMPOSITE_CRITICAL",
		Completeness:   1,
	}

	got, ok := Reassess(stale, scenario.Uniform())
	require.True(t, ok)
	assert.InDelta(t, 80.0, *got.CompositeScore, 1e-9)
	assert.Equal(t, "A", got.Grade)
	assert.Empty(t, got.RedFlags)
	assert.Equal(t, "Strong financial health (A, 80.0)", got.Verdict)
	assert.Equal(t, "uniform", got.ScenarioName)
	assert.InDelta(t, 20.0, *stale.CompositeScore, 1e-9, "input is not mutated")

	_, ok = Reassess(contracts.CompositeScoreRecord{SubIndices: contracts.SubIndices{CEI: f(50)}}, scenario.Uniform())
	assert.False(t, ok)
}

func TestAggregator_InsufficientData(t *testing.T) {
	log := logger.NewNop()
	scn := scenario.Uniform()

	cur := &contracts.StatementRecord{CompanyID: "B002", FiscalYear: 2024, Items: contracts.LineItems{Revenue: f(100)}}
	ratios, err := ratio.NewEngine(log).Compute(cur, nil)
	require.NoError(t, err)

	rec, err := NewAggregator(scn, log).Score(Input{Statement: cur, Ratios: ratios})
	require.NoError(t, err)
	assert.Nil(t, rec.CompositeScore)
	assert.Empty(t, rec.Grade)
	assert.Empty(t, rec.Verdict)
	assert.Contains(t, rec.YellowFlags, FlagIncompleteData)

	_, err = NewAggregator(scn, log).Score(Input{})
	assert.Error(t, err)
}

func TestDecisionTable(t *testing.T) {
	grades := scenario.Uniform().Grades()

	d := DefaultDecisionTable.Decide("A", f(84.2), grades, nil, nil)
	assert.Equal(t, "Strong financial health (A, 84.2)", d.Verdict)
	assert.Equal(t, "Composite falls below 80", d.WatchTrigger)

	d = DefaultDecisionTable.Decide("A", f(84.2), grades, []contracts.Flag{FlagExcessPayout}, nil)
	assert.Equal(t, "Grade A (84.2) overridden by red flags: EXCESS_PAYOUT", d.Verdict)

	d = DefaultDecisionTable.Decide("F", f(12), grades, []contracts.Flag{FlagCompositeCritical}, []contracts.Flag{FlagWeakSubIndex})
	assert.Contains(t, d.Verdict, "COMPOSITE_CRITICAL, WEAK_SUB_INDEX")
	assert.Equal(t, "Exclude from new exposure and escalate for credit review", d.Recommendation)

	d = DefaultDecisionTable.Decide("B", f(65), grades, nil, []contracts.Flag{FlagIdleCashHigh})
	assert.Equal(t, "Sound (B, 65.0) with caveats: IDLE_CASH_HIGH", d.Verdict)

	d = DefaultDecisionTable.Decide("C", f(45), grades, nil, nil)
	assert.Equal(t, "Composite falls below 40", d.WatchTrigger)

	// 알 수 없는 등급은 마지막 행으로
	d = DefaultDecisionTable.Decide("ZZ", f(45), grades, nil, nil)
	assert.Equal(t, "Distressed or unclassified (ZZ, 45.0)", d.Verdict)
}

func TestClampComposite(t *testing.T) {
	rec := &contracts.CompositeScoreRecord{
		CompanyID:        "C003",
		FiscalYear:       2024,
		CompositeScore:   f(55),
		SubIndices:       contracts.SubIndices{CEI: f(101)},
		Derived:          contracts.DerivedMetrics{ShareholderReturn: f(1e12), InvestmentGap: f(-2e9)},
		NetworkRiskScore: 1.2,
	}

	events := ClampComposite(rec)
	require.Len(t, events, 4)

	assert.Equal(t, 100.0, *rec.SubIndices.CEI)
	assert.Equal(t, MetricMax, *rec.Derived.ShareholderReturn)
	assert.Equal(t, MetricMin, *rec.Derived.InvestmentGap)
	assert.Equal(t, 1.0, rec.NetworkRiskScore)
	assert.Equal(t, 55.0, *rec.CompositeScore)

	cols := make([]string, len(events))
	for i, e := range events {
		cols[i] = e.Column
		assert.Equal(t, "C003", e.CompanyID)
	}
	assert.ElementsMatch(t, []string{"cei", "shareholder_return", "investment_gap", "network_risk_score"}, cols)
}

func TestClampRatio(t *testing.T) {
	rec := &contracts.RatioRecord{
		CompanyID:      "C003",
		FiscalYear:     2024,
		HealthScore:    f(50),
		Ratios:         map[contracts.RatioName]*float64{ratio.InterestCoverage: f(5e9), ratio.ROE: nil},
		CategoryScores: map[contracts.Category]*float64{},
	}

	events := ClampRatio(rec)
	require.Len(t, events, 1)
	assert.Equal(t, "interest_coverage", events[0].Column)
	assert.Equal(t, 5e9, events[0].Original)
	assert.Equal(t, MetricMax, *rec.Ratios[ratio.InterestCoverage])
}
