package ratio

import (
	"github.com/wonny/aegis-credit/internal/contracts"
)

// Ratio names
const (
	GrossMargin     contracts.RatioName = "gross_margin"
	OperatingMargin contracts.RatioName = "operating_margin"
	NetMargin       contracts.RatioName = "net_margin"
	ROE             contracts.RatioName = "roe"
	ROA             contracts.RatioName = "roa"

	DebtRatio                contracts.RatioName = "debt_ratio"
	EquityRatio              contracts.RatioName = "equity_ratio"
	BorrowingDependency      contracts.RatioName = "borrowing_dependency"
	InterestCoverage         contracts.RatioName = "interest_coverage"
	RetainedEarningsToAssets contracts.RatioName = "retained_earnings_to_assets"

	CurrentRatio           contracts.RatioName = "current_ratio"
	QuickRatio             contracts.RatioName = "quick_ratio"
	CashRatio              contracts.RatioName = "cash_ratio"
	WorkingCapitalToAssets contracts.RatioName = "working_capital_to_assets"

	AssetTurnover       contracts.RatioName = "asset_turnover"
	ReceivablesTurnover contracts.RatioName = "receivables_turnover"
	InventoryTurnover   contracts.RatioName = "inventory_turnover"
	PayablesTurnover    contracts.RatioName = "payables_turnover"

	RevenueGrowth         contracts.RatioName = "revenue_growth"
	OperatingIncomeGrowth contracts.RatioName = "operating_income_growth"
	NetIncomeGrowth       contracts.RatioName = "net_income_growth"
	TotalAssetsGrowth     contracts.RatioName = "total_assets_growth"

	OperatingCFMargin contracts.RatioName = "operating_cf_margin"
	FreeCFMargin      contracts.RatioName = "free_cf_margin"
	CashFlowToDebt    contracts.RatioName = "cash_flow_to_debt"
)

// Band is the normalization range of a ratio. Bad maps to 0, Good to 100;
// Good < Bad describes a lower-is-better ratio.
type Band struct {
	Bad  float64
	Good float64
}

// Normalize maps v linearly onto [0,100] between Bad and Good
func (b Band) Normalize(v float64) float64 {
	if b.Good == b.Bad {
		return 50
	}
	s := (v - b.Bad) / (b.Good - b.Bad) * 100
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// Definition is one documented ratio formula
type Definition struct {
	Name        contracts.RatioName
	Category    contracts.Category
	Unit        string // "%" or "x"
	Band        Band
	NeedsPrior  bool
	Description string
	compute     func(cur, prior *contracts.LineItems) *float64
}

// Compute evaluates the formula; prior may be nil
func (d Definition) Compute(cur, prior *contracts.LineItems) *float64 {
	if d.NeedsPrior && prior == nil {
		return nil
	}
	return d.compute(cur, prior)
}

// Definitions lists all 25 ratios.
// 밴드 상수는 최신 산식 버전 기준 (버전 간 미세 차이는 최신값 채택)
var Definitions = []Definition{
	// 수익성
	{GrossMargin, contracts.CategoryProfitability, "%", Band{Bad: 5, Good: 40}, false,
		"(revenue - cost_of_sales) / revenue",
		func(c, _ *contracts.LineItems) *float64 { return div(sub(c.Revenue, c.CostOfSales), c.Revenue, 100) }},
	{OperatingMargin, contracts.CategoryProfitability, "%", Band{Bad: -5, Good: 15}, false,
		"operating_income / revenue",
		func(c, _ *contracts.LineItems) *float64 { return div(c.OperatingIncome, c.Revenue, 100) }},
	{NetMargin, contracts.CategoryProfitability, "%", Band{Bad: -5, Good: 10}, false,
		"net_income / revenue",
		func(c, _ *contracts.LineItems) *float64 { return div(c.NetIncome, c.Revenue, 100) }},
	{ROE, contracts.CategoryProfitability, "%", Band{Bad: -5, Good: 15}, false,
		"net_income / total_equity",
		func(c, _ *contracts.LineItems) *float64 { return div(c.NetIncome, c.TotalEquity, 100) }},
	{ROA, contracts.CategoryProfitability, "%", Band{Bad: -2, Good: 8}, false,
		"net_income / total_assets",
		func(c, _ *contracts.LineItems) *float64 { return div(c.NetIncome, c.TotalAssets, 100) }},

	// 안정성
	{DebtRatio, contracts.CategoryStability, "%", Band{Bad: 300, Good: 50}, false,
		"total_liabilities / total_equity",
		func(c, _ *contracts.LineItems) *float64 { return div(c.TotalLiabilities, c.TotalEquity, 100) }},
	{EquityRatio, contracts.CategoryStability, "%", Band{Bad: 20, Good: 60}, false,
		"total_equity / total_assets",
		func(c, _ *contracts.LineItems) *float64 { return div(c.TotalEquity, c.TotalAssets, 100) }},
	{BorrowingDependency, contracts.CategoryStability, "%", Band{Bad: 50, Good: 10}, false,
		"(short_term_debt + long_term_debt) / total_assets",
		func(c, _ *contracts.LineItems) *float64 { return div(totalDebt(c), c.TotalAssets, 100) }},
	{InterestCoverage, contracts.CategoryStability, "x", Band{Bad: 1, Good: 8}, false,
		"operating_income / interest_expense",
		func(c, _ *contracts.LineItems) *float64 { return div(c.OperatingIncome, c.InterestExpense, 1) }},
	{RetainedEarningsToAssets, contracts.CategoryStability, "%", Band{Bad: -10, Good: 30}, false,
		"retained_earnings / total_assets",
		func(c, _ *contracts.LineItems) *float64 { return div(c.RetainedEarnings, c.TotalAssets, 100) }},

	// 유동성
	{CurrentRatio, contracts.CategoryLiquidity, "%", Band{Bad: 80, Good: 200}, false,
		"current_assets / current_liabilities",
		func(c, _ *contracts.LineItems) *float64 { return div(c.CurrentAssets, c.CurrentLiabilities, 100) }},
	{QuickRatio, contracts.CategoryLiquidity, "%", Band{Bad: 50, Good: 150}, false,
		"(current_assets - inventory) / current_liabilities",
		func(c, _ *contracts.LineItems) *float64 {
			return div(subOpt(c.CurrentAssets, c.Inventory), c.CurrentLiabilities, 100)
		}},
	{CashRatio, contracts.CategoryLiquidity, "%", Band{Bad: 10, Good: 60}, false,
		"(cash_and_equivalents + short_term_investments) / current_liabilities",
		func(c, _ *contracts.LineItems) *float64 {
			return div(addOpt(c.CashAndEquivalents, c.ShortTermInvestments), c.CurrentLiabilities, 100)
		}},
	{WorkingCapitalToAssets, contracts.CategoryLiquidity, "%", Band{Bad: -10, Good: 25}, false,
		"(current_assets - current_liabilities) / total_assets",
		func(c, _ *contracts.LineItems) *float64 {
			return div(sub(c.CurrentAssets, c.CurrentLiabilities), c.TotalAssets, 100)
		}},

	// 활동성
	{AssetTurnover, contracts.CategoryActivity, "x", Band{Bad: 0.3, Good: 1.5}, false,
		"revenue / total_assets",
		func(c, _ *contracts.LineItems) *float64 { return div(c.Revenue, c.TotalAssets, 1) }},
	{ReceivablesTurnover, contracts.CategoryActivity, "x", Band{Bad: 3, Good: 12}, false,
		"revenue / accounts_receivable",
		func(c, _ *contracts.LineItems) *float64 { return div(c.Revenue, c.AccountsReceivable, 1) }},
	{InventoryTurnover, contracts.CategoryActivity, "x", Band{Bad: 2, Good: 10}, false,
		"cost_of_sales / inventory",
		func(c, _ *contracts.LineItems) *float64 { return div(c.CostOfSales, c.Inventory, 1) }},
	{PayablesTurnover, contracts.CategoryActivity, "x", Band{Bad: 15, Good: 5}, false,
		"cost_of_sales / accounts_payable",
		func(c, _ *contracts.LineItems) *float64 { return div(c.CostOfSales, c.AccountsPayable, 1) }},

	// 성장성 (전기 필요)
	{RevenueGrowth, contracts.CategoryGrowth, "%", Band{Bad: -10, Good: 15}, true,
		"(revenue - prior revenue) / |prior revenue|",
		func(c, p *contracts.LineItems) *float64 { return growth(c.Revenue, p.Revenue) }},
	{OperatingIncomeGrowth, contracts.CategoryGrowth, "%", Band{Bad: -30, Good: 20}, true,
		"(operating_income - prior) / |prior|",
		func(c, p *contracts.LineItems) *float64 { return growth(c.OperatingIncome, p.OperatingIncome) }},
	{NetIncomeGrowth, contracts.CategoryGrowth, "%", Band{Bad: -30, Good: 20}, true,
		"(net_income - prior) / |prior|",
		func(c, p *contracts.LineItems) *float64 { return growth(c.NetIncome, p.NetIncome) }},
	{TotalAssetsGrowth, contracts.CategoryGrowth, "%", Band{Bad: -10, Good: 10}, true,
		"(total_assets - prior) / |prior|",
		func(c, p *contracts.LineItems) *float64 { return growth(c.TotalAssets, p.TotalAssets) }},

	// 현금흐름
	{OperatingCFMargin, contracts.CategoryCashFlow, "%", Band{Bad: -5, Good: 15}, false,
		"operating_cash_flow / revenue",
		func(c, _ *contracts.LineItems) *float64 { return div(c.OperatingCashFlow, c.Revenue, 100) }},
	{FreeCFMargin, contracts.CategoryCashFlow, "%", Band{Bad: -10, Good: 10}, false,
		"(operating_cash_flow - capital_expenditure) / revenue",
		func(c, _ *contracts.LineItems) *float64 {
			return div(sub(c.OperatingCashFlow, c.CapitalExpenditure), c.Revenue, 100)
		}},
	{CashFlowToDebt, contracts.CategoryCashFlow, "%", Band{Bad: 0, Good: 40}, false,
		"operating_cash_flow / (short_term_debt + long_term_debt)",
		func(c, _ *contracts.LineItems) *float64 { return div(c.OperatingCashFlow, totalDebt(c), 100) }},
}

// Lookup returns the definition of name
func Lookup(name contracts.RatioName) (Definition, bool) {
	for _, d := range Definitions {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}
