package index

import (
	"math"

	"github.com/wonny/aegis-credit/internal/contracts"
)

// ComputeDerived returns the capital-allocation metrics of cur.
// prior is optional and only feeds PriorReinvestmentRate.
func ComputeDerived(cur *contracts.LineItems, prior *contracts.LineItems) contracts.DerivedMetrics {
	d := contracts.DerivedMetrics{
		InvestmentGap:     pct(diff(cur.Depreciation, cur.CapitalExpenditure), cur.TotalAssets),
		IdleCashRatio:     pct(plus(cur.CashAndEquivalents, cur.ShortTermInvestments), cur.TotalAssets),
		ReinvestmentRate:  reinvestment(cur),
		ShareholderReturn: pct(plus(cur.DividendsPaid, cur.ShareBuybacks), cur.NetIncome),
	}
	if prior != nil {
		d.PriorReinvestmentRate = reinvestment(prior)
	}
	return d
}

// reinvestment = (capex - depreciation) / operating cash flow
func reinvestment(li *contracts.LineItems) *float64 {
	return pct(diff(li.CapitalExpenditure, li.Depreciation), li.OperatingCashFlow)
}

func pct(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	v := *num / *den * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

// plus treats the second operand as optional
func plus(a, b *float64) *float64 {
	if a == nil {
		return nil
	}
	v := *a
	if b != nil {
		v += *b
	}
	return &v
}
