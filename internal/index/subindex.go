package index

import (
	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/ratio"
)

var (
	// reinvestmentBand: 감가상각 이상 재투자할수록 가점
	reinvestmentBand = ratio.Band{Bad: -50, Good: 50}
	// shareholderReturnBand: 이익 대비 과도한 환원은 감점
	shareholderReturnBand = ratio.Band{Bad: 150, Good: 40}
)

// BuildSubIndices maps RatioEngine output and derived metrics onto the
// four sub-indices. A sub-index with no available input is nil.
func BuildSubIndices(rec *contracts.RatioRecord, derived contracts.DerivedMetrics) contracts.SubIndices {
	return contracts.SubIndices{
		CEI: meanOf(
			rec.CategoryScore(contracts.CategoryProfitability),
			rec.CategoryScore(contracts.CategoryActivity),
		),
		CGI: meanOf(
			rec.CategoryScore(contracts.CategoryCashFlow),
			rec.CategoryScore(contracts.CategoryLiquidity),
		),
		RII: meanOf(
			rec.CategoryScore(contracts.CategoryGrowth),
			banded(derived.ReinvestmentRate, reinvestmentBand),
		),
		MAI: meanOf(
			rec.CategoryScore(contracts.CategoryStability),
			banded(derived.ShareholderReturn, shareholderReturnBand),
		),
	}
}

func banded(v *float64, b ratio.Band) *float64 {
	if v == nil {
		return nil
	}
	s := b.Normalize(*v)
	return &s
}

func meanOf(values ...*float64) *float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}
