package index

import (
	"github.com/wonny/aegis-credit/internal/contracts"
)

// Red flags (hard threshold crossings)
const (
	FlagSustainedNegativeReinvestment contracts.Flag = "SUSTAINED_NEGATIVE_REINVESTMENT"
	FlagExcessPayout                  contracts.Flag = "EXCESS_PAYOUT"
	FlagCompositeCritical             contracts.Flag = "COMPOSITE_CRITICAL"
	FlagNetworkCritical               contracts.Flag = "NETWORK_CRITICAL"
)

// Yellow flags (soft threshold crossings)
const (
	FlagNegativeReinvestment contracts.Flag = "NEGATIVE_REINVESTMENT"
	FlagIdleCashHigh         contracts.Flag = "IDLE_CASH_HIGH"
	FlagInvestmentGapWide    contracts.Flag = "INVESTMENT_GAP_WIDE"
	FlagWeakSubIndex         contracts.Flag = "WEAK_SUB_INDEX"
	FlagIncompleteData       contracts.Flag = "INCOMPLETE_DATA"
	FlagNetworkElevated      contracts.Flag = "NETWORK_ELEVATED"
)

// FlagThresholds holds the flag trigger levels
type FlagThresholds struct {
	ExcessPayout      float64 // shareholder_return %
	CompositeCritical float64
	IdleCash          float64 // idle_cash_ratio %
	InvestmentGap     float64 // investment_gap %
	WeakSubIndex      float64
	MinCompleteness   float64
}

// DefaultFlagThresholds returns the standard trigger levels
func DefaultFlagThresholds() FlagThresholds {
	return FlagThresholds{
		ExcessPayout:      150,
		CompositeCritical: 30,
		IdleCash:          25,
		InvestmentGap:     5,
		WeakSubIndex:      30,
		MinCompleteness:   0.75,
	}
}

// FlagInput is everything the flag rules look at
type FlagInput struct {
	Composite    *float64
	SubIndices   contracts.SubIndices
	Derived      contracts.DerivedMetrics
	Completeness float64
	NetworkLevel string
}

// EvaluateFlags returns the red and yellow flags raised by in
func EvaluateFlags(in FlagInput, th FlagThresholds) (red, yellow []contracts.Flag) {
	red = []contracts.Flag{}
	yellow = []contracts.Flag{}

	if cur := in.Derived.ReinvestmentRate; cur != nil && *cur < 0 {
		if prev := in.Derived.PriorReinvestmentRate; prev != nil && *prev < 0 {
			red = append(red, FlagSustainedNegativeReinvestment)
		} else {
			yellow = append(yellow, FlagNegativeReinvestment)
		}
	}

	// 적자 상태에서의 배당/자사주 (음수 비율)도 과다 환원으로 본다
	if sr := in.Derived.ShareholderReturn; sr != nil && (*sr > th.ExcessPayout || *sr < 0) {
		red = append(red, FlagExcessPayout)
	}

	if in.Composite != nil && *in.Composite < th.CompositeCritical {
		red = append(red, FlagCompositeCritical)
	}

	switch in.NetworkLevel {
	case "CRITICAL":
		red = append(red, FlagNetworkCritical)
	case "HIGH":
		yellow = append(yellow, FlagNetworkElevated)
	}

	if ic := in.Derived.IdleCashRatio; ic != nil && *ic > th.IdleCash {
		yellow = append(yellow, FlagIdleCashHigh)
	}
	if gap := in.Derived.InvestmentGap; gap != nil && *gap > th.InvestmentGap {
		yellow = append(yellow, FlagInvestmentGapWide)
	}
	for _, v := range in.SubIndices.Vector() {
		if v != nil && *v < th.WeakSubIndex {
			yellow = append(yellow, FlagWeakSubIndex)
			break
		}
	}
	if in.Completeness < th.MinCompleteness {
		yellow = append(yellow, FlagIncompleteData)
	}

	return red, yellow
}
