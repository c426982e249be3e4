package network

import (
	"github.com/wonny/aegis-credit/internal/contracts"
)

// Inputs is what a sub-signal reads: graph edge counts plus stored attributes
type Inputs struct {
	Edges      contracts.EdgeCounts
	Attributes *contracts.CompanyAttributes
}

// Signal is one saturating sub-signal of a factor.
// Value = min(raw/Saturation, 1); Weight is its share within the factor.
type Signal struct {
	Name       string
	Weight     float64
	Saturation float64
	Graph      bool // graph-derived: forced to 0 for unlinked companies
	raw        func(Inputs) float64
}

// Factor is one weighted risk axis
type Factor struct {
	Name    string
	Weight  float64
	Signals []Signal
}

func edge(t contracts.EdgeType) func(Inputs) float64 {
	return func(in Inputs) float64 {
		return float64(in.Edges.Get(t))
	}
}

func attr(get func(*contracts.CompanyAttributes) *float64) func(Inputs) float64 {
	return func(in Inputs) float64 {
		if in.Attributes == nil {
			return 0
		}
		if v := get(in.Attributes); v != nil {
			return *v
		}
		return 0
	}
}

// DefaultFactors is the standard five-factor model. Factor weights sum to 1
// and each factor's signal weights sum to 1.
var DefaultFactors = []Factor{
	{
		Name: "information_asymmetry", Weight: 0.25,
		Signals: []Signal{
			{Name: "disclosure_corrections", Weight: 0.5, Saturation: 5,
				raw: attr(func(a *contracts.CompanyAttributes) *float64 { return a.DisclosureCorrections })},
			{Name: "auditor_changes", Weight: 0.3, Saturation: 2,
				raw: attr(func(a *contracts.CompanyAttributes) *float64 { return a.AuditorChanges })},
			{Name: "officer_changes", Weight: 0.2, Saturation: 5, Graph: true,
				raw: edge(contracts.EdgeOfficerChange)},
		},
	},
	{
		Name: "power_concentration", Weight: 0.20,
		Signals: []Signal{
			{Name: "largest_shareholder_stake", Weight: 0.5, Saturation: 0.5,
				raw: attr(func(a *contracts.CompanyAttributes) *float64 { return a.LargestShareholderStake })},
			{Name: "shared_officers", Weight: 0.5, Saturation: 5, Graph: true,
				raw: edge(contracts.EdgeSharedOfficer)},
		},
	},
	{
		Name: "transaction_pattern", Weight: 0.20,
		Signals: []Signal{
			{Name: "related_party_transactions", Weight: 0.6, Saturation: 10, Graph: true,
				raw: edge(contracts.EdgeRelatedPartyTx)},
			{Name: "guarantees", Weight: 0.4, Saturation: 5, Graph: true,
				raw: edge(contracts.EdgeGuarantee)},
		},
	},
	{
		Name: "fund_risk", Weight: 0.20,
		Signals: []Signal{
			{Name: "fund_investments", Weight: 0.5, Saturation: 3, Graph: true,
				raw: edge(contracts.EdgeFundInvestment)},
			{Name: "convertible_bonds", Weight: 0.5, Saturation: 3, Graph: true,
				raw: edge(contracts.EdgeConvertibleBond)},
		},
	},
	{
		Name: "network_risk", Weight: 0.15,
		Signals: []Signal{
			{Name: "subsidiaries", Weight: 0.3, Saturation: 20, Graph: true,
				raw: edge(contracts.EdgeSubsidiary)},
			{Name: "flagged_counterparts", Weight: 0.7, Saturation: 3, Graph: true,
				raw: edge(contracts.EdgeFlaggedCounterpart)},
		},
	},
}
