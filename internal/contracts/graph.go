package contracts

// EdgeType is a relationship kind materialized by the graph sync
type EdgeType string

const (
	EdgeOfficerChange      EdgeType = "OFFICER_CHANGE"
	EdgeSharedOfficer      EdgeType = "SHARED_OFFICER"
	EdgeMajorShareholder   EdgeType = "MAJOR_SHAREHOLDER"
	EdgeRelatedPartyTx     EdgeType = "RELATED_PARTY_TX"
	EdgeGuarantee          EdgeType = "GUARANTEE"
	EdgeFundInvestment     EdgeType = "FUND_INVESTMENT"
	EdgeConvertibleBond    EdgeType = "CONVERTIBLE_BOND"
	EdgeSubsidiary         EdgeType = "SUBSIDIARY"
	EdgeFlaggedCounterpart EdgeType = "FLAGGED_COUNTERPART"
)

// EdgeCounts maps edge type to count. Absent keys mean zero.
type EdgeCounts map[EdgeType]int

// Get returns the count for t, zero when absent
func (e EdgeCounts) Get(t EdgeType) int {
	if e == nil {
		return 0
	}
	return e[t]
}

// CompanyAttributes are stored qualitative attributes of a company.
// GraphID is empty when the company is not linked into the relationship graph.
type CompanyAttributes struct {
	CompanyID               string   `json:"company_id"`
	GraphID                 string   `json:"graph_id,omitempty"`
	DisclosureCorrections   *float64 `json:"disclosure_corrections,omitempty"`
	AuditorChanges          *float64 `json:"auditor_changes,omitempty"`
	LargestShareholderStake *float64 `json:"largest_shareholder_stake,omitempty"` // 0~1
}

// Linked reports whether the company has graph data
func (a *CompanyAttributes) Linked() bool {
	return a != nil && a.GraphID != ""
}
