package contracts

import "time"

// RatioName identifies one of the computed financial ratios
type RatioName string

// Category groups ratios into a scored dimension
type Category string

const (
	CategoryProfitability Category = "profitability"
	CategoryStability     Category = "stability"
	CategoryLiquidity     Category = "liquidity"
	CategoryActivity      Category = "activity"
	CategoryGrowth        Category = "growth"
	CategoryCashFlow      Category = "cash_flow"
)

// Categories lists all categories in report order
var Categories = []Category{
	CategoryProfitability,
	CategoryStability,
	CategoryLiquidity,
	CategoryActivity,
	CategoryGrowth,
	CategoryCashFlow,
}

// RatioRecord is the RatioEngine output for one company-period
// ⭐ SSOT: 비율 산출 결과는 이 구조체로만 전달
type RatioRecord struct {
	CompanyID           string                 `json:"company_id"`
	FiscalYear          int                    `json:"fiscal_year"`
	Quarter             int                    `json:"quarter"`
	Ratios              map[RatioName]*float64 `json:"ratios"`
	CategoryScores      map[Category]*float64  `json:"category_scores"`
	HealthScore         *float64               `json:"health_score"`
	HealthGrade         string                 `json:"health_grade"`
	RiskLevel           string                 `json:"risk_level"`
	Completeness        float64                `json:"completeness"`
	GrowthDataAvailable bool                   `json:"growth_data_available"`
	ComputedAt          time.Time              `json:"computed_at"`
}

// Ratio returns the named ratio, nil when missing
func (r *RatioRecord) Ratio(name RatioName) *float64 {
	if r.Ratios == nil {
		return nil
	}
	return r.Ratios[name]
}

// CategoryScore returns the named category score, nil when missing
func (r *RatioRecord) CategoryScore(c Category) *float64 {
	if r.CategoryScores == nil {
		return nil
	}
	return r.CategoryScores[c]
}

// Key returns the record's period key
func (r *RatioRecord) Key() PeriodKey {
	return PeriodKey{CompanyID: r.CompanyID, FiscalYear: r.FiscalYear, Quarter: r.Quarter}
}

// SubIndexName names one of the four composite components
type SubIndexName string

const (
	SubIndexCEI SubIndexName = "CEI" // Capital Efficiency
	SubIndexRII SubIndexName = "RII" // Reinvestment Intensity
	SubIndexCGI SubIndexName = "CGI" // Cash Generation
	SubIndexMAI SubIndexName = "MAI" // Management Accountability
)

// SubIndexNames lists the sub-indices in canonical vector order.
// Weight vectors and optimizer samples use the same order.
var SubIndexNames = []SubIndexName{SubIndexCEI, SubIndexCGI, SubIndexRII, SubIndexMAI}

// SubIndices holds the four 0-100 component scores
type SubIndices struct {
	CEI *float64 `json:"cei"`
	CGI *float64 `json:"cgi"`
	RII *float64 `json:"rii"`
	MAI *float64 `json:"mai"`
}

// Vector returns the sub-indices in SubIndexNames order
func (s SubIndices) Vector() [4]*float64 {
	return [4]*float64{s.CEI, s.CGI, s.RII, s.MAI}
}

// SubIndicesFromVector builds SubIndices from a SubIndexNames-ordered vector
func SubIndicesFromVector(v [4]float64) SubIndices {
	return SubIndices{CEI: &v[0], CGI: &v[1], RII: &v[2], MAI: &v[3]}
}

// Present counts non-nil sub-indices
func (s SubIndices) Present() int {
	n := 0
	for _, v := range s.Vector() {
		if v != nil {
			n++
		}
	}
	return n
}

// DerivedMetrics are secondary capital-allocation ratios, all optional
type DerivedMetrics struct {
	InvestmentGap         *float64 `json:"investment_gap"`
	IdleCashRatio         *float64 `json:"idle_cash_ratio"`
	ReinvestmentRate      *float64 `json:"reinvestment_rate"`
	PriorReinvestmentRate *float64 `json:"prior_reinvestment_rate,omitempty"`
	ShareholderReturn     *float64 `json:"shareholder_return"`
}

// Flag is a warning code attached to a composite score
type Flag string

// CompositeScoreRecord is the persisted composite result for one company-year
// ⭐ SSOT: 종합 점수 레코드 (Auditor 재계산 대상)
type CompositeScoreRecord struct {
	CompanyID        string         `json:"company_id"`
	CompanyName      string         `json:"company_name,omitempty"`
	FiscalYear       int            `json:"fiscal_year"`
	SubIndices       SubIndices     `json:"sub_indices"`
	CompositeScore   *float64       `json:"composite_score"`
	Grade            string         `json:"grade"`
	ScenarioName     string         `json:"scenario_name"`
	ScenarioVersion  int            `json:"scenario_version"`
	Derived          DerivedMetrics `json:"derived"`
	RedFlags         []Flag         `json:"red_flags"`
	YellowFlags      []Flag         `json:"yellow_flags"`
	Verdict          string         `json:"verdict"`
	Recommendation   string         `json:"recommendation"`
	WatchTrigger     string         `json:"watch_trigger"`
	NetworkRiskScore float64        `json:"network_risk_score"`
	NetworkRiskLevel string         `json:"network_risk_level"`
	Completeness     float64        `json:"completeness"`
	ComputedAt       time.Time      `json:"computed_at"`
}

// ScoreCorrection is one audited composite overwrite. Flags and decision
// text are carried so the healed row stays consistent with its grade.
type ScoreCorrection struct {
	CompanyID       string
	FiscalYear      int
	CompositeScore  float64
	Grade           string
	ScenarioName    string
	ScenarioVersion int
	RedFlags        []Flag
	YellowFlags     []Flag
	Verdict         string
	Recommendation  string
	WatchTrigger    string
}
