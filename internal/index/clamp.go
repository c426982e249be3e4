package index

import (
	"github.com/wonny/aegis-credit/internal/contracts"
)

// Destination column ranges (NUMERIC precision of the score tables)
const (
	ScoreMin   = 0.0
	ScoreMax   = 100.0
	MetricMin  = -99999999.99
	MetricMax  = 99999999.99
	NetworkMin = 0.0
	NetworkMax = 1.0
)

// ClampEvent records one value forced into its column range
type ClampEvent struct {
	CompanyID  string  `json:"company_id"`
	FiscalYear int     `json:"fiscal_year"`
	Column     string  `json:"column"`
	Original   float64 `json:"original"`
	Clamped    float64 `json:"clamped"`
}

type clamper struct {
	companyID string
	year      int
	events    []ClampEvent
}

func (c *clamper) clamp(column string, v *float64, lo, hi float64) {
	if v == nil {
		return
	}
	orig := *v
	switch {
	case orig < lo:
		*v = lo
	case orig > hi:
		*v = hi
	default:
		return
	}
	c.events = append(c.events, ClampEvent{
		CompanyID:  c.companyID,
		FiscalYear: c.year,
		Column:     column,
		Original:   orig,
		Clamped:    *v,
	})
}

// ClampComposite forces rec's persisted numerics into their column
// ranges in place and returns one event per adjusted value.
func ClampComposite(rec *contracts.CompositeScoreRecord) []ClampEvent {
	c := &clamper{companyID: rec.CompanyID, year: rec.FiscalYear}

	c.clamp("composite_score", rec.CompositeScore, ScoreMin, ScoreMax)
	c.clamp("cei", rec.SubIndices.CEI, ScoreMin, ScoreMax)
	c.clamp("cgi", rec.SubIndices.CGI, ScoreMin, ScoreMax)
	c.clamp("rii", rec.SubIndices.RII, ScoreMin, ScoreMax)
	c.clamp("mai", rec.SubIndices.MAI, ScoreMin, ScoreMax)
	c.clamp("investment_gap", rec.Derived.InvestmentGap, MetricMin, MetricMax)
	c.clamp("idle_cash_ratio", rec.Derived.IdleCashRatio, MetricMin, MetricMax)
	c.clamp("reinvestment_rate", rec.Derived.ReinvestmentRate, MetricMin, MetricMax)
	c.clamp("prior_reinvestment_rate", rec.Derived.PriorReinvestmentRate, MetricMin, MetricMax)
	c.clamp("shareholder_return", rec.Derived.ShareholderReturn, MetricMin, MetricMax)
	c.clamp("network_risk_score", &rec.NetworkRiskScore, NetworkMin, NetworkMax)

	return c.events
}

// ClampRatio does the same for a RatioRecord
func ClampRatio(rec *contracts.RatioRecord) []ClampEvent {
	c := &clamper{companyID: rec.CompanyID, year: rec.FiscalYear}

	c.clamp("health_score", rec.HealthScore, ScoreMin, ScoreMax)
	for _, cat := range contracts.Categories {
		c.clamp(string(cat)+"_score", rec.CategoryScores[cat], ScoreMin, ScoreMax)
	}
	for name, v := range rec.Ratios {
		c.clamp(string(name), v, MetricMin, MetricMax)
	}

	return c.events
}
