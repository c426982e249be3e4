package labels

import (
	"fmt"
	"sort"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/ratio"
)

// Financial screen parameters
const (
	CapitalImpairmentConfidence = 0.8
	ZombieConfidence            = 0.6
	ZombieYears                 = 3   // consecutive fiscal years
	ZombieCoverage              = 1.0 // interest coverage below this
)

// ScreenFinancial labels a company's annual statement history.
// Negative total equity gives CAPITAL_IMPAIRMENT for that year; interest
// coverage below 1 for ZombieYears consecutive years gives one ZOMBIE label
// dated at the year the streak reaches ZombieYears.
func ScreenFinancial(history []contracts.StatementRecord) []contracts.FailureLabel {
	annual := make([]contracts.StatementRecord, 0, len(history))
	for _, s := range history {
		if s.Quarter == 0 {
			annual = append(annual, s)
		}
	}
	sort.Slice(annual, func(i, j int) bool { return annual[i].FiscalYear < annual[j].FiscalYear })

	coverage, _ := ratio.Lookup(ratio.InterestCoverage)

	var out []contracts.FailureLabel
	streak, lastYear := 0, 0
	for _, s := range annual {
		if eq := s.Items.TotalEquity; eq != nil && *eq < 0 {
			out = append(out, contracts.FailureLabel{
				CompanyID:   s.CompanyID,
				FailureType: contracts.FailureCapitalImpairment,
				Evidence:    fmt.Sprintf("total_equity %.0f in FY%d", *eq, s.FiscalYear),
				Confidence:  CapitalImpairmentConfidence,
				Date:        yearEnd(s.FiscalYear),
				Source:      contracts.SourceFinancial,
			})
		}

		icr := coverage.Compute(&s.Items, nil)
		switch {
		case icr == nil || *icr >= ZombieCoverage:
			streak = 0
		case streak > 0 && s.FiscalYear == lastYear+1:
			streak++
		default:
			streak = 1
		}
		lastYear = s.FiscalYear

		if streak == ZombieYears {
			out = append(out, contracts.FailureLabel{
				CompanyID:   s.CompanyID,
				FailureType: contracts.FailureZombie,
				Evidence:    fmt.Sprintf("interest coverage < %.0f for FY%d-FY%d", ZombieCoverage, s.FiscalYear-ZombieYears+1, s.FiscalYear),
				Confidence:  ZombieConfidence,
				Date:        yearEnd(s.FiscalYear),
				Source:      contracts.SourceFinancial,
			})
		}
	}
	return out
}
