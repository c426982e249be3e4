package batch

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/stats"
)

// maxListed caps the per-company detail kept in a summary
const maxListed = 100

// CompanyIssue is one skipped or failed company-year
type CompanyIssue struct {
	CompanyID  string `json:"company_id"`
	FiscalYear int    `json:"fiscal_year"`
	Reason     string `json:"reason"`
}

// Distribution summarizes the composites written in a run
type Distribution struct {
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// Summary reports one scoring run
type Summary struct {
	RunID      string         `json:"run_id"`
	Scenario   string         `json:"scenario"`
	FiscalYear int            `json:"fiscal_year"`
	DryRun     bool           `json:"dry_run"`
	Total      int            `json:"total"`
	Processed  int            `json:"processed"`
	Skipped    int            `json:"skipped"`
	Errored    int            `json:"errored"`
	Cancelled  int            `json:"cancelled"`
	Clamped    int            `json:"clamped"`
	Chunks     int            `json:"chunks"`
	Grades     map[string]int `json:"grades"`
	Composite  *Distribution  `json:"composite,omitempty"`
	Skips      []CompanyIssue `json:"skips,omitempty"`
	Errors     []CompanyIssue `json:"errors,omitempty"`
	Duration   time.Duration  `json:"duration"`

	scores []float64
}

func newSummary(runID, scenarioID string, opts RunOptions) *Summary {
	return &Summary{
		RunID:      runID,
		Scenario:   scenarioID,
		FiscalYear: opts.FiscalYear,
		DryRun:     opts.DryRun,
		Grades:     make(map[string]int),
	}
}

func (s *Summary) succeed(out outcome) {
	s.Processed++
	s.Clamped += len(out.clamps)
	s.Grades[out.composite.Grade]++
	s.scores = append(s.scores, *out.composite.CompositeScore)
}

func (s *Summary) skip(p contracts.CompanyPeriod, reason string) {
	s.Skipped++
	if len(s.Skips) < maxListed {
		s.Skips = append(s.Skips, CompanyIssue{CompanyID: p.CompanyID, FiscalYear: p.FiscalYear, Reason: reason})
	}
}

func (s *Summary) fail(p contracts.CompanyPeriod, err error) {
	s.Errored++
	if len(s.Errors) < maxListed {
		s.Errors = append(s.Errors, CompanyIssue{CompanyID: p.CompanyID, FiscalYear: p.FiscalYear, Reason: err.Error()})
	}
}

func (s *Summary) finish(d time.Duration) {
	s.Duration = d
	if len(s.scores) == 0 {
		return
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range s.scores {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	s.Composite = &Distribution{
		Min:    lo,
		Mean:   stats.Mean(s.scores),
		Median: stats.Median(s.scores),
		Max:    hi,
	}
}

// ToSummary renders a short text report
func (s *Summary) ToSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s, FY%d)", s.RunID, s.Scenario, s.FiscalYear)
	if s.DryRun {
		b.WriteString(" [dry-run]")
	}
	fmt.Fprintf(&b, "\n  total %d  processed %d  skipped %d  errored %d  cancelled %d  clamped %d\n",
		s.Total, s.Processed, s.Skipped, s.Errored, s.Cancelled, s.Clamped)

	if s.Composite != nil {
		fmt.Fprintf(&b, "  composite min %.1f  mean %.1f  median %.1f  max %.1f\n",
			s.Composite.Min, s.Composite.Mean, s.Composite.Median, s.Composite.Max)
	}

	if len(s.Grades) > 0 {
		grades := make([]string, 0, len(s.Grades))
		for g := range s.Grades {
			grades = append(grades, g)
		}
		sort.Strings(grades)
		b.WriteString("  grades")
		for _, g := range grades {
			fmt.Fprintf(&b, "  %s:%d", g, s.Grades[g])
		}
		b.WriteString("\n")
	}
	return b.String()
}
