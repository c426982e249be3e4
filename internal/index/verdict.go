package index

import (
	"fmt"
	"strings"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/grading"
)

// FlagPresence is a decision-table match condition on a flag list
type FlagPresence int

const (
	AnyFlags FlagPresence = iota
	WithFlags
	WithoutFlags
)

func (p FlagPresence) matches(flags []contracts.Flag) bool {
	switch p {
	case WithFlags:
		return len(flags) > 0
	case WithoutFlags:
		return len(flags) == 0
	}
	return true
}

// DecisionRow is one row of the verdict table. Empty Grades matches any grade.
// Templates accept {grade}, {score}, {floor} and {flags}.
type DecisionRow struct {
	Grades         []string
	Red            FlagPresence
	Yellow         FlagPresence
	Verdict        string
	Recommendation string
	WatchTrigger   string
}

func (r DecisionRow) matches(grade string, red, yellow []contracts.Flag) bool {
	if len(r.Grades) > 0 {
		found := false
		for _, g := range r.Grades {
			if g == grade {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return r.Red.matches(red) && r.Yellow.matches(yellow)
}

// DecisionTable selects verdict text by (grade, flag set); first match wins
type DecisionTable []DecisionRow

// DefaultDecisionTable is the standard verdict table. The last row matches everything.
var DefaultDecisionTable = DecisionTable{
	{
		Grades: []string{"D", "F"}, Red: WithFlags,
		Verdict:        "Distressed ({grade}, {score}) with red flags: {flags}",
		Recommendation: "Exclude from new exposure and escalate for credit review",
		WatchTrigger:   "Any default or delisting disclosure",
	},
	{
		Red:            WithFlags,
		Verdict:        "Grade {grade} ({score}) overridden by red flags: {flags}",
		Recommendation: "Hold exposure until the flagged items are verified",
		WatchTrigger:   "Red flags persist into the next period",
	},
	{
		Grades: []string{"A+", "A"}, Yellow: WithoutFlags,
		Verdict:        "Strong financial health ({grade}, {score})",
		Recommendation: "Maintain",
		WatchTrigger:   "Composite falls below {floor}",
	},
	{
		Grades: []string{"A+", "A", "B+", "B"}, Yellow: WithFlags,
		Verdict:        "Sound ({grade}, {score}) with caveats: {flags}",
		Recommendation: "Maintain and monitor the flagged items",
		WatchTrigger:   "Any caveat escalates to a red flag",
	},
	{
		Grades:         []string{"B+", "B"},
		Verdict:        "Sound financial health ({grade}, {score})",
		Recommendation: "Maintain with periodic review",
		WatchTrigger:   "Composite falls below {floor}",
	},
	{
		Grades:         []string{"C+", "C"},
		Verdict:        "Weak financial health ({grade}, {score})",
		Recommendation: "Reduce exposure and request updated statements",
		WatchTrigger:   "Composite falls below {floor}",
	},
	{
		Verdict:        "Distressed or unclassified ({grade}, {score})",
		Recommendation: "Exclude from new exposure",
		WatchTrigger:   "Composite recovers above 40",
	},
}

// Decision is the filled-in verdict text
type Decision struct {
	Verdict        string
	Recommendation string
	WatchTrigger   string
}

// Decide returns the first matching row rendered for this record
func (t DecisionTable) Decide(grade string, score *float64, grades grading.Table, red, yellow []contracts.Flag) Decision {
	for _, row := range t {
		if !row.matches(grade, red, yellow) {
			continue
		}

		scoreText := "n/a"
		if score != nil {
			scoreText = fmt.Sprintf("%.1f", *score)
		}
		floorText := "n/a"
		if floor, ok := grades.Floor(grade); ok {
			floorText = fmt.Sprintf("%.0f", floor)
		}
		all := append(append([]contracts.Flag{}, red...), yellow...)
		names := make([]string, len(all))
		for i, f := range all {
			names[i] = string(f)
		}

		rep := strings.NewReplacer(
			"{grade}", grade,
			"{score}", scoreText,
			"{floor}", floorText,
			"{flags}", strings.Join(names, ", "),
		)
		return Decision{
			Verdict:        rep.Replace(row.Verdict),
			Recommendation: rep.Replace(row.Recommendation),
			WatchTrigger:   rep.Replace(row.WatchTrigger),
		}
	}
	return Decision{}
}
