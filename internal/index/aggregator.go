// Package index combines sub-index scores into the composite credit index,
// derives secondary metrics, raises warning flags and selects the verdict.
package index

import (
	"time"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// Input bundles one company-year for aggregation
type Input struct {
	Statement    *contracts.StatementRecord
	Prior        *contracts.StatementRecord // optional
	Ratios       *contracts.RatioRecord
	NetworkScore float64
	NetworkLevel string
}

// Aggregator builds CompositeScoreRecords under one scenario
// ⭐ SSOT: 종합지수 산출은 여기서만
type Aggregator struct {
	scenario   *scenario.WeightScenario
	thresholds FlagThresholds
	decisions  DecisionTable
	logger     *logger.Logger
	now        func() time.Time
}

// NewAggregator creates an aggregator bound to scn
func NewAggregator(scn *scenario.WeightScenario, log *logger.Logger) *Aggregator {
	return &Aggregator{
		scenario:   scn,
		thresholds: DefaultFlagThresholds(),
		decisions:  DefaultDecisionTable,
		logger:     log.WithField("module", "index"),
		now:        time.Now,
	}
}

// Scenario returns the bound scenario
func (a *Aggregator) Scenario() *scenario.WeightScenario {
	return a.scenario
}

// Score builds the composite record. A nil CompositeScore in the result
// means too few sub-indices were available.
func (a *Aggregator) Score(in Input) (*contracts.CompositeScoreRecord, error) {
	if in.Statement == nil || in.Ratios == nil {
		return nil, &contracts.MalformedRecordError{Field: "input", Message: "statement and ratios are required"}
	}

	var priorItems *contracts.LineItems
	if in.Prior != nil {
		priorItems = &in.Prior.Items
	}

	derived := ComputeDerived(&in.Statement.Items, priorItems)
	subs := BuildSubIndices(in.Ratios, derived)
	composite := Aggregate(subs, a.scenario)

	rec := &contracts.CompositeScoreRecord{
		CompanyID:        in.Statement.CompanyID,
		CompanyName:      in.Statement.CompanyName,
		FiscalYear:       in.Statement.FiscalYear,
		SubIndices:       subs,
		CompositeScore:   composite,
		ScenarioName:     a.scenario.Name(),
		ScenarioVersion:  a.scenario.Version(),
		Derived:          derived,
		NetworkRiskScore: in.NetworkScore,
		NetworkRiskLevel: in.NetworkLevel,
		Completeness:     completeness(in.Ratios.Completeness, subs),
		ComputedAt:       a.now(),
	}

	assess(rec, a.scenario, a.thresholds, a.decisions)

	a.logger.WithFields(map[string]interface{}{
		"company":  rec.CompanyID,
		"year":     rec.FiscalYear,
		"grade":    rec.Grade,
		"red":      len(rec.RedFlags),
		"yellow":   len(rec.YellowFlags),
		"scenario": a.scenario.ID(),
	}).Debug("Composite scored")

	return rec, nil
}

// completeness scales the ratio completeness by the share of present sub-indices
func completeness(ratioCompleteness float64, subs contracts.SubIndices) float64 {
	return ratioCompleteness * float64(subs.Present()) / float64(len(contracts.SubIndexNames))
}

// assess fills grade, flags and decision from rec.CompositeScore and the
// stored inputs. Every field that depends on the composite is set here.
func assess(rec *contracts.CompositeScoreRecord, scn *scenario.WeightScenario, th FlagThresholds, table DecisionTable) {
	rec.Grade, rec.Verdict, rec.Recommendation, rec.WatchTrigger = "", "", "", ""
	if rec.CompositeScore != nil {
		rec.Grade = Grade(*rec.CompositeScore, scn)
	}

	rec.RedFlags, rec.YellowFlags = EvaluateFlags(FlagInput{
		Composite:    rec.CompositeScore,
		SubIndices:   rec.SubIndices,
		Derived:      rec.Derived,
		Completeness: rec.Completeness,
		NetworkLevel: rec.NetworkRiskLevel,
	}, th)

	if rec.CompositeScore != nil {
		d := table.Decide(rec.Grade, rec.CompositeScore, scn.Grades(), rec.RedFlags, rec.YellowFlags)
		rec.Verdict, rec.Recommendation, rec.WatchTrigger = d.Verdict, d.Recommendation, d.WatchTrigger
	}
}

// Reassess returns a copy of rec re-scored under scn from its stored
// sub-indices, derived metrics and network level. ok is false when the
// sub-indices cannot produce a composite.
func Reassess(rec contracts.CompositeScoreRecord, scn *scenario.WeightScenario) (contracts.CompositeScoreRecord, bool) {
	v := Aggregate(rec.SubIndices, scn)
	if v == nil {
		return rec, false
	}
	rec.CompositeScore = v
	rec.ScenarioName, rec.ScenarioVersion = scn.Name(), scn.Version()
	assess(&rec, scn, DefaultFlagThresholds(), DefaultDecisionTable)
	return rec, true
}

// Recompute returns the composite and grade rec's stored sub-indices give under scn
func Recompute(rec *contracts.CompositeScoreRecord, scn *scenario.WeightScenario) (*float64, string) {
	v := Aggregate(rec.SubIndices, scn)
	if v == nil {
		return nil, ""
	}
	return v, Grade(*v, scn)
}
