// Package backtest evaluates a weight scenario against failure labels,
// grade stability, grade spread and a baseline scenario.
package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/index"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/internal/stats"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// ScoreReader reads stored composite records of one fiscal year
type ScoreReader interface {
	ListCompositeScores(ctx context.Context, fiscalYear int) ([]contracts.CompositeScoreRecord, error)
}

// OutcomeReader returns company → failed
type OutcomeReader interface {
	Outcomes(ctx context.Context, minConfidence float64) (map[string]bool, error)
}

// Engine runs scenario backtests
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	scores   ScoreReader
	outcomes OutcomeReader
	registry *scenario.Registry
	logger   *logger.Logger
	now      func() time.Time
}

// Config holds backtest configuration
type Config struct {
	Scenario      *scenario.WeightScenario
	Baseline      *scenario.WeightScenario // optional
	FiscalYear    int
	PriorYear     int // stability vintage, 0 = FiscalYear-1
	MinConfidence float64
	Criteria      Criteria
}

// Input is an in-memory backtest sample
type Input struct {
	Current  []contracts.CompositeScoreRecord
	Prior    []contracts.CompositeScoreRecord
	Outcomes map[string]bool
}

// Result holds backtest results
type Result struct {
	ScenarioID string    `json:"scenario_id"`
	BaselineID string    `json:"baseline_id,omitempty"`
	FiscalYear int       `json:"fiscal_year"`
	PriorYear  int       `json:"prior_year"`
	RanAt      time.Time `json:"ran_at"`

	// Classification ("low score ⇒ failure")
	Samples           int             `json:"samples"`
	Positives         int             `json:"positives"`
	Confusion         stats.Confusion `json:"confusion"`
	Precision         float64         `json:"precision"`
	Recall            float64         `json:"recall"`
	F1                float64         `json:"f1"`
	FalsePositiveRate float64         `json:"false_positive_rate"`

	// Distribution
	Stability         *float64       `json:"stability"`
	StabilityPairs    int            `json:"stability_pairs"`
	Entropy           float64        `json:"entropy"`
	GradeDistribution map[string]int `json:"grade_distribution"`
	Correlation       *float64       `json:"correlation"`

	Criteria Criteria       `json:"criteria"`
	Metrics  []MetricResult `json:"metrics"`
	Pass     bool           `json:"pass"`
	Failures []string       `json:"failures"`
}

// NewEngine creates a backtest engine. registry may be nil (nothing is pinned).
func NewEngine(scores ScoreReader, outcomes OutcomeReader, registry *scenario.Registry, log *logger.Logger) *Engine {
	return &Engine{
		scores:   scores,
		outcomes: outcomes,
		registry: registry,
		logger:   log.WithField("module", "backtest"),
		now:      time.Now,
	}
}

// Run loads both vintages and the labels, pins the scenario and evaluates it
func (e *Engine) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Scenario == nil {
		return nil, fmt.Errorf("backtest: scenario is required")
	}
	if cfg.PriorYear == 0 {
		cfg.PriorYear = cfg.FiscalYear - 1
	}

	e.logger.WithFields(map[string]interface{}{
		"scenario":   cfg.Scenario.ID(),
		"year":       cfg.FiscalYear,
		"prior_year": cfg.PriorYear,
	}).Info("Starting backtest")

	// 백테스트에 사용된 시나리오는 불변으로 고정
	if e.registry != nil {
		if err := e.registry.Reference(ctx, cfg.Scenario); err != nil {
			return nil, err
		}
		if cfg.Baseline != nil {
			if err := e.registry.Reference(ctx, cfg.Baseline); err != nil {
				return nil, err
			}
		}
	}

	current, err := e.scores.ListCompositeScores(ctx, cfg.FiscalYear)
	if err != nil {
		return nil, fmt.Errorf("load scores %d: %w", cfg.FiscalYear, err)
	}
	prior, err := e.scores.ListCompositeScores(ctx, cfg.PriorYear)
	if err != nil {
		return nil, fmt.Errorf("load scores %d: %w", cfg.PriorYear, err)
	}
	outcomes, err := e.outcomes.Outcomes(ctx, cfg.MinConfidence)
	if err != nil {
		return nil, fmt.Errorf("load outcomes: %w", err)
	}

	res := e.Evaluate(Input{Current: current, Prior: prior, Outcomes: outcomes}, cfg)

	e.logger.WithFields(map[string]interface{}{
		"scenario":   res.ScenarioID,
		"samples":    res.Samples,
		"f1":         fmt.Sprintf("%.3f", res.F1),
		"entropy":    fmt.Sprintf("%.3f", res.Entropy),
		"pass":       res.Pass,
		"violations": len(res.Failures),
	}).Info("Backtest completed")

	return res, nil
}

// Evaluate computes every metric over an in-memory sample. Composites are
// recomputed from stored sub-indices under cfg.Scenario (and cfg.Baseline).
func (e *Engine) Evaluate(in Input, cfg Config) *Result {
	crit := cfg.Criteria
	if crit == (Criteria{}) {
		crit = DefaultCriteria()
	}
	res := &Result{
		ScenarioID:        cfg.Scenario.ID(),
		FiscalYear:        cfg.FiscalYear,
		PriorYear:         cfg.PriorYear,
		RanAt:             e.now(),
		GradeDistribution: make(map[string]int),
		Criteria:          crit,
	}

	grades := cfg.Scenario.Grades()
	currentGrades := make(map[string]string, len(in.Current))
	var scoresA, scoresB []float64

	for i := range in.Current {
		rec := &in.Current[i]
		score, grade := index.Recompute(rec, cfg.Scenario)
		if score == nil {
			continue
		}

		failed := in.Outcomes[rec.CompanyID]
		res.Samples++
		if failed {
			res.Positives++
		}
		res.Confusion.Add(*score < crit.FailureCutoff, failed)
		res.GradeDistribution[grade]++
		currentGrades[rec.CompanyID] = grade

		if cfg.Baseline != nil {
			if base, _ := index.Recompute(rec, cfg.Baseline); base != nil {
				scoresA = append(scoresA, *score)
				scoresB = append(scoresB, *base)
			}
		}
	}

	res.Precision = res.Confusion.Precision()
	res.Recall = res.Confusion.Recall()
	res.F1 = res.Confusion.F1()
	res.FalsePositiveRate = res.Confusion.FalsePositiveRate()
	res.Entropy = stats.Entropy(res.GradeDistribution)

	// 등급 안정성: 두 시점 모두 등급이 있는 기업만
	stable := 0
	for i := range in.Prior {
		rec := &in.Prior[i]
		cur, ok := currentGrades[rec.CompanyID]
		if !ok {
			continue
		}
		_, prevGrade := index.Recompute(rec, cfg.Scenario)
		if prevGrade == "" {
			continue
		}
		res.StabilityPairs++
		if abs(grades.Rank(cur)-grades.Rank(prevGrade)) <= crit.MaxBandShift {
			stable++
		}
	}
	if res.StabilityPairs > 0 {
		v := float64(stable) / float64(res.StabilityPairs)
		res.Stability = &v
	}

	if cfg.Baseline != nil {
		res.BaselineID = cfg.Baseline.ID()
		if r, ok := stats.Pearson(scoresA, scoresB); ok {
			res.Correlation = &r
		}
	}

	crit.check(res)
	return res
}

// Compare runs Evaluate for several scenarios on the same sample, best F1 first
func (e *Engine) Compare(in Input, cfg Config, scenarios []*scenario.WeightScenario) []*Result {
	out := make([]*Result, 0, len(scenarios))
	for _, scn := range scenarios {
		c := cfg
		c.Scenario = scn
		out = append(out, e.Evaluate(in, c))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].F1 > out[j].F1 })
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
