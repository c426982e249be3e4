package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/backtest"
	"github.com/wonny/aegis-credit/internal/labels"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/internal/scheduler/jobs"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "시나리오 백테스트",
	Long: `저장된 서브지수를 시나리오 가중치로 재합성해 부실 라벨과 비교합니다.

Subcommands:
  run      - 한 시나리오 평가 (정밀도/재현율/F1/FPR, 등급 안정성, 엔트로피, 기준선 상관)
  compare  - 시나리오 파일의 전체 시나리오를 같은 표본으로 비교

run 은 평가한 시나리오(와 기준선)를 참조로 기록합니다.
참조된 시나리오는 이후 정의를 바꿀 수 없습니다.

Example:
  go run ./cmd/credit backtest run --year 2024
  go run ./cmd/credit backtest run --scenario credit_index@2 --baseline none
  go run ./cmd/credit backtest compare --year 2024`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "백테스트 실행",
		RunE:  runBacktest,
	}

	backtestCompareCmd = &cobra.Command{
		Use:   "compare",
		Short: "전체 시나리오 비교",
		RunE:  runBacktestCompare,
	}
)

var (
	btScenario      string
	btBaseline      string
	btYear          int
	btPriorYear     int
	btMinConfidence float64
	btCutoff        float64
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestCompareCmd)

	for _, c := range []*cobra.Command{backtestRunCmd, backtestCompareCmd} {
		c.Flags().IntVar(&btYear, "year", 0, "fiscal year (default: latest closed year)")
		c.Flags().IntVar(&btPriorYear, "prior-year", 0, "stability vintage (default: year-1)")
		c.Flags().Float64Var(&btMinConfidence, "min-confidence", 0.7, "label confidence counted as failure")
		c.Flags().Float64Var(&btCutoff, "cutoff", backtest.DefaultCriteria().FailureCutoff, "composite below this predicts failure")
	}
	backtestRunCmd.Flags().StringVar(&btScenario, "scenario", "", "scenario id (default: active)")
	backtestRunCmd.Flags().StringVar(&btBaseline, "baseline", "", "baseline id, 'none' to skip (default: file baseline)")
}

// backtestConfig resolves the shared flags
func backtestConfig(cat *scenario.Catalog) (backtest.Config, error) {
	year := btYear
	if year == 0 {
		year = jobs.LatestClosedYear(time.Now())
	}

	crit := backtest.DefaultCriteria()
	crit.FailureCutoff = btCutoff

	cfg := backtest.Config{
		FiscalYear:    year,
		PriorYear:     btPriorYear,
		MinConfidence: btMinConfidence,
		Criteria:      crit,
	}

	switch btBaseline {
	case "none":
	case "":
		cfg.Baseline = cat.Baseline()
	default:
		base, err := cat.Get(btBaseline)
		if err != nil {
			return cfg, err
		}
		cfg.Baseline = base
	}
	return cfg, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	cat, err := a.catalog()
	if err != nil {
		return err
	}
	cfg, err := backtestConfig(cat)
	if err != nil {
		return err
	}
	id := btScenario
	if id == "" {
		id = a.cfg.Scoring.ActiveScenario
	}
	if cfg.Scenario, err = cat.Resolve(id); err != nil {
		return err
	}
	// 자기 자신과의 상관은 의미 없음
	if cfg.Baseline != nil && cfg.Baseline.ID() == cfg.Scenario.ID() {
		cfg.Baseline = nil
	}

	outcomes := labels.NewStore(a.stores.Labels, a.log)
	engine := backtest.NewEngine(a.stores.Scores, outcomes, a.registry(), a.log)

	res, err := engine.Run(ctx, cfg)
	if err != nil {
		return err
	}

	if jsonOutput() {
		return printJSON(res)
	}
	printBacktestResult(res, cfg.Scenario.Grades().Labels())
	return nil
}

func runBacktestCompare(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	cat, err := a.catalog()
	if err != nil {
		return err
	}
	btBaseline = ""
	cfg, err := backtestConfig(cat)
	if err != nil {
		return err
	}
	if cfg.PriorYear == 0 {
		cfg.PriorYear = cfg.FiscalYear - 1
	}

	current, err := a.stores.Scores.ListCompositeScores(ctx, cfg.FiscalYear)
	if err != nil {
		return fmt.Errorf("load scores %d: %w", cfg.FiscalYear, err)
	}
	prior, err := a.stores.Scores.ListCompositeScores(ctx, cfg.PriorYear)
	if err != nil {
		return fmt.Errorf("load scores %d: %w", cfg.PriorYear, err)
	}
	outcomes, err := labels.NewStore(a.stores.Labels, a.log).Outcomes(ctx, cfg.MinConfidence)
	if err != nil {
		return err
	}

	// 비교는 기록하지 않음 (registry nil)
	engine := backtest.NewEngine(a.stores.Scores, nil, nil, a.log)
	results := engine.Compare(backtest.Input{Current: current, Prior: prior, Outcomes: outcomes}, cfg, cat.List())

	if jsonOutput() {
		return printJSON(results)
	}

	PrintHeader("Scenario Comparison", [][2]string{
		{"Fiscal year", fmt.Sprintf("%d", cfg.FiscalYear)},
		{"Prior year", fmt.Sprintf("%d", cfg.PriorYear)},
		{"Cutoff", fmt.Sprintf("%.1f", cfg.Criteria.FailureCutoff)},
	})
	widths := []int{22, 8, 8, 8, 8, 8, 8, 6}
	PrintTableHeader([]string{"Scenario", "Prec", "Recall", "F1", "FPR", "Stable", "Entropy", "Pass"}, widths)
	for _, r := range results {
		PrintTableRow([]string{
			r.ScenarioID,
			fmt.Sprintf("%.3f", r.Precision),
			fmt.Sprintf("%.3f", r.Recall),
			fmt.Sprintf("%.3f", r.F1),
			fmt.Sprintf("%.3f", r.FalsePositiveRate),
			formatOptional(r.Stability),
			fmt.Sprintf("%.2f", r.Entropy),
			passMark(r.Pass),
		}, widths)
	}
	return nil
}

func printBacktestResult(r *backtest.Result, grades []string) {
	fields := [][2]string{
		{"Scenario", r.ScenarioID},
		{"Fiscal year", fmt.Sprintf("%d (prior %d)", r.FiscalYear, r.PriorYear)},
		{"Samples", fmt.Sprintf("%d (%d failed)", r.Samples, r.Positives)},
	}
	if r.Samples > 0 {
		fields = append(fields, [2]string{"Failure rate", formatRatio(float64(r.Positives) / float64(r.Samples))})
	}
	if r.BaselineID != "" {
		fields = append(fields, [2]string{"Baseline", r.BaselineID})
	}
	PrintHeader("Backtest", fields)

	widths := []int{22, 10, 12, 6}
	PrintTableHeader([]string{"Metric", "Value", "Threshold", "Pass"}, widths)
	for _, m := range r.Metrics {
		PrintTableRow([]string{
			m.Metric,
			formatOptional(m.Value),
			fmt.Sprintf("%s %.3f", m.Op, m.Threshold),
			passMark(m.Pass),
		}, widths)
	}

	fmt.Println()
	const w = 12
	PrintKeyValue("Pairs", fmt.Sprintf("%d stability pairs", r.StabilityPairs), w)
	PrintKeyValue("Grades", formatCounts(grades, r.GradeDistribution), w)

	fmt.Println()
	if r.Pass {
		PrintSuccess("All acceptance criteria met")
		return
	}
	PrintError(fmt.Sprintf("%d criteria failed", len(r.Failures)))
	PrintList(r.Failures)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}

func passMark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
