package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/labels"
	"github.com/wonny/aegis-credit/internal/optimizer"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/internal/scheduler/jobs"
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "가중치 최적화",
	Long: `저장된 서브지수 벡터와 부실 라벨로 가중치를 다시 적합합니다.

이 명령어는:
- 판별비(|평균차| / 표준편차합) 기반 가중치 적합
- F1 최대화 컷오프 탐색
- k-fold 교차검증
- --emit-name 지정 시 새 시나리오 정의(YAML) 출력

시나리오 파일은 직접 수정하지 않습니다. 출력된 YAML을 검토 후
config/scenarios.yaml 에 새 버전으로 추가하세요.

Example:
  go run ./cmd/credit optimize --year 2024
  go run ./cmd/credit optimize --year 2024 --folds 10 -o json
  go run ./cmd/credit optimize --year 2024 --emit-name credit_index --emit-version 4`,
	RunE: runOptimize,
}

var (
	optimizeYear          int
	optimizeFolds         int
	optimizeMinConfidence float64
	optimizeEmitName      string
	optimizeEmitVersion   int
	optimizeEmitFile      string
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().IntVar(&optimizeYear, "year", 0, "fiscal year of the score vintage (default: latest closed year)")
	optimizeCmd.Flags().IntVar(&optimizeFolds, "folds", 5, "cross-validation folds")
	optimizeCmd.Flags().Float64Var(&optimizeMinConfidence, "min-confidence", 0.7, "label confidence counted as failure")
	optimizeCmd.Flags().StringVar(&optimizeEmitName, "emit-name", "", "emit the fitted weights as scenario <name>")
	optimizeCmd.Flags().IntVar(&optimizeEmitVersion, "emit-version", 1, "version of the emitted scenario")
	optimizeCmd.Flags().StringVar(&optimizeEmitFile, "emit-file", "", "write the emitted scenario here (default: stdout)")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	active, err := a.scenario("")
	if err != nil {
		return err
	}

	year := optimizeYear
	if year == 0 {
		year = jobs.LatestClosedYear(time.Now())
	}

	records, err := a.stores.Scores.ListCompositeScores(ctx, year)
	if err != nil {
		return fmt.Errorf("list composite scores: %w", err)
	}
	outcomes, err := labels.NewStore(a.stores.Labels, a.log).Outcomes(ctx, optimizeMinConfidence)
	if err != nil {
		return err
	}

	samples := optimizer.BuildSamples(records, outcomes)
	if len(samples) == 0 {
		return errors.New("no scored companies with complete sub-index vectors")
	}

	res := optimizer.Optimize(samples, optimizer.Options{Folds: optimizeFolds, Mode: active.Mode()})

	var emitted *scenario.WeightScenario
	if optimizeEmitName != "" {
		emitted, err = res.Scenario(optimizeEmitName, optimizeEmitVersion, active.Grades().Bands())
		if err != nil {
			return fmt.Errorf("build scenario: %w", err)
		}
	}

	if jsonOutput() {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		printOptimizeResult(year, res)
	}

	if emitted != nil {
		return emitScenario(emitted)
	}
	return nil
}

func printOptimizeResult(year int, res *optimizer.Result) {
	PrintHeader("Weight Optimization", [][2]string{
		{"Fiscal year", fmt.Sprintf("%d", year)},
		{"Samples", fmt.Sprintf("%d (%d failed)", res.Samples, res.Failures)},
		{"Mode", string(res.Mode)},
	})

	if res.Fit.Degenerate {
		PrintWarning("Degenerate fit: one class is empty or no dimension separates, uniform weights used")
	}

	widths := []int{6, 10, 10}
	PrintTableHeader([]string{"Index", "Ratio", "Weight"}, widths)
	vec := res.Weights.Vector()
	for i, name := range contracts.SubIndexNames {
		PrintTableRow([]string{string(name), fmt.Sprintf("%.4f", res.Fit.Ratios[i]), fmt.Sprintf("%.4f", vec[i])}, widths)
	}

	fmt.Println()
	PrintKeyValue("Cutoff", fmt.Sprintf("%.2f (F1 %.4f)", res.Threshold.Value, res.Threshold.F1), 10)
	PrintKeyValue("CV", fmt.Sprintf("%d folds, mean F1 %.4f", res.Validation.K, res.Validation.MeanF1), 10)
}

// emitScenario writes scn as a single scenarios[] row
func emitScenario(scn *scenario.WeightScenario) error {
	data, err := yaml.Marshal([]scenario.Definition{scn.Definition()})
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}

	if optimizeEmitFile == "" {
		fmt.Println()
		fmt.Printf("# %s (hash %s)\n", scn.ID(), scn.Hash())
		fmt.Print(string(data))
		return nil
	}

	if err := os.WriteFile(optimizeEmitFile, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", optimizeEmitFile, err)
	}
	if !jsonOutput() {
		PrintSuccess(fmt.Sprintf("Scenario %s written to %s", scn.ID(), optimizeEmitFile))
	}
	return nil
}
