package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/batch"
	"github.com/wonny/aegis-credit/internal/scheduler/jobs"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "배치 스코어링",
	Long: `재무 비율, 네트워크 위험, 합성 점수를 계산하고 저장합니다.

Subcommands:
  run  - 한 회계연도 전체(또는 일부 기업) 스코어링

Example:
  go run ./cmd/credit score run --year 2024
  go run ./cmd/credit score run --year 2024 --company 005930,000660 --dry-run`,
}

var scoreRunCmd = &cobra.Command{
	Use:   "run",
	Short: "스코어링 배치 실행",
	Long: `연간 재무제표를 읽어 기업별로 병렬 스코어링하고 청크 단위로 저장합니다.

이 명령어는:
- 시나리오 로드 및 지문 검증 (참조된 시나리오가 바뀌었으면 중단)
- 기업별 비율 → 서브지수 → 합성 점수 → 등급 계산
- 데이터 부족(완전성 미달) 기업은 저장하지 않고 건너뜀
- --dry-run 이면 아무것도 저장하지 않음

Ctrl+C 시 진행 중인 청크까지 기록하고 종료합니다.`,
	RunE: runScore,
}

var (
	scoreYear      int
	scoreCompanies []string
	scoreLimit     int
	scoreDryRun    bool
	scoreWorkers   int
	scoreScenario  string
)

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.AddCommand(scoreRunCmd)

	scoreRunCmd.Flags().IntVar(&scoreYear, "year", 0, "fiscal year (default: latest closed year)")
	scoreRunCmd.Flags().StringSliceVar(&scoreCompanies, "company", nil, "company ids (comma separated)")
	scoreRunCmd.Flags().IntVar(&scoreLimit, "limit", 0, "max companies (0 = all)")
	scoreRunCmd.Flags().BoolVar(&scoreDryRun, "dry-run", false, "compute without persisting")
	scoreRunCmd.Flags().IntVar(&scoreWorkers, "workers", 0, "worker count (default: SCORE_WORKERS)")
	scoreRunCmd.Flags().StringVar(&scoreScenario, "scenario", "", "scenario id name@version (default: active)")
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	scn, err := a.scenario(scoreScenario)
	if err != nil {
		return err
	}
	if err := a.registry().Verify(ctx, scn); err != nil {
		return err
	}

	year := scoreYear
	if year == 0 {
		year = jobs.LatestClosedYear(time.Now())
	}

	if !jsonOutput() {
		PrintHeader("Scoring Run", [][2]string{
			{"Scenario", scn.ID()},
			{"Fiscal year", fmt.Sprintf("%d", year)},
			{"Store", a.cfg.Store.Driver},
			{"Dry run", fmt.Sprintf("%v", scoreDryRun)},
		})
	}

	summary, runErr := a.runner(scn, scoreWorkers).Run(ctx, batch.RunOptions{
		FiscalYear: year,
		CompanyIDs: scoreCompanies,
		Limit:      scoreLimit,
		DryRun:     scoreDryRun,
	})

	if jsonOutput() {
		if err := printJSON(summary); err != nil {
			return err
		}
		return runErr
	}

	printScoreSummary(summary, scn.Grades().Labels())
	if runErr != nil {
		PrintError(runErr.Error())
		return runErr
	}
	PrintCompletion("Scoring run "+summary.RunID, summary.Duration)
	return nil
}

func printScoreSummary(s *batch.Summary, grades []string) {
	const w = 12
	fmt.Println()
	PrintKeyValue("Run", s.RunID, w)
	PrintKeyValue("Companies", fmt.Sprintf("%d", s.Total), w)
	PrintKeyValue("Processed", fmt.Sprintf("%d", s.Processed), w)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", s.Skipped), w)
	PrintKeyValue("Errored", fmt.Sprintf("%d", s.Errored), w)
	if s.Cancelled > 0 {
		PrintKeyValue("Cancelled", fmt.Sprintf("%d", s.Cancelled), w)
	}
	PrintKeyValue("Clamped", fmt.Sprintf("%d", s.Clamped), w)
	PrintKeyValue("Chunks", fmt.Sprintf("%d", s.Chunks), w)
	PrintKeyValue("Grades", formatCounts(grades, s.Grades), w)
	if d := s.Composite; d != nil {
		PrintKeyValue("Composite", fmt.Sprintf("min %.2f / mean %.2f / median %.2f / max %.2f", d.Min, d.Mean, d.Median, d.Max), w)
	}

	if len(s.Errors) > 0 {
		PrintWarning(fmt.Sprintf("%d companies failed", s.Errored))
		items := make([]string, 0, len(s.Errors))
		for _, e := range s.Errors {
			items = append(items, fmt.Sprintf("%s/%d: %s", e.CompanyID, e.FiscalYear, e.Reason))
		}
		PrintList(items)
	}
	if verbose && len(s.Skips) > 0 {
		fmt.Println()
		PrintInfo("Skipped (insufficient data):")
		ids := make([]string, 0, len(s.Skips))
		for _, sk := range s.Skips {
			ids = append(ids, sk.CompanyID+" ("+sk.Reason+")")
		}
		fmt.Println("   " + strings.Join(ids, ", "))
	}
}
