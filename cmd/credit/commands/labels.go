package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/labels"
	"github.com/wonny/aegis-credit/internal/scheduler/jobs"
)

// labelsCmd represents the labels command
var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "부실 라벨 관리",
	Long: `공시 제목과 재무제표 이력에서 부실 라벨을 생성/조회합니다.

Subcommands:
  build  - 한 회계연도의 공시/재무 스크린 실행 후 라벨 추가
  list   - 저장된 라벨 조회

Example:
  go run ./cmd/credit labels build --year 2024
  go run ./cmd/credit labels list --company 005930
  go run ./cmd/credit labels list --min-confidence 0.8`,
}

var (
	labelsBuildCmd = &cobra.Command{
		Use:   "build",
		Short: "라벨 생성",
		RunE:  runLabelsBuild,
	}

	labelsListCmd = &cobra.Command{
		Use:   "list",
		Short: "라벨 조회",
		RunE:  runLabelsList,
	}
)

var (
	labelsYear          int
	labelsCompany       string
	labelsMinConfidence float64
)

func init() {
	rootCmd.AddCommand(labelsCmd)
	labelsCmd.AddCommand(labelsBuildCmd)
	labelsCmd.AddCommand(labelsListCmd)

	labelsBuildCmd.Flags().IntVar(&labelsYear, "year", 0, "fiscal year (default: latest closed year)")
	labelsListCmd.Flags().StringVar(&labelsCompany, "company", "", "company id (default: all)")
	labelsListCmd.Flags().Float64Var(&labelsMinConfidence, "min-confidence", 0, "hide labels below this confidence")
}

func runLabelsBuild(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	year := labelsYear
	if year == 0 {
		year = jobs.LatestClosedYear(time.Now())
	}

	start := time.Now()
	store := labels.NewStore(a.stores.Labels, a.log)
	builder := labels.NewBuilder(a.stores.Disclosures, a.stores.Statements, store, a.log)

	summary, err := builder.Build(ctx, year)
	if err != nil {
		return fmt.Errorf("build labels: %w", err)
	}

	if jsonOutput() {
		return printJSON(summary)
	}

	PrintHeader("Failure Labels", [][2]string{
		{"Fiscal year", fmt.Sprintf("%d", summary.FiscalYear)},
		{"Disclosures", fmt.Sprintf("%d", summary.Disclosures)},
		{"Companies", fmt.Sprintf("%d", summary.Companies)},
	})
	PrintKeyValue("Found", fmt.Sprintf("%d", summary.Found), 10)
	PrintKeyValue("Inserted", fmt.Sprintf("%d", summary.Inserted), 10)

	types := make([]string, 0, len(summary.ByType))
	counts := make(map[string]int, len(summary.ByType))
	for t, n := range summary.ByType {
		types = append(types, string(t))
		counts[string(t)] = n
	}
	sort.Strings(types)
	PrintKeyValue("By type", formatCounts(types, counts), 10)

	PrintCompletion("Label build", time.Since(start))
	return nil
}

func runLabelsList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	all, err := labels.NewStore(a.stores.Labels, a.log).List(ctx, labelsCompany)
	if err != nil {
		return err
	}

	shown := make([]contracts.FailureLabel, 0, len(all))
	for _, l := range all {
		if l.Confidence >= labelsMinConfidence {
			shown = append(shown, l)
		}
	}

	if jsonOutput() {
		return printJSON(shown)
	}

	if len(shown) == 0 {
		PrintInfo("No labels")
		return nil
	}

	widths := []int{12, 20, 10, 6, 10, 40}
	PrintTableHeader([]string{"Company", "Type", "Date", "Conf", "Source", "Evidence"}, widths)
	for _, l := range shown {
		PrintTableRow([]string{
			l.CompanyID,
			string(l.FailureType),
			l.Date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", l.Confidence),
			string(l.Source),
			truncate(l.Evidence, widths[5]),
		}, widths)
	}
	fmt.Printf("\n%d labels\n", len(shown))
	return nil
}

// truncate shortens s to n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
