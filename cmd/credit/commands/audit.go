package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/audit"
	"github.com/wonny/aegis-credit/internal/scheduler/jobs"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "점수 정합성 감사",
	Long: `저장된 서브지수로 합성 점수를 재계산해 저장값과 비교합니다.

명령어:
  scores   합성 점수 드리프트 검사 (및 --execute 시 보정)`,
}

var (
	auditYear      int
	auditTolerance float64
	auditExecute   bool
	auditBatchSize int
	auditScenario  string
)

var auditScoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "합성 점수 드리프트 검사",
	Long: `시나리오 가중치로 합성 점수를 재계산하고 허용오차를 넘는 기록을 보고합니다.

--execute 없이 실행하면 보고만 합니다.
--execute 시 배치마다 원본을 백업한 뒤 한 트랜잭션으로 보정합니다.
백업이 실패하면 해당 배치부터 보정하지 않습니다.

Example:
  go run ./cmd/credit audit scores --year 2024
  go run ./cmd/credit audit scores --year 2024 --tolerance 1.0
  go run ./cmd/credit audit scores --year 2024 --execute`,
	RunE: runAuditScores,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditScoresCmd)

	auditScoresCmd.Flags().IntVar(&auditYear, "year", 0, "fiscal year (default: latest closed year)")
	auditScoresCmd.Flags().Float64Var(&auditTolerance, "tolerance", 0, "allowed |stored - recomputed| (default: AUDIT_TOLERANCE)")
	auditScoresCmd.Flags().BoolVar(&auditExecute, "execute", false, "back up and correct mismatches")
	auditScoresCmd.Flags().IntVar(&auditBatchSize, "batch-size", 0, "corrections per transaction (default: AUDIT_BATCH_SIZE)")
	auditScoresCmd.Flags().StringVar(&auditScenario, "scenario", "", "scenario id (default: active)")
}

func runAuditScores(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	scn, err := a.scenario(auditScenario)
	if err != nil {
		return err
	}

	// --tolerance 0 은 완전 일치 검사
	tolerance := a.cfg.Audit.Tolerance
	if cmd.Flags().Changed("tolerance") {
		tolerance = auditTolerance
	}

	opts := audit.Options{
		FiscalYear: auditYear,
		Tolerance:  &tolerance,
		Execute:    auditExecute,
		BatchSize:  auditBatchSize,
	}
	if opts.FiscalYear == 0 {
		opts.FiscalYear = jobs.LatestClosedYear(time.Now())
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = a.cfg.Audit.BatchSize
	}

	report, runErr := audit.NewAuditor(a.stores.Audit, scn, a.log).Run(ctx, opts)
	if report == nil {
		return runErr
	}

	if jsonOutput() {
		if err := printJSON(report); err != nil {
			return err
		}
		return runErr
	}

	printAuditReport(report)
	if runErr != nil {
		PrintError(runErr.Error())
		return runErr
	}
	PrintCompletion("Audit "+report.RunID, report.Duration)
	return nil
}

func printAuditReport(r *audit.Report) {
	mode := "report-only"
	if r.Executed {
		mode = "execute"
	}
	PrintHeader("Composite Consistency Audit", [][2]string{
		{"Scenario", r.Scenario},
		{"Fiscal year", fmt.Sprintf("%d", r.FiscalYear)},
		{"Tolerance", fmt.Sprintf("%.2f", r.Tolerance)},
		{"Mode", mode},
	})

	const w = 10
	PrintKeyValue("Checked", fmt.Sprintf("%d", r.Checked), w)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", r.Skipped), w)
	PrintKeyValue("Mismatch", fmt.Sprintf("%d", len(r.Mismatches)), w)
	if r.BackupID != "" {
		PrintKeyValue("Backup", r.BackupID, w)
		PrintKeyValue("Corrected", fmt.Sprintf("%d", r.Corrected), w)
	}

	if len(r.Mismatches) == 0 {
		fmt.Println()
		PrintSuccess("No drift beyond tolerance")
		return
	}

	fmt.Println()
	widths := []int{12, 10, 8, 12, 8, 8}
	PrintTableHeader([]string{"Company", "Stored", "Grade", "Recomputed", "Grade", "Delta"}, widths)
	for _, m := range r.Mismatches {
		PrintTableRow([]string{
			m.CompanyID,
			formatScore(m.StoredScore),
			m.StoredGrade,
			fmt.Sprintf("%.2f", m.RecomputedScore),
			m.RecomputedGrade,
			formatScore(m.Delta),
		}, widths)
	}

	if !r.Executed {
		PrintWarning("Report only. Re-run with --execute to back up and correct.")
	}
}
