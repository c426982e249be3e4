package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/audit"
	"github.com/wonny/aegis-credit/internal/scheduler"
	"github.com/wonny/aegis-credit/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 스코어링/감사 스케줄러를 시작하거나 작업을 조회합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/credit scheduler start
  go run ./cmd/credit scheduler list
  go run ./cmd/credit scheduler run scoring_batch`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업 (6필드 cron, 초 포함):
- scoring_batch: SCHEDULE_SCORING (기본 매일 03:00, 직전 마감 회계연도)
- consistency_audit: SCHEDULE_AUDIT (기본 매일 05:30, 보고 전용)

스케줄러는 Ctrl+C로 종료할 수 있습니다.
실행 중인 작업은 취소되고 진행 중인 청크까지 기록됩니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// buildJobs creates the periodic jobs over a's stores
func buildJobs(a *app) ([]scheduler.Job, error) {
	scn, err := a.scenario("")
	if err != nil {
		return nil, err
	}

	return []scheduler.Job{
		jobs.NewScoringBatchJob(a.runner(scn, 0), a.cfg.Schedule.Scoring, a.log),
		jobs.NewConsistencyAuditJob(
			audit.NewAuditor(a.stores.Audit, scn, a.log),
			a.cfg.Schedule.Audit,
			a.cfg.Audit.Tolerance,
			a.cfg.Audit.BatchSize,
			a.log,
		),
	}, nil
}

func initScheduler(a *app) (*scheduler.Scheduler, error) {
	list, err := buildJobs(a)
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(scheduler.DefaultOptions(), a.log)
	for _, job := range list {
		if err := sched.AddJob(job); err != nil {
			return nil, fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Credit Scheduler ===")
	fmt.Println()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	scn, err := a.scenario("")
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	// 참조된 시나리오가 바뀌었으면 데몬을 올리지 않음
	if err := a.registry().Verify(ctx, scn); err != nil {
		return err
	}

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	PrintSuccess("Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	printJobStats(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if jsonOutput() {
		return printJSON(sched.GetJobStats())
	}

	fmt.Println("Registered jobs:")
	printJobStats(sched)
	return nil
}

func printJobStats(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		st := stats[name]
		next := "-"
		if st.NextRun != nil {
			next = st.NextRun.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("  - %-18s %-16s next: %s\n", name, st.Schedule, next)
	}
}

func runJobNow(cmd *cobra.Command, args []string) error {
	name := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := buildJobs(a)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	for _, job := range list {
		if job.Name() != name {
			continue
		}
		fmt.Printf("Running job: %s\n", name)
		if err := job.Run(ctx); err != nil {
			PrintError(err.Error())
			return err
		}
		PrintSuccess("Job completed")
		return nil
	}
	return fmt.Errorf("job %s not found", name)
}
