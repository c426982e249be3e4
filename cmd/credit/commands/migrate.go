package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-credit/internal/storage/postgres"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "스키마 마이그레이션",
	Long: `credit 스키마 마이그레이션을 적용합니다.

- postgres: 미적용 버전만 버전별 트랜잭션으로 적용
- sqlite: 스토어를 열 때 스키마가 적용되므로 확인만 수행

Example:
  go run ./cmd/credit migrate
  STORE_DRIVER=sqlite go run ./cmd/credit migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.db == nil {
		PrintSuccess(fmt.Sprintf("SQLite schema ready (%s)", a.cfg.Store.SQLitePath))
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	applied, err := postgres.Migrate(ctx, a.db.Pool)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if applied == 0 {
		PrintInfo("Schema is up to date")
		return nil
	}
	PrintSuccess(fmt.Sprintf("Applied %d migration(s)", applied))
	return nil
}
