package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
	output     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "credit",
	Short: "Aegis Credit - 재무 건전성/위험 스코어링",
	Long: `Aegis Credit Unified CLI

재무제표에서 비율을 계산하고 4개 서브지수(CEI, CGI, RII, MAI)를
가중 합성해 신용 등급을 산출합니다.
부실 라벨, 가중치 최적화, 백테스트, 정합성 감사까지 포함합니다.

Usage:
  go run ./cmd/credit [command]

Examples:
  go run ./cmd/credit migrate
  go run ./cmd/credit score run --year 2024
  go run ./cmd/credit labels build --year 2024
  go run ./cmd/credit backtest run --year 2024
  go run ./cmd/credit test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format (text|json)")
}
