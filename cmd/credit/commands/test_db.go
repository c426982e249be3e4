package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "스토어 연결 테스트",
	Long: `설정된 스토어(postgres/sqlite) 연결을 테스트합니다.

이 명령어는:
- config에서 STORE_DRIVER / DATABASE_URL 로드
- 스토어 연결 생성
- Ping 테스트
- (postgres) Health Check 및 Connection Pool 통계 표시
- Redis 캐시 사용 여부 표시

Example:
  go run ./cmd/credit test-db
  go run ./cmd/credit test-db --config .env.production`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Credit Store Connection Test ===")

	fmt.Println("Connecting...")
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	defer a.Close()
	fmt.Printf("✅ Config loaded (ENV: %s, STORE: %s)\n", a.cfg.Env, a.cfg.Store.Driver)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fmt.Println("Testing connection (Ping)...")
	if err := a.stores.Scores.Ping(ctx); err != nil {
		return fmt.Errorf("❌ Failed to ping store: %w", err)
	}
	fmt.Println("✅ Ping successful")

	if a.db == nil {
		fmt.Printf("   SQLite path: %s\n", a.cfg.Store.SQLitePath)
	} else {
		fmt.Printf("   Database URL: %s\n\n", maskURL(a.cfg.Database.URL))

		fmt.Println("Getting health status...")
		status, err := a.db.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("❌ Health check failed: %w", err)
		}

		fmt.Println("✅ Health Check Results:")
		fmt.Printf("   Healthy: %v\n", status.Healthy)
		fmt.Printf("   Response Time: %v\n", status.ResponseTime)
		fmt.Printf("   Timestamp: %v\n\n", status.Timestamp.Format(time.RFC3339))

		fmt.Println("📊 Connection Pool Statistics:")
		fmt.Printf("   Max Connections: %d\n", status.Stats.MaxConns)
		fmt.Printf("   Total Connections: %d\n", status.Stats.TotalConns)
		fmt.Printf("   Acquired Connections: %d\n", status.Stats.AcquiredConns)
		fmt.Printf("   Idle Connections: %d\n", status.Stats.IdleConns)
		fmt.Printf("   Acquire Count: %d\n", status.Stats.AcquireCount)
		fmt.Printf("   Acquire Duration: %v\n", status.Stats.AcquireDuration)
	}

	fmt.Printf("\n   Redis edge cache: %v\n", a.redis.Enabled())
	fmt.Println("\n✅ All tests passed!")
	return nil
}
