package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/storage/sqlite"
)

// sqliteEnv points the CLI at a fresh sqlite store and the repo's scenario file
func sqliteEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credit.db")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("SCENARIO_FILE", filepath.Join("..", "..", "..", "config", "scenarios.yaml"))
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	return path
}

// execute runs the root command with args; flag globals are reset first
func execute(t *testing.T, args ...string) error {
	t.Helper()
	configFile, verbose, output = "", false, "text"
	scoreYear, scoreCompanies, scoreLimit, scoreDryRun, scoreWorkers, scoreScenario = 0, nil, 0, false, 0, ""
	btScenario, btBaseline, btYear, btPriorYear = "", "", 0, 0
	auditYear, auditTolerance, auditExecute, auditBatchSize, auditScenario = 0, 0, false, 0, ""

	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReadFixture(t *testing.T) {
	f, err := readFixture(filepath.Join("testdata", "sample.json"))
	require.NoError(t, err)
	assert.Len(t, f.Statements, 4)
	assert.Len(t, f.Disclosures, 2)
	assert.Len(t, f.Attributes, 2)
	assert.Len(t, f.Edges, 4)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"statements": [], "prices": []}`), 0o600))
	_, err = readFixture(bad)
	assert.Error(t, err)
}

func TestPipeline_SQLite(t *testing.T) {
	path := sqliteEnv(t)
	ctx := context.Background()

	require.NoError(t, execute(t, "migrate"))
	require.NoError(t, execute(t, "load", "--file", filepath.Join("testdata", "sample.json")))

	// dry run persists nothing
	require.NoError(t, execute(t, "score", "run", "--year", "2023", "--dry-run"))
	s := openStore(t, path)
	records, err := s.ListCompositeScores(ctx, 2023)
	require.NoError(t, err)
	assert.Empty(t, records)
	require.NoError(t, s.Close())

	require.NoError(t, execute(t, "score", "run", "--year", "2023", "--workers", "2"))
	require.NoError(t, execute(t, "labels", "build", "--year", "2023"))
	require.NoError(t, execute(t, "backtest", "run", "--year", "2023"))
	require.NoError(t, execute(t, "audit", "scores", "--year", "2023"))

	s = openStore(t, path)
	records, err = s.ListCompositeScores(ctx, 2023)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "credit_index", r.ScenarioName)
		assert.Equal(t, 3, r.ScenarioVersion)
		assert.NotNil(t, r.CompositeScore)
	}

	labels, err := s.ListLabels(ctx, "c002")
	require.NoError(t, err)
	var rehab bool
	for _, l := range labels {
		if l.FailureType == contracts.FailureRehabilitation {
			rehab = true
		}
	}
	assert.True(t, rehab)

	// backtest pins both the active scenario and its baseline
	for _, version := range []int{3, 1} {
		fp, err := s.GetScenarioFingerprint(ctx, "credit_index", version)
		require.NoError(t, err)
		assert.NotNil(t, fp.ReferencedAt)
	}
}

func TestScoreRun_UnknownScenario(t *testing.T) {
	sqliteEnv(t)
	assert.Error(t, execute(t, "score", "run", "--year", "2023", "--scenario", "missing@9"))
}
