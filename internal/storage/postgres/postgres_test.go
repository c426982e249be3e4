package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/pkg/config"
	"github.com/wonny/aegis-credit/pkg/database"
)

func integrationDB(t *testing.T) *database.DB {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = Migrate(context.Background(), db.Pool)
	require.NoError(t, err)
	return db
}

// uniqueCompany keeps concurrent runs against a shared database apart
func uniqueCompany(t *testing.T, db *database.DB) string {
	id := "test-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		ctx := context.Background()
		for _, table := range []string{"statements", "ratio_records", "composite_scores", "composite_score_backups", "failure_labels"} {
			_, _ = db.Pool.Exec(ctx, "DELETE FROM credit."+table+" WHERE company_id = $1", id)
		}
	})
	return id
}

func TestMigrate_Idempotent(t *testing.T) {
	db := integrationDB(t)

	applied, err := Migrate(context.Background(), db.Pool)
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestStatementRepository_RoundTrip(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	company := uniqueCompany(t, db)
	repo := NewStatementRepository(db.Pool)

	require.NoError(t, repo.SaveStatements(ctx, []contracts.StatementRecord{
		{CompanyID: company, FiscalYear: 2022, Items: contracts.LineItems{Revenue: contracts.F(10)}},
		{CompanyID: company, FiscalYear: 2023, Items: contracts.LineItems{Revenue: contracts.F(12)}},
	}))

	periods, err := repo.ListPeriods(ctx, contracts.CompanyQuery{CompanyIDs: []string{company}})
	require.NoError(t, err)
	assert.Len(t, periods, 2)

	rec, err := repo.GetStatement(ctx, contracts.PeriodKey{CompanyID: company, FiscalYear: 2023})
	require.NoError(t, err)
	assert.Equal(t, 12.0, *rec.Items.Revenue)

	_, err = repo.GetStatement(ctx, contracts.PeriodKey{CompanyID: company, FiscalYear: 1999})
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestScoreRepository_CorrectionsAllOrNothing(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	company := uniqueCompany(t, db)
	repo := NewScoreRepository(db.Pool)

	rec := contracts.CompositeScoreRecord{
		CompanyID:       company,
		FiscalYear:      2023,
		SubIndices:      contracts.SubIndices{CEI: contracts.F(60), CGI: contracts.F(60), RII: contracts.F(60), MAI: contracts.F(60)},
		CompositeScore:  contracts.F(40),
		Grade:           "C",
		ScenarioName:    "uniform",
		ScenarioVersion: 1,
		RedFlags:        []contracts.Flag{},
		YellowFlags:     []contracts.Flag{"IDLE_CASH_HIGH"},
		Completeness:    1,
		ComputedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.UpsertCompositeScores(ctx, []contracts.CompositeScoreRecord{rec}))
	require.NoError(t, repo.BackupCompositeScores(ctx, uuid.NewString(), []contracts.CompositeScoreRecord{rec}))

	err := repo.ApplyCompositeCorrections(ctx, []contracts.ScoreCorrection{
		{CompanyID: company, FiscalYear: 2023, CompositeScore: 60, Grade: "B", ScenarioName: "uniform", ScenarioVersion: 1},
		{CompanyID: company, FiscalYear: 1999, CompositeScore: 1, Grade: "F", ScenarioName: "uniform", ScenarioVersion: 1},
	})
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	all, err := repo.ListCompositeScores(ctx, 2023)
	require.NoError(t, err)
	for _, got := range all {
		if got.CompanyID == company {
			assert.Equal(t, 40.0, *got.CompositeScore)
			assert.Equal(t, []contracts.Flag{"IDLE_CASH_HIGH"}, got.YellowFlags)
		}
	}
}

func TestLabelRepository_Dedup(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	company := uniqueCompany(t, db)
	repo := NewLabelRepository(db.Pool)

	l := contracts.FailureLabel{
		CompanyID:   company,
		FailureType: contracts.FailureZombie,
		Evidence:    "interest coverage < 1 for 3 years",
		Confidence:  0.6,
		Date:        time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		Source:      contracts.SourceFinancial,
		CreatedAt:   time.Now().UTC(),
	}
	n, err := repo.AppendLabels(ctx, []contracts.FailureLabel{l, l})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.ListLabels(ctx, company)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, contracts.FailureZombie, got[0].FailureType)
}

func TestGraphRepository_UnknownIsUnlinked(t *testing.T) {
	db := integrationDB(t)
	repo := NewGraphRepository(db.Pool)

	counts, err := repo.CountEdges(context.Background(), "no-such-graph-"+uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, counts)

	attrs, err := repo.GetAttributes(context.Background(), "no-such-company-"+uuid.NewString())
	require.NoError(t, err)
	assert.False(t, attrs.Linked())
}
