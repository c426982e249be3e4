package labels

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/pkg/logger"
)

var f = contracts.F

// =============================================================================
// fakes
// =============================================================================

type memLabels struct {
	rows []contracts.FailureLabel
}

func (m *memLabels) AppendLabels(_ context.Context, labels []contracts.FailureLabel) (int, error) {
	n := 0
	for _, l := range labels {
		dup := false
		for _, r := range m.rows {
			if keyOf(r) == keyOf(l) {
				dup = true
				break
			}
		}
		if !dup {
			m.rows = append(m.rows, l)
			n++
		}
	}
	return n, nil
}

func (m *memLabels) ListLabels(_ context.Context, companyID string) ([]contracts.FailureLabel, error) {
	var out []contracts.FailureLabel
	for _, r := range m.rows {
		if companyID == "" || r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memDisclosures []contracts.Disclosure

func (m memDisclosures) ListDisclosures(_ context.Context, year int) ([]contracts.Disclosure, error) {
	var out []contracts.Disclosure
	for _, d := range m {
		if year == 0 || d.FiledAt.Year() == year {
			out = append(out, d)
		}
	}
	return out, nil
}

type memStatements map[string][]contracts.StatementRecord

func (m memStatements) ListPeriods(_ context.Context, q contracts.CompanyQuery) ([]contracts.CompanyPeriod, error) {
	var out []contracts.CompanyPeriod
	for id, hist := range m {
		for _, s := range hist {
			if q.FiscalYear == 0 || s.FiscalYear == q.FiscalYear {
				out = append(out, contracts.CompanyPeriod{CompanyID: id, FiscalYear: s.FiscalYear})
			}
		}
	}
	return out, nil
}

func (m memStatements) GetStatement(_ context.Context, key contracts.PeriodKey) (*contracts.StatementRecord, error) {
	for _, s := range m[key.CompanyID] {
		if s.Key() == key {
			s := s
			return &s, nil
		}
	}
	return nil, contracts.ErrNotFound
}

func (m memStatements) ListStatements(_ context.Context, companyID string) ([]contracts.StatementRecord, error) {
	return m[companyID], nil
}

func annual(id string, year int, items contracts.LineItems) contracts.StatementRecord {
	return contracts.StatementRecord{CompanyID: id, FiscalYear: year, Items: items}
}

// =============================================================================
// textual screen
// =============================================================================

func TestMatchDisclosure(t *testing.T) {
	filed := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		title string
		want  []contracts.FailureType
	}{
		{"상장폐지 결정", []contracts.FailureType{contracts.FailureDelisted}},
		{"회생절차 개시신청", []contracts.FailureType{contracts.FailureRehabilitation}},
		{"감사의견 거절에 따른 상장폐지 사유 발생", []contracts.FailureType{contracts.FailureDelisted, contracts.FailureAuditDisclaimer}},
		{"[기재정정] 파산 신청", []contracts.FailureType{contracts.FailureBankruptcy}},
		{"상장폐지 사유 해소", nil},
		{"주요사항보고서(유상증자결정)", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := MatchDisclosure(contracts.Disclosure{CompanyID: "A", ReceiptNo: "R1", ReportName: tt.title, FiledAt: filed}, DefaultRules)
			types := make([]contracts.FailureType, 0, len(got))
			for _, l := range got {
				types = append(types, l.FailureType)
				assert.Equal(t, contracts.SourceTextual, l.Source)
				assert.Equal(t, filed, l.Date)
				assert.Contains(t, l.Evidence, "R1")
			}
			assert.ElementsMatch(t, tt.want, types)
		})
	}
}

// =============================================================================
// financial screen
// =============================================================================

func TestScreenFinancial_CapitalImpairment(t *testing.T) {
	got := ScreenFinancial([]contracts.StatementRecord{
		annual("A", 2023, contracts.LineItems{TotalEquity: f(100)}),
		annual("A", 2024, contracts.LineItems{TotalEquity: f(-50)}),
	})
	require.Len(t, got, 1)
	assert.Equal(t, contracts.FailureCapitalImpairment, got[0].FailureType)
	assert.Equal(t, 2024, got[0].Date.Year())
	assert.Equal(t, CapitalImpairmentConfidence, got[0].Confidence)
}

func TestScreenFinancial_Zombie(t *testing.T) {
	weak := contracts.LineItems{OperatingIncome: f(5), InterestExpense: f(10)}
	strong := contracts.LineItems{OperatingIncome: f(50), InterestExpense: f(10)}

	// 연속 3년 → 1건
	got := ScreenFinancial([]contracts.StatementRecord{
		annual("Z", 2024, weak),
		annual("Z", 2022, weak),
		annual("Z", 2023, weak),
		annual("Z", 2025, weak),
	})
	require.Len(t, got, 1)
	assert.Equal(t, contracts.FailureZombie, got[0].FailureType)
	assert.Equal(t, 2024, got[0].Date.Year())

	// 중간에 회복하면 리셋
	assert.Empty(t, ScreenFinancial([]contracts.StatementRecord{
		annual("Z", 2021, weak),
		annual("Z", 2022, weak),
		annual("Z", 2023, strong),
		annual("Z", 2024, weak),
	}))

	// 연도 공백도 리셋
	assert.Empty(t, ScreenFinancial([]contracts.StatementRecord{
		annual("Z", 2019, weak),
		annual("Z", 2020, weak),
		annual("Z", 2022, weak),
	}))
}

// =============================================================================
// store / builder
// =============================================================================

func TestStore_AppendDedupAndOutcomes(t *testing.T) {
	repo := &memLabels{}
	store := NewStore(repo, logger.NewNop())
	ctx := context.Background()
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	labels := []contracts.FailureLabel{
		{CompanyID: "A", FailureType: contracts.FailureDelisted, Evidence: "e1", Confidence: 0.95, Date: day},
		{CompanyID: "A", FailureType: contracts.FailureDelisted, Evidence: "e1", Confidence: 0.95, Date: day},
		{CompanyID: "B", FailureType: contracts.FailureZombie, Evidence: "e2", Confidence: 0.6, Date: day},
	}

	n, err := store.Append(ctx, labels)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.Append(ctx, labels)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "re-append inserts nothing")

	listed, err := store.List(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.False(t, listed[0].CreatedAt.IsZero())

	out, err := store.Outcomes(ctx, 0.7)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"A": true, "B": false}, out)
}

func TestStore_AppendRejectsInvalid(t *testing.T) {
	store := NewStore(&memLabels{}, logger.NewNop())

	_, err := store.Append(context.Background(), []contracts.FailureLabel{
		{CompanyID: "A", FailureType: contracts.FailureDelisted, Confidence: 1.5, Date: time.Now()},
	})
	var malformed *contracts.MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "confidence", malformed.Field)
}

func TestBuilder_Build(t *testing.T) {
	repo := &memLabels{}
	store := NewStore(repo, logger.NewNop())

	disclosures := memDisclosures{
		{CompanyID: "A", ReceiptNo: "20240301000001", ReportName: "상장폐지결정", FiledAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{CompanyID: "B", ReceiptNo: "20230301000002", ReportName: "부도발생", FiledAt: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	statements := memStatements{
		"C": {
			annual("C", 2024, contracts.LineItems{TotalEquity: f(-1)}),
			annual("C", 2025, contracts.LineItems{TotalEquity: f(-2)}),
		},
	}

	b := NewBuilder(disclosures, statements, store, logger.NewNop())
	summary, err := b.Build(context.Background(), 2024)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Disclosures)
	assert.Equal(t, 1, summary.Companies)
	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.ByType[contracts.FailureDelisted])
	assert.Equal(t, 1, summary.ByType[contracts.FailureCapitalImpairment])

	// 재실행은 중복 삽입 없음
	summary, err = b.Build(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Inserted)
}
