package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// CompanyQuery narrows the scoring universe
type CompanyQuery struct {
	FiscalYear int      // 0 = all years
	CompanyIDs []string // empty = all companies
	Limit      int      // 0 = no limit
	AnnualOnly bool     // Quarter 0만, Limit보다 먼저 적용
}

// CompanyPeriod is one scoreable statement period
type CompanyPeriod struct {
	CompanyID   string
	CompanyName string
	FiscalYear  int
	Quarter     int
}

// Key returns the period key
func (c CompanyPeriod) Key() PeriodKey {
	return PeriodKey{CompanyID: c.CompanyID, FiscalYear: c.FiscalYear, Quarter: c.Quarter}
}

// StatementRepository reads externally produced statement records
type StatementRepository interface {
	ListPeriods(ctx context.Context, q CompanyQuery) ([]CompanyPeriod, error)
	GetStatement(ctx context.Context, key PeriodKey) (*StatementRecord, error)
	ListStatements(ctx context.Context, companyID string) ([]StatementRecord, error)
}

// StatementWriter loads statement records (fixtures, local store seeding)
type StatementWriter interface {
	SaveStatements(ctx context.Context, records []StatementRecord) error
}

// ScoreRepository persists ratio and composite records
type ScoreRepository interface {
	UpsertRatioRecords(ctx context.Context, records []RatioRecord) error
	UpsertCompositeScores(ctx context.Context, records []CompositeScoreRecord) error
	ListCompositeScores(ctx context.Context, fiscalYear int) ([]CompositeScoreRecord, error)
	Ping(ctx context.Context) error
}

// AuditRepository backs up and corrects published composite scores
type AuditRepository interface {
	ListCompositeScores(ctx context.Context, fiscalYear int) ([]CompositeScoreRecord, error)
	BackupCompositeScores(ctx context.Context, backupID string, records []CompositeScoreRecord) error
	ApplyCompositeCorrections(ctx context.Context, corrections []ScoreCorrection) error
}

// LabelRepository stores failure labels (append-mostly).
// AppendLabels skips exact duplicates and returns the number inserted;
// ListLabels with an empty companyID returns every label.
type LabelRepository interface {
	AppendLabels(ctx context.Context, labels []FailureLabel) (int, error)
	ListLabels(ctx context.Context, companyID string) ([]FailureLabel, error)
}

// DisclosureRepository reads filing titles for the textual screen
type DisclosureRepository interface {
	ListDisclosures(ctx context.Context, fiscalYear int) ([]Disclosure, error)
}

// GraphRepository answers relationship-signal queries.
// CountEdges returns zero counts for unknown ids, never an error for absence.
type GraphRepository interface {
	CountEdges(ctx context.Context, graphID string) (EdgeCounts, error)
	GetAttributes(ctx context.Context, companyID string) (*CompanyAttributes, error)
}

// ScenarioFingerprint pins a scenario definition once a backtest references it
type ScenarioFingerprint struct {
	Name         string     `json:"name"`
	Version      int        `json:"version"`
	Hash         string     `json:"hash"`
	ReferencedAt *time.Time `json:"referenced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ScenarioRepository records scenario fingerprints
type ScenarioRepository interface {
	GetScenarioFingerprint(ctx context.Context, name string, version int) (*ScenarioFingerprint, error)
	SaveScenarioFingerprint(ctx context.Context, fp ScenarioFingerprint) error
}
