package labels

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// BuildSummary reports one Build run
type BuildSummary struct {
	FiscalYear  int                           `json:"fiscal_year"`
	Disclosures int                           `json:"disclosures"`
	Companies   int                           `json:"companies"`
	Found       int                           `json:"found"`
	Inserted    int                           `json:"inserted"`
	ByType      map[contracts.FailureType]int `json:"by_type"`
}

// Builder runs the textual and financial screens and appends their labels
type Builder struct {
	disclosures contracts.DisclosureRepository
	statements  contracts.StatementRepository
	store       *Store
	rules       []KeywordRule
	logger      *logger.Logger
}

// NewBuilder creates a label builder
func NewBuilder(disclosures contracts.DisclosureRepository, statements contracts.StatementRepository, store *Store, log *logger.Logger) *Builder {
	return &Builder{
		disclosures: disclosures,
		statements:  statements,
		store:       store,
		rules:       DefaultRules,
		logger:      log.WithField("module", "labels.builder"),
	}
}

// Build screens fiscalYear's disclosures and the statement history of
// every company with a period in that year. Financial labels dated after
// fiscalYear are left for a later run.
func (b *Builder) Build(ctx context.Context, fiscalYear int) (*BuildSummary, error) {
	summary := &BuildSummary{FiscalYear: fiscalYear, ByType: make(map[contracts.FailureType]int)}
	var found []contracts.FailureLabel

	// 1. 공시 제목 스크린
	disclosures, err := b.disclosures.ListDisclosures(ctx, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("list disclosures: %w", err)
	}
	summary.Disclosures = len(disclosures)
	for _, d := range disclosures {
		found = append(found, MatchDisclosure(d, b.rules)...)
	}

	// 2. 재무 스크린
	periods, err := b.statements.ListPeriods(ctx, contracts.CompanyQuery{FiscalYear: fiscalYear})
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	companies := make(map[string]struct{})
	for _, p := range periods {
		if _, done := companies[p.CompanyID]; done {
			continue
		}
		companies[p.CompanyID] = struct{}{}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		history, err := b.statements.ListStatements(ctx, p.CompanyID)
		if err != nil {
			b.logger.WithError(err).WithField("company", p.CompanyID).Warn("Skip financial screen")
			continue
		}
		for _, l := range ScreenFinancial(history) {
			if l.Date.Year() <= fiscalYear {
				found = append(found, l)
			}
		}
	}
	summary.Companies = len(companies)

	for _, l := range found {
		summary.ByType[l.FailureType]++
	}
	summary.Found = len(found)

	inserted, err := b.store.Append(ctx, found)
	if err != nil {
		return nil, err
	}
	summary.Inserted = inserted

	b.logger.WithFields(map[string]interface{}{
		"year":     fiscalYear,
		"found":    summary.Found,
		"inserted": inserted,
	}).Info("Label build complete")
	return summary, nil
}
