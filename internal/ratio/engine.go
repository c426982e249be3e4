// Package ratio computes financial ratios, category sub-scores and the
// composite health score for one statement period.
package ratio

import (
	"fmt"
	"time"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/grading"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// CategoryWeights are the fixed health-score weights (sum 1.0)
var CategoryWeights = map[contracts.Category]float64{
	contracts.CategoryProfitability: 0.25,
	contracts.CategoryStability:     0.20,
	contracts.CategoryLiquidity:     0.15,
	contracts.CategoryActivity:      0.10,
	contracts.CategoryGrowth:        0.15,
	contracts.CategoryCashFlow:      0.15,
}

// HealthGrades maps the health score to a letter grade
var HealthGrades = grading.MustTable([]grading.Band{
	{Min: 90, Label: "A+"},
	{Min: 80, Label: "A"},
	{Min: 70, Label: "B+"},
	{Min: 60, Label: "B"},
	{Min: 50, Label: "C+"},
	{Min: 40, Label: "C"},
	{Min: 30, Label: "D"},
	{Min: 0, Label: "F"},
})

// RiskLevels maps the same health score to a risk level
var RiskLevels = grading.MustTable([]grading.Band{
	{Min: 70, Label: "LOW"},
	{Min: 50, Label: "MODERATE"},
	{Min: 30, Label: "HIGH"},
	{Min: 0, Label: "CRITICAL"},
})

// Engine computes RatioRecords
// ⭐ SSOT: 재무비율 산출은 여기서만
type Engine struct {
	logger *logger.Logger
	now    func() time.Time
}

// NewEngine creates a new ratio engine
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{
		logger: log.WithField("module", "ratio"),
		now:    time.Now,
	}
}

// Compute maps the current period (and optional prior period) to a RatioRecord.
// Missing inputs never fail: they produce nil ratios and lower completeness.
func (e *Engine) Compute(current *contracts.StatementRecord, prior *contracts.StatementRecord) (*contracts.RatioRecord, error) {
	if current == nil {
		return nil, &contracts.MalformedRecordError{Field: "current", Message: "required"}
	}
	if err := current.Validate(); err != nil {
		return nil, err
	}

	var priorItems *contracts.LineItems
	if prior != nil {
		if err := prior.Validate(); err != nil {
			return nil, fmt.Errorf("prior period: %w", err)
		}
		if prior.CompanyID != current.CompanyID {
			return nil, &contracts.MalformedRecordError{
				Field:   "prior.company_id",
				Message: fmt.Sprintf("%s does not match %s", prior.CompanyID, current.CompanyID),
			}
		}
		priorItems = &prior.Items
	}

	rec := &contracts.RatioRecord{
		CompanyID:           current.CompanyID,
		FiscalYear:          current.FiscalYear,
		Quarter:             current.Quarter,
		Ratios:              make(map[contracts.RatioName]*float64, len(Definitions)),
		CategoryScores:      make(map[contracts.Category]*float64, len(contracts.Categories)),
		GrowthDataAvailable: priorItems != nil,
		ComputedAt:          e.now(),
	}

	populated := 0
	bandScores := make(map[contracts.Category][]float64, len(contracts.Categories))
	for _, def := range Definitions {
		v := def.Compute(&current.Items, priorItems)
		rec.Ratios[def.Name] = v
		if v == nil {
			continue
		}
		populated++
		bandScores[def.Category] = append(bandScores[def.Category], def.Band.Normalize(*v))
	}
	rec.Completeness = float64(populated) / float64(len(Definitions))

	for _, c := range contracts.Categories {
		scores := bandScores[c]
		if len(scores) == 0 {
			rec.CategoryScores[c] = nil
			continue
		}
		rec.CategoryScores[c] = mean(scores)
	}

	rec.HealthScore = HealthScore(rec.CategoryScores)
	if rec.HealthScore != nil {
		rec.HealthGrade = HealthGrades.Assign(*rec.HealthScore)
		rec.RiskLevel = RiskLevels.Assign(*rec.HealthScore)
	}

	e.logger.WithFields(map[string]interface{}{
		"company":      rec.CompanyID,
		"year":         rec.FiscalYear,
		"quarter":      rec.Quarter,
		"completeness": rec.Completeness,
		"growth_data":  rec.GrowthDataAvailable,
	}).Debug("Ratios computed")

	return rec, nil
}

// HealthScore is the CategoryWeights mean over populated categories.
// Weights are renormalized so a missing category is excluded, not scored 0.
func HealthScore(categories map[contracts.Category]*float64) *float64 {
	var sum, wsum float64
	for _, c := range contracts.Categories {
		v := categories[c]
		if v == nil {
			continue
		}
		w := CategoryWeights[c]
		sum += *v * w
		wsum += w
	}
	if wsum == 0 {
		return nil
	}
	s := sum / wsum
	return &s
}

func mean(values []float64) *float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}
