// Package network scores qualitative relationship risk from graph edge
// counts and stored company attributes.
package network

import (
	"context"
	"fmt"
	"math"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/grading"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// WarningShare is the fraction of a signal's factor share at which a warning fires
const WarningShare = 0.7

// Levels maps a total score in [0,1] onto a risk level
var Levels = grading.MustTable([]grading.Band{
	{Min: 0.75, Label: "CRITICAL"},
	{Min: 0.50, Label: "HIGH"},
	{Min: 0.25, Label: "MEDIUM"},
	{Min: 0, Label: "LOW"},
})

// EdgeCounter returns edge counts by type for a graph node.
// Absent edges are zero, not an error.
type EdgeCounter interface {
	CountEdges(ctx context.Context, graphID string) (contracts.EdgeCounts, error)
}

// SignalResult is one evaluated sub-signal
type SignalResult struct {
	Name  string  `json:"name"`
	Raw   float64 `json:"raw"`
	Value float64 `json:"value"` // min(raw/saturation, 1)
}

// FactorResult is one evaluated factor
type FactorResult struct {
	Name    string         `json:"name"`
	Weight  float64        `json:"weight"`
	Score   float64        `json:"score"`
	Signals []SignalResult `json:"signals"`
}

// Result is the network risk assessment of one company
type Result struct {
	CompanyID string         `json:"company_id"`
	Linked    bool           `json:"linked"`
	Score     float64        `json:"score"`
	Level     string         `json:"level"`
	Factors   []FactorResult `json:"factors"`
	Warnings  []string       `json:"warnings"`
}

// Engine evaluates the factor model
// ⭐ SSOT: 네트워크 리스크 산출은 여기서만
type Engine struct {
	factors []Factor
	counter EdgeCounter
	logger  *logger.Logger
}

// NewEngine creates an engine over counter using DefaultFactors
func NewEngine(counter EdgeCounter, log *logger.Logger) *Engine {
	return &Engine{
		factors: DefaultFactors,
		counter: counter,
		logger:  log.WithField("module", "network"),
	}
}

// Evaluate scores one company. An unlinked company (no graph id) gets 0 on
// every graph-derived signal without querying the counter.
func (e *Engine) Evaluate(ctx context.Context, attrs *contracts.CompanyAttributes) (*Result, error) {
	in := Inputs{Attributes: attrs}
	linked := attrs.Linked()

	if linked {
		edges, err := e.counter.CountEdges(ctx, attrs.GraphID)
		if err != nil {
			return nil, fmt.Errorf("count edges %s: %w", attrs.GraphID, err)
		}
		in.Edges = edges
	}

	res := Score(e.factors, in, linked)
	if attrs != nil {
		res.CompanyID = attrs.CompanyID
	}

	if len(res.Warnings) > 0 {
		e.logger.WithFields(map[string]interface{}{
			"company":  res.CompanyID,
			"score":    res.Score,
			"level":    res.Level,
			"warnings": len(res.Warnings),
		}).Debug("Network risk warnings")
	}

	return res, nil
}

// Score evaluates factors over in. Pure function.
func Score(factors []Factor, in Inputs, linked bool) *Result {
	res := &Result{
		Linked:   linked,
		Factors:  make([]FactorResult, 0, len(factors)),
		Warnings: make([]string, 0),
	}

	for _, f := range factors {
		fr := FactorResult{Name: f.Name, Weight: f.Weight, Signals: make([]SignalResult, 0, len(f.Signals))}

		for _, s := range f.Signals {
			raw := 0.0
			if !s.Graph || linked {
				raw = s.raw(in)
			}
			value := saturate(raw, s.Saturation)
			fr.Score += value * s.Weight
			fr.Signals = append(fr.Signals, SignalResult{Name: s.Name, Raw: raw, Value: value})

			// value*w >= 0.7*w
			if value >= WarningShare {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("%s: %s at %.0f%% of saturation (raw %.2f)", f.Name, s.Name, value*100, raw))
			}
		}

		res.Score += fr.Score * f.Weight
		res.Factors = append(res.Factors, fr)
	}

	res.Score = math.Min(math.Max(res.Score, 0), 1)
	res.Level = Levels.Assign(res.Score)
	return res
}

func saturate(raw, saturation float64) float64 {
	if saturation <= 0 || raw <= 0 || math.IsNaN(raw) {
		return 0
	}
	return math.Min(raw/saturation, 1)
}
