package index

import (
	"math"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/scenario"
)

// MinSubIndices is the number of present sub-indices needed for a composite
const MinSubIndices = 3

// geometricFloor keeps one zero sub-index from collapsing the product
const geometricFloor = 1.0

// Aggregate combines the sub-indices under scn.
// Missing sub-indices are skipped and the remaining weights renormalized;
// fewer than MinSubIndices present yields nil.
func Aggregate(sub contracts.SubIndices, scn *scenario.WeightScenario) *float64 {
	if sub.Present() < MinSubIndices {
		return nil
	}
	return aggregate(sub.Vector(), scn.Weights().Vector(), scn.Mode())
}

// AggregateVector combines a complete sub-index vector (SubIndexNames order)
func AggregateVector(values, weights [4]float64, mode scenario.AggregationMode) float64 {
	var ptrs [4]*float64
	for i := range values {
		ptrs[i] = &values[i]
	}
	v := aggregate(ptrs, weights, mode)
	if v == nil {
		return 0
	}
	return *v
}

func aggregate(values [4]*float64, weights [4]float64, mode scenario.AggregationMode) *float64 {
	var wsum float64
	for i, v := range values {
		if v != nil {
			wsum += weights[i]
		}
	}
	if wsum <= 0 {
		return nil
	}

	var out float64
	switch mode {
	case scenario.ModeGeometric:
		// Π max(s,1)^w, log 공간에서 계산
		var logSum float64
		for i, v := range values {
			if v == nil {
				continue
			}
			logSum += weights[i] / wsum * math.Log(math.Max(*v, geometricFloor))
		}
		out = math.Exp(logSum)
	default:
		for i, v := range values {
			if v == nil {
				continue
			}
			out += *v * weights[i] / wsum
		}
	}

	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil
	}
	return &out
}

// Grade assigns the scenario's letter grade to score
func Grade(score float64, scn *scenario.WeightScenario) string {
	return scn.Grades().Assign(score)
}
