// Package optimizer fits sub-index weights from failure labels and picks
// the composite cutoff that best separates failed from healthy companies.
package optimizer

import (
	"math"
	"sort"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/grading"
	"github.com/wonny/aegis-credit/internal/index"
	"github.com/wonny/aegis-credit/internal/scenario"
	"github.com/wonny/aegis-credit/internal/stats"
)

const (
	// DefaultFolds is the default cross-validation fold count
	DefaultFolds = 5
	// SpreadFloor replaces a zero within-class spread
	SpreadFloor = 1e-6
)

// Sample is one labeled sub-index vector (contracts.SubIndexNames order)
type Sample struct {
	CompanyID string
	Vector    [4]float64
	Failed    bool
}

// BuildSamples joins composite records with label outcomes. Records missing
// any sub-index are dropped; output is ordered by company id so folds are stable.
func BuildSamples(records []contracts.CompositeScoreRecord, outcomes map[string]bool) []Sample {
	out := make([]Sample, 0, len(records))
	for _, r := range records {
		vec := r.SubIndices.Vector()
		if r.SubIndices.Present() != len(vec) {
			continue
		}
		var s Sample
		s.CompanyID = r.CompanyID
		for i, v := range vec {
			s.Vector[i] = *v
		}
		s.Failed = outcomes[r.CompanyID]
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompanyID < out[j].CompanyID })
	return out
}

// Fit is the discriminant weight fit
type Fit struct {
	Weights    [4]float64 `json:"weights"`
	Ratios     [4]float64 `json:"ratios"`
	Degenerate bool       `json:"degenerate"`
}

// FitWeights computes |mean(failed) - mean(healthy)| / (sd(failed) + sd(healthy))
// per dimension and normalizes the ratios into weights. An empty class or
// all-zero ratios give the uniform vector.
func FitWeights(samples []Sample) Fit {
	uniform := Fit{Weights: [4]float64{0.25, 0.25, 0.25, 0.25}, Degenerate: true}

	var failed, healthy [4][]float64
	for _, s := range samples {
		for i, v := range s.Vector {
			if s.Failed {
				failed[i] = append(failed[i], v)
			} else {
				healthy[i] = append(healthy[i], v)
			}
		}
	}
	if len(failed[0]) == 0 || len(healthy[0]) == 0 {
		return uniform
	}

	var fit Fit
	total := 0.0
	for i := range fit.Ratios {
		diff := math.Abs(stats.Mean(failed[i]) - stats.Mean(healthy[i]))
		spread := math.Max(stats.StdDev(failed[i])+stats.StdDev(healthy[i]), SpreadFloor)
		fit.Ratios[i] = diff / spread
		total += fit.Ratios[i]
	}
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		uniform.Ratios = fit.Ratios
		return uniform
	}

	for i, r := range fit.Ratios {
		fit.Weights[i] = r / total
	}
	return fit
}

// Threshold is a fitted "composite below Value ⇒ failure" cutoff
type Threshold struct {
	Value     float64         `json:"value"`
	F1        float64         `json:"f1"`
	Confusion stats.Confusion `json:"confusion"`
}

// Scores returns every sample's composite under weights
func Scores(samples []Sample, weights [4]float64, mode scenario.AggregationMode) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = index.AggregateVector(s.Vector, weights, mode)
	}
	return out
}

// Evaluate scores predictions of cutoff on samples under weights
func Evaluate(samples []Sample, weights [4]float64, mode scenario.AggregationMode, cutoff float64) stats.Confusion {
	var c stats.Confusion
	for i, score := range Scores(samples, weights, mode) {
		c.Add(score < cutoff, samples[i].Failed)
	}
	return c
}

// FindThreshold tries every distinct composite as the cutoff and keeps the
// one with the highest F1; ties go to the lowest cutoff.
func FindThreshold(samples []Sample, weights [4]float64, mode scenario.AggregationMode) Threshold {
	scores := Scores(samples, weights, mode)

	candidates := append([]float64(nil), scores...)
	sort.Float64s(candidates)

	best := Threshold{F1: -1}
	for i, cut := range candidates {
		if i > 0 && cut == candidates[i-1] {
			continue
		}
		var c stats.Confusion
		for j, score := range scores {
			c.Add(score < cut, samples[j].Failed)
		}
		if f1 := c.F1(); f1 > best.F1 {
			best = Threshold{Value: cut, F1: f1, Confusion: c}
		}
	}
	if best.F1 < 0 {
		return Threshold{}
	}
	return best
}

// CrossValidation is the k-fold generalization estimate
type CrossValidation struct {
	K      int       `json:"k"`
	FoldF1 []float64 `json:"fold_f1"`
	MeanF1 float64   `json:"mean_f1"`
}

// folds splits n into k contiguous [start,end) ranges; the last takes the remainder
func folds(n, k int) [][2]int {
	if k > n {
		k = n
	}
	if k < 1 {
		return nil
	}
	size := n / k
	out := make([][2]int, k)
	for i := 0; i < k; i++ {
		end := (i + 1) * size
		if i == k-1 {
			end = n
		}
		out[i] = [2]int{i * size, end}
	}
	return out
}

// CrossValidate keeps weights fixed and refits only the threshold on each
// training split; k is capped at len(samples).
func CrossValidate(samples []Sample, weights [4]float64, mode scenario.AggregationMode, k int) CrossValidation {
	if k <= 0 {
		k = DefaultFolds
	}
	ranges := folds(len(samples), k)
	cv := CrossValidation{K: len(ranges), FoldF1: make([]float64, 0, len(ranges))}
	if len(ranges) < 2 {
		return cv
	}

	for _, r := range ranges {
		test := samples[r[0]:r[1]]
		train := make([]Sample, 0, len(samples)-len(test))
		train = append(train, samples[:r[0]]...)
		train = append(train, samples[r[1]:]...)

		th := FindThreshold(train, weights, mode)
		c := Evaluate(test, weights, mode, th.Value)
		cv.FoldF1 = append(cv.FoldF1, c.F1())
	}
	cv.MeanF1 = stats.Mean(cv.FoldF1)
	return cv
}

// Options tunes Optimize
type Options struct {
	Folds int
	Mode  scenario.AggregationMode
}

// Result is the full optimizer output
type Result struct {
	Samples    int                      `json:"samples"`
	Failures   int                      `json:"failures"`
	Mode       scenario.AggregationMode `json:"mode"`
	Weights    scenario.Weights         `json:"weights"`
	Fit        Fit                      `json:"fit"`
	Threshold  Threshold                `json:"threshold"`
	Validation CrossValidation          `json:"cross_validation"`
}

// Optimize runs FitWeights, FindThreshold and CrossValidate
func Optimize(samples []Sample, opts Options) *Result {
	if opts.Mode == "" {
		opts.Mode = scenario.ModeArithmetic
	}

	res := &Result{Samples: len(samples), Mode: opts.Mode}
	for _, s := range samples {
		if s.Failed {
			res.Failures++
		}
	}

	res.Fit = FitWeights(samples)
	res.Weights = scenario.WeightsFromVector(res.Fit.Weights)
	res.Threshold = FindThreshold(samples, res.Fit.Weights, opts.Mode)
	res.Validation = CrossValidate(samples, res.Fit.Weights, opts.Mode, opts.Folds)
	return res
}

// Scenario turns the fitted weights into a new scenario definition
func (r *Result) Scenario(name string, version int, grades []grading.Band) (*scenario.WeightScenario, error) {
	return scenario.New(scenario.Definition{
		Name:        name,
		Version:     version,
		Description: "fitted by optimizer",
		Mode:        r.Mode,
		Weights:     r.Weights,
		Grades:      grades,
	})
}
