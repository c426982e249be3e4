package backtest

import "fmt"

// Criteria are the pass thresholds of a backtest
type Criteria struct {
	FailureCutoff  float64 `json:"failure_cutoff"` // composite below ⇒ predicted failure
	MinPrecision   float64 `json:"min_precision"`
	MinRecall      float64 `json:"min_recall"`
	MinF1          float64 `json:"min_f1"`
	MaxFPR         float64 `json:"max_fpr"`
	MinStability   float64 `json:"min_stability"`
	MinEntropy     float64 `json:"min_entropy"` // bits
	MinCorrelation float64 `json:"min_correlation"`
	MaxBandShift   int     `json:"max_band_shift"`
}

// DefaultCriteria returns the standard acceptance thresholds
func DefaultCriteria() Criteria {
	return Criteria{
		FailureCutoff:  40,
		MinPrecision:   0.2,
		MinRecall:      0.5,
		MinF1:          0.3,
		MaxFPR:         0.3,
		MinStability:   0.8,
		MinEntropy:     1.5,
		MinCorrelation: 0.7,
		MaxBandShift:   2,
	}
}

// Metric names of a backtest report row
const (
	MetricSamples     = "samples"
	MetricPositives   = "positives"
	MetricPrecision   = "precision"
	MetricRecall      = "recall"
	MetricF1          = "f1"
	MetricFPR         = "false_positive_rate"
	MetricStability   = "grade_stability"
	MetricEntropy     = "grade_entropy"
	MetricCorrelation = "baseline_correlation"
)

// MetricResult is one (scenario, metric) row of a backtest report.
// Value is nil when the sample could not produce the metric.
type MetricResult struct {
	Scenario  string   `json:"scenario"`
	Metric    string   `json:"metric"`
	Value     *float64 `json:"value"`
	Threshold float64  `json:"threshold"`
	Op        string   `json:"op"` // ">=" or "<="
	Pass      bool     `json:"pass"`
	Details   string   `json:"details,omitempty"`
}

// check fills r.Metrics with one row per criterion, r.Failures with the
// details of every failed row and sets r.Pass
func (c Criteria) check(r *Result) {
	num := func(v float64) *float64 { return &v }

	rows := make([]MetricResult, 0, 9)
	fails := make([]string, 0)
	// missing는 값이 없을 때의 사유, format은 임계값 미달 사유
	add := func(metric string, v *float64, op string, threshold float64, missing, format string) {
		row := MetricResult{Scenario: r.ScenarioID, Metric: metric, Value: v, Threshold: threshold, Op: op}
		switch {
		case v == nil:
			row.Details = missing
		case op == ">=" && *v >= threshold, op == "<=" && *v <= threshold:
			row.Pass = true
		default:
			row.Details = fmt.Sprintf(format, *v, threshold)
		}
		if !row.Pass {
			fails = append(fails, row.Details)
		}
		rows = append(rows, row)
	}

	samples := num(float64(r.Samples))
	if r.Samples == 0 {
		samples = nil
	}
	positives := num(float64(r.Positives))
	if r.Positives == 0 {
		positives = nil
	}

	add(MetricSamples, samples, ">=", 1, "no scored companies", "")
	add(MetricPositives, positives, ">=", 1, "no labeled failures in sample", "")
	add(MetricPrecision, num(r.Precision), ">=", c.MinPrecision, "", "precision %.3f < %.3f")
	add(MetricRecall, num(r.Recall), ">=", c.MinRecall, "", "recall %.3f < %.3f")
	add(MetricF1, num(r.F1), ">=", c.MinF1, "", "f1 %.3f < %.3f")
	add(MetricFPR, num(r.FalsePositiveRate), "<=", c.MaxFPR, "", "false positive rate %.3f > %.3f")
	add(MetricStability, r.Stability, ">=", c.MinStability,
		"grade stability: insufficient overlap between vintages", "grade stability %.3f < %.3f")
	add(MetricEntropy, num(r.Entropy), ">=", c.MinEntropy, "", "grade entropy %.3f bits < %.3f")
	if r.BaselineID != "" {
		add(MetricCorrelation, r.Correlation, ">=", c.MinCorrelation,
			"baseline correlation: insufficient data", "baseline correlation %.3f < %.3f")
	}

	r.Metrics = rows
	r.Failures = fails
	r.Pass = len(fails) == 0
}
