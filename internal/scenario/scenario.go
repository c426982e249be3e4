// Package scenario defines versioned, immutable weight scenarios for the
// composite index and loads them from YAML.
package scenario

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/grading"
)

// AggregationMode selects how sub-indices are combined
type AggregationMode string

const (
	ModeArithmetic AggregationMode = "arithmetic"
	ModeGeometric  AggregationMode = "geometric"
)

// WeightTolerance is the allowed deviation of the weight sum from 1.0
const WeightTolerance = 1e-6

// Weights is the sub-index weight vector
type Weights struct {
	CEI float64 `yaml:"cei" json:"cei" validate:"gte=0,lte=1"`
	CGI float64 `yaml:"cgi" json:"cgi" validate:"gte=0,lte=1"`
	RII float64 `yaml:"rii" json:"rii" validate:"gte=0,lte=1"`
	MAI float64 `yaml:"mai" json:"mai" validate:"gte=0,lte=1"`
}

// Vector returns the weights in contracts.SubIndexNames order
func (w Weights) Vector() [4]float64 {
	return [4]float64{w.CEI, w.CGI, w.RII, w.MAI}
}

// WeightsFromVector builds Weights from a CEI, CGI, RII, MAI vector
func WeightsFromVector(v [4]float64) Weights {
	return Weights{CEI: v[0], CGI: v[1], RII: v[2], MAI: v[3]}
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.CEI + w.CGI + w.RII + w.MAI
}

// Get returns the weight of the named sub-index
func (w Weights) Get(name contracts.SubIndexName) float64 {
	switch name {
	case contracts.SubIndexCEI:
		return w.CEI
	case contracts.SubIndexRII:
		return w.RII
	case contracts.SubIndexCGI:
		return w.CGI
	case contracts.SubIndexMAI:
		return w.MAI
	}
	return 0
}

// Definition is the on-disk form of a scenario (one YAML row)
type Definition struct {
	Name        string          `yaml:"name" json:"name" validate:"required,max=64"`
	Version     int             `yaml:"version" json:"version" validate:"gte=1"`
	Description string          `yaml:"description" json:"description,omitempty"`
	Effective   string          `yaml:"effective" json:"effective,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Mode        AggregationMode `yaml:"mode" json:"mode" validate:"required,oneof=arithmetic geometric"`
	Weights     Weights         `yaml:"weights" json:"weights"`
	Grades      []grading.Band  `yaml:"grades" json:"grades" validate:"min=2,dive"`
}

// WeightScenario is a validated, read-only scenario.
// Fields are unexported so a constructed scenario cannot drift.
type WeightScenario struct {
	def   Definition
	table grading.Table
	hash  string
}

var validate = validator.New()

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// New validates def and builds a WeightScenario
func New(def Definition) (*WeightScenario, error) {
	if err := validate.Struct(def); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return nil, ValidationError{Field: fe.Namespace(), Message: fmt.Sprintf("failed '%s' check", fe.Tag())}
		}
		return nil, err
	}

	if err := validateWeightsSum(def.Weights, 1.0, WeightTolerance); err != nil {
		return nil, ValidationError{Field: "weights", Message: err.Error()}
	}

	for i, b := range def.Grades {
		if b.Min < 0 || b.Min > 100 {
			return nil, ValidationError{Field: fmt.Sprintf("grades[%d].min", i), Message: "must be in [0, 100]"}
		}
	}

	table, err := grading.NewTable(def.Grades)
	if err != nil {
		return nil, ValidationError{Field: "grades", Message: err.Error()}
	}

	// 정렬된 밴드로 정규화해서 해시가 YAML 행 순서에 의존하지 않게 함
	def.Grades = table.Bands()

	scn := &WeightScenario{def: def, table: table}
	scn.hash, err = hashDefinition(def)
	if err != nil {
		return nil, err
	}
	return scn, nil
}

// MustNew is New for tests and built-in defaults
func MustNew(def Definition) *WeightScenario {
	s, err := New(def)
	if err != nil {
		panic(err)
	}
	return s
}

func validateWeightsSum(w Weights, target, tol float64) error {
	sum := w.Sum()
	if math.Abs(sum-target) > tol {
		return fmt.Errorf("sum must be %.1f ± %g, got %.9f", target, tol, sum)
	}
	return nil
}

func hashDefinition(def Definition) (string, error) {
	jsonBytes, err := json.Marshal(def)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Name returns the scenario name
func (s *WeightScenario) Name() string { return s.def.Name }

// Version returns the scenario version
func (s *WeightScenario) Version() int { return s.def.Version }

// ID returns "name@version"
func (s *WeightScenario) ID() string { return FormatID(s.def.Name, s.def.Version) }

// Mode returns the aggregation mode
func (s *WeightScenario) Mode() AggregationMode { return s.def.Mode }

// Weights returns a copy of the weight vector
func (s *WeightScenario) Weights() Weights { return s.def.Weights }

// Grades returns the grade threshold table
func (s *WeightScenario) Grades() grading.Table { return s.table }

// Hash returns the sha256 fingerprint of the definition
func (s *WeightScenario) Hash() string { return s.hash }

// Definition returns a copy of the on-disk form
func (s *WeightScenario) Definition() Definition {
	d := s.def
	d.Grades = s.table.Bands()
	return d
}

// WithWeights derives a new scenario (same grades and mode) with other weights
func (s *WeightScenario) WithWeights(name string, version int, w Weights) (*WeightScenario, error) {
	def := s.Definition()
	def.Name = name
	def.Version = version
	def.Weights = w
	def.Description = fmt.Sprintf("derived from %s", s.ID())
	return New(def)
}

// FormatID joins name and version
func FormatID(name string, version int) string {
	return fmt.Sprintf("%s@%d", name, version)
}

// DefaultGrades is the standard letter table used by built-in scenarios
var DefaultGrades = []grading.Band{
	{Min: 90, Label: "A+"},
	{Min: 80, Label: "A"},
	{Min: 70, Label: "B+"},
	{Min: 60, Label: "B"},
	{Min: 50, Label: "C+"},
	{Min: 40, Label: "C"},
	{Min: 30, Label: "D"},
	{Min: 0, Label: "F"},
}

// Uniform returns the equal-weight arithmetic scenario
func Uniform() *WeightScenario {
	return MustNew(Definition{
		Name:    "uniform",
		Version: 1,
		Mode:    ModeArithmetic,
		Weights: Weights{CEI: 0.25, RII: 0.25, CGI: 0.25, MAI: 0.25},
		Grades:  DefaultGrades,
	})
}
