package scenario

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// File is the YAML document holding historical scenarios as data rows
type File struct {
	Active    string       `yaml:"active"`
	Baseline  string       `yaml:"baseline"`
	Scenarios []Definition `yaml:"scenarios"`
}

// Catalog indexes loaded scenarios by "name@version"
type Catalog struct {
	byID     map[string]*WeightScenario
	active   string
	baseline string
}

// Load reads a scenario file.
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document
func Parse(data []byte) (*Catalog, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode scenario file: %w", err)
	}
	return NewCatalog(f)
}

// NewCatalog validates every definition in f
func NewCatalog(f File) (*Catalog, error) {
	if len(f.Scenarios) == 0 {
		return nil, ValidationError{Field: "scenarios", Message: "at least one scenario required"}
	}

	c := &Catalog{byID: make(map[string]*WeightScenario, len(f.Scenarios))}
	for i, def := range f.Scenarios {
		scn, err := New(def)
		if err != nil {
			return nil, fmt.Errorf("scenarios[%d]: %w", i, err)
		}
		if _, dup := c.byID[scn.ID()]; dup {
			return nil, ValidationError{Field: fmt.Sprintf("scenarios[%d]", i), Message: "duplicate " + scn.ID()}
		}
		c.byID[scn.ID()] = scn
	}

	c.active = f.Active
	if c.active == "" {
		c.active = c.latest().ID()
	}
	if _, ok := c.byID[c.active]; !ok {
		return nil, ValidationError{Field: "active", Message: "unknown scenario " + c.active}
	}

	c.baseline = f.Baseline
	if c.baseline != "" {
		if _, ok := c.byID[c.baseline]; !ok {
			return nil, ValidationError{Field: "baseline", Message: "unknown scenario " + c.baseline}
		}
	}

	return c, nil
}

func (c *Catalog) latest() *WeightScenario {
	list := c.List()
	return list[len(list)-1]
}

// Get returns a scenario by "name@version"
func (c *Catalog) Get(id string) (*WeightScenario, error) {
	scn, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("scenario %s not found", id)
	}
	return scn, nil
}

// Resolve returns id when set, otherwise the active scenario
func (c *Catalog) Resolve(id string) (*WeightScenario, error) {
	if id == "" {
		return c.Active(), nil
	}
	return c.Get(id)
}

// Active returns the configured active scenario
func (c *Catalog) Active() *WeightScenario {
	return c.byID[c.active]
}

// Baseline returns the designated baseline (nil if none)
func (c *Catalog) Baseline() *WeightScenario {
	if c.baseline == "" {
		return nil
	}
	return c.byID[c.baseline]
}

// List returns scenarios ordered by name, then version
func (c *Catalog) List() []*WeightScenario {
	out := make([]*WeightScenario, 0, len(c.byID))
	for _, s := range c.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name() != out[j].Name() {
			return out[i].Name() < out[j].Name()
		}
		return out[i].Version() < out[j].Version()
	})
	return out
}
