// Package grading maps a numeric score onto an ordered label table.
package grading

import (
	"fmt"
	"sort"
)

// Band is one threshold row: scores at or above Min get Label
type Band struct {
	Min   float64 `yaml:"min" json:"min"`
	Label string  `yaml:"label" json:"label"`
}

// Table is an ordered threshold table. Bands are kept in descending Min order;
// the last band is the fallback for every score below the second-to-last Min.
type Table struct {
	bands []Band
}

// NewTable validates and sorts bands (highest threshold first)
func NewTable(bands []Band) (Table, error) {
	if len(bands) == 0 {
		return Table{}, fmt.Errorf("grade table: at least one band required")
	}

	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })

	seen := make(map[string]bool, len(sorted))
	for i, b := range sorted {
		if b.Label == "" {
			return Table{}, fmt.Errorf("grade table: band %d has empty label", i)
		}
		if seen[b.Label] {
			return Table{}, fmt.Errorf("grade table: duplicate label %q", b.Label)
		}
		seen[b.Label] = true
		if i > 0 && b.Min == sorted[i-1].Min {
			return Table{}, fmt.Errorf("grade table: duplicate threshold %.2f", b.Min)
		}
	}

	return Table{bands: sorted}, nil
}

// MustTable is NewTable for package-level tables
func MustTable(bands []Band) Table {
	t, err := NewTable(bands)
	if err != nil {
		panic(err)
	}
	return t
}

// Assign returns the label of the first band whose Min the score meets.
// A score equal to a threshold gets that (higher) band.
func (t Table) Assign(score float64) string {
	for _, b := range t.bands {
		if score >= b.Min {
			return b.Label
		}
	}
	return t.bands[len(t.bands)-1].Label
}

// Rank returns the 0-based position of label (0 = best), -1 when unknown
func (t Table) Rank(label string) int {
	for i, b := range t.bands {
		if b.Label == label {
			return i
		}
	}
	return -1
}

// Floor returns the minimum score of label's band
func (t Table) Floor(label string) (float64, bool) {
	for _, b := range t.bands {
		if b.Label == label {
			return b.Min, true
		}
	}
	return 0, false
}

// Labels returns labels best-first
func (t Table) Labels() []string {
	out := make([]string, len(t.bands))
	for i, b := range t.bands {
		out[i] = b.Label
	}
	return out
}

// Bands returns a copy of the bands, highest threshold first
func (t Table) Bands() []Band {
	out := make([]Band, len(t.bands))
	copy(out, t.bands)
	return out
}

// Len returns the number of bands
func (t Table) Len() int {
	return len(t.bands)
}
