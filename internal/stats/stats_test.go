package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptive(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(xs), 1e-12)
	assert.InDelta(t, 2.0, StdDev(xs), 1e-12)
	assert.InDelta(t, 4.5, Median(xs), 1e-12)
	assert.InDelta(t, 5.0, Median([]float64{9, 1, 5}), 1e-12)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, []float64{2, 4, 4, 4, 5, 5, 7, 9}, xs, "median must not reorder input")
}

func TestPearson(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	assert.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-12)

	r, ok = Pearson([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2})
	assert.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-12)

	_, ok = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.False(t, ok)
	_, ok = Pearson([]float64{1}, []float64{1})
	assert.False(t, ok)
	_, ok = Pearson([]float64{1, 2}, []float64{1})
	assert.False(t, ok)
}

func TestEntropy(t *testing.T) {
	assert.Equal(t, 0.0, Entropy(map[string]int{"A": 10}))
	assert.InDelta(t, 1.0, Entropy(map[string]int{"A": 5, "B": 5}), 1e-12)
	assert.InDelta(t, 2.0, Entropy(map[string]int{"A": 1, "B": 1, "C": 1, "D": 1}), 1e-12)
	assert.InDelta(t, math.Log2(3), Entropy(map[string]int{"A": 2, "B": 2, "C": 2, "D": 0}), 1e-12)
	assert.Equal(t, 0.0, Entropy(map[string]int{}))
}

func TestConfusion(t *testing.T) {
	var c Confusion
	c.Add(true, true)
	c.Add(true, false)
	c.Add(false, true)
	c.Add(false, false)
	c.Add(false, false)

	assert.Equal(t, 5, c.Total())
	assert.InDelta(t, 0.5, c.Precision(), 1e-12)
	assert.InDelta(t, 0.5, c.Recall(), 1e-12)
	assert.InDelta(t, 0.5, c.F1(), 1e-12)
	assert.InDelta(t, 1.0/3, c.FalsePositiveRate(), 1e-12)

	var empty Confusion
	assert.Equal(t, 0.0, empty.F1())
	assert.Equal(t, 0.0, empty.FalsePositiveRate())
}
