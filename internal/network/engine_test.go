package network

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/pkg/config"
	"github.com/wonny/aegis-credit/pkg/logger"
	"github.com/wonny/aegis-credit/pkg/redis"
)

type fakeCounter struct {
	edges map[string]contracts.EdgeCounts
	calls int
	err   error
}

func (f *fakeCounter) CountEdges(_ context.Context, graphID string) (contracts.EdgeCounts, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.edges[graphID], nil
}

func TestDefaultFactors_WeightsSumToOne(t *testing.T) {
	var total float64
	for _, f := range DefaultFactors {
		total += f.Weight
		var inner float64
		for _, s := range f.Signals {
			inner += s.Weight
			assert.Greater(t, s.Saturation, 0.0, s.Name)
		}
		assert.InDelta(t, 1.0, inner, 1e-9, f.Name)
		assert.LessOrEqual(t, len(f.Signals), 3)
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestEvaluate_UnlinkedCompanyIsLowRisk(t *testing.T) {
	counter := &fakeCounter{}
	eng := NewEngine(counter, logger.NewNop())

	res, err := eng.Evaluate(context.Background(), &contracts.CompanyAttributes{CompanyID: "A001"})
	require.NoError(t, err)

	assert.Equal(t, 0, counter.calls, "unlinked company must not hit the graph")
	assert.False(t, res.Linked)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, "LOW", res.Level)
	assert.Empty(t, res.Warnings)
	assert.Len(t, res.Factors, 5)

	res, err = eng.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "LOW", res.Level)
}

func TestEvaluate_UnlinkedKeepsAttributeSignals(t *testing.T) {
	eng := NewEngine(&fakeCounter{}, logger.NewNop())

	res, err := eng.Evaluate(context.Background(), &contracts.CompanyAttributes{
		CompanyID:             "A001",
		DisclosureCorrections: contracts.F(10),
	})
	require.NoError(t, err)

	// information_asymmetry: 1.0 * 0.5 = 0.5 → 0.5 * 0.25
	assert.InDelta(t, 0.125, res.Score, 1e-9)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "disclosure_corrections")
}

func TestEvaluate_SaturatedCompanyIsCritical(t *testing.T) {
	counter := &fakeCounter{edges: map[string]contracts.EdgeCounts{
		"g1": {
			contracts.EdgeOfficerChange:      9,
			contracts.EdgeSharedOfficer:      9,
			contracts.EdgeRelatedPartyTx:     30,
			contracts.EdgeGuarantee:          9,
			contracts.EdgeFundInvestment:     5,
			contracts.EdgeConvertibleBond:    5,
			contracts.EdgeSubsidiary:         40,
			contracts.EdgeFlaggedCounterpart: 4,
		},
	}}
	eng := NewEngine(counter, logger.NewNop())

	res, err := eng.Evaluate(context.Background(), &contracts.CompanyAttributes{
		CompanyID:               "B002",
		GraphID:                 "g1",
		DisclosureCorrections:   contracts.F(5),
		AuditorChanges:          contracts.F(2),
		LargestShareholderStake: contracts.F(0.6),
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.Score, 1e-9)
	assert.Equal(t, "CRITICAL", res.Level)
	assert.Len(t, res.Warnings, 11)
}

func TestScore_LevelBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "LOW"},
		{0.2499, "LOW"},
		{0.25, "MEDIUM"},
		{0.5, "HIGH"},
		{0.75, "CRITICAL"},
		{1, "CRITICAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Levels.Assign(tt.score), "score %v", tt.score)
	}
}

func TestScore_WarningThreshold(t *testing.T) {
	factors := []Factor{{
		Name: "f", Weight: 1,
		Signals: []Signal{
			{Name: "edge", Weight: 1, Saturation: 10, Graph: true, raw: edge(contracts.EdgeGuarantee)},
		},
	}}

	below := Score(factors, Inputs{Edges: contracts.EdgeCounts{contracts.EdgeGuarantee: 6}}, true)
	assert.Empty(t, below.Warnings)
	assert.Equal(t, "HIGH", below.Level)

	at := Score(factors, Inputs{Edges: contracts.EdgeCounts{contracts.EdgeGuarantee: 7}}, true)
	assert.Len(t, at.Warnings, 1)
}

func TestEvaluate_CounterError(t *testing.T) {
	eng := NewEngine(&fakeCounter{err: errors.New("boom")}, logger.NewNop())

	_, err := eng.Evaluate(context.Background(), &contracts.CompanyAttributes{CompanyID: "C", GraphID: "g"})
	assert.ErrorContains(t, err, "boom")
}

func TestCachedCounter_DisabledPassesThrough(t *testing.T) {
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)

	inner := &fakeCounter{edges: map[string]contracts.EdgeCounts{"g": {contracts.EdgeSubsidiary: 3}}}
	cached := NewCachedCounter(inner, redis.NewCache(client, "test"), redis.TTLShort, logger.NewNop())

	for i := 0; i < 2; i++ {
		edges, err := cached.CountEdges(context.Background(), "g")
		require.NoError(t, err)
		assert.Equal(t, 3, edges.Get(contracts.EdgeSubsidiary))
	}
	assert.Equal(t, 2, inner.calls)
	assert.NoError(t, cached.Invalidate(context.Background(), "g"))
}
