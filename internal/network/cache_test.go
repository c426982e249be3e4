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

type countingGraph struct {
	edges contracts.EdgeCounts
	attrs map[string]*contracts.CompanyAttributes
	err   error
	calls int
}

func (g *countingGraph) CountEdges(ctx context.Context, graphID string) (contracts.EdgeCounts, error) {
	g.calls++
	return g.edges, g.err
}

func (g *countingGraph) GetAttributes(ctx context.Context, companyID string) (*contracts.CompanyAttributes, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if a, ok := g.attrs[companyID]; ok {
		return a, nil
	}
	return &contracts.CompanyAttributes{CompanyID: companyID}, nil
}

func disabledCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	return redis.NewCache(client, "test")
}

func TestCachedCounter_DisabledCachePassesThrough(t *testing.T) {
	graph := &countingGraph{edges: contracts.EdgeCounts{contracts.EdgeGuarantee: 2}}
	counter := NewCachedCounter(graph, disabledCache(t), redis.TTLShort, logger.NewNop())

	for i := 0; i < 2; i++ {
		edges, err := counter.CountEdges(context.Background(), "g1")
		require.NoError(t, err)
		assert.Equal(t, 2, edges[contracts.EdgeGuarantee])
	}
	assert.Equal(t, 2, graph.calls)
	assert.NoError(t, counter.Invalidate(context.Background(), "g1"))
}

func TestCachedAttributes_PassThroughAndErrors(t *testing.T) {
	graph := &countingGraph{attrs: map[string]*contracts.CompanyAttributes{
		"c1": {CompanyID: "c1", GraphID: "g1", AuditorChanges: contracts.F(1)},
	}}
	reader := NewCachedAttributes(graph, disabledCache(t), redis.TTLShort, logger.NewNop())

	attrs, err := reader.GetAttributes(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, attrs.Linked())

	attrs, err = reader.GetAttributes(context.Background(), "c2")
	require.NoError(t, err)
	assert.False(t, attrs.Linked())

	graph.err = errors.New("graph down")
	_, err = reader.GetAttributes(context.Background(), "c1")
	assert.ErrorIs(t, err, graph.err)
}
