package network

import (
	"context"
	"time"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/pkg/logger"
	"github.com/wonny/aegis-credit/pkg/redis"
)

// CachedCounter serves edge counts from Redis, falling back to the wrapped counter
type CachedCounter struct {
	next   EdgeCounter
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedCounter wraps next with a read-through cache
func NewCachedCounter(next EdgeCounter, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedCounter {
	return &CachedCounter{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithField("module", "network.cache"),
	}
}

// CountEdges implements EdgeCounter. Cache failures are logged and bypassed.
func (c *CachedCounter) CountEdges(ctx context.Context, graphID string) (contracts.EdgeCounts, error) {
	key := redis.EdgeCountKey(graphID)

	var edges contracts.EdgeCounts
	found, err := c.cache.Get(ctx, key, &edges)
	if err != nil {
		c.logger.WithError(err).WithField("graph_id", graphID).Warn("Edge cache read failed")
	} else if found {
		return edges, nil
	}

	edges, err = c.next.CountEdges(ctx, graphID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, edges, c.ttl); err != nil {
		c.logger.WithError(err).WithField("graph_id", graphID).Warn("Edge cache write failed")
	}
	return edges, nil
}

// Invalidate drops the cached counts of graphID
func (c *CachedCounter) Invalidate(ctx context.Context, graphID string) error {
	return c.cache.Delete(ctx, redis.EdgeCountKey(graphID))
}

// AttributeReader reads the stored qualitative attributes of a company
type AttributeReader interface {
	GetAttributes(ctx context.Context, companyID string) (*contracts.CompanyAttributes, error)
}

// CachedAttributes serves company attributes from Redis in front of the graph store
type CachedAttributes struct {
	next   AttributeReader
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedAttributes wraps next with a read-through cache
func NewCachedAttributes(next AttributeReader, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedAttributes {
	return &CachedAttributes{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.WithField("module", "network.cache"),
	}
}

// GetAttributes implements AttributeReader. Unlinked companies are cached too.
func (c *CachedAttributes) GetAttributes(ctx context.Context, companyID string) (*contracts.CompanyAttributes, error) {
	key := redis.AttributesKey(companyID)

	var attrs contracts.CompanyAttributes
	found, err := c.cache.Get(ctx, key, &attrs)
	if err != nil {
		c.logger.WithError(err).WithField("company_id", companyID).Warn("Attribute cache read failed")
	} else if found {
		return &attrs, nil
	}

	fresh, err := c.next.GetAttributes(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, fresh, c.ttl); err != nil {
		c.logger.WithError(err).WithField("company_id", companyID).Warn("Attribute cache write failed")
	}
	return fresh, nil
}
