package graph

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

var meter = otel.Meter("relgraph.graph")

// Builder assembles a new graph.
type Builder interface {
	Assemble(ctx context.Context) (*Graph, error)
}

// CacheEntry is one assembled graph and the generation it belongs to.
type CacheEntry struct {
	Graph      *Graph
	BuiltAt    time.Time
	Generation uint64
}

// CacheStats are the counters of a GraphCache.
type CacheStats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Builds        int64 `json:"builds"`
	Invalidations int64 `json:"invalidations"`
}

type cacheMetrics struct {
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	builds        metric.Int64Counter
	invalidations metric.Int64Counter
}

// GraphCache holds the latest assembled graph. Readers see either the old or
// the new entry, never a partial one.
type GraphCache struct {
	builder    Builder
	entry      atomic.Pointer[CacheEntry]
	generation atomic.Uint64
	flight     singleflight.Group
	logger     *slog.Logger
	metrics    *cacheMetrics

	hits          atomic.Int64
	misses        atomic.Int64
	builds        atomic.Int64
	invalidations atomic.Int64
}

// NewGraphCache creates an empty cache around builder.
func NewGraphCache(builder Builder, logger *slog.Logger) *GraphCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &GraphCache{builder: builder, logger: logger}

	m, err := newCacheMetrics()
	if err != nil {
		logger.Warn("Cache metrics disabled", slog.String("error", err.Error()))
	} else {
		c.metrics = m
	}

	return c
}

func newCacheMetrics() (*cacheMetrics, error) {
	var m cacheMetrics
	var err error

	m.hits, err = meter.Int64Counter("relgraph_cache_hits_total",
		metric.WithDescription("Graph cache lookups served from the cache"))
	if err != nil {
		return nil, err
	}
	m.misses, err = meter.Int64Counter("relgraph_cache_misses_total",
		metric.WithDescription("Graph cache lookups that required a build"))
	if err != nil {
		return nil, err
	}
	m.builds, err = meter.Int64Counter("relgraph_cache_builds_total",
		metric.WithDescription("Graph assemblies"))
	if err != nil {
		return nil, err
	}
	m.invalidations, err = meter.Int64Counter("relgraph_cache_invalidations_total",
		metric.WithDescription("Graph cache invalidations"))
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (c *GraphCache) count(ctx context.Context, local *atomic.Int64, counter func(*cacheMetrics) metric.Int64Counter) {
	local.Add(1)
	if c.metrics != nil {
		counter(c.metrics).Add(ctx, 1)
	}
}

// Build returns the cached graph, the same pointer on every call, unless
// force is set or the cache is empty. Concurrent builds share one assembly,
// so forced builds that overlap return the same new graph to every caller.
// A forced build that starts after another one finished always assembles a new graph.
func (c *GraphCache) Build(ctx context.Context, force bool) (*Graph, error) {
	if !force {
		if entry := c.entry.Load(); entry != nil {
			c.count(ctx, &c.hits, func(m *cacheMetrics) metric.Int64Counter { return m.hits })
			return entry.Graph, nil
		}
	}
	c.count(ctx, &c.misses, func(m *cacheMetrics) metric.Int64Counter { return m.misses })

	key := "build"
	if force {
		key = "force"
	}

	result, err, _ := c.flight.Do(key, func() (interface{}, error) {
		generation := c.generation.Load()

		g, err := c.builder.Assemble(ctx)
		if err != nil {
			return nil, err
		}
		c.count(ctx, &c.builds, func(m *cacheMetrics) metric.Int64Counter { return m.builds })

		entry := &CacheEntry{Graph: g, BuiltAt: g.BuiltAt(), Generation: generation}
		// A graph whose build overlapped an invalidation is returned but not cached.
		if c.generation.Load() == generation {
			c.entry.Store(entry)
			if c.generation.Load() != generation {
				c.entry.CompareAndSwap(entry, nil)
			}
		} else {
			c.logger.Debug("Discarded graph built before invalidation", slog.Uint64("generation", generation))
		}

		return g, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Graph), nil
}

// Invalidate clears the cached graph. The next Build assembles a new one.
func (c *GraphCache) Invalidate() {
	c.generation.Add(1)
	c.entry.Store(nil)
	c.count(context.Background(), &c.invalidations, func(m *cacheMetrics) metric.Int64Counter { return m.invalidations })
	c.logger.Debug("Invalidated graph cache", slog.Uint64("generation", c.generation.Load()))
}

// Entry returns the current cache entry or nil.
func (c *GraphCache) Entry() *CacheEntry {
	return c.entry.Load()
}

func (c *GraphCache) Stats() CacheStats {
	return CacheStats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Builds:        c.builds.Load(),
		Invalidations: c.invalidations.Load(),
	}
}
