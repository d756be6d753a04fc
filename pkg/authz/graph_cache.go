package authz

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dmitrymomot/permkit/pkg/hierarchy"
)

// GraphCache caches built hierarchy graphs keyed by config version. The
// graph changes only on version bumps while the permission index changes
// on every login or role update, so caching here avoids rebuilding the
// closure on each index rebuild.
//
// A GraphCache is safe for concurrent use and may be shared between
// evaluators.
type GraphCache struct {
	cache *lru.Cache[string, *hierarchy.Graph]
}

// NewGraphCache creates a cache holding up to size graphs.
func NewGraphCache(size int) (*GraphCache, error) {
	cache, err := lru.New[string, *hierarchy.Graph](size)
	if err != nil {
		return nil, err
	}
	return &GraphCache{cache: cache}, nil
}

// GetOrBuild returns the cached graph for version, building and caching it
// on a miss. An empty version is never cached: without a version there is
// nothing to invalidate on, so the graph is rebuilt each time. Build
// failures are returned and not cached.
func (c *GraphCache) GetOrBuild(version string, edges map[string][]string, opts ...hierarchy.Option) (*hierarchy.Graph, error) {
	if version == "" {
		return hierarchy.Build(edges, opts...)
	}

	if g, ok := c.cache.Get(version); ok {
		return g, nil
	}

	g, err := hierarchy.Build(edges, opts...)
	if err != nil {
		return nil, err
	}
	c.cache.Add(version, g)
	return g, nil
}

// Purge drops every cached graph.
func (c *GraphCache) Purge() {
	c.cache.Purge()
}
