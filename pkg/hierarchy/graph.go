package hierarchy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrymomot/permkit/pkg/identifier"
)

// MaxDepth is the maximum allowed depth of a descendant chain. It bounds
// DFS recursion against pathological configuration.
const MaxDepth = 32

// Graph is a cycle-checked permission hierarchy with a precomputed
// transitive closure. Holding a parent permission implies every descendant
// reachable through the parent->children mapping.
//
// A Graph is immutable after Build and safe for concurrent use.
type Graph struct {
	// closure maps each parent to the full set of its transitive
	// descendants for O(1) amortized lookups.
	closure map[identifier.Identifier]map[identifier.Identifier]struct{}
}

// Option configures graph construction.
type Option func(*builder)

// WithNormalizer sets the identifier normalizer used for parents and
// children in the edge mapping. Defaults to the package-level normalizer
// without a module table.
func WithNormalizer(n *identifier.Normalizer) Option {
	return func(b *builder) {
		if n != nil {
			b.normalizer = n
		}
	}
}

type builder struct {
	normalizer *identifier.Normalizer
}

// Empty returns a graph with no edges. DescendantsOf always returns an
// empty set; used when hierarchy expansion is disabled.
func Empty() *Graph {
	return &Graph{closure: map[identifier.Identifier]map[identifier.Identifier]struct{}{}}
}

// Build constructs a Graph from a parent->children adjacency list given in
// any accepted identifier spelling.
//
// Every identifier is normalized up front; a spelling that fails
// normalization aborts the build with ErrInvalidEdge. A permission
// reachable from itself aborts the build with an error matching
// ErrCycleDetected that names the offending path.
//
// Build runs in O(V+E); lookups afterwards are O(1) amortized against the
// precomputed closure.
func Build(edges map[string][]string, opts ...Option) (*Graph, error) {
	b := &builder{normalizer: identifier.New()}
	for _, opt := range opts {
		opt(b)
	}

	adjacency := make(map[identifier.Identifier][]identifier.Identifier, len(edges))
	for rawParent, rawChildren := range edges {
		parent, err := b.normalizer.Normalize(rawParent)
		if err != nil {
			return nil, errors.Join(ErrInvalidEdge, fmt.Errorf("parent %q: %w", rawParent, err))
		}

		children := make([]identifier.Identifier, 0, len(rawChildren))
		seen := make(map[identifier.Identifier]struct{}, len(rawChildren))
		for _, rawChild := range rawChildren {
			child, err := b.normalizer.Normalize(rawChild)
			if err != nil {
				return nil, errors.Join(ErrInvalidEdge, fmt.Errorf("child %q of %q: %w", rawChild, rawParent, err))
			}
			if _, dup := seen[child]; dup {
				continue
			}
			seen[child] = struct{}{}
			children = append(children, child)
		}
		adjacency[parent] = children
	}

	if err := detectCycles(adjacency); err != nil {
		return nil, err
	}

	closure := make(map[identifier.Identifier]map[identifier.Identifier]struct{}, len(adjacency))
	memo := make(map[identifier.Identifier]nodeInfo, len(adjacency))
	for parent := range adjacency {
		info, err := collectDescendants(parent, adjacency, memo)
		if err != nil {
			return nil, err
		}
		closure[parent] = info.descendants
	}

	return &Graph{closure: closure}, nil
}

// DescendantsOf returns the sorted transitive descendants implied by
// holding p. Unknown and leaf permissions return an empty slice, never an
// error: an absent entry simply grants nothing extra.
func (g *Graph) DescendantsOf(p identifier.Identifier) []identifier.Identifier {
	set, ok := g.closure[p]
	if !ok {
		return nil
	}

	out := make([]identifier.Identifier, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Implies reports whether holding parent transitively grants child.
func (g *Graph) Implies(parent, child identifier.Identifier) bool {
	set, ok := g.closure[parent]
	if !ok {
		return false
	}
	_, ok = set[child]
	return ok
}

// Size returns the number of parents with at least one configured child.
func (g *Graph) Size() int {
	return len(g.closure)
}

// detectCycles runs a DFS with path tracking over the whole adjacency list
// so the returned error can name the cycle.
func detectCycles(adjacency map[identifier.Identifier][]identifier.Identifier) error {
	visited := make(map[identifier.Identifier]bool, len(adjacency))

	var visit func(node identifier.Identifier, onPath map[identifier.Identifier]bool, path []identifier.Identifier) error
	visit = func(node identifier.Identifier, onPath map[identifier.Identifier]bool, path []identifier.Identifier) error {
		if onPath[node] {
			return errors.Join(ErrCycleDetected, fmt.Errorf("cycle: %s", formatPath(append(path, node))))
		}
		if visited[node] {
			return nil
		}

		onPath[node] = true
		for _, child := range adjacency[node] {
			if err := visit(child, onPath, append(path, node)); err != nil {
				return err
			}
		}
		onPath[node] = false
		visited[node] = true
		return nil
	}

	for parent := range adjacency {
		if err := visit(parent, make(map[identifier.Identifier]bool), nil); err != nil {
			return err
		}
	}
	return nil
}

// nodeInfo carries the memoized closure per node. height is the length of
// the longest descendant chain below the node; it keeps the depth guard
// deterministic regardless of traversal order.
type nodeInfo struct {
	descendants map[identifier.Identifier]struct{}
	height      int
}

// collectDescendants memoizes the transitive descendant set per node.
// Cycles are ruled out beforehand, so only the depth guard can fail here.
func collectDescendants(
	node identifier.Identifier,
	adjacency map[identifier.Identifier][]identifier.Identifier,
	memo map[identifier.Identifier]nodeInfo,
) (nodeInfo, error) {
	if info, ok := memo[node]; ok {
		return info, nil
	}

	info := nodeInfo{descendants: make(map[identifier.Identifier]struct{})}
	for _, child := range adjacency[node] {
		info.descendants[child] = struct{}{}
		childInfo, err := collectDescendants(child, adjacency, memo)
		if err != nil {
			return nodeInfo{}, err
		}
		for id := range childInfo.descendants {
			info.descendants[id] = struct{}{}
		}
		if childInfo.height+1 > info.height {
			info.height = childInfo.height + 1
		}
	}

	if info.height > MaxDepth {
		return nodeInfo{}, errors.Join(ErrMaxDepthExceeded,
			fmt.Errorf("descendants of %q nest deeper than %d levels", node, MaxDepth))
	}

	memo[node] = info
	return info, nil
}

func formatPath(path []identifier.Identifier) string {
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = id.String()
	}
	return strings.Join(parts, " -> ")
}
