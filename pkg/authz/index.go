package authz

import (
	"io"
	"log/slog"
	"sort"

	"github.com/samber/lo"

	"github.com/dmitrymomot/permkit/pkg/hierarchy"
	"github.com/dmitrymomot/permkit/pkg/identifier"
)

// Index is the effective permission set derived for one principal under
// one configuration snapshot: normalized raw permissions, their hierarchy
// closure, and (with compatibility enabled) the legacy aliases of the
// expanded set.
//
// An Index is immutable after BuildIndex; membership checks are O(1).
type Index struct {
	members map[string]struct{}
}

// IndexOption configures index construction.
type IndexOption func(*indexBuilder)

// WithIndexNormalizer sets the normalizer used for the principal's raw
// permission strings.
func WithIndexNormalizer(n *identifier.Normalizer) IndexOption {
	return func(b *indexBuilder) {
		if n != nil {
			b.normalizer = n
		}
	}
}

// WithIndexLogger sets the logger used to report dropped raw permissions.
func WithIndexLogger(logger *slog.Logger) IndexOption {
	return func(b *indexBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

type indexBuilder struct {
	normalizer *identifier.Normalizer
	logger     *slog.Logger
}

// BuildIndex derives the effective permission set for one principal.
//
// Raw strings that fail normalization are dropped and logged, never fatal:
// one bad legacy entry must not invalidate the rest of the set. The graph
// is consulted only when cfg.HierarchyEnabled is set; legacy aliases are
// unioned in only when cfg.CompatibilityEnabled is set.
func BuildIndex(rawPermissions []string, cfg FormatConfig, graph *hierarchy.Graph, opts ...IndexOption) *Index {
	b := &indexBuilder{
		normalizer: identifier.New(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}

	if graph == nil {
		graph = hierarchy.Empty()
	}

	base := make([]identifier.Identifier, 0, len(rawPermissions))
	for _, raw := range rawPermissions {
		id, err := b.normalizer.Normalize(raw)
		if err != nil {
			b.logger.Warn("dropping unnormalizable permission",
				slog.String("permission", raw),
				slog.Any("error", err))
			continue
		}
		base = append(base, id)
	}
	base = lo.Uniq(base)

	expanded := make(map[identifier.Identifier]struct{}, len(base)*2)
	for _, id := range base {
		expanded[id] = struct{}{}
		if cfg.HierarchyEnabled {
			for _, descendant := range graph.DescendantsOf(id) {
				expanded[descendant] = struct{}{}
			}
		}
	}

	members := make(map[string]struct{}, len(expanded)*3)
	for id := range expanded {
		members[id.String()] = struct{}{}
		if cfg.CompatibilityEnabled {
			for _, alias := range id.LegacyAliases() {
				members[alias] = struct{}{}
			}
		}
	}

	return &Index{members: members}
}

// Contains reports whether the given spelling is in the effective set.
func (i *Index) Contains(permission string) bool {
	if i == nil {
		return false
	}
	_, ok := i.members[permission]
	return ok
}

// Len returns the number of entries in the effective set, aliases included.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.members)
}

// Members returns the sorted effective set for diagnostics.
func (i *Index) Members() []string {
	if i == nil {
		return nil
	}
	out := lo.Keys(i.members)
	sort.Strings(out)
	return out
}
