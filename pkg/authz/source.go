package authz

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Source supplies the format configuration and hierarchy mapping the
// evaluator consumes. Implementations own all network concerns; the
// evaluator only interprets what they return.
type Source interface {
	// FormatConfig returns the current configuration snapshot.
	FormatConfig(ctx context.Context) (FormatConfig, error)

	// Hierarchy returns the parent->children permission mapping in any
	// accepted identifier spelling.
	Hierarchy(ctx context.Context) (map[string][]string, error)
}

// PermissionSource supplies a principal's raw permission snapshot from the
// session/auth layer.
type PermissionSource interface {
	Permissions(ctx context.Context, principalID uuid.UUID) (Principal, error)
}

// StaticSource is an in-memory Source for tests and applications whose
// configuration ships with the binary. It is thread-safe and makes
// defensive copies on both write and read.
type StaticSource struct {
	mu     sync.RWMutex
	config FormatConfig
	edges  map[string][]string
}

// NewStaticSource creates a StaticSource from a config snapshot and a
// hierarchy mapping.
func NewStaticSource(cfg FormatConfig, edges map[string][]string) *StaticSource {
	return &StaticSource{
		config: cfg,
		edges:  cloneEdges(edges),
	}
}

// FormatConfig returns the configured snapshot.
func (s *StaticSource) FormatConfig(ctx context.Context) (FormatConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config
	cfg.LegacyFormats = slices.Clone(cfg.LegacyFormats)
	return cfg, nil
}

// Hierarchy returns a copy of the configured mapping.
func (s *StaticSource) Hierarchy(ctx context.Context) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEdges(s.edges), nil
}

// SetConfig replaces the configuration snapshot, simulating a config
// version bump.
func (s *StaticSource) SetConfig(cfg FormatConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

// SetHierarchy replaces the hierarchy mapping.
func (s *StaticSource) SetHierarchy(edges map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = cloneEdges(edges)
}

func cloneEdges(edges map[string][]string) map[string][]string {
	out := make(map[string][]string, len(edges))
	for parent, children := range edges {
		out[parent] = slices.Clone(children)
	}
	return out
}

// StaticPermissionSource is an in-memory PermissionSource keyed by
// principal ID.
type StaticPermissionSource struct {
	mu         sync.RWMutex
	principals map[uuid.UUID]Principal
}

// NewStaticPermissionSource creates a StaticPermissionSource from the
// given principals.
func NewStaticPermissionSource(principals ...Principal) *StaticPermissionSource {
	s := &StaticPermissionSource{
		principals: make(map[uuid.UUID]Principal, len(principals)),
	}
	for _, p := range principals {
		s.principals[p.ID] = p.clone()
	}
	return s
}

// Permissions returns the principal with the given ID, or
// ErrPermissionFetch if it is unknown.
func (s *StaticPermissionSource) Permissions(ctx context.Context, principalID uuid.UUID) (Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.principals[principalID]
	if !ok {
		return Principal{}, ErrPermissionFetch
	}
	return p.clone(), nil
}

// Set stores or replaces a principal, simulating a role reassignment.
func (s *StaticPermissionSource) Set(p Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.principals == nil {
		s.principals = make(map[uuid.UUID]Principal)
	}
	s.principals[p.ID] = p.clone()
}

// compile-time interface checks
var (
	_ Source           = (*StaticSource)(nil)
	_ PermissionSource = (*StaticPermissionSource)(nil)
)
