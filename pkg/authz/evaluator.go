package authz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dmitrymomot/permkit/pkg/hierarchy"
	"github.com/dmitrymomot/permkit/pkg/identifier"
)

// snapshot bundles everything one query needs. It is swapped wholesale so
// readers observe either the complete old or complete new state, never a
// mix.
type snapshot struct {
	config FormatConfig
	graph  *hierarchy.Graph
	index  *Index
	// hierarchyActive is false when expansion was requested but had to be
	// disabled (cycle or fetch failure).
	hierarchyActive bool
}

// Evaluator answers permission queries for one principal. It owns the
// lifecycle of the derived permission index: load on login, rebuild on
// role change or config version bump, fail closed on fetch errors.
//
// All query methods are safe for concurrent use with loads.
type Evaluator struct {
	source     Source
	perms      PermissionSource
	normalizer *identifier.Normalizer
	logger     *slog.Logger
	graphs     *GraphCache

	state *lifecycle
	snap  atomic.Pointer[snapshot]

	// loadSeq orders loads; a completed load is discarded if a newer one
	// started after it (last-write-wins).
	loadSeq atomic.Uint64

	mu           sync.Mutex // guards applied, principalSeq, principal, lastErr
	applied      uint64
	principalSeq uint64
	principal    *Principal
	lastErr      error
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithNormalizer sets the identifier normalizer shared by query parsing,
// index building, and hierarchy construction.
func WithNormalizer(n *identifier.Normalizer) Option {
	return func(e *Evaluator) {
		if n != nil {
			e.normalizer = n
		}
	}
}

// WithLogger sets a custom logger for the evaluator.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPermissionSource enables LoadPrincipal, which fetches the
// principal's permission snapshot from the session/auth layer by ID.
func WithPermissionSource(ps PermissionSource) Option {
	return func(e *Evaluator) {
		e.perms = ps
	}
}

// WithGraphCache sets the cache of hierarchy graphs keyed by config
// version. Defaults to a small per-evaluator cache.
func WithGraphCache(c *GraphCache) Option {
	return func(e *Evaluator) {
		if c != nil {
			e.graphs = c
		}
	}
}

// NewEvaluator creates an evaluator over the given configuration source.
// No data is fetched until the first Load; queries report pending until
// then.
func NewEvaluator(source Source, opts ...Option) *Evaluator {
	e := &Evaluator{
		source:     source,
		normalizer: identifier.New(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:      newLifecycle(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.graphs == nil {
		// Size covers a handful of config versions during a rollout.
		e.graphs, _ = NewGraphCache(8)
	}
	return e
}

// Load fetches the configuration, builds the hierarchy graph and the
// principal's effective permission index, and installs them as the
// current snapshot.
//
// A configuration fetch failure moves the evaluator into StateError and
// is returned; a hierarchy fetch failure or cycle only disables expansion.
// If a newer load starts while this one is in flight, this one's result
// is discarded on arrival.
func (e *Evaluator) Load(ctx context.Context, p Principal) error {
	return e.load(ctx, p.clone())
}

// LoadPrincipal fetches the principal's permission snapshot from the
// configured PermissionSource, then loads as Load does.
func (e *Evaluator) LoadPrincipal(ctx context.Context, principalID uuid.UUID) error {
	if e.perms == nil {
		return ErrNoPermissionSource
	}

	seqGuard := e.loadSeq.Load()
	p, err := e.perms.Permissions(ctx, principalID)
	if err != nil {
		err = errors.Join(ErrPermissionFetch, err)
		e.fail(e.loadSeq.Add(1), err)
		return err
	}
	// A load that started after the fetch began wins over this one.
	if e.loadSeq.Load() != seqGuard {
		return nil
	}
	return e.load(ctx, p)
}

// Reload rebuilds the snapshot for the already-loaded principal, picking
// up config version bumps and hierarchy changes.
func (e *Evaluator) Reload(ctx context.Context) error {
	e.mu.Lock()
	p := e.principal
	e.mu.Unlock()

	if p == nil {
		return ErrNoPrincipal
	}
	return e.load(ctx, p.clone())
}

// SetPrincipal replaces the principal (login or role reassignment) and
// rebuilds the index against the current configuration.
func (e *Evaluator) SetPrincipal(ctx context.Context, p Principal) error {
	return e.load(ctx, p.clone())
}

func (e *Evaluator) load(ctx context.Context, p Principal) error {
	seq := e.loadSeq.Add(1)

	// Record the principal up front: the super-admin bypass must hold even
	// when the fetches below fail.
	e.mu.Lock()
	if seq > e.principalSeq {
		e.principalSeq = seq
		e.principal = &p
	}
	e.mu.Unlock()

	e.state.to(StateLoading)

	cfg, err := e.source.FormatConfig(ctx)
	if err != nil {
		err = errors.Join(ErrConfigFetch, err)
		e.fail(seq, err)
		return err
	}

	graph := hierarchy.Empty()
	hierarchyActive := false
	if cfg.HierarchyEnabled {
		edges, err := e.source.Hierarchy(ctx)
		switch {
		case err != nil:
			// Expansion off, everything else keeps working.
			e.logger.Warn("hierarchy fetch failed, expansion disabled",
				slog.Any("error", errors.Join(ErrHierarchyFetch, err)))
		default:
			g, err := e.graphs.GetOrBuild(cfg.Version, edges, hierarchy.WithNormalizer(e.normalizer))
			if err != nil {
				e.logger.Error("hierarchy build failed, expansion disabled",
					slog.String("config_version", cfg.Version),
					slog.Any("error", err))
			} else {
				graph = g
				hierarchyActive = true
			}
		}
	}

	index := BuildIndex(p.Permissions, cfg, graph,
		WithIndexNormalizer(e.normalizer),
		WithIndexLogger(e.logger))

	e.commit(seq, &snapshot{
		config:          cfg,
		graph:           graph,
		index:           index,
		hierarchyActive: hierarchyActive,
	})
	return nil
}

// commit installs the snapshot unless a newer load already finished.
func (e *Evaluator) commit(seq uint64, snap *snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seq <= e.applied {
		e.logger.Debug("discarding superseded load", slog.Uint64("seq", seq))
		return
	}
	e.applied = seq
	e.lastErr = nil
	e.snap.Store(snap)
	e.state.to(StateReady)
}

// fail records a load failure unless a newer load already finished.
func (e *Evaluator) fail(seq uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seq <= e.applied {
		e.logger.Debug("discarding superseded load failure", slog.Uint64("seq", seq))
		return
	}
	e.applied = seq
	e.lastErr = err
	e.state.to(StateError)
}

// HasPermission evaluates one module/action pair.
//
// Super-admins are granted unconditionally, bypassing every other rule
// including error states. A pair that fails normalization is a plain
// denial; an evaluator without data yet reports pending; an evaluator in
// StateError fails closed.
func (e *Evaluator) HasPermission(module, action string) Decision {
	if e.isSuperAdmin() {
		return Decision{Granted: true}
	}

	switch e.state.current() {
	case StateError:
		return Decision{}
	case StateUninitialized:
		return Decision{Pending: true}
	}

	snap := e.snap.Load()
	if snap == nil {
		// First load still in flight.
		return Decision{Pending: true}
	}

	id, err := e.normalizer.Normalize(module + identifier.Delimiter + action)
	if err != nil {
		e.logger.Debug("denying unnormalizable query",
			slog.String("module", module),
			slog.String("action", action),
			slog.Any("error", err))
		return Decision{}
	}

	if snap.index.Contains(id.String()) {
		return Decision{Granted: true}
	}
	if snap.config.CompatibilityEnabled {
		for _, alias := range id.LegacyAliases() {
			if snap.index.Contains(alias) {
				return Decision{Granted: true}
			}
		}
	}
	return Decision{}
}

// HasAnyPermission reports whether at least one pair is granted. It
// short-circuits on the first grant; with no grant, a pending pair makes
// the whole answer pending.
func (e *Evaluator) HasAnyPermission(caps ...Capability) Decision {
	pending := false
	for _, c := range caps {
		d := e.HasPermission(c.Module, c.Action)
		if d.Granted {
			return d
		}
		pending = pending || d.Pending
	}
	return Decision{Pending: pending}
}

// HasAllPermissions reports whether every pair is granted. A definitive
// denial short-circuits; otherwise a pending pair makes the whole answer
// pending.
func (e *Evaluator) HasAllPermissions(caps ...Capability) Decision {
	pending := false
	for _, c := range caps {
		d := e.HasPermission(c.Module, c.Action)
		if d.Denied() {
			return Decision{}
		}
		pending = pending || d.Pending
	}
	if pending {
		return Decision{Pending: true}
	}
	return Decision{Granted: true}
}

// State returns the current lifecycle state.
func (e *Evaluator) State() State {
	return e.state.current()
}

// LastError returns the error that moved the evaluator into StateError,
// if any. The evaluator never retries on its own; surface this to the
// caller and retry with Reload.
func (e *Evaluator) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// CurrentFormatInfo returns a diagnostic snapshot of the active
// configuration and lifecycle state.
func (e *Evaluator) CurrentFormatInfo() FormatInfo {
	info := FormatInfo{State: e.state.current()}

	snap := e.snap.Load()
	if snap == nil {
		return info
	}

	info.PrimaryFormat = snap.config.PrimaryFormat
	info.CompatibilityEnabled = snap.config.CompatibilityEnabled
	info.HierarchyEnabled = snap.config.HierarchyEnabled
	info.HierarchyActive = snap.hierarchyActive
	info.Version = snap.config.Version
	info.MigrationStatus = snap.config.MigrationStatus
	info.IndexSize = snap.index.Len()
	return info
}

func (e *Evaluator) isSuperAdmin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.principal != nil && e.principal.SuperAdmin
}
