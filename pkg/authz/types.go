package authz

import (
	"slices"

	"github.com/google/uuid"
)

// Format names used by FormatConfig.
const (
	FormatDotted     = "dotted"
	FormatColon      = "colon"
	FormatUnderscore = "underscore"
)

// FormatConfig is an immutable snapshot of the identifier format and
// hierarchy configuration for one session/version. It is replaced
// wholesale on a version bump, never mutated in place.
type FormatConfig struct {
	// PrimaryFormat is the spelling new permission data is written in.
	PrimaryFormat string `json:"primary_format"`

	// CompatibilityEnabled unions legacy aliases into the effective
	// permission index so callers probing historical spellings still match.
	CompatibilityEnabled bool `json:"compatibility"`

	// LegacyFormats lists the historical spellings still in circulation.
	LegacyFormats []string `json:"legacy_formats"`

	// HierarchyEnabled turns on transitive expansion over the configured
	// permission hierarchy.
	HierarchyEnabled bool `json:"hierarchy_enabled"`

	// Version identifies the configuration snapshot. The hierarchy graph
	// is rebuilt only when it changes.
	Version string `json:"version"`

	// MigrationStatus is reported for diagnostics only.
	MigrationStatus string `json:"migration_status"`
}

// DefaultFormatConfig returns the fallback used when the configuration
// endpoint responds with an unusable schema: keep legacy spellings
// working, grant nothing through the hierarchy.
func DefaultFormatConfig() FormatConfig {
	return FormatConfig{
		PrimaryFormat:        FormatDotted,
		CompatibilityEnabled: true,
		LegacyFormats:        []string{FormatUnderscore, FormatColon},
		HierarchyEnabled:     false,
	}
}

// Principal is one authenticated entity's raw permission snapshot as
// supplied by the session layer. It is immutable; a role change or
// authentication refresh produces a new value.
type Principal struct {
	ID          uuid.UUID
	Permissions []string
	SuperAdmin  bool
}

// clone returns a defensive copy so later mutation of the caller's slice
// cannot leak into a stored snapshot.
func (p Principal) clone() Principal {
	p.Permissions = slices.Clone(p.Permissions)
	return p
}

// Capability addresses one permission as a module/action pair.
type Capability struct {
	Module string
	Action string
}

// Cap is shorthand for constructing a Capability.
func Cap(module, action string) Capability {
	return Capability{Module: module, Action: action}
}

// Decision is the tri-state result of a permission query.
//
// Pending is reported while configuration or permissions have not arrived
// yet, so a UI can defer rendering instead of flashing "access denied".
// A zero Decision is a plain denial.
type Decision struct {
	Granted bool
	Pending bool
}

// Denied reports a definitive denial (not granted and not pending).
func (d Decision) Denied() bool {
	return !d.Granted && !d.Pending
}

// FormatInfo is a diagnostic snapshot of the evaluator's current
// configuration and lifecycle state.
type FormatInfo struct {
	State                State
	PrimaryFormat        string
	CompatibilityEnabled bool
	HierarchyEnabled     bool
	// HierarchyActive is false when expansion was requested but disabled,
	// for example after a cycle in the configured mapping.
	HierarchyActive bool
	Version         string
	MigrationStatus string
	IndexSize       int
}
