package identifier

import (
	"regexp"
	"strings"
)

const (
	// Delimiter separates segments of a canonical identifier (e.g., "inventory.read").
	Delimiter = "."

	// UnderscoreSeparator is used by the legacy underscore spelling (e.g., "inventory_read").
	UnderscoreSeparator = "_"

	// ColonSeparator is used by the legacy colon spelling (e.g., "inventory:read").
	ColonSeparator = ":"
)

// canonicalPattern matches a lower-cased dotted identifier with at least
// two segments: module(.submodule)*.action
var canonicalPattern = regexp.MustCompile(`^[a-z0-9_]+(\.[a-z0-9_]+)+$`)

// Identifier is a canonical permission identifier in dotted form.
// The last segment is the action; everything before it is the module path.
// Identifiers are immutable value types; construct them through Normalize
// rather than by casting untrusted strings.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Valid reports whether the identifier is in canonical form.
func (id Identifier) Valid() bool {
	return canonicalPattern.MatchString(string(id))
}

// Segments returns the dot-separated parts of the identifier.
func (id Identifier) Segments() []string {
	return strings.Split(string(id), Delimiter)
}

// Module returns the module path (all segments except the last).
func (id Identifier) Module() string {
	i := strings.LastIndex(string(id), Delimiter)
	if i < 0 {
		return string(id)
	}
	return string(id)[:i]
}

// Action returns the trailing segment of the identifier.
func (id Identifier) Action() string {
	i := strings.LastIndex(string(id), Delimiter)
	if i < 0 {
		return ""
	}
	return string(id)[i+1:]
}

// UnderscoreAlias returns the legacy underscore spelling: every dot becomes
// an underscore ("master_data.delete" -> "master_data_delete").
func (id Identifier) UnderscoreAlias() string {
	return strings.ReplaceAll(string(id), Delimiter, UnderscoreSeparator)
}

// ColonAlias returns the legacy colon spelling: only the first dot becomes
// a colon ("crm.commission.read" -> "crm:commission.read").
func (id Identifier) ColonAlias() string {
	return strings.Replace(string(id), Delimiter, ColonSeparator, 1)
}

// LegacyAliases returns both derived legacy spellings. Aliases are never a
// source of truth; they exist so callers probing historical formats still
// match.
func (id Identifier) LegacyAliases() []string {
	return []string{id.UnderscoreAlias(), id.ColonAlias()}
}
