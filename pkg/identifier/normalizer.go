package identifier

import (
	"errors"
	"fmt"
	"strings"
)

// Normalizer converts any accepted permission spelling into the canonical
// dotted form. It is pure and deterministic: the same input always yields
// the same output, and Normalize is idempotent over its own results.
//
// A Normalizer is safe for concurrent use after construction.
type Normalizer struct {
	// modules maps the underscore spelling of a known module name to its
	// canonical dotted form. Used to confirm the module/action boundary of
	// underscore inputs.
	modules map[string]string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithModules registers known module names used to resolve the split point
// of underscore inputs. Names may be given in canonical dotted form
// ("crm.commission") or flat form ("master_data"); matching is
// case-insensitive.
func WithModules(names ...string) Option {
	return func(n *Normalizer) {
		for _, name := range names {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			key := strings.ReplaceAll(name, Delimiter, UnderscoreSeparator)
			n.modules[key] = name
		}
	}
}

// New creates a Normalizer. Without WithModules, underscore inputs are
// split at the last underscore (the trailing token is the action).
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		modules: make(map[string]string),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// defaultNormalizer backs the package-level Normalize for callers that
// have no module table to configure.
var defaultNormalizer = New()

// Normalize converts raw into canonical form using the default Normalizer.
func Normalize(raw string) (Identifier, error) {
	return defaultNormalizer.Normalize(raw)
}

// Normalize converts a raw permission string into its canonical dotted
// identifier. Accepted spellings:
//
//   - canonical dotted: "inventory.read", "crm.commission.read"
//   - legacy colon: "inventory:read" (split on the first colon)
//   - legacy underscore: "inventory_read", "master_data_delete"
//
// Input is lower-cased first; anything that fits none of the formats fails
// with ErrInvalidIdentifier. An underscore input whose module/action
// boundary cannot be confirmed against the configured module table fails
// with ErrAmbiguousFormat.
func (n *Normalizer) Normalize(raw string) (Identifier, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.Join(ErrInvalidIdentifier, errors.New("empty identifier"))
	}

	switch {
	case strings.Contains(s, ColonSeparator):
		// Colon comes first: a colon alias of a nested identifier still
		// contains dots after the colon ("crm:commission.read").
		module, action, _ := strings.Cut(s, ColonSeparator)
		return makeIdentifier(s, module, action)
	case strings.Contains(s, Delimiter):
		id := Identifier(s)
		if !id.Valid() {
			return "", errors.Join(ErrInvalidIdentifier, fmt.Errorf("malformed identifier %q", raw))
		}
		return id, nil
	case strings.Contains(s, UnderscoreSeparator):
		return n.splitUnderscore(s)
	default:
		return "", errors.Join(ErrInvalidIdentifier, fmt.Errorf("identifier %q has no module/action boundary", raw))
	}
}

// splitUnderscore resolves the module/action boundary of a flat underscore
// spelling. With a module table the longest confirmed module prefix wins;
// without one the trailing token after the last underscore is the action.
func (n *Normalizer) splitUnderscore(s string) (Identifier, error) {
	tokens := strings.Split(s, UnderscoreSeparator)

	if len(n.modules) > 0 {
		// Longest prefix first so "master_data" beats "master".
		for i := len(tokens) - 1; i >= 1; i-- {
			prefix := strings.Join(tokens[:i], UnderscoreSeparator)
			module, ok := n.modules[prefix]
			if !ok {
				continue
			}
			action := strings.Join(tokens[i:], UnderscoreSeparator)
			return makeIdentifier(s, module, action)
		}
		return "", errors.Join(ErrAmbiguousFormat, fmt.Errorf("no configured module confirms a split of %q", s))
	}

	i := strings.LastIndex(s, UnderscoreSeparator)
	return makeIdentifier(s, s[:i], s[i+1:])
}

// makeIdentifier joins a module path and action and validates the result.
// raw is the original input, used only for error context.
func makeIdentifier(raw, module, action string) (Identifier, error) {
	if module == "" || action == "" {
		return "", errors.Join(ErrInvalidIdentifier, fmt.Errorf("identifier %q has an empty module or action", raw))
	}
	id := Identifier(module + Delimiter + action)
	if !id.Valid() {
		return "", errors.Join(ErrInvalidIdentifier, fmt.Errorf("malformed identifier %q", raw))
	}
	return id, nil
}
