// Package identifier canonicalizes permission identifiers that arrive in
// mixed historical formats.
//
// A permission is addressed as module plus action. Three spellings of the
// same permission exist in the wild:
//
//   - canonical dotted: "inventory.read", "crm.commission.read"
//   - legacy colon: "inventory:read" (module and action split by the first colon)
//   - legacy underscore: "inventory_read", "master_data_delete"
//
// All evaluation happens against the canonical dotted form; this package is
// the single place where the other spellings are folded into it, and where
// legacy aliases are derived back out for compatibility probing.
//
// # Usage
//
//	import "github.com/dmitrymomot/permkit/pkg/identifier"
//
//	id, err := identifier.Normalize("master_data_delete")
//	// id == "master_data.delete"
//
//	id.Module()          // "master_data"
//	id.Action()          // "delete"
//	id.UnderscoreAlias() // "master_data_delete"
//	id.ColonAlias()      // "master_data:delete"
//
// # Underscore boundary resolution
//
// The underscore spelling is lossy: "master_data_delete" does not say
// whether the module is "master" or "master_data". By default the trailing
// token after the last underscore is treated as the action. When the set of
// module names is known, configure it so the boundary is confirmed instead
// of guessed:
//
//	n := identifier.New(identifier.WithModules("master_data", "crm.commission"))
//
//	n.Normalize("master_data_read_only") // "master_data.read_only"
//	n.Normalize("unknown_thing_read")    // ErrAmbiguousFormat
//
// With a module table configured, an input whose boundary no known module
// confirms fails with ErrAmbiguousFormat rather than guessing; callers
// treat that as a recoverable non-match.
//
// # Error Handling
//
// The package exposes two sentinel errors matchable with errors.Is:
//
//   - ErrInvalidIdentifier – the input fits none of the accepted formats.
//   - ErrAmbiguousFormat   – an underscore split could not be confirmed.
//
// Normalize never panics and has no side effects; normalization of an
// already-canonical identifier returns it unchanged.
package identifier
