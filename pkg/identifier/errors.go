package identifier

import "errors"

// Domain errors for identifier normalization.
var (
	// ErrInvalidIdentifier is returned when a raw string cannot be mapped
	// to any accepted permission format.
	ErrInvalidIdentifier = errors.New("identifier.invalid_format")

	// ErrAmbiguousFormat is returned when an underscore spelling has more
	// than one plausible module/action boundary and the configured module
	// table does not confirm any of them.
	ErrAmbiguousFormat = errors.New("identifier.ambiguous_format")
)
