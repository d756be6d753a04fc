package hierarchy

import "errors"

// Domain errors for hierarchy graph construction.
var (
	// ErrCycleDetected is returned when a permission is reachable from
	// itself through the parent->children mapping.
	ErrCycleDetected = errors.New("hierarchy.cycle_detected")

	// ErrInvalidEdge is returned when a parent or child in the mapping
	// fails identifier normalization. Hierarchy data is configuration and
	// must be clean; it is not silently repaired.
	ErrInvalidEdge = errors.New("hierarchy.invalid_edge")

	// ErrMaxDepthExceeded is returned when a descendant chain nests deeper
	// than MaxDepth.
	ErrMaxDepthExceeded = errors.New("hierarchy.max_depth_exceeded")
)
