package authz

import "errors"

// Domain errors for permission evaluation and its data sources.
var (
	// ErrConfigFetch is returned when the format configuration cannot be
	// retrieved. The evaluator enters its error state and fails closed.
	ErrConfigFetch = errors.New("authz.config_fetch_failed")

	// ErrHierarchyFetch is returned when the hierarchy mapping cannot be
	// retrieved. Hierarchy expansion is disabled; direct and legacy checks
	// keep working.
	ErrHierarchyFetch = errors.New("authz.hierarchy_fetch_failed")

	// ErrPermissionFetch is returned when a principal's permission set
	// cannot be retrieved. The evaluator enters its error state and fails
	// closed.
	ErrPermissionFetch = errors.New("authz.permission_fetch_failed")

	// ErrNoPrincipal is returned by Reload when no principal has been
	// loaded yet.
	ErrNoPrincipal = errors.New("authz.no_principal")

	// ErrNoPermissionSource is returned by LoadPrincipal when the
	// evaluator was built without a permission source.
	ErrNoPermissionSource = errors.New("authz.no_permission_source")
)
