// Package authz resolves permission queries for one authenticated
// principal against a runtime-supplied format and hierarchy configuration.
//
// The evaluator combines three inputs into an immutable effective
// permission index:
//
//   - the principal's raw permission strings, canonicalized by
//     pkg/identifier (bad legacy entries are dropped and logged, never fatal)
//   - the transitive closure of the configured permission hierarchy
//     (pkg/hierarchy), when hierarchy expansion is enabled
//   - the legacy aliases of the expanded set, when compatibility mode is
//     enabled
//
// Queries are tri-state: granted, denied, or pending while the inputs have
// not arrived yet, so a UI can defer rendering instead of flashing
// "access denied". Every error condition fails closed; the only path
// immune to error states is the super-admin bypass.
//
// # Usage
//
//	import "github.com/dmitrymomot/permkit/pkg/authz"
//
//	source := authz.NewStaticSource(authz.FormatConfig{
//	    PrimaryFormat:        authz.FormatDotted,
//	    CompatibilityEnabled: true,
//	    HierarchyEnabled:     true,
//	    Version:              "v42",
//	}, map[string][]string{
//	    "master_data.read": {"vendors.read", "products.read", "inventory.read"},
//	})
//
//	eval := authz.NewEvaluator(source)
//	if err := eval.Load(ctx, authz.Principal{
//	    ID:          userID,
//	    Permissions: []string{"master_data.read", "voucher_create"},
//	}); err != nil {
//	    // evaluator is in StateError; queries fail closed until Reload
//	}
//
//	eval.HasPermission("vendors", "read")   // {Granted:true} via hierarchy
//	eval.HasPermission("voucher", "create") // {Granted:true} via compatibility
//	eval.HasPermission("employees", "read") // {} (denied)
//
//	eval.HasAllPermissions(
//	    authz.Cap("inventory", "read"),
//	    authz.Cap("vendors", "read"),
//	)
//
// # Lifecycle
//
// The evaluator moves through uninitialized -> loading -> ready, back to
// loading on input changes, and to error on fetch failures. While no
// snapshot is installed queries report Pending; in StateError they report
// a plain denial and LastError carries the cause for the caller to
// surface and retry. Snapshots are swapped atomically: concurrent readers
// observe either the complete old or complete new state.
//
// Reloads are ordered by a monotonic sequence number; a reload superseded
// by a newer one is discarded when it completes, so a stale response can
// never clobber a fresher index.
//
// # Sources
//
// Configuration arrives through the Source interface: NewStaticSource for
// in-process data, NewHTTPSource for the remote config and hierarchy
// endpoints (schema mismatches degrade to DefaultFormatConfig rather than
// erroring), and NewRedisSource as a read-through TTL cache over either.
//
// # HTTP gating
//
// Gate, GateAny and GateAll wrap http.Handlers and render the protected
// content, a denial fallback, or a pending placeholder from the tri-state
// decision:
//
//	mux.Handle("/vouchers", authz.Gate(eval, "voucher", "create")(createVoucher))
package authz
